package export

import (
	"encoding/csv"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/tealeg/xlsx/v2"

	"github.com/sells-group/hpi-cli/internal/model"
)

// Output formats.
const (
	FormatCSV  = "csv"
	FormatXLSX = "xlsx"
)

// SheetName is the worksheet written by WriteXLSX.
const SheetName = "Events"

// Columns is the header row shared by every format.
var Columns = []string{
	"id", "name", "start", "end", "region", "deaths_min", "deaths_max",
	"tier", "denial_status", "index", "pattern_tags", "wikipedia_url",
}

// numeric marks the columns written as numbers in XLSX.
var numeric = map[int]bool{2: true, 3: true, 5: true, 6: true, 9: true}

// FormatFromPath infers the format from the file extension. Unknown
// extensions fall back to CSV.
func FormatFromPath(path string) string {
	if strings.EqualFold(filepath.Ext(path), ".xlsx") {
		return FormatXLSX
	}
	return FormatCSV
}

// Row returns the table cells for e in Columns order.
func Row(e *model.Event) []string {
	return []string{
		e.ID,
		e.Name,
		year(e.Period.Start, e.Period.HasStart),
		year(e.Period.End, e.Period.HasEnd),
		e.Geography.Region,
		strconv.FormatInt(e.Metrics.Mortality.Min, 10),
		strconv.FormatInt(e.Metrics.Mortality.Max, 10),
		string(e.Analysis.TierOrUnknown()),
		string(e.DenialOrUnknown()),
		strconv.Itoa(e.IndexScore()),
		strings.Join(e.Analysis.PatternTags, ";"),
		e.WikipediaURL,
	}
}

// year leaves the cell empty for an absent period bound.
func year(v int, ok bool) string {
	if !ok {
		return ""
	}
	return strconv.Itoa(v)
}

// WriteCSV writes the header and one row per event.
func WriteCSV(w io.Writer, events []*model.Event) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(Columns); err != nil {
		return eris.Wrap(err, "export: write csv header")
	}
	for _, e := range events {
		if err := cw.Write(Row(e)); err != nil {
			return eris.Wrapf(err, "export: write csv row %s", e.ID)
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return eris.Wrap(err, "export: flush csv")
	}
	return nil
}

// WriteXLSX writes a single-sheet workbook with a bold header row.
// Year, death-toll and index columns are numeric cells.
func WriteXLSX(w io.Writer, events []*model.Event) error {
	f := xlsx.NewFile()
	sheet, err := f.AddSheet(SheetName)
	if err != nil {
		return eris.Wrap(err, "export: add sheet")
	}

	header := xlsx.NewStyle()
	header.Font.Bold = true
	header.ApplyFont = true

	row := sheet.AddRow()
	for _, col := range Columns {
		cell := row.AddCell()
		cell.SetString(col)
		cell.SetStyle(header)
	}

	for _, e := range events {
		row := sheet.AddRow()
		for i, v := range Row(e) {
			cell := row.AddCell()
			if numeric[i] {
				n, err := strconv.ParseInt(v, 10, 64)
				if err != nil {
					return eris.Wrapf(err, "export: %s column %s", e.ID, Columns[i])
				}
				cell.SetInt64(n)
				continue
			}
			cell.SetString(v)
		}
	}

	if err := f.Write(w); err != nil {
		return eris.Wrap(err, "export: write xlsx")
	}
	return nil
}

// WriteFile writes events to path in the given format, or the format
// implied by the extension when format is empty. It returns the number
// of rows written.
func WriteFile(path, format string, events []*model.Event) (int, error) {
	if format == "" {
		format = FormatFromPath(path)
	}

	var write func(io.Writer, []*model.Event) error
	switch format {
	case FormatCSV:
		write = WriteCSV
	case FormatXLSX:
		write = WriteXLSX
	default:
		return 0, eris.Errorf("export: unknown format %q", format)
	}

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return 0, eris.Wrapf(err, "export: create %s", dir)
		}
	}
	out, err := os.Create(path)
	if err != nil {
		return 0, eris.Wrapf(err, "export: create %s", path)
	}
	if err := write(out, events); err != nil {
		out.Close() //nolint:errcheck
		return 0, err
	}
	if err := out.Close(); err != nil {
		return 0, eris.Wrapf(err, "export: close %s", path)
	}
	return len(events), nil
}

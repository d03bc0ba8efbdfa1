package export

import (
	"bytes"
	"encoding/csv"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tealeg/xlsx/v2"

	"github.com/sells-group/hpi-cli/internal/model"
)

func testEvents() []*model.Event {
	return []*model.Event{
		{
			ID:          "holodomor_1932",
			Name:        "Holodomor",
			Description: "Man-made famine in Soviet Ukraine",
			Period:      model.NewPeriod(1932, 1933),
			Geography:   model.Geography{Region: "Eastern Europe", Country: "Ukraine"},
			Participants: model.Participants{
				Perpetrators: []string{"Soviet state"},
				Victims:      []string{"Ukrainian peasants"},
			},
			Metrics: model.Metrics{
				Mortality: model.Mortality{Min: 3500000, Max: 5000000},
				Scores: map[string]int{
					model.CategorySystematic: 75,
					model.CategoryProfit:     60,
					model.CategoryIdeology:   80,
					model.CategoryComplicity: 50,
				},
			},
			Analysis: model.Analysis{
				Tier:        model.TierIndustrial,
				PatternTags: []string{"DELIBERATE_STARVATION", "PROPERTY_SEIZURE"},
			},
			DenialStatus: model.DenialPartial,
			WikipediaURL: "https://en.wikipedia.org/wiki/Holodomor",
		},
		{
			ID:        "carthage_146bc",
			Name:      "Destruction of Carthage",
			Period:    model.NewPeriod(-149, -146),
			Geography: model.Geography{Region: "North Africa"},
			Metrics: model.Metrics{
				Mortality: model.Mortality{Min: 150000, Max: 250000},
			},
			Analysis: model.Analysis{Tier: model.TierTotalErasure},
		},
		{
			ID:        "congo_1885",
			Name:      "Congo Free State",
			Period:    model.NewPeriod(1885, 1908),
			Geography: model.Geography{Region: "Central Africa"},
			Metrics: model.Metrics{
				Mortality: model.Mortality{Min: 1000000, Max: 10000000},
				Scores:    map[string]int{model.CategoryProfit: 100},
			},
			Analysis:     model.Analysis{Tier: model.TierProfitDriven, PatternNote: "rubber quotas"},
			DenialStatus: model.DenialDenied,
		},
	}
}

func TestRow(t *testing.T) {
	t.Parallel()

	events := testEvents()
	assert.Equal(t, []string{
		"holodomor_1932", "Holodomor", "1932", "1933", "Eastern Europe", "3500000", "5000000",
		"INDUSTRIAL MEGA-EVENT", "partial", "66", "DELIBERATE_STARVATION;PROPERTY_SEIZURE",
		"https://en.wikipedia.org/wiki/Holodomor",
	}, Row(events[0]))

	row := Row(&model.Event{ID: "bare"})
	assert.Equal(t, "Unknown", row[7])
	assert.Equal(t, "unknown", row[8])
	assert.Equal(t, "0", row[9])
	assert.Empty(t, row[2], "absent start")
	assert.Empty(t, row[3], "absent end")
	assert.Len(t, row, len(Columns))
}

func TestWriteCSV(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, testEvents()))

	rows, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 4)
	assert.Equal(t, Columns, rows[0])
	assert.Equal(t, "carthage_146bc", rows[2][0])
	assert.Equal(t, "-149", rows[2][2])
	assert.Equal(t, "", rows[2][10])
	assert.Equal(t, "25", rows[3][9])
}

func TestWriteFile_XLSX(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "out", "events.xlsx")
	n, err := WriteFile(path, "", testEvents())
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	f, err := xlsx.OpenFile(path)
	require.NoError(t, err)
	sheet, ok := f.Sheet[SheetName]
	require.True(t, ok)
	require.Len(t, sheet.Rows, 4)

	assert.Equal(t, "id", sheet.Rows[0].Cells[0].String())
	assert.Equal(t, "Holodomor", sheet.Rows[1].Cells[1].String())

	deaths, err := sheet.Rows[1].Cells[6].Int64()
	require.NoError(t, err)
	assert.Equal(t, int64(5000000), deaths)

	start, err := sheet.Rows[2].Cells[2].Int64()
	require.NoError(t, err)
	assert.Equal(t, int64(-149), start)
}

func TestWriteFile_CSVByExtension(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "events.csv")
	n, err := WriteFile(path, "", testEvents()[:1])
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "holodomor_1932,Holodomor,1932,1933")
}

func TestWriteFile_UnknownFormat(t *testing.T) {
	t.Parallel()

	_, err := WriteFile(filepath.Join(t.TempDir(), "events.json"), "json", nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), `unknown format "json"`)
}

func TestFormatFromPath(t *testing.T) {
	t.Parallel()

	assert.Equal(t, FormatXLSX, FormatFromPath("events.XLSX"))
	assert.Equal(t, FormatCSV, FormatFromPath("events.csv"))
	assert.Equal(t, FormatCSV, FormatFromPath("events"))
}

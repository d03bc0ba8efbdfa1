package report

import (
	"os"

	"github.com/rotisserie/eris"
)

// Document is a markdown file before and after splicing.
type Document struct {
	Path   string
	Before string
	After  string
}

// Prepare reads path and splices sections into it without writing.
func Prepare(path string, sections []Section) (*Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "report: read %s", path)
	}
	before := string(data)
	return &Document{
		Path:   path,
		Before: before,
		After:  Splice(before, sections),
	}, nil
}

// Changed reports whether splicing altered the content.
func (d *Document) Changed() bool {
	return d.Before != d.After
}

// Write saves the spliced content when it differs from what was read.
// It reports whether the file was written.
func (d *Document) Write() (bool, error) {
	if !d.Changed() {
		return false, nil
	}
	info, err := os.Stat(d.Path)
	if err != nil {
		return false, eris.Wrapf(err, "report: stat %s", d.Path)
	}
	if err := os.WriteFile(d.Path, []byte(d.After), info.Mode().Perm()); err != nil {
		return false, eris.Wrapf(err, "report: write %s", d.Path)
	}
	d.Before = d.After
	return true, nil
}

// UpdateDocument splices sections into the file at path and rewrites it
// only when the content changed.
func UpdateDocument(path string, sections []Section) (bool, error) {
	d, err := Prepare(path, sections)
	if err != nil {
		return false, err
	}
	return d.Write()
}

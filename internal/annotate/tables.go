// Package annotate runs the batch passes that add or rewrite curated
// fields on every event record.
package annotate

import (
	"embed"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"

	"github.com/sells-group/hpi-cli/internal/model"
)

// ErrNoMapping is returned when a lookup table has no entry for a record.
var ErrNoMapping = eris.New("annotate: no mapping")

//go:embed tables/*.yaml
var embedded embed.FS

// Table file names, shared by the embedded set and override directories.
const (
	DescriptionsFile    = "descriptions.yaml"
	RationalesFile      = "rationales.yaml"
	WarningSignsFile    = "warning_signs.yaml"
	GenerationalFile    = "generational.yaml"
	IdeologyFile        = "ideology.yaml"
	WikipediaSearchFile = "wikipedia_search.yaml"
)

// Causes is the warning-signs table entry for one event.
type Causes struct {
	WarningSigns []string `yaml:"warning_signs"`
	RootCauses   string   `yaml:"root_causes"`
}

// IdeologyFlags are the two ideology indicators set from the table.
type IdeologyFlags struct {
	Dehumanization   bool `yaml:"dehumanization"`
	MassMobilization bool `yaml:"mass_mobilization"`
}

// Tables holds the curated lookup tables. They are read once and never
// mutated.
type Tables struct {
	Descriptions    map[string]string
	Rationales      map[string]model.Rationales
	WarningSigns    map[string]Causes
	Generational    map[string]bool
	Ideology        map[string]IdeologyFlags
	WikipediaSearch map[string]string
}

// LoadTables reads the embedded tables. When dir is non-empty, any
// same-named file in dir replaces the embedded one.
func LoadTables(dir string) (*Tables, error) {
	t := &Tables{}
	loads := []struct {
		file string
		dst  any
	}{
		{DescriptionsFile, &t.Descriptions},
		{WarningSignsFile, &t.WarningSigns},
		{GenerationalFile, &t.Generational},
		{IdeologyFile, &t.Ideology},
		{WikipediaSearchFile, &t.WikipediaSearch},
	}
	for _, l := range loads {
		data, err := readTable(dir, l.file)
		if err != nil {
			return nil, err
		}
		if err := yaml.Unmarshal(data, l.dst); err != nil {
			return nil, eris.Wrapf(err, "annotate: parse %s", l.file)
		}
	}

	data, err := readTable(dir, RationalesFile)
	if err != nil {
		return nil, err
	}
	if t.Rationales, err = parseRationales(data); err != nil {
		return nil, eris.Wrapf(err, "annotate: parse %s", RationalesFile)
	}
	return t, nil
}

func readTable(dir, name string) ([]byte, error) {
	if dir != "" {
		data, err := os.ReadFile(filepath.Join(dir, name))
		if err == nil {
			return data, nil
		}
		if !errors.Is(err, fs.ErrNotExist) {
			return nil, eris.Wrapf(err, "annotate: read %s", name)
		}
	}
	data, err := embedded.ReadFile("tables/" + name)
	if err != nil {
		return nil, eris.Wrapf(err, "annotate: read embedded %s", name)
	}
	return data, nil
}

// parseRationales decodes stem -> category -> text, keeping category
// order as written.
func parseRationales(data []byte) (map[string]model.Rationales, error) {
	var doc map[string]yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, err
	}
	out := make(map[string]model.Rationales, len(doc))
	for key, node := range doc {
		if node.Kind != yaml.MappingNode {
			return nil, eris.Errorf("%s: expected a mapping at line %d", key, node.Line)
		}
		rs := make(model.Rationales, 0, len(node.Content)/2)
		for i := 0; i+1 < len(node.Content); i += 2 {
			rs = append(rs, model.Rationale{
				Category: node.Content[i].Value,
				Text:     node.Content[i+1].Value,
			})
		}
		out[key] = rs
	}
	return out, nil
}

func noMapping(table, key string) error {
	return eris.Wrapf(ErrNoMapping, "%s: %s", table, key)
}

// Description returns the summary for a file stem.
func (t *Tables) Description(stem string) (string, error) {
	d, ok := t.Descriptions[stem]
	if !ok {
		return "", noMapping("descriptions", stem)
	}
	return d, nil
}

// Causes returns the warning signs and root causes for a file stem.
func (t *Tables) Causes(stem string) (Causes, error) {
	c, ok := t.WarningSigns[stem]
	if !ok {
		return Causes{}, noMapping("warning signs", stem)
	}
	return c, nil
}

// GenerationalTargeting returns the generational_targeting value for a
// file stem.
func (t *Tables) GenerationalTargeting(stem string) (bool, error) {
	v, ok := t.Generational[stem]
	if !ok {
		return false, noMapping("generational", stem)
	}
	return v, nil
}

// IdeologyFlags returns the ideology overrides for a file stem.
func (t *Tables) IdeologyFlags(stem string) (IdeologyFlags, error) {
	v, ok := t.Ideology[stem]
	if !ok {
		return IdeologyFlags{}, noMapping("ideology", stem)
	}
	return v, nil
}

// SearchTerm returns the manual encyclopedia query for an event name.
func (t *Tables) SearchTerm(name string) (string, bool) {
	q, ok := t.WikipediaSearch[name]
	return q, ok
}

// RationaleKey strips the trailing "_<segment>" year suffix from an id.
// An id with no underscore yields "".
func RationaleKey(id string) string {
	i := strings.LastIndex(id, "_")
	if i < 0 {
		return ""
	}
	return id[:i]
}

// Rationale finds the rationales for a record: by id without its year
// suffix, then by file stem, then by the longest table key the stem
// starts with.
func (t *Tables) Rationale(id, stem string) (model.Rationales, error) {
	key := RationaleKey(id)
	if key == "" {
		key = stem
	}
	if rs, ok := t.Rationales[key]; ok {
		return rs, nil
	}
	if rs, ok := t.Rationales[stem]; ok {
		return rs, nil
	}
	best := ""
	for k := range t.Rationales {
		if strings.HasPrefix(stem, k) && len(k) > len(best) {
			best = k
		}
	}
	if best != "" {
		return t.Rationales[best], nil
	}
	return nil, noMapping("rationales", key)
}

package report

import (
	"regexp"
	"strings"
)

var markerRe = regexp.MustCompile(`<!-- STATS:([A-Za-z0-9_]+) -->`)

// Section is one generated marker region.
type Section struct {
	Key    string
	Render func() string
}

func openMarker(key string) string  { return "<!-- STATS:" + key + " -->" }
func closeMarker(key string) string { return "<!-- /STATS:" + key + " -->" }

// Splice replaces the text between each section's paired markers with
// its rendered value. Single-line values are inlined; multi-line values
// are wrapped in newlines. Keys absent from doc are skipped and markers
// without a matching section are left alone.
func Splice(doc string, sections []Section) string {
	for _, s := range sections {
		opening, closing := openMarker(s.Key), closeMarker(s.Key)
		if !strings.Contains(doc, opening) {
			continue
		}
		re := regexp.MustCompile(`(?s)` + regexp.QuoteMeta(opening) + `.*?` + regexp.QuoteMeta(closing))

		value := s.Render()
		if strings.Contains(value, "\n") {
			value = "\n" + value + "\n"
		}
		doc = re.ReplaceAllLiteralString(doc, opening+value+closing)
	}
	return doc
}

// Markers returns the distinct marker keys in doc, in order of first
// appearance.
func Markers(doc string) []string {
	var keys []string
	seen := make(map[string]bool)
	for _, m := range markerRe.FindAllStringSubmatch(doc, -1) {
		if !seen[m[1]] {
			seen[m[1]] = true
			keys = append(keys, m[1])
		}
	}
	return keys
}

// Unknown returns the marker keys in doc that no section renders.
func Unknown(doc string, sections []Section) []string {
	known := make(map[string]bool, len(sections))
	for _, s := range sections {
		known[s.Key] = true
	}
	var out []string
	for _, k := range Markers(doc) {
		if !known[k] {
			out = append(out, k)
		}
	}
	return out
}

package pattern

import (
	"slices"
	"sort"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/sells-group/hpi-cli/internal/corpus"
	"github.com/sells-group/hpi-cli/internal/model"
)

// Tagger matches a record's searchable text against a category table.
type Tagger struct {
	categories []Category
}

// NewTagger creates a Tagger over the given categories. A nil slice uses
// Taxonomy.
func NewTagger(categories []Category) *Tagger {
	if categories == nil {
		categories = Taxonomy
	}
	return &Tagger{categories: categories}
}

// Categories returns the table the tagger matches against.
func (t *Tagger) Categories() []Category {
	return t.categories
}

// SearchableText concatenates the free-text fields of an event in a fixed
// order and lowercases the result. The tier is always appended, even when
// empty.
func SearchableText(e *model.Event) string {
	var texts []string
	texts = append(texts, e.Analysis.WarningSigns...)
	if e.Analysis.RootCauses != "" {
		texts = append(texts, e.Analysis.RootCauses)
	}
	if e.Analysis.PatternNote != "" {
		texts = append(texts, e.Analysis.PatternNote)
	}
	texts = append(texts, e.Metrics.Rationales.Texts()...)
	texts = append(texts, e.Tags...)
	texts = append(texts, string(e.Analysis.Tier))
	if e.Metrics.Mortality.Note != "" {
		texts = append(texts, e.Metrics.Mortality.Note)
	}
	return strings.ToLower(strings.Join(texts, " "))
}

// Match returns the sorted ids of every category with at least one
// keyword occurring in text. text is expected to be lowercase.
func (t *Tagger) Match(text string) []string {
	matched := []string{}
	for _, c := range t.categories {
		if containsAny(text, c.Keywords...) {
			matched = append(matched, c.ID)
		}
	}
	sort.Strings(matched)
	return matched
}

// Detect returns the pattern tags for an event. An event without any
// matching keyword yields an empty, non-nil slice.
func (t *Tagger) Detect(e *model.Event) []string {
	return t.Match(SearchableText(e))
}

// Apply overwrites analysis.pattern_tags with the detected set, creating
// analysis when missing. It reports whether the stored tags changed.
func (t *Tagger) Apply(r *corpus.Record) (bool, error) {
	tags := t.Detect(r.Event())
	existing := r.Get("analysis.pattern_tags")
	if existing.IsArray() {
		var current []string
		for _, v := range existing.Array() {
			current = append(current, v.String())
		}
		if current == nil {
			current = []string{}
		}
		if slices.Equal(current, tags) {
			return false, nil
		}
	}
	if err := r.Set("analysis.pattern_tags", tags); err != nil {
		return false, eris.Wrapf(err, "pattern: tag %s", r.Name)
	}
	return true, nil
}

// Frequency counts, per category id, the events whose pattern_tags
// include it.
func Frequency(events []*model.Event) map[string]int {
	counts := make(map[string]int)
	for _, e := range events {
		seen := make(map[string]bool, len(e.Analysis.PatternTags))
		for _, tag := range e.Analysis.PatternTags {
			if seen[tag] {
				continue
			}
			seen[tag] = true
			counts[tag]++
		}
	}
	return counts
}

func containsAny(s string, keywords ...string) bool {
	for _, kw := range keywords {
		if strings.Contains(s, kw) {
			return true
		}
	}
	return false
}

package scorer

import (
	"sort"
	"strconv"

	"github.com/rotisserie/eris"
	"github.com/tidwall/gjson"

	"github.com/sells-group/hpi-cli/internal/corpus"
	"github.com/sells-group/hpi-cli/internal/model"
)

// ErrMissingBreakdown is returned when a record has no breakdown for the
// requested category. Batch callers skip the record with a warning.
var ErrMissingBreakdown = eris.New("scorer: missing breakdown")

func breakdownPath(category string) string { return "metrics.breakdowns." + category }

func scorePath(category string) string { return "metrics.scores." + category }

// Breakdown returns the record's breakdown for category.
func Breakdown(r *corpus.Record, category string) (model.Breakdown, error) {
	if !r.Get(breakdownPath(category)).IsObject() {
		return nil, eris.Wrapf(ErrMissingBreakdown, "%s: %s", r.ID(), category)
	}
	return r.Event().Metrics.Breakdowns[category], nil
}

// Recalculate sets metrics.scores[category] from the breakdown and
// reports whether the stored score changed.
func Recalculate(r *corpus.Record, category string) (bool, error) {
	b, err := Breakdown(r, category)
	if err != nil {
		return false, err
	}
	want := Score(b)
	cur := r.Get(scorePath(category))
	if cur.Type == gjson.Number && cur.Raw == strconv.Itoa(want) {
		return false, nil
	}
	if err := r.Set(scorePath(category), want); err != nil {
		return false, eris.Wrap(err, "scorer: set score")
	}
	return true, nil
}

// SetBreakdown writes b as the record's breakdown for category and
// recomputes the matching score.
func SetBreakdown(r *corpus.Record, category string, b model.Breakdown) error {
	if err := r.Set(breakdownPath(category), b); err != nil {
		return eris.Wrap(err, "scorer: set breakdown")
	}
	_, err := Recalculate(r, category)
	return err
}

// Result summarizes a RecalculateAll call.
type Result struct {
	Changed []string
	// Orphans are score keys with no breakdown to derive them from.
	Orphans []string
}

// RecalculateAll recomputes every score that has a breakdown. Breakdown
// categories without a score gain one.
func RecalculateAll(r *corpus.Record) (Result, error) {
	var res Result
	m := r.Event().Metrics

	categories := make([]string, 0, len(m.Breakdowns))
	for c := range m.Breakdowns {
		categories = append(categories, c)
	}
	sort.Strings(categories)

	for _, c := range categories {
		changed, err := Recalculate(r, c)
		if err != nil {
			return res, err
		}
		if changed {
			res.Changed = append(res.Changed, c)
		}
	}

	for c := range m.Scores {
		if _, ok := m.Breakdowns[c]; !ok {
			res.Orphans = append(res.Orphans, c)
		}
	}
	sort.Strings(res.Orphans)
	return res, nil
}

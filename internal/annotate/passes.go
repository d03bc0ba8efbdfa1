package annotate

import (
	"context"
	"fmt"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/sells-group/hpi-cli/internal/corpus"
	"github.com/sells-group/hpi-cli/internal/model"
	"github.com/sells-group/hpi-cli/internal/pattern"
	"github.com/sells-group/hpi-cli/internal/scorer"
)

// ErrSkip marks a record the pass deliberately leaves alone.
var ErrSkip = eris.New("annotate: skip")

// Pass names.
const (
	PassPatternTags  = "pattern-tags"
	PassDescriptions = "descriptions"
	PassRationales   = "rationales"
	PassWarningSigns = "warning-signs"
	PassGenerational = "generational"
	PassIdeology     = "ideology"
	PassRescore      = "rescore"
	PassWikipedia    = "wikipedia"
)

// Pass edits one record in memory. The runner decides whether to save.
// Apply returns a short human-readable detail for the console and the
// ledger. Errors matching ErrSkip, ErrNoMapping or
// scorer.ErrMissingBreakdown skip the record; any other error fails it.
type Pass interface {
	Name() string
	Apply(ctx context.Context, r *corpus.Record) (string, error)
}

// PassFunc adapts a function to the Pass interface.
type PassFunc struct {
	PassName string
	Fn       func(ctx context.Context, r *corpus.Record) (string, error)
}

func (p PassFunc) Name() string { return p.PassName }

func (p PassFunc) Apply(ctx context.Context, r *corpus.Record) (string, error) {
	return p.Fn(ctx, r)
}

// PatternTags re-derives analysis.pattern_tags.
func PatternTags(t *pattern.Tagger) Pass {
	return PassFunc{PassName: PassPatternTags, Fn: func(_ context.Context, r *corpus.Record) (string, error) {
		if _, err := t.Apply(r); err != nil {
			return "", err
		}
		return joinTags(r.Event().Analysis.PatternTags), nil
	}}
}

func joinTags(tags []string) string {
	if len(tags) == 0 {
		return "(none)"
	}
	return strings.Join(tags, ", ")
}

// Descriptions inserts a description right after name when the record
// has none.
func Descriptions(t *Tables) Pass {
	return PassFunc{PassName: PassDescriptions, Fn: func(_ context.Context, r *corpus.Record) (string, error) {
		if r.Get("description").Exists() {
			return "", eris.Wrap(ErrSkip, "already has description")
		}
		d, err := t.Description(r.Stem)
		if err != nil {
			return "", err
		}
		if err := r.InsertAfter("", "name", "description", d); err != nil {
			return "", err
		}
		return "added description", nil
	}}
}

// Rationales replaces metrics.rationales from the table.
func Rationales(t *Tables) Pass {
	return PassFunc{PassName: PassRationales, Fn: func(_ context.Context, r *corpus.Record) (string, error) {
		rs, err := t.Rationale(r.ID(), r.Stem)
		if err != nil {
			return "", err
		}
		if !r.Get("metrics").IsObject() {
			return "", eris.Errorf("annotate: %s has no metrics object", r.Stem)
		}
		if err := r.Set("metrics.rationales", rs); err != nil {
			return "", err
		}
		return "rationales for " + joinCategories(rs), nil
	}}
}

func joinCategories(rs model.Rationales) string {
	cats := make([]string, 0, len(rs))
	for _, x := range rs {
		cats = append(cats, x.Category)
	}
	return strings.Join(cats, ", ")
}

// WarningSigns replaces analysis.warning_signs and analysis.root_causes.
func WarningSigns(t *Tables) Pass {
	return PassFunc{PassName: PassWarningSigns, Fn: func(_ context.Context, r *corpus.Record) (string, error) {
		c, err := t.Causes(r.Stem)
		if err != nil {
			return "", err
		}
		if !r.Get("analysis").IsObject() {
			return "", eris.Errorf("annotate: %s has no analysis object", r.Stem)
		}
		signs := c.WarningSigns
		if signs == nil {
			signs = []string{}
		}
		if err := r.Set("analysis.warning_signs", signs); err != nil {
			return "", err
		}
		if err := r.Set("analysis.root_causes", c.RootCauses); err != nil {
			return "", err
		}
		return "added causes", nil
	}}
}

// Indicator keys touched by the rescoring passes.
const (
	BroadTargeting        = "broad_targeting"
	GenerationalTargeting = "generational_targeting"
	Propaganda            = "propaganda"
)

// IdeologyKeys is the rebuilt ideology breakdown, in order.
var IdeologyKeys = []string{"purity_ideal", "dehumanization", "mass_mobilization", "victim_narrative", "utopianism"}

// Generational replaces broad_targeting with generational_targeting in
// the systematic_intensity breakdown and recomputes its score.
func Generational(t *Tables) Pass {
	return PassFunc{PassName: PassGenerational, Fn: func(_ context.Context, r *corpus.Record) (string, error) {
		v, err := t.GenerationalTargeting(r.Stem)
		if err != nil {
			return "", err
		}
		return rescore(r, model.CategorySystematic, func(b model.Breakdown) model.Breakdown {
			return scorer.ReplaceIndicator(b, BroadTargeting, GenerationalTargeting, Propaganda, v)
		})
	}}
}

// Ideology rebuilds the ideology breakdown with the table's
// dehumanization and mass_mobilization values and recomputes its score.
// A record with no ideology breakdown gets one with the other
// indicators false.
func Ideology(t *Tables) Pass {
	return PassFunc{PassName: PassIdeology, Fn: func(_ context.Context, r *corpus.Record) (string, error) {
		f, err := t.IdeologyFlags(r.Stem)
		if err != nil {
			return "", err
		}
		if !r.Get("metrics.breakdowns").IsObject() {
			return "", eris.Wrapf(scorer.ErrMissingBreakdown, "%s: breakdowns", r.ID())
		}
		if !r.Get("metrics.breakdowns." + model.CategoryIdeology).Exists() {
			if err := r.Set("metrics.breakdowns."+model.CategoryIdeology, model.Breakdown{}); err != nil {
				return "", err
			}
		}
		overrides := map[string]bool{
			"dehumanization":    f.Dehumanization,
			"mass_mobilization": f.MassMobilization,
		}
		return rescore(r, model.CategoryIdeology, func(b model.Breakdown) model.Breakdown {
			return scorer.Rebuild(b, IdeologyKeys, overrides)
		})
	}}
}

// rescore rewrites one breakdown with edit and reports the score move.
func rescore(r *corpus.Record, category string, edit func(model.Breakdown) model.Breakdown) (string, error) {
	b, err := scorer.Breakdown(r, category)
	if err != nil {
		return "", err
	}
	old := r.Get("metrics.scores." + category).Int()
	next := edit(b)
	if err := scorer.SetBreakdown(r, category, next); err != nil {
		return "", err
	}
	return scoreMove(old, int64(scorer.Score(next))), nil
}

func scoreMove(old, next int64) string {
	symbol, diff := "=", next-old
	switch {
	case diff > 0:
		symbol = "↑"
	case diff < 0:
		symbol = "↓"
		diff = -diff
	}
	return fmt.Sprintf("%3d%% → %3d%% (%s%d)", old, next, symbol, diff)
}

// Rescore recomputes every score from its breakdown.
func Rescore() Pass {
	return PassFunc{PassName: PassRescore, Fn: func(_ context.Context, r *corpus.Record) (string, error) {
		res, err := scorer.RecalculateAll(r)
		if err != nil {
			return "", err
		}
		detail := "scores consistent"
		if len(res.Changed) > 0 {
			detail = "rescored " + strings.Join(res.Changed, ", ")
		}
		if len(res.Orphans) > 0 {
			detail += "; no breakdown for " + strings.Join(res.Orphans, ", ")
		}
		return detail, nil
	}}
}

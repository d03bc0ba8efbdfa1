package annotate

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/hpi-cli/internal/corpus"
	"github.com/sells-group/hpi-cli/internal/model"
	"github.com/sells-group/hpi-cli/internal/scorer"
	"github.com/sells-group/hpi-cli/internal/store"
)

// Runner applies a pass to every eligible record in sorted order, one
// record at a time.
type Runner struct {
	corpus *corpus.Store
	ledger store.Store
	log    *zap.Logger
	out    io.Writer
}

// RunnerOption configures a Runner.
type RunnerOption func(*Runner)

// WithLedger records each run and its per-record outcomes.
func WithLedger(s store.Store) RunnerOption {
	return func(r *Runner) {
		r.ledger = s
	}
}

// WithRunnerLogger sets the structured logger.
func WithRunnerLogger(log *zap.Logger) RunnerOption {
	return func(r *Runner) {
		r.log = log
	}
}

// WithOutput sets where per-record progress lines are printed.
func WithOutput(w io.Writer) RunnerOption {
	return func(r *Runner) {
		r.out = w
	}
}

// NewRunner creates a runner over c. By default nothing is recorded and
// progress is discarded.
func NewRunner(c *corpus.Store, opts ...RunnerOption) *Runner {
	r := &Runner{
		corpus: c,
		ledger: store.Nop{},
		log:    zap.NewNop(),
		out:    io.Discard,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Report is the outcome of one Run.
type Report struct {
	Run   *model.Run
	Items []model.RunItem
}

// Skipped returns the items that were skipped.
func (rep *Report) Skipped() []model.RunItem {
	var out []model.RunItem
	for _, it := range rep.Items {
		if it.Outcome == model.OutcomeSkipped {
			out = append(out, it)
		}
	}
	return out
}

// Outcome maps a pass error to the record outcome. Missing mappings,
// missing breakdowns and deliberate skips do not fail the record.
func Outcome(err error) model.Outcome {
	switch {
	case err == nil:
		return model.OutcomeModified
	case errors.Is(err, ErrSkip),
		errors.Is(err, ErrNoMapping),
		errors.Is(err, ErrNoMatch),
		errors.Is(err, scorer.ErrMissingBreakdown):
		return model.OutcomeSkipped
	}
	return model.OutcomeFailed
}

var outcomeSymbols = map[model.Outcome]string{
	model.OutcomeModified:  "✓",
	model.OutcomeUnchanged: "·",
	model.OutcomeSkipped:   "⚠",
	model.OutcomeFailed:    "✗",
}

// Run applies p to every record. A failing record never stops the batch,
// nor does one rejected by the event schema; an unreadable or malformed
// record does, as does ctx cancellation.
func (rn *Runner) Run(ctx context.Context, p Pass) (*Report, error) {
	log := rn.log.With(zap.String("pass", p.Name()))

	run, err := rn.ledger.CreateRun(ctx, p.Name())
	if err != nil {
		return nil, eris.Wrap(err, "annotate: create run")
	}
	log = log.With(zap.String("run_id", run.ID))
	rep := &Report{Run: run}

	runErr := rn.visit(ctx, p, log, rep)

	status := model.RunStatusComplete
	errText := ""
	if runErr != nil {
		status = model.RunStatusFailed
		errText = runErr.Error()
	}
	now := time.Now().UTC()
	run.Status = status
	run.Error = errText
	run.FinishedAt = &now

	if err := rn.ledger.AddItems(ctx, run.ID, rep.Items); err != nil {
		log.Error("annotate: record items", zap.Error(err))
	}
	if err := rn.ledger.CompleteRun(ctx, run.ID, status, run.Counts, errText); err != nil {
		log.Error("annotate: complete run", zap.Error(err))
	}

	fmt.Fprintf(rn.out, "\n%s: %d modified, %d unchanged, %d skipped, %d failed\n",
		p.Name(), run.Counts.Modified, run.Counts.Unchanged, run.Counts.Skipped, run.Counts.Failed)

	log.Info("annotate: pass complete",
		zap.Int("modified", run.Counts.Modified),
		zap.Int("unchanged", run.Counts.Unchanged),
		zap.Int("skipped", run.Counts.Skipped),
		zap.Int("failed", run.Counts.Failed),
	)
	return rep, runErr
}

func (rn *Runner) visit(ctx context.Context, p Pass, log *zap.Logger, rep *Report) error {
	paths, err := rn.corpus.List()
	if err != nil {
		return err
	}

	for _, path := range paths {
		if err := ctx.Err(); err != nil {
			return eris.Wrap(err, "annotate: interrupted")
		}

		var item model.RunItem
		rec, err := rn.corpus.Load(path)
		switch {
		case errors.Is(err, corpus.ErrSchema):
			name := filepath.Base(path)
			item = model.RunItem{
				Record:  strings.TrimSuffix(name, filepath.Ext(name)),
				Outcome: model.OutcomeFailed,
				Detail:  err.Error(),
			}
			log.Warn("annotate: record rejected", zap.String("record", item.Record), zap.Error(err))
		case err != nil:
			return err
		default:
			item = rn.apply(ctx, p, rec, log)
		}

		item.RunID = rep.Run.ID
		rep.Items = append(rep.Items, item)
		rep.Run.Counts.Add(item.Outcome)

		fmt.Fprintf(rn.out, "%s %-40s %s\n", outcomeSymbols[item.Outcome], item.Record, item.Detail)
	}
	return nil
}

func (rn *Runner) apply(ctx context.Context, p Pass, rec *corpus.Record, log *zap.Logger) model.RunItem {
	item := model.RunItem{Record: rec.Stem}

	detail, err := p.Apply(ctx, rec)
	item.Outcome = Outcome(err)
	switch item.Outcome {
	case model.OutcomeSkipped:
		item.Detail = err.Error()
		log.Warn("annotate: record skipped", zap.String("record", rec.Stem), zap.Error(err))
		return item
	case model.OutcomeFailed:
		item.Detail = err.Error()
		log.Warn("annotate: record failed", zap.String("record", rec.Stem), zap.Error(err))
		return item
	}

	wrote, err := rn.corpus.Save(rec)
	if err != nil {
		item.Outcome = model.OutcomeFailed
		item.Detail = err.Error()
		log.Warn("annotate: save failed", zap.String("record", rec.Stem), zap.Error(err))
		return item
	}
	item.Detail = detail
	if !wrote {
		item.Outcome = model.OutcomeUnchanged
	}
	log.Info("annotate: record done",
		zap.String("record", rec.Stem),
		zap.String("outcome", string(item.Outcome)),
	)
	return item
}

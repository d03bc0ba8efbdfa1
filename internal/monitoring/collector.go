// Package monitoring validates the corpus and exposes a point-in-time
// snapshot of it as Prometheus gauges.
package monitoring

import (
	"context"
	"time"

	"github.com/rotisserie/eris"

	"github.com/sells-group/hpi-cli/internal/corpus"
	"github.com/sells-group/hpi-cli/internal/model"
	"github.com/sells-group/hpi-cli/internal/report"
	"github.com/sells-group/hpi-cli/internal/store"
)

// ledgerLookback bounds how many recent runs are counted per snapshot.
const ledgerLookback = 1000

// Snapshot holds a point-in-time view of the corpus.
type Snapshot struct {
	Events    int   `json:"events"`
	DeathsMin int64 `json:"deaths_min"`
	DeathsMax int64 `json:"deaths_max"`

	ByTier    map[string]int `json:"by_tier"`
	ByDenial  map[string]int `json:"by_denial"`
	ByPattern map[string]int `json:"by_pattern"`

	Errors   int `json:"validation_errors"`
	Warnings int `json:"validation_warnings"`

	// LedgerRuns counts recent ledger runs per status. Empty when no
	// ledger is configured.
	LedgerRuns map[model.RunStatus]int `json:"ledger_runs,omitempty"`

	CollectedAt time.Time `json:"collected_at"`
}

// KnowledgeLoader returns the knowledge lists checked for dangling
// references.
type KnowledgeLoader func() ([][]model.KnowledgeEntry, error)

// Collector gathers snapshots from the corpus and the run ledger.
type Collector struct {
	corpus    *corpus.Store
	ledger    store.Store
	validator *Validator
	knowledge KnowledgeLoader
}

// NewCollector creates a collector. ledger and knowledge may be nil.
func NewCollector(c *corpus.Store, ledger store.Store, validator *Validator, knowledge KnowledgeLoader) *Collector {
	if ledger == nil {
		ledger = store.Nop{}
	}
	if validator == nil {
		validator = NewValidator(nil)
	}
	return &Collector{corpus: c, ledger: ledger, validator: validator, knowledge: knowledge}
}

// Collect loads the corpus and builds a snapshot of it.
func (c *Collector) Collect(ctx context.Context) (*Snapshot, error) {
	records, rejected, err := c.corpus.LoadAll(ctx)
	if err != nil {
		return nil, eris.Wrap(err, "monitoring: load corpus")
	}
	return c.CollectRecords(ctx, records, rejected)
}

// CollectRecords builds a snapshot from already loaded records. Rejected
// records count as validation errors and are left out of the totals.
func (c *Collector) CollectRecords(ctx context.Context, records []*corpus.Record, rejected []corpus.Rejected) (*Snapshot, error) {
	stats := report.Calc(corpus.EventsOf(records))
	snap := &Snapshot{
		Events:      stats.Count,
		DeathsMin:   stats.DeathsMin,
		DeathsMax:   stats.DeathsMax,
		ByTier:      make(map[string]int, len(stats.ByTier)),
		ByDenial:    make(map[string]int, len(stats.ByDenial)),
		ByPattern:   make(map[string]int, len(stats.Patterns)),
		CollectedAt: time.Now().UTC(),
	}
	for _, t := range stats.ByTier {
		snap.ByTier[t.Key] = t.Count
	}
	for st, n := range stats.DenialCounts() {
		snap.ByDenial[string(st)] = n
	}
	for _, p := range stats.Patterns {
		snap.ByPattern[p.ID] = p.Count
	}

	var knowledge [][]model.KnowledgeEntry
	if c.knowledge != nil {
		var err error
		if knowledge, err = c.knowledge(); err != nil {
			return nil, eris.Wrap(err, "monitoring: load knowledge")
		}
	}
	issues := append(SchemaIssues(rejected), c.validator.Validate(records, knowledge...)...)
	snap.Errors = issues.Count(SeverityError)
	snap.Warnings = issues.Count(SeverityWarning)

	runs, err := c.ledger.ListRuns(ctx, store.RunFilter{Limit: ledgerLookback})
	if err != nil {
		return nil, eris.Wrap(err, "monitoring: list runs")
	}
	if len(runs) > 0 {
		snap.LedgerRuns = make(map[model.RunStatus]int)
		for _, r := range runs {
			snap.LedgerRuns[r.Status]++
		}
	}
	return snap, nil
}

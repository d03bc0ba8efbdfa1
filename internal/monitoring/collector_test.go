package monitoring

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/hpi-cli/internal/corpus"
	"github.com/sells-group/hpi-cli/internal/model"
	"github.com/sells-group/hpi-cli/internal/store"
)

const famineRecord = `{
  "id": "famine_1932",
  "name": "Famine",
  "period": {"start": 1932, "end": 1933},
  "metrics": {"mortality": {"min": 2000, "max": 5000}},
  "analysis": {"warning_signs": ["grain quota raised"], "pattern_tags": ["DELIBERATE_STARVATION"]},
  "denial_status": "partial"
}`

// ledgerStub overrides ListRuns on top of the no-op store.
type ledgerStub struct {
	store.Nop
	runs []model.Run
	err  error
}

func (l ledgerStub) ListRuns(_ context.Context, filter store.RunFilter) ([]model.Run, error) {
	if filter.Limit != ledgerLookback {
		return nil, errors.New("unexpected limit")
	}
	return l.runs, l.err
}

func newTestCorpus(t *testing.T, records map[string]string) *corpus.Store {
	t.Helper()
	root := t.TempDir()
	dir := filepath.Join(root, "data", "events")
	require.NoError(t, os.MkdirAll(dir, 0o755))
	for name, data := range records {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(data), 0o644))
	}
	return corpus.New(root, "data/events", "data/index.json")
}

func TestCollector_Collect(t *testing.T) {
	t.Parallel()

	c := newTestCorpus(t, map[string]string{
		"clean.json":     cleanRecord,
		"famine.json":    famineRecord,
		"_template.json": `{"id": ""}`,
	})
	ledger := ledgerStub{runs: []model.Run{
		{ID: "1", Status: model.RunStatusComplete},
		{ID: "2", Status: model.RunStatusComplete},
		{ID: "3", Status: model.RunStatusFailed},
	}}

	snap, err := NewCollector(c, ledger, nil, nil).Collect(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 2, snap.Events)
	assert.Equal(t, int64(3000), snap.DeathsMin)
	assert.Equal(t, int64(8000), snap.DeathsMax)
	assert.Equal(t, map[string]int{"TOTAL ERASURE": 1, "Unknown": 1}, snap.ByTier)
	assert.Equal(t, 1, snap.ByDenial["denied"])
	assert.Equal(t, 1, snap.ByDenial["partial"])
	assert.Equal(t, 0, snap.ByDenial["suppressed"])
	assert.Equal(t, 1, snap.ByPattern["DELIBERATE_STARVATION"])
	assert.Equal(t, 0, snap.ByPattern["DEHUMANIZATION"])
	assert.Zero(t, snap.Errors)
	assert.Equal(t, map[model.RunStatus]int{model.RunStatusComplete: 2, model.RunStatusFailed: 1}, snap.LedgerRuns)
	assert.WithinDuration(t, time.Now(), snap.CollectedAt, time.Minute)
}

func TestCollector_ValidationAndKnowledge(t *testing.T) {
	t.Parallel()

	c := newTestCorpus(t, map[string]string{
		"stale.json": `{"id": "stale", "metrics": {"scores": {"profit": 10}}}`,
	})
	knowledge := func() ([][]model.KnowledgeEntry, error) {
		return [][]model.KnowledgeEntry{{{Name: "Scrolls", ConnectedEvent: "nowhere"}}}, nil
	}

	snap, err := NewCollector(c, nil, nil, knowledge).Collect(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, snap.Errors)
	assert.Equal(t, 1, snap.Warnings)
	assert.Nil(t, snap.LedgerRuns)
}

func TestCollector_SchemaMismatchCountsAsError(t *testing.T) {
	t.Parallel()

	c := newTestCorpus(t, map[string]string{
		"clean.json":  cleanRecord,
		"quoted.json": `{"id": "quoted", "metrics": {"mortality": {"min": "about 2000"}}}`,
	})

	snap, err := NewCollector(c, nil, nil, nil).Collect(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, snap.Events)
	assert.Equal(t, int64(1000), snap.DeathsMin)
	assert.Equal(t, 1, snap.Errors)
}

func TestCollector_Errors(t *testing.T) {
	t.Parallel()

	t.Run("malformed record", func(t *testing.T) {
		t.Parallel()
		c := newTestCorpus(t, map[string]string{"bad.json": `{"id":`})
		_, err := NewCollector(c, nil, nil, nil).Collect(context.Background())
		require.Error(t, err)
		assert.Contains(t, err.Error(), "monitoring: load corpus")
	})

	t.Run("knowledge", func(t *testing.T) {
		t.Parallel()
		c := newTestCorpus(t, map[string]string{"clean.json": cleanRecord})
		knowledge := func() ([][]model.KnowledgeEntry, error) { return nil, errors.New("disk gone") }
		_, err := NewCollector(c, nil, nil, knowledge).Collect(context.Background())
		require.Error(t, err)
		assert.Contains(t, err.Error(), "monitoring: load knowledge")
	})

	t.Run("ledger", func(t *testing.T) {
		t.Parallel()
		c := newTestCorpus(t, map[string]string{"clean.json": cleanRecord})
		_, err := NewCollector(c, ledgerStub{err: errors.New("db down")}, nil, nil).Collect(context.Background())
		require.Error(t, err)
		assert.Contains(t, err.Error(), "monitoring: list runs")
	})
}

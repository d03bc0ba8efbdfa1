package monitoring

import (
	"context"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChecker_Check(t *testing.T) {
	t.Parallel()

	c := newTestCorpus(t, map[string]string{"clean.json": cleanRecord, "famine.json": famineRecord})
	m := NewMetrics()
	checker := NewChecker(NewCollector(c, nil, nil, nil), m, time.Hour)

	snap, err := checker.Check(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, snap.Events)
	assert.Equal(t, 2.0, testutil.ToFloat64(m.events))
}

func TestChecker_CheckError(t *testing.T) {
	t.Parallel()

	c := newTestCorpus(t, map[string]string{"bad.json": `[`})
	m := NewMetrics()
	_, err := NewChecker(NewCollector(c, nil, nil, nil), m, time.Hour).Check(context.Background())
	require.Error(t, err)
	assert.Equal(t, 0.0, testutil.ToFloat64(m.events))
}

func TestChecker_DefaultInterval(t *testing.T) {
	t.Parallel()

	checker := NewChecker(nil, nil, 0)
	assert.Equal(t, DefaultInterval, checker.interval)
}

func TestChecker_RunStopsOnCancel(t *testing.T) {
	t.Parallel()

	c := newTestCorpus(t, map[string]string{"clean.json": cleanRecord})
	m := NewMetrics()
	checker := NewChecker(NewCollector(c, nil, nil, nil), m, 10*time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		checker.Run(ctx)
		close(done)
	}()

	assert.Eventually(t, func() bool {
		return testutil.ToFloat64(m.events) == 1
	}, time.Second, 5*time.Millisecond)
	cancel()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("checker.Run did not return after context cancellation")
	}
}

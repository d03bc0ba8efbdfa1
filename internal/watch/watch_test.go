package watch

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

type recorder struct {
	mu    sync.Mutex
	calls [][]string
}

func (r *recorder) handle(_ context.Context, changed []string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, changed)
	return nil
}

func (r *recorder) snapshot() [][]string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([][]string, len(r.calls))
	copy(out, r.calls)
	return out
}

func writeFile(t *testing.T, dir, name string) string {
	t.Helper()
	p := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(p, []byte(`{}`), 0o644))
	return p
}

func TestWatcher_DebouncesBurst(t *testing.T) {
	defer goleak.VerifyNone(t)

	dir := t.TempDir()
	rec := &recorder{}
	w := New(dir, rec.handle, WithDebounce(100*time.Millisecond))
	require.NoError(t, w.Start(context.Background()))

	a := writeFile(t, dir, "a.json")
	b := writeFile(t, dir, "b.json")
	writeFile(t, dir, "notes.txt")
	writeFile(t, dir, "a.json")

	require.Eventually(t, func() bool { return len(rec.snapshot()) == 1 }, 3*time.Second, 10*time.Millisecond)
	assert.Equal(t, []string{a, b}, rec.snapshot()[0])
	assert.Equal(t, 1, w.Runs())

	require.NoError(t, os.Remove(b))
	require.Eventually(t, func() bool { return len(rec.snapshot()) == 2 }, 3*time.Second, 10*time.Millisecond)
	assert.Equal(t, []string{b}, rec.snapshot()[1])

	require.NoError(t, w.Stop())
}

func TestWatcher_Filter(t *testing.T) {
	defer goleak.VerifyNone(t)

	dir := t.TempDir()
	rec := &recorder{}
	w := New(dir, rec.handle,
		WithDebounce(50*time.Millisecond),
		WithFilter(func(name string) bool { return name != "_template.json" }),
	)
	require.NoError(t, w.Start(context.Background()))

	writeFile(t, dir, "_template.json")
	time.Sleep(200 * time.Millisecond)
	assert.Empty(t, rec.snapshot())

	c := writeFile(t, dir, "c.md")
	require.Eventually(t, func() bool { return len(rec.snapshot()) == 1 }, 3*time.Second, 10*time.Millisecond)
	assert.Equal(t, []string{c}, rec.snapshot()[0])

	require.NoError(t, w.Stop())
}

func TestWatcher_HandlerErrorKeepsWatching(t *testing.T) {
	defer goleak.VerifyNone(t)

	dir := t.TempDir()
	var mu sync.Mutex
	calls := 0
	w := New(dir, func(context.Context, []string) error {
		mu.Lock()
		defer mu.Unlock()
		calls++
		return assert.AnError
	}, WithDebounce(30*time.Millisecond))
	require.NoError(t, w.Start(context.Background()))

	writeFile(t, dir, "one.json")
	require.Eventually(t, func() bool { return w.Runs() == 1 }, 3*time.Second, 10*time.Millisecond)
	writeFile(t, dir, "two.json")
	require.Eventually(t, func() bool { return w.Runs() == 2 }, 3*time.Second, 10*time.Millisecond)

	require.NoError(t, w.Stop())
	mu.Lock()
	assert.Equal(t, 2, calls)
	mu.Unlock()
}

func TestWatcher_RunStopsOnCancel(t *testing.T) {
	defer goleak.VerifyNone(t)

	ctx, cancel := context.WithCancel(context.Background())
	w := New(t.TempDir(), (&recorder{}).handle)

	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()

	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return after cancellation")
	}
}

func TestWatcher_StartErrors(t *testing.T) {
	defer goleak.VerifyNone(t)

	w := New(filepath.Join(t.TempDir(), "missing"), (&recorder{}).handle)
	err := w.Start(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "watch: add")

	w = New(t.TempDir(), (&recorder{}).handle)
	require.NoError(t, w.Start(context.Background()))
	require.Error(t, w.Start(context.Background()))
	require.NoError(t, w.Stop())
	require.NoError(t, w.Stop())
}

func TestWithDebounce_IgnoresNonPositive(t *testing.T) {
	t.Parallel()

	assert.Equal(t, DefaultDebounce, New("", nil, WithDebounce(0)).debounce)
	assert.Equal(t, time.Second, New("", nil, WithDebounce(time.Second)).debounce)
}

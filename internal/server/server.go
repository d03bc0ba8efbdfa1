// Package server exposes the corpus over a read-only HTTP API.
package server

import (
	"context"
	"net/http"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/sells-group/hpi-cli/internal/corpus"
	"github.com/sells-group/hpi-cli/internal/model"
	"github.com/sells-group/hpi-cli/internal/monitoring"
	"github.com/sells-group/hpi-cli/internal/report"
)

// Server holds an in-memory copy of the corpus. Reload swaps it
// atomically; handlers never see a partial load.
type Server struct {
	corpus  *corpus.Store
	metrics *monitoring.Metrics
	checker *monitoring.Checker
	log     *zap.Logger

	mu       sync.RWMutex
	snapshot *snapshot
}

type snapshot struct {
	records  []*corpus.Record
	events   []*model.Event
	byID     map[string]*corpus.Record
	byEvent  map[*model.Event]*corpus.Record
	stats    *report.Stats
	loadedAt time.Time
}

// Option configures the server.
type Option func(*Server)

// WithMetrics serves m on /metrics and refreshes it through checker
// after every reload. checker may be nil.
func WithMetrics(m *monitoring.Metrics, checker *monitoring.Checker) Option {
	return func(s *Server) {
		s.metrics = m
		s.checker = checker
	}
}

// WithLogger sets the request and reload logger.
func WithLogger(log *zap.Logger) Option {
	return func(s *Server) {
		s.log = log
	}
}

// New creates a server over c. Call Reload before serving.
func New(c *corpus.Store, opts ...Option) *Server {
	s := &Server{
		corpus:   c,
		log:      zap.NewNop(),
		snapshot: &snapshot{byID: map[string]*corpus.Record{}, stats: report.Calc(nil)},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Reload reads the corpus from disk and replaces the served copy. On
// error the previous copy stays in place.
func (s *Server) Reload(ctx context.Context) error {
	records, rejected, err := s.corpus.LoadAll(ctx)
	if err != nil {
		return err
	}
	for _, r := range rejected {
		s.log.Warn("server: record rejected", zap.String("record", r.Stem), zap.Error(r.Err))
	}

	events := corpus.EventsOf(records)
	snap := &snapshot{
		records:  records,
		events:   events,
		byID:     make(map[string]*corpus.Record, len(records)),
		byEvent:  make(map[*model.Event]*corpus.Record, len(records)),
		stats:    report.Calc(events),
		loadedAt: time.Now().UTC(),
	}
	for _, r := range records {
		snap.byEvent[r.Event()] = r
		if _, dup := snap.byID[r.ID()]; !dup {
			snap.byID[r.ID()] = r
		}
	}

	s.mu.Lock()
	s.snapshot = snap
	s.mu.Unlock()

	s.log.Info("corpus loaded", zap.Int("events", len(records)), zap.Int("rejected", len(rejected)))

	if s.checker != nil {
		if _, err := s.checker.Check(ctx); err != nil {
			s.log.Warn("server: refresh metrics", zap.Error(err))
		}
	}
	return nil
}

func (s *Server) current() *snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snapshot
}

// ListenAndServe serves Handler on addr until ctx is cancelled.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		s.log.Info("shutting down server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		srv.Shutdown(shutdownCtx) //nolint:errcheck
	}()

	s.log.Info("starting server", zap.String("addr", addr))
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// Package store persists the run ledger: one row per annotation pass
// invocation plus one row per record outcome.
package store

import (
	"context"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/sells-group/hpi-cli/internal/model"
)

// Ledger drivers.
const (
	DriverNone     = "none"
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// ErrNotFound is returned when a run does not exist.
var ErrNotFound = eris.New("store: not found")

// RunFilter specifies criteria for listing runs.
type RunFilter struct {
	Pass   string          `json:"pass,omitempty"`
	Status model.RunStatus `json:"status,omitempty"`
	Limit  int             `json:"limit,omitempty"`
	Offset int             `json:"offset,omitempty"`
}

// Store defines the persistence interface for the run ledger.
type Store interface {
	// Runs
	CreateRun(ctx context.Context, pass string) (*model.Run, error)
	CompleteRun(ctx context.Context, runID string, status model.RunStatus, counts model.RunCounts, runErr string) error
	GetRun(ctx context.Context, runID string) (*model.Run, error)
	ListRuns(ctx context.Context, filter RunFilter) ([]model.Run, error)

	// Items
	AddItems(ctx context.Context, runID string, items []model.RunItem) error
	ListItems(ctx context.Context, runID string) ([]model.RunItem, error)

	// Lifecycle
	Migrate(ctx context.Context) error
	Close() error
}

// Open returns the store for driver and migrates it. The "none" driver
// (or an empty one) returns a Nop store.
func Open(ctx context.Context, driver, url string) (Store, error) {
	var (
		s   Store
		err error
	)
	switch strings.ToLower(driver) {
	case "", DriverNone:
		return Nop{}, nil
	case DriverSQLite:
		s, err = NewSQLite(url)
	case DriverPostgres:
		s, err = NewPostgres(ctx, url, nil)
	default:
		return nil, eris.Errorf("store: unknown driver %q", driver)
	}
	if err != nil {
		return nil, err
	}
	if err := s.Migrate(ctx); err != nil {
		s.Close() //nolint:errcheck
		return nil, err
	}
	return s, nil
}

// Nop discards everything. It is the default when no ledger is configured.
type Nop struct{}

var _ Store = Nop{}

func (Nop) CreateRun(_ context.Context, pass string) (*model.Run, error) {
	return &model.Run{Pass: pass, Status: model.RunStatusRunning}, nil
}

func (Nop) CompleteRun(context.Context, string, model.RunStatus, model.RunCounts, string) error {
	return nil
}

func (Nop) GetRun(_ context.Context, runID string) (*model.Run, error) {
	return nil, eris.Wrapf(ErrNotFound, "run %s", runID)
}

func (Nop) ListRuns(context.Context, RunFilter) ([]model.Run, error) { return nil, nil }

func (Nop) AddItems(context.Context, string, []model.RunItem) error { return nil }

func (Nop) ListItems(context.Context, string) ([]model.RunItem, error) { return nil, nil }

func (Nop) Migrate(context.Context) error { return nil }

func (Nop) Close() error { return nil }

func listLimit(n int) int {
	if n <= 0 {
		return 100
	}
	return n
}

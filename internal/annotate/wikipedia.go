package annotate

import (
	"context"
	"errors"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/hpi-cli/internal/corpus"
	"github.com/sells-group/hpi-cli/internal/resilience"
	"github.com/sells-group/hpi-cli/pkg/wikipedia"
)

// ErrNoMatch is returned when a record is queued for manual review.
var ErrNoMatch = eris.New("annotate: no encyclopedia match")

// WikipediaLinks fills wikipedia_url for records that lack one.
type WikipediaLinks struct {
	client  wikipedia.Client
	breaker *resilience.CircuitBreaker
	review  *resilience.ReviewQueue
	tables  *Tables
	manual  bool
	log     *zap.Logger
}

// WikipediaOption configures the link pass.
type WikipediaOption func(*WikipediaLinks)

// WithManualSearch restricts the pass to records whose name has a manual
// search term, and queries with that term.
func WithManualSearch(t *Tables) WikipediaOption {
	return func(w *WikipediaLinks) {
		w.tables = t
		w.manual = true
	}
}

// WithBreaker overrides the circuit breaker guarding the client.
func WithBreaker(cb *resilience.CircuitBreaker) WikipediaOption {
	return func(w *WikipediaLinks) {
		w.breaker = cb
	}
}

// WithLogger sets the logger used for lookup failures.
func WithLogger(log *zap.Logger) WikipediaOption {
	return func(w *WikipediaLinks) {
		w.log = log
	}
}

// NewWikipediaLinks creates the link pass. Unmatched records go to review.
func NewWikipediaLinks(client wikipedia.Client, review *resilience.ReviewQueue, opts ...WikipediaOption) *WikipediaLinks {
	w := &WikipediaLinks{
		client:  client,
		review:  review,
		breaker: resilience.NewCircuitBreaker(resilience.DefaultCircuitBreakerConfig()),
		log:     zap.NewNop(),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Name implements Pass.
func (w *WikipediaLinks) Name() string { return PassWikipedia }

// Review returns the queue of records left for manual follow-up.
func (w *WikipediaLinks) Review() *resilience.ReviewQueue { return w.review }

// Apply implements Pass. Lookup failures and an open circuit are treated
// like "no match": the record is queued and skipped, never retried.
func (w *WikipediaLinks) Apply(ctx context.Context, r *corpus.Record) (string, error) {
	if r.Get("wikipedia_url").String() != "" {
		return "", eris.Wrap(ErrSkip, "already has URL")
	}

	name := r.Get("name").String()
	query := name
	if w.manual {
		term, ok := w.tables.SearchTerm(name)
		if !ok {
			return "", eris.Wrap(ErrSkip, "no manual search term")
		}
		query = term
	}

	match, err := resilience.ExecuteVal(ctx, w.breaker, func(ctx context.Context) (*wikipedia.Match, error) {
		m, err := w.client.Search(ctx, query)
		return m, classifyStatus(err)
	})
	if err != nil {
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		w.log.Warn("wikipedia: lookup failed",
			zap.String("record", r.Stem),
			zap.String("query", query),
			zap.Bool("circuit_open", errors.Is(err, resilience.ErrCircuitOpen)),
			zap.Error(err),
		)
		w.review.AddError(r.Stem, name, query, err)
		return "", eris.Wrapf(ErrNoMatch, "%s", query)
	}
	if match == nil {
		w.review.Add(r.Stem, name, query, "no match")
		return "", eris.Wrapf(ErrNoMatch, "%s", query)
	}

	if err := r.Set("wikipedia_url", match.URL); err != nil {
		return "", err
	}
	return "found " + match.Title + " " + match.URL, nil
}

// classifyStatus marks throttling and server-side statuses as transient.
func classifyStatus(err error) error {
	var se *wikipedia.StatusError
	if errors.As(err, &se) && resilience.IsTransientHTTPStatus(se.StatusCode) {
		return resilience.NewTransientError(err, se.StatusCode)
	}
	return err
}

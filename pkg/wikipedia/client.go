// Package wikipedia provides a client for the MediaWiki opensearch API.
package wikipedia

import (
	"context"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/rotisserie/eris"
	"github.com/tidwall/gjson"
	"golang.org/x/time/rate"
)

// Defaults match the public English Wikipedia endpoint.
const (
	DefaultBaseURL   = "https://en.wikipedia.org/w/api.php"
	DefaultUserAgent = "HistoricalPatternIndex/1.0 (research project)"
	DefaultLimit     = 3
	DefaultDelay     = 500 * time.Millisecond
	DefaultTimeout   = 10 * time.Second
)

// Client defines the encyclopedia lookups used by the link pass.
type Client interface {
	// Search returns the first article matching query, or nil when there
	// is no match.
	Search(ctx context.Context, query string) (*Match, error)
}

// Match is the best article for a query.
type Match struct {
	Title string `json:"title"`
	URL   string `json:"url"`
}

// StatusError is returned for a non-200 response.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return "wikipedia: unexpected status " + strconv.Itoa(e.StatusCode) + ": " + e.Body
}

// Option configures the client.
type Option func(*httpClient)

// WithBaseURL sets a custom API endpoint (for testing).
func WithBaseURL(u string) Option {
	return func(c *httpClient) {
		c.baseURL = u
	}
}

// WithHTTPClient sets a custom HTTP client. The client is not modified;
// WithTimeout applies to a copy.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *httpClient) {
		c.http = hc
	}
}

// WithUserAgent overrides the User-Agent header.
func WithUserAgent(ua string) Option {
	return func(c *httpClient) {
		c.userAgent = ua
	}
}

// WithLimit sets how many candidates are requested per query.
func WithLimit(n int) Option {
	return func(c *httpClient) {
		if n > 0 {
			c.limit = n
		}
	}
}

// WithTimeout sets the per-request timeout, in any order relative to
// WithHTTPClient.
func WithTimeout(d time.Duration) Option {
	return func(c *httpClient) {
		if d > 0 {
			c.timeout = d
		}
	}
}

// WithDelay sets the minimum spacing between requests. Zero disables
// throttling.
func WithDelay(d time.Duration) Option {
	return func(c *httpClient) {
		if d > 0 {
			c.limiter = rate.NewLimiter(rate.Every(d), 1)
		} else {
			c.limiter = nil
		}
	}
}

type httpClient struct {
	baseURL   string
	userAgent string
	limit     int
	http      *http.Client
	timeout   time.Duration
	limiter   *rate.Limiter
}

// NewClient creates an opensearch client. Requests are spaced by
// DefaultDelay unless WithDelay says otherwise. There are no retries.
func NewClient(opts ...Option) Client {
	c := &httpClient{
		baseURL:   DefaultBaseURL,
		userAgent: DefaultUserAgent,
		limit:     DefaultLimit,
		limiter:   rate.NewLimiter(rate.Every(DefaultDelay), 1),
	}
	for _, opt := range opts {
		opt(c)
	}

	switch {
	case c.http == nil:
		timeout := DefaultTimeout
		if c.timeout > 0 {
			timeout = c.timeout
		}
		c.http = &http.Client{Timeout: timeout}
	case c.timeout > 0:
		hc := *c.http
		hc.Timeout = c.timeout
		c.http = &hc
	}
	return c
}

func (c *httpClient) wait(ctx context.Context) error {
	if c.limiter == nil {
		return nil
	}
	return c.limiter.Wait(ctx)
}

func (c *httpClient) Search(ctx context.Context, query string) (*Match, error) {
	if err := c.wait(ctx); err != nil {
		return nil, eris.Wrap(err, "wikipedia: rate limit")
	}

	params := url.Values{}
	params.Set("action", "opensearch")
	params.Set("search", query)
	params.Set("limit", strconv.Itoa(c.limit))
	params.Set("format", "json")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"?"+params.Encode(), nil)
	if err != nil {
		return nil, eris.Wrap(err, "wikipedia: create request")
	}
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, eris.Wrap(err, "wikipedia: request failed")
	}
	defer resp.Body.Close() //nolint:errcheck

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, eris.Wrap(err, "wikipedia: read response body")
	}
	if resp.StatusCode != http.StatusOK {
		return nil, &StatusError{StatusCode: resp.StatusCode, Body: string(body)}
	}

	return parseOpenSearch(body)
}

// parseOpenSearch reads a [query, [titles], [descriptions], [urls]]
// response and returns the first title and url.
func parseOpenSearch(body []byte) (*Match, error) {
	if !gjson.ValidBytes(body) {
		return nil, eris.New("wikipedia: invalid json response")
	}
	res := gjson.ParseBytes(body)
	if !res.IsArray() {
		return nil, eris.New("wikipedia: response is not an array")
	}
	urls := res.Get("3")
	if !urls.IsArray() || len(urls.Array()) == 0 {
		return nil, nil
	}
	return &Match{
		Title: res.Get("1.0").String(),
		URL:   urls.Get("0").String(),
	}, nil
}

package resilience

import (
	"context"
	"errors"
	"net"
	"net/url"
	"syscall"
	"testing"

	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/hpi-cli/pkg/wikipedia"
)

// searchFailure wraps err the way the link pass sees an opensearch
// failure. A nil err stays nil.
func searchFailure(err error) error {
	return eris.Wrap(err, "annotate: search Armenian genocide")
}

// statusFailure marks a non-200 opensearch reply transient when its status
// says the endpoint is busy or broken.
func statusFailure(code int) error {
	se := &wikipedia.StatusError{StatusCode: code, Body: "maxlag"}
	if IsTransientHTTPStatus(code) {
		return NewTransientError(se, code)
	}
	return se
}

func TestIsTransient_OpensearchStatus(t *testing.T) {
	t.Parallel()

	tests := []struct {
		code int
		want bool
	}{
		{429, true},
		{500, true},
		{502, true},
		{503, true},
		{504, true},
		{400, false},
		{403, false},
		{404, false},
	}
	for _, tt := range tests {
		err := searchFailure(statusFailure(tt.code))
		assert.Equal(t, tt.want, IsTransient(err), "status %d", tt.code)
	}
}

func TestIsTransient_BareStatusErrorIsPermanent(t *testing.T) {
	t.Parallel()

	err := &wikipedia.StatusError{StatusCode: 503, Body: "read-only"}
	assert.False(t, IsTransient(err), "only the link pass promotes a status to transient")
}

func TestTransientError_KeepsStatusError(t *testing.T) {
	t.Parallel()

	err := searchFailure(statusFailure(429))

	var te *TransientError
	require.True(t, errors.As(err, &te))
	assert.Equal(t, 429, te.StatusCode)

	var se *wikipedia.StatusError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, "maxlag", se.Body)
	assert.Equal(t, "wikipedia: unexpected status 429: maxlag", te.Error())
}

func TestIsTransient_Transport(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"client timeout", &url.Error{Op: "Get", URL: wikipedia.DefaultBaseURL, Err: &net.DNSError{IsTimeout: true}}, true},
		{"refused", &url.Error{Op: "Get", URL: wikipedia.DefaultBaseURL, Err: syscall.ECONNREFUSED}, true},
		{"reset", eris.Wrap(syscall.ECONNRESET, "wikipedia: send request"), true},
		{"dns", errors.New("dial tcp: lookup en.wikipedia.org: no such host"), true},
		{"tls", errors.New("net/http: TLS handshake timeout"), true},
		{"cancelled", eris.Wrap(context.Canceled, "wikipedia: rate limit"), false},
		{"bad body", eris.New("wikipedia: invalid opensearch response"), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, IsTransient(searchFailure(tt.err)))
		})
	}
}

func TestIsTransientHTTPStatus(t *testing.T) {
	t.Parallel()

	for _, code := range []int{408, 429, 500, 502, 503, 504} {
		assert.True(t, IsTransientHTTPStatus(code), "status %d", code)
	}
	for _, code := range []int{200, 301, 400, 401, 403, 404, 410, 422} {
		assert.False(t, IsTransientHTTPStatus(code), "status %d", code)
	}
}

func TestClassify_ReviewLabels(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "transient", Classify(searchFailure(statusFailure(503))))
	assert.Equal(t, "permanent", Classify(searchFailure(statusFailure(404))))
	assert.Equal(t, "permanent", Classify(eris.New("wikipedia: invalid opensearch response")))
}

package spotify

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"
)

// RateLimitError reports a call the API rejected with 429 Too Many
// Requests. Wait carries the Retry-After header's suggestion, zero when
// the header was absent or unparsable.
type RateLimitError struct {
	Wait time.Duration
}

func (e *RateLimitError) Error() string {
	if e.Wait > 0 {
		return fmt.Sprintf("API rate limit exceeded, retry after %s", e.Wait)
	}
	return "API rate limit exceeded"
}

// rateLimitTransport surfaces 429 responses as RateLimitError. The client
// library discards response headers when it decodes an API error, so the
// Retry-After suggestion has to be captured at the transport.
type rateLimitTransport struct {
	base http.RoundTripper
}

func (t *rateLimitTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	base := t.base
	if base == nil {
		base = http.DefaultTransport
	}

	resp, err := base.RoundTrip(req)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode != http.StatusTooManyRequests {
		return resp, nil
	}

	wait := parseRetryAfter(resp.Header.Get("Retry-After"))
	resp.Body.Close()
	return nil, &RateLimitError{Wait: wait}
}

// parseRetryAfter reads the delay-seconds form of the header; the API
// does not send the HTTP-date form.
func parseRetryAfter(value string) time.Duration {
	if value == "" {
		return 0
	}
	seconds, err := strconv.Atoi(value)
	if err != nil || seconds < 0 {
		return 0
	}
	return time.Duration(seconds) * time.Second
}

// RetryAfter classifies err for the retry wrapper: it reports whether the
// API rejected the call with 429 Too Many Requests and, if so, the wait
// the Retry-After header suggested (zero when the header was absent).
func RetryAfter(err error) (time.Duration, bool) {
	var rateLimitErr *RateLimitError
	if !errors.As(err, &rateLimitErr) {
		return 0, false
	}
	return rateLimitErr.Wait, true
}

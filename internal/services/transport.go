package services

import (
	"net/http"
	"time"

	"moviecatalog/internal/loading"
)

// loadingTransport reports every logical request to the loading counter:
// Show before dispatch, Hide exactly once on settlement, success or not.
// Retries happen below this layer, so one request counts once.
type loadingTransport struct {
	counter *loading.Counter
	next    http.RoundTripper
}

func newLoadingTransport(counter *loading.Counter, next http.RoundTripper) http.RoundTripper {
	return &loadingTransport{counter: counter, next: next}
}

func (t *loadingTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	t.counter.Show()
	defer t.counter.Hide()
	return t.next.RoundTrip(req)
}

// retryTransport retries transient failures (network errors, 5xx, 429) up to
// its retry budget. Requests here are GETs without bodies, so replay is safe.
type retryTransport struct {
	retries int
	next    http.RoundTripper
}

func newRetryTransport(retries int, next http.RoundTripper) http.RoundTripper {
	if retries < 0 {
		retries = 0
	}
	return &retryTransport{retries: retries, next: next}
}

func (t *retryTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	var resp *http.Response
	var err error

	for attempt := 0; attempt <= t.retries; attempt++ {
		if attempt > 0 {
			select {
			case <-req.Context().Done():
				return nil, req.Context().Err()
			case <-time.After(time.Duration(attempt) * 250 * time.Millisecond):
			}
		}

		resp, err = t.next.RoundTrip(req)
		if err != nil {
			continue
		}
		if resp.StatusCode >= 500 || resp.StatusCode == http.StatusTooManyRequests {
			if attempt == t.retries {
				// out of retries; hand the final status to the caller
				return resp, nil
			}
			resp.Body.Close()
			continue
		}
		return resp, nil
	}

	return nil, err
}

// rateLimitTransport holds each attempt until the limiter releases a token.
type rateLimitTransport struct {
	limiter *TMDBRateLimiter
	next    http.RoundTripper
}

func newRateLimitTransport(limiter *TMDBRateLimiter, next http.RoundTripper) http.RoundTripper {
	return &rateLimitTransport{limiter: limiter, next: next}
}

func (t *rateLimitTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	if err := t.limiter.Wait(req.Context()); err != nil {
		return nil, err
	}
	return t.next.RoundTrip(req)
}

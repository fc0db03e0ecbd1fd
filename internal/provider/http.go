package provider

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"tradelens/internal/metrics"
	"tradelens/internal/ratelimit"
)

// httpSource is the rate-limited JSON-over-HTTP plumbing shared by the
// REST providers
type httpSource struct {
	name    string
	client  *http.Client
	limiter *ratelimit.Limiter
	metrics *metrics.Metrics

	// notFound classifies an error response as an unknown symbol.
	// Nil means only 404 does.
	notFound func(status int, body []byte) bool
}

func newHTTPSource(name string, perMinute int) httpSource {
	return httpSource{
		name:    name,
		client:  &http.Client{Timeout: 10 * time.Second},
		limiter: ratelimit.NewLimiter(name, perMinute),
	}
}

// get fetches url and returns the body of a 200 response. 404 maps to
// ErrSymbolNotFound, 429 backs the limiter off.
func (s *httpSource) get(ctx context.Context, url string, header http.Header, symbol string) (body []byte, err error) {
	if err := s.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	start := time.Now()
	defer func() { s.metrics.ObserveProvider(s.name, start, err) }()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	for k, vs := range header {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, &ProviderError{Provider: s.name, Err: err, Retryable: true}
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusTooManyRequests {
		s.limiter.SignalRateLimited()
		return nil, &ProviderError{Provider: s.name, Err: fmt.Errorf("rate limited"), Retryable: true}
	}

	body, err = io.ReadAll(resp.Body)
	if err != nil {
		return nil, &ProviderError{Provider: s.name, Err: fmt.Errorf("reading response: %w", err), Retryable: true}
	}

	if resp.StatusCode != http.StatusOK {
		if resp.StatusCode == http.StatusNotFound || (s.notFound != nil && s.notFound(resp.StatusCode, body)) {
			return nil, &ProviderError{Provider: s.name, Err: fmt.Errorf("%w: %s", ErrSymbolNotFound, symbol)}
		}
		return nil, &ProviderError{Provider: s.name, Err: fmt.Errorf("status %d", resp.StatusCode), Retryable: resp.StatusCode >= 500}
	}

	s.limiter.ResetBackoff()
	return body, nil
}

// Package source fetches raw content bytes over HTTP.
package source

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/okozhevnikov/imgcache/imgcache"
	"github.com/okozhevnikov/imgcache/metrics"
)

const defaultMaxBodySize = 64 << 20 // 64 MiB

type HTTPSource struct {
	client      *http.Client
	maxBodySize int64
}

var _ imgcache.ByteSource = (*HTTPSource)(nil)

func NewHTTPSource(timeout time.Duration) *HTTPSource {
	return &HTTPSource{
		client: &http.Client{
			Timeout: timeout,
		},
		maxBodySize: defaultMaxBodySize,
	}
}

type StatusError struct {
	StatusCode int
	BodyPrefix string
}

func (err *StatusError) Error() string {
	return fmt.Sprintf("unexpected response: status code: %d, body prefix: %q", err.StatusCode, err.BodyPrefix)
}

// Fetch performs an HTTP GET for a key convertible to a URL. Non-2xx
// responses are rejected, and the body size is capped.
func (s *HTTPSource) Fetch(ctx context.Context, key imgcache.Key) ([]byte, error) {
	u, err := url.Parse(key.String())
	if err != nil {
		return nil, fmt.Errorf("invalid url %q: %w", key, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("couldn't prepare request: %w", err)
	}

	now := time.Now()

	resp, err := s.client.Do(req)
	if err != nil {
		metrics.FetchErrors.Inc()
		return nil, fmt.Errorf("couldn't fetch %q: %w", key, err)
	}
	defer resp.Body.Close()

	metrics.FetchDuration.Observe(time.Since(now).Seconds())

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		metrics.FetchErrors.Inc()

		bodyPrefix, _ := io.ReadAll(io.LimitReader(resp.Body, 128))
		return nil, &StatusError{
			StatusCode: resp.StatusCode,
			BodyPrefix: string(bodyPrefix),
		}
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, s.maxBodySize+1))
	if err != nil {
		metrics.FetchErrors.Inc()
		return nil, fmt.Errorf("couldn't read response body: %w", err)
	}
	if int64(len(data)) > s.maxBodySize {
		metrics.FetchErrors.Inc()
		return nil, fmt.Errorf("response body exceeds %d bytes", s.maxBodySize)
	}

	metrics.FetchedImageSizes.Observe(float64(len(data)))
	return data, nil
}

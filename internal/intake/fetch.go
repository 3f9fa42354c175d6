package intake

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/hashicorp/go-retryablehttp"

	"github.com/MRamiBalles/ecshospital/internal/engine"
)

// DefaultRetries is how often a remote configuration fetch is retried.
const DefaultRetries = 3

// Fetcher downloads configurations over HTTP, retrying transient failures.
type Fetcher struct {
	client *retryablehttp.Client
}

// NewFetcher creates a fetcher that retries up to retries times.
func NewFetcher(retries int) *Fetcher {
	c := retryablehttp.NewClient()
	c.RetryMax = retries
	c.HTTPClient = &http.Client{Timeout: 30 * time.Second}
	c.Logger = nil
	return &Fetcher{client: c}
}

// WithBackoff overrides the wait between retries.
func (f *Fetcher) WithBackoff(minWait, maxWait time.Duration) *Fetcher {
	f.client.RetryWaitMin = minWait
	f.client.RetryWaitMax = maxWait
	return f
}

// Fetch downloads and parses a configuration.
func (f *Fetcher) Fetch(ctx context.Context, url string) (engine.Setup, []LineError, error) {
	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return engine.Setup{}, nil, fmt.Errorf("build request: %w", err)
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return engine.Setup{}, nil, fmt.Errorf("fetch configuration: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return engine.Setup{}, nil, fmt.Errorf("fetch configuration: unexpected status %s", resp.Status)
	}
	return Parse(resp.Body)
}

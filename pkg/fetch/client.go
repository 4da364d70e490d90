package fetch

import (
	"context"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/flatmol/flatmol/pkg/buildinfo"
	"github.com/flatmol/flatmol/pkg/cache"
	"github.com/flatmol/flatmol/pkg/errors"
)

const httpTimeout = 60 * time.Second

// DefaultTTL is how long downloaded files stay cached. Database entries
// are versioned and effectively immutable.
const DefaultTTL = 30 * 24 * time.Hour

// Client provides shared HTTP functionality for the structure-database
// clients: response caching, retry with backoff, and status mapping.
//
// All methods are safe for concurrent use.
type Client struct {
	http  *http.Client
	cache cache.Cache
	keys  cache.Keyer
	ttl   time.Duration
}

// NewClient creates a Client backed by the given cache. A nil backend
// disables caching.
func NewClient(backend cache.Cache, ttl time.Duration) *Client {
	if backend == nil {
		backend = cache.NewNullCache()
	}
	return &Client{
		http:  &http.Client{Timeout: httpTimeout},
		cache: backend,
		keys:  cache.NewDefaultKeyer(),
		ttl:   ttl,
	}
}

// fetchCached returns the cached body for key or downloads url, retrying
// transient failures, and stores the result under the namespaced key.
func (c *Client) fetchCached(ctx context.Context, namespace, key, url string, refresh bool) ([]byte, error) {
	cacheKey := c.keys.HTTPKey(namespace, key)
	if !refresh {
		if data, ok, err := c.cache.Get(ctx, cacheKey); err == nil && ok {
			return data, nil
		}
	}

	var body []byte
	err := cache.RetryWithBackoff(ctx, func() error {
		var err error
		body, err = c.download(ctx, url)
		return err
	})
	if err != nil {
		return nil, err
	}

	_ = c.cache.Set(ctx, cacheKey, body, c.ttl)
	return body, nil
}

func (c *Client) download(ctx context.Context, url string) ([]byte, error) {
	if err := errors.ValidateURL(url); err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", "flatmol/"+buildinfo.Version)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, cache.Retryable(errors.Wrap(errors.ErrCodeNetwork, err, "GET %s", url))
	}
	defer resp.Body.Close()

	if err := checkStatus(resp, url); err != nil {
		return nil, err
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, cache.Retryable(errors.Wrap(errors.ErrCodeNetwork, err, "read %s", url))
	}
	return body, nil
}

func checkStatus(resp *http.Response, url string) error {
	switch {
	case resp.StatusCode == http.StatusOK:
		return nil
	case resp.StatusCode == http.StatusNotFound:
		return errors.New(errors.ErrCodeStructureNotFound, "not found: %s", url)
	case resp.StatusCode == http.StatusTooManyRequests:
		retryAfter, _ := strconv.Atoi(resp.Header.Get("Retry-After"))
		return &errors.RateLimitedError{RetryAfter: retryAfter}
	case resp.StatusCode >= 500:
		return cache.Retryable(errors.New(errors.ErrCodeNetwork, "GET %s: status %d", url, resp.StatusCode))
	default:
		return errors.New(errors.ErrCodeNetwork, "GET %s: status %d", url, resp.StatusCode)
	}
}

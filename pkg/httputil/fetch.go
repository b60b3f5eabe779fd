package httputil

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/mapstyle/pkg/buildinfo"
	"github.com/matzehuels/mapstyle/pkg/cache"
	"github.com/matzehuels/mapstyle/pkg/observability"
)

// Sentinel errors for fetch failures.
var (
	ErrNotFound = errors.New("not found")
	ErrNetwork  = errors.New("network error")
)

// DefaultTTL is how long fetched documents stay cached.
const DefaultTTL = 24 * time.Hour

// maxBody caps a single response.
const maxBody = 64 << 20

// Fetcher downloads documents through a cache.
type Fetcher struct {
	client   *http.Client
	cache    cache.Cache
	ttl      time.Duration
	attempts int
	delay    time.Duration
	logger   *log.Logger
}

// Option configures a Fetcher.
type Option func(*Fetcher)

// WithClient sets the HTTP client.
func WithClient(c *http.Client) Option { return func(f *Fetcher) { f.client = c } }

// WithTTL sets how long responses are cached. Zero never expires.
func WithTTL(ttl time.Duration) Option { return func(f *Fetcher) { f.ttl = ttl } }

// WithRetry sets the attempt count and the initial backoff delay.
func WithRetry(attempts int, delay time.Duration) Option {
	return func(f *Fetcher) { f.attempts, f.delay = attempts, delay }
}

// WithLogger sets the logger used for cache hits and retries.
func WithLogger(l *log.Logger) Option { return func(f *Fetcher) { f.logger = l } }

// NewFetcher creates a Fetcher. A nil cache disables caching.
func NewFetcher(c cache.Cache, opts ...Option) *Fetcher {
	if c == nil {
		c = cache.NewNullCache()
	}
	f := &Fetcher{
		client:   &http.Client{Timeout: 30 * time.Second},
		cache:    c,
		ttl:      DefaultTTL,
		attempts: 3,
		delay:    time.Second,
		logger:   log.New(io.Discard),
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Get returns the body at url, consulting the cache under key first.
// A successful download is written back to the cache; cache write
// failures are logged and otherwise ignored.
func (f *Fetcher) Get(ctx context.Context, key, url string) ([]byte, error) {
	keyType, _, _ := strings.Cut(key, ":")
	if data, ok, err := f.cache.Get(ctx, key); err != nil {
		f.logger.Warn("cache read failed", "key", key, "err", err)
	} else if ok {
		f.logger.Debug("cache hit", "url", url)
		observability.Cache().OnCacheHit(ctx, keyType)
		return data, nil
	}
	observability.Cache().OnCacheMiss(ctx, keyType)

	var body []byte
	err := Retry(ctx, f.attempts, f.delay, func() error {
		var err error
		body, err = f.do(ctx, url)
		if err != nil && IsRetryable(err) {
			f.logger.Debug("retrying fetch", "url", url, "err", err)
		}
		return err
	})
	if err != nil {
		return nil, err
	}

	if err := f.cache.Set(ctx, key, body, f.ttl); err != nil {
		f.logger.Warn("cache write failed", "key", key, "err", err)
	} else {
		observability.Cache().OnCacheSet(ctx, keyType, len(body))
	}
	return body, nil
}

func (f *Fetcher) do(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", buildinfo.UserAgent())

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, Retryable(fmt.Errorf("%w: %v", ErrNetwork, err))
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return nil, fmt.Errorf("%w: %s", ErrNotFound, url)
	case resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500:
		return nil, Retryable(fmt.Errorf("%w: %s: %s", ErrNetwork, url, resp.Status))
	case resp.StatusCode != http.StatusOK:
		return nil, fmt.Errorf("%s: unexpected status %s", url, resp.Status)
	}

	return io.ReadAll(io.LimitReader(resp.Body, maxBody))
}

package integrations

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"golang.org/x/sync/errgroup"

	"github.com/matzehuels/curator/pkg/cache"
	cerrors "github.com/matzehuels/curator/pkg/errors"
	"github.com/matzehuels/curator/pkg/httputil"
	"github.com/matzehuels/curator/pkg/observability"
	"github.com/matzehuels/curator/pkg/ratelimit"
)

const (
	// DefaultBatchSize is the number of concurrent fetches in [Client.FetchMultiple].
	DefaultBatchSize = 5
	// DefaultBatchDelay is the pause between two batches.
	DefaultBatchDelay = 500 * time.Millisecond

	maxBodySize = 64 << 20
)

// Requester performs rate-limited HTTP GETs on behalf of an [Adapter].
// Non-2xx responses are returned as *errors.APIError, 429 responses and
// local ceilings as *errors.RateLimitError.
type Requester interface {
	// GetJSON decodes a JSON response into v.
	GetJSON(ctx context.Context, url string, v any) error
	// GetJSONWithHeaders is GetJSON with extra headers overriding defaults.
	GetJSONWithHeaders(ctx context.Context, url string, headers map[string]string, v any) error
	// GetText returns the response body as a string.
	GetText(ctx context.Context, url string) (string, error)
	// GetPage fetches an HTML page with the longer page timeout.
	GetPage(ctx context.Context, url string) ([]byte, error)
	// Download fetches a large binary body with the download timeout.
	Download(ctx context.Context, url string) ([]byte, error)
}

// Adapter knows the wire format of exactly one upstream.
type Adapter interface {
	// Name identifies the upstream in cache keys, logs and metrics.
	Name() string
	// Limits returns the rate ceilings for this upstream.
	Limits() ratelimit.Limits
	// Headers returns static headers such as auth tokens.
	Headers() map[string]string
	// CacheTTL is how long a successful result stays cached.
	CacheTTL() time.Duration
	// Fetch retrieves and normalizes metadata for id.
	Fetch(ctx context.Context, r Requester, id string) (*Metadata, error)
}

// Options configures a [Client]. The zero value is usable.
type Options struct {
	// Cache stores normalized results. Nil disables caching.
	Cache cache.Cache
	// Retry is the retry policy. Zero uses [httputil.DefaultPolicy].
	Retry httputil.Policy
	// HTTPClient performs requests. Nil uses [NewHTTPClient].
	HTTPClient *http.Client
	// Logger receives warnings for failed fetches. Nil uses log.Default().
	Logger *log.Logger
	// Refresh skips cache reads; results are still written.
	Refresh bool
	// UserAgent overrides [DefaultUserAgent].
	UserAgent string
	// BatchSize and BatchDelay tune [Client.FetchMultiple].
	BatchSize  int
	BatchDelay time.Duration
	// Now replaces time.Now for FetchedAt stamps.
	Now func() time.Time
	// Limits overrides the adapter's rate ceilings when set.
	Limits *ratelimit.Limits
	// CacheTTL overrides the adapter's cache TTL when positive.
	CacheTTL time.Duration
	// Timeout overrides the per-request timeout for every request kind
	// when positive.
	Timeout time.Duration
}

// Client is the generic source client. It composes a rate limiter, the
// retry policy and a cache around one [Adapter]:
//
//	cache -> rate limit -> HTTP under retry -> parse -> write-through
type Client struct {
	adapter    Adapter
	http       *http.Client
	cache      cache.Cache
	limiter    *ratelimit.Limiter
	cacheTTL   time.Duration
	headers    map[string]string
	retry      httputil.Policy
	logger     *log.Logger
	refresh    bool
	batchSize  int
	batchDelay time.Duration
	timeout    time.Duration
	now        func() time.Time
}

// NewClient creates a Client for adapter.
func NewClient(adapter Adapter, opts Options) *Client {
	c := &Client{
		adapter:    adapter,
		http:       opts.HTTPClient,
		cache:      opts.Cache,
		cacheTTL:   opts.CacheTTL,
		retry:      opts.Retry,
		logger:     opts.Logger,
		refresh:    opts.Refresh,
		batchSize:  opts.BatchSize,
		batchDelay: opts.BatchDelay,
		timeout:    opts.Timeout,
		now:        opts.Now,
	}
	limits := adapter.Limits()
	if opts.Limits != nil {
		limits = *opts.Limits
	}
	c.limiter = ratelimit.New(limits, ratelimit.WithName(adapter.Name()))
	if c.cacheTTL <= 0 {
		c.cacheTTL = adapter.CacheTTL()
	}
	if c.http == nil {
		c.http = NewHTTPClient()
	}
	if c.cache == nil {
		c.cache = cache.NewNullCache()
	}
	if c.retry.MaxRetries == 0 && c.retry.BaseDelay == 0 && c.retry.MaxDelay == 0 {
		c.retry.MaxRetries = httputil.DefaultPolicy.MaxRetries
		c.retry.BaseDelay = httputil.DefaultPolicy.BaseDelay
		c.retry.MaxDelay = httputil.DefaultPolicy.MaxDelay
	}
	if c.logger == nil {
		c.logger = log.Default()
	}
	if c.batchSize <= 0 {
		c.batchSize = DefaultBatchSize
	}
	if c.batchDelay < 0 {
		c.batchDelay = 0
	} else if c.batchDelay == 0 {
		c.batchDelay = DefaultBatchDelay
	}
	if c.now == nil {
		c.now = time.Now
	}

	c.headers = map[string]string{"User-Agent": DefaultUserAgent}
	if opts.UserAgent != "" {
		c.headers["User-Agent"] = opts.UserAgent
	}
	for k, v := range adapter.Headers() {
		c.headers[k] = v
	}
	return c
}

// Name returns the adapter name.
func (c *Client) Name() string { return c.adapter.Name() }

// Limiter exposes the client's limiter for inspection.
func (c *Client) Limiter() *ratelimit.Limiter { return c.limiter }

// Fetch returns metadata for id, serving from cache when possible.
// Upstream calls run under the retry policy; results are written through
// to the cache. Cache failures are logged and never returned.
func (c *Client) Fetch(ctx context.Context, id string) (*Metadata, error) {
	name := c.adapter.Name()
	key := cache.Key(name, id)

	if !c.refresh {
		if md, ok := c.readCache(ctx, key); ok {
			return md, nil
		}
	}

	var md *Metadata
	policy := c.retry
	policy.OnRetry = func(attempt int, delay time.Duration, err error) {
		observability.Limit().OnRetry(ctx, name, attempt, delay, err)
		c.logger.Debug("retrying", "source", name, "id", id, "attempt", attempt, "delay", delay, "err", err)
	}
	err := httputil.Retry(ctx, policy, func() error {
		var err error
		md, err = c.adapter.Fetch(ctx, c, id)
		return err
	})
	if err != nil {
		return nil, err
	}
	if md == nil {
		return nil, fmt.Errorf("%s: empty result for %s", name, id)
	}

	md.Source = name
	md.ID = id
	if md.FetchedAt.IsZero() {
		md.FetchedAt = c.now().UTC()
	}
	c.writeCache(ctx, key, md)
	return md, nil
}

// FetchMetadata is [Client.Fetch] that logs a warning and returns nil on
// failure. Callers treat nil as "skip this record this run".
func (c *Client) FetchMetadata(ctx context.Context, id string) *Metadata {
	md, err := c.Fetch(ctx, id)
	if err != nil {
		c.logger.Warn("fetch failed", "source", c.adapter.Name(), "id", id, "err", err)
		return nil
	}
	return md
}

// FetchMultiple fetches ids in fixed-size concurrent batches, sleeping
// between batches. Failed ids map to nil.
func (c *Client) FetchMultiple(ctx context.Context, ids []string) map[string]*Metadata {
	results := make(map[string]*Metadata, len(ids))
	var mu sync.Mutex

	for start := 0; start < len(ids); start += c.batchSize {
		if start > 0 && !sleepCtx(ctx, c.batchDelay) {
			break
		}
		end := min(start+c.batchSize, len(ids))

		var g errgroup.Group
		for _, id := range ids[start:end] {
			g.Go(func() error {
				md := c.FetchMetadata(ctx, id)
				mu.Lock()
				results[id] = md
				mu.Unlock()
				return nil
			})
		}
		_ = g.Wait()
	}
	return results
}

func (c *Client) readCache(ctx context.Context, key string) (*Metadata, bool) {
	name := c.adapter.Name()
	data, ok, err := c.cache.Get(ctx, key)
	if err != nil {
		observability.Cache().OnCacheError(ctx, name, err)
		c.logger.Warn("cache read failed", "source", name, "key", key, "err", err)
		return nil, false
	}
	if !ok {
		observability.Cache().OnCacheMiss(ctx, name)
		return nil, false
	}
	var md Metadata
	if err := json.Unmarshal(data, &md); err != nil {
		_ = c.cache.Delete(ctx, key)
		observability.Cache().OnCacheMiss(ctx, name)
		return nil, false
	}
	observability.Cache().OnCacheHit(ctx, name)
	return &md, true
}

func (c *Client) writeCache(ctx context.Context, key string, md *Metadata) {
	name := c.adapter.Name()
	data, err := json.Marshal(md)
	if err != nil {
		return
	}
	if err := c.cache.Set(ctx, key, data, c.cacheTTL); err != nil {
		observability.Cache().OnCacheError(ctx, name, err)
		c.logger.Warn("cache write failed", "source", name, "key", key, "err", err)
		return
	}
	observability.Cache().OnCacheSet(ctx, name, len(data))
}

// GetJSON performs an HTTP GET request and JSON-decodes the response into v.
func (c *Client) GetJSON(ctx context.Context, url string, v any) error {
	return c.GetJSONWithHeaders(ctx, url, nil, v)
}

// GetJSONWithHeaders performs an HTTP GET with additional headers merged with defaults.
// Request-specific headers override client defaults for the same key.
func (c *Client) GetJSONWithHeaders(ctx context.Context, url string, headers map[string]string, v any) error {
	body, err := c.do(ctx, url, headers, httpTimeout)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(body, v); err != nil {
		return &cerrors.ParseError{Source: c.adapter.Name(), Err: err}
	}
	return nil
}

// GetText performs an HTTP GET request and returns the response body as a string.
func (c *Client) GetText(ctx context.Context, url string) (string, error) {
	body, err := c.do(ctx, url, nil, httpTimeout)
	return string(body), err
}

// GetPage fetches an HTML page.
func (c *Client) GetPage(ctx context.Context, url string) ([]byte, error) {
	return c.do(ctx, url, map[string]string{"Accept": "text/html,application/xhtml+xml"}, pageTimeout)
}

// Download fetches a large body such as a PDF.
func (c *Client) Download(ctx context.Context, url string) ([]byte, error) {
	return c.do(ctx, url, nil, downloadTimeout)
}

func (c *Client) do(ctx context.Context, rawURL string, headers map[string]string, timeout time.Duration) ([]byte, error) {
	name := c.adapter.Name()
	if err := c.limiter.Check(); err != nil {
		var rl *cerrors.RateLimitError
		if errors.As(err, &rl) {
			observability.Limit().OnRateLimited(ctx, name, rl.RetryAfter)
		}
		return nil, err
	}

	if c.timeout > 0 {
		timeout = c.timeout
	}
	reqCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(reqCtx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, err
	}
	for k, v := range c.headers {
		req.Header.Set(k, v)
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	host, path := req.URL.Host, req.URL.Path
	observability.HTTP().OnRequest(ctx, http.MethodGet, host, path)
	start := time.Now()

	resp, err := c.http.Do(req)
	if err != nil {
		observability.HTTP().OnError(ctx, http.MethodGet, host, path, err)
		return nil, c.transportError(ctx, rawURL, err)
	}
	defer resp.Body.Close()
	observability.HTTP().OnResponse(ctx, http.MethodGet, host, path, resp.StatusCode, time.Since(start))

	if resp.StatusCode == http.StatusTooManyRequests {
		retryAfter := parseRetryAfter(resp.Header.Get("Retry-After"), c.now())
		observability.Limit().OnRateLimited(ctx, name, retryAfter)
		return nil, &cerrors.RateLimitError{Source: name, RetryAfter: retryAfter}
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &cerrors.APIError{StatusCode: resp.StatusCode, URL: redact(rawURL)}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return nil, c.transportError(ctx, rawURL, err)
	}
	return body, nil
}

// transportError maps timeouts to a 408 APIError. Cancellation of the
// caller's context is returned as is.
func (c *Client) transportError(ctx context.Context, rawURL string, err error) error {
	if ctx.Err() != nil {
		return ctx.Err()
	}
	var netErr net.Error
	if errors.Is(err, context.DeadlineExceeded) || (errors.As(err, &netErr) && netErr.Timeout()) {
		return &cerrors.APIError{StatusCode: http.StatusRequestTimeout, URL: redact(rawURL), Cause: err}
	}
	return cerrors.Wrap(cerrors.ErrCodeNetwork, err, "GET %s", redact(rawURL))
}

// parseRetryAfter accepts delta-seconds or an HTTP date.
func parseRetryAfter(v string, now time.Time) time.Duration {
	if v == "" {
		return 0
	}
	if secs, err := strconv.Atoi(v); err == nil && secs >= 0 {
		return time.Duration(secs) * time.Second
	}
	if t, err := http.ParseTime(v); err == nil {
		if d := t.Sub(now); d > 0 {
			return d
		}
	}
	return 0
}

// redact strips query strings, which may carry API keys.
func redact(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return rawURL
	}
	u.RawQuery = ""
	return u.String()
}

func sleepCtx(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return ctx.Err() == nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}

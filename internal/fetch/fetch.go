// Package fetch retrieves release pages and artifacts over HTTP with retries.
package fetch

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/dustin/go-humanize"
	lru "github.com/hashicorp/golang-lru/v2"
	pkgerrors "github.com/pkg/errors"

	"github.com/cjrh/lifter/internal/config"
)

const (
	// DefaultUserAgent is sent with every request. Some release hosts refuse
	// clients that do not look like a browser.
	DefaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"
	// DefaultAttempts is the total number of tries per request.
	DefaultAttempts = 10
	// DefaultTimeout is the default HTTP request timeout.
	DefaultTimeout = 5 * time.Minute
	// DefaultCacheSize is the number of page bodies kept per Fetcher.
	DefaultCacheSize = 128

	backoffStep = 4 * time.Second
	maxBackoff  = 60 * time.Second
)

// retryable lists the statuses worth another attempt.
var retryable = map[int]bool{
	http.StatusRequestTimeout:      true, // 408
	http.StatusTooEarly:            true, // 425
	http.StatusTooManyRequests:     true, // 429
	http.StatusInternalServerError: true, // 500
	http.StatusBadGateway:          true, // 502
	http.StatusServiceUnavailable:  true, // 503
	http.StatusGatewayTimeout:      true, // 504
}

// Retryable reports whether status triggers a retry.
func Retryable(status int) bool {
	return retryable[status]
}

// Backoff returns the wait before retry n, where n is the number of failed
// attempts so far: 4s, 8s, 12s, ... capped at 60s.
func Backoff(n int) time.Duration {
	d := time.Duration(n) * backoffStep
	if d > maxBackoff {
		return maxBackoff
	}
	return d
}

// SleepFunc waits for d or until ctx is done.
type SleepFunc func(ctx context.Context, d time.Duration) error

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Config configures a Fetcher. Zero values get defaults.
type Config struct {
	Client    *http.Client  // Default: client with Timeout.
	UserAgent string        // Default: DefaultUserAgent.
	Attempts  int           // Default: DefaultAttempts.
	Timeout   time.Duration // Default: DefaultTimeout. Ignored when Client is set.
	CacheSize int           // Default: DefaultCacheSize.
	Sleep     SleepFunc     // Default: a context-aware timer.
	Logger    config.Logger
}

func (c *Config) defaults() {
	if c.Timeout <= 0 {
		c.Timeout = DefaultTimeout
	}
	if c.Client == nil {
		c.Client = &http.Client{
			Timeout: c.Timeout,
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				if len(via) >= 10 {
					return fmt.Errorf("too many redirects")
				}
				return nil
			},
		}
	}
	if c.UserAgent == "" {
		c.UserAgent = DefaultUserAgent
	}
	if c.Attempts <= 0 {
		c.Attempts = DefaultAttempts
	}
	if c.CacheSize <= 0 {
		c.CacheSize = DefaultCacheSize
	}
	if c.Sleep == nil {
		c.Sleep = sleepContext
	}
	c.Logger = config.OrNop(c.Logger)
}

// Fetcher performs GET requests with the retry policy. Safe for concurrent use.
type Fetcher struct {
	config Config
	pages  *lru.Cache[string, string]
}

// New creates a Fetcher.
func New(cfg Config) (*Fetcher, error) {
	cfg.defaults()
	pages, err := lru.New[string, string](cfg.CacheSize)
	if err != nil {
		return nil, fmt.Errorf("create page cache: %w", err)
	}
	return &Fetcher{config: cfg, pages: pages}, nil
}

// Fetch returns the body of url as text. Bodies are cached per URL for the
// life of the Fetcher, so sections sharing a page request it once.
func (f *Fetcher) Fetch(ctx context.Context, url string) (string, error) {
	if body, ok := f.pages.Get(url); ok {
		f.config.Logger.Debug("page cache hit", "url", url)
		return body, nil
	}

	resp, err := f.get(ctx, url)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", pkgerrors.WithStack(&FetchError{URL: url, Attempts: 1, Err: fmt.Errorf("read body: %w", err)})
	}

	body := string(data)
	f.pages.Add(url, body)
	return body, nil
}

// Download returns the bytes at url. When the server reports a length,
// progress receives the completed fraction (0.0 to 1.0) as data arrives.
// Downloads are not cached.
func (f *Fetcher) Download(ctx context.Context, url string, progress func(float64)) ([]byte, error) {
	resp, err := f.get(ctx, url)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var body io.Reader = resp.Body
	if progress != nil && resp.ContentLength > 0 {
		body = &progressReader{r: resp.Body, total: resp.ContentLength, report: progress}
	}

	data, err := io.ReadAll(body)
	if err != nil {
		return nil, pkgerrors.WithStack(&FetchError{URL: url, Attempts: 1, Err: fmt.Errorf("read body: %w", err)})
	}

	f.config.Logger.Debug("downloaded artifact", "url", url, "size", humanize.Bytes(uint64(len(data))))
	return data, nil
}

// get performs the request with retries. The caller closes the body of the
// returned 2xx response.
func (f *Fetcher) get(ctx context.Context, url string) (*http.Response, error) {
	var lastErr error

	for attempt := 1; attempt <= f.config.Attempts; attempt++ {
		if attempt > 1 {
			wait := Backoff(attempt - 1)
			f.config.Logger.Debug("retrying request", "url", url, "attempt", attempt, "wait", wait, "error", lastErr)
			if err := f.config.Sleep(ctx, wait); err != nil {
				return nil, pkgerrors.WithStack(err)
			}
		}

		req, err := f.newRequest(ctx, url)
		if err != nil {
			return nil, pkgerrors.WithStack(err)
		}
		resp, err := f.config.Client.Do(req)
		if err != nil {
			if ctx.Err() != nil {
				return nil, pkgerrors.WithStack(ctx.Err())
			}
			lastErr = fmt.Errorf("execute request: %w", err)
			continue
		}

		if resp.StatusCode >= 200 && resp.StatusCode < 300 {
			return resp, nil
		}

		statusErr := &StatusError{URL: url, StatusCode: resp.StatusCode, Body: readErrorBody(resp.Body)}
		resp.Body.Close()

		if !Retryable(resp.StatusCode) {
			return nil, pkgerrors.WithStack(statusErr)
		}
		lastErr = statusErr
	}

	f.config.Logger.Warn("giving up on request", "url", url, "attempts", f.config.Attempts, "error", lastErr)
	return nil, pkgerrors.WithStack(&FetchError{URL: url, Attempts: f.config.Attempts, Err: lastErr})
}

// newRequest fails only for malformed URLs, which are not retried.
func (f *Fetcher) newRequest(ctx context.Context, url string) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("create request for %s: %w", url, err)
	}
	req.Header.Set("User-Agent", f.config.UserAgent)
	return req, nil
}

func readErrorBody(r io.Reader) string {
	data, _ := io.ReadAll(io.LimitReader(r, maxErrorBody))
	return string(data)
}

type progressReader struct {
	r      io.Reader
	read   int64
	total  int64
	report func(float64)
}

func (p *progressReader) Read(b []byte) (int, error) {
	n, err := p.r.Read(b)
	if n > 0 {
		p.read += int64(n)
		frac := float64(p.read) / float64(p.total)
		if frac > 1 {
			frac = 1
		}
		p.report(frac)
	}
	return n, err
}

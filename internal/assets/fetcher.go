// Package assets fetches model, material and texture files by URL.
//
// URLs may be http(s), file:// or plain filesystem paths. Results are cached
// per URL and concurrent requests for the same URL share one fetch.
package assets

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/Faultbox/terraview/internal/logger"
)

// Fetch errors.
var (
	ErrFetch             = errors.New("fetch failed")
	ErrUnsupportedScheme = errors.New("unsupported URL scheme")
)

// Options configures a Fetcher.
type Options struct {
	// Cache keeps fetched bytes in memory for later requests.
	Cache bool
	// Timeout bounds each HTTP request; zero means no timeout.
	Timeout time.Duration
	// UserAgent is sent with HTTP requests when set.
	UserAgent string
	// Client overrides the HTTP client (tests).
	Client *http.Client
}

// Fetcher loads asset bytes from URLs.
type Fetcher struct {
	client    *http.Client
	userAgent string
	cache     *Cache
	group     singleflight.Group
}

// NewFetcher creates a fetcher.
func NewFetcher(opts Options) *Fetcher {
	client := opts.Client
	if client == nil {
		client = &http.Client{Timeout: opts.Timeout}
	}
	f := &Fetcher{
		client:    client,
		userAgent: opts.UserAgent,
	}
	if opts.Cache {
		f.cache = NewCache()
	}
	return f
}

// Cache returns the fetcher's cache, or nil when caching is disabled.
func (f *Fetcher) Cache() *Cache {
	return f.cache
}

// Fetch returns the bytes at rawURL, from cache when possible.
func (f *Fetcher) Fetch(ctx context.Context, rawURL string) ([]byte, error) {
	if f.cache != nil {
		if data, ok := f.cache.Get(rawURL); ok {
			return data, nil
		}
	}
	return f.fetchShared(ctx, rawURL)
}

// FetchFresh bypasses the cache lookup and refreshes the cached entry. It
// never joins a fetch already in flight for rawURL, so a hung request cannot
// block a retry.
func (f *Fetcher) FetchFresh(ctx context.Context, rawURL string) ([]byte, error) {
	if f.cache != nil {
		f.cache.Delete(rawURL)
	}
	f.group.Forget(rawURL)
	return f.fetchShared(ctx, rawURL)
}

// Invalidate drops rawURL from the cache.
func (f *Fetcher) Invalidate(rawURL string) {
	if f.cache != nil {
		f.cache.Delete(rawURL)
	}
}

func (f *Fetcher) fetchShared(ctx context.Context, rawURL string) ([]byte, error) {
	ch := f.group.DoChan(rawURL, func() (any, error) {
		// The shared fetch outlives any single caller's cancellation.
		data, err := f.fetch(context.WithoutCancel(ctx), rawURL)
		if err != nil {
			return nil, err
		}
		if f.cache != nil {
			f.cache.Set(rawURL, data)
		}
		return data, nil
	})

	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%w: %s: %v", ErrFetch, rawURL, ctx.Err())
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.([]byte), nil
	}
}

func (f *Fetcher) fetch(ctx context.Context, rawURL string) ([]byte, error) {
	start := time.Now()

	var data []byte
	var err error
	if path, ok := LocalPath(rawURL); ok {
		data, err = os.ReadFile(path)
		if err != nil {
			err = fmt.Errorf("%w: %v", ErrFetch, err)
		}
	} else {
		data, err = f.fetchHTTP(ctx, rawURL)
	}
	if err != nil {
		logger.Debug("fetch failed", zap.String("url", rawURL), zap.Error(err))
		return nil, err
	}

	logger.Debug("fetched",
		zap.String("url", rawURL),
		zap.Int("bytes", len(data)),
		zap.Duration("took", time.Since(start)))
	return data, nil
}

func (f *Fetcher) fetchHTTP(ctx context.Context, rawURL string) ([]byte, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrFetch, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedScheme, u.Scheme)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrFetch, err)
	}
	if f.userAgent != "" {
		req.Header.Set("User-Agent", f.userAgent)
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrFetch, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("%w: %s: %s", ErrFetch, rawURL, resp.Status)
	}
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: reading %s: %v", ErrFetch, rawURL, err)
	}
	return data, nil
}

// LocalPath returns the filesystem path for file:// URLs and plain paths.
func LocalPath(rawURL string) (string, bool) {
	if strings.HasPrefix(rawURL, "file://") {
		u, err := url.Parse(rawURL)
		if err != nil {
			return strings.TrimPrefix(rawURL, "file://"), true
		}
		return filepath.FromSlash(u.Path), true
	}
	if hasScheme(rawURL) {
		return "", false
	}
	return rawURL, true
}

// Resolve interprets ref relative to base, the URL of the file that
// referenced it.
func Resolve(base, ref string) string {
	if ref == "" || hasScheme(ref) {
		return ref
	}

	if hasScheme(base) {
		b, err := url.Parse(base)
		if err == nil {
			r, err := url.Parse(ref)
			if err == nil {
				return b.ResolveReference(r).String()
			}
		}
	}

	if filepath.IsAbs(ref) {
		return ref
	}
	return filepath.Join(filepath.Dir(base), filepath.FromSlash(ref))
}

// hasScheme reports whether s starts with a URL scheme. Single-letter
// schemes are treated as Windows drive letters.
func hasScheme(s string) bool {
	i := strings.Index(s, "://")
	if i <= 1 {
		return false
	}
	for _, c := range s[:i] {
		if !(c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z' || c >= '0' && c <= '9' || c == '+' || c == '-' || c == '.') {
			return false
		}
	}
	return true
}

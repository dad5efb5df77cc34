package fetcher

import (
	"context"
	"io"
	"math/rand/v2"
	"net/http"
	"strconv"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// HTTPOptions configures the HTTP fetcher.
type HTTPOptions struct {
	UserAgent  string
	Timeout    time.Duration
	MaxRetries int
	// RatePerSecond is the starting request rate for every host. Hosts
	// listed in RateLimiters use their fixed limiter instead.
	RatePerSecond float64
	RateLimiters  map[string]*rate.Limiter
	// BaseBackoff is the first retry delay; it doubles per attempt up to
	// MaxBackoff.
	BaseBackoff time.Duration
	MaxBackoff  time.Duration
}

// HTTPFetcher downloads workbooks over HTTP(S). Transport errors, 429 and
// 5xx responses are retried with exponential backoff and jitter.
type HTTPFetcher struct {
	client *http.Client
	opts   HTTPOptions
	limits *hostLimits
}

// NewHTTPFetcher creates an HTTPFetcher, filling unset options with defaults.
func NewHTTPFetcher(opts HTTPOptions) *HTTPFetcher {
	if opts.Timeout == 0 {
		opts.Timeout = 30 * time.Second
	}
	if opts.MaxRetries == 0 {
		opts.MaxRetries = 3
	}
	if opts.UserAgent == "" {
		opts.UserAgent = "leaderboard-cli/1.0"
	}
	if opts.RatePerSecond <= 0 {
		opts.RatePerSecond = 5
	}
	if opts.BaseBackoff == 0 {
		opts.BaseBackoff = time.Second
	}
	if opts.MaxBackoff == 0 {
		opts.MaxBackoff = 30 * time.Second
	}
	return &HTTPFetcher{
		client: &http.Client{
			Timeout: opts.Timeout,
			Transport: &http.Transport{
				MaxIdleConnsPerHost: 4,
				IdleConnTimeout:     90 * time.Second,
			},
		},
		opts:   opts,
		limits: newHostLimits(opts.RatePerSecond, opts.RateLimiters),
	}
}

type verdict int

const (
	verdictAccept verdict = iota
	verdictRetry
	verdictThrottled
)

// judge decides what to do with a response. Anything that is neither 429
// nor 5xx, 304 included, goes back to the caller.
func judge(status int) verdict {
	switch {
	case status == http.StatusTooManyRequests:
		return verdictThrottled
	case status >= http.StatusInternalServerError:
		return verdictRetry
	default:
		return verdictAccept
	}
}

// get sends a GET for rawURL, retrying up to MaxRetries attempts.
func (f *HTTPFetcher) get(ctx context.Context, rawURL, etag string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, eris.Wrap(err, "create request")
	}
	req.Header.Set("User-Agent", f.opts.UserAgent)
	if etag != "" {
		req.Header.Set("If-None-Match", etag)
	}
	host := req.URL.Host

	var lastErr error
	for attempt := range f.opts.MaxRetries {
		p, err := f.limits.wait(ctx, host)
		if err != nil {
			return nil, err
		}

		resp, err := f.client.Do(req.Clone(ctx))
		if err != nil {
			if ctx.Err() != nil {
				return nil, eris.Wrap(ctx.Err(), "http request cancelled")
			}
			lastErr = err
			zap.L().Warn("http: request failed, retrying",
				zap.String("url", rawURL),
				zap.Int("attempt", attempt+1),
				zap.Error(err),
			)
			f.pause(ctx, f.delay(attempt, 0))
			continue
		}

		v := judge(resp.StatusCode)
		if v == verdictAccept {
			if p != nil {
				p.speedUp()
			}
			return resp, nil
		}

		wait := retryAfter(resp.Header.Get("Retry-After"))
		_ = resp.Body.Close()
		lastErr = eris.Errorf("http %d from %s", resp.StatusCode, rawURL)
		if v == verdictThrottled && p != nil {
			p.slowDown(host)
		}
		zap.L().Warn("http: retryable status",
			zap.String("url", rawURL),
			zap.Int("status", resp.StatusCode),
			zap.Int("attempt", attempt+1),
		)
		f.pause(ctx, f.delay(attempt, wait))
	}

	return nil, eris.Wrap(lastErr, "all retries exhausted")
}

// delay is BaseBackoff*2^attempt plus up to half again of jitter, raised to
// the server's Retry-After hint and capped at MaxBackoff.
func (f *HTTPFetcher) delay(attempt int, hint time.Duration) time.Duration {
	d := f.opts.BaseBackoff << min(attempt, 20)
	if d <= 0 || d > f.opts.MaxBackoff {
		d = f.opts.MaxBackoff
	}
	if half := int64(d / 2); half > 0 {
		d += time.Duration(rand.Int64N(half))
	}
	d = max(d, hint)
	return min(d, f.opts.MaxBackoff)
}

// pause sleeps for d or until ctx is done.
func (f *HTTPFetcher) pause(ctx context.Context, d time.Duration) {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
	case <-t.C:
	}
}

// retryAfter reads a Retry-After value given in seconds. HTTP dates and
// malformed values yield zero.
func retryAfter(v string) time.Duration {
	secs, err := strconv.Atoi(v)
	if err != nil || secs <= 0 {
		return 0
	}
	return time.Duration(secs) * time.Second
}

// Download fetches rawURL and returns the body of a 200 response.
func (f *HTTPFetcher) Download(ctx context.Context, rawURL string) (io.ReadCloser, error) {
	resp, err := f.get(ctx, rawURL, "")
	if err != nil {
		return nil, eris.Wrap(err, "download")
	}
	if resp.StatusCode != http.StatusOK {
		_ = resp.Body.Close()
		return nil, eris.Errorf("download: unexpected status %d from %s", resp.StatusCode, rawURL)
	}
	return resp.Body, nil
}

// DownloadIfChanged sends If-None-Match when etag is set. A 304 returns a
// nil body, the same etag, and changed=false.
func (f *HTTPFetcher) DownloadIfChanged(ctx context.Context, rawURL string, etag string) (io.ReadCloser, string, bool, error) {
	resp, err := f.get(ctx, rawURL, etag)
	if err != nil {
		return nil, "", false, eris.Wrap(err, "download if changed")
	}

	switch resp.StatusCode {
	case http.StatusNotModified:
		_ = resp.Body.Close()
		return nil, etag, false, nil
	case http.StatusOK:
		return resp.Body, resp.Header.Get("ETag"), true, nil
	default:
		_ = resp.Body.Close()
		return nil, "", false, eris.Errorf("download if changed: unexpected status %d from %s", resp.StatusCode, rawURL)
	}
}

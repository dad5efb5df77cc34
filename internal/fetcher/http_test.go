package fetcher

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/time/rate"
)

func newTestFetcher() *HTTPFetcher {
	return NewHTTPFetcher(HTTPOptions{
		UserAgent:     "test-agent",
		Timeout:       5 * time.Second,
		MaxRetries:    3,
		RatePerSecond: 1000,
		BaseBackoff:   10 * time.Millisecond,
	})
}

// step is one scripted response. Zero status means 200.
type step struct {
	status int
	etag   string
	body   string
}

// scripted answers request n (1-based) with steps[n-1], repeating the
// last step once the script runs out.
func scripted(t *testing.T, steps ...step) (*httptest.Server, *atomic.Int32) {
	t.Helper()
	var n atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		i := min(int(n.Add(1)), len(steps)) - 1
		st := steps[i]
		if st.etag != "" {
			w.Header().Set("ETag", st.etag)
		}
		if st.status != 0 {
			w.WriteHeader(st.status)
		}
		io.WriteString(w, st.body) //nolint:errcheck
	}))
	t.Cleanup(srv.Close)
	return srv, &n
}

func readBody(t *testing.T, rc io.ReadCloser) string {
	t.Helper()
	require.NotNil(t, rc)
	defer rc.Close() //nolint:errcheck
	data, err := io.ReadAll(rc)
	require.NoError(t, err)
	return string(data)
}

func TestDownload(t *testing.T) {
	tests := []struct {
		name     string
		steps    []step
		wantBody string
		wantErr  string
		attempts int32
	}{
		{name: "ok", steps: []step{{body: "workbook bytes"}}, wantBody: "workbook bytes", attempts: 1},
		{name: "recovers after 5xx", steps: []step{{status: 500}, {status: 503}, {body: "success"}}, wantBody: "success", attempts: 3},
		{name: "retries exhausted", steps: []step{{status: 500}}, wantErr: "all retries exhausted", attempts: 3},
		{name: "not found is final", steps: []step{{status: 404}}, wantErr: "unexpected status 404", attempts: 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv, n := scripted(t, tt.steps...)
			rc, err := newTestFetcher().Download(context.Background(), srv.URL+"/leaderboard.xlsx")
			if tt.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
			} else {
				require.NoError(t, err)
				assert.Equal(t, tt.wantBody, readBody(t, rc))
			}
			assert.Equal(t, tt.attempts, n.Load())
		})
	}
}

func TestDownload_SendsUserAgent(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, r.Header.Get("User-Agent")) //nolint:errcheck
	}))
	defer srv.Close()

	rc, err := newTestFetcher().Download(context.Background(), srv.URL)
	require.NoError(t, err)
	assert.Equal(t, "test-agent", readBody(t, rc))
}

func TestDownloadIfChanged(t *testing.T) {
	tests := []struct {
		name        string
		etag        string
		steps       []step
		wantChanged bool
		wantETag    string
		wantBody    string
		wantErr     string
	}{
		{name: "not modified", etag: `"e1"`, steps: []step{{status: 304}}, wantETag: `"e1"`},
		{name: "changed", etag: `"e1"`, steps: []step{{etag: `"e2"`, body: "new content"}}, wantChanged: true, wantETag: `"e2"`, wantBody: "new content"},
		{name: "first fetch", steps: []step{{etag: `"new"`, body: "content"}}, wantChanged: true, wantETag: `"new"`, wantBody: "content"},
		{name: "5xx then not modified", etag: `"e"`, steps: []step{{status: 502}, {status: 304}}, wantETag: `"e"`},
		{name: "forbidden", etag: `"e1"`, steps: []step{{status: 403}}, wantErr: "unexpected status 403"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv, _ := scripted(t, tt.steps...)
			rc, etag, changed, err := newTestFetcher().DownloadIfChanged(context.Background(), srv.URL+"/res", tt.etag)
			if tt.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantChanged, changed)
			assert.Equal(t, tt.wantETag, etag)
			if !tt.wantChanged {
				assert.Nil(t, rc)
				return
			}
			assert.Equal(t, tt.wantBody, readBody(t, rc))
		})
	}
}

func TestDownloadIfChanged_ConditionalHeader(t *testing.T) {
	var seen []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = append(seen, r.Header.Get("If-None-Match"))
		io.WriteString(w, "x") //nolint:errcheck
	}))
	defer srv.Close()

	f := newTestFetcher()
	for _, etag := range []string{"", `"abc"`} {
		rc, _, _, err := f.DownloadIfChanged(context.Background(), srv.URL, etag)
		require.NoError(t, err)
		readBody(t, rc)
	}
	assert.Equal(t, []string{"", `"abc"`}, seen)
}

func TestGet_TransportErrorRetried(t *testing.T) {
	var attempts atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		if attempts.Add(1) < 3 {
			if hj, ok := w.(http.Hijacker); ok {
				conn, _, _ := hj.Hijack()
				conn.Close() //nolint:errcheck
				return
			}
		}
		io.WriteString(w, "ok") //nolint:errcheck
	}))
	defer srv.Close()

	rc, err := newTestFetcher().Download(context.Background(), srv.URL+"/net-err")
	require.NoError(t, err)
	assert.Equal(t, "ok", readBody(t, rc))
	assert.Equal(t, int32(3), attempts.Load())
}

func TestRateLimiting(t *testing.T) {
	var reqTimes []time.Time
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		reqTimes = append(reqTimes, time.Now())
		w.Write([]byte("ok"))
	}))
	defer srv.Close()

	// 2 req/s with burst 1 for the test server only.
	limiters := map[string]*rate.Limiter{
		srv.Listener.Addr().String(): rate.NewLimiter(2, 1),
	}

	f := NewHTTPFetcher(HTTPOptions{
		UserAgent:    "test-agent",
		Timeout:      5 * time.Second,
		MaxRetries:   1,
		RateLimiters: limiters,
	})

	ctx := context.Background()
	for range 3 {
		body, err := f.Download(ctx, srv.URL+"/limited")
		require.NoError(t, err)
		body.Close()
	}

	require.GreaterOrEqual(t, len(reqTimes), 3)
	duration := reqTimes[len(reqTimes)-1].Sub(reqTimes[0])
	assert.GreaterOrEqual(t, duration.Milliseconds(), int64(500), "requests should be rate limited")
}

func TestGet_ThrottledLowersRate(t *testing.T) {
	var attempts atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if attempts.Add(1) <= 2 {
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		w.Write([]byte("ok"))
	}))
	defer srv.Close()

	f := newTestFetcher()
	u, _ := url.Parse(srv.URL)
	f.limits.paced[u.Host] = newPacer(100, 100)

	body, err := f.Download(context.Background(), srv.URL+"/data")
	require.NoError(t, err)
	defer body.Close()

	data, _ := io.ReadAll(body)
	assert.Equal(t, "ok", string(data))
	assert.Equal(t, int32(3), attempts.Load())

	// 100 -> 50 -> 25 after two 429s, then 30 after the success.
	assert.InDelta(t, 30.0, float64(f.limits.paced[u.Host].Rate()), 0.1)
}

func TestGet_RetryAfterHint(t *testing.T) {
	var attempts atomic.Int32
	var first, second time.Time
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if attempts.Add(1) == 1 {
			first = time.Now()
			w.Header().Set("Retry-After", "1")
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		second = time.Now()
		w.Write([]byte("ok"))
	}))
	defer srv.Close()

	f := newTestFetcher()
	body, err := f.Download(context.Background(), srv.URL+"/busy")
	require.NoError(t, err)
	body.Close()
	assert.GreaterOrEqual(t, second.Sub(first), 900*time.Millisecond)
}

func TestHostLimits_PacerPerHost(t *testing.T) {
	h := newHostLimits(1000, nil)
	ctx := context.Background()
	a, err := h.wait(ctx, "docs.example.com")
	require.NoError(t, err)
	b, err := h.wait(ctx, "docs.example.com")
	require.NoError(t, err)
	c, err := h.wait(ctx, "other.example.com")
	require.NoError(t, err)

	assert.Same(t, a, b)
	assert.NotSame(t, a, c)
	assert.InDelta(t, 1000.0, float64(a.Rate()), 0.001)
}

func TestHostLimits_FixedLimiterWins(t *testing.T) {
	h := newHostLimits(5, map[string]*rate.Limiter{"docs.example.com": rate.NewLimiter(100, 100)})
	p, err := h.wait(context.Background(), "docs.example.com")
	require.NoError(t, err)
	assert.Nil(t, p)
	assert.Empty(t, h.paced)
}

func TestHostLimits_ContextCancelled(t *testing.T) {
	h := newHostLimits(0.001, nil)
	_, err := h.wait(context.Background(), "slow.example.com")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = h.wait(ctx, "slow.example.com")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "rate limit slow.example.com")
}

func TestNewHTTPFetcher_Defaults(t *testing.T) {
	f := NewHTTPFetcher(HTTPOptions{})
	assert.Equal(t, "leaderboard-cli/1.0", f.opts.UserAgent)
	assert.Equal(t, 30*time.Second, f.opts.Timeout)
	assert.Equal(t, 3, f.opts.MaxRetries)
	assert.InDelta(t, 5.0, f.opts.RatePerSecond, 0.001)
	assert.Equal(t, time.Second, f.opts.BaseBackoff)
	assert.Equal(t, 30*time.Second, f.opts.MaxBackoff)
}

func TestDownload_ContextCancelled(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	}))
	defer srv.Close()

	f := newTestFetcher()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := f.Download(ctx, srv.URL+"/data")
	require.Error(t, err)
}

func TestDownload_InvalidURL(t *testing.T) {
	f := newTestFetcher()
	_, err := f.Download(context.Background(), "://invalid-url")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "create request")
}

func TestPause_ContextCancelled(t *testing.T) {
	f := NewHTTPFetcher(HTTPOptions{})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	start := time.Now()
	f.pause(ctx, f.delay(20, 0))
	assert.Less(t, time.Since(start), 100*time.Millisecond)
}

func TestDelay(t *testing.T) {
	f := NewHTTPFetcher(HTTPOptions{BaseBackoff: 100 * time.Millisecond, MaxBackoff: time.Second})

	d := f.delay(0, 0)
	assert.GreaterOrEqual(t, d, 100*time.Millisecond)
	assert.Less(t, d, 150*time.Millisecond)

	d = f.delay(2, 0)
	assert.GreaterOrEqual(t, d, 400*time.Millisecond)
	assert.Less(t, d, 600*time.Millisecond)

	assert.Equal(t, time.Second, f.delay(10, 0))
	assert.Equal(t, time.Second, f.delay(0, 5*time.Second))
	assert.GreaterOrEqual(t, f.delay(0, 700*time.Millisecond), 700*time.Millisecond)
}

func TestRetryAfter(t *testing.T) {
	assert.Equal(t, 3*time.Second, retryAfter("3"))
	assert.Zero(t, retryAfter(""))
	assert.Zero(t, retryAfter("-1"))
	assert.Zero(t, retryAfter("Wed, 21 Oct 2015 07:28:00 GMT"))
}

func TestJudge(t *testing.T) {
	assert.Equal(t, verdictAccept, judge(http.StatusOK))
	assert.Equal(t, verdictAccept, judge(http.StatusNotModified))
	assert.Equal(t, verdictAccept, judge(http.StatusNotFound))
	assert.Equal(t, verdictThrottled, judge(http.StatusTooManyRequests))
	assert.Equal(t, verdictRetry, judge(http.StatusBadGateway))
}

func TestPacer_SpeedUp(t *testing.T) {
	p := newPacer(10, 10)

	p.speedUp()
	assert.InDelta(t, 12.0, float64(p.Rate()), 0.1)

	p.speedUp()
	assert.InDelta(t, 14.4, float64(p.Rate()), 0.1)
}

func TestPacer_SlowDown(t *testing.T) {
	p := newPacer(10, 10)

	p.slowDown("h")
	assert.InDelta(t, 5.0, float64(p.Rate()), 0.1)

	p.slowDown("h")
	assert.InDelta(t, 2.5, float64(p.Rate()), 0.1)
}

func TestPacer_Bounds(t *testing.T) {
	p := newPacer(10, 10)
	for range 20 {
		p.speedUp()
	}
	assert.InDelta(t, 20.0, float64(p.Rate()), 0.1)

	for range 20 {
		p.slowDown("h")
	}
	assert.InDelta(t, 2.5, float64(p.Rate()), 0.1)
}

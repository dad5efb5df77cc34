package fetcher

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeTestFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "leaderboard.xlsx")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLocalPath(t *testing.T) {
	tests := []struct {
		name    string
		in      string
		want    string
		wantErr bool
	}{
		{name: "bare path", in: "/data/lb.xlsx", want: "/data/lb.xlsx"},
		{name: "relative path", in: "testdata/lb.xlsx", want: "testdata/lb.xlsx"},
		{name: "file url", in: "file:///data/lb.xlsx", want: "/data/lb.xlsx"},
		{name: "http rejected", in: "http://example.com/lb.xlsx", wantErr: true},
		{name: "empty file url", in: "file://", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := localPath(tt.in)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestFileFetcher_Download(t *testing.T) {
	path := writeTestFile(t, "local workbook")
	f := NewFileFetcher()

	for _, raw := range []string{path, "file://" + path} {
		rc, err := f.Download(context.Background(), raw)
		require.NoError(t, err, raw)
		data, err := io.ReadAll(rc)
		require.NoError(t, err)
		require.NoError(t, rc.Close())
		assert.Equal(t, "local workbook", string(data))
	}

	_, err := f.Download(context.Background(), filepath.Join(t.TempDir(), "missing.xlsx"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "file: open")
}

func TestFileFetcher_DownloadIfChanged(t *testing.T) {
	path := writeTestFile(t, "v1")
	f := NewFileFetcher()
	ctx := context.Background()

	rc, etag, changed, err := f.DownloadIfChanged(ctx, path, "")
	require.NoError(t, err)
	require.True(t, changed)
	require.NotEmpty(t, etag)
	require.NoError(t, rc.Close())

	rc, same, changed, err := f.DownloadIfChanged(ctx, path, etag)
	require.NoError(t, err)
	assert.False(t, changed)
	assert.Nil(t, rc)
	assert.Equal(t, etag, same)

	require.NoError(t, os.WriteFile(path, []byte("version two"), 0o644))
	future := time.Now().Add(time.Hour)
	require.NoError(t, os.Chtimes(path, future, future))

	rc, next, changed, err := f.DownloadIfChanged(ctx, path, etag)
	require.NoError(t, err)
	require.True(t, changed)
	assert.NotEqual(t, etag, next)
	data, err := io.ReadAll(rc)
	require.NoError(t, err)
	require.NoError(t, rc.Close())
	assert.Equal(t, "version two", string(data))
}

func TestFileFetcher_CancelledContext(t *testing.T) {
	path := writeTestFile(t, "x")
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewFileFetcher().Download(ctx, path)
	require.Error(t, err)
}

func TestRouter(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("from http"))
	}))
	defer srv.Close()

	r := NewRouter(HTTPOptions{RatePerSecond: 100, BaseBackoff: 10 * time.Millisecond}, FTPOptions{})
	ctx := context.Background()

	rc, err := r.Download(ctx, srv.URL+"/lb.xlsx")
	require.NoError(t, err)
	data, _ := io.ReadAll(rc)
	rc.Close()
	assert.Equal(t, "from http", string(data))

	path := writeTestFile(t, "from disk")
	rc, _, changed, err := r.DownloadIfChanged(ctx, path, "")
	require.NoError(t, err)
	assert.True(t, changed)
	data, _ = io.ReadAll(rc)
	rc.Close()
	assert.Equal(t, "from disk", string(data))
}

func TestRouter_Errors(t *testing.T) {
	r := &Router{File: NewFileFetcher()}

	_, err := r.Download(context.Background(), "s3://bucket/lb.xlsx")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported scheme")

	_, err = r.Download(context.Background(), "https://example.com/lb.xlsx")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no fetcher configured")

	_, _, _, err = r.DownloadIfChanged(context.Background(), "ftp://example.com/lb.xlsx", "")
	require.Error(t, err)
}

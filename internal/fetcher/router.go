package fetcher

import (
	"context"
	"io"
	"strings"

	"github.com/rotisserie/eris"
)

// Router dispatches each URL to a fetcher by scheme. URLs without a scheme
// are treated as local paths.
type Router struct {
	HTTP Fetcher
	FTP  Fetcher
	File Fetcher
}

// NewRouter wires the default fetcher for each scheme.
func NewRouter(httpOpts HTTPOptions, ftpOpts FTPOptions) *Router {
	return &Router{
		HTTP: NewHTTPFetcher(httpOpts),
		FTP:  NewFTPFetcher(ftpOpts),
		File: NewFileFetcher(),
	}
}

func (r *Router) route(rawURL string) (Fetcher, error) {
	scheme := ""
	if i := strings.Index(rawURL, "://"); i > 0 {
		scheme = strings.ToLower(rawURL[:i])
	}

	var f Fetcher
	switch scheme {
	case "http", "https":
		f = r.HTTP
	case "ftp":
		f = r.FTP
	case "", "file":
		f = r.File
	default:
		return nil, eris.Errorf("fetcher: unsupported scheme %q", scheme)
	}
	if f == nil {
		return nil, eris.Errorf("fetcher: no fetcher configured for %q", rawURL)
	}
	return f, nil
}

// Download fetches rawURL with the fetcher for its scheme.
func (r *Router) Download(ctx context.Context, rawURL string) (io.ReadCloser, error) {
	f, err := r.route(rawURL)
	if err != nil {
		return nil, err
	}
	return f.Download(ctx, rawURL)
}

// DownloadIfChanged fetches rawURL with the fetcher for its scheme.
func (r *Router) DownloadIfChanged(ctx context.Context, rawURL string, etag string) (io.ReadCloser, string, bool, error) {
	f, err := r.route(rawURL)
	if err != nil {
		return nil, "", false, err
	}
	return f.DownloadIfChanged(ctx, rawURL, etag)
}

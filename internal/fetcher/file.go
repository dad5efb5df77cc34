package fetcher

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"os"
	"strings"

	"github.com/rotisserie/eris"
)

// FileFetcher reads workbooks from the local filesystem. It accepts
// file:// URLs and bare paths.
type FileFetcher struct{}

// NewFileFetcher creates a FileFetcher.
func NewFileFetcher() *FileFetcher { return &FileFetcher{} }

// localPath strips a file:// prefix. Other schemes are rejected.
func localPath(raw string) (string, error) {
	if !strings.Contains(raw, "://") {
		return raw, nil
	}
	u, err := url.Parse(raw)
	if err != nil {
		return "", eris.Wrap(err, "parse file url")
	}
	if u.Scheme != "file" {
		return "", eris.Errorf("expected file scheme, got %q", u.Scheme)
	}
	if u.Path == "" {
		return "", eris.New("empty path in file url")
	}
	return u.Path, nil
}

// Download opens the file at raw.
func (f *FileFetcher) Download(ctx context.Context, raw string) (io.ReadCloser, error) {
	if err := ctx.Err(); err != nil {
		return nil, eris.Wrap(err, "file: open")
	}
	path, err := localPath(raw)
	if err != nil {
		return nil, err
	}
	file, err := os.Open(path)
	if err != nil {
		return nil, eris.Wrapf(err, "file: open %s", path)
	}
	return file, nil
}

// DownloadIfChanged uses the file's size and modification time as its ETag.
func (f *FileFetcher) DownloadIfChanged(ctx context.Context, raw string, etag string) (io.ReadCloser, string, bool, error) {
	path, err := localPath(raw)
	if err != nil {
		return nil, "", false, err
	}
	info, err := os.Stat(path)
	if err != nil {
		return nil, "", false, eris.Wrapf(err, "file: stat %s", path)
	}
	current := fmt.Sprintf("%d-%d", info.Size(), info.ModTime().UnixNano())
	if etag != "" && etag == current {
		return nil, etag, false, nil
	}

	rc, err := f.Download(ctx, path)
	if err != nil {
		return nil, "", false, err
	}
	return rc, current, true, nil
}

package fetcher

import (
	"context"
	"io"
	"net"
	"net/url"
	"time"

	"github.com/jlaffaye/ftp"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"
)

// FTPOptions configures the FTP fetcher. A blank User logs in anonymously.
// Credentials in the URL take precedence over these.
type FTPOptions struct {
	Timeout  time.Duration
	User     string
	Password string
}

// FTPFetcher downloads mirrored workbooks over FTP.
type FTPFetcher struct {
	opts FTPOptions
}

// NewFTPFetcher creates an FTPFetcher, filling unset options with defaults.
func NewFTPFetcher(opts FTPOptions) *FTPFetcher {
	if opts.Timeout == 0 {
		opts.Timeout = 30 * time.Second
	}
	if opts.User == "" {
		opts.User, opts.Password = "anonymous", "anonymous@"
	}
	return &FTPFetcher{opts: opts}
}

// ftpTarget is a parsed ftp:// URL.
type ftpTarget struct {
	addr     string
	path     string
	user     string
	password string
}

func parseFTPTarget(rawURL string) (ftpTarget, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return ftpTarget{}, eris.Wrap(err, "parse ftp url")
	}
	if u.Scheme != "ftp" {
		return ftpTarget{}, eris.Errorf("expected ftp scheme, got %q", u.Scheme)
	}
	if u.Path == "" {
		return ftpTarget{}, eris.New("empty path in ftp url")
	}

	t := ftpTarget{addr: u.Host, path: u.Path}
	if _, _, err := net.SplitHostPort(t.addr); err != nil {
		t.addr = net.JoinHostPort(t.addr, "21")
	}
	if u.User != nil {
		t.user = u.User.Username()
		t.password, _ = u.User.Password()
	}
	return t, nil
}

// parseFTPURL returns the dial address (port defaulting to 21) and path.
func parseFTPURL(rawURL string) (string, string, error) {
	t, err := parseFTPTarget(rawURL)
	return t.addr, t.path, err
}

// retrReader streams one RETR transfer. Close ends the transfer and then
// the control connection.
type retrReader struct {
	*ftp.Response
	conn *ftp.ServerConn
}

func (r *retrReader) Close() error {
	if err := r.Response.Close(); err != nil {
		_ = r.conn.Quit()
		return eris.Wrap(err, "close ftp response")
	}
	if err := r.conn.Quit(); err != nil {
		return eris.Wrap(err, "quit ftp connection")
	}
	return nil
}

func (f *FTPFetcher) connect(ctx context.Context, t ftpTarget) (*ftp.ServerConn, error) {
	zap.L().Debug("ftp: connecting", zap.String("addr", t.addr), zap.String("path", t.path))

	conn, err := ftp.Dial(t.addr, ftp.DialWithTimeout(f.opts.Timeout), ftp.DialWithContext(ctx))
	if err != nil {
		return nil, eris.Wrap(err, "ftp dial")
	}

	user, password := f.opts.User, f.opts.Password
	if t.user != "" {
		user, password = t.user, t.password
	}
	if err := conn.Login(user, password); err != nil {
		_ = conn.Quit()
		return nil, eris.Wrap(err, "ftp login")
	}
	return conn, nil
}

func retrieve(conn *ftp.ServerConn, path string) (io.ReadCloser, error) {
	resp, err := conn.Retr(path)
	if err != nil {
		_ = conn.Quit()
		return nil, eris.Wrap(err, "ftp retrieve")
	}
	return &retrReader{Response: resp, conn: conn}, nil
}

// Download retrieves the file. Closing the reader releases the connection.
func (f *FTPFetcher) Download(ctx context.Context, ftpURL string) (io.ReadCloser, error) {
	t, err := parseFTPTarget(ftpURL)
	if err != nil {
		return nil, err
	}
	conn, err := f.connect(ctx, t)
	if err != nil {
		return nil, err
	}
	return retrieve(conn, t.path)
}

// DownloadIfChanged uses the file's MDTM timestamp as its ETag when the
// server supports MDTM. Without it every call downloads and returns an
// empty ETag.
func (f *FTPFetcher) DownloadIfChanged(ctx context.Context, ftpURL string, etag string) (io.ReadCloser, string, bool, error) {
	t, err := parseFTPTarget(ftpURL)
	if err != nil {
		return nil, "", false, err
	}
	conn, err := f.connect(ctx, t)
	if err != nil {
		return nil, "", false, err
	}

	current := ""
	if conn.IsGetTimeSupported() {
		if mt, err := conn.GetTime(t.path); err == nil {
			current = "mdtm-" + mt.UTC().Format("20060102150405")
		}
	}
	if current != "" && current == etag {
		_ = conn.Quit()
		return nil, etag, false, nil
	}

	rc, err := retrieve(conn, t.path)
	if err != nil {
		return nil, "", false, err
	}
	return rc, current, true, nil
}

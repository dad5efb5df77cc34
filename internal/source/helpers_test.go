package source

import (
	"bytes"
	"context"
	"io"
	"path/filepath"
	"sync"
	"testing"

	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/require"
	"github.com/tealeg/xlsx/v2"

	"github.com/sells-group/leaderboard-cli/internal/store"
)

const (
	verifiedURL     = "https://example.com/verified.xlsx"
	selfReportedURL = "https://example.com/self_reported.xlsx"
)

type testSheet struct {
	name string
	rows [][]any
}

func buildXLSX(t *testing.T, sheets ...testSheet) []byte {
	t.Helper()
	f := xlsx.NewFile()
	for _, s := range sheets {
		sh, err := f.AddSheet(s.name)
		require.NoError(t, err)
		for _, rowData := range s.rows {
			row := sh.AddRow()
			for _, v := range rowData {
				cell := row.AddCell()
				switch x := v.(type) {
				case string:
					cell.SetString(x)
				case float64:
					cell.SetFloat(x)
				case nil:
				default:
					t.Fatalf("unsupported cell %T", v)
				}
			}
		}
	}
	var buf bytes.Buffer
	require.NoError(t, f.Write(&buf))
	return buf.Bytes()
}

func verifiedWorkbook(t *testing.T) []byte {
	return buildXLSX(t, testSheet{name: "Sheet1", rows: [][]any{
		{"Model", "Institution", "Approach type", "Max steps", "Date", "Success rate", "Chrome"},
		{"Agent S3", "Simular", "Agentic framework", 100.0, "2025-10-01", 60.0, 50.0},
		{"Agent S3", "Simular", "Agentic framework", 100.0, "2025-10-03", 64.0, 54.0},
		{"UI-TARS", "ByteDance", "Specialized model", 50.0, "2025-09-01", 42.5, 40.0},
		{"broken", "", "", 15.0, "", "n/a", nil},
	}})
}

func selfReportedWorkbook(t *testing.T) []byte {
	return buildXLSX(t,
		testSheet{name: "Screenshot", rows: [][]any{
			{"Model", "Institution", "Date", "Score"},
			{"m1", "Org", "2024-04-01", 12.24},
			{"m2", "Org", "2024-05-01", "n/a"},
		}},
		testSheet{name: "A11y_tree", rows: [][]any{
			{"Model", "Success rate"},
			{"m3", 20.0},
		}},
	)
}

// fakeFetcher serves fixed bodies by URL. ETags come from etags; a
// conditional request with a matching ETag reports not modified.
type fakeFetcher struct {
	mu          sync.Mutex
	bodies      map[string][]byte
	etags       map[string]string
	err         error
	downloads   int
	conditional int
	lastETag    string
}

func newFakeFetcher() *fakeFetcher {
	return &fakeFetcher{bodies: map[string][]byte{}, etags: map[string]string{}}
}

func (f *fakeFetcher) set(url string, body []byte, etag string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.bodies[url] = body
	f.etags[url] = etag
}

func (f *fakeFetcher) fail(err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.err = err
}

func (f *fakeFetcher) counts() (downloads, conditional int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.downloads, f.conditional
}

func (f *fakeFetcher) Download(ctx context.Context, url string) (io.ReadCloser, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.downloads++
	if f.err != nil {
		return nil, f.err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	body, ok := f.bodies[url]
	if !ok {
		return nil, eris.Errorf("not found: %s", url)
	}
	return io.NopCloser(bytes.NewReader(body)), nil
}

func (f *fakeFetcher) DownloadIfChanged(ctx context.Context, url string, etag string) (io.ReadCloser, string, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.conditional++
	f.lastETag = etag
	if f.err != nil {
		return nil, "", false, f.err
	}
	if err := ctx.Err(); err != nil {
		return nil, "", false, err
	}
	body, ok := f.bodies[url]
	if !ok {
		return nil, "", false, eris.Errorf("not found: %s", url)
	}
	current := f.etags[url]
	if etag != "" && etag == current {
		return nil, etag, false, nil
	}
	return io.NopCloser(bytes.NewReader(body)), current, true, nil
}

func newTestCache(t *testing.T) *store.SQLiteStore {
	t.Helper()
	s, err := store.NewSQLite(filepath.Join(t.TempDir(), "cache.db"))
	require.NoError(t, err)
	require.NoError(t, s.Migrate(context.Background()))
	t.Cleanup(func() { s.Close() })
	return s
}

// Package source loads the verified and self-reported workbooks and turns
// them into leaderboard datasets.
package source

import (
	"context"
	"io"
	"time"

	"github.com/rotisserie/eris"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/sells-group/leaderboard-cli/internal/fetcher"
	"github.com/sells-group/leaderboard-cli/internal/leaderboard"
	"github.com/sells-group/leaderboard-cli/internal/metrics"
	"github.com/sells-group/leaderboard-cli/internal/sheet"
	"github.com/sells-group/leaderboard-cli/internal/store"
)

// Dataset names used in logs and metrics.
const (
	DatasetVerified     = "verified"
	DatasetSelfReported = "self_reported"
)

// Dataset is everything the leaderboard shows.
type Dataset struct {
	Verified     []leaderboard.Record            `json:"verified"`
	SelfReported map[leaderboard.Tab][]sheet.Row `json:"selfReported"`
	LoadedAt     time.Time                       `json:"loadedAt"`
}

// Options configures a Loader.
type Options struct {
	VerifiedURL     string
	SelfReportedURL string
	// Curated rows are merged into the verified sheet before aggregation.
	Curated []sheet.Row
	// Cache is optional. Without it every load downloads.
	Cache    store.Cache
	CacheTTL time.Duration
	Metrics  *metrics.Metrics
}

// Loader fetches and parses the two workbooks.
type Loader struct {
	fetcher fetcher.Fetcher
	opts    Options
	tracer  trace.Tracer
	now     func() time.Time
}

// NewLoader creates a Loader.
func NewLoader(f fetcher.Fetcher, opts Options) *Loader {
	return &Loader{
		fetcher: f,
		opts:    opts,
		tracer:  otel.Tracer("leaderboard-source"),
		now:     time.Now,
	}
}

// VerifiedRows returns the first sheet of the verified workbook with the
// curated rows merged in.
func (l *Loader) VerifiedRows(ctx context.Context) ([]sheet.Row, error) {
	wb, err := l.workbook(ctx, DatasetVerified, l.opts.VerifiedURL)
	if err != nil {
		return nil, err
	}
	first := wb.FirstSheet()
	if first == nil {
		return nil, eris.Errorf("source: verified workbook %s has no sheets", l.opts.VerifiedURL)
	}
	return leaderboard.MergeCurated(first.Rows, l.opts.Curated), nil
}

// Verified returns the aggregated verified leaderboard.
func (l *Loader) Verified(ctx context.Context) ([]leaderboard.Record, error) {
	start := time.Now()
	rows, err := l.VerifiedRows(ctx)
	if err != nil {
		return nil, err
	}
	records := leaderboard.Aggregate(rows)
	l.opts.Metrics.Load(DatasetVerified, time.Since(start), len(records))
	zap.L().Debug("source: verified loaded",
		zap.Int("rows", len(rows)),
		zap.Int("records", len(records)),
	)
	return records, nil
}

// SelfReported returns the rows of every self-reported tab. A tab whose
// sheet is missing from the workbook gets an empty slice.
func (l *Loader) SelfReported(ctx context.Context) (map[leaderboard.Tab][]sheet.Row, error) {
	start := time.Now()
	wb, err := l.workbook(ctx, DatasetSelfReported, l.opts.SelfReportedURL)
	if err != nil {
		return nil, err
	}

	out := make(map[leaderboard.Tab][]sheet.Row, len(leaderboard.SelfReportedTabs))
	total := 0
	for _, tab := range leaderboard.SelfReportedTabs {
		rows := []sheet.Row{}
		if s := wb.SheetByName(leaderboard.SheetNameByTab[tab]); s != nil {
			rows = s.Rows
		} else {
			zap.L().Debug("source: self-reported sheet missing", zap.String("tab", string(tab)))
		}
		out[tab] = rows
		total += len(rows)
	}
	l.opts.Metrics.Load(DatasetSelfReported, time.Since(start), total)
	return out, nil
}

// Load fetches both datasets concurrently. If either fails the other is
// cancelled and the first error is returned.
func (l *Loader) Load(ctx context.Context) (*Dataset, error) {
	ds := &Dataset{}
	g, gCtx := errgroup.WithContext(ctx)

	g.Go(func() error {
		records, err := l.Verified(gCtx)
		if err != nil {
			return err
		}
		ds.Verified = records
		return nil
	})

	g.Go(func() error {
		tabs, err := l.SelfReported(gCtx)
		if err != nil {
			return err
		}
		ds.SelfReported = tabs
		return nil
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}
	ds.LoadedAt = l.now().UTC()
	return ds, nil
}

func (l *Loader) workbook(ctx context.Context, dataset, url string) (*fetcher.Workbook, error) {
	ctx, span := l.tracer.Start(ctx, "Loader.workbook",
		trace.WithAttributes(
			attribute.String("dataset", dataset),
			attribute.String("url", url),
		),
	)
	defer span.End()

	if url == "" {
		err := eris.Errorf("source: no url configured for %s", dataset)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	body, err := l.body(ctx, dataset, url)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "fetch failed")
		return nil, err
	}
	wb, err := fetcher.ParseWorkbook(body)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "parse failed")
		return nil, eris.Wrapf(err, "source: parse %s", url)
	}
	span.SetAttributes(
		attribute.Int("workbook.bytes", len(body)),
		attribute.Int("workbook.sheets", len(wb.Sheets)),
	)
	return wb, nil
}

// body returns the workbook bytes for url. A fresh cache entry is served
// without touching the network; an expired one is revalidated with its
// ETag. When the fetch fails any cached copy is served instead.
func (l *Loader) body(ctx context.Context, dataset, url string) ([]byte, error) {
	cache := l.opts.Cache
	if cache == nil {
		return l.download(ctx, dataset, url)
	}
	log := zap.L().With(zap.String("dataset", dataset), zap.String("url", url))

	entry, err := cache.GetWorkbook(ctx, url)
	if err != nil {
		log.Warn("source: cache read failed", zap.Error(err))
		entry = nil
	}
	if entry != nil && !entry.Expired(l.now()) {
		l.opts.Metrics.CacheLookup(dataset, metrics.CacheHit)
		return entry.Body, nil
	}

	etag := ""
	if entry != nil {
		etag = entry.ETag
	}
	rc, newTag, changed, err := l.fetcher.DownloadIfChanged(ctx, url, etag)
	if err != nil {
		l.opts.Metrics.Fetch(dataset, metrics.FetchError)
		if entry != nil && ctx.Err() == nil {
			log.Warn("source: fetch failed, serving stale cache",
				zap.Time("fetched_at", entry.FetchedAt),
				zap.Error(err),
			)
			l.opts.Metrics.CacheLookup(dataset, metrics.CacheStale)
			return entry.Body, nil
		}
		return nil, eris.Wrapf(err, "source: fetch %s", url)
	}
	l.opts.Metrics.CacheLookup(dataset, metrics.CacheMiss)

	if !changed {
		if entry == nil {
			return nil, eris.Errorf("source: %s not modified but nothing is cached", url)
		}
		l.opts.Metrics.Fetch(dataset, metrics.FetchNotModified)
		l.put(ctx, log, *entry)
		return entry.Body, nil
	}

	body, err := readAll(rc)
	if err != nil {
		l.opts.Metrics.Fetch(dataset, metrics.FetchError)
		return nil, eris.Wrapf(err, "source: read %s", url)
	}
	l.opts.Metrics.Fetch(dataset, metrics.FetchDownloaded)
	l.put(ctx, log, store.CachedWorkbook{URL: url, ETag: newTag, Body: body})
	return body, nil
}

func (l *Loader) download(ctx context.Context, dataset, url string) ([]byte, error) {
	rc, err := l.fetcher.Download(ctx, url)
	if err != nil {
		l.opts.Metrics.Fetch(dataset, metrics.FetchError)
		return nil, eris.Wrapf(err, "source: fetch %s", url)
	}
	body, err := readAll(rc)
	if err != nil {
		l.opts.Metrics.Fetch(dataset, metrics.FetchError)
		return nil, eris.Wrapf(err, "source: read %s", url)
	}
	l.opts.Metrics.Fetch(dataset, metrics.FetchDownloaded)
	return body, nil
}

// put stores wb; cache write failures are logged, never returned.
func (l *Loader) put(ctx context.Context, log *zap.Logger, wb store.CachedWorkbook) {
	if err := l.opts.Cache.PutWorkbook(ctx, wb, l.opts.CacheTTL); err != nil {
		log.Warn("source: cache write failed", zap.Error(err))
	}
}

func readAll(rc io.ReadCloser) ([]byte, error) {
	defer rc.Close() //nolint:errcheck
	return io.ReadAll(rc)
}

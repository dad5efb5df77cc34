package source

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	"github.com/sells-group/leaderboard-cli/internal/leaderboard"
	"github.com/sells-group/leaderboard-cli/internal/sheet"
)

// slot is one dataset held by a Snapshot.
type slot[T any] struct {
	value    T
	loadedAt time.Time
	ok       bool
}

// Snapshot serves the most recently loaded datasets for a long-running
// process. Each dataset is reloaded on demand once it is older than the
// refresh interval. A failed reload keeps serving the previous value; only
// a dataset that has never loaded reports the error.
type Snapshot struct {
	loader      *Loader
	refresh     time.Duration
	// loadTimeout bounds a shared reload, which outlives the caller that
	// started it.
	loadTimeout time.Duration
	now         func() time.Time
	group       singleflight.Group

	mu           sync.RWMutex
	verified     slot[[]leaderboard.Record]
	selfReported slot[map[leaderboard.Tab][]sheet.Row]
}

// NewSnapshot creates a Snapshot over loader.
func NewSnapshot(loader *Loader, refresh time.Duration) *Snapshot {
	return &Snapshot{loader: loader, refresh: refresh, loadTimeout: 2 * time.Minute, now: time.Now}
}

// Verified returns the aggregated verified records.
func (s *Snapshot) Verified(ctx context.Context) ([]leaderboard.Record, error) {
	return current(ctx, s, DatasetVerified, &s.verified, s.loader.Verified)
}

// SelfReported returns the self-reported rows by tab.
func (s *Snapshot) SelfReported(ctx context.Context) (map[leaderboard.Tab][]sheet.Row, error) {
	return current(ctx, s, DatasetSelfReported, &s.selfReported, s.loader.SelfReported)
}

// Dataset returns both datasets, loading them concurrently when needed.
func (s *Snapshot) Dataset(ctx context.Context) (*Dataset, error) {
	ds := &Dataset{}
	g, gCtx := errgroup.WithContext(ctx)
	g.Go(func() error {
		v, err := s.Verified(gCtx)
		ds.Verified = v
		return err
	})
	g.Go(func() error {
		v, err := s.SelfReported(gCtx)
		ds.SelfReported = v
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	ds.LoadedAt = s.verified.loadedAt
	if s.selfReported.loadedAt.Before(ds.LoadedAt) {
		ds.LoadedAt = s.selfReported.loadedAt
	}
	s.mu.RUnlock()
	return ds, nil
}

// Invalidate forces the next read of every dataset to reload.
func (s *Snapshot) Invalidate() {
	s.mu.Lock()
	s.verified.loadedAt = time.Time{}
	s.selfReported.loadedAt = time.Time{}
	s.mu.Unlock()
}

func current[T any](ctx context.Context, s *Snapshot, name string, sl *slot[T], load func(context.Context) (T, error)) (T, error) {
	now := s.now()

	s.mu.RLock()
	cached, ok, fresh := sl.value, sl.ok, sl.ok && now.Sub(sl.loadedAt) < s.refresh
	s.mu.RUnlock()
	if fresh {
		return cached, nil
	}

	// Concurrent readers of a stale dataset share one reload. It runs
	// detached from ctx so one disconnecting caller does not fail the rest.
	res, err, _ := s.group.Do(name, func() (any, error) {
		loadCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.loadTimeout)
		defer cancel()
		v, loadErr := load(loadCtx)
		if loadErr != nil {
			return nil, loadErr
		}
		s.mu.Lock()
		sl.value, sl.loadedAt, sl.ok = v, s.now().UTC(), true
		s.mu.Unlock()
		return v, nil
	})
	if err != nil {
		if ok {
			zap.L().Warn("source: reload failed, keeping previous dataset",
				zap.String("dataset", name),
				zap.Error(err),
			)
			return cached, nil
		}
		var zero T
		return zero, err
	}
	return res.(T), nil
}

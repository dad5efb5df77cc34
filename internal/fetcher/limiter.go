package fetcher

import (
	"context"
	"math"
	"sync"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// pacer is a per-host limiter whose rate follows the server's responses.
// Each success raises the rate by a fifth, capped at twice the starting
// rate. Each 429 halves it, floored at a quarter of the starting rate.
type pacer struct {
	mu    sync.Mutex
	lim   *rate.Limiter
	floor rate.Limit
	ceil  rate.Limit
	cur   rate.Limit
}

func newPacer(start rate.Limit, burst int) *pacer {
	return &pacer{
		lim:   rate.NewLimiter(start, burst),
		floor: start / 4,
		ceil:  start * 2,
		cur:   start,
	}
}

// Wait blocks until the pacer admits one request.
func (p *pacer) Wait(ctx context.Context) error {
	return p.lim.Wait(ctx)
}

// Rate reports the current requests per second.
func (p *pacer) Rate() rate.Limit {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.cur
}

func (p *pacer) speedUp() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.set(min(p.cur*1.2, p.ceil))
}

func (p *pacer) slowDown(host string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.set(max(p.cur/2, p.floor))
	zap.L().Warn("http: throttled, lowering request rate",
		zap.String("host", host),
		zap.Float64("rate", float64(p.cur)),
	)
}

// set requires p.mu.
func (p *pacer) set(r rate.Limit) {
	p.cur = r
	p.lim.SetLimit(r)
}

// hostLimits hands out limiters by host. A fixed limiter registered for a
// host wins; every other host gets its own pacer on first use.
type hostLimits struct {
	rps float64

	mu    sync.Mutex
	fixed map[string]*rate.Limiter
	paced map[string]*pacer
}

func newHostLimits(rps float64, fixed map[string]*rate.Limiter) *hostLimits {
	h := &hostLimits{
		rps:   rps,
		fixed: make(map[string]*rate.Limiter, len(fixed)),
		paced: make(map[string]*pacer),
	}
	for host, lim := range fixed {
		h.fixed[host] = lim
	}
	return h
}

// wait blocks on host's limiter. The returned pacer is nil when the host
// has a fixed limiter, since fixed rates do not adapt.
func (h *hostLimits) wait(ctx context.Context, host string) (*pacer, error) {
	h.mu.Lock()
	fixed := h.fixed[host]
	var p *pacer
	if fixed == nil {
		p = h.paced[host]
		if p == nil {
			p = newPacer(rate.Limit(h.rps), max(1, int(math.Ceil(h.rps))))
			h.paced[host] = p
		}
	}
	h.mu.Unlock()

	var err error
	if fixed != nil {
		err = fixed.Wait(ctx)
	} else {
		err = p.Wait(ctx)
	}
	if err != nil {
		return nil, eris.Wrapf(err, "rate limit %s", host)
	}
	return p, nil
}

package search

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/leakwatch/leakwatch/internal/metrics"
	"golang.org/x/time/rate"
)

// Guard gates search calls to one provider credential. Concurrent rule
// workers share a Guard so that the pacing and the last observed quota apply
// to all of them.
type Guard struct {
	Client

	limiter *rate.Limiter
	maxWait time.Duration
	metrics *metrics.Metrics
	now     func() time.Time

	mu    sync.Mutex
	quota Quota
}

// NewGuard paces c to perMinute search calls (unlimited when <= 0). When the
// quota is exhausted, calls wait for the reset if it is at most maxWait away
// and are refused with ErrQuotaExceeded otherwise.
func NewGuard(c Client, perMinute int, maxWait time.Duration, m *metrics.Metrics) *Guard {
	limit := rate.Inf
	if perMinute > 0 {
		limit = rate.Every(time.Minute / time.Duration(perMinute))
	}
	return &Guard{
		Client:  c,
		limiter: rate.NewLimiter(limit, 1),
		maxWait: maxWait,
		metrics: m,
		now:     time.Now,
	}
}

// Quota returns the last observed quota.
func (g *Guard) Quota() Quota {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.quota
}

// Exhausted reports whether the last observed quota is used up and not yet
// reset.
func (g *Guard) Exhausted() bool {
	q := g.Quota()
	return q.Known() && q.Remaining <= 0 && q.Reset.After(g.now())
}

func (g *Guard) SearchCode(ctx context.Context, query string, opts Options) (*Page, error) {
	if err := g.admit(ctx); err != nil {
		return nil, err
	}
	if err := g.limiter.Wait(ctx); err != nil {
		// Wait fails early, with ctx still live, when the next slot lies past
		// the deadline.
		if _, ok := ctx.Deadline(); ok && !errors.Is(ctx.Err(), context.Canceled) {
			return nil, fmt.Errorf("search gate: %w: %w", ErrTimeout, err)
		}
		return nil, fmt.Errorf("search gate: %w", err)
	}

	page, err := g.Client.SearchCode(ctx, query, opts)
	if page != nil {
		g.observe(page.Quota)
	}
	if err != nil {
		var pe *ProviderError
		if errors.As(err, &pe) && pe.Quota.Known() {
			g.observe(pe.Quota)
		}
		if errors.Is(err, ErrQuotaExceeded) {
			g.mu.Lock()
			g.quota.Remaining = 0
			g.mu.Unlock()
		}
	}
	return page, err
}

func (g *Guard) RateLimit(ctx context.Context) (Quota, error) {
	q, err := g.Client.RateLimit(ctx)
	if err != nil {
		return q, err
	}
	g.observe(q)
	return q, nil
}

func (g *Guard) observe(q Quota) {
	if !q.Known() {
		return
	}
	g.mu.Lock()
	g.quota = q
	g.mu.Unlock()
	g.metrics.Quota(q.Remaining)
}

func (g *Guard) admit(ctx context.Context) error {
	q := g.Quota()
	if !q.Known() || q.Remaining > 0 {
		return nil
	}
	wait := q.Reset.Sub(g.now())
	if wait <= 0 {
		return nil
	}
	if wait > g.maxWait {
		return fmt.Errorf("%w: resets at %s", ErrQuotaExceeded, q.Reset.Format(time.RFC3339))
	}
	t := time.NewTimer(wait)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return fmt.Errorf("waiting for quota reset: %w", ctx.Err())
	case <-t.C:
		return nil
	}
}

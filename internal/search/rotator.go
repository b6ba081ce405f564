package search

import (
	"context"
	"errors"
	"sync"

	"github.com/leakwatch/leakwatch/internal/types"
)

// Rotator spreads calls over several clients, one per credential, in
// round-robin order. Clients that report an exhausted quota are skipped while
// another one is available.
type Rotator struct {
	clients []Client

	mu   sync.Mutex
	next int
}

func NewRotator(clients ...Client) *Rotator {
	return &Rotator{clients: clients}
}

// Len returns the number of clients.
func (r *Rotator) Len() int { return len(r.clients) }

type exhauster interface {
	Exhausted() bool
}

func (r *Rotator) pick() (Client, error) {
	if len(r.clients) == 0 {
		return nil, errors.New("search: no clients configured")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := 0; i < len(r.clients); i++ {
		c := r.clients[(r.next+i)%len(r.clients)]
		if ex, ok := c.(exhauster); ok && ex.Exhausted() {
			continue
		}
		r.next = (r.next + i + 1) % len(r.clients)
		return c, nil
	}
	// all exhausted; let the next one decide whether to wait or refuse
	c := r.clients[r.next]
	r.next = (r.next + 1) % len(r.clients)
	return c, nil
}

func (r *Rotator) SearchCode(ctx context.Context, query string, opts Options) (*Page, error) {
	c, err := r.pick()
	if err != nil {
		return nil, err
	}
	return c.SearchCode(ctx, query, opts)
}

func (r *Rotator) Content(ctx context.Context, hit types.Hit) ([]byte, error) {
	c, err := r.pick()
	if err != nil {
		return nil, err
	}
	return c.Content(ctx, hit)
}

// RateLimit sums the quota of every client that answers. The reset is the
// earliest one reported.
func (r *Rotator) RateLimit(ctx context.Context) (Quota, error) {
	if len(r.clients) == 0 {
		return Quota{}, errors.New("search: no clients configured")
	}
	var (
		total Quota
		errs  []error
		ok    bool
	)
	for _, c := range r.clients {
		q, err := c.RateLimit(ctx)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		ok = true
		total.Limit += q.Limit
		total.Remaining += q.Remaining
		if total.Reset.IsZero() || (!q.Reset.IsZero() && q.Reset.Before(total.Reset)) {
			total.Reset = q.Reset
		}
	}
	if !ok {
		return Quota{}, errors.Join(errs...)
	}
	return total, nil
}

package engine

import (
	"context"
	"fmt"
	"time"

	"github.com/leakwatch/leakwatch/internal/types"
	"golang.org/x/sync/errgroup"
)

// ScanAll runs rules on up to Config.Workers goroutines. Summaries come back in
// rule order. A failing rule never stops the others; cancelling ctx stops
// scheduling further rules, and those report ctx's error.
func (e *Engine) ScanAll(ctx context.Context, rules []types.Rule) []types.Summary {
	out := make([]types.Summary, len(rules))
	g := new(errgroup.Group)
	g.SetLimit(e.cfg.Workers)
	for i, rule := range rules {
		if err := ctx.Err(); err != nil {
			out[i] = types.Summary{Rule: rule, Query: BuildQuery(rule), Err: err}
			continue
		}
		i, rule := i, rule
		g.Go(func() error {
			out[i] = e.Scan(ctx, rule)
			return nil
		})
	}
	_ = g.Wait()
	return out
}

// Verify checks that the client's credentials are accepted and reports the
// search quota.
func (e *Engine) Verify(ctx context.Context) (bool, string) {
	q, err := e.Client.RateLimit(ctx)
	if err != nil {
		return false, fmt.Sprintf("TOKEN-FAILED: %v", err)
	}
	return true, fmt.Sprintf("TOKEN-PASSED: %d/%d reset %s", q.Remaining, q.Limit, q.Reset.Format(time.RFC3339))
}

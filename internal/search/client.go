// Package search is the boundary to the code-search provider: the client
// contract the engine drives, the error taxonomy it relies on, a GitHub
// implementation, and the quota guard shared by concurrent rule workers.
package search

import (
	"context"
	"errors"
	"fmt"
	"net"
	"time"

	"github.com/leakwatch/leakwatch/internal/types"
)

var (
	// ErrQuotaExceeded means the provider refused the call for rate or quota
	// reasons, or the guard refused it before reaching the provider.
	ErrQuotaExceeded = errors.New("search quota exceeded")
	// ErrTimeout means the call did not complete in time.
	ErrTimeout = errors.New("search request timed out")
)

// Quota is the provider's view of the remaining search budget.
type Quota struct {
	Limit     int
	Remaining int
	Reset     time.Time
}

// Known reports whether the quota was ever observed.
func (q Quota) Known() bool { return q.Limit > 0 || !q.Reset.IsZero() }

// Page is one page of search results.
type Page struct {
	Total int
	Hits  []types.Hit
	Quota Quota
}

// Options selects the page to fetch. Page is zero-based.
type Options struct {
	Page    int
	PerPage int
}

// Client is what the engine needs from a code-search provider. Results are
// sorted by index recency, newest first.
type Client interface {
	SearchCode(ctx context.Context, query string, opts Options) (*Page, error)
	// Content returns the raw bytes of a hit's file.
	Content(ctx context.Context, hit types.Hit) ([]byte, error)
	RateLimit(ctx context.Context) (Quota, error)
}

// ProviderError carries the diagnostic detail of a rejected call.
type ProviderError struct {
	Op         string
	Status     int
	Message    string
	Credential string
	// Quota is the provider's budget as reported with the rejection, if any.
	Quota Quota
	Err   error
}

func (e *ProviderError) Error() string {
	msg := fmt.Sprintf("%s: provider error (code: %d msg: %s", e.Op, e.Status, e.Message)
	if e.Credential != "" {
		msg += " credential: " + e.Credential
	}
	msg += ")"
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *ProviderError) Unwrap() error { return e.Err }

// IsTimeout reports whether err is a timeout of any flavour.
func IsTimeout(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, ErrTimeout) || errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var ne net.Error
	return errors.As(err, &ne) && ne.Timeout()
}

// MaskCredential keeps the first four characters of a token.
func MaskCredential(token string) string {
	if token == "" {
		return ""
	}
	if len(token) <= 4 {
		return "****"
	}
	return token[:4] + "…"
}

package config

import (
	"fmt"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/leakwatch/leakwatch/internal/filter"
)

type ValidationError struct {
	Problems []string
}

func (v *ValidationError) Add(format string, args ...any) {
	v.Problems = append(v.Problems, fmt.Sprintf(format, args...))
}

func (v *ValidationError) Error() string {
	if len(v.Problems) == 1 {
		return v.Problems[0]
	}
	return fmt.Sprintf("%d validation error(s): %s", len(v.Problems), strings.Join(v.Problems, "; "))
}

// Validate checks numeric ranges, durations, globs and that every regex bank
// compiles.
func (fc FileConfig) Validate() error {
	v := &ValidationError{}

	for _, f := range []struct {
		name string
		val  *int
	}{
		{"page_size", fc.PageSize},
		{"max_pages", fc.MaxPages},
		{"workers", fc.Workers},
		{"probe_workers", fc.ProbeWorkers},
		{"search_rate_per_minute", fc.SearchRatePerMinute},
	} {
		if f.val != nil && *f.val <= 0 {
			v.Add("%s must be positive, got %d", f.name, *f.val)
		}
	}
	if fc.PageSize != nil && *fc.PageSize > 100 {
		v.Add("page_size must be at most 100, got %d", *fc.PageSize)
	}

	for _, f := range []struct {
		name string
		val  *string
	}{
		{"quota_wait", fc.QuotaWait},
		{"page_timeout", fc.PageTimeout},
		{"probe_timeout", fc.ProbeTimeout},
	} {
		if f.val == nil {
			continue
		}
		if _, err := ParseDuration(*f.val, 0); err != nil {
			v.Add("%s: %v", f.name, err)
		}
	}

	if fc.HashStore != nil && fc.HashStore.Driver != nil {
		switch *fc.HashStore.Driver {
		case "", "file", "sqlite":
		default:
			v.Add("hash_store.driver must be file or sqlite, got %q", *fc.HashStore.Driver)
		}
	}

	for _, g := range fc.RepositoryGlobs() {
		if !doublestar.ValidatePattern(strings.ToLower(g)) {
			v.Add("exclude_repository_globs: invalid pattern %q", g)
		}
	}
	if _, err := filter.CompileAll(fc.RepositoryRules()); err != nil {
		v.Add("exclude_repository_rules: %v", err)
	}
	if _, err := filter.CompileAll(fc.CodesRules()); err != nil {
		v.Add("exclude_codes_rules: %v", err)
	}

	if len(v.Problems) > 0 {
		return v
	}
	return nil
}

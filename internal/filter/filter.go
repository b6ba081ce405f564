// Package filter holds the exclusion layers of the pipeline: structural
// repository-path exclusion and the false-positive bank applied to match
// fragments.
package filter

import (
	"fmt"
	"regexp"
	"strings"

	doublestar "github.com/bmatcuk/doublestar/v4"
)

// CompileAll compiles every pattern, reporting all invalid ones at once.
func CompileAll(patterns []string) ([]*regexp.Regexp, error) {
	var (
		out []*regexp.Regexp
		bad []string
	)
	for _, p := range patterns {
		rx, err := regexp.Compile(p)
		if err != nil {
			bad = append(bad, fmt.Sprintf("%q: %v", p, err))
			continue
		}
		out = append(out, rx)
	}
	if len(bad) > 0 {
		return nil, fmt.Errorf("invalid patterns: %s", strings.Join(bad, "; "))
	}
	return out, nil
}

// Repository excludes hits by "<owner>/<repo>/<path>", lower-cased.
type Repository struct {
	rules []*regexp.Regexp
	globs []string
}

// NewRepository builds a repository filter from regex rules and doublestar
// globs.
func NewRepository(rules []*regexp.Regexp, globs []string) *Repository {
	var gs []string
	for _, g := range globs {
		g = strings.ToLower(strings.TrimSpace(g))
		if g != "" && doublestar.ValidatePattern(g) {
			gs = append(gs, g)
		}
	}
	return &Repository{rules: rules, globs: gs}
}

// Excluded reports whether the file at path in repository fullName must be
// skipped.
func (r *Repository) Excluded(fullName, path string) bool {
	if r == nil {
		return false
	}
	full := strings.ToLower(strings.TrimSpace(fullName)) + "/" + strings.ToLower(path)
	for _, rx := range r.rules {
		if rx.MatchString(full) {
			return true
		}
	}
	for _, g := range r.globs {
		if ok, _ := doublestar.Match(g, full); ok {
			return true
		}
	}
	return false
}

// Codes is the false-positive bank.
type Codes struct {
	rules []*regexp.Regexp
}

func NewCodes(rules []*regexp.Regexp) *Codes {
	return &Codes{rules: rules}
}

// IsFalsePositive joins the fragments with newlines and reports whether any
// rule of the bank matches. The decision covers the whole hit.
func (c *Codes) IsFalsePositive(fragments []string) bool {
	if c == nil || len(c.rules) == 0 {
		return false
	}
	joined := strings.Join(fragments, "\n")
	for _, rx := range c.rules {
		if rx.MatchString(joined) {
			return true
		}
	}
	return false
}

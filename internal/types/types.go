package types

import (
	"strings"

	xxhash "github.com/cespare/xxhash/v2"
)

// Mode selects how a rule extracts evidence from a hit.
type Mode string

const (
	ModeMail        Mode = "mail"
	ModeOnlyMatch   Mode = "only-match"
	ModeNormalMatch Mode = "normal-match"
	ModeDefault     Mode = "default"
)

// ParseMode maps a rule-file mode tag to a Mode. Unknown tags fall back to
// ModeDefault.
func ParseMode(s string) Mode {
	switch Mode(strings.ToLower(strings.TrimSpace(s))) {
	case ModeMail:
		return ModeMail
	case ModeOnlyMatch:
		return ModeOnlyMatch
	case ModeNormalMatch:
		return ModeNormalMatch
	default:
		return ModeDefault
	}
}

// Rule is an operator-defined search: a keyword, an optional comma-separated
// extension filter and a matching mode. Group and Corp are labels carried into
// reports.
type Rule struct {
	Keyword   string `json:"keyword" yaml:"keyword"`
	Extension string `json:"extension,omitempty" yaml:"extension"`
	Mode      Mode   `json:"mode" yaml:"mode"`
	Group     string `json:"group,omitempty" yaml:"-"`
	Corp      string `json:"corp,omitempty" yaml:"-"`
}

// Fingerprint returns a stable 16-hex-digit identity for the rule.
func (r Rule) Fingerprint() string {
	return FastHash([]byte(r.Keyword + "|" + r.Extension + "|" + string(r.Mode)))
}

// Hit is one search result item.
type Hit struct {
	URL                string
	SHA                string
	Path               string
	RepositoryFullName string
	RepositoryURL      string
	// Content holds the raw file bytes when the transport returned them with
	// the search page. Nil means the client fetches them on demand.
	Content []byte
}

// ScanResult is the evidence recorded for one hit that produced fragments.
type ScanResult struct {
	URL            string   `json:"url"`
	MatchFragments []string `json:"match_codes"`
	Hash           string   `json:"hash"`
	Code           string   `json:"code"`
	Repository     string   `json:"repository"`
	Path           string   `json:"path"`
}

// Batch is what a single fetched page yields. Keys are position indexes
// (page*pageSize + in-page index).
type Batch struct {
	Page      int                `json:"page"`
	Confirmed map[int]ScanResult `json:"confirmed"`
	ToReview  map[int]ScanResult `json:"to_review,omitempty"`
}

// NewBatch returns a batch with initialized maps.
func NewBatch(page int) Batch {
	return Batch{
		Page:      page,
		Confirmed: map[int]ScanResult{},
		ToReview:  map[int]ScanResult{},
	}
}

// Empty reports whether the batch carries no results at all.
func (b Batch) Empty() bool {
	return len(b.Confirmed) == 0 && len(b.ToReview) == 0
}

// HashSet is the set of content identities already processed.
type HashSet map[string]struct{}

// NewHashSet builds a set from the given shas, ignoring empty ones.
func NewHashSet(shas ...string) HashSet {
	s := make(HashSet, len(shas))
	for _, h := range shas {
		s.Add(h)
	}
	return s
}

// Has reports whether sha is a known identity. The empty identity is never
// known.
func (s HashSet) Has(sha string) bool {
	if sha == "" || s == nil {
		return false
	}
	_, ok := s[sha]
	return ok
}

func (s HashSet) Add(sha string) {
	if sha == "" {
		return
	}
	s[sha] = struct{}{}
}

func (s HashSet) Len() int { return len(s) }

// Summary describes the outcome of one rule invocation.
type Summary struct {
	Rule         Rule
	Query        string
	Total        int
	Pages        int
	PagesSkipped int
	Processed    int
	Next         int
	Confirmed    int
	ToReview     int
	Aborted      bool
	Err          error
}

// OK reports whether the rule ran to completion (early abort included).
func (s Summary) OK() bool { return s.Err == nil }

// FastHash returns the xxhash64 of b as 16 lowercase hex digits.
func FastHash(b []byte) string {
	if len(b) == 0 {
		return "0000000000000000"
	}
	sum := xxhash.Sum64(b)
	var buf [16]byte
	const hex = "0123456789abcdef"
	for i := 15; i >= 0; i-- {
		buf[i] = hex[sum&0xF]
		sum >>= 4
	}
	return string(buf[:])
}

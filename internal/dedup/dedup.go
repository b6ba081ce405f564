// Package dedup tracks which hits a rule has already seen and decides when
// a rule has stopped yielding new content.
package dedup

import "github.com/leakwatch/leakwatch/internal/types"

// AbortThreshold is the number of skipped hits, with no new result yet, past
// which a rule is abandoned.
const AbortThreshold = 3

// Tracker holds the per-rule-invocation counters. It is owned by a single
// rule invocation and is not safe for concurrent use.
type Tracker struct {
	known types.HashSet
	// Processed counts hits skipped because they were already seen.
	Processed int
	// Next counts hits that produced a result.
	Next int
}

// NewTracker starts a rule invocation against the supplied hash set. The set
// is only read.
func NewTracker(known types.HashSet) *Tracker {
	if known == nil {
		known = types.HashSet{}
	}
	return &Tracker{known: known}
}

// Seen reports whether sha was processed before, counting the skip when it
// was. An empty sha is never seen.
func (t *Tracker) Seen(sha string) bool {
	if !t.known.Has(sha) {
		return false
	}
	t.Processed++
	return true
}

// Produced records that a hit yielded a result.
func (t *Tracker) Produced() { t.Next++ }

// ShouldAbort reports whether the rule has only met known content so far.
func (t *Tracker) ShouldAbort() bool {
	return t.Next == 0 && t.Processed > AbortThreshold
}

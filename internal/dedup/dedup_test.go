package dedup

import (
	"testing"

	"github.com/leakwatch/leakwatch/internal/types"
	"github.com/stretchr/testify/assert"
)

func TestTracker_SeenCountsOnlyKnown(t *testing.T) {
	tr := NewTracker(types.NewHashSet("a", "b"))
	assert.True(t, tr.Seen("a"))
	assert.False(t, tr.Seen("c"))
	assert.False(t, tr.Seen(""))
	assert.Equal(t, 1, tr.Processed)
}

func TestTracker_EmptyShaNeverKnown(t *testing.T) {
	set := types.NewHashSet("")
	assert.Equal(t, 0, set.Len())
	tr := NewTracker(set)
	assert.False(t, tr.Seen(""))
}

func TestTracker_ShouldAbort(t *testing.T) {
	tr := NewTracker(types.NewHashSet("1", "2", "3", "4"))
	for _, sha := range []string{"1", "2", "3"} {
		tr.Seen(sha)
		assert.False(t, tr.ShouldAbort(), "after %s", sha)
	}
	tr.Seen("4")
	assert.True(t, tr.ShouldAbort())

	tr.Produced()
	assert.False(t, tr.ShouldAbort())
}

func TestTracker_NilSet(t *testing.T) {
	tr := NewTracker(nil)
	assert.False(t, tr.Seen("x"))
	assert.False(t, tr.ShouldAbort())
}

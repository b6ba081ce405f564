package audit

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/leakwatch/leakwatch/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLogAndLoadHistory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state", "audit.jsonl")
	log := NewAuditLog(path)

	first := CreateScanRecord([]types.Summary{
		{Rule: types.Rule{Keyword: "password", Mode: types.ModeOnlyMatch}, Query: "password ", Total: 10, Pages: 1, Confirmed: 2},
	}, time.Second)
	first.ScanID = "first"
	require.NoError(t, log.LogScan(first))

	second := CreateScanRecord([]types.Summary{
		{Rule: types.Rule{Keyword: "token"}, Err: errors.New("search quota exceeded")},
		{Rule: types.Rule{Keyword: "smtp"}, Aborted: true, Processed: 4, ToReview: 1},
	}, 2*time.Second)
	require.NoError(t, log.LogScan(second))

	st, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), st.Mode().Perm())

	records, err := log.LoadHistory()
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.NotEmpty(t, records[0].ScanID)
	assert.Equal(t, 1, records[0].Failed)
	assert.Equal(t, 1, records[0].ToReview)
	assert.Equal(t, "search quota exceeded", records[0].Rules[0].Error)
	assert.True(t, records[0].Rules[1].Aborted)
	assert.Equal(t, "first", records[1].ScanID)
	assert.Equal(t, 2, records[1].Confirmed)
	assert.Equal(t, types.Rule{Keyword: "password", Mode: types.ModeOnlyMatch}.Fingerprint(), records[1].Rules[0].Fingerprint)
}

func TestLoadHistoryMissing(t *testing.T) {
	_, err := NewAuditLog(filepath.Join(t.TempDir(), "none.jsonl")).LoadHistory()
	require.Error(t, err)
}

func TestDefaultPath(t *testing.T) {
	t.Setenv("XDG_STATE_HOME", "/state")
	assert.Equal(t, filepath.Join("/state", "leakwatch", "audit.jsonl"), DefaultPath())
}

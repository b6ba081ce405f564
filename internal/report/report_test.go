package report

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/leakwatch/leakwatch/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memRecorder struct {
	mu   sync.Mutex
	shas []string
}

func (m *memRecorder) Add(_ context.Context, shas ...string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.shas = append(m.shas, shas...)
	return nil
}

func sampleBatch() types.Batch {
	b := types.NewBatch(1)
	b.Confirmed[50] = types.ScanResult{
		URL: "https://github.com/acme/api/blob/main/app.yml", MatchFragments: []string{"db_password=hunter2secret"},
		Hash: "aaa", Code: "db_password=hunter2secret", Repository: "acme/api", Path: "app.yml",
	}
	b.ToReview[51] = types.ScanResult{
		URL: "https://github.com/acme/web/blob/main/example.env", MatchFragments: []string{"password=example"},
		Hash: "bbb", Repository: "acme/web", Path: "example.env",
	}
	return b
}

var rule = types.Rule{Keyword: "password", Mode: types.ModeOnlyMatch, Corp: "acme"}

func TestWriter_WritesPageFile(t *testing.T) {
	dir := t.TempDir()
	rec := &memRecorder{}
	w := &Writer{Dir: dir, Recorder: rec}

	require.NoError(t, w.Report(context.Background(), rule, sampleBatch()))

	p := filepath.Join(dir, "acme", rule.Fingerprint()+"-p1.json")
	assert.Equal(t, p, w.Path(rule, 1))
	b, err := os.ReadFile(p)
	require.NoError(t, err)
	var doc File
	require.NoError(t, json.Unmarshal(b, &doc))
	assert.Equal(t, 1, doc.Page)
	assert.Equal(t, "password", doc.Rule.Keyword)
	require.Contains(t, doc.Confirmed, 50)
	assert.Equal(t, []string{"db_password=hunter2secret"}, doc.Confirmed[50].MatchFragments)
	assert.Empty(t, doc.ToReview, "to-review results are dropped unless enabled")
	assert.Contains(t, string(b), `"match_codes"`)

	assert.Equal(t, []string{"aaa"}, rec.shas)
}

func TestWriter_ToReviewEnabled(t *testing.T) {
	rec := &memRecorder{}
	w := &Writer{Dir: t.TempDir(), Recorder: rec, ToReview: true}

	require.NoError(t, w.Report(context.Background(), rule, sampleBatch()))
	sort.Strings(rec.shas)
	assert.Equal(t, []string{"aaa", "bbb"}, rec.shas)
}

func TestWriter_SkipsEmptyBatch(t *testing.T) {
	dir := t.TempDir()
	rec := &memRecorder{}
	w := &Writer{Dir: dir, Recorder: rec}

	b := types.NewBatch(0)
	b.ToReview[0] = types.ScanResult{Hash: "x"}
	require.NoError(t, w.Report(context.Background(), rule, b))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries)
	assert.Empty(t, rec.shas)
}

func TestWriter_UnsafeCorpName(t *testing.T) {
	w := &Writer{Dir: "/out"}
	r := rule
	r.Corp = "../evil corp"
	assert.Equal(t, filepath.Join("/out", ".._evil_corp", r.Fingerprint()+"-p0.json"), w.Path(r, 0))
	r.Corp = ".."
	assert.Equal(t, filepath.Join("/out", "default", r.Fingerprint()+"-p0.json"), w.Path(r, 0))
}

func TestPrintBatch(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, PrintBatch(&buf, rule, sampleBatch(), PrintOptions{NoColor: true, Redact: true}))
	out := buf.String()
	assert.Contains(t, out, "page 1: 1 confirmed, 1 to review")
	assert.Contains(t, out, "acme/api")
	assert.Contains(t, out, "db_p…cret")
	assert.NotContains(t, out, "hunter2")
}

func TestPrintSummary(t *testing.T) {
	var buf bytes.Buffer
	sums := []types.Summary{
		{Rule: rule, Total: 120, Pages: 4, Processed: 2, Confirmed: 3, ToReview: 1},
		{Rule: types.Rule{Keyword: "token", Mode: types.ModeDefault}, Err: assert.AnError},
	}
	require.NoError(t, PrintSummary(&buf, sums, PrintOptions{NoColor: true, Duration: 1500 * time.Millisecond}))
	out := buf.String()
	assert.Contains(t, out, "Results: 4 (confirmed: 3, to review: 1)")
	assert.Contains(t, out, "Rules: 2 (failed: 1)")
	assert.Contains(t, out, "failed")
	assert.True(t, strings.Contains(out, "Scan duration: 1.50s"))
}

func TestPrintSummary_NothingFound(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, PrintSummary(&buf, nil, PrintOptions{NoColor: true}))
	assert.Contains(t, buf.String(), "No new leaks found")
}

// Package audit appends one record per scan to a JSONL log so past runs can
// be reviewed with the history command.
package audit

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/leakwatch/leakwatch/internal/types"
)

type ScanRecord struct {
	Timestamp time.Time    `json:"timestamp"`
	ScanID    string       `json:"scan_id"`
	Duration  string       `json:"duration"`
	Confirmed int          `json:"confirmed"`
	ToReview  int          `json:"to_review"`
	Failed    int          `json:"failed"`
	Rules     []RuleRecord `json:"rules"`
}

// RuleRecord is the outcome of one rule. Errors are kept as text; they may
// carry a masked credential but never a token.
type RuleRecord struct {
	Fingerprint  string `json:"fingerprint"`
	Keyword      string `json:"keyword"`
	Mode         string `json:"mode"`
	Corp         string `json:"corp,omitempty"`
	Query        string `json:"query"`
	Total        int    `json:"total"`
	Pages        int    `json:"pages"`
	PagesSkipped int    `json:"pages_skipped,omitempty"`
	Processed    int    `json:"processed"`
	Confirmed    int    `json:"confirmed"`
	ToReview     int    `json:"to_review"`
	Aborted      bool   `json:"aborted,omitempty"`
	Error        string `json:"error,omitempty"`
}

type AuditLog struct {
	logPath string
}

// NewAuditLog logs to path; an empty path means leakwatch_audit.jsonl under
// the user's state directory.
func NewAuditLog(path string) *AuditLog {
	if path == "" {
		path = DefaultPath()
	}
	return &AuditLog{logPath: path}
}

// DefaultPath is $XDG_STATE_HOME/leakwatch/audit.jsonl, falling back to
// ~/.local/state.
func DefaultPath() string {
	dir := os.Getenv("XDG_STATE_HOME")
	if dir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "leakwatch_audit.jsonl"
		}
		dir = filepath.Join(home, ".local", "state")
	}
	return filepath.Join(dir, "leakwatch", "audit.jsonl")
}

func (a *AuditLog) Path() string { return a.logPath }

// LoadHistory returns the records, newest first.
func (a *AuditLog) LoadHistory() ([]ScanRecord, error) {
	f, err := os.Open(a.logPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open audit log: %w", err)
	}
	defer f.Close()

	var records []ScanRecord
	decoder := json.NewDecoder(f)
	for decoder.More() {
		var record ScanRecord
		if err := decoder.Decode(&record); err != nil {
			break
		}
		records = append(records, record)
	}

	for i, j := 0, len(records)-1; i < j; i, j = i+1, j-1 {
		records[i], records[j] = records[j], records[i]
	}
	return records, nil
}

func (a *AuditLog) LogScan(record ScanRecord) error {
	if record.ScanID == "" {
		record.ScanID = fmt.Sprintf("scan_%d", time.Now().Unix())
	}
	if err := os.MkdirAll(filepath.Dir(a.logPath), 0o700); err != nil {
		return fmt.Errorf("failed to create audit dir: %w", err)
	}

	// owner-only: records name the rules and repositories that leaked
	f, err := os.OpenFile(a.logPath, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0600)
	if err != nil {
		return fmt.Errorf("failed to open audit log: %w", err)
	}
	defer f.Close()

	if err := json.NewEncoder(f).Encode(record); err != nil {
		return fmt.Errorf("failed to write audit record: %w", err)
	}
	return nil
}

// CreateScanRecord summarises a run.
func CreateScanRecord(sums []types.Summary, duration time.Duration) ScanRecord {
	rec := ScanRecord{
		Timestamp: time.Now(),
		Duration:  duration.String(),
		Rules:     make([]RuleRecord, 0, len(sums)),
	}
	for _, s := range sums {
		rr := RuleRecord{
			Fingerprint:  s.Rule.Fingerprint(),
			Keyword:      s.Rule.Keyword,
			Mode:         string(s.Rule.Mode),
			Corp:         s.Rule.Corp,
			Query:        s.Query,
			Total:        s.Total,
			Pages:        s.Pages,
			PagesSkipped: s.PagesSkipped,
			Processed:    s.Processed,
			Confirmed:    s.Confirmed,
			ToReview:     s.ToReview,
			Aborted:      s.Aborted,
		}
		if s.Err != nil {
			rr.Error = s.Err.Error()
			rec.Failed++
		}
		rec.Confirmed += s.Confirmed
		rec.ToReview += s.ToReview
		rec.Rules = append(rec.Rules, rr)
	}
	return rec
}

// Package report persists and displays the batches produced by the engine.
package report

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"sync"
	"time"

	"github.com/leakwatch/leakwatch/internal/types"
	"github.com/sirupsen/logrus"
)

// Recorder stores the shas of reported hits so they are skipped next time.
type Recorder interface {
	Add(ctx context.Context, shas ...string) error
}

// File is the JSON document written for each reported page.
type File struct {
	Rule        types.Rule               `json:"rule"`
	Page        int                      `json:"page"`
	GeneratedAt time.Time                `json:"generated_at"`
	Confirmed   map[int]types.ScanResult `json:"confirmed"`
	ToReview    map[int]types.ScanResult `json:"to_review,omitempty"`
}

// Writer reports batches: one JSON file per page, a table on Out, and the
// shas handed to the Recorder. It is safe for concurrent use.
type Writer struct {
	// Dir is the output root. Empty disables JSON files.
	Dir string
	// Out receives the tables. Nil disables them.
	Out      io.Writer
	Recorder Recorder
	// ToReview includes the to-review results. When false they are dropped
	// and their shas are not recorded.
	ToReview bool
	Print    PrintOptions
	Log      logrus.FieldLogger

	mu sync.Mutex
}

func (w *Writer) Report(ctx context.Context, rule types.Rule, batch types.Batch) error {
	if !w.ToReview {
		batch.ToReview = nil
	}
	if batch.Empty() {
		return nil
	}

	if w.Dir != "" {
		p, err := w.writeFile(rule, batch)
		if err != nil {
			return err
		}
		if w.Log != nil {
			w.Log.WithFields(logrus.Fields{"rule": rule.Keyword, "page": batch.Page, "file": p}).Info("report written")
		}
	}

	if w.Out != nil {
		w.mu.Lock()
		err := PrintBatch(w.Out, rule, batch, w.Print)
		w.mu.Unlock()
		if err != nil {
			return fmt.Errorf("print batch: %w", err)
		}
	}

	if w.Recorder != nil {
		var shas []string
		for _, r := range batch.Confirmed {
			shas = append(shas, r.Hash)
		}
		for _, r := range batch.ToReview {
			shas = append(shas, r.Hash)
		}
		if err := w.Recorder.Add(ctx, shas...); err != nil {
			return fmt.Errorf("record hashes: %w", err)
		}
	}
	return nil
}

// Path returns the file a rule's page is written to.
func (w *Writer) Path(rule types.Rule, page int) string {
	corp := safeName(rule.Corp)
	if corp == "" || corp == "." || corp == ".." {
		corp = "default"
	}
	return filepath.Join(w.Dir, corp, fmt.Sprintf("%s-p%d.json", rule.Fingerprint(), page))
}

func (w *Writer) writeFile(rule types.Rule, batch types.Batch) (string, error) {
	p := w.Path(rule, batch.Page)
	if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		return "", fmt.Errorf("create report dir: %w", err)
	}
	doc := File{
		Rule:        rule,
		Page:        batch.Page,
		GeneratedAt: time.Now().UTC(),
		Confirmed:   batch.Confirmed,
		ToReview:    batch.ToReview,
	}
	b, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return "", err
	}
	if err := os.WriteFile(p, b, 0o644); err != nil {
		return "", fmt.Errorf("write report: %w", err)
	}
	return p, nil
}

var unsafeChars = regexp.MustCompile(`[^a-zA-Z0-9._-]+`)

func safeName(s string) string {
	return unsafeChars.ReplaceAllString(s, "_")
}

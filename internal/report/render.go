package report

import (
	"fmt"
	"io"
	"sort"
	"strings"
	"time"

	"github.com/leakwatch/leakwatch/internal/types"
	"github.com/olekukonko/tablewriter"
)

type PrintOptions struct {
	NoColor bool
	// Redact masks the middle of evidence fragments.
	Redact   bool
	Duration time.Duration
}

const fragmentWidth = 80

// PrintBatch writes one page of results as a table.
func PrintBatch(w io.Writer, rule types.Rule, batch types.Batch, opts PrintOptions) error {
	rows := rowsOf(batch.Confirmed, "confirmed", opts)
	rows = append(rows, rowsOf(batch.ToReview, "review", opts)...)
	if len(rows) == 0 {
		return nil
	}
	fmt.Fprintf(w, "[%s] page %d: %d confirmed, %d to review\n", rule.Keyword, batch.Page, len(batch.Confirmed), len(batch.ToReview))
	table := tablewriter.NewWriter(w)
	table.Header("#", "Status", "Repository", "Path", "Evidence")
	for _, r := range rows {
		if err := table.Append(r); err != nil {
			return err
		}
	}
	return table.Render()
}

func rowsOf(m map[int]types.ScanResult, status string, opts PrintOptions) [][]string {
	idx := make([]int, 0, len(m))
	for i := range m {
		idx = append(idx, i)
	}
	sort.Ints(idx)
	if !opts.NoColor {
		status = colorStatus(status)
	}
	rows := make([][]string, 0, len(idx))
	for _, i := range idx {
		r := m[i]
		evidence := ""
		if len(r.MatchFragments) > 0 {
			evidence = strings.TrimSpace(r.MatchFragments[0])
			if opts.Redact {
				evidence = maskValue(evidence)
			}
			evidence = truncate(evidence, fragmentWidth)
			if n := len(r.MatchFragments) - 1; n > 0 {
				evidence += fmt.Sprintf(" (+%d)", n)
			}
		}
		rows = append(rows, []string{fmt.Sprint(i), status, r.Repository, r.Path, evidence})
	}
	return rows
}

// PrintSummary writes one row per rule and a footer.
func PrintSummary(w io.Writer, sums []types.Summary, opts PrintOptions) error {
	table := tablewriter.NewWriter(w)
	table.Header("Rule", "Mode", "Total", "Pages", "Processed", "Confirmed", "Review", "Status")
	var confirmed, review, failed int
	for _, s := range sums {
		confirmed += s.Confirmed
		review += s.ToReview
		status := "ok"
		switch {
		case s.Err != nil:
			failed++
			status = "failed"
		case s.Aborted:
			status = "skipped"
		}
		if !opts.NoColor {
			status = colorStatus(status)
		}
		if err := table.Append([]string{
			s.Rule.Keyword,
			string(s.Rule.Mode),
			fmt.Sprint(s.Total),
			fmt.Sprintf("%d/%d", s.Pages-s.PagesSkipped, s.Pages),
			fmt.Sprint(s.Processed),
			fmt.Sprint(s.Confirmed),
			fmt.Sprint(s.ToReview),
			status,
		}); err != nil {
			return err
		}
	}
	if err := table.Render(); err != nil {
		return err
	}

	fmt.Fprintln(w)
	if confirmed == 0 && review == 0 {
		fmt.Fprintln(w, "No new leaks found ✅")
	} else {
		fmt.Fprintf(w, "Results: %d (confirmed: %d, to review: %d)\n", confirmed+review, confirmed, review)
	}
	fmt.Fprintf(w, "Rules: %d (failed: %d)\n", len(sums), failed)
	if opts.Duration > 0 {
		fmt.Fprintf(w, "Scan duration: %.2fs\n", opts.Duration.Seconds())
	}
	return nil
}

func maskValue(s string) string {
	r := []rune(s)
	if len(r) <= 8 {
		return "********"
	}
	return string(r[:4]) + "…" + string(r[len(r)-4:])
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}

func colorStatus(s string) string {
	switch s {
	case "confirmed", "failed":
		return "\x1b[31m" + s + "\x1b[0m" // red
	case "review", "skipped":
		return "\x1b[33m" + s + "\x1b[0m" // yellow
	default:
		return "\x1b[32m" + s + "\x1b[0m" // green
	}
}

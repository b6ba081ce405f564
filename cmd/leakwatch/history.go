package leakwatch

import (
	"fmt"
	"io"
	"os"

	"github.com/leakwatch/leakwatch/internal/audit"
	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"
)

var (
	flagHistoryLimit int
	flagHistoryRules bool
)

func init() {
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show past scans from the audit log",
		RunE:  runHistory,
	}
	cmd.Flags().IntVarP(&flagHistoryLimit, "limit", "n", 10, "number of scans to show (0 = all)")
	cmd.Flags().BoolVar(&flagHistoryRules, "rules", false, "show per-rule outcomes of the latest scan")
	rootCmd.AddCommand(cmd)
}

func runHistory(_ *cobra.Command, _ []string) error {
	log := audit.NewAuditLog("")
	records, err := log.LoadHistory()
	if err != nil {
		return err
	}
	if len(records) == 0 {
		fmt.Println("No scans recorded yet in", log.Path())
		return nil
	}
	if flagHistoryRules {
		return printRuleRecords(os.Stdout, records[0])
	}
	if flagHistoryLimit > 0 && len(records) > flagHistoryLimit {
		records = records[:flagHistoryLimit]
	}
	return printHistory(os.Stdout, records)
}

func printHistory(w io.Writer, records []audit.ScanRecord) error {
	table := tablewriter.NewWriter(w)
	table.Header("Scan", "Time", "Rules", "Confirmed", "To review", "Failed", "Duration")
	for _, r := range records {
		row := []string{
			r.ScanID,
			r.Timestamp.Local().Format("2006-01-02 15:04:05"),
			fmt.Sprint(len(r.Rules)),
			fmt.Sprint(r.Confirmed),
			fmt.Sprint(r.ToReview),
			fmt.Sprint(r.Failed),
			r.Duration,
		}
		if err := table.Append(row); err != nil {
			return err
		}
	}
	return table.Render()
}

func printRuleRecords(w io.Writer, rec audit.ScanRecord) error {
	fmt.Fprintf(w, "%s (%s)\n", rec.ScanID, rec.Timestamp.Local().Format("2006-01-02 15:04:05"))
	table := tablewriter.NewWriter(w)
	table.Header("Query", "Total", "Processed", "Confirmed", "To review", "Status")
	for _, r := range rec.Rules {
		status := "ok"
		switch {
		case r.Error != "":
			status = r.Error
		case r.Aborted:
			status = "aborted"
		}
		row := []string{r.Query, fmt.Sprint(r.Total), fmt.Sprint(r.Processed), fmt.Sprint(r.Confirmed), fmt.Sprint(r.ToReview), status}
		if err := table.Append(row); err != nil {
			return err
		}
	}
	return table.Render()
}

package leakwatch

import (
	"errors"
	"io"
	"os"

	"github.com/leakwatch/leakwatch/internal/config"
	"github.com/leakwatch/leakwatch/internal/engine"
	"github.com/leakwatch/leakwatch/internal/types"
	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"
)

func init() {
	cmd := &cobra.Command{
		Use:   "rules",
		Short: "List the enabled rules and the search query each one sends",
		RunE:  runRules,
	}
	cmd.Flags().StringVarP(&flagRules, "rules", "r", "", "rule file (default: rules from leakwatch.yml)")
	rootCmd.AddCommand(cmd)
}

func runRules(cmd *cobra.Command, _ []string) error {
	local, global, err := loadFiles(flagConfig)
	if err != nil {
		return err
	}
	s, err := resolve(scanOverrides(cmd), local, global, nil)
	if err != nil {
		return err
	}
	if s.RulesPath == "" {
		return errors.New("no rule file: pass --rules or set rules in leakwatch.yml")
	}
	rules, err := config.LoadRules(s.RulesPath)
	if err != nil {
		return err
	}
	return printRules(os.Stdout, rules)
}

func printRules(w io.Writer, rules []types.Rule) error {
	table := tablewriter.NewWriter(w)
	table.Header("Fingerprint", "Group", "Corp", "Mode", "Query")
	for _, r := range rules {
		row := []string{r.Fingerprint(), r.Group, r.Corp, string(r.Mode), engine.BuildQuery(r)}
		if err := table.Append(row); err != nil {
			return err
		}
	}
	return table.Render()
}

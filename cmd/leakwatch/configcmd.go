package leakwatch

import (
	"fmt"
	"os"

	"github.com/leakwatch/leakwatch/internal/config"
	"github.com/spf13/cobra"
)

var (
	cfgOutput      string
	cfgRulesOutput string
	cfgForce       bool
)

func init() {
	cfgCmd := &cobra.Command{Use: "config", Short: "Configuration helpers"}
	rootCmd.AddCommand(cfgCmd)

	initCmd := &cobra.Command{
		Use:   "init",
		Short: "Generate a leakwatch.yml and an example rule file",
		RunE:  runConfigInit,
	}
	cfgCmd.AddCommand(initCmd)

	initCmd.Flags().StringVar(&cfgOutput, "output", "leakwatch.yml", "settings file path")
	initCmd.Flags().StringVar(&cfgRulesOutput, "rules-output", "rules.yml", "rule file path")
	initCmd.Flags().BoolVar(&cfgForce, "force", false, "overwrite existing files")
}

func runConfigInit(_ *cobra.Command, _ []string) error {
	starter, err := config.Starter()
	if err != nil {
		return err
	}
	rules, err := config.StarterRules()
	if err != nil {
		return err
	}
	if err := writeStarter(cfgOutput, starter, cfgForce); err != nil {
		return err
	}
	if err := writeStarter(cfgRulesOutput, rules, cfgForce); err != nil {
		return err
	}
	fmt.Println("Wrote", cfgOutput, "and", cfgRulesOutput)
	return nil
}

// writeStarter writes b to path with owner-only permissions; the settings
// file holds tokens.
func writeStarter(path string, b []byte, force bool) error {
	if !force {
		if _, err := os.Stat(path); err == nil {
			return fmt.Errorf("%s already exists (use --force to overwrite)", path)
		}
	}
	return os.WriteFile(path, b, 0600)
}

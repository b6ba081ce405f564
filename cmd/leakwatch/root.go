package leakwatch

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	flagConfig        string
	flagLogLevel      string
	flagLogJSON       bool
	flagNoColor       bool
	flagNoUpdateCheck bool

	version = "0.1.0"
)

// rootCmd is the base Cobra command for the leakwatch CLI.
var rootCmd = &cobra.Command{
	Use:           "leakwatch",
	Short:         "Watch public code search for leaked company secrets",
	Long:          "leakwatch runs keyword rules against GitHub code search, keeps the hits that match and reports the ones nobody has looked at yet.",
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the leakwatch CLI. It should be called by the main package.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(2)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagConfig, "config", "", "settings file (default: ./.leakwatch.yml, then ~/.config/leakwatch/config.yml)")
	rootCmd.PersistentFlags().StringVar(&flagLogLevel, "log-level", "info", "log level: debug|info|warn|error")
	rootCmd.PersistentFlags().BoolVar(&flagLogJSON, "log-json", false, "emit logs as JSON")
	rootCmd.PersistentFlags().BoolVar(&flagNoColor, "no-color", false, "disable colorized output")
	rootCmd.PersistentFlags().BoolVar(&flagNoUpdateCheck, "no-update-check", false, "disable update check")
}

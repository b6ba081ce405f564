package leakwatch

import (
	"fmt"
	"io"
	"os"

	"github.com/leakwatch/leakwatch/internal/engine"
	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"
)

func init() {
	cmd := &cobra.Command{
		Use:   "verify",
		Short: "Check that every configured token is accepted and show its search quota",
		RunE:  runVerify,
	}
	cmd.Flags().StringArrayVar(&flagTokens, "token", nil, "GitHub token (repeatable)")
	rootCmd.AddCommand(cmd)
}

func runVerify(cmd *cobra.Command, _ []string) error {
	local, global, err := loadFiles(flagConfig)
	if err != nil {
		return err
	}
	s, err := resolve(scanOverrides(cmd), local, global, envTokens(os.Getenv))
	if err != nil {
		return err
	}
	tcs, err := newTokenClients(cmd.Context(), s, nil)
	if err != nil {
		return err
	}
	failed, err := printVerify(cmd, os.Stdout, tcs)
	if err != nil {
		return err
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d token(s) failed verification", failed, len(tcs))
	}
	return nil
}

func printVerify(cmd *cobra.Command, w io.Writer, tcs []tokenClient) (int, error) {
	failed := 0
	table := tablewriter.NewWriter(w)
	table.Header("Token", "Result")
	for _, tc := range tcs {
		ok, msg := engine.New(engine.Config{}, tc.Client).Verify(cmd.Context())
		if !ok {
			failed++
		}
		if err := table.Append([]string{tc.Credential, msg}); err != nil {
			return failed, err
		}
	}
	return failed, table.Render()
}

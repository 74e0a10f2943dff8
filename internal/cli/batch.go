package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

var batchAt string

var batchCmd = &cobra.Command{
	Use:   "batch",
	Short: "Batch reconciliation commands",
}

var batchRunCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the daily reconciliation once and exit",
	RunE: func(cmd *cobra.Command, args []string) error {
		ref := time.Now().UTC()
		if batchAt != "" {
			t, err := time.Parse(time.RFC3339, batchAt)
			if err != nil {
				return fmt.Errorf("--at: %w", err)
			}
			ref = t
		}

		a, err := bootstrap()
		if err != nil {
			return err
		}
		defer a.Close()

		sum, err := a.job(a.dialAnnouncer(cmd.Context())).RunAt(cmd.Context(), ref)
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), sum.String())
		if sum.Failed > 0 {
			return fmt.Errorf("%d of %d couples failed", sum.Failed, sum.Processed)
		}
		return nil
	},
}

func init() {
	batchRunCmd.Flags().StringVar(&batchAt, "at", "", "Reference time (RFC3339) instead of now, for replays")
	batchCmd.AddCommand(batchRunCmd)
}

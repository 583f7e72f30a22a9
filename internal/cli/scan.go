package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

// NewScanCmd создаёт группу команд для сканера запланированных постов.
func NewScanCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "scan",
		Short: "Scheduled post scanner",
	}

	cmd.AddCommand(
		newScanTriggerCmd(clientFn, outputFn),
		newScanStatusCmd(clientFn, outputFn),
	)

	return cmd
}

func newScanTriggerCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	var batchSize int

	cmd := &cobra.Command{
		Use:   "trigger",
		Short: "Enqueue a manual scan",
		RunE: func(cmd *cobra.Command, args []string) error {
			if batchSize < 0 {
				return fmt.Errorf("--batch-size must be positive")
			}

			client := clientFn()
			out := outputFn()

			resp, err := client.TriggerScan(batchSize)
			if err != nil {
				return err
			}

			out.ScanQueued(resp)
			return nil
		},
	}

	cmd.Flags().IntVar(&batchSize, "batch-size", 0, "Maximum posts per scan (server default if not specified)")

	return cmd
}

func newScanStatusCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show scan lock holder and last scan result",
		RunE: func(cmd *cobra.Command, args []string) error {
			client := clientFn()
			out := outputFn()

			st, err := client.ScanStatus()
			if err != nil {
				return err
			}

			out.ScanStatus(st)
			return nil
		},
	}
}

package cli

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
)

// NewPostCmd создаёт группу команд для постов.
func NewPostCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "post",
		Short: "Inspect posts",
	}

	cmd.AddCommand(newPostHistoryCmd(clientFn, outputFn))

	return cmd
}

func newPostHistoryCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	var tenantID string

	cmd := &cobra.Command{
		Use:   "history POST_ID",
		Short: "Show publishing history of a post",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			postID, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil || postID <= 0 {
				return fmt.Errorf("invalid post id %q", args[0])
			}

			client := clientFn()
			out := outputFn()

			h, err := client.PostHistory(postID, tenantID)
			if err != nil {
				return err
			}

			out.PostHistory(h)
			return nil
		},
	}

	cmd.Flags().StringVar(&tenantID, "tenant", "", "Tenant ID (required)")
	cmd.MarkFlagRequired("tenant")

	return cmd
}

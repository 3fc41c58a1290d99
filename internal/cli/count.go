package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

var countCmd = &cobra.Command{
	Use:   "count",
	Short: "Print the number of documents in the index",
	Args:  cobra.NoArgs,
	RunE:  runCount,
}

func init() {
	rootCmd.AddCommand(countCmd)
}

func runCount(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	idx, closeIndex, err := openIndex(ctx)
	if err != nil {
		return err
	}
	defer closeIndex()

	n, err := idx.Count(ctx, indexName)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(cmd.OutOrStdout(), "%s: %d documents\n", indexName, n)
	return err
}

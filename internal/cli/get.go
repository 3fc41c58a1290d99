package cli

import (
	"fmt"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

var getCmd = &cobra.Command{
	Use:   "get [document-id]",
	Short: "Show an indexed document",
	Long:  `The document ID is the object key exactly as it arrived in the event.`,
	Args:  cobra.ExactArgs(1),
	RunE:  runGet,
}

func init() {
	rootCmd.AddCommand(getCmd)
}

func runGet(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	idx, closeIndex, err := openIndex(ctx)
	if err != nil {
		return err
	}
	defer closeIndex()

	doc, ok, err := idx.Get(ctx, indexName, args[0])
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("document %q not found in index %q", args[0], indexName)
	}
	out, err := yaml.Marshal(doc)
	if err != nil {
		return err
	}
	_, err = cmd.OutOrStdout().Write(out)
	return err
}

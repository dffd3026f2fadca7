package cmd

import (
	"github.com/spf13/cobra"

	"github.com/askiada/go-aisingest/internal/aisdb"
)

var table string

var indexCmd = &cobra.Command{
	Use:   "index",
	Short: "Create the indices of a table",
	RunE:  runIndex,
}

func init() {
	rootCmd.AddCommand(indexCmd)

	indexCmd.Flags().StringVar(&table, "table", aisdb.CleanTable, "Table to index")
}

func runIndex(cmd *cobra.Command, _ []string) error {
	in, err := newIngester(cmd.Context(), true)
	if err != nil {
		return err
	}

	return in.MakeAllIndices(cmd.Context(), table)
}

package cmd

import (
	"github.com/spf13/cobra"
)

var setupCmd = &cobra.Command{
	Use:   "setup",
	Short: "Create the working folder",
	Long:  `Create the files/ and tmp/ trees of the working folder. Existing folders are kept.`,
	RunE:  runSetup,
}

func init() {
	rootCmd.AddCommand(setupCmd)
}

func runSetup(cmd *cobra.Command, _ []string) error {
	in, err := newIngester(cmd.Context(), false)
	if err != nil {
		return err
	}

	return in.Setup()
}

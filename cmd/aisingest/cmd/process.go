package cmd

import (
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var withDB bool

var processCmd = &cobra.Command{
	Use:   "process",
	Short: "Unzip and validate a folder of archives",
	Long: `Unzip every archive of --folder-of-zips and write the valid messages of each csv file
to files/cleancsv. With --with-db, the clean files are also copied into ais_clean and
recorded in ais_sources.`,
	RunE: runProcess,
}

func init() {
	rootCmd.AddCommand(processCmd)

	processCmd.Flags().BoolVar(&withDB, "with-db", false, "Load the clean files into the database")
}

func runProcess(cmd *cobra.Command, _ []string) error {
	if folderOfZips == "" {
		return errors.New("--folder-of-zips is required")
	}
	in, err := newIngester(cmd.Context(), withDB)
	if err != nil {
		return err
	}

	report, err := in.ProcessArchives(cmd.Context(), folderOfZips, withDB)
	if err != nil {
		logger.Error("processing failed", zap.Error(err))

		return err
	}
	logReport(report)

	return nil
}

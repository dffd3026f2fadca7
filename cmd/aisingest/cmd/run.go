package cmd

import (
	"context"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/askiada/go-aisingest/internal/aisdb"
	"github.com/askiada/go-aisingest/internal/ingest"
	"github.com/askiada/go-aisingest/internal/plan"
)

var target string

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the whole ingestion of a folder of archives",
	Long: `Run the tasks leading to --target, in order:

  setup    create the working folder
  process  unzip, validate and load the archives of --folder-of-zips
  indices  create the indices of ais_clean
  cluster  cluster ais_clean on its MMSI index

Tasks already complete return immediately.`,
	RunE: runRun,
}

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().StringVar(&target, "target", "cluster", "Last task to run")
}

func newPlan(in *ingest.Ingester, folder string) (*plan.Plan, error) {
	p := plan.New(logger)
	tasks := []struct {
		task     plan.Task
		requires []string
	}{
		{plan.Task{Name: "setup", Run: func(context.Context) error { return in.Setup() }}, nil},
		{plan.Task{Name: "process", Run: func(ctx context.Context) error {
			report, err := in.ProcessArchives(ctx, folder, true)
			if err != nil {
				return err
			}
			logReport(report)

			return nil
		}}, []string{"setup"}},
		{plan.Task{Name: "indices", Run: func(ctx context.Context) error {
			return in.MakeAllIndices(ctx, aisdb.CleanTable)
		}}, []string{"process"}},
		{plan.Task{Name: "cluster", Run: in.ClusterAisClean}, []string{"indices"}},
	}
	for _, t := range tasks {
		err := p.Add(t.task, t.requires...)
		if err != nil {
			return nil, err
		}
	}

	return p, nil
}

func runRun(cmd *cobra.Command, _ []string) error {
	if folderOfZips == "" {
		return errors.New("--folder-of-zips is required")
	}
	in, err := newIngester(cmd.Context(), true)
	if err != nil {
		return err
	}
	p, err := newPlan(in, folderOfZips)
	if err != nil {
		return err
	}

	err = p.Run(cmd.Context(), target)
	if err != nil {
		logger.Error("ingestion failed", zap.String("target", target), zap.Error(err))

		return err
	}

	return nil
}

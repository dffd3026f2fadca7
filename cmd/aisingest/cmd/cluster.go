package cmd

import (
	"github.com/spf13/cobra"
)

var clusterCmd = &cobra.Command{
	Use:   "cluster",
	Short: "Cluster ais_clean on its MMSI index",
	RunE:  runCluster,
}

func init() {
	rootCmd.AddCommand(clusterCmd)
}

func runCluster(cmd *cobra.Command, _ []string) error {
	in, err := newIngester(cmd.Context(), true)
	if err != nil {
		return err
	}

	return in.ClusterAisClean(cmd.Context())
}

package cmd

import (
	"archive/zip"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/askiada/go-aisingest/internal/config"
	"github.com/askiada/go-aisingest/internal/ingest"
	"github.com/askiada/go-aisingest/internal/workdir"
)

// execute runs the root command with args, resetting the flags of previous runs.
func execute(t *testing.T, args ...string) error {
	t.Helper()
	configPath, workDir, folderOfZips, logLevel, metricsAddr, graphFile, extractor = "", "", "", "", "", "", ""
	workers, withDB, target, table = 0, false, "cluster", "ais_clean"
	for _, c := range rootCmd.Commands() {
		c.Flags().VisitAll(func(f *pflag.Flag) { f.Changed = false })
	}
	rootCmd.PersistentFlags().VisitAll(func(f *pflag.Flag) { f.Changed = false })

	rootCmd.SetArgs(args)

	return executeContext(context.Background())
}

func TestApplyFlags(t *testing.T) {
	c := config.Default()
	require.NoError(t, rootCmd.PersistentFlags().Set("workers", "8"))
	require.NoError(t, rootCmd.PersistentFlags().Set("extractor", "7za"))
	t.Cleanup(func() {
		rootCmd.PersistentFlags().VisitAll(func(f *pflag.Flag) { f.Changed = false })
		workers, extractor = 0, ""
	})

	applyFlags(rootCmd, c)
	assert.Equal(t, 8, c.Workers)
	assert.Equal(t, config.Extractor7z, c.Extractor)
	assert.Empty(t, c.WorkDir)
}

func TestSetupCommand(t *testing.T) {
	t.Setenv("LOG_LEVEL", "error")
	dir := filepath.Join(t.TempDir(), "work")

	require.NoError(t, execute(t, "setup", "--workdir", dir))
	assert.DirExists(t, filepath.Join(dir, "files", "cleancsv"))
	assert.DirExists(t, filepath.Join(dir, "tmp", "countraw"))
}

func TestProcessCommand(t *testing.T) {
	t.Setenv("LOG_LEVEL", "error")
	t.Setenv("AISWORK", "")
	root := t.TempDir()
	folder := filepath.Join(root, "zips")
	require.NoError(t, os.Mkdir(folder, 0o755))

	f, err := os.Create(filepath.Join(folder, "2014-01.zip"))
	require.NoError(t, err)
	w := zip.NewWriter(f)
	fw, err := w.Create("day1.csv")
	require.NoError(t, err)
	_, err = fw.Write([]byte("MMSI,Time,Message_ID\n235000001,20140101_000001,1\n"))
	require.NoError(t, err)
	require.NoError(t, w.Close())
	require.NoError(t, f.Close())

	require.NoError(t, execute(t, "process", "--folder-of-zips", folder, "--workers", "2"))

	l := workdir.Layout{Root: root}
	assert.FileExists(t, l.CleanCSV("day1.csv"))
	assert.FileExists(t, l.ArchivesMarker(folder, false).Path())
}

func TestCommandErrors(t *testing.T) {
	t.Setenv("LOG_LEVEL", "error")
	t.Setenv("AISWORK", t.TempDir())
	t.Setenv("DBHOSTNAME", "")
	t.Setenv("DBNAME", "")

	tcs := map[string][]string{
		"process without folder": {"process"},
		"run without folder":     {"run"},
		"invalid workers":        {"setup", "--workers", "0"},
		"invalid extractor":      {"setup", "--extractor", "unrar"},
		"index without database": {"index"},
		"cluster without db":     {"cluster"},
	}
	for name, args := range tcs {
		t.Run(name, func(t *testing.T) {
			assert.Error(t, execute(t, args...))
		})
	}
}

func TestFailedCommandReleasesResources(t *testing.T) {
	t.Setenv("LOG_LEVEL", "error")
	t.Setenv("AISWORK", t.TempDir())

	require.Error(t, execute(t, "process", "--metrics-addr", "127.0.0.1:0"))
	assert.Nil(t, server)
	assert.Nil(t, store)
}

func TestNewPlan(t *testing.T) {
	logger = zaptest.NewLogger(t)
	in := ingest.New(workdir.Layout{Root: t.TempDir()}, logger)

	p, err := newPlan(in, "/data/zips")
	require.NoError(t, err)

	order, err := p.Resolve("cluster")
	require.NoError(t, err)
	assert.Equal(t, []string{"setup", "process", "indices", "cluster"}, order)

	order, err = p.Resolve("setup")
	require.NoError(t, err)
	assert.Equal(t, []string{"setup"}, order)
}

package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/askiada/go-aisingest/internal/aisdb"
	"github.com/askiada/go-aisingest/internal/archive"
	"github.com/askiada/go-aisingest/internal/config"
	"github.com/askiada/go-aisingest/internal/ingest"
	"github.com/askiada/go-aisingest/internal/logging"
	"github.com/askiada/go-aisingest/internal/metrics"
	"github.com/askiada/go-aisingest/internal/workdir"
)

var (
	configPath   string
	workDir      string
	folderOfZips string
	logLevel     string
	metricsAddr  string
	graphFile    string
	extractor    string
	workers      int
)

// state shared by the commands, set before each command runs.
var (
	cfg     *config.Config
	logger  *zap.Logger
	msr     *metrics.Metrics
	server  *metrics.Server
	store   *aisdb.DB
	missing []string
)

var rootCmd = &cobra.Command{
	Use:   "aisingest",
	Short: "Ingest archives of AIS messages",
	Long: `aisingest unzips folders of AIS archives, validates every message of their csv files
and loads the valid ones into PostgreSQL.

Every step only runs when its output is missing, so any command can be run again
to complete an interrupted ingestion.

The database is configured with DBHOSTNAME, DBPORT, DBNAME, DBUSER and DBUSERPASS.
The working folder is AISWORK, or the parent folder of --folder-of-zips.`,
	SilenceUsage:      true,
	PersistentPreRunE: setup,
}

// Execute runs the root command until it returns or the process is interrupted.
func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return executeContext(ctx)
}

// executeContext runs the root command and always releases what setup acquired, as cobra skips the post run hooks
// of a command that failed.
func executeContext(ctx context.Context) error {
	defer teardown()

	return rootCmd.ExecuteContext(ctx)
}

func init() {
	flags := rootCmd.PersistentFlags()
	flags.StringVarP(&configPath, "config", "c", "", "Path to a YAML configuration file")
	flags.StringVar(&workDir, "workdir", "", "Working folder, overrides AISWORK")
	flags.StringVar(&folderOfZips, "folder-of-zips", "", "Folder containing the AIS archives")
	flags.StringVar(&logLevel, "log-level", "", "Log level (debug, info, warn, error)")
	flags.StringVar(&metricsAddr, "metrics-addr", "", "Serve Prometheus metrics on this address while running")
	flags.StringVar(&graphFile, "graph", "", "Write a DOT drawing of the ingestion pipeline to this file")
	flags.StringVar(&extractor, "extractor", "", "Archive extractor: builtin or 7za")
	flags.IntVar(&workers, "workers", 0, "Number of concurrent workers")
}

// applyFlags overrides the configuration with the flags set on the command line.
func applyFlags(cmd *cobra.Command, c *config.Config) {
	changed := func(name string) bool {
		f := cmd.Flag(name)

		return f != nil && f.Changed
	}
	if changed("workdir") {
		c.WorkDir = workDir
	}
	if changed("log-level") {
		c.Log.Level = logLevel
	}
	if changed("metrics-addr") {
		c.MetricsAddr = metricsAddr
	}
	if changed("graph") {
		c.GraphFile = graphFile
	}
	if changed("extractor") {
		c.Extractor = extractor
	}
	if changed("workers") {
		c.Workers = workers
	}
}

func setup(cmd *cobra.Command, _ []string) error {
	var err error
	cfg, missing, err = config.Load(configPath)
	if err != nil {
		return err
	}
	applyFlags(cmd, cfg)
	err = cfg.Validate(false)
	if err != nil {
		return err
	}

	logger, err = logging.NewLogger(cfg.Log)
	if err != nil {
		return err
	}
	logger = logger.With(zap.String("run_id", uuid.NewString()), zap.String("command", cmd.Name()))

	msr = metrics.New()
	if cfg.MetricsAddr != "" {
		server = metrics.NewServer(cfg.MetricsAddr, msr, logger)
		server.Start()
	}

	return nil
}

func teardown() {
	if store != nil {
		store.Close()
		store = nil
	}
	if server != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		err := server.Shutdown(ctx)
		if err != nil {
			logger.Warn("metrics server shutdown", zap.Error(err))
		}
		server = nil
	}
	if logger != nil {
		_ = logger.Sync()
	}
}

func layout() (workdir.Layout, error) {
	l, err := workdir.Resolve(cfg.WorkDir, folderOfZips)
	if err != nil {
		return workdir.Layout{}, errors.Wrap(err, "set AISWORK, --workdir or --folder-of-zips")
	}

	return l, nil
}

// openStore connects to the database. Missing database variables are reported now rather than at startup, as
// only the database commands need them.
func openStore(ctx context.Context) (*aisdb.DB, error) {
	if store != nil {
		return store, nil
	}
	for _, name := range missing {
		logger.Warn("database variable not set", zap.String("variable", name))
	}
	err := cfg.Validate(true)
	if err != nil {
		return nil, err
	}

	store, err = aisdb.Open(ctx, cfg.Database.ConnString(), logger)
	if err != nil {
		return nil, err
	}
	logger.Info("connected to database",
		zap.String("host", cfg.Database.Host),
		zap.String("database", cfg.Database.Name),
	)

	return store, nil
}

// newIngester builds an ingester in the working folder, connected to the database when withDB is true.
func newIngester(ctx context.Context, withDB bool) (*ingest.Ingester, error) {
	l, err := layout()
	if err != nil {
		return nil, err
	}

	opts := []ingest.Option{
		ingest.WithWorkers(cfg.Workers),
		ingest.WithGraphFile(cfg.GraphFile),
		ingest.WithMetrics(msr),
	}
	if cfg.Extractor == config.Extractor7z {
		opts = append(opts, ingest.WithExtractor(archive.CommandExtractor{Program: cfg.SevenZipPath}))
	}
	if withDB {
		db, err := openStore(ctx)
		if err != nil {
			return nil, err
		}
		opts = append(opts, ingest.WithStore(db))
	}

	return ingest.New(l, logger, opts...), nil
}

// Package ingest runs the ingestion of folders of AIS archives.
//
// A folder is processed by a pipeline: archives are unzipped, their csv files validated and, with a database,
// copied into ais_clean and recorded in ais_sources. Every unit of work is skipped when its output already exists,
// so an interrupted ingestion resumes where it stopped.
package ingest

import (
	"context"
	"os"
	"path/filepath"
	"sync"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/askiada/go-aisingest/internal/ais"
	"github.com/askiada/go-aisingest/internal/aisdb"
	"github.com/askiada/go-aisingest/internal/archive"
	"github.com/askiada/go-aisingest/internal/metrics"
	"github.com/askiada/go-aisingest/internal/workdir"
)

var ErrNoDatabase = errors.New("no database configured")

// Store is the database the clean files are loaded into. Every method claims its update id in the transaction
// doing the work and returns false, without doing it, when the id is already recorded. Concurrent calls with the
// same id do the work once.
type Store interface {
	CopyCSV(ctx context.Context, table, updateID, path string) (int64, bool, error)
	RecordSource(ctx context.Context, updateID string, src aisdb.Source) (bool, error)
	RunQuery(ctx context.Context, table string, query aisdb.Query) (bool, error)
}

// Ingester processes archives inside one working folder.
type Ingester struct {
	layout    workdir.Layout
	extractor archive.Extractor
	store     Store
	specs     aisdb.Specs
	workers   int
	graphFile string
	metrics   *metrics.Metrics
	logger    *zap.Logger
}

// Option configures an Ingester.
type Option func(in *Ingester)

// WithStore sets the database. Without it, only the filesystem part of the ingestion runs.
func WithStore(store Store) Option {
	return func(in *Ingester) {
		in.store = store
	}
}

// WithExtractor replaces the in-process zip extractor.
func WithExtractor(extractor archive.Extractor) Option {
	return func(in *Ingester) {
		in.extractor = extractor
	}
}

// WithWorkers sets the number of concurrent workers of the unzip, validate and copy steps.
func WithWorkers(workers int) Option {
	return func(in *Ingester) {
		if workers > 0 {
			in.workers = workers
		}
	}
}

// WithGraphFile draws every pipeline, with its measures, to a DOT file.
func WithGraphFile(path string) Option {
	return func(in *Ingester) {
		in.graphFile = path
	}
}

// WithMetrics reports progress to Prometheus collectors.
func WithMetrics(m *metrics.Metrics) Option {
	return func(in *Ingester) {
		in.metrics = m
	}
}

// New returns an Ingester working in layout.
func New(layout workdir.Layout, logger *zap.Logger, opts ...Option) *Ingester {
	in := &Ingester{
		layout:    layout,
		extractor: archive.ZipExtractor{},
		specs:     aisdb.DefaultSpecs(),
		workers:   1,
		logger:    logger.Named("ingest"),
	}
	for _, opt := range opts {
		opt(in)
	}

	return in
}

// Setup creates the working folder.
func (in *Ingester) Setup() error {
	err := in.layout.Setup()
	if err != nil {
		return err
	}
	in.logger.Info("working folder ready", zap.String("root", in.layout.Root))

	return nil
}

func (in *Ingester) observeUnit(kind string, skipped bool) {
	if in.metrics != nil {
		in.metrics.ObserveUnit(kind, skipped)
	}
}

// Report summarises an ingestion.
type Report struct {
	// FolderSkipped is true when the folder was already processed.
	FolderSkipped   bool
	Archives        int
	ArchivesSkipped int
	CSVFiles        int
	CSVSkipped      int
	Rows            ais.Stats
	RowsCopied      int64
	CopiesSkipped   int
	SourcesSkipped  int
}

type safeReport struct {
	mu sync.Mutex
	Report
}

func (r *safeReport) update(fn func(r *Report)) {
	r.mu.Lock()
	defer r.mu.Unlock()
	fn(&r.Report)
}

func (r *safeReport) snapshot() Report {
	r.mu.Lock()
	defer r.mu.Unlock()

	return r.Report
}

func readStats(target workdir.Target) (ais.Stats, error) {
	data, err := os.ReadFile(target.Path())
	if err != nil {
		return ais.Stats{}, errors.Wrapf(err, "unable to read %s", target.Path())
	}

	return ais.UnmarshalStats(data)
}

func writeStats(target workdir.Target, stats ais.Stats) error {
	data, err := ais.MarshalStats(stats)
	if err != nil {
		return errors.Wrap(err, "unable to encode stats")
	}

	return target.Write(data)
}

// validateCSV writes the clean version of raw. Files already validated are not read again, their stats come from
// their count file.
func (in *Ingester) validateCSV(ctx context.Context, raw string) (string, ais.Stats, bool, error) {
	clean := in.layout.CleanCSV(raw)
	countFile := in.layout.CountFile(raw)

	counted, err := countFile.Exists()
	if err != nil {
		return "", ais.Stats{}, false, err
	}
	cleaned, err := workdir.Exists(clean)
	if err != nil {
		return "", ais.Stats{}, false, err
	}
	if counted && cleaned {
		stats, err := readStats(countFile)
		if err == nil {
			return clean, stats, true, nil
		}
		in.logger.Warn("unreadable count file, validating again", zap.String("csv", raw), zap.Error(err))
	}

	stats, err := ais.ProduceValidCSV(ctx, raw, clean)
	if err != nil {
		return "", ais.Stats{}, false, err
	}
	err = writeStats(countFile, stats)
	if err != nil {
		return "", ais.Stats{}, false, err
	}

	return clean, stats, false, nil
}

func copyUpdateID(clean string) string {
	return "ValidMessagesToDatabase_" + filepath.Base(clean)
}

func sourceUpdateID(clean string) string {
	return "LoadCleanedAIS_" + filepath.Base(clean)
}

// loadCSV copies clean into ais_clean then records it in ais_sources. It returns the number of rows copied and
// whether each of the two units was already done.
func (in *Ingester) loadCSV(ctx context.Context, clean string, stats ais.Stats) (int64, bool, bool, error) {
	rows, copied, err := in.store.CopyCSV(ctx, aisdb.CleanTable, copyUpdateID(clean), clean)
	if err != nil {
		return 0, false, false, err
	}
	if copied && in.metrics != nil {
		in.metrics.RowsCopied.WithLabelValues(aisdb.CleanTable).Add(float64(rows))
	}
	in.observeUnit("copy", !copied)

	recorded, err := in.store.RecordSource(ctx, sourceUpdateID(clean), aisdb.Source{
		Filename: filepath.Base(clean),
		Ext:      filepath.Ext(clean),
		Invalid:  stats.Invalid,
		Clean:    stats.Clean,
		Dirty:    stats.Dirty,
		Source:   stats.Total,
	})
	if err != nil {
		return 0, false, false, err
	}
	in.observeUnit("source", !recorded)

	return rows, !copied, !recorded, nil
}

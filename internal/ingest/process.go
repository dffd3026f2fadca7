package ingest

import (
	"context"
	"sort"

	"go.uber.org/zap"

	"github.com/askiada/go-aisingest/internal/ais"
	"github.com/askiada/go-aisingest/internal/archive"
	"github.com/askiada/go-aisingest/internal/logging"
	"github.com/askiada/go-aisingest/internal/workdir"
	"github.com/askiada/go-aisingest/pkg/pipeline"
	"github.com/askiada/go-aisingest/pkg/pipeline/drawer"
	"github.com/askiada/go-aisingest/pkg/pipeline/measure"
	"github.com/askiada/go-aisingest/pkg/pipeline/model"
)

type archiveJob struct {
	zip    string
	marker workdir.Target
	csvs   []string

	// only the sink updates the fields below
	remaining int
	cleans    []string
}

type csvJob struct {
	archive *archiveJob
	raw     string
	clean   string
	stats   ais.Stats
}

// run is the ingestion of one folder.
type run struct {
	*Ingester
	withDB bool
	report safeReport
}

func (in *Ingester) pipelineOptions() []model.PipelineOption {
	opts := []model.PipelineOption{logging.PipelineLogger(in.logger)}
	if in.metrics != nil {
		opts = append(opts, in.metrics.PipelineMetrics())
	}
	if in.graphFile != "" {
		msr := measure.NewDefaultMeasure()
		opts = append(opts,
			measure.PipelineMeasure(msr),
			drawer.PipelineDrawer(drawer.NewDOTDrawer(in.graphFile), msr),
		)
	}

	return opts
}

func (in *Ingester) archiveMarker(zip string, withDB bool) workdir.Target {
	if withDB {
		return in.layout.WriteMarker(zip)
	}

	return in.layout.ProcessMarker(zip)
}

// ProcessArchives unzips and validates every archive of folder and, when withDB is true, loads the clean files
// into the database. Once every archive is complete, the folder is marked as processed and later calls return
// immediately.
func (in *Ingester) ProcessArchives(ctx context.Context, folder string, withDB bool) (Report, error) {
	if withDB && in.store == nil {
		return Report{}, ErrNoDatabase
	}
	logger := in.logger.With(zap.String("folder", folder), zap.Bool("with_db", withDB))

	folderMarker := in.layout.ArchivesMarker(folder, withDB)
	done, err := folderMarker.Exists()
	if err != nil {
		return Report{}, err
	}
	if done {
		logger.Info("folder already processed")

		return Report{FolderSkipped: true}, nil
	}

	err = in.layout.Setup()
	if err != nil {
		return Report{}, err
	}
	entries, zips, err := archive.ListArchives(folder)
	if err != nil {
		return Report{}, err
	}
	logger.Info("processing archives", zap.Int("archives", len(zips)))

	r := &run{Ingester: in, withDB: withDB}
	err = r.process(ctx, zips)
	report := r.report.snapshot()
	if err != nil {
		return report, err
	}

	err = folderMarker.WriteLines(entries)
	if err != nil {
		return report, err
	}
	logger.Info("folder processed",
		zap.Int("archives", report.Archives),
		zap.Int("archives_skipped", report.ArchivesSkipped),
		zap.Int("csv_files", report.CSVFiles),
		zap.Int64("rows", report.Rows.Total),
		zap.Int64("clean", report.Rows.Clean),
		zap.Int64("dirty", report.Rows.Dirty),
		zap.Int64("invalid", report.Rows.Invalid),
		zap.Int64("rows_copied", report.RowsCopied),
	)

	return report, nil
}

func (r *run) process(ctx context.Context, zips []string) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	pipe, err := pipeline.New(ctx, r.pipelineOptions()...)
	if err != nil {
		return err
	}

	archives, err := pipeline.AddRootStep(pipe, "archives", func(ctx context.Context, out chan<- *archiveJob) error {
		return r.pendingArchives(ctx, zips, out)
	})
	if err != nil {
		return err
	}
	unzipped, err := pipeline.AddStepOneToOneOrZero(pipe, "unzip", archives, r.unzip,
		pipeline.StepConcurrency[*archiveJob](r.workers))
	if err != nil {
		return err
	}
	csvFiles, err := pipeline.AddStepOneToMany(pipe, "csv files", unzipped, r.csvFiles)
	if err != nil {
		return err
	}
	last, err := pipeline.AddStepOneToOne(pipe, "validate", csvFiles, r.validate,
		pipeline.StepConcurrency[*csvJob](r.workers))
	if err != nil {
		return err
	}
	if r.withDB {
		last, err = pipeline.AddStepOneToOne(pipe, "copy", last, r.load,
			pipeline.StepConcurrency[*csvJob](r.workers))
		if err != nil {
			return err
		}
	}
	err = pipeline.AddSink(pipe, "done", last, r.finishCSV)
	if err != nil {
		return err
	}

	return pipe.Run()
}

func (r *run) pendingArchives(ctx context.Context, zips []string, out chan<- *archiveJob) error {
	for _, zip := range zips {
		marker := r.archiveMarker(zip, r.withDB)
		done, err := marker.Exists()
		if err != nil {
			return err
		}
		if done {
			r.report.update(func(rp *Report) { rp.ArchivesSkipped++ })
			r.observeUnit("archive", true)

			continue
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case out <- &archiveJob{zip: zip, marker: marker}:
		}
	}

	return nil
}

// unzip extracts an archive and lists its csv files. An archive without csv file is complete right away and
// goes no further.
func (r *run) unzip(ctx context.Context, job *archiveJob) (*archiveJob, error) {
	dest := r.layout.UnzippedDir(job.zip)
	extracted, err := archive.ExtractOnce(ctx, r.extractor, job.zip, dest)
	if err != nil {
		return nil, err
	}
	r.observeUnit("unzip", !extracted)

	job.csvs, err = archive.ListCSV(dest)
	if err != nil {
		return nil, err
	}
	job.remaining = len(job.csvs)
	r.report.update(func(rp *Report) { rp.Archives++ })

	if len(job.csvs) == 0 {
		r.logger.Warn("archive has no csv file", zap.String("archive", job.zip))
		err = job.marker.WriteLines(nil)
		if err != nil {
			return nil, err
		}
		r.observeUnit("archive", false)

		return nil, nil
	}

	return job, nil
}

func (r *run) csvFiles(_ context.Context, job *archiveJob) ([]*csvJob, error) {
	jobs := make([]*csvJob, len(job.csvs))
	for i, csv := range job.csvs {
		jobs[i] = &csvJob{archive: job, raw: csv}
	}
	r.report.update(func(rp *Report) { rp.CSVFiles += len(jobs) })

	return jobs, nil
}

func (r *run) validate(ctx context.Context, job *csvJob) (*csvJob, error) {
	clean, stats, skipped, err := r.validateCSV(ctx, job.raw)
	if err != nil {
		return nil, err
	}
	job.clean, job.stats = clean, stats

	r.report.update(func(rp *Report) {
		rp.Rows = rp.Rows.Add(stats)
		if skipped {
			rp.CSVSkipped++
		}
	})
	r.observeUnit("csv", skipped)
	if stats.BadHeader > 0 && !skipped {
		r.logger.Warn("csv has no usable header, all its rows are invalid",
			zap.String("csv", job.raw),
			zap.Int64("invalid", stats.Invalid),
		)
	}
	if r.metrics != nil && !skipped {
		r.metrics.ObserveStats(stats)
	}
	r.logger.Debug("csv validated",
		zap.String("csv", job.raw),
		zap.Bool("skipped", skipped),
		zap.Int64("clean", stats.Clean),
		zap.Int64("dirty", stats.Dirty),
		zap.Int64("invalid", stats.Invalid),
	)

	return job, nil
}

func (r *run) load(ctx context.Context, job *csvJob) (*csvJob, error) {
	rows, copied, recorded, err := r.loadCSV(ctx, job.clean, job.stats)
	if err != nil {
		return nil, err
	}
	r.report.update(func(rp *Report) {
		rp.RowsCopied += rows
		if copied {
			rp.CopiesSkipped++
		}
		if recorded {
			rp.SourcesSkipped++
		}
	})

	return job, nil
}

// finishCSV marks the archive of job as complete once all its csv files went through the pipeline.
func (r *run) finishCSV(_ context.Context, job *csvJob) error {
	arc := job.archive
	arc.cleans = append(arc.cleans, job.clean)
	arc.remaining--
	if arc.remaining > 0 {
		return nil
	}

	sort.Strings(arc.cleans)
	err := arc.marker.WriteLines(arc.cleans)
	if err != nil {
		return err
	}
	r.observeUnit("archive", false)
	r.logger.Info("archive processed", zap.String("archive", arc.zip), zap.Int("csv_files", len(arc.cleans)))

	return nil
}

package cmd

import (
	"go.uber.org/zap"

	"github.com/askiada/go-aisingest/internal/ingest"
)

func logReport(report ingest.Report) {
	if report.FolderSkipped {
		logger.Info("nothing to do, folder already processed", zap.String("folder", folderOfZips))

		return
	}
	logger.Info("ingestion report",
		zap.Int("archives", report.Archives),
		zap.Int("archives_skipped", report.ArchivesSkipped),
		zap.Int("csv_files", report.CSVFiles),
		zap.Int("csv_skipped", report.CSVSkipped),
		zap.Int64("rows", report.Rows.Total),
		zap.Int64("clean", report.Rows.Clean),
		zap.Int64("dirty", report.Rows.Dirty),
		zap.Int64("invalid", report.Rows.Invalid),
		zap.Int64("bad_headers", report.Rows.BadHeader),
		zap.Any("rejected", report.Rows.Rejected),
		zap.Int64("rows_copied", report.RowsCopied),
		zap.Int("copies_skipped", report.CopiesSkipped),
		zap.Int("sources_skipped", report.SourcesSkipped),
	)
}

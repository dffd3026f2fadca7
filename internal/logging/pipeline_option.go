package logging

import (
	"time"

	"go.uber.org/zap"

	"github.com/askiada/go-aisingest/pkg/pipeline/model"
)

type pipelineLogger struct {
	model.NoopOption
	logger *zap.Logger
	start  time.Time
}

// PipelineLogger logs the shape of a pipeline while it is built and the completion of its sinks.
func PipelineLogger(logger *zap.Logger) model.PipelineOption {
	return &pipelineLogger{logger: logger.Named("pipeline")}
}

func (pl *pipelineLogger) New() error {
	pl.start = time.Now()

	return nil
}

func (pl *pipelineLogger) PrepareStep(parentStep, step *model.StepInfo) error {
	pl.logger.Debug("step added",
		zap.String("step", step.Name),
		zap.String("parent", parentStep.Name),
		zap.String("type", string(step.Type)),
		zap.Int("concurrent", step.Concurrent),
	)

	return nil
}

func (pl *pipelineLogger) PrepareSink(parentStep, step *model.StepInfo) error {
	return pl.PrepareStep(parentStep, step)
}

func (pl *pipelineLogger) AfterSink(step *model.StepInfo, totalDuration time.Duration) error {
	pl.logger.Debug("sink drained", zap.String("step", step.Name), zap.Duration("elapsed", totalDuration))

	return nil
}

func (pl *pipelineLogger) Finish() error {
	pl.logger.Debug("pipeline finished", zap.Duration("elapsed", time.Since(pl.start)))

	return nil
}

package metrics

import (
	"time"

	"github.com/askiada/go-aisingest/pkg/pipeline/model"
)

type pipelineMetrics struct {
	model.NoopOption
	m *Metrics
}

// PipelineMetrics counts the elements of every step and observes their computation time.
func (m *Metrics) PipelineMetrics() model.PipelineOption {
	return &pipelineMetrics{m: m}
}

func (pm *pipelineMetrics) OnStepOutput(_, step *model.StepInfo, _, computationDuration time.Duration) error {
	pm.m.StepItems.WithLabelValues(step.Name).Inc()
	pm.m.StepDuration.WithLabelValues(step.Name).Observe(computationDuration.Seconds())

	return nil
}

func (pm *pipelineMetrics) OnSinkOutput(parentStep, step *model.StepInfo, iterationDuration, computationDuration time.Duration) error {
	return pm.OnStepOutput(parentStep, step, iterationDuration, computationDuration)
}

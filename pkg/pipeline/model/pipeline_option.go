package model

import "time"

// PipelineOption defines the interface for pipeline options.
type PipelineOption interface {
	// New initialises the pipeline option.
	New() error

	pipelineStepOption
	pipelineSinkOption

	// Finish runs after the pipeline is finished.
	Finish() error
}

// pipelineStepOption defines the interface for step options at the pipeline level.
type pipelineStepOption interface {
	// PrepareStep runs before the step is executed. Root steps have StartStep as parent.
	PrepareStep(parentStep, step *StepInfo) error
	// OnStepOutput runs everytime something is pushed to the output of the step.
	OnStepOutput(parentStep, step *StepInfo, iterationDuration, computationDuration time.Duration) error
}

// pipelineSinkOption defines the interface for sink options at the pipeline level.
type pipelineSinkOption interface {
	// PrepareSink runs before the sink step is executed.
	PrepareSink(parentStep, step *StepInfo) error
	// OnSinkOutput runs everytime the sink consumes an element.
	OnSinkOutput(parentStep, step *StepInfo, iterationDuration, computationDuration time.Duration) error
	// AfterSink runs after the sink step is executed.
	AfterSink(step *StepInfo, totalDuration time.Duration) error
}

// NoopOption implements every hook as a no-op. Embed it to only implement the hooks you need.
type NoopOption struct{}

func (NoopOption) New() error { return nil }

func (NoopOption) Finish() error { return nil }

func (NoopOption) PrepareStep(parentStep, step *StepInfo) error { return nil }

func (NoopOption) PrepareSink(parentStep, step *StepInfo) error { return nil }

func (NoopOption) OnStepOutput(parentStep, step *StepInfo, iterationDuration, computationDuration time.Duration) error {
	return nil
}

func (NoopOption) OnSinkOutput(parentStep, step *StepInfo, iterationDuration, computationDuration time.Duration) error {
	return nil
}

func (NoopOption) AfterSink(step *StepInfo, totalDuration time.Duration) error { return nil }

var _ PipelineOption = NoopOption{}

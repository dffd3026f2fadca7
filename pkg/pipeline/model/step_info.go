package model

// StepType tells which kind of node a step is in the pipeline graph.
type StepType string

const (
	RootStepType   StepType = "root"
	NormalStepType StepType = "step"
	SinkStepType   StepType = "sink"
)

// StepInfo describes a step to pipeline options.
type StepInfo struct {
	Type       StepType
	Name       string
	Concurrent int
}

var (
	StartStep = &Step[any]{Details: &StepInfo{Name: "start"}}
	EndStep   = &Step[any]{Details: &StepInfo{Name: "end"}}
)

// Step is a typed node of the pipeline. Output is closed once the step is done.
type Step[O any] struct {
	Output  chan O
	Details *StepInfo
}

// Package pipeline provides a pipeline for processing data.
//
// A pipeline is a chain of typed steps connected by channels. A root step produces elements, intermediate steps
// transform them one-to-one or one-to-many and a sink consumes them. Each step runs in its own goroutine and can
// fan out to several workers with StepConcurrency, so slow stages such as file extraction or database copies can
// run in parallel while the rest of the chain keeps streaming.
//
// The pipeline stops on the first error. Every step watches the pipeline context, so as soon as one step fails
// the others stop pushing new elements. Run waits for every step to return, then returns the error wrapped with
// the name of the failing step.
//
// Options implementing model.PipelineOption observe the pipeline while it is built and while it runs. The
// measure and drawer packages provide options to time each step and to draw the executed graph.
package pipeline

package pipeline

import (
	"context"
	"time"

	"github.com/pkg/errors"

	"github.com/askiada/go-aisingest/pkg/pipeline/model"
)

// AddSink adds a step consuming every element of input. The pipeline stops on the first error returned by sinkFn.
func AddSink[I any](pipe *Pipeline, name string, input *model.Step[I], sinkFn func(ctx context.Context, input I) error) error {
	if pipe == nil {
		return ErrPipelineMustBeSet
	}
	if input == nil {
		return ErrInputMustBeSet
	}
	details := &model.StepInfo{
		Type:       model.SinkStepType,
		Name:       name,
		Concurrent: 1,
	}
	parent := parentDetails(input)
	for _, opt := range pipe.opts {
		err := opt.PrepareSink(parent, details)
		if err != nil {
			return errors.Wrap(err, "unable to run prepare sink option")
		}
	}

	errC := make(chan error, 1)
	go func() {
		defer close(errC)
		err := runSink(pipe, parent, details, input, sinkFn)
		if err != nil {
			errC <- err
		}
	}()
	pipe.errcList.add(newErrorChan(name, errC))

	return nil
}

func runSink[I any](pipe *Pipeline, parent, details *model.StepInfo, input *model.Step[I], sinkFn func(ctx context.Context, input I) error) error {
	for {
		startIter := time.Now()
		select {
		case <-pipe.ctx.Done():
			return pipe.ctx.Err()
		case in, ok := <-input.Output:
			if !ok {
				for _, opt := range pipe.opts {
					err := opt.AfterSink(details, time.Since(pipe.startTime))
					if err != nil {
						return errors.Wrap(err, "unable to run after sink option")
					}
				}

				return nil
			}
			endIter := time.Since(startIter)

			startFn := time.Now()
			err := sinkFn(pipe.ctx, in)
			if err != nil {
				return err
			}
			endFn := time.Since(startFn)
			for _, opt := range pipe.opts {
				err := opt.OnSinkOutput(parent, details, endIter, endFn)
				if err != nil {
					return errors.Wrap(err, "unable to run sink output option")
				}
			}
		}
	}
}

package pipeline

import (
	"context"
	"reflect"
	"time"

	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"

	"github.com/askiada/go-aisingest/pkg/pipeline/model"
)

// outputHook is called each time a step pushes an element to its output.
type outputHook func(iterationDuration, computationDuration time.Duration) error

func (h outputHook) call(iterationDuration, computationDuration time.Duration) error {
	if h == nil {
		return nil
	}

	return h(iterationDuration, computationDuration)
}

func isZero[O any](v O) bool {
	return reflect.ValueOf(&v).Elem().IsZero()
}

func sequentialOneToOne[I, O any](
	ctx context.Context, goIdx int, input *model.Step[I], output *model.Step[O],
	oneToOneFn func(context.Context, I) (O, error), skipZero bool, onOutput outputHook,
) error {
	for {
		startIter := time.Now()
		select {
		case <-ctx.Done():
			return errors.Wrapf(ctx.Err(), "go routine %d", goIdx)
		case in, ok := <-input.Output:
			if !ok {
				return nil
			}
			startFn := time.Now()
			out, err := oneToOneFn(ctx, in)
			if err != nil {
				return errors.Wrapf(err, "go routine %d", goIdx)
			}
			endFn := time.Since(startFn)
			if skipZero && isZero(out) {
				continue
			}

			// we check the context again to make sure all go routines currently running
			// stop to add new elements to the pipeline
			select {
			case <-ctx.Done():
				return errors.Wrapf(ctx.Err(), "go routine %d", goIdx)
			case output.Output <- out:
				err = onOutput.call(time.Since(startIter)-endFn, endFn)
				if err != nil {
					return errors.Wrap(err, "unable to run step output option")
				}
			}
		}
	}
}

func runOneToOne[I, O any](
	ctx context.Context, input *model.Step[I], output *model.Step[O],
	oneToOneFn func(context.Context, I) (O, error), skipZero bool, onOutput outputHook,
) error {
	concurrent := output.Details.Concurrent
	if concurrent <= 1 {
		return sequentialOneToOne(ctx, 0, input, output, oneToOneFn, skipZero, onOutput)
	}

	// each worker stops as soon as one of them returns an error
	errGrp, dCtx := errgroup.WithContext(ctx)
	for goIdx := 0; goIdx < concurrent; goIdx++ {
		localGoIdx := goIdx
		errGrp.Go(func() error {
			return sequentialOneToOne(dCtx, localGoIdx, input, output, oneToOneFn, skipZero, onOutput)
		})
	}

	return errGrp.Wait()
}

func sequentialOneToMany[I, O any](
	ctx context.Context, goIdx int, input *model.Step[I], output *model.Step[O],
	oneToManyFn func(context.Context, I) ([]O, error), onOutput outputHook,
) error {
	for {
		startIter := time.Now()
		select {
		case <-ctx.Done():
			return errors.Wrapf(ctx.Err(), "go routine %d", goIdx)
		case in, ok := <-input.Output:
			if !ok {
				return nil
			}
			startFn := time.Now()
			outs, err := oneToManyFn(ctx, in)
			if err != nil {
				return errors.Wrapf(err, "go routine %d", goIdx)
			}
			endFn := time.Since(startFn)
			for _, out := range outs {
				select {
				case <-ctx.Done():
					return errors.Wrapf(ctx.Err(), "go routine %d", goIdx)
				case output.Output <- out:
					err = onOutput.call(time.Since(startIter)-endFn, endFn)
					if err != nil {
						return errors.Wrap(err, "unable to run step output option")
					}
				}
			}
		}
	}
}

func runOneToMany[I, O any](
	ctx context.Context, input *model.Step[I], output *model.Step[O],
	oneToManyFn func(context.Context, I) ([]O, error), onOutput outputHook,
) error {
	concurrent := output.Details.Concurrent
	if concurrent <= 1 {
		return sequentialOneToMany(ctx, 0, input, output, oneToManyFn, onOutput)
	}

	errGrp, dCtx := errgroup.WithContext(ctx)
	for goIdx := 0; goIdx < concurrent; goIdx++ {
		localGoIdx := goIdx
		errGrp.Go(func() error {
			return sequentialOneToMany(dCtx, localGoIdx, input, output, oneToManyFn, onOutput)
		})
	}

	return errGrp.Wait()
}

func prepareStep[I, O any](pipe *Pipeline, name string, input *model.Step[I], opts ...StepOption[O]) (*model.Step[O], error) {
	if pipe == nil {
		return nil, ErrPipelineMustBeSet
	}
	if input == nil {
		return nil, ErrInputMustBeSet
	}

	step := &model.Step[O]{
		Details: &model.StepInfo{
			Type:       model.NormalStepType,
			Name:       name,
			Concurrent: 1,
		},
		Output: make(chan O),
	}
	for _, opt := range opts {
		opt(step)
	}

	for _, opt := range pipe.opts {
		err := opt.PrepareStep(parentDetails(input), step.Details)
		if err != nil {
			return nil, errors.Wrap(err, "unable to run prepare step option")
		}
	}

	return step, nil
}

func (p *Pipeline) stepOutputHook(parent, step *model.StepInfo) outputHook {
	if len(p.opts) == 0 {
		return nil
	}

	return func(iterationDuration, computationDuration time.Duration) error {
		for _, opt := range p.opts {
			err := opt.OnStepOutput(parent, step, iterationDuration, computationDuration)
			if err != nil {
				return err
			}
		}

		return nil
	}
}

func startStep[I, O any](pipe *Pipeline, input *model.Step[I], step *model.Step[O], run func(ctx context.Context, onOutput outputHook) error) {
	errC := make(chan error, 1)
	onOutput := pipe.stepOutputHook(parentDetails(input), step.Details)

	go func() {
		defer func() {
			close(step.Output)
			close(errC)
		}()
		err := run(pipe.ctx, onOutput)
		if err != nil {
			errC <- err
		}
	}()
	pipe.errcList.add(newErrorChan(step.Details.Name, errC))
}

// AddStepOneToOne adds a step producing exactly one output for each input.
func AddStepOneToOne[I, O any](
	pipe *Pipeline, name string, input *model.Step[I], oneToOneFn func(context.Context, I) (O, error), opts ...StepOption[O],
) (*model.Step[O], error) {
	step, err := prepareStep(pipe, name, input, opts...)
	if err != nil {
		return nil, err
	}
	startStep(pipe, input, step, func(ctx context.Context, onOutput outputHook) error {
		return runOneToOne(ctx, input, step, oneToOneFn, false, onOutput)
	})

	return step, nil
}

// AddStepOneToOneOrZero adds a step producing at most one output for each input. Zero values returned by
// oneToOneFn are not pushed to the output.
func AddStepOneToOneOrZero[I, O any](
	pipe *Pipeline, name string, input *model.Step[I], oneToOneFn func(context.Context, I) (O, error), opts ...StepOption[O],
) (*model.Step[O], error) {
	step, err := prepareStep(pipe, name, input, opts...)
	if err != nil {
		return nil, err
	}
	startStep(pipe, input, step, func(ctx context.Context, onOutput outputHook) error {
		return runOneToOne(ctx, input, step, oneToOneFn, true, onOutput)
	})

	return step, nil
}

// AddStepOneToMany adds a step producing any number of outputs for each input.
func AddStepOneToMany[I, O any](
	pipe *Pipeline, name string, input *model.Step[I], oneToManyFn func(context.Context, I) ([]O, error), opts ...StepOption[O],
) (*model.Step[O], error) {
	step, err := prepareStep(pipe, name, input, opts...)
	if err != nil {
		return nil, err
	}
	startStep(pipe, input, step, func(ctx context.Context, onOutput outputHook) error {
		return runOneToMany(ctx, input, step, oneToManyFn, onOutput)
	})

	return step, nil
}

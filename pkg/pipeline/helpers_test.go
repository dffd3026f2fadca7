package pipeline_test

import (
	"context"
	"testing"

	"github.com/askiada/go-aisingest/pkg/pipeline/model"
)

// createInputStep returns a step whose output is already filled and closed, so no producer goroutine can leak.
func createInputStep(t *testing.T, total int) *model.Step[int] {
	t.Helper()
	inputChan := make(chan int, total)
	for i := 0; i < total; i++ {
		inputChan <- i
	}
	close(inputChan)

	return &model.Step[int]{Output: inputChan}
}

func rootFn(total int, cancelAt int, cancel context.CancelFunc) func(ctx context.Context, rootChan chan<- int) error {
	return func(ctx context.Context, rootChan chan<- int) error {
		for i := 0; i < total; i++ {
			if i == cancelAt && cancel != nil {
				cancel()
			}
			select {
			case <-ctx.Done():
				return ctx.Err()
			case rootChan <- i:
			}
		}

		return nil
	}
}

func collect[O any](t *testing.T, output <-chan O) <-chan []O {
	t.Helper()
	done := make(chan []O, 1)
	go func() {
		var res []O
		for out := range output {
			res = append(res, out)
		}
		done <- res
	}()

	return done
}

package pipeline

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/askiada/go-aisingest/pkg/pipeline/model"
)

func filledStep(total int) *model.Step[int] {
	c := make(chan int, total)
	for i := 0; i < total; i++ {
		c <- i
	}
	close(c)

	return &model.Step[int]{Output: c}
}

func TestRunOneToOne(t *testing.T) {
	t.Parallel()

	tcs := map[string]struct {
		concurrent int
	}{
		"sequential":     {concurrent: 1},
		"sequential v2":  {concurrent: 0},
		"concurrent 2":   {concurrent: 2},
		"concurrent 100": {concurrent: 100},
	}

	for name, tc := range tcs {
		tc := tc
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			output := &model.Step[int]{Output: make(chan int, 10), Details: &model.StepInfo{Concurrent: tc.concurrent}}
			calls := 0
			hook := func(iterationDuration, computationDuration time.Duration) error {
				calls++

				return nil
			}
			if tc.concurrent > 1 {
				hook = nil
			}

			err := runOneToOne(context.Background(), filledStep(10), output, func(ctx context.Context, i int) (int, error) {
				return i, nil
			}, false, hook)
			require.NoError(t, err)
			close(output.Output)

			got := []int{}
			for v := range output.Output {
				got = append(got, v)
			}
			assert.ElementsMatch(t, []int{0, 1, 2, 3, 4, 5, 6, 7, 8, 9}, got)
			if tc.concurrent <= 1 {
				assert.Equal(t, 10, calls)
			}
		})
	}
}

func TestRunOneToOneSkipZero(t *testing.T) {
	t.Parallel()

	output := &model.Step[int]{Output: make(chan int, 10), Details: &model.StepInfo{}}
	err := runOneToOne(context.Background(), filledStep(10), output, func(ctx context.Context, i int) (int, error) {
		return i, nil
	}, true, nil)
	require.NoError(t, err)
	close(output.Output)

	got := []int{}
	for v := range output.Output {
		got = append(got, v)
	}
	assert.ElementsMatch(t, []int{1, 2, 3, 4, 5, 6, 7, 8, 9}, got)
}

func TestRunOneToOneHookError(t *testing.T) {
	t.Parallel()

	output := &model.Step[int]{Output: make(chan int, 10), Details: &model.StepInfo{}}
	err := runOneToOne(context.Background(), filledStep(10), output, func(ctx context.Context, i int) (int, error) {
		return i, nil
	}, false, func(iterationDuration, computationDuration time.Duration) error {
		return assert.AnError
	})
	assert.ErrorIs(t, err, assert.AnError)
}

func TestRunOneToManyCancelled(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	// unbuffered output without a reader: only the cancelled context can unblock the step
	output := &model.Step[int]{Output: make(chan int), Details: &model.StepInfo{Concurrent: 3}}
	err := runOneToMany(ctx, filledStep(10), output, func(ctx context.Context, i int) ([]int, error) {
		return []int{i, i}, nil
	}, nil)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestIsZero(t *testing.T) {
	t.Parallel()

	var nilPtr *int
	var nilErr error
	one := 1

	assert.True(t, isZero(0))
	assert.True(t, isZero(""))
	assert.True(t, isZero(nilPtr))
	assert.True(t, isZero(nilErr))
	assert.False(t, isZero(&one))
	assert.False(t, isZero("a"))
}

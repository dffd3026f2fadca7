// Package plan chains the ingestion entry points. Each task names the tasks it requires and running a task first
// runs its requirements, in dependency order. Tasks are idempotent, so requirements that are already complete
// return immediately.
package plan

import (
	"context"
	"time"

	"github.com/dominikbraun/graph"
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

var ErrUnknownTask = errors.New("unknown task")

// Task is a unit of the plan.
type Task struct {
	Name string
	Run  func(ctx context.Context) error
}

// Plan is a dependency graph of tasks.
type Plan struct {
	graph  graph.Graph[string, Task]
	logger *zap.Logger
}

// New returns an empty plan.
func New(logger *zap.Logger) *Plan {
	return &Plan{
		graph: graph.New(func(t Task) string { return t.Name },
			graph.Directed(), graph.Acyclic(), graph.PreventCycles()),
		logger: logger.Named("plan"),
	}
}

// Add adds task, requiring every task of requires. Required tasks must already be in the plan.
func (p *Plan) Add(task Task, requires ...string) error {
	err := p.graph.AddVertex(task)
	if err != nil {
		return errors.Wrapf(err, "unable to add task %s", task.Name)
	}
	for _, req := range requires {
		_, err = p.graph.Vertex(req)
		if errors.Is(err, graph.ErrVertexNotFound) {
			return errors.Wrapf(ErrUnknownTask, "%s required by %s", req, task.Name)
		}
		err = p.graph.AddEdge(req, task.Name)
		if err != nil {
			return errors.Wrapf(err, "unable to add requirement %s of %s", req, task.Name)
		}
	}

	return nil
}

// Resolve returns target and every task it requires, directly or not, in the order they must run.
func (p *Plan) Resolve(target string) ([]string, error) {
	_, err := p.graph.Vertex(target)
	if errors.Is(err, graph.ErrVertexNotFound) {
		return nil, errors.Wrap(ErrUnknownTask, target)
	}
	if err != nil {
		return nil, errors.Wrapf(err, "unable to find task %s", target)
	}

	predecessors, err := p.graph.PredecessorMap()
	if err != nil {
		return nil, errors.Wrap(err, "unable to list requirements")
	}
	needed := map[string]bool{}
	var visit func(name string)
	visit = func(name string) {
		if needed[name] {
			return
		}
		needed[name] = true
		for req := range predecessors[name] {
			visit(req)
		}
	}
	visit(target)

	order, err := graph.StableTopologicalSort(p.graph, func(a, b string) bool { return a < b })
	if err != nil {
		return nil, errors.Wrap(err, "unable to sort tasks")
	}
	res := make([]string, 0, len(needed))
	for _, name := range order {
		if needed[name] {
			res = append(res, name)
		}
	}

	return res, nil
}

// Tasks returns the names of every task of the plan in the order they must run.
func (p *Plan) Tasks() ([]string, error) {
	order, err := graph.StableTopologicalSort(p.graph, func(a, b string) bool { return a < b })

	return order, errors.Wrap(err, "unable to sort tasks")
}

// Run runs target after its requirements. It stops at the first error.
func (p *Plan) Run(ctx context.Context, target string) error {
	order, err := p.Resolve(target)
	if err != nil {
		return err
	}
	for _, name := range order {
		task, err := p.graph.Vertex(name)
		if err != nil {
			return errors.Wrapf(err, "unable to find task %s", name)
		}

		start := time.Now()
		p.logger.Info("task started", zap.String("task", name))
		err = task.Run(ctx)
		if err != nil {
			return errors.Wrapf(err, "task %s", name)
		}
		p.logger.Info("task finished", zap.String("task", name), zap.Duration("elapsed", time.Since(start)))
	}

	return nil
}

package async

import (
	"context"
	"fmt"
	"runtime/debug"

	"golang.org/x/sync/errgroup"
)

// Task represents an asynchronous operation with a name and function.
type Task struct {
	Name string
	Func func(context.Context) error
}

// Result is the outcome of a single task.
type Result struct {
	Name string
	Err  error
}

// PanicError reports a task that panicked.
type PanicError struct {
	Value any
	Stack []byte
}

func (e *PanicError) Error() string {
	return fmt.Sprintf("panic: %v", e.Value)
}

// Run executes tasks with at most limit running at the same time and
// waits for all of them. Results are returned in task order. A limit
// below 1 is treated as 1, which runs tasks sequentially in order.
//
// Task errors are collected, never propagated to siblings: the context
// passed to each task is ctx itself, not cancelled when another task fails.
func Run(ctx context.Context, tasks []Task, limit int) []Result {
	results := make([]Result, len(tasks))
	if len(tasks) == 0 {
		return results
	}
	if limit < 1 {
		limit = 1
	}

	var g errgroup.Group
	g.SetLimit(limit)

	for i, task := range tasks {
		results[i].Name = task.Name
		g.Go(func() error {
			results[i].Err = runTask(ctx, task)
			return nil
		})
	}
	_ = g.Wait()

	return results
}

func runTask(ctx context.Context, task Task) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = &PanicError{Value: r, Stack: debug.Stack()}
		}
	}()
	return task.Func(ctx)
}

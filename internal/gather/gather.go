// Package gather runs independent read-only queries concurrently.
//
// Only queries go through here. State-changing transactions depend on the
// confirmed outcome and nonce of the previous one and are always sent
// sequentially by the caller.
package gather

import (
	"context"
	"errors"
	"fmt"

	"golang.org/x/sync/errgroup"
)

// Task is one named query.
type Task[T any] struct {
	Name string
	Run  func(ctx context.Context) (T, error)
}

// Result is the outcome of the task at Index.
type Result[T any] struct {
	Name  string
	Index int
	Value T
	Err   error
}

// ExecuteAll issues every query at once and returns one Result per task,
// positioned as the task was. A failed query does not cancel its siblings,
// so a caller reading symbol, decimals and balance sees every error at once.
func ExecuteAll[T any](ctx context.Context, tasks []Task[T]) []Result[T] {
	results := make([]Result[T], len(tasks))
	var g errgroup.Group
	for i, t := range tasks {
		g.Go(func() error {
			v, err := t.Run(ctx)
			// each goroutine owns its slot
			results[i] = Result[T]{Name: t.Name, Index: i, Value: v, Err: err}
			return nil
		})
	}
	_ = g.Wait()
	return results
}

// Err joins the errors of all failed results, or returns nil.
func Err[T any](results []Result[T]) error {
	var errs []error
	for _, r := range results {
		if r.Err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", r.Name, r.Err))
		}
	}
	return errors.Join(errs...)
}

// Package task runs detached background work with an explicit completion handle.
package task

import (
	"context"
	"fmt"
	"runtime/debug"
	"sync"

	"oliver-admin/internal/logging"
)

// Task is a handle on one background function.
type Task struct {
	name string
	done chan struct{}
	err  error
}

// Done is closed when the function has returned.
func (t *Task) Done() <-chan struct{} {
	return t.done
}

// Err returns the function's error once Done is closed.
func (t *Task) Err() error {
	select {
	case <-t.done:
		return t.err
	default:
		return nil
	}
}

// Wait blocks until the task finishes or ctx ends.
func (t *Task) Wait(ctx context.Context) error {
	select {
	case <-t.done:
		return t.err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Group tracks tasks so callers can drain them on shutdown.
type Group struct {
	wg sync.WaitGroup
}

// Go starts fn detached from the caller's cancellation. Values carried by
// ctx stay visible. A panic in fn is recovered and reported as the task error.
func (g *Group) Go(ctx context.Context, name string, fn func(ctx context.Context) error) *Task {
	t := &Task{name: name, done: make(chan struct{})}
	runCtx := context.WithoutCancel(ctx)
	if g != nil {
		g.wg.Add(1)
	}
	go func() {
		defer func() {
			if rec := recover(); rec != nil {
				t.err = fmt.Errorf("task %s panicked: %v", name, rec)
				logging.Ctx(runCtx).Error().
					Str("task", name).
					Str("stack", string(debug.Stack())).
					Msg("background task panic")
			}
			if t.err != nil {
				logging.Ctx(runCtx).Warn().Err(t.err).Str("task", name).Msg("background task failed")
			}
			close(t.done)
			if g != nil {
				g.wg.Done()
			}
		}()
		t.err = fn(runCtx)
	}()
	return t
}

// Wait blocks until every task started through g has finished or ctx ends.
func (g *Group) Wait(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		g.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

package ui

import (
	"context"
	"errors"
)

// Controller drives Reduce synchronously for callers without an event loop,
// such as the headless CLI commands.
type Controller struct {
	runner *Runner
	state  State
}

// NewController returns a controller starting from an empty State.
func NewController(runner *Runner) *Controller {
	return &Controller{runner: runner}
}

// State returns the current state.
func (c *Controller) State() State {
	return c.state
}

// Dispatch applies action and runs every resulting effect to completion,
// feeding outcomes back through Reduce. Backend failures do not stop the
// chain; they are joined into the returned error.
func (c *Controller) Dispatch(ctx context.Context, action Action) (State, error) {
	var errs []error
	queue := []Action{action}

	for len(queue) > 0 {
		next := queue[0]
		queue = queue[1:]

		state, effects := Reduce(c.state, next)
		c.state = state

		for _, effect := range effects {
			result := c.runner.Run(ctx, effect)
			if result == nil {
				continue
			}
			if err := actionErr(result); err != nil {
				errs = append(errs, err)
			}
			queue = append(queue, result)
		}
	}

	return c.state, errors.Join(errs...)
}

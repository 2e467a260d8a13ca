package linkmut

import (
	"context"
	"fmt"
	"sync"
)

// ConfState is the confirmation flow state for a destructive action
type ConfState int

const (
	ConfIdle ConfState = iota
	ConfPending
	ConfDeleting
)

func (s ConfState) String() string {
	switch s {
	case ConfIdle:
		return "idle"
	case ConfPending:
		return "confirm_pending"
	case ConfDeleting:
		return "deleting"
	default:
		return "invalid"
	}
}

// Confirmation gates one destructive action behind an explicit two-step
// flow: Request opens the dialog, Confirm runs the action, Cancel backs
// out. A failed action returns to pending with the error attached so the
// dialog reopens showing it. All destructive flows (unlink, entity delete,
// version delete) share this machine.
type Confirmation struct {
	mu     sync.Mutex
	state  ConfState
	err    error
	action func(context.Context) error
}

// NewConfirmation wraps action in an unconfirmed flow
func NewConfirmation(action func(context.Context) error) *Confirmation {
	return &Confirmation{action: action}
}

// State returns the current flow state
func (c *Confirmation) State() ConfState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Err returns the failure of the last confirm attempt, if any
func (c *Confirmation) Err() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.err
}

// Request moves Idle to ConfirmPending
func (c *Confirmation) Request() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state != ConfIdle {
		return fmt.Errorf("cannot request confirmation in state %s", c.state)
	}
	c.state = ConfPending
	return nil
}

// Cancel abandons a pending confirmation without running the action
func (c *Confirmation) Cancel() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state != ConfPending {
		return fmt.Errorf("cannot cancel in state %s", c.state)
	}
	c.state = ConfIdle
	c.err = nil
	return nil
}

// Confirm runs the action. On success the flow returns to Idle; on failure
// it returns to ConfirmPending carrying the error.
func (c *Confirmation) Confirm(ctx context.Context) error {
	c.mu.Lock()
	if c.state != ConfPending {
		state := c.state
		c.mu.Unlock()
		return fmt.Errorf("cannot confirm in state %s", state)
	}
	c.state = ConfDeleting
	action := c.action
	c.mu.Unlock()

	err := action(ctx)

	c.mu.Lock()
	defer c.mu.Unlock()
	if err != nil {
		c.state = ConfPending
		c.err = err
		return err
	}
	c.state = ConfIdle
	c.err = nil
	return nil
}

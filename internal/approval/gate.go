package approval

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// DefaultTimeout is how long a write waits for an operator decision.
const DefaultTimeout = 5 * time.Minute

// State is the approval state of a single request.
type State int

const (
	// Idle means the request is not waiting on the gate.
	Idle State = iota
	// PendingApproval means the request is queued for or showing a prompt.
	PendingApproval
	// Approved means the operator said yes.
	Approved
	// Rejected means the operator said no, did not answer, or the channel failed.
	Rejected
)

// String returns the string representation of a State.
func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case PendingApproval:
		return "pending_approval"
	case Approved:
		return "approved"
	case Rejected:
		return "rejected"
	default:
		return "unknown"
	}
}

// GateOptions configures a Gate.
type GateOptions struct {
	// Enabled turns the gate on. A disabled gate approves immediately.
	Enabled bool

	// Confirmer answers prompts. Required when Enabled.
	Confirmer Confirmer

	// Timeout bounds each prompt once it is shown. Zero means DefaultTimeout.
	Timeout time.Duration

	// Slots is how many prompts may be outstanding at once. Zero means one,
	// which keeps console prompts from interleaving.
	Slots int

	// OnTransition, if set, is called on every state change.
	OnTransition func(p Prompt, from, to State)
}

// Gate serializes write requests onto a confirmation channel.
// Waiting suspends only the calling request.
type Gate struct {
	enabled   bool
	confirmer Confirmer
	timeout   time.Duration
	slots     chan struct{}
	observe   func(p Prompt, from, to State)
}

// NewGate creates a Gate. It returns an error if the gate is enabled
// without a Confirmer.
func NewGate(opts GateOptions) (*Gate, error) {
	if opts.Enabled && opts.Confirmer == nil {
		return nil, errors.New("approval gate enabled without a confirmer")
	}
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}
	if opts.Slots <= 0 {
		opts.Slots = 1
	}
	return &Gate{
		enabled:   opts.Enabled,
		confirmer: opts.Confirmer,
		timeout:   opts.Timeout,
		slots:     make(chan struct{}, opts.Slots),
		observe:   opts.OnTransition,
	}, nil
}

// Disabled returns a gate that approves every request without prompting.
func Disabled() *Gate {
	g, _ := NewGate(GateOptions{})
	return g
}

// Enabled reports whether the gate prompts for writes.
func (g *Gate) Enabled() bool {
	return g.enabled
}

// Await blocks until the request in p is approved, rejected or its context
// is done. It returns nil on approval, an error wrapping ErrRejected or
// ErrTimeout on a negative outcome, and ctx.Err() if the caller went away.
// A request cancelled while queued leaves the queue without taking a slot.
func (g *Gate) Await(ctx context.Context, p Prompt) error {
	if !g.enabled {
		return nil
	}

	g.transition(p, Idle, PendingApproval)

	select {
	case g.slots <- struct{}{}:
	case <-ctx.Done():
		g.transition(p, PendingApproval, Idle)
		return ctx.Err()
	}
	defer func() { <-g.slots }()

	promptCtx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	ok, err := g.confirmer.Confirm(promptCtx, p)

	switch {
	case ctx.Err() != nil:
		g.transition(p, PendingApproval, Idle)
		return ctx.Err()
	case errors.Is(err, ErrTimeout), !ok && errors.Is(promptCtx.Err(), context.DeadlineExceeded):
		g.settle(p, Rejected)
		return fmt.Errorf("%w after %s", ErrTimeout, g.timeout)
	case err != nil:
		g.settle(p, Rejected)
		return fmt.Errorf("%w: %w", ErrRejected, err)
	case !ok:
		g.settle(p, Rejected)
		return ErrRejected
	default:
		g.settle(p, Approved)
		return nil
	}
}

func (g *Gate) settle(p Prompt, to State) {
	g.transition(p, PendingApproval, to)
	g.transition(p, to, Idle)
}

func (g *Gate) transition(p Prompt, from, to State) {
	if g.observe != nil {
		g.observe(p, from, to)
	}
}

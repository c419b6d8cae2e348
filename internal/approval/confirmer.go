// Package approval implements the optional human confirmation gate for
// write commands and the channels an operator can answer on.
package approval

import (
	"context"
	"errors"
	"sync"
)

var (
	// ErrRejected is returned when the operator declines a request or the
	// confirmation channel fails.
	ErrRejected = errors.New("write command rejected by operator")

	// ErrTimeout is returned when no answer arrives within the approval timeout.
	ErrTimeout = errors.New("no approval decision before timeout")
)

// Prompt is what the operator sees when asked to confirm a write.
type Prompt struct {
	RequestID string
	Command   string
	Profile   string
	Region    string
}

// Target renders the profile and region for display.
func (p Prompt) Target() string {
	profile, region := p.Profile, p.Region
	if profile == "" {
		profile = "(default)"
	}
	if region == "" {
		region = "(default)"
	}
	return "profile " + profile + ", region " + region
}

// Confirmer asks an operator to approve a write command. Confirm blocks
// until the operator answers or ctx is done, and must return promptly once
// ctx is done.
type Confirmer interface {
	Confirm(ctx context.Context, p Prompt) (bool, error)
}

// ConfirmerFunc adapts a function to the Confirmer interface.
type ConfirmerFunc func(ctx context.Context, p Prompt) (bool, error)

// Confirm calls f.
func (f ConfirmerFunc) Confirm(ctx context.Context, p Prompt) (bool, error) {
	return f(ctx, p)
}

// StaticConfirmer answers every prompt with a fixed result and records the
// prompts it received.
type StaticConfirmer struct {
	Answer bool
	Err    error

	mu    sync.Mutex
	calls []Prompt
}

// Confirm records p and returns the configured answer.
func (s *StaticConfirmer) Confirm(ctx context.Context, p Prompt) (bool, error) {
	s.mu.Lock()
	s.calls = append(s.calls, p)
	s.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return false, err
	}
	return s.Answer, s.Err
}

// Calls returns a copy of the prompts received so far.
func (s *StaticConfirmer) Calls() []Prompt {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Prompt, len(s.calls))
	copy(out, s.calls)
	return out
}

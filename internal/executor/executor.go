// Package executor runs aws CLI commands as child processes and reports
// their outcome as values.
package executor

import (
	"context"
	"time"
)

// Executor executes aws commands.
type Executor interface {
	Execute(ctx context.Context, req ExecuteRequest) ExecuteResponse
}

// ExecuteRequest contains the command execution parameters.
type ExecuteRequest struct {
	Args    []string      `json:"args"` // arguments after the program name
	Profile string        `json:"profile,omitempty"`
	Region  string        `json:"region,omitempty"`
	Timeout time.Duration `json:"timeout,omitempty"`
}

// ExecuteResponse contains the result of command execution.
type ExecuteResponse struct {
	Status   string        `json:"status"` // "completed", "timeout", "canceled", "error"
	ExitCode int           `json:"exit_code"`
	Stdout   string        `json:"stdout,omitempty"`
	Stderr   string        `json:"stderr,omitempty"`
	TimedOut bool          `json:"timed_out,omitempty"`
	Error    string        `json:"error,omitempty"`
	Duration time.Duration `json:"duration"`
}

// Status constants for ExecuteResponse.Status.
const (
	StatusCompleted = "completed"
	StatusTimeout   = "timeout"
	StatusCanceled  = "canceled"
	StatusError     = "error"
)

// ExitCodeNone is the exit code reported when the process did not exit on
// its own.
const ExitCodeNone = -1

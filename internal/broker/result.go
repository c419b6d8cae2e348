package broker

import (
	"time"

	"github.com/xdg/awsgate/internal/catalogue"
)

// Status is the overall outcome of a request.
type Status string

const (
	StatusOK       Status = "ok"       // aws exited 0
	StatusFailed   Status = "failed"   // aws exited non-zero
	StatusDenied   Status = "denied"   // never executed
	StatusTimeout  Status = "timeout"  // killed after the execution timeout
	StatusCanceled Status = "canceled" // caller went away
	StatusError    Status = "error"    // aws could not be started
)

// Denial codes not produced by the policy package.
const (
	CodeUnknownTool      = "unknown_tool"
	CodeEmptyCommand     = "empty_command"
	CodeInvalidCommand   = "invalid_command"
	CodeApprovalRejected = "approval_rejected"
	CodeApprovalTimeout  = "approval_timeout"
)

// Request is one tool invocation.
type Request struct {
	Tool    string
	Command string
	Profile string // optional
	Region  string // optional
}

// Result is what the caller gets back. Denials are results, not errors.
type Result struct {
	RequestID      string
	Status         Status
	Code           string
	Reason         string
	Classification catalogue.Classification
	Entry          string
	Profile        string
	Region         string
	ExitCode       int
	Stdout         string
	Stderr         string
	TimedOut       bool
	Error          string
	Duration       time.Duration
}

// Executed reports whether the aws process was started.
func (r Result) Executed() bool {
	switch r.Status {
	case StatusOK, StatusFailed, StatusTimeout:
		return true
	case StatusCanceled:
		return r.Duration > 0
	}
	return false
}

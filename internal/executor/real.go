package executor

import (
	"bytes"
	"context"
	"errors"
	"os"
	"os/exec"
	"time"
)

// DefaultWaitDelay bounds how long output pipes are drained after the
// process group has been killed.
const DefaultWaitDelay = 2 * time.Second

// AWSExecutor runs the aws program with os/exec.
type AWSExecutor struct {
	// Binary is the program to run. Defaults to "aws".
	Binary string

	// WaitDelay is passed to exec.Cmd.WaitDelay. Zero means DefaultWaitDelay.
	WaitDelay time.Duration
}

// NewAWSExecutor creates an executor for binary ("aws" when empty).
func NewAWSExecutor(binary string) *AWSExecutor {
	if binary == "" {
		binary = "aws"
	}
	return &AWSExecutor{Binary: binary}
}

// BuildArgs returns the full argument list: [--profile P] [--region R] args...
func BuildArgs(req ExecuteRequest) []string {
	args := make([]string, 0, len(req.Args)+4)
	if req.Profile != "" {
		args = append(args, "--profile", req.Profile)
	}
	if req.Region != "" {
		args = append(args, "--region", req.Region)
	}
	return append(args, req.Args...)
}

// Execute runs the command and returns the result. The child runs in its
// own process group, which is killed as a whole on timeout or cancellation.
func (e *AWSExecutor) Execute(ctx context.Context, req ExecuteRequest) ExecuteResponse {
	start := time.Now()

	runCtx := ctx
	if req.Timeout > 0 {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithTimeout(ctx, req.Timeout)
		defer cancel()
	}

	cmd := exec.CommandContext(runCtx, e.Binary, BuildArgs(req)...)
	cmd.Env = append(os.Environ(), "AWS_PAGER=")
	cmd.WaitDelay = e.WaitDelay
	if cmd.WaitDelay <= 0 {
		cmd.WaitDelay = DefaultWaitDelay
	}
	setProcessGroup(cmd)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	resp := ExecuteResponse{
		Stdout:   stdout.String(),
		Stderr:   stderr.String(),
		Duration: time.Since(start),
	}

	if err == nil {
		resp.Status = StatusCompleted
		return resp
	}

	switch {
	case ctx.Err() != nil:
		resp.Status = StatusCanceled
		resp.ExitCode = ExitCodeNone
		resp.Error = "command canceled"
		return resp
	case errors.Is(runCtx.Err(), context.DeadlineExceeded):
		resp.Status = StatusTimeout
		resp.ExitCode = ExitCodeNone
		resp.TimedOut = true
		resp.Error = "command timed out after " + req.Timeout.String()
		return resp
	}

	var execErr *exec.Error
	if errors.As(err, &execErr) {
		resp.Status = StatusError
		resp.ExitCode = ExitCodeNone
		resp.Error = "executable not found: " + e.Binary
		return resp
	}

	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		resp.Status = StatusCompleted
		resp.ExitCode = exitErr.ExitCode()
		return resp
	}

	resp.Status = StatusError
	resp.ExitCode = ExitCodeNone
	resp.Error = err.Error()
	return resp
}

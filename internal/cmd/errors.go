package cmd

import (
	"errors"
	"fmt"

	"github.com/xdg/awsgate/internal/approval"
	"github.com/xdg/awsgate/internal/catalogue"
	"github.com/xdg/awsgate/internal/config"
)

// Exit codes for failures the caller may want to tell apart.
const (
	ExitConfig   = 2 // invalid configuration or catalogue
	ExitTerminal = 3 // terminal approval requested without a terminal
)

// ExitCodeError carries a process exit code through cobra.
type ExitCodeError struct {
	Code int
	Err  error
}

// NewExitCodeError returns an ExitCodeError with no message of its own.
func NewExitCodeError(code int) *ExitCodeError {
	return &ExitCodeError{Code: code}
}

func (e *ExitCodeError) Error() string {
	if e.Err != nil {
		return e.Err.Error()
	}
	return fmt.Sprintf("exit code %d", e.Code)
}

func (e *ExitCodeError) Unwrap() error {
	return e.Err
}

// startupError attaches an exit code to the errors serve can fail with
// before it accepts requests. Other errors are returned unchanged.
func startupError(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, config.ErrInvalid), errors.Is(err, catalogue.ErrInvalidEntry):
		return &ExitCodeError{Code: ExitConfig, Err: err}
	case errors.Is(err, approval.ErrNoTerminal):
		return &ExitCodeError{
			Code: ExitTerminal,
			Err:  fmt.Errorf("%w; use --approval-channel web or run awsgate from a terminal", err),
		}
	}
	return err
}

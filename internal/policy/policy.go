// Package policy decides whether a classified command may run under the
// tool the caller chose.
package policy

import (
	"errors"
	"fmt"

	"github.com/xdg/awsgate/internal/catalogue"
)

// ErrIntentMismatch is wrapped by Decision.Err for every denial.
var ErrIntentMismatch = errors.New("tool intent does not match command classification")

// Intent is the caller's declared permission tier.
type Intent int

const (
	// ReadIntent is selected by the read tool.
	ReadIntent Intent = iota
	// WriteIntent is selected by the write tool.
	WriteIntent
)

// String returns the string representation of an Intent.
func (i Intent) String() string {
	switch i {
	case ReadIntent:
		return "read"
	case WriteIntent:
		return "write"
	default:
		return "unknown"
	}
}

// Outcome is the result of a policy decision.
type Outcome int

const (
	// Denied means the command must not run.
	Denied Outcome = iota
	// Allowed means the command may run, subject to the approval gate for writes.
	Allowed
)

// String returns the string representation of an Outcome.
func (o Outcome) String() string {
	if o == Allowed {
		return "allowed"
	}
	return "denied"
}

// Reason codes carried by denials.
const (
	CodeWriteOnReadTool = "write_command_on_read_tool"
	CodeReadOnWriteTool = "read_command_on_write_tool"
)

// Tool names the guidance strings point callers at.
const (
	ReadToolName  = "execute_aws_read_command"
	WriteToolName = "execute_aws_write_command"
)

// Decision is the policy verdict for one request.
type Decision struct {
	Outcome Outcome
	Code    string
	Reason  string
}

// Allowed reports whether the decision permits execution.
func (d Decision) Allowed() bool {
	return d.Outcome == Allowed
}

// Err returns nil for an allowed decision and an error wrapping
// ErrIntentMismatch otherwise.
func (d Decision) Err() error {
	if d.Allowed() {
		return nil
	}
	return fmt.Errorf("%w: %s: %s", ErrIntentMismatch, d.Code, d.Reason)
}

// Decide applies the intent/classification truth table. Nothing else
// influences the outcome.
func Decide(intent Intent, class catalogue.Classification) Decision {
	switch {
	case intent == ReadIntent && class == catalogue.ReadOnly:
		return Decision{Outcome: Allowed}
	case intent == WriteIntent && class == catalogue.Writeish:
		return Decision{Outcome: Allowed}
	case intent == ReadIntent:
		return Decision{
			Outcome: Denied,
			Code:    CodeWriteOnReadTool,
			Reason:  "this command is a write operation; use the " + WriteToolName + " tool",
		}
	case intent == WriteIntent:
		return Decision{
			Outcome: Denied,
			Code:    CodeReadOnWriteTool,
			Reason:  "this command is read-only; use the " + ReadToolName + " tool",
		}
	default:
		return Decision{Outcome: Denied, Code: "unknown_intent", Reason: "unknown tool intent"}
	}
}

package mcpserver

import (
	"fmt"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/xdg/awsgate/internal/broker"
)

// CommandOutput is the structured result of the execution tools. The text
// content carries the same outcome for clients that ignore structured
// content.
type CommandOutput struct {
	Status    string `json:"status" jsonschema:"ok, failed, denied, timeout, canceled or error"`
	Code      string `json:"code,omitempty" jsonschema:"machine-readable denial code, set when status is denied"`
	Reason    string `json:"reason,omitempty" jsonschema:"why the command was denied or could not run"`
	ExitCode  int    `json:"exit_code" jsonschema:"exit code of the aws process, -1 if it never exited"`
	TimedOut  bool   `json:"timed_out" jsonschema:"whether the command was killed after the execution timeout"`
	RequestID string `json:"request_id" jsonschema:"identifier of the request in the audit log"`
}

// Output returns the structured form of a broker result.
func Output(res broker.Result) CommandOutput {
	reason := res.Reason
	if reason == "" {
		reason = res.Error
	}
	return CommandOutput{
		Status:    string(res.Status),
		Code:      res.Code,
		Reason:    reason,
		ExitCode:  res.ExitCode,
		TimedOut:  res.TimedOut,
		RequestID: res.RequestID,
	}
}

// FormatResult renders a broker result as tool output. Anything other than
// a zero exit is flagged IsError so the client can tell it apart.
func FormatResult(res broker.Result) *mcp.CallToolResult {
	switch res.Status {
	case broker.StatusOK:
		if strings.TrimSpace(res.Stdout) == "" {
			return textResult("Command completed successfully with no output")
		}
		return textResult(res.Stdout)
	case broker.StatusFailed:
		return errorResult(withStderr(fmt.Sprintf("Command failed (exit %d)", res.ExitCode), res.Stderr))
	case broker.StatusDenied:
		return errorResult(fmt.Sprintf("Denied (%s): %s", res.Code, res.Reason))
	case broker.StatusTimeout:
		return errorResult(withStderr("Error: "+res.Error, res.Stderr))
	case broker.StatusCanceled:
		return errorResult("Command canceled")
	default:
		return errorResult("Error executing command: " + res.Error)
	}
}

func withStderr(head, stderr string) string {
	stderr = strings.TrimSpace(stderr)
	if stderr == "" {
		return head
	}
	return head + ":\n" + stderr
}

func textResult(text string) *mcp.CallToolResult {
	return &mcp.CallToolResult{Content: []mcp.Content{&mcp.TextContent{Text: text}}}
}

func errorResult(text string) *mcp.CallToolResult {
	r := textResult(text)
	r.IsError = true
	return r
}

// Package mcpserver exposes the broker as MCP tools over stdio or
// streamable HTTP.
package mcpserver

import (
	"context"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/xdg/awsgate/internal/broker"
	"github.com/xdg/awsgate/internal/fixer"
	"github.com/xdg/awsgate/internal/policy"
	"github.com/xdg/awsgate/internal/version"
)

// Name is the implementation name reported at initialization.
const Name = "awsgate"

// Tool names beyond the two execution tools.
const (
	ListProfilesToolName = "list_aws_profiles"
	FixToolName          = "fix_aws_command_error"
)

// Instructions is sent to clients at initialization.
const Instructions = `You are connected to an AWS CLI server with an enforced permission model.

1. execute_aws_read_command runs read-only commands (list, describe, get, show, ls, head). Do not ask the user for permission; run them directly.
2. execute_aws_write_command runs commands that change AWS resources (create, delete, update, modify, put, mb, cp, sync, rm). Always ask the user before calling it. The server may also hold the command for operator approval.
3. list_aws_profiles lists the profiles in the AWS config file. It needs no permission.
4. fix_aws_command_error, when available, suggests a corrected command after a failure. It never runs anything; run the suggestion with the matching tool.

The server classifies every command itself. Calling the wrong tool for a command is refused, so pick the tool that matches what the command does.`

// CommandInput is the argument object of the execution tools.
type CommandInput struct {
	Command string `json:"command" jsonschema:"AWS CLI command to execute, without the 'aws' prefix"`
	Profile string `json:"profile,omitempty" jsonschema:"AWS profile to use"`
	Region  string `json:"region,omitempty" jsonschema:"AWS region to use"`
}

// ListProfilesInput is the (empty) argument object of list_aws_profiles.
type ListProfilesInput struct{}

// FixInput is the argument object of fix_aws_command_error.
type FixInput struct {
	FailedCommand     string `json:"failed_command" jsonschema:"the AWS CLI command that failed, without the 'aws' prefix"`
	ErrorMessage      string `json:"error_message" jsonschema:"the error message returned by the failed command"`
	IntentDescription string `json:"intent_description" jsonschema:"what you were trying to accomplish"`
	Profile           string `json:"profile,omitempty" jsonschema:"AWS profile to use for the Bedrock call"`
}

// Options configures a Server.
type Options struct {
	Broker *broker.Broker
	// Fixer enables fix_aws_command_error. Nil leaves the tool out.
	Fixer *fixer.Fixer
}

// Server wraps an MCP server whose tools call the broker.
type Server struct {
	mcp    *mcp.Server
	broker *broker.Broker
	fixer  *fixer.Fixer
	tools  []string
}

// New creates a Server and registers its tools.
func New(opts Options) *Server {
	s := &Server{
		broker: opts.Broker,
		fixer:  opts.Fixer,
		mcp: mcp.NewServer(&mcp.Implementation{
			Name:    Name,
			Version: version.Version,
		}, &mcp.ServerOptions{Instructions: Instructions}),
	}

	addTool(s, &mcp.Tool{
		Name:        policy.ReadToolName,
		Description: "Execute a read-only AWS CLI command (describe, list, get, show, ls) with optional profile and region. Safe: run without asking for permission. Write commands are refused.",
	}, s.handleRead)
	addTool(s, &mcp.Tool{
		Name:        policy.WriteToolName,
		Description: "Execute an AWS CLI command that modifies resources (create, delete, update, modify, put) with optional profile and region. Always ask the user first. Read-only commands are refused.",
	}, s.handleWrite)
	addTool(s, &mcp.Tool{
		Name:        ListProfilesToolName,
		Description: "List the AWS profiles configured in the AWS config file. Safe: run without asking for permission.",
	}, s.handleListProfiles)
	if s.fixer != nil {
		addTool(s, &mcp.Tool{
			Name:        FixToolName,
			Description: "Suggest a corrected AWS CLI command after a failure, using a Bedrock-hosted model. Provide the failed command, the error message and what you were trying to do. Nothing is executed; run the suggestion with the matching tool.",
		}, s.handleFix)
	}
	return s
}

func addTool[In, Out any](s *Server, t *mcp.Tool, h mcp.ToolHandlerFor[In, Out]) {
	mcp.AddTool(s.mcp, t, h)
	s.tools = append(s.tools, t.Name)
}

// MCP returns the underlying MCP server.
func (s *Server) MCP() *mcp.Server {
	return s.mcp
}

// Tools returns the registered tool names in registration order.
func (s *Server) Tools() []string {
	return append([]string(nil), s.tools...)
}

// RunStdio serves a single session on stdin/stdout until ctx is done or the
// client disconnects.
func (s *Server) RunStdio(ctx context.Context) error {
	return s.mcp.Run(ctx, &mcp.StdioTransport{})
}

func (s *Server) handleRead(ctx context.Context, _ *mcp.CallToolRequest, in CommandInput) (*mcp.CallToolResult, CommandOutput, error) {
	return s.execute(ctx, policy.ReadToolName, in)
}

func (s *Server) handleWrite(ctx context.Context, _ *mcp.CallToolRequest, in CommandInput) (*mcp.CallToolResult, CommandOutput, error) {
	return s.execute(ctx, policy.WriteToolName, in)
}

// execute returns the text rendering and, as structured content, the same
// outcome with its denial code.
func (s *Server) execute(ctx context.Context, tool string, in CommandInput) (*mcp.CallToolResult, CommandOutput, error) {
	res := s.broker.Handle(ctx, broker.Request{
		Tool:    tool,
		Command: in.Command,
		Profile: in.Profile,
		Region:  in.Region,
	})
	return FormatResult(res), Output(res), nil
}

func (s *Server) handleListProfiles(ctx context.Context, _ *mcp.CallToolRequest, _ ListProfilesInput) (*mcp.CallToolResult, any, error) {
	text, err := s.broker.ListProfiles(ctx)
	if err != nil {
		return errorResult("Error: could not read AWS profiles: " + err.Error()), nil, nil
	}
	return textResult(text), nil, nil
}

func (s *Server) handleFix(ctx context.Context, _ *mcp.CallToolRequest, in FixInput) (*mcp.CallToolResult, any, error) {
	suggestion, err := s.fixer.Suggest(ctx, fixer.Request{
		FailedCommand: in.FailedCommand,
		ErrorMessage:  in.ErrorMessage,
		Intent:        in.IntentDescription,
		Profile:       in.Profile,
	})
	if err != nil {
		return errorResult("Error: could not fix command: " + err.Error()), nil, nil
	}
	return textResult(fixer.SuggestionPrefix + suggestion), nil, nil
}

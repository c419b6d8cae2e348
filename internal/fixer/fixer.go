// Package fixer asks a Bedrock-hosted Claude model to correct a failed AWS
// CLI command. Suggestions are text only; nothing here executes them.
package fixer

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/bedrock"
	"github.com/aws/aws-sdk-go-v2/config"

	"github.com/xdg/awsgate/internal/clog"
)

// SuggestionPrefix starts every successful fix_aws_command_error reply.
const SuggestionPrefix = "Suggested fix: "

// ErrMissingInput is returned when a required field is blank.
var ErrMissingInput = errors.New("failed_command, error_message, and intent_description are required")

// Request describes the failed command.
type Request struct {
	FailedCommand string
	ErrorMessage  string
	Intent        string
	// Profile selects the AWS credentials for the Bedrock call.
	Profile string
}

// Messenger sends a single-turn prompt and returns the model's text.
type Messenger interface {
	Complete(ctx context.Context, profile, prompt string) (string, error)
}

// Options configures the Bedrock messenger.
type Options struct {
	Model     string
	Region    string
	MaxTokens int
}

// BedrockMessenger calls Claude through Amazon Bedrock. A client is built per
// call so each request can use its own profile.
type BedrockMessenger struct {
	opts Options
}

// NewBedrockMessenger returns a Messenger backed by Bedrock.
func NewBedrockMessenger(opts Options) *BedrockMessenger {
	if opts.MaxTokens <= 0 {
		opts.MaxTokens = 1000
	}
	return &BedrockMessenger{opts: opts}
}

// Complete implements Messenger.
func (m *BedrockMessenger) Complete(ctx context.Context, profile, prompt string) (string, error) {
	var loadOpts []func(*config.LoadOptions) error
	if profile != "" {
		loadOpts = append(loadOpts, config.WithSharedConfigProfile(profile))
	}
	if m.opts.Region != "" {
		loadOpts = append(loadOpts, config.WithRegion(m.opts.Region))
	}

	client := anthropic.NewClient(bedrock.WithLoadDefaultConfig(ctx, loadOpts...))
	msg, err := client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:       anthropic.Model(m.opts.Model),
		MaxTokens:   int64(m.opts.MaxTokens),
		Temperature: anthropic.Float(0.1),
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(prompt)),
		},
	})
	if err != nil {
		return "", fmt.Errorf("bedrock request: %w", err)
	}

	var b strings.Builder
	for _, block := range msg.Content {
		if block.Type == "text" {
			b.WriteString(block.Text)
		}
	}
	return b.String(), nil
}

// Fixer turns a failed command into a suggested replacement.
type Fixer struct {
	messenger Messenger
}

// New creates a Fixer using m.
func New(m Messenger) *Fixer {
	return &Fixer{messenger: m}
}

// Suggest returns the corrected command, without the "aws" program name.
func (f *Fixer) Suggest(ctx context.Context, req Request) (string, error) {
	if strings.TrimSpace(req.FailedCommand) == "" ||
		strings.TrimSpace(req.ErrorMessage) == "" ||
		strings.TrimSpace(req.Intent) == "" {
		return "", ErrMissingInput
	}

	reply, err := f.messenger.Complete(ctx, req.Profile, BuildPrompt(req))
	if err != nil {
		clog.Error("fix command %q: %v", req.FailedCommand, err)
		return "", err
	}
	return ExtractCommand(reply), nil
}

// BuildPrompt renders the instruction sent to the model.
func BuildPrompt(req Request) string {
	return fmt.Sprintf(`You are an AWS CLI expert. A command failed and needs to be fixed.

Failed Command: %s
Error Message: %s
User Intent: %s

Please provide ONLY the corrected AWS CLI command (without 'aws' prefix).
Focus on:
1. Correct service and operation names
2. Proper JSON formatting and escaping
3. Required parameters that may be missing
4. Correct syntax for filters, time periods, etc.

Return only the fixed command, no explanation:`, req.FailedCommand, req.ErrorMessage, req.Intent)
}

// ExtractCommand picks the first line that is neither a comment nor a
// markdown fence and strips a leading "aws". If there is no such line the
// trimmed reply is returned as is.
func ExtractCommand(reply string) string {
	for _, line := range strings.Split(reply, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") || strings.HasPrefix(line, "```") {
			continue
		}
		line = strings.Trim(line, "`")
		if rest, ok := strings.CutPrefix(line, "aws "); ok {
			line = strings.TrimSpace(rest)
		}
		return line
	}
	return strings.TrimSpace(reply)
}

package config

import (
	"path/filepath"
	"time"

	"github.com/xdg/awsgate/internal/pathutil"
)

const (
	// DefaultExecTimeout bounds a single aws invocation.
	DefaultExecTimeout = 30 * time.Second

	// DefaultApprovalTimeout bounds how long a write waits for the operator.
	DefaultApprovalTimeout = 5 * time.Minute

	// DefaultFixerModel is the Bedrock model id used by the command fixer.
	DefaultFixerModel = "anthropic.claude-3-haiku-20240307-v1:0"

	// Transport names.
	TransportStdio = "stdio"
	TransportHTTP  = "http"

	// Approval channel names.
	ChannelTerminal = "terminal"
	ChannelWeb      = "web"
)

// boolPtr returns a pointer to a bool value.
func boolPtr(b bool) *bool {
	return &b
}

// DefaultConfig returns a Config with all defaults populated.
// Approval is off by default; every other safety check is always on.
func DefaultConfig() *Config {
	state := pathutil.StateDir()
	return &Config{
		Server: ServerConfig{
			Transport: TransportStdio,
			Listen:    "localhost:8000",
		},
		AWS: AWSConfig{
			Binary:  "aws",
			Timeout: "30s",
		},
		Approval: ApprovalConfig{
			Required: false,
			Channel:  ChannelTerminal,
			Listen:   "127.0.0.1:9999",
			Timeout:  "5m",
		},
		Fixer: FixerConfig{
			Enabled:   boolPtr(true),
			Model:     DefaultFixerModel,
			Region:    "us-west-2",
			MaxTokens: 1000,
		},
		Audit: AuditConfig{
			Enabled: boolPtr(true),
			File:    filepath.Join(state, "audit.log"),
			DB:      filepath.Join(state, "audit.db"),
		},
		Log: LogConfig{
			File:  filepath.Join(state, "awsgate.log"),
			Level: "info",
		},
	}
}

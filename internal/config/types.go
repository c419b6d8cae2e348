// Package config provides the awsgate configuration types and the YAML
// file loader. The file lives at ~/.config/awsgate/config.yaml.
package config

import "time"

// Config is the top-level awsgate configuration.
type Config struct {
	Server    ServerConfig    `yaml:"server,omitempty"`
	AWS       AWSConfig       `yaml:"aws,omitempty"`
	Approval  ApprovalConfig  `yaml:"approval,omitempty"`
	Catalogue CatalogueConfig `yaml:"catalogue,omitempty"`
	Fixer     FixerConfig     `yaml:"fixer,omitempty"`
	Audit     AuditConfig     `yaml:"audit,omitempty"`
	Log       LogConfig       `yaml:"log,omitempty"`
}

// ServerConfig selects the MCP transport.
type ServerConfig struct {
	Transport string `yaml:"transport,omitempty"` // stdio or http
	Listen    string `yaml:"listen,omitempty"`
}

// AWSConfig controls how the aws program is invoked.
type AWSConfig struct {
	Binary     string `yaml:"binary,omitempty"`
	Timeout    string `yaml:"timeout,omitempty"`
	Profile    string `yaml:"profile,omitempty"`
	Region     string `yaml:"region,omitempty"`
	ConfigFile string `yaml:"config_file,omitempty"`
}

// ApprovalConfig controls the human confirmation gate for write commands.
type ApprovalConfig struct {
	Required bool   `yaml:"required,omitempty"`
	Channel  string `yaml:"channel,omitempty"` // terminal or web
	Listen   string `yaml:"listen,omitempty"`
	Timeout  string `yaml:"timeout,omitempty"`
}

// CatalogueConfig points at the read-only prefix catalogue.
// File replaces the built-in catalogue; Extra entries are appended.
type CatalogueConfig struct {
	File  string   `yaml:"file,omitempty"`
	Extra []string `yaml:"extra,omitempty"`
}

// FixerConfig configures the Bedrock-backed command fixer.
type FixerConfig struct {
	Enabled   *bool  `yaml:"enabled,omitempty"`
	Model     string `yaml:"model,omitempty"`
	Region    string `yaml:"region,omitempty"`
	MaxTokens int    `yaml:"max_tokens,omitempty"`
}

// AuditConfig sets the audit sinks. An empty path disables that sink.
type AuditConfig struct {
	Enabled *bool  `yaml:"enabled,omitempty"`
	File    string `yaml:"file,omitempty"`
	DB      string `yaml:"db,omitempty"`
}

// LogConfig contains operational logging settings.
type LogConfig struct {
	File  string `yaml:"file,omitempty"`
	Level string `yaml:"level,omitempty"`
}

// ExecTimeout returns the aws execution timeout, or DefaultExecTimeout if
// unset or unparseable.
func (c *Config) ExecTimeout() time.Duration {
	return parseDurationOr(c.AWS.Timeout, DefaultExecTimeout)
}

// ApprovalTimeout returns how long a write request may wait for a decision.
func (c *Config) ApprovalTimeout() time.Duration {
	return parseDurationOr(c.Approval.Timeout, DefaultApprovalTimeout)
}

// FixerEnabled reports whether fix_aws_command_error is registered.
func (c *Config) FixerEnabled() bool {
	return c.Fixer.Enabled == nil || *c.Fixer.Enabled
}

// AuditEnabled reports whether audit events are recorded.
func (c *Config) AuditEnabled() bool {
	return c.Audit.Enabled == nil || *c.Audit.Enabled
}

func parseDurationOr(s string, fallback time.Duration) time.Duration {
	if s == "" {
		return fallback
	}
	d, err := time.ParseDuration(s)
	if err != nil || d <= 0 {
		return fallback
	}
	return d
}

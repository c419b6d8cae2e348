package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// WriteDefault creates a commented default configuration file at path, or
// DefaultPath() when path is empty. An existing file is left untouched and
// reported with created=false. The file is written with 0600 permissions.
func WriteDefault(path string) (created bool, err error) {
	return writeNew(path, []byte(defaultConfigTemplate))
}

// Write creates a configuration file holding cfg, with the same rules as
// WriteDefault. cfg is validated first.
func Write(path string, cfg *Config) (created bool, err error) {
	if err := Validate(cfg); err != nil {
		return false, err
	}
	data, err := Marshal(cfg)
	if err != nil {
		return false, err
	}
	return writeNew(path, append([]byte("# awsgate configuration\n"), data...))
}

func writeNew(path string, data []byte) (bool, error) {
	if path == "" {
		path = DefaultPath()
	}

	_, err := os.Stat(path)
	if err == nil {
		return false, nil
	}
	if !errors.Is(err, os.ErrNotExist) {
		return false, fmt.Errorf("stat config file: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return false, fmt.Errorf("ensure config dir: %w", err)
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return false, fmt.Errorf("write config: %w", err)
	}
	return true, nil
}

const defaultConfigTemplate = `# awsgate configuration
#
# Every value below is the built-in default. Delete a line to keep the
# default; unknown keys are rejected.

server:
  # MCP transport: stdio (launched by the client) or http (streamable HTTP)
  transport: stdio
  listen: "localhost:8000"

aws:
  # Program used to run commands
  binary: aws
  # Per-command execution timeout
  timeout: 30s
  # Defaults applied when a request does not name them
  # profile: default
  # region: us-east-1
  # Shared config file read by list_aws_profiles (AWS_CONFIG_FILE is honoured)
  # config_file: ~/.aws/config

approval:
  # Hold write commands for an explicit yes from the operator
  required: false
  # terminal (prompt on the controlling tty) or web (localhost JSON API)
  channel: terminal
  listen: "127.0.0.1:9999"
  timeout: 5m

catalogue:
  # Replace the built-in read-only prefix catalogue
  # file: ~/.config/awsgate/catalogue.yaml
  # Entries appended to the catalogue
  # extra:
  #   - "codeartifact list-*"

fixer:
  # Register fix_aws_command_error (uses Amazon Bedrock)
  enabled: true
  model: anthropic.claude-3-haiku-20240307-v1:0
  region: us-west-2
  max_tokens: 1000

audit:
  enabled: true
  # file: ~/.local/state/awsgate/audit.log
  # db: ~/.local/state/awsgate/audit.db

log:
  # file: ~/.local/state/awsgate/awsgate.log
  level: info
`

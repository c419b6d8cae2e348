package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/xdg/awsgate/internal/pathutil"
)

// Dir returns the awsgate configuration directory path.
// By default, this is ~/.config/awsgate. If XDG_CONFIG_HOME is set, it
// uses $XDG_CONFIG_HOME/awsgate instead.
func Dir() string {
	return pathutil.ConfigDir()
}

// EnsureDir creates the configuration directory with 0700 permissions if it
// doesn't exist.
func EnsureDir() error {
	if err := os.MkdirAll(Dir(), 0o700); err != nil {
		return fmt.Errorf("ensure config dir: %w", err)
	}
	return nil
}

// DefaultPath returns the full path to the configuration file.
func DefaultPath() string {
	return filepath.Join(Dir(), "config.yaml")
}

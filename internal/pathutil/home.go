// Package pathutil provides path helpers shared by config, logging and audit.
package pathutil

import (
	"os"
	"path/filepath"
	"strings"
)

// AppName is the directory name used under the XDG base directories.
const AppName = "awsgate"

// ExpandHome replaces a leading ~ in path with the user's home directory.
// If the home directory cannot be determined, the path is returned unchanged.
func ExpandHome(path string) string {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	if path == "~" {
		return home
	}
	return filepath.Join(home, path[2:])
}

// ConfigDir returns $XDG_CONFIG_HOME/awsgate, falling back to ~/.config/awsgate.
func ConfigDir() string {
	return xdgDir("XDG_CONFIG_HOME", "~/.config")
}

// StateDir returns $XDG_STATE_HOME/awsgate, falling back to ~/.local/state/awsgate.
// Logs, the audit trail and the audit database live here.
func StateDir() string {
	return xdgDir("XDG_STATE_HOME", "~/.local/state")
}

func xdgDir(env, fallback string) string {
	base := os.Getenv(env)
	if base == "" {
		base = fallback
	}
	return filepath.Join(ExpandHome(base), AppName)
}

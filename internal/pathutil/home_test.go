package pathutil

import (
	"os"
	"path/filepath"
	"testing"
)

func TestExpandHome(t *testing.T) {
	home, err := os.UserHomeDir()
	if err != nil {
		t.Fatalf("failed to get home dir: %v", err)
	}

	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{name: "tilde only", input: "~", expected: home},
		{name: "tilde with subpath", input: "~/.aws/config", expected: filepath.Join(home, ".aws", "config")},
		{name: "absolute path unchanged", input: "/usr/local/bin", expected: "/usr/local/bin"},
		{name: "relative path unchanged", input: "relative/path", expected: "relative/path"},
		{name: "empty string unchanged", input: "", expected: ""},
		{name: "tilde in middle unchanged", input: "/path/~/test", expected: "/path/~/test"},
		{name: "tilde without slash unchanged", input: "~user", expected: "~user"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ExpandHome(tt.input); got != tt.expected {
				t.Errorf("ExpandHome(%q) = %q, want %q", tt.input, got, tt.expected)
			}
		})
	}
}

func TestConfigDir_XDG(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", dir)

	want := filepath.Join(dir, "awsgate")
	if got := ConfigDir(); got != want {
		t.Errorf("ConfigDir() = %q, want %q", got, want)
	}
}

func TestStateDir_Fallback(t *testing.T) {
	t.Setenv("XDG_STATE_HOME", "")
	home, err := os.UserHomeDir()
	if err != nil {
		t.Skipf("no home directory: %v", err)
	}

	want := filepath.Join(home, ".local", "state", "awsgate")
	if got := StateDir(); got != want {
		t.Errorf("StateDir() = %q, want %q", got, want)
	}
}

package testutil

import (
	"os"
	"path/filepath"
	"testing"
)

// EchoAWS is a FakeAWS body that prints its arguments one per line.
const EchoAWS = `for a in "$@"; do printf '%s\n' "$a"; done`

// FakeAWS writes an executable sh script named aws with the given body into
// a temporary directory and returns its path. Tests use it as aws.binary.
func FakeAWS(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "aws")
	script := "#!/bin/sh\n" + body + "\n"
	if err := os.WriteFile(path, []byte(script), 0o755); err != nil { //nolint:gosec // must be executable
		t.Fatalf("write fake aws: %v", err)
	}
	return path
}

// IsolateXDG points the XDG base directories at fresh temporary directories
// so tests never read or write the user's config and state.
func IsolateXDG(t *testing.T) {
	t.Helper()
	root := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(root, "config"))
	t.Setenv("XDG_STATE_HOME", filepath.Join(root, "state"))
}

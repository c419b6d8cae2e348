// Package testutil provides shared test helpers for awsgate tests.
package testutil

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"
)

// BinaryEnvVar overrides the awsgate binary used by end-to-end tests.
const BinaryEnvVar = "AWSGATE_EXECUTABLE"

// BinaryPath returns the awsgate binary end-to-end tests run: $AWSGATE_EXECUTABLE
// if set, otherwise ./awsgate at the repository root. ok is false if the
// file does not exist.
func BinaryPath() (path string, ok bool) {
	if p := os.Getenv(BinaryEnvVar); p != "" {
		_, err := os.Stat(p)
		return p, err == nil
	}

	_, thisFile, _, found := runtime.Caller(0)
	if !found {
		return "", false
	}
	path = filepath.Join(filepath.Dir(thisFile), "..", "..", "awsgate")
	_, err := os.Stat(path)
	return path, err == nil
}

// RequireBinary returns the awsgate binary path, skipping the test if it has
// not been built.
func RequireBinary(t *testing.T) string {
	t.Helper()
	path, ok := BinaryPath()
	if !ok {
		t.Skipf("awsgate binary not found at %s (run 'go build ./cmd/awsgate' first)", path)
	}
	return path
}

package approval

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestOpenTerminal_NotATerminal(t *testing.T) {
	path := filepath.Join(t.TempDir(), "not-a-tty")
	if err := os.WriteFile(path, nil, 0o600); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}

	if _, err := OpenTerminal(path); !errors.Is(err, ErrNoTerminal) {
		t.Errorf("OpenTerminal() error = %v, want ErrNoTerminal", err)
	}
}

func TestOpenTerminal_Missing(t *testing.T) {
	if _, err := OpenTerminal(filepath.Join(t.TempDir(), "missing")); !errors.Is(err, ErrNoTerminal) {
		t.Errorf("OpenTerminal() error = %v, want ErrNoTerminal", err)
	}
}

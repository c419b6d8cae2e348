package approval

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-isatty"
)

// DefaultTTY is the controlling terminal. Stdio transports own stdin and
// stdout, so prompts go to the tty directly.
const DefaultTTY = "/dev/tty"

// ErrNoTerminal is returned when terminal approval is requested but no
// controlling terminal is available.
var ErrNoTerminal = errors.New("terminal approval needs a controlling terminal")

var (
	commandStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("208"))
	targetStyle  = lipgloss.NewStyle().Faint(true)
)

// TerminalConfirmer shows a yes/no dialog on a terminal device.
type TerminalConfirmer struct {
	in  io.Reader
	out io.Writer

	mu     sync.Mutex
	closer io.Closer
}

// OpenTerminal opens path (DefaultTTY when empty) for prompting. It fails
// with ErrNoTerminal if the device cannot be opened or is not a terminal.
func OpenTerminal(path string) (*TerminalConfirmer, error) {
	if path == "" {
		path = DefaultTTY
	}
	f, err := os.OpenFile(path, os.O_RDWR, 0)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrNoTerminal, err)
	}
	if !isatty.IsTerminal(f.Fd()) && !isatty.IsCygwinTerminal(f.Fd()) {
		_ = f.Close()
		return nil, fmt.Errorf("%w: %s is not a terminal", ErrNoTerminal, path)
	}
	return &TerminalConfirmer{in: f, out: f, closer: f}, nil
}

// NewTerminalConfirmer prompts on the given streams. It does not take
// ownership of them.
func NewTerminalConfirmer(in io.Reader, out io.Writer) *TerminalConfirmer {
	return &TerminalConfirmer{in: in, out: out}
}

// Confirm renders the command, profile and region and waits for an answer.
// Aborting the dialog counts as a rejection.
func (c *TerminalConfirmer) Confirm(ctx context.Context, p Prompt) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	var approved bool
	form := huh.NewForm(
		huh.NewGroup(
			huh.NewNote().
				Title("awsgate: write command awaiting approval").
				Description(commandStyle.Render("aws "+p.Command)+"\n"+targetStyle.Render(p.Target())),
			huh.NewConfirm().
				Title("Run this command?").
				Affirmative("Run").
				Negative("Reject").
				Value(&approved),
		),
	).WithInput(c.in).WithOutput(c.out).WithShowHelp(false)

	err := form.RunWithContext(ctx)
	switch {
	case ctx.Err() != nil:
		return false, ctx.Err()
	case errors.Is(err, huh.ErrUserAborted):
		return false, nil
	case err != nil:
		return false, fmt.Errorf("terminal prompt: %w", err)
	}
	return approved, nil
}

// Close releases the terminal if OpenTerminal opened it.
func (c *TerminalConfirmer) Close() error {
	if c.closer == nil {
		return nil
	}
	return c.closer.Close()
}

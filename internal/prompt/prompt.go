// Package prompt asks line-oriented questions on a terminal. It backs the
// interactive mode of "awsgate config init".
package prompt

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"golang.org/x/term"
)

// ErrNoAnswer is returned when input ends before a line is read.
var ErrNoAnswer = errors.New("no answer: input closed")

// Asker asks multiple-choice and yes/no questions.
type Asker interface {
	// Choose shows numbered options and returns the zero-based index of the
	// selection. An empty answer selects defaultIdx.
	Choose(question string, options []string, defaultIdx int) (int, error)

	// YesNo returns the answer to a yes/no question. An empty answer
	// returns defaultYes.
	YesNo(question string, defaultYes bool) (bool, error)
}

// IsTerminal reports whether f is an interactive terminal.
func IsTerminal(f *os.File) bool {
	return term.IsTerminal(int(f.Fd()))
}

// LineAsker reads one answer per line. It keeps a single buffered reader
// so answers typed ahead are not lost between questions.
type LineAsker struct {
	in  *bufio.Reader
	out io.Writer
}

// NewLineAsker asks on out and reads answers from in.
func NewLineAsker(in io.Reader, out io.Writer) *LineAsker {
	return &LineAsker{in: bufio.NewReader(in), out: out}
}

// Choose implements Asker.
func (a *LineAsker) Choose(question string, options []string, defaultIdx int) (int, error) {
	if len(options) == 0 {
		return 0, errors.New("no options provided")
	}
	if defaultIdx < 0 || defaultIdx >= len(options) {
		return 0, fmt.Errorf("default index %d out of range [0, %d)", defaultIdx, len(options))
	}

	_, _ = fmt.Fprintln(a.out, question)
	for i, opt := range options {
		suffix := ""
		if i == defaultIdx {
			suffix = " (default)"
		}
		_, _ = fmt.Fprintf(a.out, "  %d. %s%s\n", i+1, opt, suffix)
	}
	_, _ = fmt.Fprintf(a.out, "Enter selection [%d]: ", defaultIdx+1)

	input, err := a.readLine()
	if err != nil {
		return 0, err
	}
	if input == "" {
		return defaultIdx, nil
	}

	selection, err := strconv.Atoi(input)
	if err != nil {
		return 0, fmt.Errorf("invalid selection %q: must be a number", input)
	}
	idx := selection - 1
	if idx < 0 || idx >= len(options) {
		return 0, fmt.Errorf("selection %d out of range (1-%d)", selection, len(options))
	}
	return idx, nil
}

// YesNo implements Asker.
func (a *LineAsker) YesNo(question string, defaultYes bool) (bool, error) {
	hint := "[y/N]"
	if defaultYes {
		hint = "[Y/n]"
	}
	_, _ = fmt.Fprintf(a.out, "%s %s: ", question, hint)

	input, err := a.readLine()
	if err != nil {
		return false, err
	}
	switch strings.ToLower(input) {
	case "":
		return defaultYes, nil
	case "y", "yes":
		return true, nil
	case "n", "no":
		return false, nil
	}
	return false, fmt.Errorf("invalid input %q: expected y/n", input)
}

// readLine returns the next trimmed line. A final line without a newline
// is accepted; no input at all is ErrNoAnswer.
func (a *LineAsker) readLine() (string, error) {
	line, err := a.in.ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", fmt.Errorf("failed to read input: %w", err)
	}
	if errors.Is(err, io.EOF) && line == "" {
		return "", ErrNoAnswer
	}
	return strings.TrimSpace(line), nil
}

// Scripted answers from fixed lists, for tests. Once a list runs out the
// default is returned. Every question is recorded.
type Scripted struct {
	Choices   []int
	Answers   []bool
	Questions []string
}

// Choose implements Asker.
func (s *Scripted) Choose(question string, _ []string, defaultIdx int) (int, error) {
	s.Questions = append(s.Questions, question)
	if len(s.Choices) == 0 {
		return defaultIdx, nil
	}
	idx := s.Choices[0]
	s.Choices = s.Choices[1:]
	return idx, nil
}

// YesNo implements Asker.
func (s *Scripted) YesNo(question string, defaultYes bool) (bool, error) {
	s.Questions = append(s.Questions, question)
	if len(s.Answers) == 0 {
		return defaultYes, nil
	}
	ans := s.Answers[0]
	s.Answers = s.Answers[1:]
	return ans, nil
}

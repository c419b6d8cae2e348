package executor

import (
	"errors"
	"fmt"
	"strings"

	"mvdan.cc/sh/v3/expand"
	"mvdan.cc/sh/v3/syntax"
)

// ErrInvalidCommand is wrapped by every Tokenize failure.
var ErrInvalidCommand = errors.New("invalid command syntax")

// Tokenize splits command text into arguments the way a POSIX shell would
// split a single simple command, honouring quotes and backslashes. Nothing
// is evaluated: expansions, substitutions, redirections, pipelines, lists,
// background jobs and assignments are rejected. Glob and brace characters
// stay literal.
func Tokenize(command string) ([]string, error) {
	file, err := syntax.NewParser(syntax.Variant(syntax.LangPOSIX)).Parse(strings.NewReader(command), "")
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidCommand, err)
	}

	if len(file.Stmts) == 0 {
		return nil, fmt.Errorf("%w: empty command", ErrInvalidCommand)
	}
	if len(file.Stmts) > 1 {
		return nil, fmt.Errorf("%w: multiple commands", ErrInvalidCommand)
	}

	stmt := file.Stmts[0]
	switch {
	case stmt.Background:
		return nil, fmt.Errorf("%w: background jobs are not allowed", ErrInvalidCommand)
	case stmt.Negated:
		return nil, fmt.Errorf("%w: negation is not allowed", ErrInvalidCommand)
	case len(stmt.Redirs) > 0:
		return nil, fmt.Errorf("%w: redirections are not allowed", ErrInvalidCommand)
	}

	call, ok := stmt.Cmd.(*syntax.CallExpr)
	if !ok {
		return nil, fmt.Errorf("%w: only a single simple command is allowed", ErrInvalidCommand)
	}
	if len(call.Assigns) > 0 {
		return nil, fmt.Errorf("%w: variable assignments are not allowed", ErrInvalidCommand)
	}

	if reason := findExpansion(call); reason != "" {
		return nil, fmt.Errorf("%w: %s is not allowed", ErrInvalidCommand, reason)
	}

	// Literal removes quotes only. Fields would also brace-expand, which
	// splits AWS shorthand such as Ebs={VolumeSize=100,VolumeType=gp3}.
	cfg := &expand.Config{Env: expand.ListEnviron()}
	args := make([]string, 0, len(call.Args))
	for _, word := range call.Args {
		arg, err := expand.Literal(cfg, word)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrInvalidCommand, err)
		}
		args = append(args, arg)
	}
	return args, nil
}

// findExpansion returns a description of the first construct in call that
// a shell would evaluate, or "" if there is none.
func findExpansion(call *syntax.CallExpr) string {
	var reason string
	syntax.Walk(call, func(node syntax.Node) bool {
		if reason != "" {
			return false
		}
		switch n := node.(type) {
		case *syntax.ParamExp:
			reason = "variable expansion"
		case *syntax.CmdSubst:
			reason = "command substitution"
		case *syntax.ProcSubst:
			reason = "process substitution"
		case *syntax.ArithmExp:
			reason = "arithmetic expansion"
		case *syntax.ExtGlob:
			reason = "extended glob"
		case *syntax.Word:
			if lit, ok := firstLit(n); ok && strings.HasPrefix(lit, "~") {
				reason = "tilde expansion"
			}
		}
		return reason == ""
	})
	return reason
}

func firstLit(w *syntax.Word) (string, bool) {
	if len(w.Parts) == 0 {
		return "", false
	}
	lit, ok := w.Parts[0].(*syntax.Lit)
	if !ok {
		return "", false
	}
	return lit.Value, true
}

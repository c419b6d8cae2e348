package catalogue

import (
	"errors"
	"fmt"
	"strings"
)

// ErrInvalidEntry is wrapped by every catalogue validation error.
var ErrInvalidEntry = errors.New("invalid catalogue entry")

const (
	wildcard     = "*"
	familySuffix = "-*"
)

var (
	errEmpty        = errors.New("empty entry")
	errDuplicate    = errors.New("duplicate entry")
	errAllWildcards = errors.New("entry has no literal token")
)

// EntryError reports which entry failed validation.
type EntryError struct {
	Index int
	Entry string
	Err   error
}

func (e *EntryError) Error() string {
	return fmt.Sprintf("catalogue entry %d %q: %v", e.Index, e.Entry, e.Err)
}

// Unwrap lets errors.Is match both the specific cause and ErrInvalidEntry.
func (e *EntryError) Unwrap() []error {
	return []error{ErrInvalidEntry, e.Err}
}

// mutatingVerbs may never appear as a catalogued operation, bare or as an
// operation family. They are never read-only.
var mutatingVerbs = map[string]bool{
	"create": true, "delete": true, "put": true, "update": true, "modify": true,
	"remove": true, "rm": true, "mb": true, "rb": true, "cp": true, "mv": true,
	"sync": true, "run": true, "start": true, "stop": true, "terminate": true,
	"reboot": true, "attach": true, "detach": true, "associate": true,
	"disassociate": true, "tag": true, "untag": true, "set": true,
	"enable": true, "disable": true, "register": true, "deregister": true,
	"import": true, "restore": true, "invoke": true, "publish": true,
	"send": true, "copy": true, "reset": true, "revoke": true,
	"authorize": true, "replace": true, "cancel": true, "add": true,
	"apply": true, "deploy": true, "execute": true, "upload": true,
	"write": true,
}

func isFamily(tok string) bool {
	return len(tok) > len(familySuffix) && strings.HasSuffix(tok, familySuffix)
}

// validateEntry checks a normalized entry. In multi-token entries the first
// token names a service, so the verb check applies from the second token on.
func validateEntry(text string) error {
	tokens := Tokens(text)
	if len(tokens) == 0 {
		return errEmpty
	}

	literal := false
	for i, tok := range tokens {
		if err := validateToken(tok, i); err != nil {
			return err
		}
		if tok != wildcard {
			literal = true
		}
		if i == 0 && len(tokens) > 1 {
			continue
		}
		if verb := operationVerb(tok); mutatingVerbs[verb] {
			return fmt.Errorf("token %q uses mutating verb %q", tok, verb)
		}
	}
	if !literal {
		return errAllWildcards
	}
	return nil
}

func validateToken(tok string, pos int) error {
	if tok == wildcard {
		if pos != 0 {
			return fmt.Errorf("wildcard %q only allowed in the service position", tok)
		}
		return nil
	}

	body := tok
	if isFamily(tok) {
		body = strings.TrimSuffix(tok, familySuffix)
	}
	for _, r := range body {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '-', r == '_', r == '.':
		case r == '*':
			return fmt.Errorf("token %q: %q must be a whole token or a trailing %q", tok, wildcard, familySuffix)
		default:
			return fmt.Errorf("token %q: invalid character %q", tok, r)
		}
	}
	if body == "" || body[0] == '-' {
		return fmt.Errorf("token %q: malformed operation name", tok)
	}
	return nil
}

// operationVerb returns the leading verb of an operation token:
// "describe-instances" and "describe-*" both yield "describe".
func operationVerb(tok string) string {
	tok = strings.TrimSuffix(tok, familySuffix)
	if i := strings.IndexByte(tok, '-'); i >= 0 {
		return tok[:i]
	}
	return tok
}

// Package catalogue classifies AWS CLI command text as read-only or
// write-ish against a catalogue of read-only token prefixes.
package catalogue

// Classification is the read/write verdict for a command's text.
// The zero value is Writeish so that anything unclassified fails closed.
type Classification int

const (
	// Writeish means no catalogue entry matched.
	Writeish Classification = iota
	// ReadOnly means at least one catalogue entry matched.
	ReadOnly
)

// String returns the string representation of a Classification.
func (c Classification) String() string {
	switch c {
	case ReadOnly:
		return "read_only"
	case Writeish:
		return "writeish"
	default:
		return "unknown"
	}
}

// Match is the outcome of classifying a command.
type Match struct {
	Classification Classification
	Entry          string // the entry that matched (empty if Writeish)
}

// Classifier defines the interface for command classification.
type Classifier interface {
	// Classify returns the classification of commandText.
	Classify(commandText string) Match
}

// entry is a validated, tokenized catalogue entry.
type entry struct {
	text   string
	tokens []string
}

// Catalogue is an ordered, duplicate-free set of read-only prefixes.
// It is immutable after construction and safe for concurrent use.
type Catalogue struct {
	entries []entry
}

// New validates and tokenizes entries into a Catalogue.
// Any invalid or duplicate entry is an error wrapping ErrInvalidEntry.
func New(entries []string) (*Catalogue, error) {
	c := &Catalogue{entries: make([]entry, 0, len(entries))}
	seen := make(map[string]bool, len(entries))

	for i, raw := range entries {
		text := Normalize(raw)
		if err := validateEntry(text); err != nil {
			return nil, &EntryError{Index: i, Entry: raw, Err: err}
		}
		if seen[text] {
			return nil, &EntryError{Index: i, Entry: raw, Err: errDuplicate}
		}
		seen[text] = true
		c.entries = append(c.entries, entry{text: text, tokens: Tokens(text)})
	}
	return c, nil
}

// Classify normalizes commandText and checks it against every entry in
// catalogue order. The first structural match wins; there is no
// longest-match precedence. Empty text, text matching no entry and the
// operations in localWriters are Writeish.
func (c *Catalogue) Classify(commandText string) Match {
	tokens := Tokens(Normalize(commandText))
	if len(tokens) == 0 || writesLocalFile(tokens) {
		return Match{Classification: Writeish}
	}

	for _, e := range c.entries {
		if e.matches(tokens) {
			return Match{Classification: ReadOnly, Entry: e.text}
		}
	}
	return Match{Classification: Writeish}
}

// localWriters are "get" operations that write their positional outfile
// argument to the local disk. Generic entries such as "* get-*" would
// otherwise let them through the read tool.
var localWriters = map[string]bool{
	"s3api get-object":                      true,
	"s3api get-object-torrent":              true,
	"glacier get-job-output":                true,
	"mediastore-data get-object":            true,
	"kinesis-video-media get-media":         true,
	"kinesis-video-archived-media get-clip": true,
	"ebs get-snapshot-block":                true,
}

func writesLocalFile(tokens []string) bool {
	return len(tokens) >= 2 && localWriters[tokens[0]+" "+tokens[1]]
}

// Entries returns a copy of the normalized entries in catalogue order.
func (c *Catalogue) Entries() []string {
	out := make([]string, len(c.entries))
	for i, e := range c.entries {
		out[i] = e.text
	}
	return out
}

// Len returns the number of entries.
func (c *Catalogue) Len() int {
	return len(c.entries)
}

// matches reports whether every entry token matches the command token at
// the same position.
func (e entry) matches(cmd []string) bool {
	if len(cmd) < len(e.tokens) {
		return false
	}
	for i, tok := range e.tokens {
		if !tokenMatches(tok, cmd[i]) {
			return false
		}
	}
	return true
}

// tokenMatches compares one entry token against one command token.
//
//	"*"         matches any service-shaped token (never an option)
//	"verb-*"    matches "verb-" followed by at least one character
//	"literal"   matches only "literal"
func tokenMatches(pattern, tok string) bool {
	switch {
	case pattern == wildcard:
		return isServiceName(tok)
	case isFamily(pattern):
		prefix := pattern[:len(pattern)-1] // keep the trailing hyphen
		return len(tok) > len(prefix) && tok[:len(prefix)] == prefix
	default:
		return pattern == tok
	}
}

// isServiceName reports whether tok looks like an AWS CLI service name:
// lower-case letters, digits and inner hyphens, starting with a letter.
// Options such as "--profile" and their values never reach the wildcard.
func isServiceName(tok string) bool {
	if tok == "" || tok[0] < 'a' || tok[0] > 'z' || tok[len(tok)-1] == '-' {
		return false
	}
	for _, r := range tok {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '-':
		default:
			return false
		}
	}
	return true
}

package catalogue

import "strings"

// programToken is stripped from the front of commands when present.
const programToken = "aws"

// Normalize trims text, collapses runs of whitespace to a single space,
// folds to lower case and strips one leading "aws" token.
func Normalize(text string) string {
	fields := strings.Fields(strings.ToLower(text))
	if len(fields) > 0 && fields[0] == programToken {
		fields = fields[1:]
	}
	return strings.Join(fields, " ")
}

// Tokens splits normalized text into its whitespace-delimited tokens.
func Tokens(normalized string) []string {
	return strings.Fields(normalized)
}

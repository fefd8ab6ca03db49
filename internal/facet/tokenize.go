package facet

import "strings"

// Delimiter separates values inside a multi-value cell
const Delimiter = ","

// Tokenize splits a multi-value cell into trimmed, non-empty tokens.
// Source order and duplicates are kept; an empty cell yields an empty slice.
func Tokenize(cell string) []string {
	tokens := []string{}
	if strings.TrimSpace(cell) == "" {
		return tokens
	}
	for _, part := range strings.Split(cell, Delimiter) {
		part = strings.TrimSpace(part)
		if part != "" {
			tokens = append(tokens, part)
		}
	}
	return tokens
}

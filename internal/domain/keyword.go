package domain

import "strings"

// Keyword is a normalized watch term.
type Keyword string

// NormalizeKeyword lowercases and trims raw user input.
func NormalizeKeyword(raw string) Keyword {
	return Keyword(strings.ToLower(strings.TrimSpace(raw)))
}

// Strings converts keywords to plain strings for transport payloads.
func Strings(keywords []Keyword) []string {
	out := make([]string, len(keywords))
	for i, k := range keywords {
		out[i] = string(k)
	}
	return out
}

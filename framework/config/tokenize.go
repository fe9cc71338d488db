package config

import "strings"

// InitParamDelimiters separate multiple values in a single init parameter.
const InitParamDelimiters = ",; \t\n"

// Tokenize splits s on any rune in delims, trims every token and drops
// empty ones. Order is preserved.
//
//	config.Tokenize("a,b; c\td", config.InitParamDelimiters) // [a b c d]
func Tokenize(s, delims string) []string {
	fields := strings.FieldsFunc(s, func(r rune) bool {
		return strings.ContainsRune(delims, r)
	})
	out := fields[:0]
	for _, f := range fields {
		if f = strings.TrimSpace(f); f != "" {
			out = append(out, f)
		}
	}
	return out
}

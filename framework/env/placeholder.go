package env

import (
	"strings"

	"github.com/km-arc/go-bootstrap/framework/errs"
)

const (
	placeholderPrefix = "${"
	placeholderSuffix = "}"
	valueSeparator    = ":"
)

// resolve expands placeholders, including nested ones in keys and
// defaults: ${db.${profile}.url:${fallback}}. Resolved values are expanded
// again; a placeholder that refers back to itself is an error.
func resolve(text string, lookup func(string) (string, bool), required bool) (string, error) {
	return expand(text, lookup, required, map[string]bool{})
}

func expand(text string, lookup func(string) (string, bool), required bool, visiting map[string]bool) (string, error) {
	var b strings.Builder
	rest := text
	for {
		start := strings.Index(rest, placeholderPrefix)
		if start == -1 {
			b.WriteString(rest)
			return b.String(), nil
		}
		end := matchingSuffix(rest, start+len(placeholderPrefix))
		if end == -1 {
			b.WriteString(rest)
			return b.String(), nil
		}
		b.WriteString(rest[:start])

		inner, err := expand(rest[start+len(placeholderPrefix):end], lookup, required, visiting)
		if err != nil {
			return "", err
		}
		key, def, hasDefault := strings.Cut(inner, valueSeparator)

		if visiting[key] {
			return "", errs.New(errs.CodeUnresolvablePlaceholder, "env.resolve",
				"circular placeholder reference %q in %q", key, text)
		}

		val, ok := lookup(key)
		switch {
		case ok:
			visiting[key] = true
			val, err = expand(val, lookup, required, visiting)
			delete(visiting, key)
			if err != nil {
				return "", err
			}
			b.WriteString(val)
		case hasDefault:
			b.WriteString(def)
		case required:
			return "", errs.New(errs.CodeUnresolvablePlaceholder, "env.resolve",
				"could not resolve placeholder %q in value %q", key, text)
		default:
			b.WriteString(placeholderPrefix + inner + placeholderSuffix)
		}
		rest = rest[end+len(placeholderSuffix):]
	}
}

// matchingSuffix finds the '}' closing the placeholder whose body starts at
// from, skipping nested ${...}.
func matchingSuffix(s string, from int) int {
	depth := 0
	for i := from; i < len(s); i++ {
		switch {
		case strings.HasPrefix(s[i:], placeholderPrefix):
			depth++
			i += len(placeholderPrefix) - 1
		case s[i] == '}':
			if depth == 0 {
				return i
			}
			depth--
		}
	}
	return -1
}

package policy

import (
	"strings"

	"github.com/advanced-security/policy-as-code/pkg/regexcache"
)

// MatchContent reports whether candidate matches any of the wildcard
// patterns. Matching is case-insensitive and uses shell-style globs:
// `*` matches any run of characters, `?` a single character and `[seq]`
// a character class. An empty pattern list never matches.
func MatchContent(candidate string, patterns []string) bool {
	if len(patterns) == 0 {
		return false
	}
	candidate = strings.ToLower(candidate)
	for _, pattern := range patterns {
		re, err := regexcache.Get(translate(strings.ToLower(pattern)))
		if err != nil {
			// Translation always escapes metacharacters; an error here
			// means a pattern the engine cannot express, so skip it.
			continue
		}
		if re.MatchString(candidate) {
			return true
		}
	}
	return false
}

// MatchAny reports whether any candidate matches any pattern.
func MatchAny(candidates []string, patterns []string) bool {
	for _, candidate := range candidates {
		if MatchContent(candidate, patterns) {
			return true
		}
	}
	return false
}

// translate converts a shell-style glob into an anchored regular
// expression. Unlike path globs, `*` crosses `/` so a pattern like
// `py/*` matches `py/sqli` and `*` matches everything.
func translate(pattern string) string {
	var b strings.Builder
	b.WriteString(`(?s)^`)

	runes := []rune(pattern)
	for i := 0; i < len(runes); i++ {
		switch c := runes[i]; c {
		case '*':
			b.WriteString(`.*`)
		case '?':
			b.WriteString(`.`)
		case '[':
			end := classEnd(runes, i)
			if end < 0 {
				// Unterminated class is a literal bracket.
				b.WriteString(`\[`)
				continue
			}
			b.WriteString(classToRegexp(string(runes[i+1 : end])))
			i = end
		default:
			b.WriteString(escapeRune(c))
		}
	}

	b.WriteString(`$`)
	return b.String()
}

// classEnd returns the index of the `]` closing the class opened at
// start, or -1 when the class is unterminated. A `]` in first position
// (after an optional negation) is a literal member of the class.
func classEnd(runes []rune, start int) int {
	i := start + 1
	if i < len(runes) && (runes[i] == '!' || runes[i] == '^') {
		i++
	}
	if i < len(runes) && runes[i] == ']' {
		i++
	}
	for i < len(runes) {
		if runes[i] == ']' {
			return i
		}
		i++
	}
	return -1
}

// classToRegexp rebuilds a glob character class as a regexp class,
// converting `!` negation and escaping backslashes.
func classToRegexp(inner string) string {
	if strings.HasPrefix(inner, "!") {
		inner = "^" + inner[1:]
	}
	inner = strings.ReplaceAll(inner, `\`, `\\`)
	return "[" + inner + "]"
}

// escapeRune escapes regexp metacharacters in literal glob text.
func escapeRune(c rune) string {
	switch c {
	case '.', '+', '(', ')', '|', '^', '$', '{', '}', '\\', ']':
		return `\` + string(c)
	}
	return string(c)
}

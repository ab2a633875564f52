package command

import (
	"regexp"
	"strings"
)

// DefaultDivider packs several elementary commands into one stored string.
const DefaultDivider = "{N}"

var commentPattern = regexp.MustCompile(`(?s)\{!.*?!\}`)

// Split breaks a stored command on divider into trimmed elementary commands.
// {!...!} comments and empty segments are dropped.
func Split(raw, divider string) []string {
	if divider == "" {
		divider = DefaultDivider
	}
	raw = commentPattern.ReplaceAllString(raw, "")
	parts := strings.Split(raw, divider)
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// SplitAll flattens a list of stored commands, each of which may itself hold
// several divider-separated commands.
func SplitAll(commands []string, divider string) []string {
	var out []string
	for _, c := range commands {
		out = append(out, Split(c, divider)...)
	}
	return out
}

// Join packs commands into one stored string using divider.
func Join(commands []string, divider string) string {
	if divider == "" {
		divider = DefaultDivider
	}
	kept := make([]string, 0, len(commands))
	for _, c := range commands {
		if c = strings.TrimSpace(c); c != "" {
			kept = append(kept, c)
		}
	}
	return strings.Join(kept, divider)
}

// Fields splits s on spaces outside double-quoted segments. Quotes delimit
// segments and are not part of the returned tokens.
func Fields(s string) []string {
	var (
		out     []string
		current strings.Builder
		quoted  bool
		started bool
	)
	for _, r := range s {
		switch {
		case r == '"':
			quoted = !quoted
			started = true
		case (r == ' ' || r == '\t') && !quoted:
			if started {
				out = append(out, current.String())
				current.Reset()
				started = false
			}
		default:
			current.WriteRune(r)
			started = true
		}
	}
	if started {
		out = append(out, current.String())
	}
	return out
}

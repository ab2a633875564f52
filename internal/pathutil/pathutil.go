// Package pathutil splits and normalises the path portion of launcher
// commands. Functions never fail: inputs that cannot be resolved are handed
// back as best-effort strings and the caller decides what to do with them.
//
// Paths are treated with Windows semantics (drive letters, backslashes, UNC
// shares, %VAR% tokens) regardless of the host OS so behaviour is identical
// under test.
package pathutil

import (
	"os"
	"regexp"
	"strings"
)

var (
	// statFunc reports whether a path exists and whether it is a directory.
	statFunc = func(p string) (exists, dir bool) {
		info, err := os.Stat(p)
		if err != nil {
			return false, false
		}
		return true, info.IsDir()
	}
	getwd     = os.Getwd
	lookupEnv = os.LookupEnv

	urlScheme = regexp.MustCompile(`^[a-zA-Z][a-zA-Z0-9+.\-]+://`)
	envToken  = regexp.MustCompile(`%([^%\s]+)%`)
)

// Split separates a raw command into the program path, its arguments and a
// working directory derived from the path.
func Split(raw string) (path, args, workDir string) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", "", ""
	}

	switch {
	case IsURL(raw):
		path = raw
	case raw[0] == '"':
		end := strings.IndexByte(raw[1:], '"')
		if end < 0 {
			// unmatched quote: keep the text as a literal path
			path = strings.TrimSpace(raw[1:])
			break
		}
		path = raw[1 : end+1]
		args = strings.TrimSpace(raw[end+2:])
	default:
		idx := strings.IndexByte(raw, ' ')
		if idx < 0 {
			path = raw
			break
		}
		prefix, rest := raw[:idx], strings.TrimSpace(raw[idx+1:])
		switch {
		case exists(prefix):
			path, args = prefix, rest
		case exists(raw):
			path = raw
		default:
			path, args = prefix, rest
		}
	}

	if IsProperPath(path) {
		workDir = Directory(path)
	}
	return path, args, workDir
}

// Directory returns path itself when it names a directory, otherwise the path
// with its last component removed. Trailing separators are trimmed except
// for drive and filesystem roots.
func Directory(path string) string {
	path = strings.Trim(strings.TrimSpace(path), `"`)
	if path == "" {
		return ""
	}
	if _, dir := statFunc(path); dir {
		return trimSeparator(path)
	}
	trimmed := trimSeparator(path)
	idx := strings.LastIndexAny(trimmed, `\/`)
	if idx < 0 {
		return ""
	}
	return trimSeparator(trimmed[:idx+1])
}

// IsProperPath reports whether s looks like a filesystem path rather than a
// bare file name, a URL or a string with unexpanded %VAR% tokens.
func IsProperPath(s string) bool {
	s = strings.Trim(strings.TrimSpace(s), `"`)
	if s == "." || s == ".." {
		return true
	}
	if s == "" || IsURL(s) || envToken.MatchString(s) {
		return false
	}
	return strings.ContainsAny(s, `\/`) || hasDrive(s)
}

// IsURL reports whether s starts with a URL scheme, "www." or "mailto:".
func IsURL(s string) bool {
	lower := strings.ToLower(strings.TrimSpace(s))
	return urlScheme.MatchString(lower) || strings.HasPrefix(lower, "www.") || strings.HasPrefix(lower, "mailto:")
}

// IsUNC reports whether s is a \\server\share path.
func IsUNC(s string) bool {
	return strings.HasPrefix(strings.TrimSpace(s), `\\`)
}

// IsAbs reports whether s is rooted (drive, UNC or leading separator).
func IsAbs(s string) bool {
	if IsUNC(s) {
		return true
	}
	if len(s) >= 3 && hasDrive(s) && (s[2] == '\\' || s[2] == '/') {
		return true
	}
	return strings.HasPrefix(s, `\`) || strings.HasPrefix(s, "/")
}

// Resolve expands a relative proper path against the current working
// directory and quotes the result when it contains spaces.
func Resolve(path string) string {
	path = strings.Trim(strings.TrimSpace(path), `"`)
	if IsProperPath(path) && !IsAbs(path) {
		if cwd, err := getwd(); err == nil && cwd != "" {
			path = join(cwd, path)
		}
	}
	return Quote(path)
}

// ExpandEnv replaces %NAME% tokens with environment values. Unknown names are
// left untouched.
func ExpandEnv(s string) string {
	return envToken.ReplaceAllStringFunc(s, func(token string) string {
		name := token[1 : len(token)-1]
		if v, ok := lookupEnv(name); ok {
			return v
		}
		if v, ok := lookupEnv(strings.ToUpper(name)); ok {
			return v
		}
		return token
	})
}

// Quote wraps s in double quotes when it contains a space and is not already
// quoted.
func Quote(s string) string {
	if !strings.Contains(s, " ") || (len(s) >= 2 && s[0] == '"' && s[len(s)-1] == '"') {
		return s
	}
	return `"` + s + `"`
}

func exists(p string) bool {
	ok, _ := statFunc(p)
	return ok
}

func hasDrive(s string) bool {
	if len(s) < 2 || s[1] != ':' {
		return false
	}
	c := s[0] | 0x20
	return c >= 'a' && c <= 'z'
}

func trimSeparator(s string) string {
	for len(s) > 1 && (s[len(s)-1] == '\\' || s[len(s)-1] == '/') {
		if len(s) == 3 && hasDrive(s) {
			break
		}
		s = s[:len(s)-1]
	}
	return s
}

func join(base, rel string) string {
	sep := "/"
	if strings.Contains(base, `\`) || hasDrive(base) {
		sep = `\`
	}
	parts := splitSegments(base)
	for _, seg := range splitSegments(rel) {
		switch seg {
		case ".":
		case "..":
			if len(parts) > 1 {
				parts = parts[:len(parts)-1]
			}
		default:
			parts = append(parts, seg)
		}
	}
	out := strings.Join(parts, sep)
	if strings.HasPrefix(base, "/") && !strings.HasPrefix(out, "/") {
		out = "/" + out
	}
	if len(parts) == 1 && hasDrive(out) {
		out += sep
	}
	return out
}

func splitSegments(s string) []string {
	fields := strings.FieldsFunc(s, func(r rune) bool { return r == '\\' || r == '/' })
	return fields
}

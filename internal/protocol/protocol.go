// Package protocol defines the single-message grammar a secondary instance
// forwards to the running one.
package protocol

import (
	"strings"

	"github.com/example/quickcliq/internal/command"
)

// Flags understood by the primary instance.
const (
	FlagAddShortcut    = "-a"
	FlagStandalone     = "-sm"
	FlagStandaloneUpdt = "-smupd"
)

// MaxMessageSize bounds one forwarded message.
const MaxMessageSize = 5 << 20

// Kind classifies a message.
type Kind int

const (
	KindEmpty Kind = iota
	KindAddShortcut
	KindStandaloneMenu
	KindUnknown
)

func (k Kind) String() string {
	switch k {
	case KindEmpty:
		return "empty"
	case KindAddShortcut:
		return "add-shortcut"
	case KindStandaloneMenu:
		return "standalone-menu"
	default:
		return "unknown"
	}
}

// Request is a parsed message.
type Request struct {
	Kind   Kind
	Path   string
	Update bool
	// Raw is the message as received.
	Raw string
}

// Parse tokenizes msg, honouring double quotes, and classifies it by its
// first token. The path is the remaining tokens joined by single spaces so
// an unquoted path with spaces survives.
func Parse(msg string) Request {
	req := Request{Kind: KindUnknown, Raw: msg}
	tokens := command.Fields(msg)
	if len(tokens) == 0 {
		req.Kind = KindEmpty
		return req
	}

	path := strings.TrimSpace(strings.Join(tokens[1:], " "))
	switch strings.ToLower(tokens[0]) {
	case FlagAddShortcut:
		if path != "" {
			req.Kind, req.Path = KindAddShortcut, path
		}
	case FlagStandalone:
		if path != "" {
			req.Kind, req.Path = KindStandaloneMenu, path
		}
	case FlagStandaloneUpdt:
		if path != "" {
			req.Kind, req.Path, req.Update = KindStandaloneMenu, path, true
		}
	}
	return req
}

// JoinArgs builds the message for args, quoting arguments that contain
// spaces so Parse recovers them.
func JoinArgs(args []string) string {
	parts := make([]string, 0, len(args))
	for _, a := range args {
		if a == "" {
			continue
		}
		if strings.ContainsAny(a, " \t") && !(strings.HasPrefix(a, `"`) && strings.HasSuffix(a, `"`)) {
			a = `"` + a + `"`
		}
		parts = append(parts, a)
	}
	return strings.Join(parts, " ")
}

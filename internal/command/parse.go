// Package command implements the launcher command language: REP/WAIT/RUNAS
// style prefixes, special directives and the multi-target divider.
package command

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/example/quickcliq/internal/logging"
)

// Kind enumerates the special directives a command can carry.
type Kind int

const (
	KindNone Kind = iota
	KindWait
	KindCustomHotkeys
	KindOpenEditor
	KindWindowCommand
	KindCopyTo
	KindChangeFolder
	KindKillProcess
)

var kindNames = map[Kind]string{
	KindNone:          "none",
	KindWait:          "wait",
	KindCustomHotkeys: "custom-hotkeys",
	KindOpenEditor:    "open-editor",
	KindWindowCommand: "window",
	KindCopyTo:        "copyto",
	KindChangeFolder:  "change-folder",
	KindKillProcess:   "killproc",
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// WindowStyle selects how a launched program's main window is shown.
type WindowStyle int

const (
	StyleNormal WindowStyle = iota
	StyleMinimized
	StyleMaximized
)

// VerbRunAs requests elevation from the shell.
const VerbRunAs = "runas"

// Window command names accepted as a whole command.
const (
	WinCascade    = "win_casc"
	WinTaskSwitch = "win_tasksw"
	WinTileH      = "win_tileh"
	WinTileV      = "win_tilev"
	WinMinimize   = "win_min"
	WinUnminimize = "win_unmin"
	WinToggleDesk = "win_togd"
)

var windowCommands = map[string]struct{}{
	WinCascade:    {},
	WinTaskSwitch: {},
	WinTileH:      {},
	WinTileV:      {},
	WinMinimize:   {},
	WinUnminimize: {},
	WinToggleDesk: {},
}

// ClipLive addresses the system clipboard in a ClipSource lookup.
const ClipLive = -1

var (
	repPattern    = regexp.MustCompile(`(?i)^rep(\d+)\s+(.+)$`)
	waitPattern   = regexp.MustCompile(`(?i)^(?:wait|w)(\d+(?:\.\d+)?)$`)
	runasPattern  = regexp.MustCompile(`(?i)^runas\s+(.+)$`)
	runMinPattern = regexp.MustCompile(`(?i)^run_min\s+(.+)$`)
	runMaxPattern = regexp.MustCompile(`(?i)^run_max\s+(.+)$`)
	clipPattern   = regexp.MustCompile(`(?i)\{clip(\d?)\}`)
	copytoPattern = regexp.MustCompile(`(?i)^copyto([*^]*)\s+(.+)$`)
	killPattern   = regexp.MustCompile(`(?i)^killproc(?:\s+(.*))?$`)
)

// Parsed is the structured form of one elementary command.
type Parsed struct {
	Original    string
	Command     string
	RepeatCount int
	Verb        string
	WindowStyle WindowStyle
	Special     Kind
	WaitSeconds float64
	// Target is the copyto destination, change-folder directory, kill target
	// or window command name.
	Target    string
	Move      bool
	Overwrite bool
	// Clips lists the clipboard slots referenced by placeholders, ClipLive
	// for {clip}.
	Clips []int
}

// IsSpecial reports whether the command bypasses process launch.
func (p Parsed) IsSpecial() bool {
	return p.Special != KindNone
}

// maxWaitSeconds is the longest wait a time.Duration can hold.
const maxWaitSeconds = float64(math.MaxInt64 / int64(time.Second))

// Wait returns WaitSeconds as a duration, clamped to [0, maxWaitSeconds].
func (p Parsed) Wait() time.Duration {
	switch {
	case p.WaitSeconds <= 0:
		return 0
	case p.WaitSeconds >= maxWaitSeconds:
		return time.Duration(maxWaitSeconds) * time.Second
	}
	return time.Duration(p.WaitSeconds * float64(time.Second))
}

// ClipSource resolves clipboard placeholders. Slot ClipLive is the system
// clipboard, 0-9 are numbered clips.
type ClipSource interface {
	Clip(slot int) (string, error)
}

// Parser parses commands and substitutes clipboard placeholders through Clips.
// With a nil Clips placeholders expand to the empty string.
type Parser struct {
	Clips ClipSource
}

// Parse parses command without a clipboard collaborator.
func Parse(command string, forceElevate bool) Parsed {
	return Parser{}.Parse(command, forceElevate)
}

// Parse turns command into its structured form. It never fails: malformed
// numeric arguments make the whole string a literal standard command.
func (ps Parser) Parse(command string, forceElevate bool) Parsed {
	p := Parsed{Original: command, RepeatCount: 1}
	rest := strings.TrimSpace(command)

	if m := repPattern.FindStringSubmatch(rest); m != nil {
		n, err := strconv.Atoi(m[1])
		if err != nil || n < 1 {
			return literal(command, forceElevate)
		}
		p.RepeatCount = n
		rest = strings.TrimSpace(m[2])
	}

	if m := waitPattern.FindStringSubmatch(rest); m != nil {
		secs, err := strconv.ParseFloat(m[1], 64)
		if err != nil || secs > maxWaitSeconds {
			return literal(command, forceElevate)
		}
		p.Special = KindWait
		p.WaitSeconds = secs
		p.Command = rest
		return p
	}

	switch strings.ToLower(rest) {
	case "chk":
		p.Special = KindCustomHotkeys
		p.Command = rest
		return p
	case "editor":
		p.Special = KindOpenEditor
		p.Command = rest
		return p
	}

	if m := runasPattern.FindStringSubmatch(rest); m != nil {
		p.Verb = VerbRunAs
		rest = strings.TrimSpace(m[1])
	} else if forceElevate {
		p.Verb = VerbRunAs
	}

	if m := runMinPattern.FindStringSubmatch(rest); m != nil {
		p.WindowStyle = StyleMinimized
		rest = strings.TrimSpace(m[1])
	} else if m := runMaxPattern.FindStringSubmatch(rest); m != nil {
		p.WindowStyle = StyleMaximized
		rest = strings.TrimSpace(m[1])
	}

	rest, p.Clips = ps.expandClips(rest)
	rest = strings.TrimSpace(rest)

	if _, ok := windowCommands[strings.ToLower(rest)]; ok {
		p.Special = KindWindowCommand
		p.Command = strings.ToLower(rest)
		p.Target = p.Command
		return p
	}

	if m := copytoPattern.FindStringSubmatch(rest); m != nil {
		p.Special = KindCopyTo
		p.Move = strings.Contains(m[1], "*")
		p.Overwrite = strings.Contains(m[1], "^")
		p.Target = strings.Trim(strings.TrimSpace(m[2]), `"`)
		p.Command = rest
		return p
	}

	if strings.HasSuffix(rest, "^") {
		p.Special = KindChangeFolder
		p.Target = strings.TrimSpace(strings.TrimSuffix(rest, "^"))
		p.Command = p.Target
		return p
	}

	if m := killPattern.FindStringSubmatch(rest); m != nil {
		p.Special = KindKillProcess
		p.Target = strings.TrimSpace(m[1])
		p.Command = p.Target
		return p
	}

	p.Command = rest
	return p
}

func (ps Parser) expandClips(s string) (string, []int) {
	var slots []int
	out := clipPattern.ReplaceAllStringFunc(s, func(token string) string {
		slot := ClipLive
		if digits := clipPattern.FindStringSubmatch(token)[1]; digits != "" {
			slot = int(digits[0] - '0')
		}
		slots = append(slots, slot)
		if ps.Clips == nil {
			return ""
		}
		text, err := ps.Clips.Clip(slot)
		if err != nil {
			logging.Debugf("command: clip %d unavailable: %v", slot, err)
			return ""
		}
		return text
	})
	return out, slots
}

func literal(command string, forceElevate bool) Parsed {
	p := Parsed{Original: command, Command: strings.TrimSpace(command), RepeatCount: 1}
	if forceElevate {
		p.Verb = VerbRunAs
	}
	return p
}

package executor

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/atotto/clipboard"

	"github.com/example/quickcliq/internal/command"
)

// LaunchRequest describes one process launch.
type LaunchRequest struct {
	Path    string
	Args    string
	WorkDir string
	Verb    string
	Style   command.WindowStyle
}

// Launcher starts programs, documents, folders and URLs.
type Launcher interface {
	Launch(ctx context.Context, req LaunchRequest) error
}

// Clipboard reads and writes the system clipboard text.
type Clipboard interface {
	ReadAll() (string, error)
	WriteAll(text string) error
}

// WindowManager applies one of the win_* window commands.
type WindowManager interface {
	Apply(name string) error
}

// FileOps copies or moves clipboard file selections for copyto.
type FileOps interface {
	CopyTo(ctx context.Context, sources []string, dest string, move, overwrite bool) error
}

// FolderChanger navigates to a directory for commands ending in ^.
type FolderChanger interface {
	ChangeFolder(dir string) error
}

// ProcessKiller terminates processes by image name. An empty target means
// the process owning the foreground window.
type ProcessKiller interface {
	Kill(target string) error
}

// Host receives directives that belong to the user interface.
type Host interface {
	OpenEditor()
	CustomHotkeys()
}

// Reporter surfaces one consolidated failure per invocation.
type Reporter interface {
	Report(name string, err error)
}

// SystemClipboard is the OS clipboard.
type SystemClipboard struct{}

func (SystemClipboard) ReadAll() (string, error)   { return clipboard.ReadAll() }
func (SystemClipboard) WriteAll(text string) error { return clipboard.WriteAll(text) }

// ErrEmptyClip is returned for a numbered clip slot with no stored text.
var ErrEmptyClip = errors.New("executor: clip slot is empty")

// ClipSlots resolves {clip} from the live clipboard and {clipN} from
// Dir/N.txt.
type ClipSlots struct {
	Clipboard Clipboard
	Dir       string
}

func (c ClipSlots) Clip(slot int) (string, error) {
	if slot == command.ClipLive {
		if c.Clipboard == nil {
			return "", ErrEmptyClip
		}
		return c.Clipboard.ReadAll()
	}
	if c.Dir == "" {
		return "", ErrEmptyClip
	}
	data, err := os.ReadFile(filepath.Join(c.Dir, strconv.Itoa(slot)+".txt"))
	if errors.Is(err, os.ErrNotExist) {
		return "", ErrEmptyClip
	}
	if err != nil {
		return "", fmt.Errorf("read clip %d: %w", slot, err)
	}
	return strings.TrimRight(string(data), "\r\n"), nil
}

// ErrDestinationExists is returned by copyto without the overwrite flag when
// the target already exists.
var ErrDestinationExists = errors.New("executor: destination already exists")

type folderOpener struct {
	launcher Launcher
}

// NewFolderChanger returns a FolderChanger that opens the directory through
// the launcher.
func NewFolderChanger(l Launcher) FolderChanger {
	return folderOpener{launcher: l}
}

func (f folderOpener) ChangeFolder(dir string) error {
	if dir == "" {
		return fmt.Errorf("change folder: empty directory")
	}
	return f.launcher.Launch(context.Background(), LaunchRequest{Path: dir, WorkDir: dir})
}

//go:build !windows
// +build !windows

package executor

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"runtime"

	"github.com/example/quickcliq/internal/command"
	"github.com/example/quickcliq/internal/logging"
	"github.com/example/quickcliq/internal/pathutil"
)

type execLauncher struct{}

// NewLauncher returns a launcher that starts executables directly and hands
// URLs, folders and documents to the desktop opener.
func NewLauncher() Launcher {
	return execLauncher{}
}

func (execLauncher) Launch(_ context.Context, req LaunchRequest) error {
	if req.Verb == command.VerbRunAs {
		logging.Debugf("executor: elevation not supported here, launching %q normally", req.Path)
	}

	var cmd *exec.Cmd
	if pathutil.IsURL(req.Path) || !isExecutable(req.Path) {
		cmd = exec.Command(opener(), req.Path)
	} else {
		cmd = exec.Command(req.Path, command.Fields(req.Args)...)
		if req.WorkDir != "" {
			cmd.Dir = req.WorkDir
		}
	}
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("launch %q: %w", req.Path, err)
	}
	go func() { _ = cmd.Wait() }()
	return nil
}

func opener() string {
	if runtime.GOOS == "darwin" {
		return "open"
	}
	return "xdg-open"
}

func isExecutable(path string) bool {
	info, err := os.Stat(path)
	if err != nil {
		_, lookErr := exec.LookPath(path)
		return lookErr == nil
	}
	return !info.IsDir() && info.Mode()&0o111 != 0
}

type unsupportedWindows struct{}

// NewWindowManager returns a handler that refuses every window command.
func NewWindowManager() WindowManager {
	return unsupportedWindows{}
}

func (unsupportedWindows) Apply(name string) error {
	return fmt.Errorf("%s: %w", name, ErrUnsupported)
}

type pkillKiller struct{}

// NewProcessKiller returns a killer backed by pkill.
func NewProcessKiller() ProcessKiller {
	return pkillKiller{}
}

func (pkillKiller) Kill(target string) error {
	if target == "" {
		return fmt.Errorf("kill foreground process: %w", ErrUnsupported)
	}
	if err := exec.Command("pkill", "-x", target).Run(); err != nil {
		return fmt.Errorf("kill %q: %w", target, err)
	}
	return nil
}

// CurrentModifiers reports no pressed modifiers; keyboard state is only
// sampled on Windows.
func CurrentModifiers() Modifiers {
	return Modifiers{}
}

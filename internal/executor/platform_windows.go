//go:build windows
// +build windows

package executor

import (
	"context"
	"fmt"
	"strings"
	"unsafe"

	"go.uber.org/multierr"
	"golang.org/x/sys/windows"

	"github.com/example/quickcliq/internal/command"
	"github.com/example/quickcliq/internal/logging"
)

const (
	mdiTileVertical   = 0x0000
	mdiTileHorizontal = 0x0001

	wmCommand = 0x0111

	trayMinimizeAll     = 419
	trayMinimizeAllUndo = 416
	trayToggleDesktop   = 407

	vkShift   = 0x10
	vkControl = 0x11

	windowSwitcher = "shell:::{3080F90E-D7AD-11D9-BD98-0000947B0257}"
)

var (
	user32               = windows.NewLazySystemDLL("user32.dll")
	procCascadeWindows   = user32.NewProc("CascadeWindows")
	procTileWindows      = user32.NewProc("TileWindows")
	procFindWindowW      = user32.NewProc("FindWindowW")
	procPostMessageW     = user32.NewProc("PostMessageW")
	procGetAsyncKeyState = user32.NewProc("GetAsyncKeyState")
	shellTrayWindowClass = windows.StringToUTF16Ptr("Shell_TrayWnd")
)

type shellLauncher struct{}

// NewLauncher returns the ShellExecute based launcher.
func NewLauncher() Launcher {
	return shellLauncher{}
}

func (shellLauncher) Launch(_ context.Context, req LaunchRequest) error {
	verb := req.Verb
	if verb == "" {
		verb = "open"
	}
	return shellExecute(verb, req.Path, req.Args, req.WorkDir, showCommand(req.Style))
}

func shellExecute(verb, file, args, dir string, show int32) error {
	verbPtr, err := windows.UTF16PtrFromString(verb)
	if err != nil {
		return err
	}
	filePtr, err := windows.UTF16PtrFromString(file)
	if err != nil {
		return err
	}
	var argsPtr, dirPtr *uint16
	if args != "" {
		if argsPtr, err = windows.UTF16PtrFromString(args); err != nil {
			return err
		}
	}
	if dir != "" {
		if dirPtr, err = windows.UTF16PtrFromString(dir); err != nil {
			return err
		}
	}
	logging.Debugf("executor: ShellExecute verb=%s file=%q args=%q dir=%q show=%d", verb, file, args, dir, show)
	if err := windows.ShellExecute(0, verbPtr, filePtr, argsPtr, dirPtr, show); err != nil {
		return fmt.Errorf("launch %q: %w", file, err)
	}
	return nil
}

func showCommand(style command.WindowStyle) int32 {
	switch style {
	case command.StyleMinimized:
		return windows.SW_SHOWMINNOACTIVE
	case command.StyleMaximized:
		return windows.SW_SHOWMAXIMIZED
	default:
		return windows.SW_SHOWNORMAL
	}
}

type desktopWindows struct{}

// NewWindowManager returns the user32 backed window command handler.
func NewWindowManager() WindowManager {
	return desktopWindows{}
}

func (desktopWindows) Apply(name string) error {
	switch name {
	case command.WinCascade:
		return callUser32(procCascadeWindows, 0, 0, 0, 0, 0)
	case command.WinTileH:
		return callUser32(procTileWindows, 0, mdiTileHorizontal, 0, 0, 0)
	case command.WinTileV:
		return callUser32(procTileWindows, 0, mdiTileVertical, 0, 0, 0)
	case command.WinMinimize:
		return postTray(trayMinimizeAll)
	case command.WinUnminimize:
		return postTray(trayMinimizeAllUndo)
	case command.WinToggleDesk:
		return postTray(trayToggleDesktop)
	case command.WinTaskSwitch:
		return shellExecute("open", "explorer.exe", windowSwitcher, "", windows.SW_SHOWNORMAL)
	default:
		return fmt.Errorf("unknown window command %q", name)
	}
}

func callUser32(proc *windows.LazyProc, args ...uintptr) error {
	if err := proc.Find(); err != nil {
		return err
	}
	r, _, callErr := proc.Call(args...)
	if r == 0 {
		return fmt.Errorf("%s: %w", proc.Name, callErr)
	}
	return nil
}

func postTray(cmd uintptr) error {
	if err := procFindWindowW.Find(); err != nil {
		return err
	}
	hwnd, _, _ := procFindWindowW.Call(uintptr(unsafe.Pointer(shellTrayWindowClass)), 0)
	if hwnd == 0 {
		return fmt.Errorf("taskbar window not found")
	}
	return callUser32(procPostMessageW, hwnd, wmCommand, cmd, 0)
}

type processKiller struct{}

// NewProcessKiller returns the Toolhelp snapshot based killer.
func NewProcessKiller() ProcessKiller {
	return processKiller{}
}

func (processKiller) Kill(target string) error {
	if target == "" {
		hwnd := windows.GetForegroundWindow()
		var pid uint32
		if _, err := windows.GetWindowThreadProcessId(hwnd, &pid); err != nil {
			return fmt.Errorf("resolve foreground process: %w", err)
		}
		if pid == 0 {
			return fmt.Errorf("no foreground process")
		}
		return terminate(pid)
	}

	snapshot, err := windows.CreateToolhelp32Snapshot(windows.TH32CS_SNAPPROCESS, 0)
	if err != nil {
		return fmt.Errorf("process snapshot: %w", err)
	}
	defer windows.CloseHandle(snapshot)

	var entry windows.ProcessEntry32
	entry.Size = uint32(unsafe.Sizeof(entry))
	var (
		errs    error
		matched int
	)
	for err = windows.Process32First(snapshot, &entry); err == nil; err = windows.Process32Next(snapshot, &entry) {
		name := windows.UTF16ToString(entry.ExeFile[:])
		if !strings.EqualFold(name, target) && !strings.EqualFold(name, target+".exe") {
			continue
		}
		matched++
		errs = multierr.Append(errs, terminate(entry.ProcessID))
	}
	if matched == 0 {
		return fmt.Errorf("no running process named %q", target)
	}
	return errs
}

func terminate(pid uint32) error {
	handle, err := windows.OpenProcess(windows.PROCESS_TERMINATE, false, pid)
	if err != nil {
		return fmt.Errorf("open process %d: %w", pid, err)
	}
	defer windows.CloseHandle(handle)
	if err := windows.TerminateProcess(handle, 1); err != nil {
		return fmt.Errorf("terminate process %d: %w", pid, err)
	}
	logging.Debugf("executor: terminated process %d", pid)
	return nil
}

// CurrentModifiers samples the physical Ctrl and Shift key state.
func CurrentModifiers() Modifiers {
	return Modifiers{
		Ctrl:  keyDown(vkControl),
		Shift: keyDown(vkShift),
	}
}

func keyDown(vk uintptr) bool {
	if procGetAsyncKeyState.Find() != nil {
		return false
	}
	r, _, _ := procGetAsyncKeyState.Call(vk)
	return r&0x8000 != 0
}

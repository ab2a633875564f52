//go:build windows
// +build windows

package popup

import "golang.org/x/sys/windows"

var (
	kernel32             = windows.NewLazySystemDLL("kernel32.dll")
	procGetConsoleWindow = kernel32.NewProc("GetConsoleWindow")
	procAllocConsole     = kernel32.NewProc("AllocConsole")
	procFreeConsole      = kernel32.NewProc("FreeConsole")
)

// attachTerminal allocates a console window when the process runs detached
// and frees it again once the menu closes.
func attachTerminal() (func(), error) {
	if hwnd, _, _ := procGetConsoleWindow.Call(); hwnd != 0 {
		return func() {}, nil
	}
	if r, _, err := procAllocConsole.Call(); r == 0 {
		return nil, err
	}
	return func() { procFreeConsole.Call() }, nil
}

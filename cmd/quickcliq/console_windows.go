//go:build windows
// +build windows

package main

import (
	"os"

	"golang.org/x/sys/windows"
)

func init() {
	if keepConsole(os.Args[1:]) {
		return
	}
	detachConsole()
}

// detachConsole hides the console window a double-clicked launch opens.
func detachConsole() {
	kernel32 := windows.NewLazySystemDLL("kernel32.dll")
	user32 := windows.NewLazySystemDLL("user32.dll")

	getConsoleWindow := kernel32.NewProc("GetConsoleWindow")
	showWindow := user32.NewProc("ShowWindow")
	freeConsole := kernel32.NewProc("FreeConsole")

	hwnd, _, _ := getConsoleWindow.Call()
	if hwnd == 0 {
		return
	}

	const swHide = 0
	showWindow.Call(hwnd, swHide)
	freeConsole.Call()
}

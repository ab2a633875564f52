//go:build windows
// +build windows

package notify

import (
	"fmt"

	"golang.org/x/sys/windows"
)

const (
	mbOK            = 0x00000000
	mbIconWarning   = 0x00000030
	mbSetForeground = 0x00010000
	mbTopmost       = 0x00040000
)

func showMessage(title, message string) error {
	t, err := windows.UTF16PtrFromString(title)
	if err != nil {
		return fmt.Errorf("encode title: %w", err)
	}
	m, err := windows.UTF16PtrFromString(message)
	if err != nil {
		return fmt.Errorf("encode message: %w", err)
	}
	if _, err := windows.MessageBox(0, m, t, mbOK|mbIconWarning|mbSetForeground|mbTopmost); err != nil {
		return fmt.Errorf("message box: %w", err)
	}
	return nil
}

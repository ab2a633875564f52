//go:build darwin && cgo
// +build darwin,cgo

package tray

import "github.com/getlantern/systray"

func setTemplateIcon(icon []byte) {
	systray.SetTemplateIcon(icon, icon)
}

//go:build !darwin || !cgo
// +build !darwin !cgo

package tray

func setTemplateIcon([]byte) {}

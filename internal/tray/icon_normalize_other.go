//go:build !windows
// +build !windows

package tray

// platformNormalizeIcon passes PNG and ICO data through unchanged; the tray
// implementations outside Windows accept both.
func platformNormalizeIcon(data []byte) []byte {
	return data
}

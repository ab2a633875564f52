//go:build !windows
// +build !windows

package notify

// showMessage has nothing beyond the log line written by Notify.
func showMessage(string, string) error {
	return nil
}

//go:build !windows
// +build !windows

package autostart

type unsupportedKey struct{}

func platformKey() runKey { return unsupportedKey{} }

func (unsupportedKey) Get(string) (string, bool, error) { return "", false, nil }
func (unsupportedKey) Set(string, string) error         { return ErrUnsupported }
func (unsupportedKey) Delete(string) error              { return nil }

package logging

import (
	"encoding/base64"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"sync/atomic"
	"unicode/utf8"
)

var debugEnabled atomic.Bool

// EnableDebug turns on verbose debug logging for the application lifecycle.
func EnableDebug() {
	debugEnabled.Store(true)
	log.Printf("[DEBUG] debug logging enabled")
}

// DisableDebug turns verbose logging back off.
func DisableDebug() {
	debugEnabled.Store(false)
}

// DebugEnabled reports whether debug logging is active.
func DebugEnabled() bool {
	return debugEnabled.Load()
}

// Debugf emits a formatted debug log message when debugging is enabled.
func Debugf(format string, args ...interface{}) {
	if !DebugEnabled() {
		return
	}
	log.Printf("[DEBUG] "+format, args...)
}

// Setup redirects the standard logger to an append-only file. The returned
// closer restores stderr output when closed.
func Setup(path string) (io.Closer, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return nil, fmt.Errorf("ensure log directory: %w", err)
	}
	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600)
	if err != nil {
		return nil, fmt.Errorf("open log file: %w", err)
	}
	log.SetOutput(file)
	log.SetFlags(log.LstdFlags)
	return closerFunc(func() error {
		log.SetOutput(os.Stderr)
		return file.Close()
	}), nil
}

type closerFunc func() error

func (f closerFunc) Close() error { return f() }

// Summarize describes a payload for log output. Text payloads are shown as-is
// up to max bytes, anything else is base64 encoded.
func Summarize(payload string, max int) string {
	data := []byte(payload)
	if !utf8.Valid(data) {
		encoded := base64.StdEncoding.EncodeToString(data)
		return fmt.Sprintf("(base64, %d bytes): %s", len(data), truncate(encoded, max))
	}
	return fmt.Sprintf("(utf-8, %d bytes): %s", len(data), truncate(payload, max))
}

func truncate(value string, max int) string {
	if max <= 0 || len(value) <= max {
		return value
	}
	if max <= 3 {
		return value[:max]
	}
	return value[:max-3] + "..."
}

package executor

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/example/quickcliq/internal/command"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}

func readFile(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read %s: %v", path, err)
	}
	return string(data)
}

func TestCopyToCopiesFilesAndDirectories(t *testing.T) {
	src := t.TempDir()
	dest := filepath.Join(t.TempDir(), "backup")
	file := filepath.Join(src, "notes.txt")
	dir := filepath.Join(src, "project")
	writeFile(t, file, "hello")
	writeFile(t, filepath.Join(dir, "sub", "main.go"), "package main")

	if err := (DiskFileOps{}).CopyTo(context.Background(), []string{file, dir}, dest, false, false); err != nil {
		t.Fatalf("CopyTo: %v", err)
	}
	if got := readFile(t, filepath.Join(dest, "notes.txt")); got != "hello" {
		t.Fatalf("copied file = %q", got)
	}
	if got := readFile(t, filepath.Join(dest, "project", "sub", "main.go")); got != "package main" {
		t.Fatalf("copied tree file = %q", got)
	}
	if _, err := os.Stat(file); err != nil {
		t.Fatalf("copy removed source: %v", err)
	}
}

func TestCopyToRespectsOverwriteFlag(t *testing.T) {
	src := t.TempDir()
	dest := t.TempDir()
	file := filepath.Join(src, "a.txt")
	writeFile(t, file, "new")
	writeFile(t, filepath.Join(dest, "a.txt"), "old")

	err := (DiskFileOps{}).CopyTo(context.Background(), []string{file}, dest, false, false)
	if !errors.Is(err, ErrDestinationExists) {
		t.Fatalf("expected ErrDestinationExists, got %v", err)
	}
	if got := readFile(t, filepath.Join(dest, "a.txt")); got != "old" {
		t.Fatalf("destination modified without overwrite: %q", got)
	}

	if err := (DiskFileOps{}).CopyTo(context.Background(), []string{file}, dest, false, true); err != nil {
		t.Fatalf("CopyTo overwrite: %v", err)
	}
	if got := readFile(t, filepath.Join(dest, "a.txt")); got != "new" {
		t.Fatalf("destination not overwritten: %q", got)
	}
}

func TestCopyToMoveRemovesSource(t *testing.T) {
	src := t.TempDir()
	dest := t.TempDir()
	file := filepath.Join(src, "move.txt")
	writeFile(t, file, "payload")

	if err := (DiskFileOps{}).CopyTo(context.Background(), []string{file, filepath.Join(src, "missing.txt")}, dest, true, false); err == nil {
		t.Fatalf("expected error for missing source")
	}
	if _, err := os.Stat(file); !os.IsNotExist(err) {
		t.Fatalf("moved source still present: %v", err)
	}
	if got := readFile(t, filepath.Join(dest, "move.txt")); got != "payload" {
		t.Fatalf("moved file = %q", got)
	}
}

func TestClipSlots(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "3.txt"), "third clip\r\n")
	slots := ClipSlots{Clipboard: &fakeClipboard{text: "live"}, Dir: dir}

	if got, err := slots.Clip(command.ClipLive); err != nil || got != "live" {
		t.Fatalf("live clip = %q, %v", got, err)
	}
	if got, err := slots.Clip(3); err != nil || got != "third clip" {
		t.Fatalf("slot 3 = %q, %v", got, err)
	}
	if _, err := slots.Clip(4); !errors.Is(err, ErrEmptyClip) {
		t.Fatalf("expected ErrEmptyClip, got %v", err)
	}
}

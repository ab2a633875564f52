package executor

import (
	"context"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"go.uber.org/multierr"

	"github.com/example/quickcliq/internal/logging"
)

// DiskFileOps implements copyto on the local filesystem.
type DiskFileOps struct{}

// CopyTo copies (or moves) every source into dest, which is created when
// missing. Each source is attempted even if an earlier one failed.
func (DiskFileOps) CopyTo(ctx context.Context, sources []string, dest string, move, overwrite bool) error {
	if err := os.MkdirAll(dest, 0o755); err != nil {
		return fmt.Errorf("ensure destination: %w", err)
	}
	var errs error
	for _, src := range sources {
		if err := ctx.Err(); err != nil {
			return multierr.Append(errs, err)
		}
		target := filepath.Join(dest, filepath.Base(src))
		if err := transfer(src, target, move, overwrite); err != nil {
			errs = multierr.Append(errs, fmt.Errorf("%s: %w", src, err))
			continue
		}
		logging.Debugf("executor: copyto %s -> %s (move=%t)", src, target, move)
	}
	return errs
}

func transfer(src, target string, move, overwrite bool) error {
	info, err := os.Stat(src)
	if err != nil {
		return err
	}
	if _, err := os.Lstat(target); err == nil {
		if !overwrite {
			return ErrDestinationExists
		}
		if err := os.RemoveAll(target); err != nil {
			return fmt.Errorf("replace destination: %w", err)
		}
	}
	if move {
		if err := os.Rename(src, target); err == nil {
			return nil
		}
	}
	if info.IsDir() {
		err = copyTree(src, target)
	} else {
		err = copyFile(src, target, info.Mode())
	}
	if err != nil {
		return err
	}
	if move {
		return os.RemoveAll(src)
	}
	return nil
}

func copyTree(src, target string) error {
	return filepath.WalkDir(src, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(src, path)
		if err != nil {
			return err
		}
		out := filepath.Join(target, rel)
		if d.IsDir() {
			return os.MkdirAll(out, 0o755)
		}
		info, err := d.Info()
		if err != nil {
			return err
		}
		return copyFile(path, out, info.Mode())
	})
}

func copyFile(src, target string, mode fs.FileMode) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.OpenFile(target, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, mode.Perm())
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}

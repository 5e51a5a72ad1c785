// Package copy performs the filesystem side of a placement: copying a source
// into its month directory and buffer, and removing replaced originals.
package copy

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/quidome/media-ledger/pkg/plan"
)

var (
	// ErrDestinationExists is returned when attempting to copy to an existing file
	ErrDestinationExists = errors.New("destination file already exists")
)

// Result contains the outcome of a copy operation.
type Result struct {
	Operation plan.Operation
	Success   bool
	Error     error
}

// Options configures the copy behavior.
type Options struct {
	// Overwrite allows overwriting existing files.
	// Default should be false for safety.
	Overwrite bool
}

// Execute copies each operation's source to its destination, in order.
// Destination directories are created as needed, existing files are kept
// unless Overwrite is set, and the source mode and modification time carry
// over to the copy.
//
// Per-operation failures are reported in the results; the returned error is
// only set when ctx is cancelled.
func Execute(ctx context.Context, operations []plan.Operation, opts Options) ([]Result, error) {
	results := make([]Result, 0, len(operations))
	for _, op := range operations {
		if err := ctx.Err(); err != nil {
			return results, err
		}
		err := place(op.SourcePath, op.DestinationPath, opts.Overwrite)
		results = append(results, Result{Operation: op, Success: err == nil, Error: err})
	}
	return results, nil
}

// Remove deletes each path. Paths that are already gone are not an error.
func Remove(paths ...string) error {
	var errs []error
	for _, p := range paths {
		if err := os.Remove(p); err != nil && !errors.Is(err, os.ErrNotExist) {
			errs = append(errs, fmt.Errorf("remove %s: %w", p, err))
		}
	}
	return errors.Join(errs...)
}

// place stages src next to dst under a hidden temporary name and renames it
// into place, so an interrupted copy never leaves a truncated file under the
// final name.
func place(src, dst string, overwrite bool) error {
	in, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("open source: %w", err)
	}
	defer in.Close()

	info, err := in.Stat()
	if err != nil {
		return fmt.Errorf("stat source: %w", err)
	}

	dir := filepath.Dir(dst)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create directory: %w", err)
	}
	if !overwrite {
		if _, err := os.Lstat(dst); err == nil {
			return ErrDestinationExists
		}
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(dst)+".*")
	if err != nil {
		return fmt.Errorf("create temporary file: %w", err)
	}
	staged := tmp.Name()
	defer os.Remove(staged)

	if _, err := io.Copy(tmp, in); err != nil {
		tmp.Close()
		return fmt.Errorf("copy content: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("sync: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close: %w", err)
	}
	if err := os.Chmod(staged, info.Mode().Perm()); err != nil {
		return fmt.Errorf("set mode: %w", err)
	}
	// Keep the source mtime so a later run falls back to the same date.
	if err := os.Chtimes(staged, info.ModTime(), info.ModTime()); err != nil {
		return fmt.Errorf("set times: %w", err)
	}

	if !overwrite {
		// Link fails if dst appeared since the check above.
		if err := os.Link(staged, dst); err != nil {
			if errors.Is(err, os.ErrExist) {
				return ErrDestinationExists
			}
			return fmt.Errorf("link into place: %w", err)
		}
		return nil
	}
	if err := os.Rename(staged, dst); err != nil {
		return fmt.Errorf("rename into place: %w", err)
	}
	return nil
}

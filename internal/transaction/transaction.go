// Package transaction serializes read-modify-write updates of a shared file,
// with a lock file for exclusion across processes and write-then-rename for
// atomic replacement.
package transaction

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
)

// MutateFunc receives the current file contents and returns the new contents.
type MutateFunc func(current []byte) ([]byte, error)

// Update reloads path, applies fn and atomically replaces path with the
// result, all while holding the lock file for path.
//
// The lock only serializes cooperating writers; it makes no promise about
// writers that bypass it.
func Update(ctx context.Context, path string, fn MutateFunc) error {
	lock, err := AcquireLock(ctx, LockPath(path))
	if err != nil {
		return err
	}
	defer lock.Release()

	current, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read %s: %w", path, err)
	}

	next, err := fn(current)
	if err != nil {
		return err
	}

	perm := os.FileMode(0644)
	if info, err := os.Stat(path); err == nil {
		perm = info.Mode().Perm()
	}

	return WriteFileAtomic(path, next, perm)
}

// WriteFileAtomic writes data to a temporary file next to path and renames it
// into place.
func WriteFileAtomic(path string, data []byte, perm os.FileMode) error {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temporary file: %w", err)
	}
	tmpPath := tmp.Name()

	cleanupNeeded := true
	defer func() {
		if cleanupNeeded {
			tmp.Close()
			os.Remove(tmpPath) // Clean up temp file on error
		}
	}()

	if _, err := tmp.Write(data); err != nil {
		return fmt.Errorf("write temporary file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		return fmt.Errorf("sync temporary file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temporary file: %w", err)
	}
	if err := os.Chmod(tmpPath, perm); err != nil {
		return fmt.Errorf("chmod temporary file: %w", err)
	}

	// Atomic rename
	if err := os.Rename(tmpPath, path); err != nil {
		return fmt.Errorf("rename temporary file: %w", err)
	}
	cleanupNeeded = false

	// Sync directory for durability
	df, err := os.Open(dir)
	if err == nil {
		if syncErr := df.Sync(); syncErr != nil {
			df.Close()
			return fmt.Errorf("sync directory: %w", syncErr)
		}
		df.Close()
	}

	return nil
}

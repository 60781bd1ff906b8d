// Package filex holds small filesystem helpers for private, owner-only state.
package filex

import (
	"fmt"
	"os"
	"path/filepath"
)

// PrivateDirPerm and PrivateFilePerm restrict access to the owner.
const (
	PrivateDirPerm  os.FileMode = 0o700
	PrivateFilePerm os.FileMode = 0o600
)

// EnsurePrivateDir creates dir (and parents) with owner-only permissions and
// returns its absolute path. An existing directory is tightened to 0700.
func EnsurePrivateDir(dir string) (string, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return "", fmt.Errorf("abs %s: %w", dir, err)
	}

	if err := os.MkdirAll(abs, PrivateDirPerm); err != nil {
		return "", fmt.Errorf("mkdir %s: %w", abs, err)
	}

	// MkdirAll is a no-op for an existing directory and is subject to umask.
	if err := os.Chmod(abs, PrivateDirPerm); err != nil {
		return "", fmt.Errorf("chmod %s: %w", abs, err)
	}

	return abs, nil
}

// WriteFileAtomic writes data to a temporary file in the target directory,
// syncs it, applies perm and renames it over path. Readers see either the
// old or the new content, never a partial write.
func WriteFileAtomic(path string, data []byte, perm os.FileMode) (err error) {
	dir := filepath.Dir(path)

	f, err := os.CreateTemp(dir, ".tmp-"+filepath.Base(path)+"-")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmp := f.Name()

	defer func() {
		if err != nil {
			_ = f.Close()
			_ = os.Remove(tmp)
		}
	}()

	if err = f.Chmod(perm); err != nil {
		return fmt.Errorf("chmod temp file: %w", err)
	}
	if _, err = f.Write(data); err != nil {
		return fmt.Errorf("write temp file: %w", err)
	}
	if err = f.Sync(); err != nil {
		return fmt.Errorf("sync temp file: %w", err)
	}
	if err = f.Close(); err != nil {
		return fmt.Errorf("close temp file: %w", err)
	}
	if err = os.Rename(tmp, path); err != nil {
		return fmt.Errorf("rename %s: %w", path, err)
	}

	return nil
}

// Package fsx provides the small filesystem primitives every mutation in
// pqhub is built on: atomic file replacement via temp-file + rename.
package fsx

import (
	"fmt"
	"os"
	"path/filepath"
)

// WriteFileAtomic writes data to path so that readers observe either the
// previous content or the new content, never a partial write. The data is
// staged in a temp file in the same directory and renamed into place;
// the temp file is discarded on any failure.
func WriteFileAtomic(path string, data []byte, perm os.FileMode) error {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("cannot create temp file in %s: %w", dir, err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return fmt.Errorf("cannot write temp file %s: %w", tmpName, err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("cannot close temp file %s: %w", tmpName, err)
	}
	// Best effort: CreateTemp uses 0600, widen to the requested mode.
	_ = os.Chmod(tmpName, perm)

	if err := replaceFile(tmpName, path); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("cannot replace %s: %w", path, err)
	}
	return nil
}

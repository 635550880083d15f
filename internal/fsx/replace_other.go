//go:build !windows

package fsx

import "os"

// replaceFile renames src onto dst, replacing dst if it exists.
func replaceFile(src, dst string) error {
	return os.Rename(src, dst)
}

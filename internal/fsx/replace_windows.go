//go:build windows

package fsx

import (
	"os"

	"golang.org/x/sys/windows"
)

// replaceFile renames src onto dst, replacing dst if it exists.
//
// os.Rename fails on Windows when dst exists, so use MoveFileEx with
// MOVEFILE_REPLACE_EXISTING. MOVEFILE_WRITE_THROUGH makes the call return
// only after the move has hit disk.
func replaceFile(src, dst string) error {
	s, err := windows.UTF16PtrFromString(src)
	if err != nil {
		return err
	}
	d, err := windows.UTF16PtrFromString(dst)
	if err != nil {
		return err
	}
	if err := windows.MoveFileEx(s, d, windows.MOVEFILE_REPLACE_EXISTING|windows.MOVEFILE_WRITE_THROUGH); err != nil {
		return &os.LinkError{Op: "replace", Old: src, New: dst, Err: err}
	}
	return nil
}

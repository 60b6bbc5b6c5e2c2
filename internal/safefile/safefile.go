// Package safefile provides hardened file open operations.
package safefile

import (
	"errors"
	"os"
)

// ErrNotRegularFile is returned when a path does not point at a regular
// file. This covers symlinks, FIFOs, devices, sockets, and directories.
var ErrNotRegularFile = errors.New("not a regular file")

// OpenRegular opens a file and verifies it is a regular file, both
// before the open (without following symlinks) and again on the opened
// descriptor. This narrows the window in which the path could be
// swapped for a symlink or special file between check and use.
//
// The caller must close the returned file when done.
func OpenRegular(path string) (*os.File, os.FileInfo, error) {
	linkInfo, err := os.Lstat(path)
	if err != nil {
		return nil, nil, err
	}
	if !linkInfo.Mode().IsRegular() {
		return nil, nil, ErrNotRegularFile
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, nil, err
	}

	// Stat the descriptor, not the path, so the verdict applies to the
	// file actually opened.
	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, nil, err
	}
	if !info.Mode().IsRegular() {
		f.Close()
		return nil, nil, ErrNotRegularFile
	}

	return f, info, nil
}

// StatRegular returns file info for path, failing with
// ErrNotRegularFile when the path is not a regular file. Symlinks are
// not followed.
func StatRegular(path string) (os.FileInfo, error) {
	info, err := os.Lstat(path)
	if err != nil {
		return nil, err
	}
	if !info.Mode().IsRegular() {
		return nil, ErrNotRegularFile
	}
	return info, nil
}

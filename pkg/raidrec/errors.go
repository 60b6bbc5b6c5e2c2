package raidrec

import (
	"errors"
	"fmt"

	"github.com/raidrec/raidrec-go/internal/logfinder"
)

var (
	// ErrLogDirNotFound is returned when no combat log directory can be
	// located.
	ErrLogDirNotFound = logfinder.ErrLogDirNotFound
	// ErrNoLogFiles is returned when the log directory holds no files
	// matching the log pattern.
	ErrNoLogFiles = logfinder.ErrNoLogFiles
	// ErrWatcherClosed is returned when using a closed watcher.
	ErrWatcherClosed = errors.New("watcher is closed")
	// ErrAlreadyWatching is returned when Watch is called twice on the
	// same watcher.
	ErrAlreadyWatching = errors.New("watcher is already watching")
)

// WatchOp identifies the watcher operation an error came from.
type WatchOp string

const (
	WatchOpFindLatest WatchOp = "find_latest"
	WatchOpTail       WatchOp = "tail"
	WatchOpRotation   WatchOp = "rotation"
)

// WatchError wraps an error from a watcher operation with the
// operation name and, when known, the file involved.
type WatchError struct {
	Op   WatchOp
	Path string
	Err  error
}

func (e *WatchError) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("%s %s: %v", e.Op, e.Path, e.Err)
	}
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *WatchError) Unwrap() error { return e.Err }

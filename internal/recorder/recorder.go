// Package recorder talks to the external recording service.
package recorder

import (
	"context"
	"time"
)

// Status describes the recorder's current output state.
type Status struct {
	// Active reports whether a recording is in progress.
	Active bool
	// OutputPath is the file currently being written, when the
	// recorder reports one.
	OutputPath string
	// Elapsed is how long the current recording has been running.
	Elapsed time.Duration
}

// Recorder is the minimal control surface the capture pipeline needs.
//
// Implementations must make StartRecording and StopRecording idempotent:
// starting an already-active recording and stopping an already-inactive
// one are safe no-ops reported as success.
type Recorder interface {
	StartRecording(ctx context.Context) error
	StopRecording(ctx context.Context) error
	Status(ctx context.Context) (Status, error)

	// RecordingDirectory returns the directory the recorder writes to,
	// or "" when the recorder does not expose it.
	RecordingDirectory(ctx context.Context) (string, error)
}

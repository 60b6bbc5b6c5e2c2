// Package tailer follows a growing log file and delivers its lines.
// It is a thin seam over github.com/nxadm/tail so the watcher can be
// tested against plain channels.
package tailer

import (
	"context"
	"io"

	"github.com/nxadm/tail"
)

// Config controls how a file is followed.
type Config struct {
	// FromStart reads the file from the beginning instead of seeking to
	// the end before following.
	FromStart bool

	// Poll uses polling instead of inotify. Polling is the safe default
	// here: combat logs frequently live on network or Wine-mapped
	// filesystems where inotify events are unreliable.
	Poll bool
}

// DefaultConfig returns the configuration used for live log following.
func DefaultConfig() Config {
	return Config{Poll: true}
}

// Tailer follows a single file.
type Tailer struct {
	t      *tail.Tail
	lines  chan string
	errs   chan error
	cancel context.CancelFunc
}

// New starts following path. Lines are delivered on Lines(), read
// errors on Errors(). The tailer stops when ctx is cancelled or Stop is
// called.
func New(ctx context.Context, path string, cfg Config) (*Tailer, error) {
	loc := &tail.SeekInfo{Whence: io.SeekEnd}
	if cfg.FromStart {
		loc = &tail.SeekInfo{Whence: io.SeekStart}
	}

	t, err := tail.TailFile(path, tail.Config{
		Follow:    true,
		ReOpen:    false,
		Poll:      cfg.Poll,
		MustExist: true,
		Location:  loc,
		Logger:    tail.DiscardingLogger,
	})
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithCancel(ctx)
	tl := &Tailer{
		t:      t,
		lines:  make(chan string),
		errs:   make(chan error, 1),
		cancel: cancel,
	}
	go tl.run(ctx)
	return tl, nil
}

func (tl *Tailer) run(ctx context.Context) {
	defer close(tl.lines)
	defer close(tl.errs)

	for {
		select {
		case <-ctx.Done():
			return
		case line, ok := <-tl.t.Lines:
			if !ok {
				if err := tl.t.Err(); err != nil {
					select {
					case tl.errs <- err:
					default:
					}
				}
				return
			}
			if line.Err != nil {
				select {
				case tl.errs <- line.Err:
				default:
				}
				continue
			}
			select {
			case tl.lines <- line.Text:
			case <-ctx.Done():
				return
			}
		}
	}
}

// Lines returns the channel of delivered lines. It is closed when the
// tailer stops.
func (tl *Tailer) Lines() <-chan string { return tl.lines }

// Errors returns the channel of read errors.
func (tl *Tailer) Errors() <-chan error { return tl.errs }

// Stop stops following the file and releases resources. Safe to call
// once per tailer.
func (tl *Tailer) Stop() error {
	tl.cancel()
	err := tl.t.Stop()
	tl.t.Cleanup()
	return err
}

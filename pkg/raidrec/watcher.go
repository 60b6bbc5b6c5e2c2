package raidrec

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/raidrec/raidrec-go/internal/logfinder"
	"github.com/raidrec/raidrec-go/internal/tailer"
	"github.com/raidrec/raidrec-go/pkg/raidrec/combatlog"
)

// watcherErrBuffer is the buffer size for the error channel. A small
// buffer prevents error loss during brief moments when the consumer is
// busy, while keeping memory usage minimal.
const watcherErrBuffer = 16

// Watcher follows the newest combat log file in a directory, switching
// to a newer file when the game rotates logs.
type Watcher struct {
	cfg    watchConfig // immutable after creation
	logDir string
	log    *slog.Logger

	mu       sync.Mutex
	closed   bool
	cancel   context.CancelFunc
	doneCh   chan struct{} // signals when the goroutine has exited
	watching bool
}

var discardLogger = slog.New(slog.NewTextHandler(io.Discard, nil))

// NewWatcher creates a watcher using functional options. Validates
// options and resolves the log directory. Does not start goroutines.
func NewWatcher(opts ...WatchOption) (*Watcher, error) {
	cfg := applyWatchOptions(opts)

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("invalid options: %w", err)
	}

	logDir, err := logfinder.FindLogDir(cfg.logDir)
	if err != nil {
		return nil, fmt.Errorf("finding log directory: %w", err)
	}

	log := cfg.logger
	if log == nil {
		log = discardLogger
	}

	return &Watcher{
		cfg:    *cfg, // copy to ensure immutability
		logDir: logDir,
		log:    log,
	}, nil
}

// Watch creates a watcher and starts it in one call. The watcher stops
// when ctx is cancelled; for synchronous shutdown use NewWatcher and
// Watcher.Close directly.
func Watch(ctx context.Context, opts ...WatchOption) (<-chan combatlog.Event, <-chan error, error) {
	w, err := NewWatcher(opts...)
	if err != nil {
		return nil, nil, err
	}
	return w.Watch(ctx)
}

// LogDir returns the resolved combat log directory.
func (w *Watcher) LogDir() string { return w.logDir }

// Watch starts the watching goroutine and returns its channels. Both
// channels close on ctx cancellation or fatal error. Watch can only be
// called once per Watcher.
//
// Returns ErrWatcherClosed after Close, ErrAlreadyWatching on a second
// call.
func (w *Watcher) Watch(ctx context.Context) (<-chan combatlog.Event, <-chan error, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closed {
		return nil, nil, ErrWatcherClosed
	}
	if w.watching {
		return nil, nil, ErrAlreadyWatching
	}
	w.watching = true

	ctx, cancel := context.WithCancel(ctx)
	w.cancel = cancel
	w.doneCh = make(chan struct{})

	eventCh := make(chan combatlog.Event)
	errCh := make(chan error, watcherErrBuffer)

	go w.run(ctx, eventCh, errCh)

	return eventCh, errCh, nil
}

// Close stops the watcher and blocks until its goroutine has exited.
// Safe to call multiple times.
func (w *Watcher) Close() error {
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return nil
	}
	w.closed = true
	if w.cancel != nil {
		w.cancel()
	}
	doneCh := w.doneCh
	w.mu.Unlock()

	if doneCh != nil {
		<-doneCh
	}
	return nil
}

func (w *Watcher) run(ctx context.Context, eventCh chan<- combatlog.Event, errCh chan<- error) {
	defer close(w.doneCh)
	defer close(eventCh)
	defer close(errCh)

	logFile, err := w.findLogFileWithWait(ctx, errCh)
	if err != nil {
		// Error already sent to errCh by findLogFileWithWait.
		return
	}
	w.log.Debug("found latest combat log", "path", logFile)

	cfg := tailer.DefaultConfig()
	cfg.FromStart = w.cfg.fromStart

	t, err := tailer.New(ctx, logFile, cfg)
	if err != nil {
		sendError(ctx, errCh, &WatchError{Op: WatchOpTail, Path: logFile, Err: err})
		return
	}
	w.log.Debug("started tailing", "path", logFile, "from_start", cfg.FromStart)

	rotationTicker := time.NewTicker(w.cfg.pollInterval)
	defer rotationTicker.Stop()
	defer func() { _ = t.Stop() }()

	currentFile := logFile

	for {
		select {
		case <-ctx.Done():
			return
		case line, ok := <-t.Lines():
			if !ok {
				return
			}
			w.processLine(ctx, line, eventCh)
		case err, ok := <-t.Errors():
			if !ok {
				return
			}
			sendError(ctx, errCh, &WatchError{Op: WatchOpTail, Path: currentFile, Err: err})
		case <-rotationTicker.C:
			newFile, err := logfinder.FindLatestLogFile(w.logDir, w.cfg.logPattern)
			if err != nil {
				sendError(ctx, errCh, &WatchError{Op: WatchOpRotation, Err: err})
				continue
			}
			if newFile == currentFile {
				continue
			}
			// The game started a new log file, switch to it and read it
			// from the start so no session markers are missed.
			w.log.Debug("log rotation detected", "from", currentFile, "to", newFile)
			_ = t.Stop()
			cfg := tailer.DefaultConfig()
			cfg.FromStart = true
			newTailer, err := tailer.New(ctx, newFile, cfg)
			if err != nil {
				sendError(ctx, errCh, &WatchError{Op: WatchOpTail, Path: newFile, Err: err})
				continue
			}
			t = newTailer
			currentFile = newFile
		}
	}
}

// findLogFileWithWait finds the latest log file, optionally waiting for
// one to appear. The error is also sent to errCh.
func (w *Watcher) findLogFileWithWait(ctx context.Context, errCh chan<- error) (string, error) {
	logFile, err := logfinder.FindLatestLogFile(w.logDir, w.cfg.logPattern)
	if err == nil {
		return logFile, nil
	}
	if !errors.Is(err, ErrNoLogFiles) {
		sendError(ctx, errCh, &WatchError{Op: WatchOpFindLatest, Err: err})
		return "", err
	}

	if !w.cfg.waitForLogs {
		sendError(ctx, errCh, &WatchError{Op: WatchOpFindLatest, Err: err})
		return "", err
	}

	w.log.Debug("no combat log yet, waiting", "poll_interval", w.cfg.pollInterval)
	ticker := time.NewTicker(w.cfg.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			err := ctx.Err()
			// Send directly: sendError would drop it on the cancelled
			// context.
			select {
			case errCh <- &WatchError{Op: WatchOpFindLatest, Err: err}:
			default:
			}
			return "", err
		case <-ticker.C:
			logFile, err := logfinder.FindLatestLogFile(w.logDir, w.cfg.logPattern)
			if err == nil {
				w.log.Debug("combat log appeared", "path", logFile)
				return logFile, nil
			}
			if !errors.Is(err, ErrNoLogFiles) {
				sendError(ctx, errCh, &WatchError{Op: WatchOpFindLatest, Err: err})
				return "", err
			}
		}
	}
}

func (w *Watcher) processLine(ctx context.Context, line string, eventCh chan<- combatlog.Event) {
	ev := combatlog.Parse(line)
	if ev.Kind == combatlog.Other && !w.cfg.includeOther {
		if combatlog.Relevant(line) {
			w.log.Debug("unparsed relevant line", "line", line)
		}
		return
	}
	select {
	case eventCh <- ev:
	case <-ctx.Done():
	}
}

// sendError sends an error without blocking. Errors are dropped only
// when the buffer is full or the context is done.
func sendError(ctx context.Context, errCh chan<- error, err error) {
	if err == nil {
		return
	}
	select {
	case errCh <- err:
	case <-ctx.Done():
	default:
	}
}

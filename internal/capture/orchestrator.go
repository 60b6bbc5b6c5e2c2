// Package capture runs the recording pipelines: starting the recorder
// when a session begins and stopping, locating, verifying and renaming
// the produced file when it ends.
package capture

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/raidrec/raidrec-go/internal/config"
	"github.com/raidrec/raidrec-go/internal/media"
	"github.com/raidrec/raidrec-go/internal/recorder"
	"github.com/raidrec/raidrec-go/internal/session"
)

// ErrShutdownTimeout is returned when pipelines are still running at
// the end of the shutdown grace period.
var ErrShutdownTimeout = errors.New("capture pipelines still running at shutdown")

// Orchestrator implements session.Orchestrator. Each Begin and Finish
// call runs on its own goroutine; failures are logged and reported to
// the listener, never propagated.
type Orchestrator struct {
	cfg      *config.Config
	rec      recorder.Recorder
	media    *media.Manager
	listener session.Listener
	log      *slog.Logger

	wg sync.WaitGroup

	// sleep is swappable for tests.
	sleep func(time.Duration)
}

// New builds an orchestrator. A nil listener disables notifications, a
// nil logger disables logging.
func New(cfg *config.Config, rec recorder.Recorder, mgr *media.Manager, listener session.Listener, log *slog.Logger) *Orchestrator {
	if listener == nil {
		listener = nopListener{}
	}
	if log == nil {
		log = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Orchestrator{
		cfg:      cfg,
		rec:      rec,
		media:    mgr,
		listener: listener,
		log:      log,
		sleep:    time.Sleep,
	}
}

type nopListener struct{}

func (nopListener) OnEvent(session.Notification)            {}
func (nopListener) OnRecordingSaved(session.SavedRecording) {}

// Begin starts the recorder for a new session.
func (o *Orchestrator) Begin(snap session.Snapshot, started func()) {
	o.wg.Add(1)
	go func() {
		defer o.wg.Done()
		o.begin(snap, started)
	}()
}

// Finish stops the recorder and handles the produced file.
func (o *Orchestrator) Finish(snap session.Snapshot) {
	o.wg.Add(1)
	go func() {
		defer o.wg.Done()
		o.finish(snap)
	}()
}

// Shutdown waits up to timeout for running pipelines to drain.
// Stragglers are abandoned.
func (o *Orchestrator) Shutdown(timeout time.Duration) error {
	done := make(chan struct{})
	go func() {
		o.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-time.After(timeout):
		return ErrShutdownTimeout
	}
}

func (o *Orchestrator) begin(snap session.Snapshot, started func()) {
	if !o.shouldRecord(snap) {
		return
	}
	if err := o.rec.StartRecording(context.Background()); err != nil {
		o.log.Error("failed to start recording",
			"subject", snap.Subject(), "error", err)
		return
	}
	o.log.Info("recording started", "subject", snap.Subject())
	if started != nil {
		started()
	}
}

// shouldRecord re-checks the enable policy at pipeline time. The
// config may differ from what the tracker saw when it queued the call.
func (o *Orchestrator) shouldRecord(snap session.Snapshot) bool {
	switch snap.Mode {
	case session.Encounter:
		return snap.Encounter != nil && o.cfg.DifficultyEnabled(snap.Encounter.DifficultyID)
	case session.Dungeon:
		return snap.Dungeon != nil && o.cfg.MythicPlus.Enabled
	}
	return false
}

func (o *Orchestrator) finish(snap session.Snapshot) {
	ctx := context.Background()
	subject := snap.Subject()

	if err := o.rec.StopRecording(ctx); err != nil {
		o.log.Error("failed to stop recording", "subject", subject, "error", err)
		o.saved(session.SavedRecording{Subject: subject, Reason: "recorder stop failed"})
		return
	}

	// Let the recorder finalize the container before touching the file.
	o.sleep(o.cfg.Recording.RenameDelay.Std())

	dir, err := o.recordingDir(ctx)
	if err != nil {
		o.log.Error("no usable recording directory", "error", err)
		o.saved(session.SavedRecording{Subject: subject, Reason: "no recording directory"})
		return
	}

	latest, err := o.media.FindLatest(dir)
	if err != nil {
		o.log.Error("no recording found", "dir", dir, "error", err)
		o.saved(session.SavedRecording{Subject: subject, Reason: "no recording found"})
		return
	}

	if snap.Duration < o.cfg.Recording.MinDuration.Std() {
		o.finishShort(snap, subject, latest)
		return
	}

	if !o.media.WaitStable(latest) {
		o.saved(session.SavedRecording{Path: latest, Subject: subject, Reason: "recording still being written"})
		return
	}

	if !o.cfg.Recording.AutoRename {
		o.log.Info("auto rename disabled, keeping recorder filename", "path", latest)
		o.saved(session.SavedRecording{Path: latest, OK: true, Subject: subject})
		return
	}

	info := media.NameInfo{Subject: subject, Suffix: snap.Suffix()}
	final, err := o.media.Rename(latest, info, o.cfg.Recording.Extension)
	if err != nil {
		o.log.Error("failed to rename recording", "path", latest, "error", err)
		o.saved(session.SavedRecording{Path: latest, Subject: subject, Reason: "rename failed"})
		return
	}
	o.saved(session.SavedRecording{Path: final, OK: true, Subject: subject})
}

// finishShort applies the short-session policy: delete the file when
// configured to, otherwise keep it under the recorder's name.
func (o *Orchestrator) finishShort(snap session.Snapshot, subject, latest string) {
	o.log.Info("session below minimum duration",
		"subject", subject,
		"duration", snap.Duration,
		"min", o.cfg.Recording.MinDuration.Std())

	if !o.cfg.Recording.DeleteShort {
		o.saved(session.SavedRecording{Path: latest, OK: true, Subject: subject, Reason: "short recording kept"})
		return
	}
	if err := o.media.Delete(latest, "below minimum duration"); err != nil {
		o.log.Error("failed to delete short recording", "path", latest, "error", err)
		o.saved(session.SavedRecording{Path: latest, Subject: subject, Reason: "delete failed"})
		return
	}
	o.saved(session.SavedRecording{OK: true, Subject: subject, Reason: "short recording deleted"})
}

// recordingDir asks the recorder where it writes, falling back to the
// configured directory (created if absent).
func (o *Orchestrator) recordingDir(ctx context.Context) (string, error) {
	dir, err := o.rec.RecordingDirectory(ctx)
	if err == nil && dir != "" {
		return dir, nil
	}
	if err != nil {
		o.log.Warn("recorder did not report its directory, using fallback", "error", err)
	}
	return media.EnsureDir(o.cfg.Recording.FallbackDirectory)
}

func (o *Orchestrator) saved(r session.SavedRecording) {
	o.listener.OnRecordingSaved(r)
}

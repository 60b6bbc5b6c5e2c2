// Package session turns the combat log event stream into encounter and
// dungeon sessions and tells the recording orchestrator when they begin
// and end.
package session

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/raidrec/raidrec-go/internal/config"
	"github.com/raidrec/raidrec-go/pkg/raidrec/combatlog"
)

var (
	// ErrTrackerClosed is returned when using a closed tracker.
	ErrTrackerClosed = errors.New("tracker is closed")
	// ErrAlreadyStarted is returned when Start is called twice.
	ErrAlreadyStarted = errors.New("tracker already started")
)

// Orchestrator runs the recording pipelines for session transitions.
// Both methods receive value snapshots and must return promptly,
// running their pipelines on their own goroutines; started is called
// once the recorder confirms it is rolling.
type Orchestrator interface {
	Begin(snap Snapshot, started func())
	Finish(snap Snapshot)
}

type nopOrchestrator struct{}

func (nopOrchestrator) Begin(Snapshot, func()) {}
func (nopOrchestrator) Finish(Snapshot)       {}

// Tracker is the session state machine. One mutex serializes every
// transition end to end, including the bounded grace pause before a
// finish handoff, so the orchestrator always sees settled state.
type Tracker struct {
	cfg      *config.Config
	orch     Orchestrator
	listener Listener
	log      *slog.Logger

	mu             sync.Mutex
	mode           Mode
	recording      bool
	encounter      *combatlog.EncounterInfo
	dungeon        *combatlog.DungeonInfo
	startedAt      time.Time
	lastActivityAt time.Time

	closed bool
	cancel context.CancelFunc
	doneCh chan struct{}

	// swappable for tests
	now   func() time.Time
	sleep func(time.Duration)
}

// NewTracker builds a tracker. A nil orchestrator disables recording,
// a nil listener disables notifications, a nil logger disables logging.
func NewTracker(cfg *config.Config, orch Orchestrator, listener Listener, log *slog.Logger) *Tracker {
	if orch == nil {
		orch = nopOrchestrator{}
	}
	if listener == nil {
		listener = nopListener{}
	}
	if log == nil {
		log = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Tracker{
		cfg:      cfg,
		orch:     orch,
		listener: listener,
		log:      log,
		now:      time.Now,
		sleep:    time.Sleep,
	}
}

// Start launches the idle monitor goroutine.
func (t *Tracker) Start() error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.closed {
		return ErrTrackerClosed
	}
	if t.doneCh != nil {
		return ErrAlreadyStarted
	}

	ctx, cancel := context.WithCancel(context.Background())
	t.cancel = cancel
	t.doneCh = make(chan struct{})

	go t.runMonitor(ctx)
	return nil
}

// Close stops the idle monitor and blocks until it has exited. Safe to
// call multiple times.
func (t *Tracker) Close() error {
	t.mu.Lock()
	if t.closed {
		t.mu.Unlock()
		return nil
	}
	t.closed = true
	if t.cancel != nil {
		t.cancel()
	}
	doneCh := t.doneCh
	t.mu.Unlock()

	if doneCh != nil {
		<-doneCh
	}
	return nil
}

// HandleEvent applies one combat log event to the state machine.
func (t *Tracker) HandleEvent(ev combatlog.Event) {
	t.mu.Lock()
	defer t.mu.Unlock()

	// Any qualifying event counts as dungeon activity.
	if t.mode == Dungeon {
		t.lastActivityAt = t.now()
	}

	switch ev.Kind {
	case combatlog.DungeonStart:
		t.handleDungeonStart(ev)
	case combatlog.DungeonEnd:
		t.handleDungeonEnd(ev)
	case combatlog.ZoneChange:
		t.handleZoneChange(ev)
	case combatlog.EncounterStart:
		t.handleEncounterStart(ev)
	case combatlog.EncounterEnd:
		t.handleEncounterEnd(ev)
	}
}

// Snapshot returns a copy of the current session state.
func (t *Tracker) Snapshot() Snapshot {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.snapshotLocked()
}

// Recording reports whether a recording has been confirmed started.
func (t *Tracker) Recording() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.recording
}

// TimeoutDungeon force-ends the active dungeon run, as the idle monitor
// does. A no-op outside Dungeon mode.
func (t *Tracker) TimeoutDungeon() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.mode != Dungeon {
		return
	}
	t.endDungeon(ReasonTimeout, false, "")
}

func (t *Tracker) handleEncounterStart(ev combatlog.Event) {
	if t.mode != Idle || t.recording {
		t.log.Debug("ignoring encounter start",
			"mode", t.mode.String(), "recording", t.recording)
		return
	}
	info, ok := combatlog.ExtractEncounter(ev)
	if !ok {
		t.log.Warn("dropping malformed encounter start", "fields", len(ev.Fields))
		return
	}
	if override := t.cfg.BossNameOverride(info.ID); override != "" {
		info.Name = override
	}

	now := t.now()
	t.mode = Encounter
	t.encounter = &info
	t.startedAt = now
	t.lastActivityAt = now

	t.log.Info("encounter started",
		"boss", info.Name,
		"difficulty", combatlog.DifficultyName(info.DifficultyID))
	t.listener.OnEvent(Notification{
		Type:         NotifyEncounterStart,
		Timestamp:    info.Timestamp,
		Subject:      info.Name,
		DifficultyID: info.DifficultyID,
	})

	if !t.cfg.DifficultyEnabled(info.DifficultyID) {
		t.log.Debug("difficulty not enabled for recording",
			"difficulty", combatlog.DifficultyName(info.DifficultyID))
		return
	}
	t.orch.Begin(t.snapshotLocked(), t.markRecording)
}

func (t *Tracker) handleEncounterEnd(ev combatlog.Event) {
	if t.mode != Encounter || t.encounter == nil {
		return
	}
	info := *t.encounter
	duration := t.now().Sub(t.startedAt)
	kill := combatlog.EncounterKill(ev)

	t.log.Info("encounter ended",
		"boss", info.Name, "kill", kill, "duration", duration)
	t.listener.OnEvent(Notification{
		Type:         NotifyEncounterEnd,
		Timestamp:    ev.Timestamp,
		Subject:      info.Name,
		DifficultyID: info.DifficultyID,
		Duration:     duration,
		Success:      kill,
	})

	snap := Snapshot{
		Mode:      Encounter,
		Encounter: &info,
		Duration:  duration,
		Success:   kill,
	}

	// Let the game flush trailing loot and summary lines before the
	// recorder is stopped.
	t.sleep(t.cfg.GraceDelay.Std())

	if t.cfg.DifficultyEnabled(info.DifficultyID) {
		t.orch.Finish(snap)
	}
	t.reset()
}

func (t *Tracker) handleDungeonStart(ev combatlog.Event) {
	if t.mode != Idle {
		t.log.Debug("ignoring dungeon start", "mode", t.mode.String())
		return
	}
	info, ok := combatlog.ExtractDungeon(ev)
	if !ok {
		t.log.Warn("dropping malformed dungeon start", "fields", len(ev.Fields))
		return
	}

	now := t.now()
	t.mode = Dungeon
	t.dungeon = &info
	t.startedAt = now
	t.lastActivityAt = now

	t.log.Info("dungeon run started", "dungeon", info.Name, "level", info.Level)
	t.listener.OnEvent(Notification{
		Type:      NotifyDungeonStart,
		Timestamp: info.Timestamp,
		Subject:   info.Name,
		Level:     info.Level,
	})

	if !t.cfg.MythicPlus.Enabled {
		t.log.Debug("mythic+ recording disabled")
		return
	}
	t.orch.Begin(t.snapshotLocked(), t.markRecording)
}

func (t *Tracker) handleDungeonEnd(ev combatlog.Event) {
	if t.mode != Dungeon {
		return
	}
	t.endDungeon(ReasonDungeonComplete, combatlog.DungeonSuccess(ev), ev.Timestamp)
}

func (t *Tracker) handleZoneChange(ev combatlog.Event) {
	if t.mode != Dungeon || t.dungeon == nil {
		return
	}
	zone := combatlog.ZoneName(ev)
	if zone == "" {
		return
	}
	// Still in the dungeon when its name appears in the new zone.
	if strings.Contains(strings.ToLower(zone), strings.ToLower(t.dungeon.Name)) {
		return
	}
	t.log.Info("left dungeon zone", "dungeon", t.dungeon.Name, "zone", zone)
	t.endDungeon(ReasonZoneChange, false, ev.Timestamp)
}

// endDungeon runs the shared dungeon finish transition. Caller holds
// the mutex and has verified mode == Dungeon.
func (t *Tracker) endDungeon(reason EndReason, success bool, timestamp string) {
	info := *t.dungeon
	duration := t.now().Sub(t.startedAt)

	t.log.Info("dungeon run ended",
		"dungeon", info.Name,
		"reason", string(reason),
		"success", success,
		"duration", duration)
	t.listener.OnEvent(Notification{
		Type:      NotifyDungeonEnd,
		Timestamp: timestamp,
		Subject:   info.Name,
		Level:     info.Level,
		Duration:  duration,
		Success:   success,
		Reason:    reason,
	})

	snap := Snapshot{
		Mode:     Dungeon,
		Dungeon:  &info,
		Duration: duration,
		Success:  success,
		Reason:   reason,
	}

	t.sleep(t.cfg.GraceDelay.Std())

	if t.cfg.MythicPlus.Enabled {
		t.orch.Finish(snap)
	}
	t.reset()
}

// markRecording flips the recording flag once the orchestrator confirms
// the recorder started. The session may have ended in the meantime, so
// the mode is re-checked.
func (t *Tracker) markRecording() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.mode == Idle {
		t.log.Debug("session ended before recorder start confirmation")
		return
	}
	t.recording = true
}

func (t *Tracker) snapshotLocked() Snapshot {
	snap := Snapshot{Mode: t.mode}
	if t.encounter != nil {
		info := *t.encounter
		snap.Encounter = &info
	}
	if t.dungeon != nil {
		info := *t.dungeon
		snap.Dungeon = &info
	}
	if t.mode != Idle {
		snap.Duration = t.now().Sub(t.startedAt)
	}
	return snap
}

func (t *Tracker) reset() {
	t.mode = Idle
	t.recording = false
	t.encounter = nil
	t.dungeon = nil
	t.startedAt = time.Time{}
	t.lastActivityAt = time.Time{}
}

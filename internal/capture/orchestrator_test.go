package capture

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/raidrec/raidrec-go/internal/config"
	"github.com/raidrec/raidrec-go/internal/media"
	"github.com/raidrec/raidrec-go/internal/recorder"
	"github.com/raidrec/raidrec-go/internal/session"
	"github.com/raidrec/raidrec-go/pkg/raidrec/combatlog"
)

type fakeRecorder struct {
	mu     sync.Mutex
	active bool
	starts int
	stops  int

	dir      string
	dirErr   error
	startErr error
	stopErr  error

	stopGate chan struct{} // when set, StopRecording blocks on it
}

func (f *fakeRecorder) StartRecording(ctx context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.startErr != nil {
		return f.startErr
	}
	f.starts++
	f.active = true
	return nil
}

func (f *fakeRecorder) StopRecording(ctx context.Context) error {
	if f.stopGate != nil {
		<-f.stopGate
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.stopErr != nil {
		return f.stopErr
	}
	f.stops++
	f.active = false
	return nil
}

func (f *fakeRecorder) Status(ctx context.Context) (recorder.Status, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return recorder.Status{Active: f.active}, nil
}

func (f *fakeRecorder) RecordingDirectory(ctx context.Context) (string, error) {
	return f.dir, f.dirErr
}

type savedListener struct {
	ch chan session.SavedRecording
}

func newSavedListener() *savedListener {
	return &savedListener{ch: make(chan session.SavedRecording, 4)}
}

func (l *savedListener) OnEvent(session.Notification) {}

func (l *savedListener) OnRecordingSaved(r session.SavedRecording) {
	l.ch <- r
}

func (l *savedListener) wait(t *testing.T) session.SavedRecording {
	t.Helper()
	select {
	case r := <-l.ch:
		return r
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for OnRecordingSaved")
		return session.SavedRecording{}
	}
}

func testConfig(dir string) *config.Config {
	cfg := config.Default()
	cfg.Recording.FallbackDirectory = dir
	cfg.Recording.RenameDelay = 0
	cfg.Recording.SettleInterval = config.Duration(time.Millisecond)
	return cfg
}

func newTestOrchestrator(t *testing.T, cfg *config.Config, rec recorder.Recorder) (*Orchestrator, *savedListener) {
	t.Helper()
	mgr := media.NewManager(time.Millisecond, cfg.Recording.MaxRenameAttempts, nil)
	listener := newSavedListener()
	o := New(cfg, rec, mgr, listener, nil)
	o.sleep = func(time.Duration) {}
	return o, listener
}

func writeClip(t *testing.T, dir string) string {
	t.Helper()
	path := filepath.Join(dir, "raw.mp4")
	require.NoError(t, os.WriteFile(path, []byte("video data"), 0o644))
	return path
}

func encounterSnapshot(duration time.Duration) session.Snapshot {
	return session.Snapshot{
		Mode: session.Encounter,
		Encounter: &combatlog.EncounterInfo{
			ID:           2902,
			Name:         "Ulgrax the Devourer",
			DifficultyID: 16,
		},
		Duration: duration,
		Success:  true,
	}
}

func TestBegin(t *testing.T) {
	rec := &fakeRecorder{}
	o, _ := newTestOrchestrator(t, testConfig(t.TempDir()), rec)

	started := make(chan struct{})
	o.Begin(encounterSnapshot(0), func() { close(started) })

	select {
	case <-started:
	case <-time.After(2 * time.Second):
		t.Fatal("started callback never fired")
	}
	assert.Equal(t, 1, rec.starts)
}

func TestBegin_DisabledDifficulty(t *testing.T) {
	cfg := testConfig(t.TempDir())
	cfg.Difficulties.Mythic = false
	rec := &fakeRecorder{}
	o, _ := newTestOrchestrator(t, cfg, rec)

	called := false
	o.Begin(encounterSnapshot(0), func() { called = true })
	require.NoError(t, o.Shutdown(2*time.Second))

	assert.Equal(t, 0, rec.starts)
	assert.False(t, called)
}

func TestBegin_StartFailure(t *testing.T) {
	rec := &fakeRecorder{startErr: errors.New("recorder offline")}
	o, _ := newTestOrchestrator(t, testConfig(t.TempDir()), rec)

	called := false
	o.Begin(encounterSnapshot(0), func() { called = true })
	require.NoError(t, o.Shutdown(2*time.Second))

	assert.False(t, called, "failed start must not confirm recording")
}

func TestFinish_RenamesRecording(t *testing.T) {
	dir := t.TempDir()
	writeClip(t, dir)
	rec := &fakeRecorder{active: true, dir: dir}
	o, listener := newTestOrchestrator(t, testConfig(dir), rec)

	o.Finish(encounterSnapshot(6 * time.Minute))

	saved := listener.wait(t)
	assert.True(t, saved.OK)
	assert.Equal(t, "Ulgrax_the_Devourer", saved.Subject)
	assert.True(t, strings.HasSuffix(saved.Path, "_Ulgrax_the_Devourer_Mythic.mp4"), saved.Path)
	_, err := os.Stat(saved.Path)
	assert.NoError(t, err)
	assert.Equal(t, 1, rec.stops)
}

func TestFinish_DungeonSuffix(t *testing.T) {
	dir := t.TempDir()
	writeClip(t, dir)
	rec := &fakeRecorder{active: true, dir: dir}
	o, listener := newTestOrchestrator(t, testConfig(dir), rec)

	o.Finish(session.Snapshot{
		Mode:     session.Dungeon,
		Dungeon:  &combatlog.DungeonInfo{ID: 2652, Name: "The Stonevault", Level: 12},
		Duration: 28 * time.Minute,
		Success:  true,
		Reason:   session.ReasonDungeonComplete,
	})

	saved := listener.wait(t)
	assert.True(t, saved.OK)
	assert.True(t, strings.HasSuffix(saved.Path, "_The_Stonevault_M+12.mp4"), saved.Path)
}

func TestFinish_ShortRecordingDeleted(t *testing.T) {
	dir := t.TempDir()
	clip := writeClip(t, dir)
	rec := &fakeRecorder{active: true, dir: dir}
	cfg := testConfig(dir)
	cfg.Recording.MinDuration = config.Duration(5 * time.Second)
	o, listener := newTestOrchestrator(t, cfg, rec)

	o.Finish(encounterSnapshot(2 * time.Second))

	saved := listener.wait(t)
	assert.True(t, saved.OK)
	assert.Equal(t, "short recording deleted", saved.Reason)
	_, err := os.Stat(clip)
	assert.True(t, os.IsNotExist(err))
}

func TestFinish_ShortRecordingKept(t *testing.T) {
	dir := t.TempDir()
	clip := writeClip(t, dir)
	rec := &fakeRecorder{active: true, dir: dir}
	cfg := testConfig(dir)
	cfg.Recording.DeleteShort = false
	o, listener := newTestOrchestrator(t, cfg, rec)

	o.Finish(encounterSnapshot(2 * time.Second))

	saved := listener.wait(t)
	assert.True(t, saved.OK)
	assert.Equal(t, clip, saved.Path)
	assert.Equal(t, "short recording kept", saved.Reason)
	_, err := os.Stat(clip)
	assert.NoError(t, err, "short recording must be kept under its original name")
}

func TestFinish_NoRecordingFound(t *testing.T) {
	dir := t.TempDir()
	rec := &fakeRecorder{active: true, dir: dir}
	o, listener := newTestOrchestrator(t, testConfig(dir), rec)

	o.Finish(encounterSnapshot(time.Minute))

	saved := listener.wait(t)
	assert.False(t, saved.OK)
	assert.Equal(t, "no recording found", saved.Reason)
}

func TestFinish_StopFailure(t *testing.T) {
	rec := &fakeRecorder{active: true, stopErr: errors.New("recorder offline")}
	o, listener := newTestOrchestrator(t, testConfig(t.TempDir()), rec)

	o.Finish(encounterSnapshot(time.Minute))

	saved := listener.wait(t)
	assert.False(t, saved.OK)
	assert.Equal(t, "recorder stop failed", saved.Reason)
}

func TestFinish_AutoRenameDisabled(t *testing.T) {
	dir := t.TempDir()
	clip := writeClip(t, dir)
	rec := &fakeRecorder{active: true, dir: dir}
	cfg := testConfig(dir)
	cfg.Recording.AutoRename = false
	o, listener := newTestOrchestrator(t, cfg, rec)

	o.Finish(encounterSnapshot(time.Minute))

	saved := listener.wait(t)
	assert.True(t, saved.OK)
	assert.Equal(t, clip, saved.Path)
}

func TestFinish_FallbackDirectory(t *testing.T) {
	fallback := filepath.Join(t.TempDir(), "recordings")
	rec := &fakeRecorder{active: true, dirErr: errors.New("not supported")}
	cfg := testConfig(fallback)
	o, listener := newTestOrchestrator(t, cfg, rec)

	o.Finish(encounterSnapshot(time.Minute))

	saved := listener.wait(t)
	assert.False(t, saved.OK, "fallback directory is empty")
	assert.Equal(t, "no recording found", saved.Reason)

	info, err := os.Stat(fallback)
	require.NoError(t, err)
	assert.True(t, info.IsDir(), "fallback directory must be created")
}

func TestShutdown(t *testing.T) {
	gate := make(chan struct{})
	rec := &fakeRecorder{active: true, stopGate: gate}
	o, _ := newTestOrchestrator(t, testConfig(t.TempDir()), rec)

	o.Finish(encounterSnapshot(time.Minute))

	assert.ErrorIs(t, o.Shutdown(20*time.Millisecond), ErrShutdownTimeout)

	close(gate)
	assert.NoError(t, o.Shutdown(2*time.Second))
}

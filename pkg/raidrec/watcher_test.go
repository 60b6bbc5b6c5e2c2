package raidrec

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/raidrec/raidrec-go/pkg/raidrec/combatlog"
)

const (
	startLine = "9/28 20:31:05.123  ENCOUNTER_START,2902,\"Ulgrax the Devourer\",16,20,2657\n"
	endLine   = "9/28 20:37:44.889  ENCOUNTER_END,2902,\"Ulgrax the Devourer\",16,20,1\n"
	noiseLine = "9/28 20:31:06.001  SPELL_CAST_SUCCESS,Player-1234,\"Somedude\",0x511,0x0\n"
)

func writeLog(t *testing.T, path, content string) {
	t.Helper()
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	require.NoError(t, err)
	_, err = f.WriteString(content)
	require.NoError(t, err)
	require.NoError(t, f.Close())
}

func waitEvent(t *testing.T, events <-chan combatlog.Event) combatlog.Event {
	t.Helper()
	select {
	case ev, ok := <-events:
		require.True(t, ok, "event channel closed unexpectedly")
		return ev
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for event")
		return combatlog.Event{}
	}
}

func TestNewWatcher_InvalidOptions(t *testing.T) {
	_, err := NewWatcher(WithLogDir(t.TempDir()), WithPollInterval(0))
	assert.Error(t, err)

	_, err = NewWatcher(WithLogDir(t.TempDir()), WithLogPattern(""))
	assert.Error(t, err)
}

func TestNewWatcher_MissingDir(t *testing.T) {
	_, err := NewWatcher(WithLogDir(filepath.Join(t.TempDir(), "absent")))
	assert.ErrorIs(t, err, ErrLogDirNotFound)
}

func TestWatch_DeliversEvents(t *testing.T) {
	dir := t.TempDir()
	logFile := filepath.Join(dir, "WoWCombatLog-092826_200000.txt")
	writeLog(t, logFile, startLine)

	w, err := NewWatcher(WithLogDir(dir), WithFromStart(true), WithPollInterval(50*time.Millisecond))
	require.NoError(t, err)
	defer w.Close()

	events, _, err := w.Watch(context.Background())
	require.NoError(t, err)

	ev := waitEvent(t, events)
	assert.Equal(t, combatlog.EncounterStart, ev.Kind)
	assert.Equal(t, "9/28 20:31:05.123", ev.Timestamp)

	writeLog(t, logFile, endLine)
	ev = waitEvent(t, events)
	assert.Equal(t, combatlog.EncounterEnd, ev.Kind)
}

func TestWatch_SkipsUnrecognizedLines(t *testing.T) {
	dir := t.TempDir()
	logFile := filepath.Join(dir, "WoWCombatLog-092826_200000.txt")
	writeLog(t, logFile, noiseLine+startLine)

	w, err := NewWatcher(WithLogDir(dir), WithFromStart(true), WithPollInterval(50*time.Millisecond))
	require.NoError(t, err)
	defer w.Close()

	events, _, err := w.Watch(context.Background())
	require.NoError(t, err)

	ev := waitEvent(t, events)
	assert.Equal(t, combatlog.EncounterStart, ev.Kind, "noise line must be dropped")
}

func TestWatch_IncludeOther(t *testing.T) {
	dir := t.TempDir()
	logFile := filepath.Join(dir, "WoWCombatLog-092826_200000.txt")
	writeLog(t, logFile, noiseLine)

	w, err := NewWatcher(WithLogDir(dir), WithFromStart(true),
		WithIncludeOther(true), WithPollInterval(50*time.Millisecond))
	require.NoError(t, err)
	defer w.Close()

	events, _, err := w.Watch(context.Background())
	require.NoError(t, err)

	ev := waitEvent(t, events)
	assert.Equal(t, combatlog.Other, ev.Kind)
}

func TestWatch_NoLogFiles(t *testing.T) {
	w, err := NewWatcher(WithLogDir(t.TempDir()))
	require.NoError(t, err)
	defer w.Close()

	events, errs, err := w.Watch(context.Background())
	require.NoError(t, err)

	select {
	case err := <-errs:
		assert.ErrorIs(t, err, ErrNoLogFiles)
		var werr *WatchError
		require.ErrorAs(t, err, &werr)
		assert.Equal(t, WatchOpFindLatest, werr.Op)
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for error")
	}

	select {
	case _, ok := <-events:
		assert.False(t, ok, "event channel should close after fatal error")
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for channel close")
	}
}

func TestWatch_WaitForLogs(t *testing.T) {
	dir := t.TempDir()

	w, err := NewWatcher(WithLogDir(dir), WithWaitForLogs(true),
		WithFromStart(true), WithPollInterval(20*time.Millisecond))
	require.NoError(t, err)
	defer w.Close()

	events, _, err := w.Watch(context.Background())
	require.NoError(t, err)

	time.Sleep(60 * time.Millisecond)
	writeLog(t, filepath.Join(dir, "WoWCombatLog-092826_200000.txt"), startLine)

	ev := waitEvent(t, events)
	assert.Equal(t, combatlog.EncounterStart, ev.Kind)
}

func TestWatch_Rotation(t *testing.T) {
	dir := t.TempDir()
	oldFile := filepath.Join(dir, "WoWCombatLog-092726_190000.txt")
	writeLog(t, oldFile, noiseLine)
	past := time.Now().Add(-time.Hour)
	require.NoError(t, os.Chtimes(oldFile, past, past))

	w, err := NewWatcher(WithLogDir(dir), WithPollInterval(30*time.Millisecond))
	require.NoError(t, err)
	defer w.Close()

	events, _, err := w.Watch(context.Background())
	require.NoError(t, err)

	// Give the watcher time to start tailing the old file, then rotate.
	time.Sleep(100 * time.Millisecond)
	writeLog(t, filepath.Join(dir, "WoWCombatLog-092826_200000.txt"), startLine)

	ev := waitEvent(t, events)
	assert.Equal(t, combatlog.EncounterStart, ev.Kind, "new file must be read from the start")
}

func TestWatcher_Lifecycle(t *testing.T) {
	dir := t.TempDir()
	writeLog(t, filepath.Join(dir, "WoWCombatLog-092826_200000.txt"), startLine)

	w, err := NewWatcher(WithLogDir(dir), WithPollInterval(50*time.Millisecond))
	require.NoError(t, err)

	_, _, err = w.Watch(context.Background())
	require.NoError(t, err)

	_, _, err = w.Watch(context.Background())
	assert.ErrorIs(t, err, ErrAlreadyWatching)

	require.NoError(t, w.Close())
	require.NoError(t, w.Close(), "Close must be idempotent")

	_, _, err = w.Watch(context.Background())
	assert.ErrorIs(t, err, ErrWatcherClosed)
}

func TestWatch_ContextCancel(t *testing.T) {
	dir := t.TempDir()
	writeLog(t, filepath.Join(dir, "WoWCombatLog-092826_200000.txt"), startLine)

	w, err := NewWatcher(WithLogDir(dir), WithPollInterval(50*time.Millisecond))
	require.NoError(t, err)
	defer w.Close()

	ctx, cancel := context.WithCancel(context.Background())
	events, _, err := w.Watch(ctx)
	require.NoError(t, err)

	cancel()

	select {
	case _, ok := <-events:
		if ok {
			// Drain any event raced in before cancellation.
			for range events {
			}
		}
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for channel close")
	}
}

func TestWatchError_Format(t *testing.T) {
	err := &WatchError{Op: WatchOpTail, Path: "/logs/x.txt", Err: errors.New("boom")}
	assert.Equal(t, "tail /logs/x.txt: boom", err.Error())

	err = &WatchError{Op: WatchOpRotation, Err: errors.New("boom")}
	assert.Equal(t, "rotation: boom", err.Error())
	assert.Equal(t, "boom", errors.Unwrap(err).Error())
}

package session

import "time"

// NotificationType identifies a session lifecycle notification.
type NotificationType string

const (
	NotifyEncounterStart NotificationType = "encounter_start"
	NotifyEncounterEnd   NotificationType = "encounter_end"
	NotifyDungeonStart   NotificationType = "dungeon_start"
	NotifyDungeonEnd     NotificationType = "dungeon_end"
)

// Notification describes a session start or end.
type Notification struct {
	Type NotificationType
	// Timestamp is the combat log's own timestamp text for the event
	// that caused the notification. Empty for monitor-synthesized ends.
	Timestamp string
	// Subject is the boss or dungeon display name (unsanitized).
	Subject string
	// DifficultyID is set for encounters.
	DifficultyID int
	// Level is the keystone level, set for dungeon runs.
	Level int
	// Duration is set on end notifications.
	Duration time.Duration
	// Success is the kill flag or timed-run flag on end notifications.
	Success bool
	// Reason is set on dungeon end notifications.
	Reason EndReason
}

// SavedRecording reports the outcome of a finish pipeline.
type SavedRecording struct {
	// Path is the recording's final path. Empty when no file was found.
	Path string
	// OK reports whether the pipeline completed as intended.
	OK bool
	// Subject is the sanitized session subject.
	Subject string
	// Reason explains a failed or skipped outcome.
	Reason string
}

// Listener receives session notifications. Callbacks run on the
// tracker's ingestion goroutine and must return promptly.
type Listener interface {
	OnEvent(n Notification)
	OnRecordingSaved(r SavedRecording)
}

type nopListener struct{}

func (nopListener) OnEvent(Notification)            {}
func (nopListener) OnRecordingSaved(SavedRecording) {}

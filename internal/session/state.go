package session

import (
	"fmt"
	"time"

	"github.com/raidrec/raidrec-go/pkg/raidrec/combatlog"
)

// Mode is the tracker's current activity.
type Mode int

const (
	// Idle means no encounter or dungeon run is active.
	Idle Mode = iota
	// Encounter means a boss encounter is in progress.
	Encounter
	// Dungeon means a Mythic+ run is in progress.
	Dungeon
)

func (m Mode) String() string {
	switch m {
	case Idle:
		return "idle"
	case Encounter:
		return "encounter"
	case Dungeon:
		return "dungeon"
	default:
		return fmt.Sprintf("Mode(%d)", int(m))
	}
}

// EndReason says why a dungeon run ended.
type EndReason string

const (
	// ReasonDungeonComplete marks a run ended by its own end marker.
	ReasonDungeonComplete EndReason = "dungeon_complete"
	// ReasonZoneChange marks a run ended by leaving the dungeon zone.
	ReasonZoneChange EndReason = "zone_change"
	// ReasonTimeout marks a run force-ended by the idle monitor.
	ReasonTimeout EndReason = "timeout"
)

// Snapshot is an immutable copy of session state handed to the
// orchestrator. At most one of Encounter and Dungeon is set.
type Snapshot struct {
	Mode      Mode
	Encounter *combatlog.EncounterInfo
	Dungeon   *combatlog.DungeonInfo
	Duration  time.Duration
	Success   bool
	Reason    EndReason
}

// Subject returns the sanitized boss or dungeon name, or "" when the
// snapshot carries no session.
func (s Snapshot) Subject() string {
	switch {
	case s.Encounter != nil:
		return s.Encounter.SanitizedName()
	case s.Dungeon != nil:
		return s.Dungeon.SanitizedName()
	}
	return ""
}

// Suffix returns the filename suffix for the session: the difficulty
// label for encounters, "M+{level}" for dungeon runs, "Recording"
// otherwise.
func (s Snapshot) Suffix() string {
	switch {
	case s.Encounter != nil:
		return combatlog.DifficultyName(s.Encounter.DifficultyID)
	case s.Dungeon != nil:
		return fmt.Sprintf("M+%d", s.Dungeon.Level)
	}
	return "Recording"
}

package combatlog

import (
	"strconv"
	"strings"
)

// EncounterInfo describes a boss encounter extracted from an
// ENCOUNTER_START payload.
type EncounterInfo struct {
	ID           int
	Name         string
	DifficultyID int
	InstanceID   int
	Timestamp    string
}

// SanitizedName returns the boss name with path-hostile characters,
// apostrophes and commas stripped and spaces replaced by underscores.
func (b EncounterInfo) SanitizedName() string {
	return sanitizeName(b.Name, false)
}

// DungeonInfo describes a Mythic+ run extracted from a
// CHALLENGE_MODE_START payload. ID is the instance identifier, which
// doubles as the dungeon identity.
type DungeonInfo struct {
	ID        int
	Name      string
	Level     int
	Timestamp string
}

// SanitizedName returns the dungeon name stripped like the encounter
// variant, with colons removed and hyphens mapped to underscores.
func (d DungeonInfo) SanitizedName() string {
	return sanitizeName(d.Name, true)
}

// sanitizeName strips characters that are hostile in filenames.
func sanitizeName(name string, dungeon bool) string {
	var b strings.Builder
	b.Grow(len(name))
	for _, r := range name {
		switch r {
		case '<', '>', ':', '"', '/', '\\', '|', '?', '*', '\'', ',':
			// Stripped outright.
		case ' ':
			b.WriteRune('_')
		case '-':
			if dungeon {
				b.WriteRune('_')
			} else {
				b.WriteRune(r)
			}
		default:
			b.WriteRune(r)
		}
	}
	return strings.TrimSpace(b.String())
}

// ExtractEncounter pulls an EncounterInfo from an EncounterStart event.
//
// ENCOUNTER_START,encounterID,"Name",difficultyID,groupSize,instanceID
//
// Returns false when the event is not an EncounterStart, has fewer than
// six fields, or carries non-numeric identifiers.
func ExtractEncounter(ev Event) (EncounterInfo, bool) {
	if ev.Kind != EncounterStart || len(ev.Fields) < 6 {
		return EncounterInfo{}, false
	}
	id, err1 := strconv.Atoi(ev.Fields[1])
	diff, err2 := strconv.Atoi(ev.Fields[3])
	inst, err3 := strconv.Atoi(ev.Fields[5])
	if err1 != nil || err2 != nil || err3 != nil {
		return EncounterInfo{}, false
	}
	return EncounterInfo{
		ID:           id,
		Name:         ev.Fields[2],
		DifficultyID: diff,
		InstanceID:   inst,
		Timestamp:    ev.Timestamp,
	}, true
}

// ExtractDungeon pulls a DungeonInfo from a DungeonStart event.
//
// CHALLENGE_MODE_START,"Zone Name",instanceID,challengeModeID,keystoneLevel,[affixes]
func ExtractDungeon(ev Event) (DungeonInfo, bool) {
	if ev.Kind != DungeonStart || len(ev.Fields) < 5 {
		return DungeonInfo{}, false
	}
	inst, err1 := strconv.Atoi(ev.Fields[2])
	level, err2 := strconv.Atoi(ev.Fields[4])
	if err1 != nil || err2 != nil {
		return DungeonInfo{}, false
	}
	return DungeonInfo{
		ID:        inst,
		Name:      ev.Fields[1],
		Level:     level,
		Timestamp: ev.Timestamp,
	}, true
}

// EncounterKill reports the kill flag of an EncounterEnd event.
//
// ENCOUNTER_END,encounterID,"Name",difficultyID,groupSize,success
func EncounterKill(ev Event) bool {
	return ev.Kind == EncounterEnd && len(ev.Fields) >= 6 && ev.Fields[5] == "1"
}

// DungeonSuccess reports the success flag of a DungeonEnd event.
//
// CHALLENGE_MODE_END,instanceID,"Zone Name",challengeModeID,success
func DungeonSuccess(ev Event) bool {
	return ev.Kind == DungeonEnd && len(ev.Fields) >= 5 && ev.Fields[4] == "1"
}

// ZoneName returns the zone name of a ZoneChange event, or "" when the
// event is not a zone change or is missing fields.
func ZoneName(ev Event) string {
	if ev.Kind != ZoneChange || len(ev.Fields) < 3 {
		return ""
	}
	return ev.Fields[2]
}

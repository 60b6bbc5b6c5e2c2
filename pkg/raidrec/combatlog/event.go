// Package combatlog parses World of Warcraft combat log lines into
// structured events and extracts the payloads that drive recording
// decisions (encounter and Mythic+ dungeon lifecycle markers).
package combatlog

import "strings"

// Kind classifies a parsed log line.
type Kind int

const (
	// Other is any line that is not a recognized lifecycle marker,
	// including lines that failed structural parsing.
	Other Kind = iota
	// EncounterStart marks the beginning of a boss encounter (ENCOUNTER_START).
	EncounterStart
	// EncounterEnd marks the end of a boss encounter (ENCOUNTER_END).
	EncounterEnd
	// DungeonStart marks the beginning of a Mythic+ run (CHALLENGE_MODE_START).
	DungeonStart
	// DungeonEnd marks the end of a Mythic+ run (CHALLENGE_MODE_END).
	DungeonEnd
	// ZoneChange is a ZONE_CHANGE marker, used as a "left the instance"
	// heuristic while a dungeon run is active.
	ZoneChange
)

// String returns the combat log event name for the kind.
func (k Kind) String() string {
	switch k {
	case EncounterStart:
		return "ENCOUNTER_START"
	case EncounterEnd:
		return "ENCOUNTER_END"
	case DungeonStart:
		return "CHALLENGE_MODE_START"
	case DungeonEnd:
		return "CHALLENGE_MODE_END"
	case ZoneChange:
		return "ZONE_CHANGE"
	default:
		return "OTHER"
	}
}

// kindForName maps the uppercased first payload field to a Kind.
func kindForName(name string) Kind {
	switch name {
	case "ENCOUNTER_START":
		return EncounterStart
	case "ENCOUNTER_END":
		return EncounterEnd
	case "CHALLENGE_MODE_START":
		return DungeonStart
	case "CHALLENGE_MODE_END":
		return DungeonEnd
	case "ZONE_CHANGE":
		return ZoneChange
	default:
		return Other
	}
}

// Event is one parsed combat log line. It is immutable once returned
// by Parse.
type Event struct {
	// Timestamp is the raw timestamp prefix of the line, verbatim.
	Timestamp string

	// Kind is derived from Fields[0] uppercased.
	Kind Kind

	// Fields is the CSV-decoded payload, quote-unescaped and trimmed.
	// Fields[0] is the event name. Empty when parsing failed.
	Fields []string
}

// Field returns Fields[i], or "" when the index is out of range.
func (e Event) Field(i int) string {
	if i < 0 || i >= len(e.Fields) {
		return ""
	}
	return e.Fields[i]
}

// Relevant reports whether the raw line superficially resembles an
// encounter or dungeon marker. Used to decide whether a malformed line
// is worth logging.
func Relevant(line string) bool {
	return strings.Contains(line, "ENCOUNTER") || strings.Contains(line, "CHALLENGE_MODE")
}

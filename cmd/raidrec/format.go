package main

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/raidrec/raidrec-go/pkg/raidrec/combatlog"
)

// ValidFormats lists all valid output formats.
var ValidFormats = map[string]bool{
	"jsonl":  true,
	"pretty": true,
}

// eventJSON is the wire shape for jsonl output.
type eventJSON struct {
	Timestamp string   `json:"timestamp"`
	Type      string   `json:"type"`
	Fields    []string `json:"fields,omitempty"`
}

// OutputEvent writes an event in the specified format to the writer.
func OutputEvent(format string, ev combatlog.Event, out io.Writer) error {
	switch format {
	case "jsonl":
		return OutputJSON(ev, out)
	case "pretty":
		return OutputPretty(ev, out)
	default:
		return fmt.Errorf("unknown format: %s", format)
	}
}

// OutputJSON writes an event as JSON Lines format.
func OutputJSON(ev combatlog.Event, out io.Writer) error {
	data, err := json.Marshal(eventJSON{
		Timestamp: ev.Timestamp,
		Type:      ev.Kind.String(),
		Fields:    ev.Fields,
	})
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(out, string(data))
	return err
}

// OutputPretty writes an event in human-readable format.
func OutputPretty(ev combatlog.Event, out io.Writer) error {
	var err error
	switch ev.Kind {
	case combatlog.EncounterStart:
		if info, ok := combatlog.ExtractEncounter(ev); ok {
			_, err = fmt.Fprintf(out, "[%s] + %s (%s)\n",
				ev.Timestamp, info.Name, combatlog.DifficultyName(info.DifficultyID))
		} else {
			_, err = fmt.Fprintf(out, "[%s] + encounter start\n", ev.Timestamp)
		}
	case combatlog.EncounterEnd:
		outcome := "wipe"
		if combatlog.EncounterKill(ev) {
			outcome = "kill"
		}
		_, err = fmt.Fprintf(out, "[%s] - %s: %s\n", ev.Timestamp, ev.Field(2), outcome)
	case combatlog.DungeonStart:
		if info, ok := combatlog.ExtractDungeon(ev); ok {
			_, err = fmt.Fprintf(out, "[%s] + %s +%d\n", ev.Timestamp, info.Name, info.Level)
		} else {
			_, err = fmt.Fprintf(out, "[%s] + dungeon start\n", ev.Timestamp)
		}
	case combatlog.DungeonEnd:
		outcome := "depleted"
		if combatlog.DungeonSuccess(ev) {
			outcome = "timed"
		}
		_, err = fmt.Fprintf(out, "[%s] - %s: %s\n", ev.Timestamp, ev.Field(2), outcome)
	case combatlog.ZoneChange:
		_, err = fmt.Fprintf(out, "[%s] > %s\n", ev.Timestamp, combatlog.ZoneName(ev))
	default:
		_, err = fmt.Fprintf(out, "[%s] ? %s\n", ev.Timestamp, ev.Field(0))
	}
	return err
}

package main

import (
	"fmt"
	"io"
	"time"

	"github.com/raidrec/raidrec-go/internal/session"
	"github.com/raidrec/raidrec-go/pkg/raidrec/combatlog"
)

// consoleListener prints session notifications for interactive use.
type consoleListener struct {
	out io.Writer
}

func (l *consoleListener) OnEvent(n session.Notification) {
	switch n.Type {
	case session.NotifyEncounterStart:
		fmt.Fprintf(l.out, "+ %s (%s) pulled\n",
			n.Subject, combatlog.DifficultyName(n.DifficultyID))
	case session.NotifyEncounterEnd:
		outcome := "wipe"
		if n.Success {
			outcome = "kill"
		}
		fmt.Fprintf(l.out, "- %s: %s after %s\n",
			n.Subject, outcome, n.Duration.Round(time.Second))
	case session.NotifyDungeonStart:
		fmt.Fprintf(l.out, "+ %s +%d started\n", n.Subject, n.Level)
	case session.NotifyDungeonEnd:
		fmt.Fprintf(l.out, "- %s +%d ended (%s) after %s\n",
			n.Subject, n.Level, n.Reason, n.Duration.Round(time.Second))
	}
}

func (l *consoleListener) OnRecordingSaved(r session.SavedRecording) {
	switch {
	case r.OK && r.Path != "":
		fmt.Fprintf(l.out, "saved %s\n", r.Path)
	case r.OK:
		fmt.Fprintf(l.out, "recording handled: %s\n", r.Reason)
	default:
		fmt.Fprintf(l.out, "recording not saved: %s\n", r.Reason)
	}
}

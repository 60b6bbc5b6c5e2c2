package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/raidrec/raidrec-go/pkg/raidrec"
	"github.com/raidrec/raidrec-go/pkg/raidrec/combatlog"
)

var (
	// tail flags
	tailLogDir    string
	tailFormat    string
	tailTypes     []string
	tailFromStart bool
	tailAll       bool
)

var tailCmd = &cobra.Command{
	Use:   "tail",
	Short: "Monitor the combat log and output events",
	Long: `Monitor the combat log in real-time and output recognized events
without touching the recorder.

Events are output as JSON Lines by default (one JSON object per line),
which makes it easy to process with tools like jq.

Examples:
  # Monitor with default settings (auto-detect log directory)
  raidrec tail

  # Specify log directory
  raidrec tail --log-dir ~/Games/wow/Logs

  # Only encounter markers, human-readable
  raidrec tail --types encounter_start,encounter_end --format pretty

  # Pipe to jq for filtering
  raidrec tail | jq 'select(.type == "ENCOUNTER_START")'`,
	RunE: runTailCmd,
}

func init() {
	tailCmd.Flags().StringVarP(&tailLogDir, "log-dir", "d", "",
		"Combat log directory (auto-detected if not specified)")
	tailCmd.Flags().StringVarP(&tailFormat, "format", "f", "jsonl",
		"Output format: jsonl, pretty")
	tailCmd.Flags().StringSliceVarP(&tailTypes, "types", "t", nil,
		"Event types to show (comma-separated: encounter_start,encounter_end,challenge_mode_start,challenge_mode_end,zone_change)")
	tailCmd.Flags().BoolVar(&tailFromStart, "from-start", false,
		"Read the current log file from the beginning")
	tailCmd.Flags().BoolVar(&tailAll, "all", false,
		"Include unrecognized lines as OTHER events")
	rootCmd.AddCommand(tailCmd)
}

// kindFilter builds a Kind set from --types values. Names are matched
// case-insensitively against the event names used in the log.
func kindFilter(types []string) (map[combatlog.Kind]bool, error) {
	if len(types) == 0 {
		return nil, nil
	}
	known := []combatlog.Kind{
		combatlog.EncounterStart,
		combatlog.EncounterEnd,
		combatlog.DungeonStart,
		combatlog.DungeonEnd,
		combatlog.ZoneChange,
		combatlog.Other,
	}
	filter := make(map[combatlog.Kind]bool, len(types))
	for _, name := range types {
		matched := false
		for _, k := range known {
			if strings.EqualFold(strings.TrimSpace(name), k.String()) {
				filter[k] = true
				matched = true
				break
			}
		}
		if !matched {
			return nil, fmt.Errorf("unknown event type: %s", name)
		}
	}
	return filter, nil
}

func runTailCmd(cmd *cobra.Command, args []string) error {
	if !ValidFormats[tailFormat] {
		return fmt.Errorf("unknown format: %s", tailFormat)
	}
	filter, err := kindFilter(tailTypes)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(),
		syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	watcher, err := raidrec.NewWatcher(
		raidrec.WithLogDir(tailLogDir),
		raidrec.WithFromStart(tailFromStart),
		raidrec.WithIncludeOther(tailAll),
		raidrec.WithWaitForLogs(true),
	)
	if err != nil {
		return err
	}
	defer watcher.Close()

	events, errs, err := watcher.Watch(ctx)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	for {
		select {
		case ev, ok := <-events:
			if !ok {
				return nil
			}
			if filter != nil && !filter[ev.Kind] {
				continue
			}
			if err := OutputEvent(tailFormat, ev, out); err != nil {
				return fmt.Errorf("output error: %w", err)
			}
		case err, ok := <-errs:
			if !ok {
				return nil
			}
			if verbose {
				fmt.Fprintf(os.Stderr, "warning: %v\n", err)
			}
		case <-ctx.Done():
			return nil
		}
	}
}

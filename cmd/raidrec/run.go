package main

import (
	"context"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/raidrec/raidrec-go/internal/capture"
	"github.com/raidrec/raidrec-go/internal/logging"
	"github.com/raidrec/raidrec-go/internal/media"
	"github.com/raidrec/raidrec-go/internal/recorder"
	"github.com/raidrec/raidrec-go/internal/session"
	"github.com/raidrec/raidrec-go/pkg/raidrec"
)

// shutdownGrace bounds how long finish pipelines may keep running
// after the ingestion loop has stopped.
const shutdownGrace = 30 * time.Second

var (
	// run flags
	runLogDir   string
	runNoRename bool
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Watch the combat log and drive the recorder",
	Long: `Watch the combat log and drive the external recorder.

Recording starts on ENCOUNTER_START and CHALLENGE_MODE_START lines and
stops on the matching end marker, a zone change out of the dungeon, or
an idle timeout. Finished recordings are renamed to
{date}_{time}_{boss}_{difficulty}{ext}.

Examples:
  # Run with the default config
  raidrec run

  # Explicit log directory, keep the recorder's filenames
  raidrec run --log-dir ~/Games/wow/Logs --no-rename`,
	RunE: runRun,
}

func init() {
	runCmd.Flags().StringVarP(&runLogDir, "log-dir", "d", "",
		"Combat log directory (overrides config and auto-detection)")
	runCmd.Flags().BoolVar(&runNoRename, "no-rename", false,
		"Leave finished recordings under the recorder's filename")
	rootCmd.AddCommand(runCmd)
}

func runRun(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if runLogDir != "" {
		cfg.LogDir = runLogDir
	}
	if runNoRename {
		cfg.Recording.AutoRename = false
	}

	log, logCloser, err := logging.Setup(logging.Options{
		Level:     cfg.Logging.Level,
		File:      cfg.Logging.File,
		MaxSizeMB: cfg.Logging.MaxSizeMB,
		Verbose:   verbose,
	})
	if err != nil {
		return err
	}
	defer logCloser.Close()

	ctx, stop := signal.NotifyContext(context.Background(),
		syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	rec := recorder.NewHTTPClient(cfg.Recorder.BaseURL, cfg.Recorder.Token,
		cfg.Recorder.Timeout.Std(), log)
	mgr := media.NewManager(cfg.Recording.SettleInterval.Std(),
		cfg.Recording.MaxRenameAttempts, log)
	listener := &consoleListener{out: cmd.OutOrStdout()}
	orch := capture.New(cfg, rec, mgr, listener, log)
	tracker := session.NewTracker(cfg, orch, listener, log)

	watcher, err := raidrec.NewWatcher(
		raidrec.WithLogDir(cfg.LogDir),
		raidrec.WithLogPattern(cfg.LogPattern),
		raidrec.WithWaitForLogs(true),
		raidrec.WithLogger(log),
	)
	if err != nil {
		return err
	}

	events, errs, err := watcher.Watch(ctx)
	if err != nil {
		return err
	}
	if err := tracker.Start(); err != nil {
		return err
	}
	log.Info("watching combat log", "dir", watcher.LogDir())

	// Ingestion loop. Transitions run inline so the tracker sees events
	// strictly in log order.
loop:
	for {
		select {
		case ev, ok := <-events:
			if !ok {
				break loop
			}
			tracker.HandleEvent(ev)
		case err, ok := <-errs:
			if !ok {
				break loop
			}
			log.Warn("watch error", "error", err)
		case <-ctx.Done():
			break loop
		}
	}

	log.Info("shutting down")
	_ = watcher.Close()
	_ = tracker.Close()
	if err := orch.Shutdown(shutdownGrace); err != nil {
		log.Warn("abandoning capture pipelines", "error", err)
	}
	return nil
}

package raidrec

import (
	"errors"
	"log/slog"
	"time"

	"github.com/raidrec/raidrec-go/internal/logfinder"
)

// defaultPollInterval is how often the watcher checks for log rotation
// and, with WithWaitForLogs, for a log file to appear.
const defaultPollInterval = 2 * time.Second

// watchConfig is the internal watcher configuration, immutable after
// construction.
type watchConfig struct {
	logDir       string
	logPattern   string
	pollInterval time.Duration
	waitForLogs  bool
	fromStart    bool
	includeOther bool
	logger       *slog.Logger
}

// WatchOption configures a Watcher.
type WatchOption func(*watchConfig)

func defaultWatchConfig() *watchConfig {
	return &watchConfig{
		logPattern:   logfinder.DefaultLogPattern,
		pollInterval: defaultPollInterval,
	}
}

func applyWatchOptions(opts []WatchOption) *watchConfig {
	cfg := defaultWatchConfig()
	for _, opt := range opts {
		opt(cfg)
	}
	return cfg
}

func (c *watchConfig) validate() error {
	if c.pollInterval <= 0 {
		return errors.New("poll interval must be positive")
	}
	if c.logPattern == "" {
		return errors.New("log pattern must not be empty")
	}
	return nil
}

// WithLogDir sets an explicit combat log directory, overriding the
// environment variable and automatic detection.
func WithLogDir(dir string) WatchOption {
	return func(c *watchConfig) { c.logDir = dir }
}

// WithLogPattern sets the glob matching combat log files. Defaults to
// "WoWCombatLog-*.txt".
func WithLogPattern(pattern string) WatchOption {
	return func(c *watchConfig) { c.logPattern = pattern }
}

// WithPollInterval sets the rotation check interval.
func WithPollInterval(d time.Duration) WatchOption {
	return func(c *watchConfig) { c.pollInterval = d }
}

// WithWaitForLogs makes Watch wait for a log file to appear instead of
// failing when the directory is empty. Useful when the watcher starts
// before the game does.
func WithWaitForLogs(wait bool) WatchOption {
	return func(c *watchConfig) { c.waitForLogs = wait }
}

// WithFromStart reads the current log file from the beginning instead
// of only tailing new lines.
func WithFromStart(fromStart bool) WatchOption {
	return func(c *watchConfig) { c.fromStart = fromStart }
}

// WithLogger sets the watcher's diagnostic logger. Defaults to a
// discard logger.
func WithLogger(log *slog.Logger) WatchOption {
	return func(c *watchConfig) { c.logger = log }
}

// WithIncludeOther delivers events the classifier does not recognize
// (Kind Other). By default they are dropped.
func WithIncludeOther(include bool) WatchOption {
	return func(c *watchConfig) { c.includeOther = include }
}

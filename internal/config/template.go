package config

import (
	"fmt"
	"os"
	"path/filepath"
)

// defaultTemplate is the commented config file written by WriteDefault.
const defaultTemplate = `# raidrec configuration
# Edit this file to match your setup, then run "raidrec run".

# Combat log directory. Leave empty to auto-detect, or set RAIDREC_LOGDIR.
log_dir: ""

# Glob matching combat log files inside log_dir.
log_pattern: "WoWCombatLog-*.txt"

# Pause after a session-end marker before the recording is processed,
# so the game can flush trailing loot and summary lines.
grace_delay: 3s

recorder:
  # Root of the recorder's HTTP control API.
  base_url: "http://127.0.0.1:4455"
  # Bearer token, if your recorder requires one.
  token: ""
  timeout: 3s

recording:
  # Must match the recorder's output container format.
  extension: ".mp4"
  # Used when the recorder does not report its recording directory.
  fallback_directory: ""
  auto_rename: true
  # Settling delay between stop and touching the produced file.
  rename_delay: 3s
  # Gap between the two size samples of the stability check.
  settle_interval: 1s
  # Sessions shorter than this are not worth keeping.
  min_duration: 5s
  delete_short: true
  max_rename_attempts: 10

difficulties:
  lfr: false
  normal: true
  heroic: true
  mythic: true
  other: false

mythic_plus:
  enabled: true
  # Force-end a run after this long with no qualifying log activity.
  idle_timeout: 2m
  check_interval: 5s

# Boss display name overrides by encounter id.
# boss_names:
#   2688: "Rashok"
boss_names: {}

logging:
  level: info
  # Set to a path to also write a rotating log file.
  file: ""
  max_size_mb: 10
`

// WriteDefault writes the commented default config file to path,
// creating parent directories. Refuses to overwrite an existing file.
func WriteDefault(path string) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("config file already exists: %s", path)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}
	if err := os.WriteFile(path, []byte(defaultTemplate), 0o644); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}
	return nil
}

// Package config loads and validates the recorder configuration from a
// YAML file.
package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/raidrec/raidrec-go/internal/safefile"
)

// MaxConfigFileSize is the maximum allowed size for a config file.
// Anything larger is rejected before parsing.
const MaxConfigFileSize = 1 * 1024 * 1024 // 1 MB

// difficultyGroups maps the configurable difficulty toggles to the
// combat log difficulty ids they cover.
var difficultyGroups = map[string][]int{
	"lfr":    {7, 17},
	"normal": {1, 14},
	"heroic": {2, 15},
	"mythic": {3, 16, 23},
	"other":  {4, 5, 8, 9, 24, 33},
}

// Duration wraps time.Duration so YAML values can be written as Go
// duration strings ("3s", "2m30s").
type Duration time.Duration

// UnmarshalYAML implements yaml.Unmarshaler.
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err != nil {
		return err
	}
	parsed, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", s, err)
	}
	*d = Duration(parsed)
	return nil
}

// MarshalYAML implements yaml.Marshaler.
func (d Duration) MarshalYAML() (any, error) {
	return time.Duration(d).String(), nil
}

// Std returns the wrapped time.Duration.
func (d Duration) Std() time.Duration { return time.Duration(d) }

// RecorderConfig describes the external recorder service connection.
type RecorderConfig struct {
	// BaseURL is the root of the recorder's HTTP API.
	BaseURL string `yaml:"base_url"`
	// Token, when set, is sent as a bearer token on every request.
	Token string `yaml:"token"`
	// Timeout bounds each recorder round-trip.
	Timeout Duration `yaml:"timeout"`
}

// RecordingConfig describes how produced media files are handled.
type RecordingConfig struct {
	// Extension is the recorder's output container extension (".mp4").
	Extension string `yaml:"extension"`
	// FallbackDirectory is used when the recorder does not report its
	// recording directory. Created if absent.
	FallbackDirectory string `yaml:"fallback_directory"`
	// AutoRename enables renaming finished recordings after sessions.
	AutoRename bool `yaml:"auto_rename"`
	// RenameDelay is the settling delay between stopping the recorder
	// and touching the produced file.
	RenameDelay Duration `yaml:"rename_delay"`
	// SettleInterval is the gap between the two size samples of the
	// file stability check.
	SettleInterval Duration `yaml:"settle_interval"`
	// MinDuration is the shortest session worth keeping.
	MinDuration Duration `yaml:"min_duration"`
	// DeleteShort removes recordings below MinDuration.
	DeleteShort bool `yaml:"delete_short"`
	// MaxRenameAttempts bounds the filename collision loop.
	MaxRenameAttempts int `yaml:"max_rename_attempts"`
}

// DifficultyConfig selects which raid difficulties trigger recording.
type DifficultyConfig struct {
	LFR    bool `yaml:"lfr"`
	Normal bool `yaml:"normal"`
	Heroic bool `yaml:"heroic"`
	Mythic bool `yaml:"mythic"`
	Other  bool `yaml:"other"`
}

// MythicPlusConfig controls dungeon-run recording.
type MythicPlusConfig struct {
	// Enabled records Mythic+ dungeon runs.
	Enabled bool `yaml:"enabled"`
	// IdleTimeout force-ends a run after this long with no qualifying
	// log activity.
	IdleTimeout Duration `yaml:"idle_timeout"`
	// CheckInterval is the idle monitor tick.
	CheckInterval Duration `yaml:"check_interval"`
}

// LoggingConfig controls daemon log output.
type LoggingConfig struct {
	// Level is one of debug, info, warn, error.
	Level string `yaml:"level"`
	// File, when set, duplicates log output into a rotating file.
	File string `yaml:"file"`
	// MaxSizeMB is the rotation threshold for File.
	MaxSizeMB int `yaml:"max_size_mb"`
}

// Config is the full recorder configuration.
type Config struct {
	// LogDir is the combat log directory. Empty means auto-detect.
	LogDir string `yaml:"log_dir"`
	// LogPattern is the glob matching combat log files.
	LogPattern string `yaml:"log_pattern"`
	// GraceDelay is the bounded pause between a session-end marker and
	// the handoff to the finish pipeline, letting the game flush
	// trailing loot and summary lines.
	GraceDelay Duration `yaml:"grace_delay"`

	Recorder     RecorderConfig   `yaml:"recorder"`
	Recording    RecordingConfig  `yaml:"recording"`
	Difficulties DifficultyConfig `yaml:"difficulties"`
	MythicPlus   MythicPlusConfig `yaml:"mythic_plus"`
	// BossNames overrides boss display names by encounter id.
	BossNames map[int]string `yaml:"boss_names"`
	Logging   LoggingConfig  `yaml:"logging"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		LogPattern: "WoWCombatLog-*.txt",
		GraceDelay: Duration(3 * time.Second),
		Recorder: RecorderConfig{
			BaseURL: "http://127.0.0.1:4455",
			Timeout: Duration(3 * time.Second),
		},
		Recording: RecordingConfig{
			Extension:         ".mp4",
			AutoRename:        true,
			RenameDelay:       Duration(3 * time.Second),
			SettleInterval:    Duration(1 * time.Second),
			MinDuration:       Duration(5 * time.Second),
			DeleteShort:       true,
			MaxRenameAttempts: 10,
		},
		Difficulties: DifficultyConfig{
			Normal: true,
			Heroic: true,
			Mythic: true,
		},
		MythicPlus: MythicPlusConfig{
			Enabled:       true,
			IdleTimeout:   Duration(2 * time.Minute),
			CheckInterval: Duration(5 * time.Second),
		},
		Logging: LoggingConfig{
			Level:     "info",
			MaxSizeMB: 10,
		},
	}
}

// DefaultPath returns the default config file location.
func DefaultPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "raidrec.yaml"
	}
	return filepath.Join(home, ".config", "raidrec", "config.yaml")
}

// Load reads a config file, layering it over Default(). A missing file
// is not an error: the defaults are returned unchanged.
//
// The file must be a regular file no larger than MaxConfigFileSize.
func Load(path string) (*Config, error) {
	cfg := Default()

	f, info, err := safefile.OpenRegular(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return cfg, nil
		}
		return nil, fmt.Errorf("opening config file: %w", err)
	}
	defer f.Close()

	if info.Size() > MaxConfigFileSize {
		return nil, fmt.Errorf("config file too large: %d bytes (max %d)", info.Size(), MaxConfigFileSize)
	}

	data, err := io.ReadAll(io.LimitReader(f, MaxConfigFileSize))
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks for values that would misbehave at runtime.
func (c *Config) Validate() error {
	if c.Recorder.BaseURL == "" {
		return errors.New("recorder.base_url must be set")
	}
	if c.Recording.Extension == "" || c.Recording.Extension[0] != '.' {
		return fmt.Errorf("recording.extension must start with a dot, got %q", c.Recording.Extension)
	}
	if c.Recording.MaxRenameAttempts < 1 {
		return fmt.Errorf("recording.max_rename_attempts must be positive, got %d", c.Recording.MaxRenameAttempts)
	}
	if c.GraceDelay < 0 || c.Recording.RenameDelay < 0 || c.Recording.SettleInterval < 0 {
		return errors.New("delays must be non-negative")
	}
	if c.MythicPlus.IdleTimeout.Std() <= 0 {
		return fmt.Errorf("mythic_plus.idle_timeout must be positive, got %v", c.MythicPlus.IdleTimeout.Std())
	}
	if c.MythicPlus.CheckInterval.Std() <= 0 {
		return fmt.Errorf("mythic_plus.check_interval must be positive, got %v", c.MythicPlus.CheckInterval.Std())
	}
	return nil
}

// EnabledDifficulties returns the set of difficulty ids whose group
// toggle is on.
func (c *Config) EnabledDifficulties() map[int]bool {
	enabled := make(map[int]bool)
	add := func(group string) {
		for _, id := range difficultyGroups[group] {
			enabled[id] = true
		}
	}
	if c.Difficulties.LFR {
		add("lfr")
	}
	if c.Difficulties.Normal {
		add("normal")
	}
	if c.Difficulties.Heroic {
		add("heroic")
	}
	if c.Difficulties.Mythic {
		add("mythic")
	}
	if c.Difficulties.Other {
		add("other")
	}
	return enabled
}

// DifficultyEnabled reports whether a difficulty id should trigger
// recording.
func (c *Config) DifficultyEnabled(id int) bool {
	return c.EnabledDifficulties()[id]
}

// BossNameOverride returns the configured display name for a boss id,
// or "" when none is set.
func (c *Config) BossNameOverride(id int) string {
	return c.BossNames[id]
}

// Package media finds, verifies, renames and deletes the video files
// produced by the external recorder.
package media

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"
)

// videoExtensions is the fixed allow-list of recognized media
// container extensions (lowercase, with dot).
var videoExtensions = map[string]bool{
	".mp4":  true,
	".mkv":  true,
	".flv":  true,
	".mov":  true,
	".ts":   true,
	".m3u8": true,
	".avi":  true,
	".wmv":  true,
}

// ErrNoRecordings is returned when a directory holds no recognized
// media files.
var ErrNoRecordings = errors.New("no recordings found")

// IsVideoFile reports whether path has a recognized media extension.
func IsVideoFile(path string) bool {
	return videoExtensions[strings.ToLower(filepath.Ext(path))]
}

// Manager performs recording-file operations for the finish pipeline.
type Manager struct {
	// SettleInterval is the gap between the two size samples of
	// WaitStable.
	SettleInterval time.Duration
	// MaxRenameAttempts bounds the filename collision loop.
	MaxRenameAttempts int

	Log *slog.Logger

	// sleep is swappable for tests.
	sleep func(time.Duration)
}

// NewManager returns a Manager with the given settle interval and
// collision bound. A nil logger disables logging.
func NewManager(settleInterval time.Duration, maxRenameAttempts int, log *slog.Logger) *Manager {
	if log == nil {
		log = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Manager{
		SettleInterval:    settleInterval,
		MaxRenameAttempts: maxRenameAttempts,
		Log:               log,
		sleep:             time.Sleep,
	}
}

type fileCandidate struct {
	path    string
	modTime time.Time
}

// FindLatest returns the most recently modified media file in dir.
func (m *Manager) FindLatest(dir string) (string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return "", fmt.Errorf("listing recording directory: %w", err)
	}

	var candidates []fileCandidate
	for _, e := range entries {
		if e.IsDir() || !IsVideoFile(e.Name()) {
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue
		}
		candidates = append(candidates, fileCandidate{
			path:    filepath.Join(dir, e.Name()),
			modTime: info.ModTime(),
		})
	}

	if len(candidates) == 0 {
		return "", ErrNoRecordings
	}

	sort.Slice(candidates, func(i, j int) bool {
		return candidates[i].modTime.After(candidates[j].modTime)
	})
	return candidates[0].path, nil
}

// WaitStable samples the file size twice, SettleInterval apart, and
// reports whether the size held still. A file the recorder is still
// flushing fails the check.
func (m *Manager) WaitStable(path string) bool {
	first, err := os.Stat(path)
	if err != nil {
		m.Log.Warn("stability check failed", "path", path, "error", err)
		return false
	}
	m.sleep(m.SettleInterval)
	second, err := os.Stat(path)
	if err != nil {
		m.Log.Warn("stability check failed", "path", path, "error", err)
		return false
	}
	if first.Size() != second.Size() {
		m.Log.Info("recording still growing",
			"path", path, "before", first.Size(), "after", second.Size())
		return false
	}
	return true
}

// Delete removes a recording, logging its size and the reason.
func (m *Manager) Delete(path, reason string) error {
	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("statting recording: %w", err)
	}
	if err := os.Remove(path); err != nil {
		return fmt.Errorf("deleting recording: %w", err)
	}
	m.Log.Info("deleted recording",
		"path", filepath.Base(path),
		"size_mb", fmt.Sprintf("%.2f", float64(info.Size())/(1<<20)),
		"reason", reason)
	return nil
}

// EnsureDir creates dir (and parents) if absent and returns it.
func EnsureDir(dir string) (string, error) {
	if dir == "" {
		return "", errors.New("no recording directory configured")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("creating recording directory: %w", err)
	}
	return dir, nil
}

// Package logfinder locates the World of Warcraft combat log directory
// and the newest combat log file inside it.
package logfinder

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
)

// EnvLogDir is the environment variable name for specifying the combat
// log directory.
const EnvLogDir = "RAIDREC_LOGDIR"

// DefaultLogPattern matches the combat log files the retail client writes.
const DefaultLogPattern = "WoWCombatLog-*.txt"

// Sentinel errors.
var (
	ErrLogDirNotFound = errors.New("combat log directory not found")
	ErrNoLogFiles     = errors.New("no combat log files found")
)

// DefaultLogDirs returns candidate combat log directories in priority
// order, covering the common Wine/Proton layout under the user's home
// directory and the stock Windows install location.
func DefaultLogDirs() []string {
	var dirs []string

	if home, err := os.UserHomeDir(); err == nil {
		dirs = append(dirs,
			filepath.Join(home, "Games", "World of Warcraft", "_retail_", "Logs"),
		)
	}

	if programFiles := os.Getenv("ProgramFiles(x86)"); programFiles != "" {
		dirs = append(dirs,
			filepath.Join(programFiles, "World of Warcraft", "_retail_", "Logs"),
		)
	}

	return dirs
}

// FindLogDir returns the combat log directory.
//
// Priority:
//  1. explicit (if non-empty)
//  2. RAIDREC_LOGDIR environment variable
//  3. Auto-detect from DefaultLogDirs()
//
// Returns ErrLogDirNotFound if no valid directory is found. The
// returned path has symlinks resolved for consistency. An empty
// directory is accepted: the watcher can be started before the game
// begins logging.
func FindLogDir(explicit string) (string, error) {
	if explicit != "" {
		if resolved := resolveLogDir(explicit); resolved != "" {
			return resolved, nil
		}
		return "", fmt.Errorf("%w: specified directory is invalid", ErrLogDirNotFound)
	}

	if envDir := os.Getenv(EnvLogDir); envDir != "" {
		if resolved := resolveLogDir(envDir); resolved != "" {
			return resolved, nil
		}
		return "", fmt.Errorf("%w: %s environment variable points to invalid directory", ErrLogDirNotFound, EnvLogDir)
	}

	for _, dir := range DefaultLogDirs() {
		if resolved := resolveLogDir(dir); resolved != "" {
			return resolved, nil
		}
	}

	return "", ErrLogDirNotFound
}

// logCandidate holds a log file path and its cached modification time.
// Caching avoids races where files are deleted between stat and sort.
type logCandidate struct {
	path    string
	modTime int64
}

// FindLatestLogFile returns the path to the most recently modified file
// matching pattern in the given directory. An empty pattern uses
// DefaultLogPattern.
//
// Returns ErrNoLogFiles if nothing matches.
func FindLatestLogFile(dir, pattern string) (string, error) {
	if pattern == "" {
		pattern = DefaultLogPattern
	}
	matches, err := filepath.Glob(filepath.Join(dir, pattern))
	if err != nil {
		return "", fmt.Errorf("globbing log files: %w", err)
	}
	if len(matches) == 0 {
		return "", ErrNoLogFiles
	}

	candidates := make([]logCandidate, 0, len(matches))
	for _, m := range matches {
		info, err := os.Lstat(m)
		if err != nil {
			continue
		}
		if !info.Mode().IsRegular() {
			continue
		}
		candidates = append(candidates, logCandidate{
			path:    m,
			modTime: info.ModTime().UnixNano(),
		})
	}

	if len(candidates) == 0 {
		return "", ErrNoLogFiles
	}

	sort.Slice(candidates, func(i, j int) bool {
		return candidates[i].modTime > candidates[j].modTime
	})

	return candidates[0].path, nil
}

// resolveLogDir resolves symlinks and validates that the path is a
// directory. Returns the resolved path if valid, empty string otherwise.
func resolveLogDir(dir string) string {
	info, err := os.Stat(dir)
	if err != nil || !info.IsDir() {
		return ""
	}
	resolved, err := filepath.EvalSymlinks(dir)
	if err != nil {
		return ""
	}
	return resolved
}

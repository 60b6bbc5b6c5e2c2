package media

import (
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// NameInfo carries the subject and suffix a recording is named after.
// Subject is an already-sanitized boss or dungeon name; Suffix is the
// difficulty label, "M+{level}", or "Recording" for the no-metadata
// fallback.
type NameInfo struct {
	Subject string
	Suffix  string
}

// Fallback is the NameInfo used when no session metadata is available.
func Fallback() NameInfo {
	return NameInfo{Suffix: "Recording"}
}

// RenamePlan is one attempt at moving a recording to its final name.
// Recomputed on each collision attempt, never persisted.
type RenamePlan struct {
	SourcePath string
	TargetPath string
	Attempt    int
}

// Filename builds the canonical recording name
//
//	{date}_{time}_{subject}_{suffix}{ext}
//
// from the file's own modification time, so renames stay correct even
// when delayed. An empty subject collapses to {date}_{time}_{suffix}.
func Filename(info NameInfo, t time.Time, ext string) string {
	stamp := t.Format("2006-01-02_15-04-05")
	if info.Subject == "" {
		return fmt.Sprintf("%s_%s%s", stamp, info.Suffix, ext)
	}
	return fmt.Sprintf("%s_%s_%s%s", stamp, info.Subject, info.Suffix, ext)
}

// PlanRename computes the target path for source, resolving name
// collisions by appending _attempt{N} to the subject for N=1.. up to
// MaxRenameAttempts. When every attempt collides, the returned plan
// keeps the source path unchanged and ok is false.
func (m *Manager) PlanRename(source string, info NameInfo, ext string) (RenamePlan, bool) {
	st, err := os.Stat(source)
	if err != nil {
		m.Log.Warn("cannot stat recording for rename", "path", source, "error", err)
		return RenamePlan{SourcePath: source, TargetPath: source}, false
	}
	mtime := st.ModTime()
	dir := filepath.Dir(source)

	target := filepath.Join(dir, Filename(info, mtime, ext))
	if !pathExists(target) {
		return RenamePlan{SourcePath: source, TargetPath: target}, true
	}

	for attempt := 1; attempt <= m.MaxRenameAttempts; attempt++ {
		numbered := info
		numbered.Subject = fmt.Sprintf("%s_attempt%d", info.Subject, attempt)
		target = filepath.Join(dir, Filename(numbered, mtime, ext))
		if !pathExists(target) {
			return RenamePlan{SourcePath: source, TargetPath: target, Attempt: attempt}, true
		}
	}

	m.Log.Warn("rename attempts exhausted, keeping original name",
		"path", filepath.Base(source), "attempts", m.MaxRenameAttempts)
	return RenamePlan{SourcePath: source, TargetPath: source, Attempt: m.MaxRenameAttempts}, false
}

// Rename plans and executes the rename of source. Returns the final
// path. When the collision loop is exhausted the file is left under its
// original name and that path is returned without error.
func (m *Manager) Rename(source string, info NameInfo, ext string) (string, error) {
	plan, ok := m.PlanRename(source, info, ext)
	if !ok {
		return plan.SourcePath, nil
	}
	if err := os.Rename(plan.SourcePath, plan.TargetPath); err != nil {
		return "", fmt.Errorf("renaming recording: %w", err)
	}
	m.Log.Info("renamed recording",
		"from", filepath.Base(plan.SourcePath),
		"to", filepath.Base(plan.TargetPath))
	return plan.TargetPath, nil
}

func pathExists(path string) bool {
	_, err := os.Lstat(path)
	return err == nil
}

package media

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFilename(t *testing.T) {
	at := time.Date(2026, 8, 30, 21, 15, 42, 0, time.UTC)

	tests := []struct {
		name string
		info NameInfo
		ext  string
		want string
	}{
		{
			name: "boss kill",
			info: NameInfo{Subject: "Fyrakk_the_Blazing", Suffix: "Mythic"},
			ext:  ".mp4",
			want: "2026-08-30_21-15-42_Fyrakk_the_Blazing_Mythic.mp4",
		},
		{
			name: "dungeon run",
			info: NameInfo{Subject: "The_Stonevault", Suffix: "M+12"},
			ext:  ".mkv",
			want: "2026-08-30_21-15-42_The_Stonevault_M+12.mkv",
		},
		{
			name: "fallback without subject",
			info: Fallback(),
			ext:  ".mp4",
			want: "2026-08-30_21-15-42_Recording.mp4",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Filename(tt.info, at, tt.ext))
		})
	}
}

func TestRename(t *testing.T) {
	dir := t.TempDir()
	source := filepath.Join(dir, "raw.mp4")
	writeRecording(t, source, time.Date(2026, 8, 30, 21, 15, 42, 0, time.Local))

	m := newTestManager(t)
	got, err := m.Rename(source, NameInfo{Subject: "Queen_Ansurek", Suffix: "Heroic"}, ".mp4")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "2026-08-30_21-15-42_Queen_Ansurek_Heroic.mp4"), got)

	_, err = os.Stat(got)
	assert.NoError(t, err)
	_, err = os.Stat(source)
	assert.True(t, os.IsNotExist(err))
}

func TestPlanRename_Collisions(t *testing.T) {
	info := NameInfo{Subject: "Queen_Ansurek", Suffix: "Mythic"}
	mtime := time.Date(2026, 8, 30, 21, 15, 42, 0, time.Local)

	occupy := func(t *testing.T, dir string, subject string) {
		t.Helper()
		numbered := info
		numbered.Subject = subject
		writeRecording(t, filepath.Join(dir, Filename(numbered, mtime, ".mp4")), mtime)
	}

	t.Run("first k attempts taken", func(t *testing.T) {
		const k = 3
		dir := t.TempDir()
		source := filepath.Join(dir, "raw.mp4")
		writeRecording(t, source, mtime)

		occupy(t, dir, info.Subject)
		for i := 1; i <= k; i++ {
			occupy(t, dir, fmt.Sprintf("%s_attempt%d", info.Subject, i))
		}

		m := newTestManager(t)
		plan, ok := m.PlanRename(source, info, ".mp4")
		require.True(t, ok)
		assert.Equal(t, k+1, plan.Attempt)
		assert.Equal(t,
			filepath.Join(dir, "2026-08-30_21-15-42_Queen_Ansurek_attempt4_Mythic.mp4"),
			plan.TargetPath)
	})

	t.Run("all attempts exhausted keeps original", func(t *testing.T) {
		dir := t.TempDir()
		source := filepath.Join(dir, "raw.mp4")
		writeRecording(t, source, mtime)

		m := newTestManager(t)
		m.MaxRenameAttempts = 3

		occupy(t, dir, info.Subject)
		for i := 1; i <= m.MaxRenameAttempts; i++ {
			occupy(t, dir, fmt.Sprintf("%s_attempt%d", info.Subject, i))
		}

		plan, ok := m.PlanRename(source, info, ".mp4")
		assert.False(t, ok)
		assert.Equal(t, source, plan.TargetPath)

		got, err := m.Rename(source, info, ".mp4")
		require.NoError(t, err)
		assert.Equal(t, source, got)
		_, err = os.Stat(source)
		assert.NoError(t, err, "original file must survive untouched")
	})
}

func TestRename_MissingSource(t *testing.T) {
	m := newTestManager(t)
	source := filepath.Join(t.TempDir(), "absent.mp4")

	got, err := m.Rename(source, Fallback(), ".mp4")
	require.NoError(t, err)
	assert.Equal(t, source, got, "missing source keeps its path")
}

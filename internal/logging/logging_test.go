package logging

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in      string
		want    slog.Level
		wantErr bool
	}{
		{"debug", slog.LevelDebug, false},
		{"info", slog.LevelInfo, false},
		{"", slog.LevelInfo, false},
		{"WARN", slog.LevelWarn, false},
		{"warning", slog.LevelWarn, false},
		{"error", slog.LevelError, false},
		{"trace", 0, true},
	}
	for _, tt := range tests {
		got, err := ParseLevel(tt.in)
		if tt.wantErr {
			assert.Error(t, err, tt.in)
			continue
		}
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, got, tt.in)
	}
}

func TestSetup_InvalidLevel(t *testing.T) {
	_, _, err := Setup(Options{Level: "loud"})
	assert.Error(t, err)
}

func TestSetup_FileOutput(t *testing.T) {
	path := filepath.Join(t.TempDir(), "raidrec.log")
	log, closer, err := Setup(Options{Level: "info", File: path})
	require.NoError(t, err)

	log.Info("hello", "key", "value")
	require.NoError(t, closer.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "hello")
	assert.Contains(t, string(data), "key=value")
}

func TestSetup_VerboseForcesDebug(t *testing.T) {
	log, closer, err := Setup(Options{Level: "error", Verbose: true})
	require.NoError(t, err)
	defer closer.Close()
	assert.True(t, log.Enabled(context.Background(), slog.LevelDebug))
}

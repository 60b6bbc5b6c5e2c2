package tailer

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestTailer_DeliversAppendedLines(t *testing.T) {
	path := filepath.Join(t.TempDir(), "log.txt")
	require.NoError(t, os.WriteFile(path, []byte("old line\n"), 0o644))

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	tl, err := New(ctx, path, DefaultConfig())
	require.NoError(t, err)
	defer func() { _ = tl.Stop() }()

	f, err := os.OpenFile(path, os.O_APPEND|os.O_WRONLY, 0o644)
	require.NoError(t, err)
	// Give the tailer a moment to seek to the end before appending.
	time.Sleep(200 * time.Millisecond)
	_, err = f.WriteString("new line\n")
	require.NoError(t, err)
	require.NoError(t, f.Close())

	select {
	case line := <-tl.Lines():
		require.Equal(t, "new line", line)
	case <-ctx.Done():
		t.Fatal("timed out waiting for line")
	}
}

func TestTailer_FromStart(t *testing.T) {
	path := filepath.Join(t.TempDir(), "log.txt")
	require.NoError(t, os.WriteFile(path, []byte("first\nsecond\n"), 0o644))

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	tl, err := New(ctx, path, Config{FromStart: true, Poll: true})
	require.NoError(t, err)
	defer func() { _ = tl.Stop() }()

	var got []string
	for len(got) < 2 {
		select {
		case line := <-tl.Lines():
			got = append(got, line)
		case <-ctx.Done():
			t.Fatalf("timed out, got %q", got)
		}
	}
	require.Equal(t, []string{"first", "second"}, got)
}

func TestTailer_MissingFile(t *testing.T) {
	_, err := New(context.Background(), filepath.Join(t.TempDir(), "absent.txt"), DefaultConfig())
	require.Error(t, err)
}

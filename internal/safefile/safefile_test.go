package safefile

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestOpenRegular(t *testing.T) {
	path := filepath.Join(t.TempDir(), "file.txt")
	if err := os.WriteFile(path, []byte("content"), 0o644); err != nil {
		t.Fatal(err)
	}

	f, info, err := OpenRegular(path)
	if err != nil {
		t.Fatalf("OpenRegular() error = %v", err)
	}
	defer f.Close()

	if info.Size() != int64(len("content")) {
		t.Errorf("OpenRegular() size = %d, want %d", info.Size(), len("content"))
	}
}

func TestOpenRegular_Directory(t *testing.T) {
	_, _, err := OpenRegular(t.TempDir())
	if !errors.Is(err, ErrNotRegularFile) {
		t.Errorf("OpenRegular() error = %v, want ErrNotRegularFile", err)
	}
}

func TestOpenRegular_Missing(t *testing.T) {
	_, _, err := OpenRegular(filepath.Join(t.TempDir(), "missing"))
	if err == nil {
		t.Error("OpenRegular() error = nil for missing file")
	}
}

func TestStatRegular(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "file.txt")
	if err := os.WriteFile(path, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}

	if _, err := StatRegular(path); err != nil {
		t.Errorf("StatRegular() error = %v", err)
	}
	if _, err := StatRegular(dir); !errors.Is(err, ErrNotRegularFile) {
		t.Errorf("StatRegular() error = %v, want ErrNotRegularFile", err)
	}
}

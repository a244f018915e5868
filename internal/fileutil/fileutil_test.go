package fileutil

import (
	"os"
	"path/filepath"
	"testing"
)

func TestSwapExt(t *testing.T) {
	cases := []struct {
		path string
		ext  string
		want string
	}{
		{"/inbox/morning-ride.fit", ".csv", "morning-ride.csv"},
		{"no-extension", ".csv", "no-extension.csv"},
		{"/inbox/archive.tar.gz", ".csv", "archive.tar.csv"},
		{"UPPER.FIT", ".csv", "UPPER.csv"},
	}
	for _, tc := range cases {
		if got := SwapExt(tc.path, tc.ext); got != tc.want {
			t.Errorf("SwapExt(%q, %q) = %q, want %q", tc.path, tc.ext, got, tc.want)
		}
	}
}

func TestOutputPath(t *testing.T) {
	got := OutputPath("/outbox", "/inbox/ride.fit", ".csv")
	want := filepath.Join("/outbox", "ride.csv")
	if got != want {
		t.Fatalf("OutputPath = %q, want %q", got, want)
	}
}

func TestEnsureDirCreatesNested(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "a", "b", "c")
	if err := EnsureDir(dir); err != nil {
		t.Fatalf("EnsureDir: %v", err)
	}
	info, err := os.Stat(dir)
	if err != nil || !info.IsDir() {
		t.Fatalf("expected directory at %s", dir)
	}
	// Idempotent on an existing directory.
	if err := EnsureDir(dir); err != nil {
		t.Fatalf("EnsureDir second call: %v", err)
	}
}

func TestIsRegular(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "file.fit")
	if err := os.WriteFile(path, []byte("x"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	if !IsRegular(path) {
		t.Error("expected regular file")
	}
	if IsRegular(dir) {
		t.Error("directory should not be regular")
	}
	if IsRegular(filepath.Join(dir, "missing.fit")) {
		t.Error("missing path should not be regular")
	}
}

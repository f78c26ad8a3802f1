package cli

import (
	"os"
	"path/filepath"
	"testing"
)

// seedCacheDir creates a small fan-out directory with three files.
func seedCacheDir(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	sub := filepath.Join(dir, "ab")
	if err := os.MkdirAll(sub, 0755); err != nil {
		t.Fatal(err)
	}
	for _, f := range []string{
		filepath.Join(dir, "top.json"),
		filepath.Join(sub, "one.json"),
		filepath.Join(sub, "two.json"),
	} {
		if err := os.WriteFile(f, []byte("cached"), 0644); err != nil {
			t.Fatal(err)
		}
	}
	return dir
}

func TestDirStats(t *testing.T) {
	dir := seedCacheDir(t)

	files, size, err := dirStats(dir)
	if err != nil {
		t.Fatalf("dirStats() error: %v", err)
	}
	if files != 3 {
		t.Errorf("dirStats() files = %d, want 3", files)
	}
	if want := int64(3 * len("cached")); size != want {
		t.Errorf("dirStats() size = %d, want %d", size, want)
	}
}

func TestClearDir(t *testing.T) {
	dir := seedCacheDir(t)

	count, err := clearDir(dir)
	if err != nil {
		t.Fatalf("clearDir() error: %v", err)
	}
	if count != 3 {
		t.Errorf("clearDir() removed %d files, want 3", count)
	}

	// The directory itself survives, its contents do not.
	if _, err := os.Stat(dir); err != nil {
		t.Errorf("cache dir should still exist: %v", err)
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 0 {
		t.Errorf("cache dir still has %d entries after clear", len(entries))
	}
}

func TestFormatBytes(t *testing.T) {
	tests := []struct {
		n    int64
		want string
	}{
		{512, "512 B"},
		{2048, "2.0 KB"},
		{3 << 20, "3.0 MB"},
	}

	for _, tt := range tests {
		if got := formatBytes(tt.n); got != tt.want {
			t.Errorf("formatBytes(%d) = %q, want %q", tt.n, got, tt.want)
		}
	}
}

package cli

import (
	"os"
	"path/filepath"
	"testing"
)

func TestCacheDir(t *testing.T) {
	home, err := os.UserHomeDir()
	if err != nil {
		t.Skipf("no home directory: %v", err)
	}

	tests := []struct {
		name string
		xdg  string
		want string
	}{
		{"default", "", filepath.Join(home, ".cache", appName)},
		{"xdg", "/tmp/custom-cache", filepath.Join("/tmp/custom-cache", appName)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("XDG_CACHE_HOME", tt.xdg)
			dir, err := cacheDir()
			if err != nil {
				t.Fatalf("cacheDir() error: %v", err)
			}
			if dir != tt.want {
				t.Errorf("cacheDir() = %q, want %q", dir, tt.want)
			}
		})
	}
}

func TestArtifactDir(t *testing.T) {
	t.Setenv("XDG_CACHE_HOME", "/tmp/xdg")
	dir := t.TempDir()
	path := filepath.Join(dir, "gmap.toml")
	content := "[cache]\nbackend = \"file\"\ndir = \"" + filepath.Join(dir, "artifacts") + "\"\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	c := New(os.Stderr, LogInfo)
	c.configPath = path
	got, err := c.artifactDir()
	if err != nil {
		t.Fatalf("artifactDir: %v", err)
	}
	if got != filepath.Join(dir, "artifacts") {
		t.Errorf("artifactDir() = %q", got)
	}

	c.configPath = ""
	t.Chdir(t.TempDir())
	got, err = c.artifactDir()
	if err != nil {
		t.Fatalf("artifactDir: %v", err)
	}
	if got != filepath.Join("/tmp/xdg", appName) {
		t.Errorf("artifactDir() without config = %q", got)
	}
}

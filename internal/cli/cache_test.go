package cli

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/matzehuels/tspart/pkg/cache"
)

func TestCacheDir(t *testing.T) {
	t.Setenv("XDG_CACHE_HOME", "")

	dir, err := cacheDir()
	if err != nil {
		t.Fatalf("cacheDir() error: %v", err)
	}

	home, _ := os.UserHomeDir()
	expected := filepath.Join(home, ".cache", appName)
	if dir != expected {
		t.Errorf("cacheDir() = %q, want %q", dir, expected)
	}
}

func TestCacheDirXDG(t *testing.T) {
	customCache := filepath.Join(t.TempDir(), "custom-cache")
	t.Setenv("XDG_CACHE_HOME", customCache)

	dir, err := cacheDir()
	if err != nil {
		t.Fatalf("cacheDir() error: %v", err)
	}

	expected := filepath.Join(customCache, appName)
	if dir != expected {
		t.Errorf("cacheDir() with XDG_CACHE_HOME = %q, want %q", dir, expected)
	}
}

func TestCacheLocation(t *testing.T) {
	dir := t.TempDir()
	fc, err := cache.NewFileCache(dir)
	if err != nil {
		t.Fatal(err)
	}
	if got := cacheLocation(fc); got != dir {
		t.Errorf("cacheLocation(file) = %q, want %q", got, dir)
	}
	if got := cacheLocation(cache.NewNullCache()); got != "none" {
		t.Errorf("cacheLocation(null) = %q, want none", got)
	}
}

func TestCacheClearCommand(t *testing.T) {
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "config.toml")
	cacheRoot := filepath.Join(dir, "tours")
	writeFile(t, cfgPath, "[cache]\nbackend = \"file\"\ndir = \""+filepath.ToSlash(cacheRoot)+"\"\n")

	fc, err := cache.NewFileCache(cacheRoot)
	if err != nil {
		t.Fatal(err)
	}
	for _, key := range []string{"tour:a", "tour:b"} {
		if err := fc.Set(t.Context(), key, []byte("3\n0 1 2\n"), 0); err != nil {
			t.Fatal(err)
		}
	}

	if _, err := runCLI(t, "--config", cfgPath, "cache", "clear"); err != nil {
		t.Fatalf("cache clear: %v", err)
	}
	if _, hit, _ := fc.Get(t.Context(), "tour:a"); hit {
		t.Error("entry survived cache clear")
	}

	out, err := runCLI(t, "--config", cfgPath, "cache", "path")
	if err != nil {
		t.Fatalf("cache path: %v", err)
	}
	if !strings.Contains(out, "tours") {
		t.Errorf("cache path output = %q", out)
	}
}

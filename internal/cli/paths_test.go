package cli

import (
	"path/filepath"
	"strings"
	"testing"
)

func TestCacheDir(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Setenv("XDG_CACHE_HOME", "")

	dir, err := cacheDir()
	if err != nil {
		t.Fatalf("cacheDir() error: %v", err)
	}

	expected := filepath.Join(home, ".cache", appName)
	if dir != expected {
		t.Errorf("cacheDir() = %q, want %q", dir, expected)
	}
}

func TestCacheDirXDG(t *testing.T) {
	customCache := t.TempDir()
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

func TestConfigDir(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Setenv("XDG_CONFIG_HOME", "")

	dir, err := configDir()
	if err != nil {
		t.Fatalf("configDir() error: %v", err)
	}
	if !strings.HasPrefix(dir, home) {
		t.Errorf("configDir() = %q, should be under home %q", dir, home)
	}
	if filepath.Base(dir) != appName {
		t.Errorf("configDir() = %q, should end with %q", dir, appName)
	}

	custom := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", custom)
	path, err := defaultConfigPath()
	if err != nil {
		t.Fatalf("defaultConfigPath() error: %v", err)
	}
	if want := filepath.Join(custom, appName, "config.toml"); path != want {
		t.Errorf("defaultConfigPath() = %q, want %q", path, want)
	}
}

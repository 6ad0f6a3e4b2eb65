package util

import (
	"path/filepath"
	"strings"
	"testing"
)

func TestHomeDir(t *testing.T) {
	home := HomeDir()
	if home == "" {
		t.Error("HomeDir() returned empty string")
	}

	if !filepath.IsAbs(home) {
		t.Errorf("HomeDir() returned relative path: %s", home)
	}
}

func TestConfigDir(t *testing.T) {
	t.Run("xdg", func(t *testing.T) {
		t.Setenv("XDG_CONFIG_HOME", "/tmp/xdg")
		AssertEqual(t, ConfigDir(), filepath.Join("/tmp/xdg", "notionsync"))
		AssertEqual(t, BackupsPath(), filepath.Join("/tmp/xdg", "notionsync", "backups"))
		AssertEqual(t, CachePath(), filepath.Join("/tmp/xdg", "notionsync", "cache"))
	})

	t.Run("home fallback", func(t *testing.T) {
		t.Setenv("XDG_CONFIG_HOME", "")
		AssertEqual(t, ConfigDir(), filepath.Join(HomeDir(), ".notionsync"))
	})
}

func TestLockPath(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", "/tmp/xdg")

	a := LockPath("/vault", "Notion")
	if !strings.HasPrefix(a, filepath.Join("/tmp/xdg", "notionsync", "locks")) || !strings.HasSuffix(a, ".lock") {
		t.Errorf("LockPath() = %q", a)
	}
	AssertEqual(t, LockPath("/vault/", "/Notion/"), a)
	if LockPath("/vault", "Other") == a {
		t.Error("different folders should not share a lock")
	}
	if LockPath("/other", "Notion") == a {
		t.Error("different vaults should not share a lock")
	}
}

func TestExpandPath(t *testing.T) {
	tests := map[string]struct {
		path, base string
		want       string
	}{
		"empty":    {path: "", base: "/base", want: ""},
		"tilde":    {path: "~", want: HomeDir()},
		"home":     {path: "~/notes", want: filepath.Join(HomeDir(), "notes")},
		"absolute": {path: "/abs/x", base: "/base", want: "/abs/x"},
		"relative": {path: "vault", base: "/base", want: "/base/vault"},
		"no base":  {path: "./vault/", want: "vault"},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			AssertEqual(t, ExpandPath(tt.path, tt.base), tt.want)
		})
	}
}

package util

import (
	"crypto/sha256"
	"encoding/hex"
	"os"
	"path/filepath"
	"strings"
)

// appName names the per-user configuration directory.
const appName = "notionsync"

// HomeDir returns the user's home directory
func HomeDir() string {
	home, _ := os.UserHomeDir()
	return home
}

// ConfigDir returns the notionsync configuration directory:
// $XDG_CONFIG_HOME/notionsync when XDG_CONFIG_HOME is set, ~/.notionsync
// otherwise.
func ConfigDir() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, appName)
	}
	return filepath.Join(HomeDir(), "."+appName)
}

// BackupsPath returns the default directory for overwritten-file backups.
func BackupsPath() string {
	return filepath.Join(ConfigDir(), "backups")
}

// CachePath returns the default directory for cached schemas.
func CachePath() string {
	return filepath.Join(ConfigDir(), "cache")
}

// LockPath returns the lock file guarding syncs into folder of vault. Each
// vault/folder pair gets its own file under the config directory.
func LockPath(vault, folder string) string {
	sum := sha256.Sum256([]byte(filepath.Clean(vault) + "\x00" + strings.Trim(folder, "/")))
	return filepath.Join(ConfigDir(), "locks", hex.EncodeToString(sum[:8])+".lock")
}

// ExpandPath expands a leading ~ to the home directory and resolves a
// relative path against baseDir. An empty path stays empty.
func ExpandPath(path, baseDir string) string {
	if path == "" {
		return ""
	}
	if path == "~" {
		return HomeDir()
	}
	if strings.HasPrefix(path, "~/") {
		return filepath.Join(HomeDir(), path[2:])
	}
	if filepath.IsAbs(path) || baseDir == "" {
		return filepath.Clean(path)
	}
	return filepath.Join(baseDir, path)
}

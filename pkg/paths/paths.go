// Package paths resolves where crabbar keeps its presets and runtime files.
//
// Layout (XDG-style):
//
//	Config:  ~/.config/crabbar/{configs,themes,styles}/  (override: CRABBAR_CONFIG_DIR)
//	Runtime: $XDG_RUNTIME_DIR/crabbar.{sock,pid}          (fallback: os.TempDir())
package paths

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

const name = "crabbar"

var (
	configDirOnce   sync.Once
	configDirCached string

	runtimeDirOnce   sync.Once
	runtimeDirCached string
)

// ConfigDir resolves the config directory.
// Priority: CRABBAR_CONFIG_DIR env > $XDG_CONFIG_HOME/crabbar > ~/.config/crabbar
func ConfigDir() string {
	configDirOnce.Do(func() {
		switch {
		case os.Getenv("CRABBAR_CONFIG_DIR") != "":
			configDirCached = os.Getenv("CRABBAR_CONFIG_DIR")
		case os.Getenv("XDG_CONFIG_HOME") != "":
			configDirCached = filepath.Join(os.Getenv("XDG_CONFIG_HOME"), name)
		default:
			home, err := os.UserHomeDir()
			if err != nil {
				configDirCached = "."
			} else {
				configDirCached = filepath.Join(home, ".config", name)
			}
		}
	})
	return configDirCached
}

// RuntimeDir resolves the directory for the socket and pidfile.
// Priority: XDG_RUNTIME_DIR env > os.TempDir()
func RuntimeDir() string {
	runtimeDirOnce.Do(func() {
		if env := os.Getenv("XDG_RUNTIME_DIR"); env != "" {
			runtimeDirCached = env
		} else {
			runtimeDirCached = os.TempDir()
		}
	})
	return runtimeDirCached
}

func SocketPath() string {
	return filepath.Join(RuntimeDir(), name+".sock")
}

func PidPath() string {
	return filepath.Join(RuntimeDir(), name+".pid")
}

// PresetDir returns the directory holding presets of one kind
// ("configs", "themes" or "styles") under root.
func PresetDir(root, kind string) string {
	return filepath.Join(root, kind)
}

// EnsureDir creates dir if it doesn't exist and returns it.
func EnsureDir(dir string) (string, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("create dir %s: %w", dir, err)
	}
	return dir, nil
}

// ResetForTest clears cached values so tests can re-run resolution logic.
// Only use in tests.
func ResetForTest() {
	configDirOnce = sync.Once{}
	configDirCached = ""
	runtimeDirOnce = sync.Once{}
	runtimeDirCached = ""
}

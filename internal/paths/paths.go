// Package paths resolves the filesystem locations transcodarr uses for its
// config file, state database, and logs.
package paths

import (
	"os"
	"path/filepath"
)

// StateDirName is the hidden directory created under the destination root
// that holds the transcoder's durable state.
const StateDirName = ".transcoder"

// ConfigDir returns the transcodarr config directory, typically
// ~/.config/transcodarr.
func ConfigDir() (string, error) {
	base, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(base, "transcodarr"), nil
}

// ConfigPath returns the path to the config file,
// ~/.config/transcodarr/config.toml.
func ConfigPath() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.toml"), nil
}

// LogPath returns the default log file path,
// ~/.config/transcodarr/logs/transcodarr.log.
func LogPath() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "logs", "transcodarr.log"), nil
}

// DatabasePath returns the state database path for a destination root:
// <dest>/.transcoder/state.db. The database lives next to the media it
// describes so the library and its state move together.
func DatabasePath(destDir string) string {
	return filepath.Join(destDir, StateDirName, "state.db")
}

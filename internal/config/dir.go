package config

import (
	"os"
	"path/filepath"
)

// UserFile returns the per-user configuration file,
// $XDG_CONFIG_HOME/einstein/einstein.toml or ~/.config/einstein/einstein.toml.
func UserFile() (string, error) {
	dir := os.Getenv("XDG_CONFIG_HOME")
	if dir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		dir = filepath.Join(home, ".config")
	}
	return filepath.Join(dir, "einstein", DefaultFile), nil
}

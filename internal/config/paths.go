package config

import (
	"os"
	"path/filepath"
)

// ProjectConfigNames are the project config files, in lookup order.
var ProjectConfigNames = []string{".commitsense.yml", ".commitsense.yaml", ".commitsense.json"}

// UserConfigPath returns the path to the user-level config file, following
// os.UserConfigDir:
// - Linux: ~/.config/commitsense/config.yml (XDG_CONFIG_HOME respected)
// - macOS: ~/Library/Application Support/commitsense/config.yml
// - Windows: %APPDATA%\commitsense\config.yml
func UserConfigPath() (string, error) {
	dir, err := UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.yml"), nil
}

// UserConfigDir returns the user-level config directory.
func UserConfigDir() (string, error) {
	configDir, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(configDir, "commitsense"), nil
}

// FindProjectConfig returns the first project config file in dir, or "".
func FindProjectConfig(dir string) string {
	if dir == "" {
		dir = "."
	}
	for _, name := range ProjectConfigNames {
		path := filepath.Join(dir, name)
		if fileExists(path) {
			return path
		}
	}
	return ""
}

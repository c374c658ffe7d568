// Package config loads ambient's layered configuration.
package config

import (
	"os"
	"path/filepath"
	"runtime"
)

// Dir returns the global ambient configuration directory.
//
// Resolution:
//   - $AMBIENT_CONFIG_HOME if set
//   - $XDG_CONFIG_HOME/ambient if set
//   - %AppData%/ambient on Windows
//   - ~/.config/ambient elsewhere
func Dir() string {
	if dir := os.Getenv("AMBIENT_CONFIG_HOME"); dir != "" {
		return dir
	}
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "ambient")
	}
	if runtime.GOOS == "windows" {
		if appData := os.Getenv("APPDATA"); appData != "" {
			return filepath.Join(appData, "ambient")
		}
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".config", "ambient")
}

// GlobalFile returns the path of the global config file, or "" when no
// config directory can be determined.
func GlobalFile() string {
	dir := Dir()
	if dir == "" {
		return ""
	}
	return filepath.Join(dir, "config.yaml")
}

// LogFile returns the path of the log file used by long-running hosts.
func LogFile() string {
	dir := Dir()
	if dir == "" {
		return ""
	}
	return filepath.Join(dir, "ambient.log")
}

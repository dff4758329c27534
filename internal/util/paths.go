package util

import (
	"os"
	"path/filepath"
	"strings"
)

// HomeDir returns the user's home directory
func HomeDir() string {
	home, _ := os.UserHomeDir()
	return home
}

// PagesyncConfigPath returns the pagesync configuration directory.
// Honors XDG_CONFIG_HOME when set.
func PagesyncConfigPath() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "pagesync")
	}
	return filepath.Join(HomeDir(), ".config", "pagesync")
}

// PagesyncDataPath returns the pagesync data directory where the content
// store lives by default. Honors XDG_DATA_HOME when set.
func PagesyncDataPath() string {
	if xdg := os.Getenv("XDG_DATA_HOME"); xdg != "" {
		return filepath.Join(xdg, "pagesync")
	}
	return filepath.Join(HomeDir(), ".local", "share", "pagesync")
}

// ExpandPath expands a leading ~ to the home directory and resolves
// relative paths against baseDir. Returns "" for empty input.
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
	if filepath.IsAbs(path) {
		return filepath.Clean(path)
	}
	return filepath.Join(baseDir, path)
}

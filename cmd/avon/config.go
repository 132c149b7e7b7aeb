package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// appName is the single source of truth for the application name. All
// derived identifiers (env vars, config paths) are computed from it, the
// same derivation the teacher's devshell config.go used for its own env
// var names.
const appName = "avon"

var envConfigDir = strings.ToUpper(appName) + "_CONFIG_DIR"

// resolveConfigDir returns the base config directory for the application.
// Priority: $AVON_CONFIG_DIR > $XDG_CONFIG_HOME/avon > ~/.config/avon.
func resolveConfigDir() (string, error) {
	if v := os.Getenv(envConfigDir); v != "" {
		return v, nil
	}
	if v := os.Getenv("XDG_CONFIG_HOME"); v != "" {
		return filepath.Join(v, appName), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("could not determine home directory: %w", err)
	}
	return filepath.Join(home, ".config", appName), nil
}

// historyFilePath returns where the REPL keeps its chzyer/readline history,
// creating the config directory if it doesn't exist yet.
func historyFilePath() string {
	dir, err := resolveConfigDir()
	if err != nil {
		return ""
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return ""
	}
	return filepath.Join(dir, "history")
}

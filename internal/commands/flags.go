package commands

import (
	"os"
	"path/filepath"
	"runtime"

	"github.com/colonyops/leaf/internal/core/config"
)

// Flags holds global flag values and state shared by all commands.
type Flags struct {
	LogLevel   string
	LogFile    string
	ConfigPath string

	// Config is loaded in the Before hook and available to all commands.
	Config *config.Config
}

// DefaultConfigPath returns the default config file path using XDG_CONFIG_HOME.
func DefaultConfigPath() string {
	configHome := os.Getenv("XDG_CONFIG_HOME")
	if configHome == "" {
		home, _ := os.UserHomeDir()
		configHome = filepath.Join(home, ".config")
	}
	return filepath.Join(configHome, "leaf", "config.yaml")
}

// DefaultLogFile returns the default log file path using the system's state
// directory. On macOS: ~/Library/Logs/leaf/leaf.log. Elsewhere:
// $XDG_STATE_HOME/leaf/leaf.log (defaulting to ~/.local/state).
func DefaultLogFile() string {
	stateHome := os.Getenv("XDG_STATE_HOME")
	if stateHome != "" {
		return filepath.Join(stateHome, "leaf", "leaf.log")
	}

	home, _ := os.UserHomeDir()
	if runtime.GOOS == "darwin" {
		return filepath.Join(home, "Library", "Logs", "leaf", "leaf.log")
	}
	return filepath.Join(home, ".local", "state", "leaf", "leaf.log")
}

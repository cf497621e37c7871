package commands

import (
	"os"
	"path/filepath"
	"runtime"

	"github.com/hay-kot/battle/internal/core/config"
)

type Flags struct {
	LogLevel   string
	LogFile    string
	ConfigPath string
	DataDir    string
	Workspace  string

	// Config is loaded in the Before hook and available to all commands
	Config *config.Config
}

// xdgDir returns $env, or home joined with fallback when env is unset.
func xdgDir(env string, fallback ...string) string {
	if dir := os.Getenv(env); dir != "" {
		return dir
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(append([]string{home}, fallback...)...)
}

// DefaultConfigPath is $XDG_CONFIG_HOME/battle/config.yaml.
func DefaultConfigPath() string {
	return filepath.Join(xdgDir("XDG_CONFIG_HOME", ".config"), "battle", "config.yaml")
}

// DefaultDataDir is $XDG_DATA_HOME/battle, where history and per-workspace
// state live.
func DefaultDataDir() string {
	return filepath.Join(xdgDir("XDG_DATA_HOME", ".local", "share"), "battle")
}

// DefaultLogFile is ~/Library/Logs/battle/battle.log on macOS unless
// XDG_STATE_HOME is set, and $XDG_STATE_HOME/battle/battle.log elsewhere.
func DefaultLogFile() string {
	if runtime.GOOS == "darwin" && os.Getenv("XDG_STATE_HOME") == "" {
		return filepath.Join(xdgDir("HOME"), "Library", "Logs", "battle", "battle.log")
	}
	return filepath.Join(xdgDir("XDG_STATE_HOME", ".local", "state"), "battle", "battle.log")
}

// DefaultWorkspace is the current directory, or "" when it cannot be read.
func DefaultWorkspace() string {
	wd, err := os.Getwd()
	if err != nil {
		return ""
	}
	return wd
}

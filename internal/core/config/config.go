// Package config handles loading and validation of battle's application
// settings. The launchpad document itself lives in package battle.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/hay-kot/battle/internal/core/battle"
	"github.com/hay-kot/battle/internal/core/styles"
	"gopkg.in/yaml.v3"
)

// Layouts for the rendered action list.
const (
	LayoutList = "list"
	LayoutGrid = "grid"
)

// Detection strategies for enhanced toolchain detection.
const (
	DetectFile    = "file"
	DetectCommand = "command"
	DetectHybrid  = "hybrid"
)

// WorkspaceFileName is the optional per-workspace settings overlay, resolved
// relative to the workspace root.
const WorkspaceFileName = ".vscode/battle.yaml"

// Config holds the application settings.
type Config struct {
	Display  Display              `yaml:"display"`
	Generate Generate             `yaml:"generate"`
	Icons    []battle.IconMapping `yaml:"icons"`
	Commands Commands             `yaml:"commands"`
	Refresh  Refresh              `yaml:"refresh"`
	Scan     Scan                 `yaml:"scan"`
	DataDir  string               `yaml:"-"` // set by caller, not from config file
}

// Display holds user-facing display settings merged into view updates.
type Display struct {
	ShowHidden bool   `yaml:"show_hidden"`
	Layout     string `yaml:"layout"`
	Theme      string `yaml:"theme"`
}

// Sources selects the basic scanners used by generation.
type Sources struct {
	NPM    bool `yaml:"npm"`
	Tasks  bool `yaml:"tasks"`
	Launch bool `yaml:"launch"`
}

// Generate holds the defaults for config generation.
type Generate struct {
	Sources        Sources `yaml:"sources"`
	GroupByType    bool    `yaml:"group_by_type"`
	EnableColoring bool    `yaml:"enable_coloring"`
	Enhanced       bool    `yaml:"enhanced"`
	Detection      string  `yaml:"detection"`
}

// Commands bounds external command execution.
type Commands struct {
	Timeout   time.Duration `yaml:"timeout"`
	MaxOutput int64         `yaml:"max_output"`
}

// Refresh controls view refresh coalescing.
type Refresh struct {
	Debounce time.Duration `yaml:"debounce"`
}

// Scan holds workspace scanner settings.
type Scan struct {
	// Ignore lists extra doublestar globs, relative to the workspace root,
	// skipped by the npm walker.
	Ignore []string `yaml:"ignore"`
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		Display: Display{
			Layout: LayoutList,
			Theme:  styles.DefaultTheme,
		},
		Generate: Generate{
			Sources:     Sources{NPM: true, Tasks: true, Launch: true},
			GroupByType: true,
			Detection:   DetectFile,
		},
		Commands: Commands{
			Timeout:   30 * time.Second,
			MaxOutput: 1 << 20,
		},
		Refresh: Refresh{
			Debounce: 50 * time.Millisecond,
		},
	}
}

// Load reads settings from configPath, then merges each existing overlay
// file on top in order. Missing files are skipped; with none present the
// defaults are returned with the provided dataDir.
func Load(configPath, dataDir string, overlays ...string) (*Config, error) {
	merged := make(map[string]any)

	for _, path := range append([]string{configPath}, overlays...) {
		doc, err := readYAML(path)
		if err != nil {
			return nil, err
		}
		mergeMaps(merged, doc)
	}

	cfg := DefaultConfig()
	if len(merged) > 0 {
		data, err := yaml.Marshal(merged)
		if err != nil {
			return nil, fmt.Errorf("merge config files: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("parse config file: %w", err)
		}
	}

	cfg.DataDir = dataDir
	cfg.applyDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &cfg, nil
}

// WorkspaceOverlay returns the overlay path for workspace, or "" when
// workspace is empty.
func WorkspaceOverlay(workspace string) string {
	if workspace == "" {
		return ""
	}
	return filepath.Join(workspace, WorkspaceFileName)
}

// applyDefaults sets default values for any unset configuration options.
func (c *Config) applyDefaults() {
	defaults := DefaultConfig()
	if c.Display.Layout == "" {
		c.Display.Layout = defaults.Display.Layout
	}
	if c.Display.Theme == "" {
		c.Display.Theme = defaults.Display.Theme
	}
	if c.Generate.Detection == "" {
		c.Generate.Detection = defaults.Generate.Detection
	}
	if c.Commands.Timeout == 0 {
		c.Commands.Timeout = defaults.Commands.Timeout
	}
	if c.Commands.MaxOutput == 0 {
		c.Commands.MaxOutput = defaults.Commands.MaxOutput
	}
	if c.Refresh.Debounce == 0 {
		c.Refresh.Debounce = defaults.Refresh.Debounce
	}
}

// WorkspacesFile returns the path of the per-workspace state file.
func (c *Config) WorkspacesFile() string {
	return filepath.Join(c.DataDir, "workspaces.json")
}

func readYAML(path string) (map[string]any, error) {
	if path == "" {
		return nil, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("read config file: %w", err)
	}

	var doc map[string]any
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse config file %s: %w", path, err)
	}
	return doc, nil
}

package doctor

import (
	"context"
	"fmt"
	"os"
)

// SettingsInfo describes the loaded application settings.
type SettingsInfo struct {
	ConfigPath  string
	OverlayPath string
	DataDir     string
	// Warnings are non-fatal settings issues, already formatted.
	Warnings []string
}

// SettingsCheck verifies the settings files and data directory.
type SettingsCheck struct {
	info SettingsInfo
}

// NewSettingsCheck creates a new settings check.
func NewSettingsCheck(info SettingsInfo) *SettingsCheck {
	return &SettingsCheck{info: info}
}

func (c *SettingsCheck) Name() string {
	return "Settings"
}

func (c *SettingsCheck) Run(_ context.Context) Result {
	result := Result{Name: c.Name()}

	result.Items = append(result.Items, fileItem(c.info.ConfigPath, "using defaults"))
	if c.info.OverlayPath != "" {
		result.Items = append(result.Items, fileItem(c.info.OverlayPath, "no workspace overrides"))
	}

	info, err := os.Stat(c.info.DataDir)
	switch {
	case os.IsNotExist(err):
		result.Items = append(result.Items, warn(c.info.DataDir, "data directory does not exist"))
	case err != nil:
		result.Items = append(result.Items, fail(c.info.DataDir, fmt.Sprintf("inaccessible: %v", err)))
	case !info.IsDir():
		result.Items = append(result.Items, fail(c.info.DataDir, "path is not a directory"))
	default:
		result.Items = append(result.Items, pass(c.info.DataDir, "data directory"))
	}

	for _, w := range c.info.Warnings {
		result.Items = append(result.Items, warn("settings", w))
	}

	return result
}

func fileItem(path, absent string) CheckItem {
	if path == "" {
		return pass("settings file", absent)
	}

	info, err := os.Stat(path)
	switch {
	case os.IsNotExist(err):
		return pass(path, "not found, "+absent)
	case err != nil:
		return fail(path, fmt.Sprintf("inaccessible: %v", err))
	case info.IsDir():
		return fail(path, "path is a directory")
	default:
		return pass(path, "")
	}
}

package doctor

import (
	"context"
	"strings"
)

// ToolchainInfo describes a toolchain detected in the workspace.
type ToolchainInfo struct {
	Name     string
	Binaries []string
	// Available is false when none of Binaries is on PATH.
	Available bool
}

// ToolchainCheck reports whether detected toolchains can actually run.
type ToolchainCheck struct {
	toolchains []ToolchainInfo
}

// NewToolchainCheck creates a new toolchain availability check.
func NewToolchainCheck(toolchains []ToolchainInfo) *ToolchainCheck {
	return &ToolchainCheck{toolchains: toolchains}
}

func (c *ToolchainCheck) Name() string {
	return "Toolchains"
}

func (c *ToolchainCheck) Run(_ context.Context) Result {
	result := Result{Name: c.Name()}

	if len(c.toolchains) == 0 {
		result.Items = append(result.Items, pass("No toolchains", "no project markers found"))
		return result
	}

	for _, tc := range c.toolchains {
		if tc.Available || len(tc.Binaries) == 0 {
			result.Items = append(result.Items, pass(tc.Name, ""))
			continue
		}
		result.Items = append(result.Items, warn(tc.Name, "detected but "+strings.Join(tc.Binaries, "/")+" not on PATH"))
	}

	return result
}

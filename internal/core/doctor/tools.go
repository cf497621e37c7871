package doctor

import (
	"context"
	"os/exec"
)

// lookPathFunc is the function used to find executables on PATH.
// Package-level variable to allow test overrides.
var lookPathFunc = exec.LookPath

// Tool is an external binary battle depends on.
type Tool struct {
	Name     string
	Required bool
	// Purpose is shown when the tool is missing.
	Purpose string
}

// DefaultTools returns the binaries every setup is checked for.
func DefaultTools() []Tool {
	return []Tool{
		{Name: "sh", Required: true, Purpose: "required to run shell actions"},
		{Name: "git", Purpose: "used by the git toolchain actions"},
	}
}

// ToolsCheck verifies that external tools are available on $PATH.
type ToolsCheck struct {
	tools []Tool
}

// NewToolsCheck creates a new tools check.
func NewToolsCheck(tools []Tool) *ToolsCheck {
	return &ToolsCheck{tools: tools}
}

func (c *ToolsCheck) Name() string {
	return "Tools"
}

func (c *ToolsCheck) Run(_ context.Context) Result {
	result := Result{Name: c.Name()}

	for _, tool := range c.tools {
		path, err := lookPathFunc(tool.Name)
		switch {
		case err == nil:
			result.Items = append(result.Items, pass(tool.Name, path))
		case tool.Required:
			result.Items = append(result.Items, fail(tool.Name, missing(tool)))
		default:
			result.Items = append(result.Items, warn(tool.Name, missing(tool)))
		}
	}

	return result
}

func missing(tool Tool) string {
	if tool.Purpose == "" {
		return "not found on PATH"
	}
	return "not found on PATH (" + tool.Purpose + ")"
}

package doctor

import (
	"context"
	"fmt"
)

// LaunchpadInfo describes the resolved launchpad document of a workspace.
// Decoupled from the launchpad package to avoid import cycles.
type LaunchpadInfo struct {
	Workspace string
	Path      string
	Custom    bool
	Exists    bool
	Valid     bool
	Err       error
	// Legacy lists leftover legacy config files still present.
	Legacy []string
	// History is the number of stored versions.
	History int
}

// LaunchpadCheck reports where the launchpad document lives and whether it
// parses.
type LaunchpadCheck struct {
	info LaunchpadInfo
}

// NewLaunchpadCheck creates a new launchpad document check.
func NewLaunchpadCheck(info LaunchpadInfo) *LaunchpadCheck {
	return &LaunchpadCheck{info: info}
}

func (c *LaunchpadCheck) Name() string {
	return "Launchpad"
}

func (c *LaunchpadCheck) Run(_ context.Context) Result {
	result := Result{Name: c.Name()}
	info := c.info

	if info.Workspace == "" {
		result.Items = append(result.Items, fail("workspace", "no workspace folder"))
		return result
	}
	result.Items = append(result.Items, pass("workspace", info.Workspace))

	location := "default location"
	if info.Custom {
		location = "custom directory"
	}

	switch {
	case !info.Exists:
		result.Items = append(result.Items, warn(info.Path, "not created yet (run 'battle generate')"))
	case !info.Valid:
		result.Items = append(result.Items, fail(info.Path, fmt.Sprintf("invalid: %v", info.Err)))
	default:
		result.Items = append(result.Items, pass(info.Path, location))
	}

	for _, path := range info.Legacy {
		result.Items = append(result.Items, CheckItem{
			Label:   path,
			Status:  StatusWarn,
			Detail:  "legacy config not migrated",
			AutoFix: true,
		})
	}

	result.Items = append(result.Items, pass("history", fmt.Sprintf("%d versions", info.History)))
	return result
}

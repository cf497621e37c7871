package config

import (
	"fmt"
	"time"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/hay-kot/battle/internal/core/styles"
	"github.com/hay-kot/battle/internal/core/validate"
	"github.com/hay-kot/criterio"
)

// maxDebounce keeps the refresh window short enough to feel live.
const maxDebounce = 5 * time.Second

// ValidationWarning represents a non-fatal configuration issue.
type ValidationWarning struct {
	Category string `json:"category"`
	Item     string `json:"item,omitempty"`
	Message  string `json:"message"`
}

// Validate checks enum values, positive limits and ignore glob syntax.
func (c *Config) Validate() error {
	return criterio.ValidateStruct(
		criterio.Run("display.layout", c.Display.Layout, validate.OneOf(LayoutList, LayoutGrid)),
		criterio.Run("display.theme", c.Display.Theme, validate.OneOf(styles.ThemeNames()...)),
		criterio.Run("generate.detection", c.Generate.Detection, validate.OneOf(DetectFile, DetectCommand, DetectHybrid)),
		criterio.Run("commands.timeout", c.Commands.Timeout, positiveDuration),
		criterio.Run("commands.max_output", c.Commands.MaxOutput, positiveSize),
		criterio.Run("refresh.debounce", c.Refresh.Debounce, debounceWindow),
		c.validateIcons(),
		c.validateIgnore(),
	)
}

func (c *Config) validateIcons() error {
	var errs criterio.FieldErrorsBuilder
	for i, m := range c.Icons {
		field := fmt.Sprintf("icons[%d]", i)
		if err := validate.Required(m.Type); err != nil {
			errs = errs.Append(field+".type", err)
		}
		if err := validate.Required(m.Icon); err != nil {
			errs = errs.Append(field+".icon", err)
		}
	}
	return errs.ToError()
}

func (c *Config) validateIgnore() error {
	var errs criterio.FieldErrorsBuilder
	for i, pattern := range c.Scan.Ignore {
		if !doublestar.ValidatePattern(pattern) {
			errs = errs.Append(fmt.Sprintf("scan.ignore[%d]", i), fmt.Errorf("invalid glob %q", pattern))
		}
	}
	return errs.ToError()
}

// Warnings returns non-fatal configuration issues.
func (c *Config) Warnings() []ValidationWarning {
	var warnings []ValidationWarning

	if c.Generate.EnableColoring && !c.Generate.GroupByType {
		warnings = append(warnings, ValidationWarning{
			Category: "Generate",
			Item:     "enable_coloring",
			Message:  "coloring only applies to generated groups; enable group_by_type",
		})
	}

	s := c.Generate.Sources
	if !s.NPM && !s.Tasks && !s.Launch && !c.Generate.Enhanced {
		warnings = append(warnings, ValidationWarning{
			Category: "Generate",
			Item:     "sources",
			Message:  "every source is disabled; generation will only produce placeholders",
		})
	}

	seen := make(map[string]bool, len(c.Icons))
	for _, m := range c.Icons {
		if seen[m.Type] {
			warnings = append(warnings, ValidationWarning{
				Category: "Icons",
				Item:     m.Type,
				Message:  "duplicate mapping; the first one wins",
			})
		}
		seen[m.Type] = true
	}

	return warnings
}

func positiveDuration(d time.Duration) error {
	if d <= 0 {
		return fmt.Errorf("must be positive, got %s", d)
	}
	return nil
}

func positiveSize(n int64) error {
	if n <= 0 {
		return fmt.Errorf("must be positive, got %d", n)
	}
	return nil
}

func debounceWindow(d time.Duration) error {
	if err := positiveDuration(d); err != nil {
		return err
	}
	if d > maxDebounce {
		return fmt.Errorf("must be at most %s, got %s", maxDebounce, d)
	}
	return nil
}

// Package detect recognises toolchains in a workspace and proposes actions
// for them. A detector fires on marker files, on binaries found on PATH, or
// on both, depending on the Strategy.
package detect

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/hay-kot/battle/internal/core/battle"
	"github.com/hay-kot/battle/internal/core/logging"
	"golang.org/x/sync/errgroup"
)

// Strategy controls how a detector decides it applies.
type Strategy string

const (
	// StrategyFile requires a marker file.
	StrategyFile Strategy = "file"
	// StrategyCommand requires one of the detector's binaries on PATH.
	StrategyCommand Strategy = "command"
	// StrategyHybrid requires a marker file and, when the detector names
	// binaries, one of them on PATH.
	StrategyHybrid Strategy = "hybrid"
)

// ParseStrategy maps a settings value onto a Strategy, defaulting to file.
func ParseStrategy(s string) Strategy {
	switch Strategy(s) {
	case StrategyCommand, StrategyHybrid:
		return Strategy(s)
	default:
		return StrategyFile
	}
}

// lookPathFunc is overridden in tests.
var lookPathFunc = exec.LookPath

// Detector describes one toolchain.
type Detector struct {
	Name string
	// Type is the action type assigned to everything this detector emits.
	Type string
	// Markers are doublestar globs relative to the workspace root.
	Markers []string
	// Binaries are probed on PATH; any one is enough.
	Binaries []string
	// Actions builds the proposals once the detector has matched.
	Actions func(ctx context.Context, root string) []battle.Action
}

// Matches reports whether the detector applies to root under strategy.
func (d Detector) Matches(root string, strategy Strategy) bool {
	switch strategy {
	case StrategyCommand:
		return d.hasBinary()
	case StrategyHybrid:
		if !d.hasMarker(root) {
			return false
		}
		return len(d.Binaries) == 0 || d.hasBinary()
	default:
		return d.hasMarker(root)
	}
}

func (d Detector) hasMarker(root string) bool {
	fsys := os.DirFS(root)
	for _, pattern := range d.Markers {
		matches, err := doublestar.Glob(fsys, pattern)
		if err == nil && len(matches) > 0 {
			return true
		}
	}
	return false
}

func (d Detector) hasBinary() bool {
	for _, bin := range d.Binaries {
		if _, err := lookPathFunc(bin); err == nil {
			return true
		}
	}
	return false
}

// Registry is an ordered set of detectors.
type Registry []Detector

// Toolchain is a detector whose markers are present in a workspace.
type Toolchain struct {
	Name      string
	Binaries  []string
	Available bool
}

// Present lists the detectors with markers under root, in registry order,
// and whether their binaries are on PATH.
func (r Registry) Present(root string) []Toolchain {
	var out []Toolchain
	for _, d := range r {
		if !d.hasMarker(root) {
			continue
		}
		out = append(out, Toolchain{Name: d.Name, Binaries: d.Binaries, Available: d.hasBinary()})
	}
	return out
}

// Default returns the built-in detectors in output order.
func Default() Registry {
	return Registry{
		dockerDetector(),
		composeDetector(),
		pythonDetector(),
		goDetector(),
		rustDetector(),
		makeDetector(),
		gradleDetector(),
		mavenDetector(),
		cmakeDetector(),
		gitDetector(),
	}
}

// Detect runs the default registry against root.
func Detect(ctx context.Context, root string, strategy Strategy) []battle.Action {
	return Default().Detect(ctx, root, strategy)
}

// Detect runs every detector concurrently and concatenates their actions in
// registry order. Each action is stamped with the detector's type.
func (r Registry) Detect(ctx context.Context, root string, strategy Strategy) []battle.Action {
	log := logging.Component("detect")
	results := make([][]battle.Action, len(r))

	g, ctx := errgroup.WithContext(ctx)
	for i, d := range r {
		g.Go(func() error {
			if ctx.Err() != nil {
				return nil
			}
			if !d.Matches(root, strategy) {
				return nil
			}

			actions := d.Actions(ctx, root)
			for j := range actions {
				actions[j].Type = d.Type
			}
			results[i] = actions

			log.Debug().Str("detector", d.Name).Int("actions", len(actions)).Msg("detected")
			return nil
		})
	}
	_ = g.Wait()

	var out []battle.Action
	for _, actions := range results {
		out = append(out, actions...)
	}
	return out
}

func fileExists(root string, rel ...string) bool {
	_, err := os.Stat(filepath.Join(append([]string{root}, rel...)...))
	return err == nil
}

func action(name, command string) battle.Action {
	return battle.Action{Name: name, Command: command}
}

// projectName is the workspace folder name, used for image tags.
func projectName(root string) string {
	name := filepath.Base(root)
	if name == "." || name == string(filepath.Separator) {
		return "app"
	}
	return name
}

// wrapperOr returns the wrapper script invocation when present in root.
func wrapperOr(root, wrapper, fallback string) string {
	if fileExists(root, wrapper) {
		return fmt.Sprintf("./%s", wrapper)
	}
	return fallback
}

// Package scanner discovers candidate launchpad actions from workspace
// artifacts: package.json scripts, editor tasks and launch configurations.
// Scanning is read-only and never fails; unreadable sources yield nothing.
package scanner

import (
	"context"
	"os"
	"path/filepath"

	"github.com/hay-kot/battle/internal/core/battle"
	"github.com/hay-kot/battle/internal/core/logging"
	"github.com/hay-kot/battle/pkg/jsonc"
	"github.com/rs/zerolog"
)

// DefaultMaxDepth bounds the npm walk so pathological trees can't stall a scan.
const DefaultMaxDepth = 10

// DotFolder holds the editor's task and launch definitions.
const DotFolder = ".vscode"

// Sources selects which basic scanners run.
type Sources struct {
	NPM    bool
	Tasks  bool
	Launch bool
}

// AllSources enables every basic scanner.
var AllSources = Sources{NPM: true, Tasks: true, Launch: true}

// Options configures a Scanner.
type Options struct {
	// Ignore lists doublestar globs, relative to the root, skipped by the
	// npm walker in addition to the default noise directories.
	Ignore []string
	// MaxDepth bounds directory recursion. Zero means DefaultMaxDepth.
	MaxDepth int
}

// Scanner scans a single workspace root.
type Scanner struct {
	root     string
	ignore   []string
	maxDepth int
	log      zerolog.Logger
}

// New creates a scanner for root.
func New(root string, opts Options) *Scanner {
	depth := opts.MaxDepth
	if depth <= 0 {
		depth = DefaultMaxDepth
	}
	return &Scanner{
		root:     root,
		ignore:   opts.Ignore,
		maxDepth: depth,
		log:      logging.Component("scanner"),
	}
}

// Root returns the scanned workspace root.
func (s *Scanner) Root() string { return s.root }

// Scan runs the enabled scanners in npm, tasks, launch order.
func (s *Scanner) Scan(ctx context.Context, src Sources) []battle.Action {
	var actions []battle.Action
	if src.NPM {
		actions = append(actions, s.ScanNPM(ctx)...)
	}
	if src.Tasks {
		actions = append(actions, s.ScanTasks(ctx)...)
	}
	if src.Launch {
		actions = append(actions, s.ScanLaunch(ctx)...)
	}
	return actions
}

// readJSONC decodes a comment-tolerant JSON file. A missing file is not
// logged; other failures are logged at debug and reported as false.
func (s *Scanner) readJSONC(path string, v any) bool {
	data, err := os.ReadFile(path)
	if err != nil {
		if !os.IsNotExist(err) {
			s.log.Debug().Err(err).Str("path", path).Msg("read failed")
		}
		return false
	}

	if err := jsonc.Unmarshal(data, v); err != nil {
		s.log.Debug().Err(err).Str("path", path).Msg("parse failed")
		return false
	}
	return true
}

func (s *Scanner) dotFile(name string) string {
	return filepath.Join(s.root, DotFolder, name)
}

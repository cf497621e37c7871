package scanner

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"sort"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/hay-kot/battle/internal/core/battle"
)

// defaultIgnore names directories the npm walker never enters.
var defaultIgnore = map[string]bool{
	"node_modules": true,
	".git":         true,
	"dist":         true,
	"build":        true,
	"out":          true,
	"coverage":     true,
	".next":        true,
	"target":       true,
}

type packageJSON struct {
	Scripts map[string]json.RawMessage `json:"scripts"`
}

type npmKey struct {
	script  string
	command string
	label   string
}

// ScanNPM walks the workspace for package.json files and returns one action
// per script. Scripts in subdirectories carry the relative folder as their
// workspace label and working directory; exact duplicates are collapsed.
func (s *Scanner) ScanNPM(ctx context.Context) []battle.Action {
	var actions []battle.Action
	seen := make(map[npmKey]bool)

	s.walk(ctx, s.root, ".", 0, func(dir, rel string) {
		var pkg packageJSON
		if !s.readJSONC(filepath.Join(dir, "package.json"), &pkg) {
			return
		}

		runner := packageRunner(dir, s.root)

		names := make([]string, 0, len(pkg.Scripts))
		for name := range pkg.Scripts {
			names = append(names, name)
		}
		sort.Strings(names)

		for _, script := range names {
			var body string
			if err := json.Unmarshal(pkg.Scripts[script], &body); err != nil {
				continue
			}

			label := ""
			if rel != "." {
				label = filepath.ToSlash(rel)
			}
			cmd := runner + " " + script

			key := npmKey{script: script, command: cmd, label: label}
			if seen[key] {
				continue
			}
			seen[key] = true

			a := battle.Action{
				Name:    battle.PrefixNPM + script,
				Command: cmd,
				Type:    battle.TypeNPM,
			}
			if label != "" {
				a.Name += " (" + label + ")"
				a.Workspace = label
				a.Cwd = label
			}
			actions = append(actions, a)
		}
	})

	return actions
}

// walk visits dir and its subdirectories up to the depth bound, skipping
// noise directories, ignore globs and symlinks.
func (s *Scanner) walk(ctx context.Context, dir, rel string, depth int, visit func(dir, rel string)) {
	if ctx.Err() != nil {
		return
	}

	visit(dir, rel)

	if depth >= s.maxDepth {
		return
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		s.log.Debug().Err(err).Str("dir", dir).Msg("read dir failed")
		return
	}

	for _, e := range entries {
		if !e.IsDir() || e.Type()&os.ModeSymlink != 0 {
			continue
		}
		if defaultIgnore[e.Name()] {
			continue
		}

		childRel := filepath.Join(rel, e.Name())
		if s.ignored(childRel) {
			continue
		}

		s.walk(ctx, filepath.Join(dir, e.Name()), childRel, depth+1, visit)
	}
}

func (s *Scanner) ignored(rel string) bool {
	rel = filepath.ToSlash(rel)
	for _, pattern := range s.ignore {
		if ok, _ := doublestar.PathMatch(pattern, rel); ok {
			return true
		}
		// "vendor/**" should also skip the vendor directory itself
		if ok, _ := doublestar.PathMatch(pattern, rel+"/"); ok {
			return true
		}
	}
	return false
}

// packageRunner picks the script runner from the lockfile found in dir or,
// failing that, the workspace root.
func packageRunner(dir, root string) string {
	for _, d := range []string{dir, root} {
		switch {
		case exists(filepath.Join(d, "pnpm-lock.yaml")):
			return "pnpm run"
		case exists(filepath.Join(d, "yarn.lock")):
			return "yarn"
		case exists(filepath.Join(d, "package-lock.json")):
			return "npm run"
		}
	}
	return "npm run"
}

func exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

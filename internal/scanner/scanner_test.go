package scanner

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/hay-kot/battle/internal/core/battle"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, root, rel, content string) {
	t.Helper()
	path := filepath.Join(root, rel)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func names(actions []battle.Action) []string {
	out := make([]string, 0, len(actions))
	for _, a := range actions {
		out = append(out, a.Name)
	}
	return out
}

func TestScanNPM(t *testing.T) {
	ctx := context.Background()

	t.Run("root scripts sorted", func(t *testing.T) {
		root := t.TempDir()
		writeFile(t, root, "package.json", `{"scripts": {"test": "jest", "build": "tsc"}}`)

		got := New(root, Options{}).ScanNPM(ctx)
		require.Len(t, got, 2)
		assert.Equal(t, battle.Action{Name: "npm: build", Command: "npm run build", Type: battle.TypeNPM}, got[0])
		assert.Equal(t, "npm: test", got[1].Name)
	})

	t.Run("lockfile selects runner", func(t *testing.T) {
		root := t.TempDir()
		writeFile(t, root, "package.json", `{"scripts": {"dev": "vite"}}`)
		writeFile(t, root, "yarn.lock", "")

		got := New(root, Options{}).ScanNPM(ctx)
		require.Len(t, got, 1)
		assert.Equal(t, "yarn dev", got[0].Command)
	})

	t.Run("subdirectory scripts carry workspace", func(t *testing.T) {
		root := t.TempDir()
		writeFile(t, root, "package.json", `{"scripts": {"build": "tsc"}}`)
		writeFile(t, root, "packages/web/package.json", `{"scripts": {"build": "vite build"}}`)

		got := New(root, Options{}).ScanNPM(ctx)
		require.Len(t, got, 2)
		assert.Equal(t, "npm: build (packages/web)", got[1].Name)
		assert.Equal(t, "packages/web", got[1].Workspace)
		assert.Equal(t, "packages/web", got[1].Cwd)
	})

	t.Run("skips noise and ignored directories", func(t *testing.T) {
		root := t.TempDir()
		writeFile(t, root, "node_modules/left-pad/package.json", `{"scripts": {"build": "x"}}`)
		writeFile(t, root, "vendor/lib/package.json", `{"scripts": {"build": "x"}}`)
		writeFile(t, root, "app/package.json", `{"scripts": {"start": "node ."}}`)

		got := New(root, Options{Ignore: []string{"vendor/**"}}).ScanNPM(ctx)
		assert.Equal(t, []string{"npm: start (app)"}, names(got))
	})

	t.Run("depth bound", func(t *testing.T) {
		root := t.TempDir()
		writeFile(t, root, "a/b/package.json", `{"scripts": {"deep": "x"}}`)

		assert.Empty(t, New(root, Options{MaxDepth: 1}).ScanNPM(ctx))
		assert.Len(t, New(root, Options{MaxDepth: 2}).ScanNPM(ctx), 1)
	})

	t.Run("malformed package is skipped", func(t *testing.T) {
		root := t.TempDir()
		writeFile(t, root, "package.json", `{"scripts": `)
		writeFile(t, root, "ok/package.json", `{
			// comments are fine
			"scripts": {"lint": "eslint .", "bad": 7,},
		}`)

		got := New(root, Options{}).ScanNPM(ctx)
		assert.Equal(t, []string{"npm: lint (ok)"}, names(got))
	})

	t.Run("missing root yields nothing", func(t *testing.T) {
		assert.Empty(t, New(filepath.Join(t.TempDir(), "nope"), Options{}).ScanNPM(ctx))
	})
}

func TestScanTasks(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, ".vscode/tasks.json", `{
		// editor tasks
		"version": "2.0.0",
		"tasks": [
			{"label": "compile", "group": "build"},
			{"label": "unit", "group": {"kind": "test", "isDefault": true}},
			{"label": "secret", "hide": true},
			{"label": "  "},
			"not an object",
			{"label": "plain"},
		]
	}`)

	got := New(root, Options{}).ScanTasks(context.Background())
	require.Len(t, got, 3)
	assert.Equal(t, battle.Action{Name: "Task: compile", Command: "compile", Type: battle.TypeTask, Workspace: "Build"}, got[0])
	assert.Equal(t, "Test", got[1].Workspace)
	assert.Equal(t, "Task: plain", got[2].Name)
	assert.Empty(t, got[2].Workspace)
}

func TestScanLaunch(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, ".vscode/launch.json", `{
		"configurations": [
			{"name": "Debug Server", "type": "go"},
			{"name": "Hidden", "presentation": {"hidden": true}},
			{"type": "node"}
		],
		"compounds": [{"name": "Full Stack", "configurations": ["Debug Server"]}]
	}`)

	got := New(root, Options{}).ScanLaunch(context.Background())
	assert.Equal(t, []string{"Launch: Debug Server", "Launch: Full Stack"}, names(got))
	assert.Equal(t, battle.TypeLaunch, got[0].Type)
	assert.Equal(t, "Debug Server", got[0].Command)
}

func TestScan_Sources(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "package.json", `{"scripts": {"build": "tsc"}}`)
	writeFile(t, root, ".vscode/tasks.json", `{"tasks": [{"label": "t"}]}`)
	writeFile(t, root, ".vscode/launch.json", `{"configurations": [{"name": "l"}]}`)

	s := New(root, Options{})
	assert.Equal(t, []string{"npm: build", "Task: t", "Launch: l"}, names(s.Scan(context.Background(), AllSources)))
	assert.Equal(t, []string{"npm: build"}, names(s.Scan(context.Background(), Sources{NPM: true})))
	assert.Empty(t, s.Scan(context.Background(), Sources{}))
}

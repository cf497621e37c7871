package commands

import (
	"bytes"
	"context"
	"encoding/json"
	"path/filepath"
	"strconv"
	"strings"
	"testing"

	"github.com/hay-kot/battle/internal/core/battle"
	"github.com/hay-kot/battle/internal/core/config"
	"github.com/hay-kot/battle/internal/launchpad"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/urfave/cli/v3"
)

type stubPicker struct {
	value  string
	titles []string
}

func (p *stubPicker) Pick(_ context.Context, title string, options []launchpad.Option) (string, bool, error) {
	p.titles = append(p.titles, title)
	for _, o := range options {
		if o.Value == p.value {
			return o.Value, true, nil
		}
	}
	return "", false, nil
}

func newTestApp(t *testing.T, host launchpad.Host) *launchpad.App {
	t.Helper()
	settings := config.DefaultConfig()
	settings.DataDir = t.TempDir()

	app := launchpad.NewApp(t.TempDir(), &settings, host, zerolog.Nop())
	t.Cleanup(func() { _ = app.Close() })
	return app
}

// runCLI runs args against a root command with every command group
// registered and returns stdout.
func runCLI(t *testing.T, app *launchpad.App, args ...string) (string, error) {
	t.Helper()

	var out, errOut bytes.Buffer
	flags := &Flags{ConfigPath: "/dev/null", Config: app.Settings}
	root := &cli.Command{Name: "battle", Writer: &out, ErrWriter: &errOut}
	root = NewConfigCmd(flags, app).Register(root)
	root = NewHistoryCmd(flags, app).Register(root)
	root = NewGenerateCmd(flags, app).Register(root)
	root = NewActionCmd(flags, app).Register(root)
	root = NewGroupCmd(flags, app).Register(root)
	root = NewTodoCmd(flags, app).Register(root)

	err := root.Run(context.Background(), append([]string{"battle"}, args...))
	return out.String(), err
}

func TestActionCommands(t *testing.T) {
	app := newTestApp(t, launchpad.Host{})
	ctx := context.Background()

	_, err := runCLI(t, app, "group", "add", "--color", "#3b82f6", "Dev")
	require.NoError(t, err)
	_, err = runCLI(t, app, "action", "add", "--group", "Dev", "Build", "make build")
	require.NoError(t, err)
	_, err = runCLI(t, app, "action", "add", "Echo", "echo hello")
	require.NoError(t, err)

	cfg := app.Store.Read(ctx)
	require.Len(t, cfg.Actions, 2)
	assert.Equal(t, "Dev", cfg.Actions[0].Group)
	assert.Equal(t, battle.TypeShell, cfg.Actions[1].Type)

	_, err = runCLI(t, app, "action", "hide", "Build")
	require.NoError(t, err)

	out, err := runCLI(t, app, "action", "list")
	require.NoError(t, err)
	assert.NotContains(t, out, "Build")
	assert.Contains(t, out, "Echo")

	out, err = runCLI(t, app, "action", "list", "--all", "--json")
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 2)
	var row actionRow
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &row))
	assert.Equal(t, 0, row.Index)
	assert.True(t, row.Hidden)

	_, err = runCLI(t, app, "action", "move", "Echo", "0")
	require.NoError(t, err)
	assert.Equal(t, "Echo", app.Store.Read(ctx).Actions[0].Name)

	out, err = runCLI(t, app, "action", "run", "Echo")
	require.NoError(t, err)
	assert.Contains(t, out, "hello")

	_, err = runCLI(t, app, "action", "rm", "1")
	require.NoError(t, err)
	assert.Equal(t, []string{"Echo"}, names(app.Store.Read(ctx).Actions))

	_, err = runCLI(t, app, "action", "rm", "missing")
	require.ErrorIs(t, err, launchpad.ErrActionNotFound)
}

func TestGroupColor_Picker(t *testing.T) {
	picker := &stubPicker{value: launchpad.Palette[2]}
	app := newTestApp(t, launchpad.Host{Picker: picker})
	ctx := context.Background()

	_, err := runCLI(t, app, "group", "add", "Dev")
	require.NoError(t, err)

	_, err = runCLI(t, app, "group", "color", "Dev")
	require.NoError(t, err)
	assert.Equal(t, []string{"Colour for Dev"}, picker.titles)

	cfg := app.Store.Read(ctx)
	assert.Equal(t, launchpad.Palette[2], cfg.Groups[0].Color)
	assert.Empty(t, cfg.CustomColors, "palette colours are not remembered")

	_, err = runCLI(t, app, "group", "color", "Dev", "#123456")
	require.NoError(t, err)
	assert.Equal(t, []string{"#123456"}, app.Store.Read(ctx).CustomColors)
}

func TestConfigCommands(t *testing.T) {
	app := newTestApp(t, launchpad.Host{})

	out, err := runCLI(t, app, "config", "path")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(app.Workspace, ".vscode", "battle.json")+"\n", out)

	_, err = runCLI(t, app, "config", "create", "--example")
	require.NoError(t, err)

	_, err = runCLI(t, app, "config", "create")
	require.ErrorIs(t, err, launchpad.ErrConfigExists)

	out, err = runCLI(t, app, "config", "validate", "--format", "json")
	require.NoError(t, err)
	var report validationReport
	require.NoError(t, json.Unmarshal([]byte(out), &report))
	assert.True(t, report.Document.Exists)
	assert.True(t, report.Document.Valid)

	_, err = runCLI(t, app, "config", "delete")
	require.NoError(t, err)
	assert.False(t, app.Store.Inspect(context.Background()).Exists)
}

func TestHistoryCommands(t *testing.T) {
	app := newTestApp(t, launchpad.Host{})
	ctx := context.Background()

	require.NoError(t, app.Store.Write(ctx, battle.Config{Actions: []battle.Action{
		{Name: "Old", Command: "true", Type: battle.TypeShell},
	}}))
	require.NoError(t, app.Store.Write(ctx, battle.Config{Actions: []battle.Action{
		{Name: "New", Command: "true", Type: battle.TypeShell},
	}}))

	versions, err := app.Store.ListVersions(ctx)
	require.NoError(t, err)
	require.NotEmpty(t, versions)
	ts := versions[0].Timestamp

	out, err := runCLI(t, app, "history", "diff", formatInt(ts))
	require.NoError(t, err)
	assert.Contains(t, out, `-      "name": "Old",`)
	assert.Contains(t, out, `+      "name": "New",`)

	_, err = runCLI(t, app, "history", "restore", formatInt(ts))
	require.NoError(t, err)
	assert.Equal(t, []string{"Old"}, names(app.Store.Read(ctx).Actions))
}

func TestTodoCommands(t *testing.T) {
	app := newTestApp(t, launchpad.Host{})
	ctx := context.Background()

	_, err := runCLI(t, app, "todo", "new-list", "Release")
	require.NoError(t, err)
	_, err = runCLI(t, app, "todo", "new-list", "Announce")
	require.NoError(t, err)

	_, err = runCLI(t, app, "todo", "add", "--then", "goto:announce", "--list", "release", "Tag")
	require.NoError(t, err)
	_, err = runCLI(t, app, "todo", "add", "--list", "release", "Changelog")
	require.NoError(t, err)

	release, err := (&TodoCmd{app: app}).resolveList(ctx, "Release")
	require.NoError(t, err)
	announce, err := (&TodoCmd{app: app}).resolveList(ctx, "Announce")
	require.NoError(t, err)

	items := release.Sorted()
	require.Len(t, items, 2)
	require.NotNil(t, items[0].Then)
	assert.Equal(t, "goto:"+announce.ID, items[0].Then.String())

	_, err = runCLI(t, app, "todo", "reorder", "--list", "release", "2", "1")
	require.NoError(t, err)

	out, err := runCLI(t, app, "todo", "list", "--list", "release", "--json")
	require.NoError(t, err)
	assert.Less(t, strings.Index(out, "Changelog"), strings.Index(out, "Tag"))

	_, err = runCLI(t, app, "todo", "switch", "release")
	require.NoError(t, err)
	_, err = runCLI(t, app, "todo", "done", "2")
	require.NoError(t, err)

	_, active := app.Todos.Lists(ctx)
	assert.Equal(t, announce.ID, active, "completing Tag follows its goto directive")

	_, err = runCLI(t, app, "todo", "add", "--then", "later:maybe", "x")
	require.Error(t, err)
}

func TestResolveAction(t *testing.T) {
	cfg := battle.Config{Actions: []battle.Action{
		{Name: "Build", Command: "make", Type: battle.TypeShell},
		{Name: "Test", Command: "make test", Type: battle.TypeShell},
	}}

	tests := []struct {
		name    string
		arg     string
		want    int
		wantErr bool
	}{
		{name: "by index", arg: "1", want: 1},
		{name: "by name", arg: "Build", want: 0},
		{name: "index out of range", arg: "5", wantErr: true},
		{name: "negative index", arg: "-1", wantErr: true},
		{name: "unknown name", arg: "Deploy", wantErr: true},
		{name: "empty", arg: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ref, err := resolveAction(cfg, tt.arg)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, ref.Index)
			assert.Equal(t, cfg.Actions[tt.want].Key(), ref.Key)
		})
	}
}

func names(actions []battle.Action) []string {
	out := make([]string, 0, len(actions))
	for _, a := range actions {
		out = append(out, a.Name)
	}
	return out
}

func formatInt(n int64) string { return strconv.FormatInt(n, 10) }

package launchpad

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/hay-kot/battle/internal/core/battle"
	"github.com/hay-kot/battle/internal/core/eventbus"
	"github.com/hay-kot/battle/internal/scanner"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newGenerator(f *fixture) *Generator {
	return NewGenerator(f.store, scanner.New(f.ws, scanner.Options{}), f.bus.EventBus, zerolog.Nop())
}

func TestGenerate_NPMOnlyFromScratch(t *testing.T) {
	f := newFixture(t)
	f.writeFile(t, "package.json", `{"scripts": {"build": "tsc", "test": "jest"}}`)

	cfg, err := newGenerator(f).Generate(context.Background(), GenerateOptions{
		Sources:      scanner.Sources{NPM: true},
		GroupByType:  true,
		DefaultIcons: battle.DefaultIcons,
	})
	require.NoError(t, err)

	assert.Equal(t, []string{"npm: build", "npm: test"}, actionNames(cfg.Actions))
	for _, a := range cfg.Actions {
		assert.Equal(t, GroupNPM, a.Group)
	}
	require.Len(t, cfg.Groups, 1)
	assert.Equal(t, GroupNPM, cfg.Groups[0].Name)
	assert.Empty(t, cfg.Groups[0].Color)

	assert.Equal(t, cfg, f.store.Read(context.Background()))
	f.bus.AssertPublished(t, eventbus.EventConfigGenerated)
}

func TestGenerate_PreservesHandWrittenActions(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.writeFile(t, "package.json", `{"scripts": {"build": "tsc"}}`)

	custom := battle.Action{Name: "My Custom Task", Command: "./run.sh", Type: battle.TypeShell, Group: "Mine", BackgroundColor: "#111"}
	require.NoError(t, f.store.Write(ctx, battle.Config{
		Actions: []battle.Action{
			{Name: "npm: build", Command: "npm run build", Type: battle.TypeNPM, Group: GroupNPM},
			custom,
		},
		Groups:       []battle.Group{{Name: "Mine", Color: "#e5c07b"}, {Name: GroupNPM, Icon: "my-icon"}},
		Icons:        []battle.IconMapping{{Type: battle.TypeNPM, Icon: "custom-npm"}},
		CustomColors: []string{"#000"},
	}))

	cfg, err := newGenerator(f).Generate(ctx, GenerateOptions{
		Sources:      scanner.Sources{NPM: true},
		GroupByType:  true,
		DefaultIcons: battle.DefaultIcons,
	})
	require.NoError(t, err)

	assert.Equal(t, []string{"npm: build", "My Custom Task"}, actionNames(cfg.Actions))
	assert.Equal(t, custom, cfg.Actions[1])

	require.Len(t, cfg.Groups, 2)
	assert.Equal(t, "my-icon", cfg.Groups[1].Icon, "existing group styling kept")
	assert.Equal(t, "custom-npm", battle.IconFor(cfg.Icons, battle.TypeNPM))
	assert.Equal(t, "terminal", battle.IconFor(cfg.Icons, battle.TypeShell))
	assert.Equal(t, []string{"#000"}, cfg.CustomColors)
}

func TestGenerate_Placeholders(t *testing.T) {
	f := newFixture(t)

	cfg, err := newGenerator(f).Generate(context.Background(), GenerateOptions{Sources: scanner.AllSources, GroupByType: true})
	require.NoError(t, err)
	assert.Equal(t, Placeholders(), cfg.Actions)
}

func TestGenerate_RefusesInvalidDocument(t *testing.T) {
	f := newFixture(t)
	f.writeFile(t, "package.json", `{"scripts": {"build": "tsc"}}`)
	const broken = `{"actions": [{"name": "Deploy prod", "command": "./deploy.sh"}`
	f.writeFile(t, ".vscode/battle.json", broken)

	_, err := newGenerator(f).Generate(context.Background(), GenerateOptions{Sources: scanner.AllSources, GroupByType: true})
	require.ErrorIs(t, err, ErrInvalidDocument)

	data, err := os.ReadFile(f.docPath())
	require.NoError(t, err)
	assert.Equal(t, broken, string(data))
	f.bus.AssertNotPublished(t, eventbus.EventConfigGenerated, 50*time.Millisecond)
}

func TestGenerate_NoWorkspace(t *testing.T) {
	r := NewResolver("", &memState{}, openHistory, zerolog.Nop())
	store := NewConfigStore(r, openHistory, eventbus.New(0), 0, zerolog.Nop())
	g := NewGenerator(store, scanner.New("", scanner.Options{}), eventbus.New(0), zerolog.Nop())

	_, err := g.Generate(context.Background(), GenerateOptions{Sources: scanner.AllSources})
	require.ErrorIs(t, err, ErrNoWorkspace)
}

func TestBuild_GroupsAndOrder(t *testing.T) {
	scanned := []battle.Action{
		{Name: "Launch: Server", Command: "Server", Type: battle.TypeLaunch},
		{Name: "npm: lint", Command: "npm run lint", Type: battle.TypeNPM},
		{Name: "Task: compile", Command: "compile", Type: battle.TypeTask},
		// prefix wins over a disagreeing type
		{Name: "npm: build", Command: "npm run build", Type: "other"},
	}
	enhanced := []battle.Action{
		{Name: "Make: test", Command: "make test", Type: "make"},
		{Name: "Go: Build", Command: "go build ./...", Type: "go"},
		{Name: "Make: all", Command: "make all", Type: "make"},
	}

	cfg := Build(scanned, nil, GenerateOptions{GroupByType: true, Enhanced: enhanced})

	groupNames := make([]string, 0, len(cfg.Groups))
	for _, g := range cfg.Groups {
		groupNames = append(groupNames, g.Name)
	}
	assert.Equal(t, []string{GroupLaunch, GroupNPM, GroupTasks, "Make", "Go"}, groupNames)
	assert.Equal(t, []string{
		"Launch: Server",
		"npm: build", "npm: lint",
		"Task: compile",
		"Make: all", "Make: test",
		"Go: Build",
	}, actionNames(cfg.Actions))
	assert.Equal(t, "tools", cfg.Groups[3].Icon)
}

func TestBuild_Deterministic(t *testing.T) {
	scanned := []battle.Action{
		{Name: "npm: b", Command: "b", Type: battle.TypeNPM},
		{Name: "npm: a", Command: "a", Type: battle.TypeNPM},
	}
	opts := GenerateOptions{GroupByType: true, EnableColoring: true}

	assert.Equal(t, Build(scanned, nil, opts), Build(scanned, nil, opts))
}

func TestBuild_DistinctColors(t *testing.T) {
	scanned := []battle.Action{
		{Name: "npm: a", Command: "a", Type: battle.TypeNPM},
		{Name: "Task: b", Command: "b", Type: battle.TypeTask},
		{Name: "Launch: c", Command: "c", Type: battle.TypeLaunch},
	}
	enhanced := []battle.Action{
		{Name: "x", Command: "x", Type: "test-runner"},
		{Name: "y", Command: "y", Type: "tester"},
	}

	cfg := Build(scanned, nil, GenerateOptions{GroupByType: true, EnableColoring: true, Enhanced: enhanced})
	require.Len(t, cfg.Groups, 5)

	seen := map[string]string{}
	for _, g := range cfg.Groups {
		require.NotEmpty(t, g.Color)
		prev, dup := seen[g.Color]
		assert.False(t, dup, "%s and %s share %s", prev, g.Name, g.Color)
		seen[g.Color] = g.Name
	}
	assert.Equal(t, Palette[2], cfg.Groups[3].Color, "semantic color for test")
}

func TestColorGroups_SeedAndExhaustion(t *testing.T) {
	seed := []battle.Group{{Name: "Existing", Color: Palette[3]}}
	groups := []battle.Group{{Name: "NPM Scripts"}}

	colorGroups(groups, seed)
	assert.NotEqual(t, Palette[3], groups[0].Color, "semantic npm color already used")

	many := make([]battle.Group, len(Palette)+2)
	for i := range many {
		many[i].Name = string(rune('a' + i))
	}
	colorGroups(many, nil)

	distinct := map[string]bool{}
	for _, g := range many[:len(Palette)] {
		distinct[g.Color] = true
	}
	assert.Len(t, distinct, len(Palette))
	assert.Contains(t, Palette, many[len(Palette)].Color)
}

func TestCreateMinimalAndExample(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	g := newGenerator(f)

	cfg, err := g.CreateMinimal(ctx)
	require.NoError(t, err)
	assert.Len(t, cfg.Actions, 1)

	_, err = g.CreateExample(ctx)
	require.ErrorIs(t, err, ErrConfigExists)

	_, err = f.store.Delete(ctx)
	require.NoError(t, err)

	cfg, err = g.CreateExample(ctx)
	require.NoError(t, err)
	require.NoError(t, cfg.Validate())
	assert.Equal(t, cfg, f.store.Read(ctx))
}

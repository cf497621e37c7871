package launchpad

import (
	"context"
	"fmt"
	"hash/fnv"
	"sort"
	"strings"

	"github.com/hay-kot/battle/internal/core/battle"
	"github.com/hay-kot/battle/internal/core/eventbus"
	"github.com/hay-kot/battle/internal/core/logging"
	"github.com/hay-kot/battle/internal/scanner"
	"github.com/rs/zerolog"
)

// Group names used for scanned actions.
const (
	GroupNPM    = "NPM Scripts"
	GroupTasks  = "VS Code Tasks"
	GroupLaunch = "Launch Configurations"
)

var typeGroups = map[string]battle.Group{
	battle.TypeNPM:    {Name: GroupNPM, Icon: "package"},
	battle.TypeTask:   {Name: GroupTasks, Icon: "checklist"},
	battle.TypeLaunch: {Name: GroupLaunch, Icon: "debug-alt"},
}

// Palette holds the colors handed to generated groups.
var Palette = []string{
	"#e06c75", // red
	"#d19a66", // orange
	"#e5c07b", // yellow
	"#98c379", // green
	"#56b6c2", // cyan
	"#61afef", // blue
	"#c678dd", // purple
	"#abb2bf", // gray
}

// semanticColors is checked in order; the first keyword contained in the
// lower-cased group name picks the preferred color.
var semanticColors = []struct {
	keyword string
	color   string
}{
	{"test", Palette[2]},
	{"debug", Palette[0]},
	{"launch", Palette[0]},
	{"build", Palette[1]},
	{"deploy", Palette[6]},
	{"release", Palette[6]},
	{"lint", Palette[4]},
	{"docker", Palette[5]},
	{"compose", Palette[5]},
	{"npm", Palette[3]},
	{"script", Palette[3]},
	{"task", Palette[5]},
	{"git", Palette[1]},
}

// GenerateOptions selects what the generator scans and how it groups.
type GenerateOptions struct {
	Sources     scanner.Sources
	GroupByType bool
	// DefaultIcons fill gaps in the document's icon table.
	DefaultIcons []battle.IconMapping
	// Enhanced are detector results appended after scanned actions.
	Enhanced       []battle.Action
	EnableColoring bool
}

// Generator builds a document from the workspace and merges it into the
// existing one without losing hand-written entries.
type Generator struct {
	store   *ConfigStore
	scanner *scanner.Scanner
	bus     *eventbus.EventBus
	log     zerolog.Logger
}

// NewGenerator creates a generator writing through store.
func NewGenerator(store *ConfigStore, scan *scanner.Scanner, bus *eventbus.EventBus, log zerolog.Logger) *Generator {
	return &Generator{
		store:   store,
		scanner: scan,
		bus:     bus,
		log:     logging.For(log, "generator"),
	}
}

// Generate scans the workspace, merges the result into the current document
// and writes it.
func (g *Generator) Generate(ctx context.Context, opts GenerateOptions) (battle.Config, error) {
	scanned := g.scanner.Scan(ctx, opts.Sources)

	var existing *battle.Config
	switch st := g.store.Inspect(ctx); {
	case st.Valid:
		cfg := g.store.Read(ctx)
		existing = &cfg
	case st.Exists:
		return battle.Config{}, fmt.Errorf("%w: %w", ErrInvalidDocument, st.Err)
	case st.Err != nil:
		return battle.Config{}, st.Err
	}

	cfg := Build(scanned, existing, opts).Compact()
	if err := g.store.Write(ctx, cfg); err != nil {
		return battle.Config{}, err
	}

	path, _ := g.store.Path(ctx)
	g.log.Info().
		Int("scanned", len(scanned)).
		Int("enhanced", len(opts.Enhanced)).
		Int("actions", len(cfg.Actions)).
		Msg("config generated")
	g.bus.PublishConfigGenerated(eventbus.ConfigGeneratedPayload{
		Path:    path,
		Actions: len(cfg.Actions),
		Groups:  len(cfg.Groups),
	})

	return cfg, nil
}

// Build groups, colors and sorts scanned and enhanced actions, then merges
// them into existing when it is non-nil.
func Build(scanned []battle.Action, existing *battle.Config, opts GenerateOptions) battle.Config {
	var (
		groups  []battle.Group
		actions = make([]battle.Action, 0, len(scanned)+len(opts.Enhanced))
	)

	ensure := func(def battle.Group) string {
		for _, g := range groups {
			if g.Name == def.Name {
				return g.Name
			}
		}
		groups = append(groups, def)
		return def.Name
	}

	for _, a := range scanned {
		if opts.GroupByType {
			a.Group = ensure(groupForType(primaryType(a), opts.DefaultIcons))
		}
		actions = append(actions, a)
	}

	for _, a := range opts.Enhanced {
		if opts.GroupByType && a.Type != "" {
			a.Group = ensure(groupForType(a.Type, opts.DefaultIcons))
		}
		actions = append(actions, a)
	}

	if opts.EnableColoring {
		var seed []battle.Group
		if existing != nil {
			seed = existing.Groups
		}
		colorGroups(groups, seed)
	}

	order := make(map[string]int, len(groups))
	for i, g := range groups {
		order[g.Name] = i
	}
	rank := func(a battle.Action) int {
		if i, ok := order[a.Group]; ok {
			return i
		}
		return len(groups)
	}
	sort.SliceStable(actions, func(i, j int) bool {
		ri, rj := rank(actions[i]), rank(actions[j])
		if ri != rj {
			return ri < rj
		}
		return actions[i].Name < actions[j].Name
	})

	var out battle.Config
	if existing == nil {
		out = battle.Config{
			Actions: actions,
			Groups:  groups,
			Icons:   battle.MergeIcons(opts.DefaultIcons),
		}
	} else {
		out = merge(*existing, actions, groups, opts.DefaultIcons)
	}

	if len(out.Actions) == 0 {
		out.Actions = Placeholders()
	}
	return out
}

// merge keeps everything the user wrote: non-generated actions follow the
// fresh ones, existing groups keep their styling, existing icons win.
func merge(existing battle.Config, actions []battle.Action, groups []battle.Group, icons []battle.IconMapping) battle.Config {
	out := existing.Clone()

	fresh := make(map[battle.ActionKey]bool, len(actions))
	for _, a := range actions {
		fresh[a.Key()] = true
	}

	merged := actions
	for _, a := range existing.Actions {
		if a.IsGenerated() || fresh[a.Key()] {
			continue
		}
		merged = append(merged, a)
	}
	out.Actions = merged

	for _, g := range groups {
		if out.FindGroup(g.Name) < 0 {
			out.Groups = append(out.Groups, g)
		}
	}

	out.Icons = battle.MergeIcons(existing.Icons, icons)
	return out
}

// primaryType derives the bucket for a scanned action, trusting the name
// prefix over the type field.
func primaryType(a battle.Action) string {
	switch {
	case strings.HasPrefix(a.Name, battle.PrefixNPM):
		return battle.TypeNPM
	case strings.HasPrefix(a.Name, battle.PrefixTask):
		return battle.TypeTask
	case strings.HasPrefix(a.Name, battle.PrefixLaunch):
		return battle.TypeLaunch
	default:
		return a.Type
	}
}

func groupForType(typ string, icons []battle.IconMapping) battle.Group {
	if g, ok := typeGroups[typ]; ok {
		return g
	}
	table := battle.MergeIcons(icons, battle.DefaultIcons)
	return battle.Group{Name: battle.Capitalize(typ), Icon: battle.IconFor(table, typ)}
}

// colorGroups gives every uncolored group a palette color: its semantic
// color if free, else the next free entry, else a hash-picked entry.
func colorGroups(groups []battle.Group, seed []battle.Group) {
	used := make(map[string]bool, len(Palette))
	for _, g := range seed {
		if g.Color != "" {
			used[g.Color] = true
		}
	}

	for i := range groups {
		if groups[i].Color != "" {
			used[groups[i].Color] = true
			continue
		}

		color := ""
		if c := semanticColor(groups[i].Name); c != "" && !used[c] {
			color = c
		}
		if color == "" {
			for _, c := range Palette {
				if !used[c] {
					color = c
					break
				}
			}
		}
		if color == "" {
			h := fnv.New32a()
			_, _ = h.Write([]byte(groups[i].Name))
			color = Palette[h.Sum32()%uint32(len(Palette))]
		}

		used[color] = true
		groups[i].Color = color
	}
}

func semanticColor(name string) string {
	lower := strings.ToLower(name)
	for _, s := range semanticColors {
		if strings.Contains(lower, s.keyword) {
			return s.color
		}
	}
	return ""
}

// Placeholders keep a freshly generated document from being empty.
func Placeholders() []battle.Action {
	return []battle.Action{
		{Name: "Example: Hello", Command: `echo "Hello from battle"`, Type: battle.TypeShell},
		{Name: "Open Settings", Command: "workbench.action.openSettings", Type: battle.TypeVSCode},
	}
}

// CreateMinimal writes a document holding a single example action.
func (g *Generator) CreateMinimal(ctx context.Context) (battle.Config, error) {
	cfg := battle.Config{Actions: Placeholders()[:1]}
	return cfg, g.create(ctx, cfg)
}

// CreateExample writes a document showing groups, colors and hidden actions.
func (g *Generator) CreateExample(ctx context.Context) (battle.Config, error) {
	cfg := battle.Config{
		Actions: []battle.Action{
			{Name: "Build", Command: "make build", Type: battle.TypeShell, Group: "Build"},
			{Name: "Test", Command: "make test", Type: battle.TypeShell, Group: "Build"},
			{Name: "Git Status", Command: "git status", Type: battle.TypeShell, Group: "Tools"},
			{Name: "Open Settings", Command: "workbench.action.openSettings", Type: battle.TypeVSCode, Group: "Tools"},
			{Name: "Clean", Command: "make clean", Type: battle.TypeShell, Group: "Build", Hidden: true},
		},
		Groups: []battle.Group{
			{Name: "Build", Icon: "tools"},
			{Name: "Tools", Icon: "gear"},
		},
		Icons: battle.MergeIcons(battle.DefaultIcons),
	}
	colorGroups(cfg.Groups, nil)
	return cfg, g.create(ctx, cfg)
}

func (g *Generator) create(ctx context.Context, cfg battle.Config) error {
	st := g.store.Inspect(ctx)
	if st.Err != nil && !st.Exists {
		return st.Err
	}
	if st.Exists {
		return ErrConfigExists
	}
	return g.store.Write(ctx, cfg)
}

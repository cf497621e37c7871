package launchpad

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/hay-kot/battle/internal/core/battle"
	"github.com/hay-kot/battle/internal/core/config"
	"github.com/hay-kot/battle/internal/core/doctor"
	"github.com/hay-kot/battle/internal/core/eventbus"
	"github.com/hay-kot/battle/internal/core/history"
	"github.com/hay-kot/battle/internal/core/notify"
	"github.com/hay-kot/battle/internal/scanner"
	"github.com/hay-kot/battle/internal/scanner/detect"
	"github.com/hay-kot/battle/internal/store/jsonfile"
	"github.com/hay-kot/battle/pkg/executil"
	"github.com/rs/zerolog"
)

// notificationBacklog bounds the in-memory notification history.
const notificationBacklog = 50

// Host bundles the collaborators supplied by the embedding program. Any of
// them may be nil.
type Host struct {
	Picker   Picker
	Notifier Notifier
	Invoker  CommandInvoker
	Signaler ActionSignaler
}

// App is the central entry point for launchpad operations in one workspace.
// Commands and the watch view consume App instead of raw dependencies.
type App struct {
	Workspace string
	Settings  *config.Config
	Host      Host

	Bus           *eventbus.EventBus
	Store         *ConfigStore
	Scanner       *scanner.Scanner
	Generator     *Generator
	Actions       *ActionService
	Todos         *TodoService
	Notifications *notify.Buffer

	log zerolog.Logger
}

// NewApp wires the services for workspace. State and history are kept in
// JSON files as described by settings.
func NewApp(workspace string, settings *config.Config, host Host, log zerolog.Logger) *App {
	bus := eventbus.New(0)
	state := jsonfile.NewStateStore(settings.WorkspacesFile())
	openHistory := func(path string) history.Log { return jsonfile.NewHistoryLog(path) }

	resolver := NewResolver(workspace, state, openHistory, log)
	store := NewConfigStore(resolver, openHistory, bus, settings.Refresh.Debounce, log)
	scan := scanner.New(workspace, scanner.Options{Ignore: settings.Scan.Ignore})
	exec := executil.NewRealExecutor(settings.Commands.Timeout, settings.Commands.MaxOutput)

	app := &App{
		Workspace:     workspace,
		Settings:      settings,
		Host:          host,
		Bus:           bus,
		Store:         store,
		Scanner:       scan,
		Generator:     NewGenerator(store, scan, bus, log),
		Actions:       NewActionService(store, exec, host.Signaler, bus, log),
		Todos:         NewTodoService(store, exec, host.Invoker, host.Signaler, host.Notifier, bus, log),
		Notifications: notify.NewBuffer(notificationBacklog),
		log:           log,
	}

	bus.Observe(eventbus.LogObserver{Logger: log})
	eventbus.NewNotificationRouter(bus).Register()
	bus.SubscribeNotificationPublished(func(p eventbus.NotificationPublishedPayload) {
		app.Notifications.Push(p.Level, p.Message)
		if host.Notifier != nil {
			host.Notifier.Notify(p.Level, p.Message)
		}
	})

	return app
}

// Start runs the event bus until ctx is done. It blocks.
func (a *App) Start(ctx context.Context) {
	a.Bus.Start(ctx)
}

// GenerateOptions builds generation options from the settings, running the
// enhanced detectors when enabled.
func (a *App) GenerateOptions(ctx context.Context) GenerateOptions {
	g := a.Settings.Generate
	opts := GenerateOptions{
		Sources: scanner.Sources{
			NPM:    g.Sources.NPM,
			Tasks:  g.Sources.Tasks,
			Launch: g.Sources.Launch,
		},
		GroupByType:    g.GroupByType,
		DefaultIcons:   a.Icons(),
		EnableColoring: g.EnableColoring,
	}
	if g.Enhanced {
		opts.Enhanced = detect.Detect(ctx, a.Workspace, detect.ParseStrategy(g.Detection))
	}
	return opts
}

// Icons is the settings icon table layered over the built-in defaults.
func (a *App) Icons() []battle.IconMapping {
	return battle.MergeIcons(a.Settings.Icons, battle.DefaultIcons)
}

// NewBridge creates a view bridge fed by this app's store and bus.
func (a *App) NewBridge(sink func(Update)) *Bridge {
	return NewBridge(a.Store, a.Bus, BridgeOptions{
		Delay: a.Settings.Refresh.Debounce,
		Icons: a.Settings.Icons,
		Display: Display{
			ShowHidden: a.Settings.Display.ShowHidden,
			Layout:     a.Settings.Display.Layout,
		},
	}, sink)
}

// Doctor runs every health check for this workspace. configPath is the
// settings file that was loaded.
func (a *App) Doctor(ctx context.Context, configPath string) []doctor.Result {
	var warnings []string
	for _, w := range a.Settings.Warnings() {
		warnings = append(warnings, w.Category+": "+w.Message)
	}

	var toolchains []doctor.ToolchainInfo
	if a.Workspace != "" {
		for _, tc := range detect.Default().Present(a.Workspace) {
			toolchains = append(toolchains, doctor.ToolchainInfo{
				Name:      tc.Name,
				Binaries:  tc.Binaries,
				Available: tc.Available,
			})
		}
	}

	return doctor.RunAll(ctx, []doctor.Check{
		doctor.NewToolsCheck(doctor.DefaultTools()),
		doctor.NewToolchainCheck(toolchains),
		doctor.NewSettingsCheck(doctor.SettingsInfo{
			ConfigPath:  configPath,
			OverlayPath: config.WorkspaceOverlay(a.Workspace),
			DataDir:     a.Settings.DataDir,
			Warnings:    warnings,
		}),
		doctor.NewLaunchpadCheck(a.launchpadInfo(ctx)),
	})
}

func (a *App) launchpadInfo(ctx context.Context) doctor.LaunchpadInfo {
	info := doctor.LaunchpadInfo{Workspace: a.Workspace}
	if a.Workspace == "" {
		return info
	}

	st := a.Store.Inspect(ctx)
	info.Path = st.Location.Path
	info.Custom = st.Location.Custom
	info.Exists = st.Exists
	info.Valid = st.Valid
	info.Err = st.Err

	if st.Exists {
		info.Legacy, _ = a.Store.Resolver().Leftovers(ctx)
	}
	if versions, err := a.Store.ListVersions(ctx); err == nil {
		info.History = len(versions)
	}
	return info
}

// RemoveLeftovers deletes legacy document files still present next to a
// current document and returns the removed paths.
func (a *App) RemoveLeftovers(ctx context.Context) ([]string, error) {
	if st := a.Store.Inspect(ctx); !st.Exists {
		return nil, nil
	}

	leftovers, err := a.Store.Resolver().Leftovers(ctx)
	if err != nil {
		return nil, err
	}

	var (
		removed []string
		errs    []error
	)
	for _, path := range leftovers {
		if err := os.Remove(path); err != nil {
			errs = append(errs, fmt.Errorf("remove %s: %w", path, err))
			continue
		}
		a.log.Info().Str("path", path).Msg("removed legacy config")
		removed = append(removed, path)
	}
	return removed, errors.Join(errs...)
}

// Close releases the file watcher.
func (a *App) Close() error {
	st := a.Bus.Stats()
	a.log.Debug().
		Uint64("published", st.Published).
		Uint64("dropped", st.Dropped).
		Uint64("panics", st.Panics).
		Msg("event bus closed")
	return a.Store.Close()
}

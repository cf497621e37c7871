package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"runtime/debug"

	"github.com/rs/zerolog/log"
	"github.com/urfave/cli/v3"
	"golang.org/x/term"

	"github.com/hay-kot/battle/internal/commands"
	"github.com/hay-kot/battle/internal/core/config"
	"github.com/hay-kot/battle/internal/core/styles"
	"github.com/hay-kot/battle/internal/launchpad"
	"github.com/hay-kot/battle/pkg/logutils"
)

var (
	// Build information. Populated at build-time via -ldflags flag.
	// When installed via `go install module@version`, init() populates
	// these from runtime/debug.BuildInfo instead.
	version = "dev"
	commit  = "HEAD"
	date    = "now"
)

func build() string {
	v, c, d := version, commit, date

	// When installed via `go install module@version`, ldflags aren't set
	// so version remains "dev". Fall back to runtime/debug.BuildInfo which
	// Go populates automatically with the module version and VCS metadata.
	if v == "dev" {
		if info, ok := debug.ReadBuildInfo(); ok {
			if mv := info.Main.Version; mv != "" && mv != "(devel)" {
				v = mv
			}
			for _, s := range info.Settings {
				switch s.Key {
				case "vcs.revision":
					c = s.Value
				case "vcs.time":
					d = s.Value
				}
			}
		}
	}

	short := c
	if len(c) > 7 {
		short = c[:7]
	}

	return fmt.Sprintf("%s (%s) %s", v, short, d)
}

func main() {
	ctx := context.Background()

	var (
		logCloser func()
		battleApp = &launchpad.App{}
		busCancel context.CancelFunc
		busDone   chan struct{}
	)

	flags := &commands.Flags{}

	app := &cli.Command{
		Name:      "battle",
		Usage:     "A launchpad for the commands you run in a workspace",
		UsageText: "battle [global options] command [command options]",
		Description: `Battle keeps a workspace's runnable commands in .vscode/battle.json: npm scripts,
VS Code tasks and launch configurations, toolchain commands and your own shell
snippets, organised into coloured groups next to a set of todo lists.

Run 'battle generate' to build battle.json from the workspace.
Run 'battle' with no arguments to open the launchpad.`,
		Version: build(),
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "log-level",
				Usage:       "log level (debug, info, warn, error, fatal, panic)",
				Sources:     cli.EnvVars("BATTLE_LOG_LEVEL"),
				Value:       "info",
				Destination: &flags.LogLevel,
			},
			&cli.StringFlag{
				Name:        "log-file",
				Usage:       "path to log file (defaults to <data-dir>/battle.log)",
				Sources:     cli.EnvVars("BATTLE_LOG_FILE"),
				Destination: &flags.LogFile,
			},
			&cli.StringFlag{
				Name:        "config",
				Aliases:     []string{"c"},
				Usage:       "path to settings file",
				Sources:     cli.EnvVars("BATTLE_CONFIG"),
				Value:       commands.DefaultConfigPath(),
				Destination: &flags.ConfigPath,
			},
			&cli.StringFlag{
				Name:        "data-dir",
				Usage:       "path to data directory",
				Sources:     cli.EnvVars("BATTLE_DATA_DIR"),
				Value:       commands.DefaultDataDir(),
				Destination: &flags.DataDir,
			},
			&cli.StringFlag{
				Name:        "workspace",
				Aliases:     []string{"w"},
				Usage:       "workspace folder (defaults to the current directory)",
				Sources:     cli.EnvVars("BATTLE_WORKSPACE"),
				Value:       commands.DefaultWorkspace(),
				Destination: &flags.Workspace,
			},
		},
		Before: func(ctx context.Context, c *cli.Command) (context.Context, error) {
			// Always log to a file; use explicit path or default to <datadir>/battle.log
			logFile := flags.LogFile
			if logFile == "" {
				logFile = filepath.Join(flags.DataDir, "battle.log")
			}

			logger, closer, err := logutils.New(flags.LogLevel, logFile)
			if err != nil {
				return ctx, fmt.Errorf("setup logger: %w", err)
			}
			log.Logger = logger
			logCloser = closer

			workspace := flags.Workspace
			if workspace != "" {
				if workspace, err = filepath.Abs(workspace); err != nil {
					return ctx, fmt.Errorf("resolve workspace: %w", err)
				}
			}

			cfg, err := config.Load(flags.ConfigPath, flags.DataDir, config.WorkspaceOverlay(workspace))
			if err != nil {
				return ctx, fmt.Errorf("load config: %w", err)
			}
			flags.Config = cfg

			// Apply configured theme (validation ensures name is valid)
			palette, _ := styles.GetPalette(cfg.Display.Theme)
			styles.SetTheme(palette)

			// Populate the pre-allocated App struct (commands already hold a pointer to it)
			*battleApp = *launchpad.NewApp(workspace, cfg, commands.NewHost(os.Stderr, log.Logger), log.Logger)

			busCtx, cancel := context.WithCancel(context.Background())
			busCancel = cancel
			busDone = make(chan struct{})
			go func() {
				defer close(busDone)
				battleApp.Start(busCtx)
			}()

			log.Debug().Str("workspace", workspace).Str("version", version).Msg("battle started")
			return ctx, nil
		},
		After: func(ctx context.Context, c *cli.Command) error {
			// Stop the event bus; queued events are delivered before it returns
			if busCancel != nil {
				busCancel()
				<-busDone
			}

			if battleApp.Store != nil {
				if err := battleApp.Close(); err != nil {
					log.Error().Err(err).Msg("failed to close config watcher")
				}
			}

			// Close log file
			if logCloser != nil {
				logCloser()
			}
			return nil
		},
	}

	watchCmd := commands.NewWatchCmd(flags, battleApp)

	app = commands.NewConfigCmd(flags, battleApp).Register(app)
	app = commands.NewHistoryCmd(flags, battleApp).Register(app)
	app = commands.NewGenerateCmd(flags, battleApp).Register(app)
	app = commands.NewActionCmd(flags, battleApp).Register(app)
	app = commands.NewGroupCmd(flags, battleApp).Register(app)
	app = commands.NewTodoCmd(flags, battleApp).Register(app)
	app = watchCmd.Register(app)
	app = commands.NewDoctorCmd(flags, battleApp).Register(app)

	// Open the launchpad when no subcommand is provided
	app.Action = func(ctx context.Context, c *cli.Command) error {
		if c.Args().Len() > 0 {
			return fmt.Errorf("unknown command %q. Run 'battle --help' for usage", c.Args().First())
		}
		if !term.IsTerminal(int(os.Stdout.Fd())) {
			return fmt.Errorf("no command given. Run 'battle --help' for usage")
		}
		return watchCmd.Run(ctx, c)
	}

	exitCode := 0
	runErr := app.Run(ctx, os.Args)
	if runErr != nil {
		fmt.Println()
		fmt.Println(runErr.Error())
		exitCode = 1
	}

	os.Exit(exitCode)
}

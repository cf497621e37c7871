package commands

import (
	"context"
	"fmt"
	"os"

	"github.com/hay-kot/battle/internal/core/battle"
	"github.com/hay-kot/battle/internal/core/config"
	"github.com/hay-kot/battle/internal/core/validate"
	"github.com/hay-kot/battle/internal/launchpad"
	"github.com/hay-kot/battle/internal/scanner/detect"
	"github.com/hay-kot/battle/pkg/iojson"
	"github.com/urfave/cli/v3"
)

// GenerateCmd implements battle generate and battle scan.
type GenerateCmd struct {
	flags *Flags
	app   *launchpad.App

	jsonOutput bool
	dryRun     bool
}

// NewGenerateCmd creates a new generate command.
func NewGenerateCmd(flags *Flags, app *launchpad.App) *GenerateCmd {
	return &GenerateCmd{flags: flags, app: app}
}

// Register adds the generate and scan commands to the application.
func (cmd *GenerateCmd) Register(app *cli.Command) *cli.Command {
	app.Commands = append(app.Commands,
		&cli.Command{
			Name:  "generate",
			Usage: "Generate battle.json from the workspace",
			Description: `Scans package.json scripts, tasks.json and launch.json (plus toolchain
detectors when enhanced detection is on) and merges the result into battle.json.
Hand-written actions and groups are kept; generated "npm: ", "Task: " and
"Launch: " actions are replaced.

Flags override the generate settings for this run only.`,
			Flags: append(generateFlags(),
				&cli.BoolFlag{
					Name:        "dry-run",
					Usage:       "print the merged document instead of writing it",
					Destination: &cmd.dryRun,
				},
			),
			Action: cmd.runGenerate,
		},
		&cli.Command{
			Name:  "scan",
			Usage: "Print the actions found in the workspace without writing anything",
			Flags: append(generateFlags(),
				&cli.BoolFlag{
					Name:        "json",
					Usage:       "output as JSON lines",
					Destination: &cmd.jsonOutput,
				},
			),
			Action: cmd.runScan,
		},
	)

	return app
}

func generateFlags() []cli.Flag {
	return []cli.Flag{
		&cli.BoolFlag{Name: "npm", Usage: "scan package.json scripts"},
		&cli.BoolFlag{Name: "tasks", Usage: "scan .vscode/tasks.json"},
		&cli.BoolFlag{Name: "launch", Usage: "scan .vscode/launch.json"},
		&cli.BoolFlag{Name: "enhanced", Usage: "run toolchain detectors (docker, go, make, ...)"},
		&cli.StringFlag{Name: "detection", Usage: "detector strategy: file, command or hybrid"},
		&cli.BoolFlag{Name: "group-by-type", Usage: "create one group per action type"},
		&cli.BoolFlag{Name: "color", Usage: "colour generated groups"},
	}
}

// options layers explicitly set flags over the generate settings.
func (cmd *GenerateCmd) options(ctx context.Context, c *cli.Command) (launchpad.GenerateOptions, error) {
	g := cmd.app.Settings.Generate
	if c.IsSet("npm") {
		g.Sources.NPM = c.Bool("npm")
	}
	if c.IsSet("tasks") {
		g.Sources.Tasks = c.Bool("tasks")
	}
	if c.IsSet("launch") {
		g.Sources.Launch = c.Bool("launch")
	}
	if c.IsSet("enhanced") {
		g.Enhanced = c.Bool("enhanced")
	}
	if c.IsSet("detection") {
		g.Detection = c.String("detection")
		if err := validate.OneOf(config.DetectFile, config.DetectCommand, config.DetectHybrid)(g.Detection); err != nil {
			return launchpad.GenerateOptions{}, fmt.Errorf("--detection: %w", err)
		}
		g.Enhanced = true
	}
	if c.IsSet("group-by-type") {
		g.GroupByType = c.Bool("group-by-type")
	}
	if c.IsSet("color") {
		g.EnableColoring = c.Bool("color")
	}

	opts := cmd.app.GenerateOptions(ctx)
	opts.Sources.NPM = g.Sources.NPM
	opts.Sources.Tasks = g.Sources.Tasks
	opts.Sources.Launch = g.Sources.Launch
	opts.GroupByType = g.GroupByType
	opts.EnableColoring = g.EnableColoring
	opts.Enhanced = nil
	if g.Enhanced {
		opts.Enhanced = detect.Detect(ctx, cmd.app.Workspace, detect.ParseStrategy(g.Detection))
	}
	return opts, nil
}

func (cmd *GenerateCmd) runGenerate(ctx context.Context, c *cli.Command) error {
	if cmd.app.Workspace == "" {
		return launchpad.ErrNoWorkspace
	}

	opts, err := cmd.options(ctx, c)
	if err != nil {
		return err
	}

	if cmd.dryRun {
		scanned := cmd.app.Scanner.Scan(ctx, opts.Sources)
		var existing *battle.Config
		if st := cmd.app.Store.Inspect(ctx); st.Exists && st.Valid {
			cfg := cmd.app.Store.Read(ctx)
			existing = &cfg
		}
		return iojson.WriteWith(c.Root().Writer, os.Stderr, launchpad.Build(scanned, existing, opts))
	}

	cfg, err := cmd.app.Generator.Generate(ctx, opts)
	if err != nil {
		return fmt.Errorf("generate: %w", err)
	}

	path, _ := cmd.app.Store.Path(ctx)
	success(c.Root().Writer, "wrote %d actions in %d groups to %s", len(cfg.Actions), len(cfg.Groups), path)
	return nil
}

func (cmd *GenerateCmd) runScan(ctx context.Context, c *cli.Command) error {
	if cmd.app.Workspace == "" {
		return launchpad.ErrNoWorkspace
	}

	opts, err := cmd.options(ctx, c)
	if err != nil {
		return err
	}
	actions := append(cmd.app.Scanner.Scan(ctx, opts.Sources), opts.Enhanced...)

	if cmd.jsonOutput {
		return iojson.WriteLines(c.Root().Writer, actions)
	}

	if len(actions) == 0 {
		_, _ = fmt.Fprintln(os.Stderr, "Nothing found.")
		return nil
	}

	writeActionTable(c.Root().Writer, battle.Config{Actions: actions}, true)
	return nil
}

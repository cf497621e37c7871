package commands

import (
	"context"
	"fmt"
	"os"
	"strconv"

	"github.com/hay-kot/battle/internal/core/battle"
	"github.com/hay-kot/battle/internal/launchpad"
	"github.com/hay-kot/battle/pkg/iojson"
	"github.com/urfave/cli/v3"
)

// ActionCmd implements the battle action command group.
type ActionCmd struct {
	flags *Flags
	app   *launchpad.App

	// list flags
	all        bool
	jsonOutput bool

	// add flags
	addType  string
	addGroup string
	addCwd   string
	addFile  iojson.FileReader[battle.Action]
	fromFile bool
}

// NewActionCmd creates a new action command.
func NewActionCmd(flags *Flags, app *launchpad.App) *ActionCmd {
	return &ActionCmd{flags: flags, app: app}
}

// Register adds the action command to the application.
func (cmd *ActionCmd) Register(app *cli.Command) *cli.Command {
	app.Commands = append(app.Commands, &cli.Command{
		Name:    "action",
		Aliases: []string{"a"},
		Usage:   "Manage launchpad actions",
		Description: `Actions are addressed by name or by the index shown in "battle action list".

Examples:
  battle action list --all
  battle action add "Build" "make build" --group Dev
  battle action hide 3
  battle action run Build`,
		Commands: []*cli.Command{
			cmd.listCmd(),
			cmd.addCmd(),
			{
				Name:          "rm",
				Usage:         "Remove an action",
				UsageText:     "battle action rm <action>",
				ShellComplete: ActionNameCompleter(cmd.app),
				Action:        cmd.runRemove,
			},
			{
				Name:          "hide",
				Usage:         "Hide an action from the launchpad",
				UsageText:     "battle action hide <action>",
				ShellComplete: ActionNameCompleter(cmd.app),
				Action:        cmd.setHidden(true),
			},
			{
				Name:          "unhide",
				Usage:         "Show a hidden action again",
				UsageText:     "battle action unhide <action>",
				ShellComplete: ActionNameCompleter(cmd.app),
				Action:        cmd.setHidden(false),
			},
			{
				Name:      "move",
				Usage:     "Move an action to a group, or to a new position",
				UsageText: "battle action move <action> <group|index>",
				Description: `A numeric target reorders the action; anything else moves it into that group.
Pass "" as the group to ungroup it.`,
				ShellComplete: ActionNameCompleter(cmd.app),
				Action:        cmd.runMove,
			},
			{
				Name:      "run",
				Usage:     "Run an action in the workspace",
				UsageText: "battle action run [action]",
				Description: `Runs shell and npm actions in the workspace, streaming their output.
Without an argument, pick the action interactively.`,
				ShellComplete: ActionNameCompleter(cmd.app),
				Action:        cmd.runRun,
			},
		},
	})

	return app
}

func (cmd *ActionCmd) listCmd() *cli.Command {
	return &cli.Command{
		Name:      "list",
		Aliases:   []string{"ls"},
		Usage:     "List actions",
		UsageText: "battle action list [--all] [--json]",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:        "all",
				Aliases:     []string{"a"},
				Usage:       "include hidden actions",
				Destination: &cmd.all,
			},
			&cli.BoolFlag{
				Name:        "json",
				Usage:       "output as JSON lines",
				Destination: &cmd.jsonOutput,
			},
		},
		Action: cmd.runList,
	}
}

func (cmd *ActionCmd) addCmd() *cli.Command {
	return &cli.Command{
		Name:      "add",
		Usage:     "Add an action",
		UsageText: "battle action add <name> <command> [--type shell] [--group <group>] [--cwd <dir>]\n   battle action add --json [-f file.json]",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "type",
				Aliases:     []string{"t"},
				Usage:       "action type (shell, npm, vscode, task, launch, ...)",
				Value:       battle.TypeShell,
				Destination: &cmd.addType,
			},
			&cli.StringFlag{
				Name:        "group",
				Aliases:     []string{"g"},
				Usage:       "existing group to add the action to",
				Destination: &cmd.addGroup,
			},
			&cli.StringFlag{
				Name:        "cwd",
				Usage:       "working directory relative to the workspace",
				Destination: &cmd.addCwd,
			},
			&cli.BoolFlag{
				Name:        "json",
				Usage:       "read the action as JSON from --file or stdin",
				Destination: &cmd.fromFile,
			},
			cmd.addFile.Flag(),
		},
		Action: cmd.runAdd,
	}
}

func (cmd *ActionCmd) runList(ctx context.Context, c *cli.Command) error {
	cfg := cmd.app.Store.Read(ctx)

	if cmd.jsonOutput {
		visible := map[battle.ActionKey]bool{}
		for _, a := range cmd.app.Actions.List(ctx, cmd.all) {
			visible[a.Key()] = true
		}

		rows := make([]actionRow, 0, len(cfg.Actions))
		for i, a := range cfg.Actions {
			if visible[a.Key()] {
				rows = append(rows, actionRow{Index: i, Action: a})
			}
		}
		return iojson.WriteLines(c.Root().Writer, rows)
	}

	if len(cfg.Actions) == 0 {
		_, _ = fmt.Fprintln(os.Stderr, "No actions found. Run 'battle generate' to create some.")
		return nil
	}

	writeActionTable(c.Root().Writer, cfg, cmd.all)
	return nil
}

func (cmd *ActionCmd) runAdd(ctx context.Context, c *cli.Command) error {
	var a battle.Action
	if cmd.fromFile {
		var err error
		if a, err = cmd.addFile.Read(); err != nil {
			return err
		}
	} else {
		name, err := requireArg(c, 0, "name")
		if err != nil {
			return err
		}
		command, err := requireArg(c, 1, "command")
		if err != nil {
			return err
		}
		a = battle.Action{Name: name, Command: command, Type: cmd.addType, Group: cmd.addGroup, Cwd: cmd.addCwd}
	}

	if err := cmd.app.Actions.Add(ctx, a); err != nil {
		return fmt.Errorf("add action: %w", err)
	}

	success(c.Root().Writer, "added %q", a.Name)
	return nil
}

func (cmd *ActionCmd) runRemove(ctx context.Context, c *cli.Command) error {
	ref, err := cmd.ref(ctx, c)
	if err != nil {
		return err
	}
	if err := cmd.app.Actions.Delete(ctx, ref); err != nil {
		return fmt.Errorf("remove action: %w", err)
	}

	success(c.Root().Writer, "removed %q", ref.Key.Name)
	return nil
}

func (cmd *ActionCmd) setHidden(hidden bool) cli.ActionFunc {
	return func(ctx context.Context, c *cli.Command) error {
		ref, err := cmd.ref(ctx, c)
		if err != nil {
			return err
		}
		return cmd.app.Actions.SetHidden(ctx, ref, hidden)
	}
}

func (cmd *ActionCmd) runMove(ctx context.Context, c *cli.Command) error {
	ref, err := cmd.ref(ctx, c)
	if err != nil {
		return err
	}
	if c.Args().Len() < 2 {
		return fmt.Errorf("missing <group|index> argument")
	}
	target := c.Args().Get(1)

	if to, err := strconv.Atoi(target); err == nil {
		cfg := cmd.app.Store.Read(ctx)
		from := cfg.FindAction(ref.Key)
		if ref.Index < len(cfg.Actions) && cfg.Actions[ref.Index].Key() == ref.Key {
			from = ref.Index
		}
		return cmd.app.Actions.Reorder(ctx, from, to)
	}

	return cmd.app.Actions.MoveToGroup(ctx, ref, target)
}

func (cmd *ActionCmd) runRun(ctx context.Context, c *cli.Command) error {
	var ref launchpad.ActionRef
	if c.Args().Present() {
		var err error
		if ref, err = cmd.ref(ctx, c); err != nil {
			return err
		}
	} else {
		picked, err := cmd.pick(ctx)
		if err != nil || picked == nil {
			return err
		}
		ref = *picked
	}

	return cmd.app.Actions.Run(ctx, ref, c.Root().Writer, c.Root().ErrWriter)
}

func (cmd *ActionCmd) ref(ctx context.Context, c *cli.Command) (launchpad.ActionRef, error) {
	return resolveAction(cmd.app.Store.Read(ctx), c.Args().First())
}

func (cmd *ActionCmd) pick(ctx context.Context) (*launchpad.ActionRef, error) {
	cfg := cmd.app.Store.Read(ctx)

	var options []launchpad.Option
	for i, a := range cfg.Actions {
		if a.Hidden {
			continue
		}
		options = append(options, launchpad.Option{Label: a.Name, Value: strconv.Itoa(i)})
	}

	value, ok, err := choose(ctx, cmd.app, "Run action", options)
	if err != nil || !ok {
		return nil, err
	}

	ref, err := resolveAction(cfg, value)
	if err != nil {
		return nil, err
	}
	return &ref, nil
}

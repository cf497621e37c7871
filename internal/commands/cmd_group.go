package commands

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"text/tabwriter"

	"github.com/hay-kot/battle/internal/core/battle"
	"github.com/hay-kot/battle/internal/launchpad"
	"github.com/hay-kot/battle/pkg/iojson"
	"github.com/urfave/cli/v3"
)

// customColorValue is the picker value that asks for a new hex colour.
const customColorValue = "custom"

// GroupCmd implements the battle group command group.
type GroupCmd struct {
	flags *Flags
	app   *launchpad.App

	jsonOutput bool
	icon       string
	color      string
}

// NewGroupCmd creates a new group command.
func NewGroupCmd(flags *Flags, app *launchpad.App) *GroupCmd {
	return &GroupCmd{flags: flags, app: app}
}

// Register adds the group command to the application.
func (cmd *GroupCmd) Register(app *cli.Command) *cli.Command {
	app.Commands = append(app.Commands, &cli.Command{
		Name:    "group",
		Aliases: []string{"g"},
		Usage:   "Manage action groups",
		Commands: []*cli.Command{
			{
				Name:    "list",
				Aliases: []string{"ls"},
				Usage:   "List groups",
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:        "json",
						Usage:       "output as JSON lines",
						Destination: &cmd.jsonOutput,
					},
				},
				Action: cmd.runList,
			},
			{
				Name:      "add",
				Usage:     "Create a group",
				UsageText: "battle group add <name> [--icon <icon>] [--color <hex>]",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:        "icon",
						Usage:       "icon identifier",
						Destination: &cmd.icon,
					},
					&cli.StringFlag{
						Name:        "color",
						Usage:       "hex colour, e.g. #3b82f6",
						Destination: &cmd.color,
					},
				},
				Action: cmd.runAdd,
			},
			{
				Name:          "rm",
				Usage:         "Delete a group; its actions become ungrouped",
				UsageText:     "battle group rm <name>",
				ShellComplete: GroupNameCompleter(cmd.app),
				Action:        cmd.runRemove,
			},
			{
				Name:          "rename",
				Usage:         "Rename a group and move its actions along",
				UsageText:     "battle group rename <name> <new-name>",
				ShellComplete: GroupNameCompleter(cmd.app),
				Action:        cmd.runRename,
			},
			{
				Name:          "hide",
				Usage:         "Hide a group and all of its actions",
				UsageText:     "battle group hide <name>",
				ShellComplete: GroupNameCompleter(cmd.app),
				Action:        cmd.setHidden(true),
			},
			{
				Name:          "unhide",
				Usage:         "Show a hidden group again",
				UsageText:     "battle group unhide <name>",
				ShellComplete: GroupNameCompleter(cmd.app),
				Action:        cmd.setHidden(false),
			},
			{
				Name:          "move",
				Usage:         "Move a group to a new position",
				UsageText:     "battle group move <name> <index>",
				ShellComplete: GroupNameCompleter(cmd.app),
				Action:        cmd.runMove,
			},
			{
				Name:      "color",
				Usage:     "Set a group colour",
				UsageText: "battle group color <name> [hex]",
				Description: `Without a colour, pick one from the palette and the document's custom colours.
New custom colours are remembered for later picks.`,
				ShellComplete: GroupNameCompleter(cmd.app),
				Action:        cmd.runColor,
			},
		},
	})

	return app
}

func (cmd *GroupCmd) runList(ctx context.Context, c *cli.Command) error {
	cfg := cmd.app.Store.Read(ctx)

	if cmd.jsonOutput {
		return iojson.WriteLines(c.Root().Writer, cfg.Groups)
	}

	if len(cfg.Groups) == 0 {
		_, _ = fmt.Fprintln(os.Stderr, "No groups defined.")
		return nil
	}

	counts := map[string]int{}
	for _, a := range cfg.Actions {
		counts[a.Group]++
	}

	tw := tabwriter.NewWriter(c.Root().Writer, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(tw, "#\tNAME\tACTIONS\tCOLOR\tHIDDEN")
	for i, g := range cfg.Groups {
		_, _ = fmt.Fprintf(tw, "%d\t%s\t%d\t%s\t%t\n", i, g.Name, counts[g.Name], g.Color, g.Hidden)
	}
	return tw.Flush()
}

func (cmd *GroupCmd) runAdd(ctx context.Context, c *cli.Command) error {
	name, err := requireArg(c, 0, "name")
	if err != nil {
		return err
	}

	if err := cmd.app.Actions.AddGroup(ctx, battle.Group{Name: name, Icon: cmd.icon, Color: cmd.color}); err != nil {
		return fmt.Errorf("add group: %w", err)
	}

	success(c.Root().Writer, "added group %q", name)
	return nil
}

func (cmd *GroupCmd) runRemove(ctx context.Context, c *cli.Command) error {
	name, err := requireArg(c, 0, "name")
	if err != nil {
		return err
	}
	if err := cmd.app.Actions.DeleteGroup(ctx, name); err != nil {
		return fmt.Errorf("delete group: %w", err)
	}

	success(c.Root().Writer, "deleted group %q", name)
	return nil
}

func (cmd *GroupCmd) runRename(ctx context.Context, c *cli.Command) error {
	name, err := requireArg(c, 0, "name")
	if err != nil {
		return err
	}
	newName, err := requireArg(c, 1, "new-name")
	if err != nil {
		return err
	}

	cfg := cmd.app.Store.Read(ctx)
	i := cfg.FindGroup(name)
	if i < 0 {
		return fmt.Errorf("%w: %q", launchpad.ErrGroupNotFound, name)
	}

	g := cfg.Groups[i]
	g.Name = newName
	return cmd.app.Actions.UpdateGroup(ctx, name, g)
}

func (cmd *GroupCmd) setHidden(hidden bool) cli.ActionFunc {
	return func(ctx context.Context, c *cli.Command) error {
		name, err := requireArg(c, 0, "name")
		if err != nil {
			return err
		}
		return cmd.app.Actions.SetGroupHidden(ctx, name, hidden)
	}
}

func (cmd *GroupCmd) runMove(ctx context.Context, c *cli.Command) error {
	name, err := requireArg(c, 0, "name")
	if err != nil {
		return err
	}
	raw, err := requireArg(c, 1, "index")
	if err != nil {
		return err
	}
	to, err := strconv.Atoi(raw)
	if err != nil {
		return fmt.Errorf("invalid index %q", raw)
	}

	from := cmd.app.Store.Read(ctx).FindGroup(name)
	if from < 0 {
		return fmt.Errorf("%w: %q", launchpad.ErrGroupNotFound, name)
	}
	return cmd.app.Actions.ReorderGroups(ctx, from, to)
}

func (cmd *GroupCmd) runColor(ctx context.Context, c *cli.Command) error {
	name, err := requireArg(c, 0, "name")
	if err != nil {
		return err
	}

	color := c.Args().Get(1)
	if color == "" {
		picked, ok, err := cmd.pickColor(ctx, name)
		if err != nil || !ok {
			return err
		}
		color = picked
	}

	if err := cmd.app.Actions.SetGroupColor(ctx, name, color); err != nil {
		return err
	}

	if color != "" && !cmd.known(ctx, color) {
		if err := cmd.app.Actions.AddCustomColor(ctx, color); err != nil {
			return err
		}
	}

	success(c.Root().Writer, "group %q colour set to %s", name, color)
	return nil
}

func (cmd *GroupCmd) pickColor(ctx context.Context, group string) (string, bool, error) {
	cfg := cmd.app.Store.Read(ctx)

	options := make([]launchpad.Option, 0, len(launchpad.Palette)+len(cfg.CustomColors)+1)
	for _, hex := range launchpad.Palette {
		options = append(options, launchpad.Option{Label: hex, Value: hex})
	}
	for _, hex := range cfg.CustomColors {
		options = append(options, launchpad.Option{Label: hex + " (custom)", Value: hex})
	}
	options = append(options, launchpad.Option{Label: "Enter a custom colour...", Value: customColorValue})

	value, ok, err := choose(ctx, cmd.app, "Colour for "+group, options)
	if err != nil || !ok {
		return "", ok, err
	}
	if value == customColorValue {
		return promptColor(ctx)
	}
	return value, true, nil
}

func (cmd *GroupCmd) known(ctx context.Context, color string) bool {
	for _, hex := range launchpad.Palette {
		if hex == color {
			return true
		}
	}
	for _, hex := range cmd.app.Store.Read(ctx).CustomColors {
		if hex == color {
			return true
		}
	}
	return false
}

package commands

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/hay-kot/battle/internal/core/styles"
	"github.com/hay-kot/battle/internal/core/todo"
	"github.com/hay-kot/battle/internal/launchpad"
	"github.com/hay-kot/battle/pkg/iojson"
	"github.com/urfave/cli/v3"
)

// TodoCmd implements the battle todo command group.
type TodoCmd struct {
	flags *Flags
	app   *launchpad.App

	// shared
	listRef    string
	jsonOutput bool

	// add flags
	description string
	then        string

	// new-list flags
	icon string
}

// NewTodoCmd creates a new todo command.
func NewTodoCmd(flags *Flags, app *launchpad.App) *TodoCmd {
	return &TodoCmd{flags: flags, app: app}
}

func (cmd *TodoCmd) todos() *launchpad.TodoService {
	return cmd.app.Todos
}

// Register adds the todo command to the application.
func (cmd *TodoCmd) Register(app *cli.Command) *cli.Command {
	app.Commands = append(app.Commands, &cli.Command{
		Name:  "todo",
		Usage: "Manage todo lists stored in battle.json",
		Description: `Lists are addressed by id or name, todos by their position in "battle todo list"
or by id (a unique prefix is enough). Without --list the active list is used.

A todo may carry a directive that fires once when it is completed:
  goto:<list>        switch the active list
  command:<id>       run a host command
  action:<name>      run a launchpad action

Examples:
  battle todo new-list Release
  battle todo add "Tag the release" --then "goto:Announce"
  battle todo done 1
  battle todo gen "grep -rn TODO --include=*.go ."`,
		Commands: []*cli.Command{
			{
				Name:   "lists",
				Usage:  "List todo lists",
				Flags:  []cli.Flag{cmd.jsonFlag()},
				Action: cmd.runLists,
			},
			{
				Name:      "new-list",
				Usage:     "Create a todo list",
				UsageText: "battle todo new-list <name> [--icon <icon>]",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:        "icon",
						Usage:       "icon identifier",
						Destination: &cmd.icon,
					},
				},
				Action: cmd.runNewList,
			},
			{
				Name:          "rm-list",
				Usage:         "Delete a todo list and its todos",
				UsageText:     "battle todo rm-list <list>",
				Action:        cmd.runRemoveList,
				ShellComplete: TodoListCompleter(cmd.app),
			},
			{
				Name:          "rename-list",
				Usage:         "Rename a todo list",
				UsageText:     "battle todo rename-list <list> <name>",
				Action:        cmd.runRenameList,
				ShellComplete: TodoListCompleter(cmd.app),
			},
			{
				Name:          "switch",
				Usage:         "Make a list the active one",
				UsageText:     "battle todo switch [list]",
				Action:        cmd.runSwitch,
				ShellComplete: TodoListCompleter(cmd.app),
			},
			{
				Name:    "list",
				Aliases: []string{"ls"},
				Usage:   "Show the todos of a list",
				Flags:   []cli.Flag{cmd.listFlag(), cmd.jsonFlag()},
				Action:  cmd.runList,
			},
			{
				Name:      "add",
				Usage:     "Add a todo",
				UsageText: "battle todo add <title> [--description <text>] [--then <directive>] [--list <list>]",
				Flags: []cli.Flag{
					cmd.listFlag(),
					&cli.StringFlag{
						Name:        "description",
						Aliases:     []string{"d"},
						Usage:       "optional description",
						Destination: &cmd.description,
					},
					&cli.StringFlag{
						Name:        "then",
						Usage:       "directive fired on completion (goto:, command:, action:)",
						Destination: &cmd.then,
					},
				},
				Action: cmd.runAdd,
			},
			{
				Name:      "done",
				Usage:     "Complete a todo",
				UsageText: "battle todo done <todo> [--list <list>]",
				Flags:     []cli.Flag{cmd.listFlag()},
				Action:    cmd.setCompleted(true),
			},
			{
				Name:      "undo",
				Usage:     "Reopen a completed todo",
				UsageText: "battle todo undo <todo> [--list <list>]",
				Flags:     []cli.Flag{cmd.listFlag()},
				Action:    cmd.setCompleted(false),
			},
			{
				Name:      "rm",
				Usage:     "Delete a todo",
				UsageText: "battle todo rm <todo> [--list <list>]",
				Flags:     []cli.Flag{cmd.listFlag()},
				Action:    cmd.runRemove,
			},
			{
				Name:      "reorder",
				Usage:     "Move a todo to a new position",
				UsageText: "battle todo reorder <todo> <position> [--list <list>]",
				Flags:     []cli.Flag{cmd.listFlag()},
				Action:    cmd.runReorder,
			},
			{
				Name:      "gen",
				Usage:     "Create one todo per line of a command's output",
				UsageText: "battle todo gen <command>",
				Description: `Runs the command in the workspace and adds each non-blank output line to
the active list. The command is remembered as a hidden action.`,
				Action: cmd.runGenerate,
			},
		},
	})

	return app
}

func (cmd *TodoCmd) listFlag() cli.Flag {
	return &cli.StringFlag{
		Name:        "list",
		Aliases:     []string{"l"},
		Usage:       "list id or name (defaults to the active list)",
		Destination: &cmd.listRef,
	}
}

func (cmd *TodoCmd) jsonFlag() cli.Flag {
	return &cli.BoolFlag{
		Name:        "json",
		Usage:       "output as JSON lines",
		Destination: &cmd.jsonOutput,
	}
}

// listRow is the JSON shape of a listed todo list.
type listRow struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Icon   string `json:"icon,omitempty"`
	Open   int    `json:"open"`
	Total  int    `json:"total"`
	Active bool   `json:"active"`
}

func (cmd *TodoCmd) runLists(ctx context.Context, c *cli.Command) error {
	lists, active := cmd.todos().Lists(ctx)

	rows := make([]listRow, 0, len(lists))
	for _, l := range lists {
		open := 0
		for _, t := range l.Todos {
			if !t.Completed {
				open++
			}
		}
		rows = append(rows, listRow{ID: l.ID, Name: l.Name, Icon: l.Icon, Open: open, Total: len(l.Todos), Active: l.ID == active})
	}

	if cmd.jsonOutput {
		return iojson.WriteLines(c.Root().Writer, rows)
	}

	if len(rows) == 0 {
		_, _ = fmt.Fprintln(os.Stderr, "No todo lists. Run 'battle todo new-list <name>' to create one.")
		return nil
	}

	w := c.Root().Writer
	for _, r := range rows {
		marker := " "
		name := r.Name
		if r.Active {
			marker = styles.IconActive
			name = styles.TextPrimaryBoldStyle.Render(name)
		}
		_, _ = fmt.Fprintf(w, "%s %s %s\n", marker, name, styles.TextMutedStyle.Render(fmt.Sprintf("%d/%d open  %s", r.Open, r.Total, r.ID)))
	}
	return nil
}

func (cmd *TodoCmd) runNewList(ctx context.Context, c *cli.Command) error {
	name, err := requireArg(c, 0, "name")
	if err != nil {
		return err
	}

	l, err := cmd.todos().CreateList(ctx, name, cmd.icon)
	if err != nil {
		return fmt.Errorf("create list: %w", err)
	}

	success(c.Root().Writer, "created list %q (%s)", l.Name, l.ID)
	return nil
}

func (cmd *TodoCmd) runRemoveList(ctx context.Context, c *cli.Command) error {
	l, err := cmd.resolveList(ctx, c.Args().First())
	if err != nil {
		return err
	}
	if err := cmd.todos().DeleteList(ctx, l.ID); err != nil {
		return err
	}

	success(c.Root().Writer, "deleted list %q", l.Name)
	return nil
}

func (cmd *TodoCmd) runRenameList(ctx context.Context, c *cli.Command) error {
	l, err := cmd.resolveList(ctx, c.Args().First())
	if err != nil {
		return err
	}
	name, err := requireArg(c, 1, "name")
	if err != nil {
		return err
	}
	return cmd.todos().RenameList(ctx, l.ID, name)
}

func (cmd *TodoCmd) runSwitch(ctx context.Context, c *cli.Command) error {
	ref := c.Args().First()
	if ref == "" {
		picked, ok, err := cmd.pickList(ctx)
		if err != nil || !ok {
			return err
		}
		ref = picked
	}

	l, err := cmd.resolveList(ctx, ref)
	if err != nil {
		return err
	}
	if err := cmd.todos().SwitchList(ctx, l.ID); err != nil {
		return err
	}

	success(c.Root().Writer, "switched to %q", l.Name)
	return nil
}

func (cmd *TodoCmd) runList(ctx context.Context, c *cli.Command) error {
	l, err := cmd.resolveList(ctx, cmd.listRef)
	if err != nil {
		return err
	}
	items := l.Sorted()

	if cmd.jsonOutput {
		return iojson.WriteLines(c.Root().Writer, items)
	}

	w := c.Root().Writer
	_, _ = fmt.Fprintln(w, styles.HeaderStyle.Render(l.Name))
	if len(items) == 0 {
		_, _ = fmt.Fprintln(w, styles.TextMutedStyle.Render("  nothing to do"))
	}
	for i, it := range items {
		_, _ = fmt.Fprintln(w, formatTodo(i+1, it))
	}
	return nil
}

func formatTodo(pos int, it todo.Item) string {
	icon, style := styles.IconTodo, styles.TodoOpenStyle
	if it.Completed {
		icon, style = styles.IconDone, styles.TodoDoneStyle
	}

	line := fmt.Sprintf("%3d %s %s", pos, icon, style.Render(it.Title))
	if it.Then != nil {
		line += " " + styles.TextMutedStyle.Render("then "+it.Then.String())
	}
	if it.Description != "" {
		line += "\n      " + styles.TextMutedStyle.Render(it.Description)
	}
	return line
}

func (cmd *TodoCmd) runAdd(ctx context.Context, c *cli.Command) error {
	title, err := requireArg(c, 0, "title")
	if err != nil {
		return err
	}

	t := todo.Todo{Title: title, Description: cmd.description}
	if cmd.then != "" {
		d := todo.ParseDirective(cmd.then)
		if !d.Valid() {
			return fmt.Errorf("invalid directive %q: expected goto:, command: or action:", cmd.then)
		}
		if d.Kind == todo.DirectiveGoto {
			target, err := cmd.resolveList(ctx, d.Target)
			if err != nil {
				return err
			}
			d = todo.Goto(target.ID)
		}
		t.Then = &d
	}

	listID := ""
	if cmd.listRef != "" {
		l, err := cmd.resolveList(ctx, cmd.listRef)
		if err != nil {
			return err
		}
		listID = l.ID
	}

	item, err := cmd.todos().Add(ctx, listID, t)
	if err != nil {
		return fmt.Errorf("add todo: %w", err)
	}

	success(c.Root().Writer, "added %q", item.Title)
	return nil
}

func (cmd *TodoCmd) setCompleted(completed bool) cli.ActionFunc {
	return func(ctx context.Context, c *cli.Command) error {
		l, item, err := cmd.resolveTodo(ctx, c.Args().First())
		if err != nil {
			return err
		}
		return cmd.todos().SetCompleted(ctx, l.ID, item.ID, completed)
	}
}

func (cmd *TodoCmd) runRemove(ctx context.Context, c *cli.Command) error {
	l, item, err := cmd.resolveTodo(ctx, c.Args().First())
	if err != nil {
		return err
	}
	if err := cmd.todos().Delete(ctx, l.ID, item.ID); err != nil {
		return err
	}

	success(c.Root().Writer, "deleted %q", item.Title)
	return nil
}

func (cmd *TodoCmd) runReorder(ctx context.Context, c *cli.Command) error {
	l, item, err := cmd.resolveTodo(ctx, c.Args().First())
	if err != nil {
		return err
	}
	raw, err := requireArg(c, 1, "position")
	if err != nil {
		return err
	}
	pos, err := strconv.Atoi(raw)
	if err != nil {
		return fmt.Errorf("invalid position %q", raw)
	}

	ids := moveID(l.Sorted(), item.ID, pos-1)
	return cmd.todos().Reorder(ctx, l.ID, ids)
}

// moveID returns the ids of items with id moved to index to, clamped to the
// list bounds.
func moveID(items []todo.Item, id string, to int) []string {
	ids := make([]string, 0, len(items))
	for _, it := range items {
		if it.ID != id {
			ids = append(ids, it.ID)
		}
	}

	to = max(0, min(to, len(ids)))
	ids = append(ids, "")
	copy(ids[to+1:], ids[to:])
	ids[to] = id
	return ids
}

func (cmd *TodoCmd) runGenerate(ctx context.Context, c *cli.Command) error {
	command := strings.TrimSpace(strings.Join(c.Args().Slice(), " "))
	if command == "" {
		return fmt.Errorf("missing <command> argument")
	}

	items, err := cmd.todos().GenerateFromCommand(ctx, command)
	if err != nil {
		return err
	}

	success(c.Root().Writer, "added %d todos", len(items))
	return nil
}

// resolveList finds a list by id, then case-insensitive name, then unique id
// prefix. An empty ref selects the active list.
func (cmd *TodoCmd) resolveList(ctx context.Context, ref string) (todo.List, error) {
	if ref == "" {
		return cmd.todos().List(ctx, "")
	}

	lists, _ := cmd.todos().Lists(ctx)
	for _, l := range lists {
		if l.ID == ref {
			return l, nil
		}
	}

	var matches []todo.List
	for _, l := range lists {
		if strings.EqualFold(l.Name, ref) {
			matches = append(matches, l)
		}
	}
	if len(matches) == 0 {
		for _, l := range lists {
			if strings.HasPrefix(l.ID, ref) {
				matches = append(matches, l)
			}
		}
	}

	switch len(matches) {
	case 0:
		return todo.List{}, fmt.Errorf("%w: %q", todo.ErrListNotFound, ref)
	case 1:
		return matches[0], nil
	default:
		return todo.List{}, fmt.Errorf("%q matches %d lists; use the id", ref, len(matches))
	}
}

// resolveTodo finds a todo in the --list list by 1-based position or id prefix.
func (cmd *TodoCmd) resolveTodo(ctx context.Context, ref string) (todo.List, todo.Item, error) {
	if ref == "" {
		return todo.List{}, todo.Item{}, fmt.Errorf("missing <todo> argument")
	}

	l, err := cmd.resolveList(ctx, cmd.listRef)
	if err != nil {
		return l, todo.Item{}, err
	}
	items := l.Sorted()

	if pos, err := strconv.Atoi(ref); err == nil {
		if pos < 1 || pos > len(items) {
			return l, todo.Item{}, fmt.Errorf("%w: position %d", todo.ErrTodoNotFound, pos)
		}
		return l, items[pos-1], nil
	}

	var found []todo.Item
	for _, it := range items {
		if strings.HasPrefix(it.ID, ref) {
			found = append(found, it)
		}
	}
	switch len(found) {
	case 0:
		return l, todo.Item{}, fmt.Errorf("%w: %q", todo.ErrTodoNotFound, ref)
	case 1:
		return l, found[0], nil
	default:
		return l, todo.Item{}, fmt.Errorf("%q matches %d todos; use more of the id", ref, len(found))
	}
}

func (cmd *TodoCmd) pickList(ctx context.Context) (string, bool, error) {
	lists, active := cmd.todos().Lists(ctx)

	options := make([]launchpad.Option, 0, len(lists))
	for _, l := range lists {
		label := l.Name
		if l.ID == active {
			label += " (active)"
		}
		options = append(options, launchpad.Option{Label: label, Value: l.ID})
	}
	return choose(ctx, cmd.app, "Switch todo list", options)
}

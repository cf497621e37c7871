package commands

import (
	"context"
	"fmt"
	"strings"

	"github.com/hay-kot/battle/internal/launchpad"
	"github.com/urfave/cli/v3"
)

// completer prints one candidate per line for the first positional
// argument. While a flag is being typed it defers to flag completion, and
// once a positional argument is present it prints nothing.
func completer(names func(ctx context.Context) []string) cli.ShellCompleteFunc {
	return func(ctx context.Context, cmd *cli.Command) {
		args := cmd.Args()
		if args.Present() {
			if strings.HasPrefix(args.Get(args.Len()-1), "-") {
				cli.DefaultCompleteWithFlags(ctx, cmd)
			}
			return
		}

		w := cmd.Root().Writer
		for _, name := range names(ctx) {
			_, _ = fmt.Fprintln(w, name)
		}
	}
}

// ActionNameCompleter suggests action names, hidden ones included since
// hide, unhide and rm address them too.
func ActionNameCompleter(app *launchpad.App) cli.ShellCompleteFunc {
	return completer(func(ctx context.Context) []string {
		var names []string
		for _, a := range app.Actions.List(ctx, true) {
			names = append(names, a.Name)
		}
		return names
	})
}

func GroupNameCompleter(app *launchpad.App) cli.ShellCompleteFunc {
	return completer(func(ctx context.Context) []string {
		var names []string
		for _, g := range app.Store.Read(ctx).Groups {
			names = append(names, g.Name)
		}
		return names
	})
}

// TodoListCompleter suggests todo list names in display order.
func TodoListCompleter(app *launchpad.App) cli.ShellCompleteFunc {
	return completer(func(ctx context.Context) []string {
		lists, _ := app.Todos.Lists(ctx)
		names := make([]string, 0, len(lists))
		for _, l := range lists {
			names = append(names, l.Name)
		}
		return names
	})
}

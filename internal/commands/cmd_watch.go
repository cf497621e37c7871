package commands

import (
	"context"
	"fmt"
	"os"

	"github.com/hay-kot/battle/internal/launchpad"
	"github.com/hay-kot/battle/internal/tui"
	"github.com/urfave/cli/v3"
)

// WatchCmd opens the live launchpad view.
type WatchCmd struct {
	flags *Flags
	app   *launchpad.App
}

// NewWatchCmd creates a new watch command.
func NewWatchCmd(flags *Flags, app *launchpad.App) *WatchCmd {
	return &WatchCmd{flags: flags, app: app}
}

// Register adds the watch command to the application.
func (cmd *WatchCmd) Register(app *cli.Command) *cli.Command {
	app.Commands = append(app.Commands, &cli.Command{
		Name:      "watch",
		Aliases:   []string{"w"},
		Usage:     "Open the launchpad and follow battle.json as it changes",
		UsageText: "battle watch",
		Description: `Shows the workspace's actions and active todo list, re-rendering when
battle.json changes on disk.

Keys: j/k move, enter runs, h hides, tab switches to todos, . shows hidden,
g regenerates, q quits.`,
		Action: cmd.Run,
	})

	return app
}

// Run starts the watcher and blocks in the view until the user quits. It is
// also the root command's default action when stdout is a terminal.
func (cmd *WatchCmd) Run(ctx context.Context, _ *cli.Command) error {
	if cmd.app.Workspace == "" {
		return launchpad.ErrNoWorkspace
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	if err := cmd.app.Store.Watch(ctx); err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "watch disabled: %v\n", err)
	}

	restore := muteNotifications(cmd.app.Host)
	defer restore()

	return tui.Run(ctx, cmd.app)
}

package commands

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"text/tabwriter"

	"github.com/hay-kot/battle/internal/core/history"
	"github.com/hay-kot/battle/internal/launchpad"
	"github.com/hay-kot/battle/pkg/iojson"
	"github.com/pmezard/go-difflib/difflib"
	"github.com/urfave/cli/v3"
)

// HistoryCmd implements the battle history command group.
type HistoryCmd struct {
	flags *Flags
	app   *launchpad.App

	jsonOutput bool
	context    int
}

// NewHistoryCmd creates a new history command.
func NewHistoryCmd(flags *Flags, app *launchpad.App) *HistoryCmd {
	return &HistoryCmd{flags: flags, app: app}
}

// Register adds the history command to the application.
func (cmd *HistoryCmd) Register(app *cli.Command) *cli.Command {
	app.Commands = append(app.Commands, &cli.Command{
		Name:  "history",
		Usage: "Browse and restore previous versions of battle.json",
		Description: `Every save, restore and delete records the previous document in the
history log next to battle.json. Versions are addressed by their timestamp.`,
		Commands: []*cli.Command{
			{
				Name:    "list",
				Aliases: []string{"ls"},
				Usage:   "List saved versions, newest first",
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
				Name:      "restore",
				Usage:     "Restore a saved version",
				UsageText: "battle history restore [timestamp]",
				Action:    cmd.runRestore,
			},
			{
				Name:      "diff",
				Usage:     "Show changes between a saved version and the current document",
				UsageText: "battle history diff [timestamp]",
				Flags: []cli.Flag{
					&cli.IntFlag{
						Name:        "context",
						Aliases:     []string{"U"},
						Usage:       "lines of context",
						Value:       3,
						Destination: &cmd.context,
					},
				},
				Action: cmd.runDiff,
			},
		},
	})

	return app
}

// versionRow is the JSON shape of a listed version.
type versionRow struct {
	Timestamp int64  `json:"timestamp"`
	Label     string `json:"label"`
	Actions   int    `json:"actions"`
}

func (cmd *HistoryCmd) runList(ctx context.Context, c *cli.Command) error {
	entries, err := cmd.app.Store.ListVersions(ctx)
	if err != nil {
		return err
	}

	rows := make([]versionRow, 0, len(entries))
	for _, e := range entries {
		rows = append(rows, versionRow{Timestamp: e.Timestamp, Label: e.Label, Actions: len(e.Config.Actions)})
	}

	if cmd.jsonOutput {
		return iojson.WriteLines(c.Root().Writer, rows)
	}

	if len(rows) == 0 {
		_, _ = fmt.Fprintln(os.Stderr, "No saved versions.")
		return nil
	}

	tw := tabwriter.NewWriter(c.Root().Writer, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(tw, "TIMESTAMP\tSAVED\tLABEL\tACTIONS")
	for _, r := range rows {
		_, _ = fmt.Fprintf(tw, "%d\t%s\t%s\t%d\n", r.Timestamp, formatTimestamp(r.Timestamp), r.Label, r.Actions)
	}
	return tw.Flush()
}

func (cmd *HistoryCmd) runRestore(ctx context.Context, c *cli.Command) error {
	entry, ok, err := cmd.entry(ctx, c, "Restore version")
	if err != nil || !ok {
		return err
	}

	if err := cmd.app.Store.RestoreVersion(ctx, entry.Timestamp); err != nil {
		return err
	}

	success(c.Root().Writer, "restored version from %s", formatTimestamp(entry.Timestamp))
	return nil
}

func (cmd *HistoryCmd) runDiff(ctx context.Context, c *cli.Command) error {
	entry, ok, err := cmd.entry(ctx, c, "Compare version")
	if err != nil || !ok {
		return err
	}

	out, err := diffVersion(entry, cmd.app.Store.Read(ctx), cmd.context)
	if err != nil {
		return err
	}
	if out == "" {
		_, _ = fmt.Fprintln(os.Stderr, "No differences.")
		return nil
	}

	_, err = fmt.Fprint(c.Root().Writer, out)
	return err
}

// entry returns the version named by the first argument, or asks the user to
// pick one.
func (cmd *HistoryCmd) entry(ctx context.Context, c *cli.Command, title string) (history.Entry, bool, error) {
	if arg := c.Args().First(); arg != "" {
		ts, err := strconv.ParseInt(arg, 10, 64)
		if err != nil {
			return history.Entry{}, false, fmt.Errorf("invalid timestamp %q", arg)
		}
		entry, err := cmd.app.Store.Version(ctx, ts)
		return entry, err == nil, err
	}

	entries, err := cmd.app.Store.ListVersions(ctx)
	if err != nil {
		return history.Entry{}, false, err
	}
	if len(entries) == 0 {
		return history.Entry{}, false, fmt.Errorf("no saved versions")
	}

	options := make([]launchpad.Option, 0, len(entries))
	for _, e := range entries {
		options = append(options, launchpad.Option{
			Label: fmt.Sprintf("%s  %s (%d actions)", formatTimestamp(e.Timestamp), e.Label, len(e.Config.Actions)),
			Value: strconv.FormatInt(e.Timestamp, 10),
		})
	}

	value, ok, err := choose(ctx, cmd.app, title, options)
	if err != nil || !ok {
		return history.Entry{}, false, err
	}

	ts, _ := strconv.ParseInt(value, 10, 64)
	for _, e := range entries {
		if e.Timestamp == ts {
			return e, true, nil
		}
	}
	return history.Entry{}, false, fmt.Errorf("version %d not found", ts)
}

// diffVersion renders a unified diff from the saved version to current.
func diffVersion(entry history.Entry, current any, lines int) (string, error) {
	before, err := marshalIndent(entry.Config)
	if err != nil {
		return "", err
	}
	after, err := marshalIndent(current)
	if err != nil {
		return "", err
	}

	return difflib.GetUnifiedDiffString(difflib.UnifiedDiff{
		A:        difflib.SplitLines(before),
		B:        difflib.SplitLines(after),
		FromFile: fmt.Sprintf("%s (%s)", formatTimestamp(entry.Timestamp), entry.Label),
		ToFile:   "current",
		Context:  lines,
	})
}

package commands

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/hay-kot/battle/internal/core/doctor"
	"github.com/hay-kot/battle/internal/core/styles"
	"github.com/hay-kot/battle/internal/launchpad"
	"github.com/hay-kot/battle/pkg/iojson"
	"github.com/urfave/cli/v3"
)

type DoctorCmd struct {
	flags   *Flags
	app     *launchpad.App
	format  string
	autofix bool
}

func NewDoctorCmd(flags *Flags, app *launchpad.App) *DoctorCmd {
	return &DoctorCmd{flags: flags, app: app}
}

func (cmd *DoctorCmd) Register(app *cli.Command) *cli.Command {
	app.Commands = append(app.Commands, &cli.Command{
		Name:        "doctor",
		Usage:       "Run health checks on your battle setup",
		UsageText:   "battle doctor [options]",
		Description: "Checks required tools, detected toolchains, settings and the workspace's battle.json.",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "format",
				Usage:       "output format (text, json)",
				Value:       "text",
				Destination: &cmd.format,
			},
			&cli.BoolFlag{
				Name:        "autofix",
				Usage:       "automatically fix issues (e.g., remove leftover legacy config files)",
				Destination: &cmd.autofix,
			},
		},
		Action: cmd.run,
	})
	return app
}

func (cmd *DoctorCmd) run(ctx context.Context, c *cli.Command) error {
	if cmd.autofix {
		removed, err := cmd.app.RemoveLeftovers(ctx)
		for _, path := range removed {
			_, _ = fmt.Fprintln(os.Stderr, styles.TextMutedStyle.Render("removed "+path))
		}
		if err != nil {
			_, _ = fmt.Fprintln(os.Stderr, styles.TextErrorStyle.Render(err.Error()))
		}
	}

	results := cmd.app.Doctor(ctx, cmd.flags.ConfigPath)

	if cmd.format == "json" {
		return cmd.outputJSON(c, results)
	}

	return cmd.outputText(ctx, results)
}

func (cmd *DoctorCmd) outputJSON(c *cli.Command, results []doctor.Result) error {
	tally := doctor.Count(results)

	out := struct {
		Healthy bool            `json:"healthy"`
		Summary doctor.Tally    `json:"summary"`
		Checks  []doctor.Result `json:"checks"`
	}{
		Healthy: tally.Healthy(),
		Summary: tally,
		Checks:  results,
	}

	if err := iojson.WriteWith(c.Root().Writer, os.Stderr, out); err != nil {
		return err
	}
	if !tally.Healthy() {
		return cli.Exit("", 1)
	}
	return nil
}

func (cmd *DoctorCmd) outputText(_ context.Context, results []doctor.Result) error {
	w := os.Stderr
	divider := styles.DividerStyle.Render(strings.Repeat("─", 40))

	_, _ = fmt.Fprintln(w)
	_, _ = fmt.Fprintln(w, styles.TextPrimaryBoldStyle.Render("Battle Doctor"))
	_, _ = fmt.Fprintln(w, divider)
	_, _ = fmt.Fprintln(w)

	for _, result := range results {
		_, _ = fmt.Fprintln(w, styles.TextForegroundBoldStyle.Render(result.Name))

		for _, item := range result.Items {
			var detail string
			if item.Detail != "" {
				detail = " " + styles.TextMutedStyle.Render(item.Detail)
			}

			var icon string
			switch item.Status {
			case doctor.StatusPass:
				icon = styles.TextSuccessStyle.Render(styles.IconPass)
			case doctor.StatusWarn:
				icon = styles.TextWarningStyle.Render(styles.IconWarn)
			case doctor.StatusFail:
				icon = styles.TextErrorStyle.Render(styles.IconFail)
			}

			_, _ = fmt.Fprintf(w, "  %s %s%s\n", icon, item.Label, detail)
		}

		_, _ = fmt.Fprintln(w)
	}

	tally := doctor.Count(results)
	summary := fmt.Sprintf("%s  %s  %s",
		styles.TextSuccessStyle.Render(fmt.Sprintf("%d passed", tally.Passed)),
		styles.TextWarningStyle.Render(fmt.Sprintf("%d warnings", tally.Warned)),
		styles.TextErrorStyle.Render(fmt.Sprintf("%d failed", tally.Failed)),
	)
	_, _ = fmt.Fprintln(w, summary)

	if !cmd.autofix && tally.Fixable > 0 {
		_, _ = fmt.Fprintln(w)
		hint := styles.TextMutedStyle.Render(fmt.Sprintf("Run 'battle doctor --autofix' to fix %d issue(s)", tally.Fixable))
		_, _ = fmt.Fprintln(w, hint)
	}

	if !tally.Healthy() {
		return cli.Exit("", 1)
	}

	return nil
}

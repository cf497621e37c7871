package commands

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/hay-kot/battle/internal/core/battle"
	"github.com/hay-kot/battle/internal/core/styles"
	"github.com/hay-kot/battle/internal/launchpad"
	"github.com/urfave/cli/v3"
)

// actionRow is the JSON shape of a listed action.
type actionRow struct {
	Index int `json:"index"`
	battle.Action
}

func writeActionTable(w io.Writer, cfg battle.Config, includeHidden bool) {
	hiddenGroups := map[string]bool{}
	for _, g := range cfg.Groups {
		hiddenGroups[g.Name] = g.Hidden
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(tw, "#\tNAME\tTYPE\tGROUP\tCOMMAND")
	for i, a := range cfg.Actions {
		hidden := a.Hidden || hiddenGroups[a.Group]
		if hidden && !includeHidden {
			continue
		}

		name := a.Name
		if hidden {
			name = styles.IconHidden + " " + name
		}
		_, _ = fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\n", i, name, a.Type, a.Group, a.Command)
	}
	_ = tw.Flush()
}

// resolveAction turns a CLI argument into an action reference. Numeric
// arguments are document indexes as printed by "action list"; anything else
// is matched by name.
func resolveAction(cfg battle.Config, arg string) (launchpad.ActionRef, error) {
	if arg == "" {
		return launchpad.ActionRef{}, fmt.Errorf("action name or index is required")
	}

	if i, err := strconv.Atoi(arg); err == nil {
		if i < 0 || i >= len(cfg.Actions) {
			return launchpad.ActionRef{}, fmt.Errorf("%w: index %d", launchpad.ErrActionNotFound, i)
		}
		return launchpad.RefAt(cfg, i), nil
	}

	i := cfg.FindActionByName(arg)
	if i < 0 {
		return launchpad.ActionRef{}, fmt.Errorf("%w: %q", launchpad.ErrActionNotFound, arg)
	}
	return launchpad.RefAt(cfg, i), nil
}

// requireArg returns the n-th positional argument or a usage error.
func requireArg(c *cli.Command, n int, name string) (string, error) {
	v := strings.TrimSpace(c.Args().Get(n))
	if v == "" {
		return "", fmt.Errorf("missing <%s> argument", name)
	}
	return v, nil
}

func formatTimestamp(ms int64) string {
	return time.UnixMilli(ms).Format(time.DateTime)
}

func success(w io.Writer, format string, args ...any) {
	_, _ = fmt.Fprintln(w, styles.TextSuccessStyle.Render(styles.IconPass+" "+fmt.Sprintf(format, args...)))
}

// choose asks the host picker to pick one option.
func choose(ctx context.Context, app *launchpad.App, title string, options []launchpad.Option) (string, bool, error) {
	if app.Host.Picker == nil {
		return "", false, ErrNotInteractive
	}
	return app.Host.Picker.Pick(ctx, title, options)
}

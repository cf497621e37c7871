package commands

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/hay-kot/battle/internal/core/config"
	"github.com/hay-kot/battle/internal/core/styles"
	"github.com/hay-kot/battle/internal/launchpad"
	"github.com/hay-kot/battle/pkg/iojson"
	"github.com/urfave/cli/v3"
	"gopkg.in/yaml.v3"
)

// ConfigCmd implements the battle config command group. It manages both the
// launchpad document (battle.json) and the application settings.
type ConfigCmd struct {
	flags *Flags
	app   *launchpad.App

	format  string
	example bool
}

// NewConfigCmd creates a new config command.
func NewConfigCmd(flags *Flags, app *launchpad.App) *ConfigCmd {
	return &ConfigCmd{flags: flags, app: app}
}

// Register adds the config command to the application.
func (cmd *ConfigCmd) Register(app *cli.Command) *cli.Command {
	app.Commands = append(app.Commands, &cli.Command{
		Name:  "config",
		Usage: "Inspect and manage battle.json and settings",
		Description: `battle.json lives in the workspace's .vscode folder unless a custom directory
is set for the workspace. Files at legacy locations are migrated on first use.`,
		Commands: []*cli.Command{
			{
				Name:   "path",
				Usage:  "Print the resolved battle.json path",
				Action: cmd.runPath,
			},
			{
				Name:   "show",
				Usage:  "Print the launchpad document",
				Action: cmd.runShow,
			},
			{
				Name:  "settings",
				Usage: "Print the effective settings",
				Action: func(_ context.Context, c *cli.Command) error {
					enc := yaml.NewEncoder(c.Root().Writer)
					enc.SetIndent(2)
					defer func() { _ = enc.Close() }()
					return enc.Encode(cmd.app.Settings)
				},
			},
			{
				Name:  "validate",
				Usage: "Validate settings and battle.json",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:        "format",
						Usage:       "output format (text or json)",
						Value:       "text",
						Destination: &cmd.format,
					},
				},
				Action: cmd.runValidate,
			},
			{
				Name:  "create",
				Usage: "Create battle.json if it does not exist",
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:        "example",
						Usage:       "seed the document with example actions and groups",
						Destination: &cmd.example,
					},
				},
				Action: cmd.runCreate,
			},
			{
				Name:   "delete",
				Usage:  "Delete battle.json from every known location",
				Action: cmd.runDelete,
			},
			{
				Name:      "set-dir",
				Usage:     "Store battle.json in a custom directory for this workspace",
				UsageText: "battle config set-dir <dir>",
				Action:    cmd.runSetDir,
			},
			{
				Name:  "reset-dir",
				Usage: "Return to the default location",
				Action: func(ctx context.Context, c *cli.Command) error {
					if err := cmd.app.Store.ClearCustomDir(ctx); err != nil {
						return err
					}
					return cmd.runPath(ctx, c)
				},
			},
		},
	})

	return app
}

func (cmd *ConfigCmd) runPath(ctx context.Context, c *cli.Command) error {
	loc, err := cmd.app.Store.Location(ctx)
	if err != nil {
		return err
	}

	_, _ = fmt.Fprintln(c.Root().Writer, loc.Path)
	if loc.MigratedFrom != "" {
		_, _ = fmt.Fprintln(os.Stderr, styles.TextMutedStyle.Render("migrated from "+loc.MigratedFrom))
	}
	return nil
}

func (cmd *ConfigCmd) runShow(ctx context.Context, c *cli.Command) error {
	st := cmd.app.Store.Inspect(ctx)
	if st.Err != nil && errors.Is(st.Err, launchpad.ErrNoWorkspace) {
		return st.Err
	}
	if !st.Exists {
		_, _ = fmt.Fprintf(os.Stderr, "No battle.json at %s. Run 'battle config create' or 'battle generate'.\n", st.Location.Path)
	}
	if st.Exists && !st.Valid {
		_, _ = fmt.Fprintln(os.Stderr, styles.TextWarningStyle.Render(fmt.Sprintf("%s %s is invalid: %v", styles.IconWarn, st.Location.Path, st.Err)))
	}

	return iojson.WriteWith(c.Root().Writer, os.Stderr, cmd.app.Store.Read(ctx))
}

// validationReport is the JSON output of config validate.
type validationReport struct {
	Settings struct {
		Path     string                     `json:"path"`
		Warnings []config.ValidationWarning `json:"warnings"`
	} `json:"settings"`
	Document struct {
		Path   string `json:"path"`
		Exists bool   `json:"exists"`
		Valid  bool   `json:"valid"`
		Error  string `json:"error,omitempty"`
	} `json:"document"`
}

func (cmd *ConfigCmd) runValidate(ctx context.Context, c *cli.Command) error {
	var report validationReport
	report.Settings.Path = cmd.flags.ConfigPath
	report.Settings.Warnings = cmd.app.Settings.Warnings()

	st := cmd.app.Store.Inspect(ctx)
	report.Document.Path = st.Location.Path
	report.Document.Exists = st.Exists
	report.Document.Valid = st.Valid
	if st.Err != nil {
		report.Document.Error = st.Err.Error()
	}

	failed := st.Err != nil && (st.Exists || errors.Is(st.Err, launchpad.ErrNoWorkspace))

	if cmd.format == "json" {
		if err := iojson.WriteWith(c.Root().Writer, os.Stderr, report); err != nil {
			return err
		}
		if failed {
			return cli.Exit("", 1)
		}
		return nil
	}

	w := c.Root().Writer
	_, _ = fmt.Fprintln(w, styles.TextPrimaryBoldStyle.Render("Settings")+" "+styles.TextMutedStyle.Render(report.Settings.Path))
	if len(report.Settings.Warnings) == 0 {
		_, _ = fmt.Fprintln(w, "  "+styles.TextSuccessStyle.Render(styles.IconPass+" valid"))
	}
	for _, warn := range report.Settings.Warnings {
		_, _ = fmt.Fprintf(w, "  %s %s.%s: %s\n", styles.TextWarningStyle.Render(styles.IconWarn), warn.Category, warn.Item, warn.Message)
	}

	_, _ = fmt.Fprintln(w)
	_, _ = fmt.Fprintln(w, styles.TextPrimaryBoldStyle.Render("battle.json")+" "+styles.TextMutedStyle.Render(report.Document.Path))
	switch {
	case failed:
		_, _ = fmt.Fprintln(w, "  "+styles.TextErrorStyle.Render(styles.IconFail+" "+report.Document.Error))
	case !st.Exists:
		_, _ = fmt.Fprintln(w, "  "+styles.TextMutedStyle.Render("not created yet"))
	default:
		_, _ = fmt.Fprintln(w, "  "+styles.TextSuccessStyle.Render(styles.IconPass+" valid"))
	}

	if failed {
		return cli.Exit("", 1)
	}
	return nil
}

func (cmd *ConfigCmd) runCreate(ctx context.Context, c *cli.Command) error {
	create := cmd.app.Generator.CreateMinimal
	if cmd.example {
		create = cmd.app.Generator.CreateExample
	}

	cfg, err := create(ctx)
	if errors.Is(err, launchpad.ErrConfigExists) {
		path, _ := cmd.app.Store.Path(ctx)
		return fmt.Errorf("%w at %s; use 'battle config delete' first", err, path)
	}
	if err != nil {
		return err
	}

	path, _ := cmd.app.Store.Path(ctx)
	success(c.Root().Writer, "created %s with %d actions", path, len(cfg.Actions))
	return nil
}

func (cmd *ConfigCmd) runDelete(ctx context.Context, c *cli.Command) error {
	res, err := cmd.app.Store.Delete(ctx)
	if !res.Deleted && err == nil {
		_, _ = fmt.Fprintln(os.Stderr, "Nothing to delete.")
		return nil
	}
	if res.Deleted {
		success(c.Root().Writer, "deleted %s (a copy was kept in history)", res.Location())
	}
	return err
}

func (cmd *ConfigCmd) runSetDir(ctx context.Context, c *cli.Command) error {
	dir, err := requireArg(c, 0, "dir")
	if err != nil {
		return err
	}
	if !filepath.IsAbs(dir) {
		if dir, err = filepath.Abs(dir); err != nil {
			return err
		}
	}

	if err := cmd.app.Store.SetCustomDir(ctx, dir); err != nil {
		return err
	}
	return cmd.runPath(ctx, c)
}

// marshalIndent is shared by commands that print documents for diffing.
func marshalIndent(v any) (string, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return "", err
	}
	return string(data) + "\n", nil
}

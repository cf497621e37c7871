// Command docgen generates CLI reference documentation from the battle command
// definitions. Output is written to docs/cli-reference.md.
package main

import (
	"fmt"
	"os"

	docs "github.com/urfave/cli-docs/v3"
	"github.com/urfave/cli/v3"

	"github.com/hay-kot/battle/internal/commands"
	"github.com/hay-kot/battle/internal/launchpad"
)

func main() {
	flags := &commands.Flags{}
	app := &launchpad.App{}

	root := &cli.Command{
		Name:      "battle",
		Usage:     "A launchpad for the commands you run in a workspace",
		UsageText: "battle [global options] command [command options]",
		Description: `Battle keeps a workspace's runnable commands in .vscode/battle.json: npm scripts,
VS Code tasks and launch configurations, toolchain commands and your own shell
snippets, organised into coloured groups next to a set of todo lists.

Run 'battle generate' to build battle.json from the workspace.
Run 'battle' with no arguments to open the launchpad.`,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "log-level",
				Usage:   "log level (debug, info, warn, error, fatal, panic)",
				Sources: cli.EnvVars("BATTLE_LOG_LEVEL"),
				Value:   "info",
			},
			&cli.StringFlag{
				Name:    "log-file",
				Usage:   "path to log file (defaults to <data-dir>/battle.log)",
				Sources: cli.EnvVars("BATTLE_LOG_FILE"),
			},
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "path to settings file",
				Sources: cli.EnvVars("BATTLE_CONFIG"),
				Value:   "~/.config/battle/config.yaml",
			},
			&cli.StringFlag{
				Name:    "data-dir",
				Usage:   "path to data directory",
				Sources: cli.EnvVars("BATTLE_DATA_DIR"),
				Value:   "~/.local/share/battle",
			},
			&cli.StringFlag{
				Name:    "workspace",
				Aliases: []string{"w"},
				Usage:   "workspace folder (defaults to the current directory)",
				Sources: cli.EnvVars("BATTLE_WORKSPACE"),
			},
		},
	}

	root = commands.NewConfigCmd(flags, app).Register(root)
	root = commands.NewHistoryCmd(flags, app).Register(root)
	root = commands.NewGenerateCmd(flags, app).Register(root)
	root = commands.NewActionCmd(flags, app).Register(root)
	root = commands.NewGroupCmd(flags, app).Register(root)
	root = commands.NewTodoCmd(flags, app).Register(root)
	root = commands.NewWatchCmd(flags, app).Register(root)
	root = commands.NewDoctorCmd(flags, app).Register(root)

	md, err := docs.ToMarkdown(root)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error generating docs: %v\n", err)
		os.Exit(1)
	}

	outPath := "docs/cli-reference.md"
	if len(os.Args) > 1 {
		outPath = os.Args[1]
	}

	if err := os.WriteFile(outPath, []byte(md), 0o644); err != nil {
		fmt.Fprintf(os.Stderr, "error writing %s: %v\n", outPath, err)
		os.Exit(1)
	}

	fmt.Printf("Generated %s\n", outPath)
}

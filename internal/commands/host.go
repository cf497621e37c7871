package commands

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"regexp"
	"sync/atomic"

	"github.com/charmbracelet/huh"
	"github.com/hay-kot/battle/internal/core/battle"
	"github.com/hay-kot/battle/internal/core/notify"
	"github.com/hay-kot/battle/internal/core/styles"
	"github.com/hay-kot/battle/internal/launchpad"
	"github.com/rs/zerolog"
	"golang.org/x/term"
)

// ErrNotInteractive is returned by prompts when stdin is not a terminal.
var ErrNotInteractive = errors.New("stdin is not a terminal; pass the value as an argument")

// isTerminalFunc reports whether fd is a terminal. Overridden in tests.
var isTerminalFunc = term.IsTerminal

// NewHost returns the collaborators used when battle runs from a shell.
func NewHost(w io.Writer, log zerolog.Logger) launchpad.Host {
	return launchpad.Host{
		Picker:   &terminalPicker{},
		Notifier: &stderrNotifier{w: w, log: log},
		Invoker:  &logInvoker{log: log},
		Signaler: &cliSignaler{log: log},
	}
}

// terminalPicker prompts with a huh select.
type terminalPicker struct{}

func (p *terminalPicker) Pick(ctx context.Context, title string, options []launchpad.Option) (string, bool, error) {
	if !isTerminalFunc(int(os.Stdin.Fd())) {
		return "", false, ErrNotInteractive
	}
	if len(options) == 0 {
		return "", false, nil
	}

	opts := make([]huh.Option[string], 0, len(options))
	for _, o := range options {
		opts = append(opts, huh.NewOption(o.Label, o.Value))
	}

	var value string
	err := huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[string]().
				Title(title).
				Options(opts...).
				Value(&value),
		),
	).WithTheme(styles.FormTheme()).RunWithContext(ctx)
	if errors.Is(err, huh.ErrUserAborted) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return value, true, nil
}

var hexColor = regexp.MustCompile(`^#[0-9a-fA-F]{6}$`)

// promptColor asks for a #rrggbb colour.
func promptColor(ctx context.Context) (string, bool, error) {
	if !isTerminalFunc(int(os.Stdin.Fd())) {
		return "", false, ErrNotInteractive
	}

	var value string
	err := huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Custom colour").
				Placeholder("#rrggbb").
				Validate(func(s string) error {
					if !hexColor.MatchString(s) {
						return errors.New("expected #rrggbb")
					}
					return nil
				}).
				Value(&value),
		),
	).WithTheme(styles.FormTheme()).RunWithContext(ctx)
	if errors.Is(err, huh.ErrUserAborted) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return value, true, nil
}

// stderrNotifier prints notifications on stderr and mirrors them to the log.
// While muted only the log receives them; the watch view renders its own
// toasts.
type stderrNotifier struct {
	w     io.Writer
	log   zerolog.Logger
	muted atomic.Bool
}

// muteNotifications stops host notifications from reaching the terminal and
// returns a func restoring them.
func muteNotifications(h launchpad.Host) func() {
	n, ok := h.Notifier.(*stderrNotifier)
	if !ok {
		return func() {}
	}
	n.muted.Store(true)
	return func() { n.muted.Store(false) }
}

func (n *stderrNotifier) Notify(level notify.Level, msg string) {
	if n.muted.Load() {
		n.log.Info().Str("level", string(level)).Msg(msg)
		return
	}

	switch level {
	case notify.LevelError:
		n.log.Error().Msg(msg)
		_, _ = fmt.Fprintln(n.w, styles.TextErrorStyle.Render(styles.IconFail+" "+msg))
	case notify.LevelWarning:
		n.log.Warn().Msg(msg)
		_, _ = fmt.Fprintln(n.w, styles.TextWarningStyle.Render(styles.IconWarn+" "+msg))
	default:
		n.log.Info().Msg(msg)
		_, _ = fmt.Fprintln(n.w, styles.TextMutedStyle.Render(msg))
	}
}

// logInvoker records host command requests. Outside the editor there is no
// command registry to run them against.
type logInvoker struct {
	log zerolog.Logger
}

func (i *logInvoker) Invoke(_ context.Context, id string) error {
	i.log.Info().Str("command", id).Msg("host command requested outside the editor")
	return nil
}

// cliSignaler rejects action types that only an editor host can run.
type cliSignaler struct {
	log zerolog.Logger
}

func (s *cliSignaler) Signal(_ context.Context, a battle.Action) error {
	s.log.Debug().Str("action", a.Name).Str("type", a.Type).Msg("action signaled")
	return fmt.Errorf("%s actions can only run inside the editor", a.Type)
}

package launchpad

import (
	"context"

	"github.com/hay-kot/battle/internal/core/battle"
	"github.com/hay-kot/battle/internal/core/notify"
)

// Option is one labeled choice offered by a Picker.
type Option struct {
	Label string
	Value string
}

// Picker asks the user to pick one of several options. ok is false when the
// user dismissed the prompt.
type Picker interface {
	Pick(ctx context.Context, title string, options []Option) (value string, ok bool, err error)
}

// Notifier shows a transient message. It is fire and forget.
type Notifier interface {
	Notify(level notify.Level, msg string)
}

// CommandInvoker runs a host command by id.
type CommandInvoker interface {
	Invoke(ctx context.Context, id string) error
}

// ActionSignaler hands an action to the host for execution, for action types
// the core cannot run itself (tasks, launch configurations, host commands).
type ActionSignaler interface {
	Signal(ctx context.Context, action battle.Action) error
}

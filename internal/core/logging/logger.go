// Package logging provides component-scoped zerolog loggers.
package logging

import (
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Component creates a new logger with a component identifier derived from
// the global logger. Uses the "cmp" key for consistency with zerolog conventions.
func Component(name string) zerolog.Logger {
	return For(log.Logger, name)
}

// For tags an injected logger with a component identifier and the context hook.
func For(l zerolog.Logger, name string) zerolog.Logger {
	return l.With().Str("cmp", name).Logger().Hook(ContextHook{})
}

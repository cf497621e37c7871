package logging

import "github.com/rs/zerolog"

// ContextHook copies fields added with Annotate onto events logged with
// Ctx. Empty values are skipped.
type ContextHook struct{}

func (ContextHook) Run(e *zerolog.Event, _ zerolog.Level, _ string) {
	for _, f := range fieldsFrom(e.GetCtx()) {
		if f.value != "" {
			e.Str(f.key, f.value)
		}
	}
}

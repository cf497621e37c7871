package eventbus

import (
	"fmt"

	"github.com/rs/zerolog"
)

// LogObserver writes bus traffic to a zerolog logger. Publishes are logged
// at debug with the fields that identify the payload; drops are warnings
// since a dropped config.changed leaves the view stale until the next write.
type LogObserver struct {
	Logger zerolog.Logger
}

func (l LogObserver) Published(event Event, payload any) {
	ev := l.Logger.Debug().Str("event", string(event))
	describe(ev, payload).Msg("event published")
}

func (l LogObserver) Dropped(event Event, payload any) {
	ev := l.Logger.Warn().Str("event", string(event))
	describe(ev, payload).Msg("event dropped, bus buffer full")
}

func (l LogObserver) Recovered(event Event, payload any, v any) {
	ev := l.Logger.Error().Str("event", string(event)).Str("panic", fmt.Sprint(v))
	describe(ev, payload).Msg("subscriber panicked")
}

func describe(ev *zerolog.Event, payload any) *zerolog.Event {
	switch p := payload.(type) {
	case ConfigChangedPayload:
		return ev.Str("path", p.Path).Str("reason", string(p.Reason))
	case ConfigGeneratedPayload:
		return ev.Str("path", p.Path).Int("actions", p.Actions).Int("groups", p.Groups)
	case ActionTriggeredPayload:
		return ev.Str("action", p.Action.Name).Str("type", string(p.Action.Type)).Str("source", p.Source)
	case TodoCompletedPayload:
		ev = ev.Str("list", p.ListID).Str("todo", p.TodoID)
		if p.Then != nil {
			ev = ev.Str("then", string(p.Then.Kind))
		}
		return ev
	case NotificationPublishedPayload:
		return ev.Str("level", string(p.Level))
	default:
		return ev
	}
}

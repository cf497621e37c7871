package eventbus

import (
	"fmt"

	"github.com/hay-kot/battle/internal/core/notify"
)

// NotificationRouter maps domain events to user-facing notifications.
type NotificationRouter struct {
	bus *EventBus
}

// NewNotificationRouter constructs a router for event-to-notification mappings.
func NewNotificationRouter(bus *EventBus) *NotificationRouter {
	return &NotificationRouter{bus: bus}
}

// Register subscribes all supported event mappings.
func (r *NotificationRouter) Register() {
	if r == nil || r.bus == nil {
		return
	}

	r.bus.SubscribeConfigChanged(func(p ConfigChangedPayload) {
		switch p.Reason {
		case ReasonExternal:
			r.notifyf(notify.LevelInfo, "%s changed on disk", p.Path)
		case ReasonDelete:
			r.notifyf(notify.LevelWarning, "launchpad config deleted (%s)", p.Path)
		case ReasonRestore:
			r.notifyf(notify.LevelInfo, "restored a previous version of %s", p.Path)
		case ReasonRelocate:
			r.notifyf(notify.LevelInfo, "config location is now %s", p.Path)
		}
	})

	r.bus.SubscribeConfigGenerated(func(p ConfigGeneratedPayload) {
		r.notifyf(notify.LevelInfo, "generated %d actions in %d groups", p.Actions, p.Groups)
	})

	r.bus.SubscribeTodoCompleted(func(p TodoCompletedPayload) {
		r.notifyf(notify.LevelInfo, "completed %q", p.Title)
	})
}

func (r *NotificationRouter) notifyf(level notify.Level, format string, args ...any) {
	r.bus.PublishNotificationPublished(NotificationPublishedPayload{
		Level:   level,
		Message: fmt.Sprintf(format, args...),
	})
}

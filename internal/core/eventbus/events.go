// Package eventbus provides a typed publish/subscribe event bus for
// cross-component communication within battle.
package eventbus

import (
	"github.com/hay-kot/battle/internal/core/battle"
	"github.com/hay-kot/battle/internal/core/notify"
	"github.com/hay-kot/battle/internal/core/todo"
)

// Event names a bus topic.
type Event string

// Keep list sorted A-Z
const (
	EventActionTriggered       Event = "action.triggered"
	EventConfigChanged         Event = "config.changed"
	EventConfigGenerated       Event = "config.generated"
	EventNotificationPublished Event = "notification.published"
	EventTodoCompleted         Event = "todo.completed"
)

// ChangeReason says why the launchpad document changed.
type ChangeReason string

const (
	ReasonWrite    ChangeReason = "write"
	ReasonDelete   ChangeReason = "delete"
	ReasonRestore  ChangeReason = "restore"
	ReasonExternal ChangeReason = "external"
	ReasonRelocate ChangeReason = "relocate"
)

// ConfigChangedPayload is emitted after the document is written, deleted,
// restored, relocated or changed on disk by someone else. Subscribers must
// re-read the document; the payload carries no content.
type ConfigChangedPayload struct {
	Path   string
	Reason ChangeReason
}

// ConfigGeneratedPayload is emitted after the generator writes a document.
type ConfigGeneratedPayload struct {
	Path    string
	Actions int
	Groups  int
}

// ActionTriggeredPayload is emitted when an action is run or signaled.
type ActionTriggeredPayload struct {
	Action battle.Action
	Source string
}

// TodoCompletedPayload is emitted on a todo's false to true completion.
type TodoCompletedPayload struct {
	ListID string
	TodoID string
	Title  string
	Then   *todo.Directive
}

// NotificationPublishedPayload is emitted for user-facing notifications.
type NotificationPublishedPayload struct {
	Level   notify.Level
	Message string
}

package tui

import (
	"fmt"
	"testing"
	"time"

	"github.com/hay-kot/battle/internal/core/notify"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fixedTray(at time.Time) *noticeTray {
	t := newNoticeTray()
	t.now = func() time.Time { return at }
	return t
}

func TestNoticeTray_PushStartsTicking(t *testing.T) {
	tray := fixedTray(time.Now())

	assert.NotNil(t, tray.Push(notify.Notification{Level: notify.LevelInfo, Message: "a"}))
	assert.Nil(t, tray.Push(notify.Notification{Level: notify.LevelInfo, Message: "b"}), "already ticking")
	assert.True(t, tray.ticking)
}

func TestNoticeTray_CollapsesRepeats(t *testing.T) {
	tray := fixedTray(time.Now())

	for range 3 {
		tray.Push(notify.Notification{Level: notify.LevelInfo, Message: "battle.json changed on disk"})
	}

	require.Len(t, tray.items, 1)
	assert.Contains(t, tray.View(), "battle.json changed on disk (x3)")
}

func TestNoticeTray_KeepsNewest(t *testing.T) {
	tray := fixedTray(time.Now())

	for i := range maxNotices + 2 {
		tray.Push(notify.Notification{Level: notify.LevelInfo, Message: fmt.Sprint(i)})
	}

	require.Len(t, tray.items, maxNotices)
	assert.Equal(t, "2", tray.items[0].Message)
}

func TestNoticeTray_Expire(t *testing.T) {
	start := time.Now()
	tray := fixedTray(start)
	tray.Push(notify.Notification{Level: notify.LevelInfo, Message: "expires"})
	tray.Push(notify.Notification{Level: notify.LevelError, Message: "survives"})

	assert.NotNil(t, tray.Expire(start.Add(noticeTTL)))
	require.Len(t, tray.items, 1)
	assert.Equal(t, "survives", tray.items[0].Message)

	assert.Nil(t, tray.Expire(start.Add(errorNoticeTTL)))
	assert.True(t, tray.Empty())
	assert.False(t, tray.ticking)
}

func TestNoticeTray_DismissAndView(t *testing.T) {
	tray := fixedTray(time.Now())
	tray.Dismiss()
	assert.True(t, tray.Empty())
	assert.Empty(t, tray.View())

	tray.Push(notify.Notification{Level: notify.LevelWarning, Message: "first"})
	tray.Push(notify.Notification{Level: notify.LevelInfo, Message: "second"})
	assert.Contains(t, tray.View(), "first")

	tray.Dismiss()
	assert.NotContains(t, tray.View(), "second")
	assert.False(t, tray.Empty())
}

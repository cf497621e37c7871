package tui

import (
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/hay-kot/battle/internal/core/notify"
	"github.com/hay-kot/battle/internal/core/styles"
)

const (
	noticeTTL      = 4 * time.Second
	errorNoticeTTL = 8 * time.Second
	maxNotices     = 3
	noticeInterval = 100 * time.Millisecond
)

type noticeTickMsg time.Time

type notice struct {
	notify.Notification
	repeats int
	expires time.Time
}

// noticeTray holds the notifications shown under the action list. A
// notification equal to the newest one extends it and bumps a repeat
// counter instead of taking another line, so a burst of external edits
// shows as one entry.
type noticeTray struct {
	now     func() time.Time
	items   []notice
	ticking bool
}

func newNoticeTray() *noticeTray {
	return &noticeTray{now: time.Now}
}

func ttlFor(level notify.Level) time.Duration {
	if level == notify.LevelError {
		return errorNoticeTTL
	}
	return noticeTTL
}

// Push shows n and returns the command that starts expiry ticks, or nil
// when ticks are already running.
func (t *noticeTray) Push(n notify.Notification) tea.Cmd {
	expires := t.now().Add(ttlFor(n.Level))

	if last := len(t.items) - 1; last >= 0 && t.items[last].Level == n.Level && t.items[last].Message == n.Message {
		t.items[last].repeats++
		t.items[last].expires = expires
	} else {
		t.items = append(t.items, notice{Notification: n, expires: expires})
		if len(t.items) > maxNotices {
			t.items = t.items[len(t.items)-maxNotices:]
		}
	}

	if t.ticking {
		return nil
	}
	t.ticking = true
	return tick()
}

// Expire drops notices past their deadline at now. It returns the next
// tick while notices remain.
func (t *noticeTray) Expire(now time.Time) tea.Cmd {
	alive := t.items[:0]
	for _, n := range t.items {
		if now.Before(n.expires) {
			alive = append(alive, n)
		}
	}
	t.items = alive

	if len(t.items) == 0 {
		t.ticking = false
		return nil
	}
	return tick()
}

// Dismiss removes the newest notice.
func (t *noticeTray) Dismiss() {
	if len(t.items) > 0 {
		t.items = t.items[:len(t.items)-1]
	}
}

func (t *noticeTray) Empty() bool { return len(t.items) == 0 }

func (t *noticeTray) View() string {
	lines := make([]string, 0, len(t.items))
	for _, n := range t.items {
		msg := n.Message
		if n.repeats > 0 {
			msg = fmt.Sprintf("%s (x%d)", msg, n.repeats+1)
		}
		switch n.Level {
		case notify.LevelError:
			lines = append(lines, styles.TextErrorStyle.Render(styles.IconFail+" "+msg))
		case notify.LevelWarning:
			lines = append(lines, styles.TextWarningStyle.Render(styles.IconWarn+" "+msg))
		default:
			lines = append(lines, styles.TextMutedStyle.Render(msg))
		}
	}
	return strings.Join(lines, "\n")
}

func tick() tea.Cmd {
	return tea.Tick(noticeInterval, func(at time.Time) tea.Msg { return noticeTickMsg(at) })
}

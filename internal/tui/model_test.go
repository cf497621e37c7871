package tui

import (
	"context"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/hay-kot/battle/internal/core/battle"
	"github.com/hay-kot/battle/internal/core/config"
	"github.com/hay-kot/battle/internal/core/notify"
	"github.com/hay-kot/battle/internal/core/todo"
	"github.com/hay-kot/battle/internal/launchpad"
	"github.com/hay-kot/battle/pkg/tuitest"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestModel(t *testing.T) *Model {
	t.Helper()
	settings := config.DefaultConfig()
	settings.DataDir = t.TempDir()

	app := launchpad.NewApp(t.TempDir(), &settings, launchpad.Host{}, zerolog.Nop())
	t.Cleanup(func() { _ = app.Close() })

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	m := New(ctx, app)
	t.Cleanup(m.bridge.Close)
	return m
}

func send(m *Model, msgs ...tea.Msg) tea.Cmd {
	var cmd tea.Cmd
	for _, msg := range msgs {
		_, cmd = m.Update(msg)
	}
	return cmd
}

func TestModel_LoadingUntilFirstUpdate(t *testing.T) {
	m := newTestModel(t)
	send(m, tuitest.WindowSize(120, 40))
	assert.Contains(t, m.View(), "loading")

	send(m, updateMsg{Kind: launchpad.KindFullRender, Mode: launchpad.ModeMain, Config: layoutConfig()})
	view := tuitest.StripANSI(m.View())
	assert.NotContains(t, view, "loading")
	assert.Contains(t, view, "build")
	assert.NotContains(t, view, "secret")
}

func TestModel_CursorFollowsActionAcrossPatches(t *testing.T) {
	m := newTestModel(t)
	cfg := layoutConfig()
	send(m, updateMsg{Kind: launchpad.KindFullRender, Config: cfg})

	send(m, tuitest.Key("j"))
	r, ok := m.selected()
	require.True(t, ok)
	assert.Equal(t, "loose", r.action.Name)

	// a new action lands above the selection
	cfg.Actions = append([]battle.Action{{Name: "new", Command: "n", Group: "Dev"}}, cfg.Actions...)
	send(m, updateMsg{Kind: launchpad.KindPatch, Config: cfg})

	r, ok = m.selected()
	require.True(t, ok)
	assert.Equal(t, "loose", r.action.Name)

	// the selected action disappears
	cfg.Actions = cfg.Actions[:1]
	send(m, updateMsg{Kind: launchpad.KindPatch, Config: cfg})
	r, ok = m.selected()
	require.True(t, ok)
	assert.Equal(t, "new", r.action.Name)
}

func TestModel_ShowHiddenDisplay(t *testing.T) {
	m := newTestModel(t)
	send(m, updateMsg{Kind: launchpad.KindFullRender, Config: layoutConfig(), Display: launchpad.Display{ShowHidden: true}})

	assert.Contains(t, m.View(), "secret")
	assert.Contains(t, m.statusLine(), "showing hidden")
}

func TestModel_RunAction(t *testing.T) {
	m := newTestModel(t)
	cfg := battle.Config{Actions: []battle.Action{{Name: "Hello", Command: "echo hello", Type: battle.TypeShell}}}
	require.NoError(t, m.app.Store.Write(context.Background(), cfg))
	send(m, updateMsg{Kind: launchpad.KindFullRender, Config: cfg})

	cmd := send(m, tuitest.Key("enter"))
	require.NotNil(t, cmd)
	assert.Contains(t, m.statusLine(), "running Hello")

	msg := cmd()
	require.IsType(t, resultMsg{}, msg)
	assert.NoError(t, msg.(resultMsg).err)
	assert.Equal(t, "Hello finished: hello", msg.(resultMsg).label)

	send(m, msg)
	assert.Empty(t, m.busy)
	require.False(t, m.notices.Empty())
}

func TestModel_TodoFocus(t *testing.T) {
	m := newTestModel(t)
	ctx := context.Background()

	item, err := m.app.Todos.Add(ctx, "", todo.Todo{Title: "write tests"})
	require.NoError(t, err)
	cfg := m.app.Store.Read(ctx)
	send(m, updateMsg{Kind: launchpad.KindFullRender, Config: cfg})
	assert.Contains(t, m.View(), "write tests")

	send(m, tuitest.Key("tab"))
	assert.Equal(t, focusTodos, m.focus)

	cmd := send(m, tuitest.Key("x"))
	require.NotNil(t, cmd)
	assert.Nil(t, cmd())

	l, err := m.app.Todos.List(ctx, "")
	require.NoError(t, err)
	assert.True(t, l.Todos[item.ID].Completed)

	send(m, tuitest.Key("tab"))
	assert.Equal(t, focusActions, m.focus)
}

func TestModel_Notifications(t *testing.T) {
	m := newTestModel(t)

	cmd := send(m, notificationMsg{Level: notify.LevelError, Message: "boom"})
	require.NotNil(t, cmd)
	assert.True(t, m.notices.ticking)

	send(m, updateMsg{Kind: launchpad.KindFullRender, Config: battle.Empty()})
	assert.Contains(t, m.View(), "boom")

	send(m, tuitest.Key("esc"))
	assert.True(t, m.notices.Empty())
	send(m, noticeTickMsg(time.Now()))
	assert.False(t, m.notices.ticking)
}

func TestModel_Quit(t *testing.T) {
	m := newTestModel(t)
	cmd := send(m, tuitest.Key("q"))
	require.NotNil(t, cmd)
	assert.IsType(t, tea.QuitMsg{}, cmd())
}

func TestLatestKeepsNewest(t *testing.T) {
	ch := make(chan launchpad.Update, 1)
	sink := latest(ch)

	sink(launchpad.Update{Mode: launchpad.ModeLoading})
	sink(launchpad.Update{Mode: launchpad.ModeMain})

	assert.Equal(t, launchpad.ModeMain, (<-ch).Mode)
}

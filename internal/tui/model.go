// Package tui implements the live launchpad view: the action list and the
// active todo list, repainted from view bridge updates.
package tui

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/hay-kot/battle/internal/core/battle"
	"github.com/hay-kot/battle/internal/core/eventbus"
	"github.com/hay-kot/battle/internal/core/notify"
	"github.com/hay-kot/battle/internal/core/todo"
	"github.com/hay-kot/battle/internal/launchpad"
)

type focus int

const (
	focusActions focus = iota
	focusTodos
)

type (
	updateMsg       launchpad.Update
	notificationMsg notify.Notification
	// resultMsg reports a finished background operation.
	resultMsg struct {
		label string
		err   error
	}
)

// Model is the bubbletea model of the watch view.
type Model struct {
	ctx     context.Context
	app     *launchpad.App
	bridge  *launchpad.Bridge
	updates chan launchpad.Update
	notes   chan notify.Notification

	cfg     battle.Config
	display launchpad.Display
	status  *launchpad.Status
	ready   bool

	rows   []row
	cursor int

	focus      focus
	todoCursor int

	busy    string
	notices *noticeTray
	width   int
	height  int
}

// New creates the model and its bridge. The first render follows once the
// bridge's debounce window passes.
func New(ctx context.Context, app *launchpad.App) *Model {
	m := &Model{
		ctx:     ctx,
		app:     app,
		updates: make(chan launchpad.Update, 1),
		notes:   make(chan notify.Notification, 16),
		cursor:  -1,
		notices: newNoticeTray(),
	}

	m.bridge = app.NewBridge(latest(m.updates))
	app.Bus.SubscribeNotificationPublished(func(p eventbus.NotificationPublishedPayload) {
		select {
		case m.notes <- notify.Notification{Level: p.Level, Message: p.Message, CreatedAt: time.Now()}:
		default:
		}
	})

	m.bridge.SetMode(launchpad.ModeMain)
	return m
}

// Run starts the watch view and blocks until the user quits.
func Run(ctx context.Context, app *launchpad.App) error {
	m := New(ctx, app)
	defer m.bridge.Close()

	_, err := tea.NewProgram(m,
		tea.WithAltScreen(),
		tea.WithReportFocus(),
		tea.WithContext(ctx),
	).Run()
	return err
}

// latest returns a sink that keeps only the newest update in ch.
func latest(ch chan launchpad.Update) func(launchpad.Update) {
	return func(u launchpad.Update) {
		for {
			select {
			case ch <- u:
				return
			default:
			}
			select {
			case <-ch:
			default:
			}
		}
	}
}

func (m *Model) Init() tea.Cmd {
	return tea.Batch(m.waitForUpdate(), m.waitForNotification())
}

func (m *Model) waitForUpdate() tea.Cmd {
	return func() tea.Msg {
		select {
		case u := <-m.updates:
			return updateMsg(u)
		case <-m.ctx.Done():
			return nil
		}
	}
}

func (m *Model) waitForNotification() tea.Cmd {
	return func() tea.Msg {
		select {
		case n := <-m.notes:
			return notificationMsg(n)
		case <-m.ctx.Done():
			return nil
		}
	}
}

func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case updateMsg:
		m.apply(launchpad.Update(msg))
		return m, m.waitForUpdate()

	case notificationMsg:
		return m, tea.Batch(m.notices.Push(notify.Notification(msg)), m.waitForNotification())

	case noticeTickMsg:
		return m, m.notices.Expire(time.Time(msg))

	case resultMsg:
		m.busy = ""
		if msg.err != nil {
			return m, m.notices.Push(notify.Notification{Level: notify.LevelError, Message: fmt.Sprintf("%s: %v", msg.label, msg.err)})
		}
		if msg.label == "" {
			return m, nil
		}
		return m, m.notices.Push(notify.Notification{Level: notify.LevelInfo, Message: msg.label})

	case tea.FocusMsg:
		m.bridge.SetVisible(true)
		return m, nil

	case tea.BlurMsg:
		m.bridge.SetVisible(false)
		return m, nil

	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)
	}

	return m, nil
}

// apply takes in a bridge update. Patches keep the selection on the same
// action; full renders reset it when the action is gone.
func (m *Model) apply(u launchpad.Update) {
	var selected *row
	if m.cursor >= 0 && m.cursor < len(m.rows) {
		r := m.rows[m.cursor]
		selected = &r
	}

	m.cfg = u.Config
	m.display = u.Display
	if u.Status != nil {
		m.status = u.Status
	}
	m.ready = true
	m.rows = buildRows(m.cfg, m.display.ShowHidden)

	m.cursor = -1
	if selected != nil {
		m.cursor = locate(m.rows, selected.action.Key(), selected.index)
	}
	if m.cursor < 0 {
		m.cursor = firstAction(m.rows)
	}

	if n := len(m.activeTodos()); m.todoCursor >= n {
		m.todoCursor = max(n-1, 0)
	}
}

func (m *Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c", "q":
		m.bridge.Close()
		return m, tea.Quit
	case "tab":
		if m.focus == focusActions && len(m.activeTodos()) > 0 {
			m.focus = focusTodos
		} else {
			m.focus = focusActions
		}
		return m, nil
	case ".":
		m.bridge.SetShowHidden(!m.display.ShowHidden)
		return m, nil
	case "esc":
		m.notices.Dismiss()
		return m, nil
	case "g":
		return m, m.generate()
	}

	if m.focus == focusTodos {
		return m.handleTodoKey(msg)
	}
	return m.handleActionKey(msg)
}

func (m *Model) handleActionKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "up", "k":
		m.cursor = nextAction(m.rows, m.cursor, -1)
	case "down", "j":
		m.cursor = nextAction(m.rows, m.cursor, 1)
	case "enter":
		if r, ok := m.selected(); ok {
			return m, m.run(r)
		}
	case "h":
		if r, ok := m.selected(); ok {
			return m, m.toggleHidden(r)
		}
	}
	return m, nil
}

func (m *Model) handleTodoKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	items := m.activeTodos()
	switch msg.String() {
	case "up", "k":
		if m.todoCursor > 0 {
			m.todoCursor--
		}
	case "down", "j":
		if m.todoCursor < len(items)-1 {
			m.todoCursor++
		}
	case " ", "space", "enter", "x":
		if m.todoCursor < len(items) {
			return m, m.toggleTodo(items[m.todoCursor])
		}
	}
	return m, nil
}

func (m *Model) selected() (row, bool) {
	if m.cursor < 0 || m.cursor >= len(m.rows) || m.rows[m.cursor].kind != rowAction {
		return row{}, false
	}
	return m.rows[m.cursor], true
}

func (m *Model) activeTodos() []todo.Item {
	l, ok := m.cfg.TodoLists[m.cfg.ActiveTodoList]
	if !ok {
		return nil
	}
	return l.Sorted()
}

func (m *Model) run(r row) tea.Cmd {
	m.busy = r.action.Name
	ref := launchpad.ActionRef{Index: r.index, Key: r.action.Key()}
	return func() tea.Msg {
		var out bytes.Buffer
		err := m.app.Actions.Run(m.ctx, ref, &out, &out)
		label := r.action.Name + " finished"
		if line := lastLine(out.String()); line != "" {
			label += ": " + line
		}
		return resultMsg{label: label, err: err}
	}
}

func (m *Model) toggleHidden(r row) tea.Cmd {
	ref := launchpad.ActionRef{Index: r.index, Key: r.action.Key()}
	hidden := !r.action.Hidden
	return func() tea.Msg {
		err := m.app.Actions.SetHidden(m.ctx, ref, hidden)
		verb := "shown"
		if hidden {
			verb = "hidden"
		}
		return resultMsg{label: r.action.Name + " " + verb, err: err}
	}
}

func (m *Model) toggleTodo(item todo.Item) tea.Cmd {
	done := !item.Completed
	return func() tea.Msg {
		err := m.app.Todos.SetCompleted(m.ctx, "", item.ID, done)
		if err != nil {
			return resultMsg{label: item.Title, err: err}
		}
		return nil
	}
}

func (m *Model) generate() tea.Cmd {
	m.busy = "generate"
	return func() tea.Msg {
		_, err := m.app.Generator.Generate(m.ctx, m.app.GenerateOptions(m.ctx))
		if err != nil {
			return resultMsg{label: "generate", err: err}
		}
		return resultMsg{}
	}
}

func lastLine(s string) string {
	lines := strings.Split(strings.TrimRight(s, "\n"), "\n")
	return strings.TrimSpace(lines[len(lines)-1])
}

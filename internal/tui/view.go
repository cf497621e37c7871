package tui

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/hay-kot/battle/internal/core/battle"
	"github.com/hay-kot/battle/internal/core/styles"
)

const helpText = "enter run · h hide · . show hidden · g generate · tab todos · q quit"

func (m *Model) View() string {
	var b strings.Builder

	b.WriteString(styles.HeaderStyle.Render("battle · " + filepath.Base(m.app.Workspace)))
	b.WriteString("\n")

	if !m.ready {
		b.WriteString(styles.TextMutedStyle.Render("loading…"))
		return b.String()
	}

	list := m.renderActions()
	if todos := m.renderTodos(); todos != "" {
		list = lipgloss.JoinHorizontal(lipgloss.Top, list, "  ", styles.PanelStyle.Render(todos))
	}
	b.WriteString(list)
	b.WriteString("\n")

	b.WriteString(styles.StatusBarStyle.Render(m.statusLine()))
	if !m.notices.Empty() {
		b.WriteString("\n")
		b.WriteString(m.notices.View())
	}
	b.WriteString("\n")
	b.WriteString(styles.TextMutedStyle.Render(helpText))
	return b.String()
}

func (m *Model) renderActions() string {
	if len(m.rows) == 0 {
		return styles.TextMutedStyle.Render("No actions. Press g to generate a launchpad.")
	}

	lines := make([]string, 0, len(m.rows))
	for i, r := range m.rows {
		if r.kind == rowHeader {
			lines = append(lines, styles.GroupStyle(r.group.Name, r.group.Color).Render(r.group.Name))
			continue
		}

		cursor := "  "
		if i == m.cursor && m.focus == focusActions {
			cursor = styles.TextPrimaryStyle.Render(styles.IconActive + " ")
		}

		name := styles.ActionStyle.Render(r.action.Name)
		if r.hidden {
			name = styles.ActionHiddenStyle.Render(styles.IconHidden + " " + r.action.Name)
		}
		icon := battle.IconFor(m.cfg.Icons, r.action.Type)
		lines = append(lines, fmt.Sprintf("%s%s %s", cursor, name, styles.CommandStyle.Render("["+icon+"] "+r.action.Command)))
	}
	return strings.Join(lines, "\n")
}

func (m *Model) renderTodos() string {
	l, ok := m.cfg.TodoLists[m.cfg.ActiveTodoList]
	if !ok {
		return ""
	}

	lines := []string{styles.GroupHeaderStyle.Render(l.Name)}
	for i, item := range l.Sorted() {
		cursor := "  "
		if i == m.todoCursor && m.focus == focusTodos {
			cursor = styles.TextPrimaryStyle.Render(styles.IconActive + " ")
		}
		if item.Completed {
			lines = append(lines, cursor+styles.TodoDoneStyle.Render(styles.IconDone+" "+item.Title))
		} else {
			lines = append(lines, cursor+styles.TodoOpenStyle.Render(styles.IconTodo+" "+item.Title))
		}
	}
	return strings.Join(lines, "\n")
}

func (m *Model) statusLine() string {
	parts := []string{fmt.Sprintf("%d actions", len(m.cfg.Actions))}
	if m.status != nil {
		switch {
		case m.status.Err != nil && m.status.Exists:
			parts = append(parts, styles.TextErrorStyle.Render("invalid config: "+m.status.Err.Error()))
		case m.status.Exists:
			parts = append(parts, m.status.Location.Path)
		default:
			parts = append(parts, "no config yet")
		}
	}
	if m.display.ShowHidden {
		parts = append(parts, "showing hidden")
	}
	if m.busy != "" {
		parts = append(parts, "running "+m.busy+"…")
	}
	return strings.Join(parts, " · ")
}

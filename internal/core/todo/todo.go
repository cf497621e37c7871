// Package todo defines the todo list domain model stored alongside the
// launchpad actions.
package todo

import (
	"errors"
	"sort"
)

var (
	// ErrListNotFound is returned when a todo list does not exist.
	ErrListNotFound = errors.New("todo list not found")
	// ErrTodoNotFound is returned when a todo item does not exist.
	ErrTodoNotFound = errors.New("todo item not found")
)

// DefaultListID is the list legacy single-map todos are migrated into.
const DefaultListID = "default"

// Todo is a single item. Items are keyed by id inside their List.
type Todo struct {
	Title       string     `json:"title"`
	Description string     `json:"description"`
	Completed   bool       `json:"completed"`
	Order       int        `json:"order"`
	Then        *Directive `json:"then,omitempty"`
}

// Group is the legacy single todo map (id -> Todo).
type Group map[string]Todo

// List is a named todo list.
type List struct {
	ID    string          `json:"id"`
	Name  string          `json:"name"`
	Todos map[string]Todo `json:"todos"`
	Icon  string          `json:"icon,omitempty"`
}

// Item pairs a Todo with its id for ordered presentation.
type Item struct {
	ID string `json:"id"`
	Todo
}

// Sorted returns the list's todos ordered by Order, then id.
func (l List) Sorted() []Item {
	items := make([]Item, 0, len(l.Todos))
	for id, t := range l.Todos {
		items = append(items, Item{ID: id, Todo: t})
	}
	sort.SliceStable(items, func(i, j int) bool {
		if items[i].Order != items[j].Order {
			return items[i].Order < items[j].Order
		}
		return items[i].ID < items[j].ID
	})
	return items
}

// NextOrder returns an Order value that sorts after every existing todo.
func (l List) NextOrder() int {
	next := 0
	for _, t := range l.Todos {
		if t.Order >= next {
			next = t.Order + 1
		}
	}
	return next
}

// Clone returns a deep copy of the list.
func (l List) Clone() List {
	out := l
	if l.Todos != nil {
		out.Todos = make(map[string]Todo, len(l.Todos))
		for id, t := range l.Todos {
			out.Todos[id] = t.Clone()
		}
	}
	return out
}

// Clone returns a deep copy of the todo.
func (t Todo) Clone() Todo {
	if t.Then != nil {
		d := *t.Then
		t.Then = &d
	}
	return t
}

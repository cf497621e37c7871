// Package battle defines the launchpad document: the actions, groups and
// icon mappings persisted in battle.json, plus the todo lists layered on it.
package battle

import (
	"encoding/json"
	"strings"

	"github.com/hay-kot/battle/internal/core/todo"
)

// Well known action types. Type is free-form; scanners and users may add more.
const (
	TypeShell  = "shell"
	TypeNPM    = "npm"
	TypeVSCode = "vscode"
	TypeTask   = "task"
	TypeLaunch = "launch"
)

// Prefixes the generator gives the actions it owns. Actions whose name starts
// with one of these are replaced on regeneration; everything else is user
// authored and preserved.
const (
	PrefixNPM    = "npm: "
	PrefixTask   = "Task: "
	PrefixLaunch = "Launch: "
)

// GeneratedPrefixes lists the auto-generated name prefixes.
var GeneratedPrefixes = []string{PrefixNPM, PrefixTask, PrefixLaunch}

// Action is a runnable entry.
type Action struct {
	Name            string `json:"name"`
	Command         string `json:"command"`
	Type            string `json:"type"`
	Group           string `json:"group,omitempty"`
	Workspace       string `json:"workspace,omitempty"`
	Hidden          bool   `json:"hidden,omitempty"`
	BackgroundColor string `json:"backgroundColor,omitempty"`
	WorkspaceColor  string `json:"workspaceColor,omitempty"`
	Cwd             string `json:"cwd,omitempty"`
}

// ActionKey is the (name, command, type) triple actions are matched by.
type ActionKey struct {
	Name    string
	Command string
	Type    string
}

// Key returns the action's identity triple.
func (a Action) Key() ActionKey {
	return ActionKey{Name: a.Name, Command: a.Command, Type: a.Type}
}

// IsGenerated reports whether the action carries an auto-generated name prefix.
func (a Action) IsGenerated() bool {
	for _, p := range GeneratedPrefixes {
		if strings.HasPrefix(a.Name, p) {
			return true
		}
	}
	return false
}

// Group is a named bucket of actions.
type Group struct {
	Name            string `json:"name"`
	Icon            string `json:"icon,omitempty"`
	Color           string `json:"color,omitempty"`
	BackgroundColor string `json:"backgroundColor,omitempty"`
	BorderColor     string `json:"borderColor,omitempty"`
	Hidden          bool   `json:"hidden,omitempty"`
}

// IconMapping maps an action type to an icon identifier.
type IconMapping struct {
	Type string `json:"type"`
	Icon string `json:"icon"`
}

// Config is the persisted document.
type Config struct {
	Actions        []Action             `json:"actions"`
	Groups         []Group              `json:"groups,omitempty"`
	Icons          []IconMapping        `json:"icons,omitempty"`
	CustomColors   []string             `json:"customColors,omitempty"`
	Todos          todo.Group           `json:"todos,omitempty"`
	TodoLists      map[string]todo.List `json:"todoLists,omitempty"`
	ActiveTodoList string               `json:"activeTodoList,omitempty"`
}

// Empty returns a document with no actions.
func Empty() Config {
	return Config{Actions: []Action{}}
}

// MarshalJSON always emits an actions array, even when Actions is nil.
func (c Config) MarshalJSON() ([]byte, error) {
	type plain Config
	p := plain(c)
	if p.Actions == nil {
		p.Actions = []Action{}
	}
	return json.Marshal(p)
}

// Compact returns the canonical form of c: empty optional collections are
// nil, since they are omitted on disk, and Actions is never nil.
func (c Config) Compact() Config {
	if c.Actions == nil {
		c.Actions = []Action{}
	}
	if len(c.Groups) == 0 {
		c.Groups = nil
	}
	if len(c.Icons) == 0 {
		c.Icons = nil
	}
	if len(c.CustomColors) == 0 {
		c.CustomColors = nil
	}
	if len(c.Todos) == 0 {
		c.Todos = nil
	}
	if len(c.TodoLists) == 0 {
		c.TodoLists = nil
	}
	return c
}

// FindGroup returns the index of the named group or -1.
func (c Config) FindGroup(name string) int {
	for i, g := range c.Groups {
		if g.Name == name {
			return i
		}
	}
	return -1
}

// FindAction returns the index of the first action with the given key or -1.
func (c Config) FindAction(key ActionKey) int {
	for i, a := range c.Actions {
		if a.Key() == key {
			return i
		}
	}
	return -1
}

// FindActionByName returns the index of the first action with the given name or -1.
func (c Config) FindActionByName(name string) int {
	for i, a := range c.Actions {
		if a.Name == name {
			return i
		}
	}
	return -1
}

// VisibleActions returns actions that are not hidden and whose group is not hidden.
func (c Config) VisibleActions() []Action {
	hiddenGroups := make(map[string]bool)
	for _, g := range c.Groups {
		if g.Hidden {
			hiddenGroups[g.Name] = true
		}
	}

	out := make([]Action, 0, len(c.Actions))
	for _, a := range c.Actions {
		if a.Hidden || (a.Group != "" && hiddenGroups[a.Group]) {
			continue
		}
		out = append(out, a)
	}
	return out
}

// Clone returns a deep copy of the document.
func (c Config) Clone() Config {
	out := Config{ActiveTodoList: c.ActiveTodoList}

	if c.Actions != nil {
		out.Actions = append([]Action{}, c.Actions...)
	}
	if c.Groups != nil {
		out.Groups = append([]Group{}, c.Groups...)
	}
	if c.Icons != nil {
		out.Icons = append([]IconMapping{}, c.Icons...)
	}
	if c.CustomColors != nil {
		out.CustomColors = append([]string{}, c.CustomColors...)
	}
	if c.Todos != nil {
		out.Todos = make(todo.Group, len(c.Todos))
		for id, t := range c.Todos {
			out.Todos[id] = t.Clone()
		}
	}
	if c.TodoLists != nil {
		out.TodoLists = make(map[string]todo.List, len(c.TodoLists))
		for id, l := range c.TodoLists {
			out.TodoLists[id] = l.Clone()
		}
	}

	return out
}

// Capitalize upper-cases the first letter of s.
func Capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

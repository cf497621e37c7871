package battle

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"sort"

	"github.com/hay-kot/battle/internal/core/todo"
	"github.com/hay-kot/battle/pkg/jsonc"
)

// ErrInvalidStructure is returned when a document parses but has no actions array.
var ErrInvalidStructure = errors.New("invalid config structure: actions must be an array")

// legacyTodoListName is the display name of the list legacy todos migrate into.
const legacyTodoListName = "Todos"

// Parse decodes a document, tolerating comments and trailing commas, and
// normalizes it.
func Parse(data []byte) (Config, error) {
	var raw map[string]json.RawMessage
	if err := jsonc.Unmarshal(data, &raw); err != nil {
		return Config{}, fmt.Errorf("parse config: %w", err)
	}
	if raw == nil {
		return Config{}, ErrInvalidStructure
	}
	return Normalize(raw)
}

// Normalize builds a Config from the raw top-level fields of a document. The
// only hard requirement is that "actions" is an array; optional arrays are
// copied only when they are arrays, and individual malformed entries are
// dropped. Legacy single-map todos are migrated into a todo list.
func Normalize(raw map[string]json.RawMessage) (Config, error) {
	if !isKind(raw["actions"], '[') {
		return Config{}, ErrInvalidStructure
	}

	cfg := Config{
		Actions: decodeEach[Action](raw["actions"]),
	}

	if isKind(raw["groups"], '[') {
		cfg.Groups = decodeEach[Group](raw["groups"])
	}
	if isKind(raw["icons"], '[') {
		cfg.Icons = decodeEach[IconMapping](raw["icons"])
	}
	if isKind(raw["customColors"], '[') {
		cfg.CustomColors = decodeEach[string](raw["customColors"])
	}
	if isKind(raw["todos"], '{') {
		cfg.Todos = decodeMap[todo.Todo](raw["todos"])
	}
	if isKind(raw["todoLists"], '{') {
		lists := decodeMap[todo.List](raw["todoLists"])
		for id, l := range lists {
			if l.ID == "" {
				l.ID = id
			}
			if l.Todos == nil {
				l.Todos = map[string]todo.Todo{}
			}
			lists[id] = l
		}
		cfg.TodoLists = lists
	}
	if isKind(raw["activeTodoList"], '"') {
		_ = json.Unmarshal(raw["activeTodoList"], &cfg.ActiveTodoList)
	}

	migrateLegacyTodos(&cfg)

	return cfg.Compact(), nil
}

// migrateLegacyTodos moves the legacy single todo map into the default list
// when the document has no todo lists yet. Documents that already carry lists
// keep their legacy map untouched.
func migrateLegacyTodos(cfg *Config) {
	if len(cfg.Todos) > 0 && len(cfg.TodoLists) == 0 {
		cfg.TodoLists = map[string]todo.List{
			todo.DefaultListID: {
				ID:    todo.DefaultListID,
				Name:  legacyTodoListName,
				Todos: map[string]todo.Todo(cfg.Todos),
			},
		}
		cfg.Todos = nil
	}

	if len(cfg.TodoLists) == 0 {
		return
	}
	if _, ok := cfg.TodoLists[cfg.ActiveTodoList]; !ok {
		ids := make([]string, 0, len(cfg.TodoLists))
		for id := range cfg.TodoLists {
			ids = append(ids, id)
		}
		sort.Strings(ids)
		cfg.ActiveTodoList = ids[0]
	}
}

func isKind(raw json.RawMessage, open byte) bool {
	trimmed := bytes.TrimSpace(raw)
	return len(trimmed) > 0 && trimmed[0] == open
}

func decodeEach[T any](raw json.RawMessage) []T {
	var items []json.RawMessage
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil
	}

	out := make([]T, 0, len(items))
	for _, item := range items {
		var v T
		if err := json.Unmarshal(item, &v); err != nil {
			continue
		}
		out = append(out, v)
	}
	return out
}

func decodeMap[T any](raw json.RawMessage) map[string]T {
	var items map[string]json.RawMessage
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil
	}

	out := make(map[string]T, len(items))
	for key, item := range items {
		var v T
		if err := json.Unmarshal(item, &v); err != nil {
			continue
		}
		out[key] = v
	}
	return out
}

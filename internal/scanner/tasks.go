package scanner

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/hay-kot/battle/internal/core/battle"
)

type tasksFile struct {
	Tasks []json.RawMessage `json:"tasks"`
}

type taskDef struct {
	Label string          `json:"label"`
	Group json.RawMessage `json:"group"`
	Hide  bool            `json:"hide"`
}

// ScanTasks reads .vscode/tasks.json. A task's native group becomes the
// capitalized workspace label; hidden tasks are skipped. Each task is
// decoded on its own so one malformed entry doesn't drop the rest.
func (s *Scanner) ScanTasks(ctx context.Context) []battle.Action {
	var file tasksFile
	if !s.readJSONC(s.dotFile("tasks.json"), &file) {
		return nil
	}

	var actions []battle.Action
	for i, raw := range file.Tasks {
		var t taskDef
		if err := json.Unmarshal(raw, &t); err != nil {
			s.log.Debug().Err(err).Int("index", i).Msg("skipping malformed task")
			continue
		}
		if t.Hide || strings.TrimSpace(t.Label) == "" {
			continue
		}

		actions = append(actions, battle.Action{
			Name:      battle.PrefixTask + t.Label,
			Command:   t.Label,
			Type:      battle.TypeTask,
			Workspace: battle.Capitalize(taskGroup(t.Group)),
		})
	}
	return actions
}

// taskGroup reads a group given either as "build" or {"kind": "build"}.
func taskGroup(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}

	var name string
	if err := json.Unmarshal(raw, &name); err == nil {
		return name
	}

	var obj struct {
		Kind string `json:"kind"`
	}
	if err := json.Unmarshal(raw, &obj); err == nil {
		return obj.Kind
	}
	return ""
}

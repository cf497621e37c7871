package scanner

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/hay-kot/battle/internal/core/battle"
)

type launchFile struct {
	Configurations []json.RawMessage `json:"configurations"`
	Compounds      []json.RawMessage `json:"compounds"`
}

type launchDef struct {
	Name         string `json:"name"`
	Presentation struct {
		Hidden bool `json:"hidden"`
	} `json:"presentation"`
}

// ScanLaunch reads .vscode/launch.json, covering both configurations and
// compounds. Entries with blank names or presentation.hidden are skipped.
func (s *Scanner) ScanLaunch(ctx context.Context) []battle.Action {
	var file launchFile
	if !s.readJSONC(s.dotFile("launch.json"), &file) {
		return nil
	}

	var actions []battle.Action
	for _, raw := range append(file.Configurations, file.Compounds...) {
		var l launchDef
		if err := json.Unmarshal(raw, &l); err != nil {
			s.log.Debug().Err(err).Msg("skipping malformed launch entry")
			continue
		}
		if l.Presentation.Hidden || strings.TrimSpace(l.Name) == "" {
			continue
		}

		actions = append(actions, battle.Action{
			Name:    battle.PrefixLaunch + l.Name,
			Command: l.Name,
			Type:    battle.TypeLaunch,
		})
	}
	return actions
}

package tui

import (
	"github.com/hay-kot/battle/internal/core/battle"
)

type rowKind int

const (
	rowHeader rowKind = iota
	rowAction
)

// ungroupedLabel heads actions without a known group when groups exist.
const ungroupedLabel = "Other"

// row is one line of the action list. Action rows carry the action's index
// in the document so operations can build an ActionRef.
type row struct {
	kind   rowKind
	group  battle.Group
	action battle.Action
	index  int
	hidden bool
}

// buildRows lays the document out group by group, in group order, with
// ungrouped actions last. Hidden actions and groups are dropped unless
// showHidden is set; empty groups get no header.
func buildRows(cfg battle.Config, showHidden bool) []row {
	known := make(map[string]bool, len(cfg.Groups))
	for _, g := range cfg.Groups {
		known[g.Name] = true
	}

	var rows []row
	for _, g := range cfg.Groups {
		if g.Hidden && !showHidden {
			continue
		}

		var members []row
		for i, a := range cfg.Actions {
			if a.Group != g.Name || (a.Hidden && !showHidden) {
				continue
			}
			members = append(members, row{kind: rowAction, action: a, index: i, hidden: a.Hidden || g.Hidden})
		}
		if len(members) == 0 {
			continue
		}
		rows = append(rows, row{kind: rowHeader, group: g, hidden: g.Hidden})
		rows = append(rows, members...)
	}

	var loose []row
	for i, a := range cfg.Actions {
		if known[a.Group] || (a.Hidden && !showHidden) {
			continue
		}
		loose = append(loose, row{kind: rowAction, action: a, index: i, hidden: a.Hidden})
	}
	if len(loose) > 0 && len(rows) > 0 {
		rows = append(rows, row{kind: rowHeader, group: battle.Group{Name: ungroupedLabel}})
	}
	return append(rows, loose...)
}

// nextAction returns the action row after from in direction dir (+1 or -1),
// or from when there is none.
func nextAction(rows []row, from, dir int) int {
	for i := from + dir; i >= 0 && i < len(rows); i += dir {
		if rows[i].kind == rowAction {
			return i
		}
	}
	return from
}

// firstAction returns the first action row, or -1.
func firstAction(rows []row) int {
	for i, r := range rows {
		if r.kind == rowAction {
			return i
		}
	}
	return -1
}

// locate finds the row for the action with key, preferring index.
func locate(rows []row, key battle.ActionKey, index int) int {
	found := -1
	for i, r := range rows {
		if r.kind != rowAction || r.action.Key() != key {
			continue
		}
		if r.index == index {
			return i
		}
		if found < 0 {
			found = i
		}
	}
	return found
}

// Package history defines the snapshot log kept next to the launchpad
// document. Every destructive write records the document it replaces.
package history

import (
	"context"
	"errors"
	"time"

	"github.com/hay-kot/battle/internal/core/battle"
)

// ErrNotFound is returned when no entry has the requested timestamp.
var ErrNotFound = errors.New("history entry not found")

// Labels attached to snapshots taken by the store.
const (
	LabelBeforeSave    = "Before save"
	LabelBeforeRestore = "Before restore"
	LabelDeleted       = "Deleted"
)

// LegacyLabelLayout formats the label of versions imported from the legacy
// one-file-per-version history.
const LegacyLabelLayout = "1/2/2006, 3:04:05 PM"

// Entry is one snapshot. Timestamp is milliseconds since the epoch and is
// unique within a log.
type Entry struct {
	Timestamp int64         `json:"timestamp"`
	Label     string        `json:"label"`
	Config    battle.Config `json:"config"`
}

// Time returns the entry timestamp as a time.Time.
func (e Entry) Time() time.Time {
	return time.UnixMilli(e.Timestamp)
}

// Log is an append-only snapshot log.
type Log interface {
	// Append records e. A zero or non-increasing timestamp is advanced past
	// the newest entry so timestamps stay strictly increasing.
	Append(ctx context.Context, e Entry) (Entry, error)
	// Import records e keeping its timestamp unless it collides with an
	// existing entry.
	Import(ctx context.Context, e Entry) (Entry, error)
	// List returns all readable entries, newest first.
	List(ctx context.Context) ([]Entry, error)
	// Get returns the entry with the given timestamp or ErrNotFound.
	Get(ctx context.Context, timestamp int64) (Entry, error)
}

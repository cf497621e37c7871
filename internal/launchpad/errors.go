// Package launchpad is the configuration engine behind the battle panel. It
// resolves and migrates the document location, persists the document with
// history, generates actions from the workspace, manages todo lists, and
// tells renderers how to repaint.
package launchpad

import (
	"errors"
	"fmt"
)

var (
	// ErrNoWorkspace is returned when no storage root can be resolved.
	ErrNoWorkspace = errors.New("no workspace open: cannot resolve a location for battle.json")
	// ErrActionNotFound is returned when an ActionRef matches nothing.
	ErrActionNotFound = errors.New("action not found")
	// ErrGroupNotFound is returned when a named group does not exist.
	ErrGroupNotFound = errors.New("group not found")
	// ErrGroupExists is returned when adding a group whose name is taken.
	ErrGroupExists = errors.New("group already exists")
)

// WriteVerificationError reports a write that completed without error but
// left no file behind.
type WriteVerificationError struct {
	Path string
	Err  error
}

func (e *WriteVerificationError) Error() string {
	return fmt.Sprintf("verify write of %s: %v", e.Path, e.Err)
}

func (e *WriteVerificationError) Unwrap() error { return e.Err }

// ErrConfigExists is returned when creating a document over an existing one.
var ErrConfigExists = errors.New("battle.json already exists")

// ErrInvalidDocument is returned when an edit would start from a document
// that exists but does not parse.
var ErrInvalidDocument = errors.New("battle.json is not valid, fix or delete it first")

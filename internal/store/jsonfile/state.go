package jsonfile

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"sync"
)

// WorkspaceState is the persisted per-workspace state.
type WorkspaceState struct {
	CustomDir string `json:"custom_dir,omitempty"`
}

// StateFile is the root JSON structure stored on disk, keyed by absolute
// workspace path.
type StateFile struct {
	Workspaces map[string]WorkspaceState `json:"workspaces"`
}

// StateStore persists workspace-scoped state in a single JSON file.
type StateStore struct {
	path string
	mu   sync.RWMutex
}

// NewStateStore creates a state store backed by the file at path.
func NewStateStore(path string) *StateStore {
	return &StateStore{path: path}
}

// CustomDir returns the custom config directory recorded for workspace, or "".
func (s *StateStore) CustomDir(ctx context.Context, workspace string) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	file, err := s.load()
	if err != nil {
		return "", err
	}
	return file.Workspaces[workspaceKey(workspace)].CustomDir, nil
}

// SetCustomDir records dir for workspace. An empty dir clears it.
func (s *StateStore) SetCustomDir(ctx context.Context, workspace, dir string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	file, err := s.load()
	if err != nil {
		return err
	}

	key := workspaceKey(workspace)
	state := file.Workspaces[key]
	state.CustomDir = dir

	if state == (WorkspaceState{}) {
		delete(file.Workspaces, key)
	} else {
		file.Workspaces[key] = state
	}

	return s.save(file)
}

// load reads the state file. Returns an empty StateFile if the file doesn't exist.
func (s *StateStore) load() (StateFile, error) {
	file := StateFile{Workspaces: map[string]WorkspaceState{}}

	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return file, nil
		}
		return file, err
	}

	if len(data) == 0 {
		return file, nil
	}

	if err := json.Unmarshal(data, &file); err != nil {
		return file, err
	}
	if file.Workspaces == nil {
		file.Workspaces = map[string]WorkspaceState{}
	}
	return file, nil
}

// save writes the state file to disk atomically.
func (s *StateStore) save(file StateFile) error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return err
	}

	data, err := json.MarshalIndent(file, "", "  ")
	if err != nil {
		return err
	}

	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return err
	}

	return os.Rename(tmp, s.path)
}

func workspaceKey(workspace string) string {
	if abs, err := filepath.Abs(workspace); err == nil {
		return filepath.Clean(abs)
	}
	return filepath.Clean(workspace)
}

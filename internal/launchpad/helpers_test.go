package launchpad

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/hay-kot/battle/internal/core/battle"
	"github.com/hay-kot/battle/internal/core/eventbus/testbus"
	"github.com/hay-kot/battle/internal/core/history"
	"github.com/hay-kot/battle/internal/store/jsonfile"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

// memState is an in-memory StateStore.
type memState struct {
	mu   sync.Mutex
	dirs map[string]string
}

func (m *memState) CustomDir(_ context.Context, ws string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.dirs[ws], nil
}

func (m *memState) SetCustomDir(_ context.Context, ws, dir string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.dirs == nil {
		m.dirs = map[string]string{}
	}
	if dir == "" {
		delete(m.dirs, ws)
		return nil
	}
	m.dirs[ws] = dir
	return nil
}

type fixture struct {
	ws       string
	state    *memState
	bus      *testbus.Bus
	resolver *Resolver
	store    *ConfigStore
}

func openHistory(path string) history.Log { return jsonfile.NewHistoryLog(path) }

func newFixture(t *testing.T) *fixture {
	t.Helper()

	ws := t.TempDir()
	state := &memState{}
	bus := testbus.New(t)
	resolver := NewResolver(ws, state, openHistory, zerolog.Nop())
	store := NewConfigStore(resolver, openHistory, bus.EventBus, 10*time.Millisecond, zerolog.Nop())
	t.Cleanup(func() { _ = store.Close() })

	return &fixture{ws: ws, state: state, bus: bus, resolver: resolver, store: store}
}

func (f *fixture) docPath() string {
	return filepath.Join(f.ws, DotFolder, FileName)
}

func (f *fixture) writeFile(t *testing.T, rel, content string) string {
	t.Helper()
	path := filepath.Join(f.ws, rel)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func actionNames(actions []battle.Action) []string {
	out := make([]string, 0, len(actions))
	for _, a := range actions {
		out = append(out, a.Name)
	}
	return out
}

func sampleConfig() battle.Config {
	return battle.Config{
		Actions: []battle.Action{
			{Name: "Build", Command: "make build", Type: battle.TypeShell, Group: "Dev"},
			{Name: "Docs", Command: "open docs", Type: battle.TypeShell, Hidden: true, Cwd: "docs"},
		},
		Groups:       []battle.Group{{Name: "Dev", Icon: "tools", Color: "#61afef"}},
		Icons:        []battle.IconMapping{{Type: battle.TypeShell, Icon: "terminal"}},
		CustomColors: []string{"#123456"},
	}
}

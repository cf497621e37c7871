package launchpad

import (
	"bytes"
	"context"
	"path/filepath"
	"sync"
	"testing"

	"github.com/hay-kot/battle/internal/core/battle"
	"github.com/hay-kot/battle/internal/core/eventbus"
	"github.com/hay-kot/battle/pkg/executil"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingSignaler struct {
	mu      sync.Mutex
	actions []battle.Action
	err     error
}

func (s *recordingSignaler) Signal(_ context.Context, a battle.Action) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.actions = append(s.actions, a)
	return s.err
}

func (s *recordingSignaler) Signaled() []battle.Action {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]battle.Action(nil), s.actions...)
}

func newActionService(t *testing.T) (*fixture, *ActionService, *executil.RecordingExecutor, *recordingSignaler) {
	t.Helper()
	f := newFixture(t)
	exec := &executil.RecordingExecutor{}
	sig := &recordingSignaler{}
	return f, NewActionService(f.store, exec, sig, f.bus.EventBus, zerolog.Nop()), exec, sig
}

func TestActionRef_Resolve(t *testing.T) {
	dup := battle.Action{Name: "Same", Command: "echo", Type: battle.TypeShell}
	cfg := battle.Config{Actions: []battle.Action{dup, {Name: "Other", Command: "x"}, dup}}

	tests := []struct {
		name string
		ref  ActionRef
		want int
		err  error
	}{
		{name: "index hint wins for duplicates", ref: ActionRef{Index: 2, Key: dup.Key()}, want: 2},
		{name: "stale index falls back to first match", ref: ActionRef{Index: 1, Key: dup.Key()}, want: 0},
		{name: "out of range index falls back", ref: ActionRef{Index: 9, Key: dup.Key()}, want: 0},
		{name: "missing", ref: ActionRef{Index: 0, Key: battle.ActionKey{Name: "nope"}}, err: ErrActionNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tt.ref.resolve(cfg)
			if tt.err != nil {
				require.ErrorIs(t, err, tt.err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestActionService_AddUpdateDelete(t *testing.T) {
	f, svc, _, _ := newActionService(t)
	ctx := context.Background()

	require.Error(t, svc.Add(ctx, battle.Action{Name: "", Command: "x"}))
	require.ErrorIs(t, svc.Add(ctx, battle.Action{Name: "a", Command: "x", Group: "missing"}), ErrGroupNotFound)

	require.NoError(t, svc.Add(ctx, battle.Action{Name: "a", Command: "x"}))
	require.NoError(t, svc.Add(ctx, battle.Action{Name: "b", Command: "y"}))

	cfg := f.store.Read(ctx)
	assert.Equal(t, battle.TypeShell, cfg.Actions[0].Type)

	require.NoError(t, svc.Update(ctx, RefAt(cfg, 0), battle.Action{Name: "a2", Command: "x", Type: battle.TypeShell}))
	require.NoError(t, svc.Delete(ctx, RefAt(cfg, 1)))
	assert.Equal(t, []string{"a2"}, actionNames(f.store.Read(ctx).Actions))

	// the old reference no longer matches anything
	require.ErrorIs(t, svc.Delete(ctx, RefAt(cfg, 0)), ErrActionNotFound)
}

func TestActionService_HiddenAndReorder(t *testing.T) {
	f, svc, _, _ := newActionService(t)
	ctx := context.Background()
	for _, n := range []string{"a", "b", "c"} {
		require.NoError(t, svc.Add(ctx, battle.Action{Name: n, Command: n}))
	}

	cfg := f.store.Read(ctx)
	require.NoError(t, svc.SetHidden(ctx, RefAt(cfg, 1), true))
	assert.Equal(t, []string{"a", "c"}, actionNames(svc.List(ctx, false)))
	assert.Len(t, svc.List(ctx, true), 3)

	require.NoError(t, svc.Reorder(ctx, 2, 0))
	assert.Equal(t, []string{"c", "a", "b"}, actionNames(f.store.Read(ctx).Actions))

	require.Error(t, svc.Reorder(ctx, 0, 3))
}

func TestActionService_Groups(t *testing.T) {
	f, svc, _, _ := newActionService(t)
	ctx := context.Background()

	require.NoError(t, svc.AddGroup(ctx, battle.Group{Name: "Dev"}))
	require.NoError(t, svc.AddGroup(ctx, battle.Group{Name: "Ops"}))
	require.ErrorIs(t, svc.AddGroup(ctx, battle.Group{Name: "Dev"}), ErrGroupExists)

	require.NoError(t, svc.Add(ctx, battle.Action{Name: "a", Command: "x", Group: "Dev"}))
	require.NoError(t, svc.Add(ctx, battle.Action{Name: "b", Command: "y"}))
	require.NoError(t, svc.MoveToGroup(ctx, RefAt(f.store.Read(ctx), 1), "Ops"))

	require.ErrorIs(t, svc.UpdateGroup(ctx, "Dev", battle.Group{Name: "Ops"}), ErrGroupExists)
	require.NoError(t, svc.UpdateGroup(ctx, "Dev", battle.Group{Name: "Build", Icon: "tools"}))
	cfg := f.store.Read(ctx)
	assert.Equal(t, "Build", cfg.Actions[0].Group)
	assert.Equal(t, "tools", cfg.Groups[0].Icon)

	require.NoError(t, svc.SetGroupColor(ctx, "Build", "#fff"))
	require.NoError(t, svc.SetGroupHidden(ctx, "Build", true))
	assert.Equal(t, []string{"b"}, actionNames(svc.List(ctx, false)))

	require.NoError(t, svc.ReorderGroups(ctx, 1, 0))
	require.NoError(t, svc.DeleteGroup(ctx, "Build"))
	cfg = f.store.Read(ctx)
	require.Len(t, cfg.Groups, 1)
	assert.Equal(t, "Ops", cfg.Groups[0].Name)
	assert.Empty(t, cfg.Actions[0].Group)
	require.NoError(t, cfg.Validate())

	require.ErrorIs(t, svc.DeleteGroup(ctx, "Build"), ErrGroupNotFound)
}

func TestActionService_AddCustomColor(t *testing.T) {
	f, svc, _, _ := newActionService(t)
	ctx := context.Background()

	require.NoError(t, svc.AddCustomColor(ctx, "#abc"))
	require.NoError(t, svc.AddCustomColor(ctx, "#abc"))
	assert.Equal(t, []string{"#abc"}, f.store.Read(ctx).CustomColors)
}

func TestActionService_Run(t *testing.T) {
	f, svc, exec, sig := newActionService(t)
	ctx := context.Background()
	exec.Reply("npm run build", executil.Reply{Stdout: []byte("built\n")})

	require.NoError(t, f.store.Write(ctx, battle.Config{Actions: []battle.Action{
		{Name: "npm: build (web)", Command: "npm run build", Type: battle.TypeNPM, Cwd: "web"},
		{Name: "Task: compile", Command: "compile", Type: battle.TypeTask},
	}}))
	cfg := f.store.Read(ctx)

	var out bytes.Buffer
	require.NoError(t, svc.Run(ctx, RefAt(cfg, 0), &out, &out))
	assert.Equal(t, "built\n", out.String())
	require.Len(t, exec.Calls(), 1)
	assert.Equal(t, filepath.Join(f.ws, "web"), exec.Calls()[0].Dir)
	assert.True(t, exec.Calls()[0].Streamed)

	require.NoError(t, svc.Run(ctx, RefAt(cfg, 1), &out, &out))
	require.Len(t, sig.Signaled(), 1)
	assert.Equal(t, "compile", sig.Signaled()[0].Command)
	assert.Len(t, exec.Calls(), 1)

	f.bus.AssertPublished(t, eventbus.EventActionTriggered)
}

func TestMove(t *testing.T) {
	items := []string{"a", "b", "c", "d"}

	got, err := move(items, 0, 3)
	require.NoError(t, err)
	assert.Equal(t, []string{"b", "c", "d", "a"}, got)
	assert.Equal(t, []string{"a", "b", "c", "d"}, items, "input untouched")

	got, err = move(items, 3, 1)
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "d", "b", "c"}, got)

	_, err = move(items, -1, 0)
	require.Error(t, err)
}

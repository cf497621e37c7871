package launchpad

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/hay-kot/battle/internal/core/battle"
	"github.com/hay-kot/battle/internal/core/eventbus"
	"github.com/hay-kot/battle/internal/core/notify"
	"github.com/hay-kot/battle/internal/core/todo"
	"github.com/hay-kot/battle/pkg/executil"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingInvoker struct {
	mu  sync.Mutex
	ids []string
	err error
}

func (r *recordingInvoker) Invoke(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.ids = append(r.ids, id)
	return r.err
}

type recordingNotifier struct {
	mu       sync.Mutex
	messages []string
}

func (r *recordingNotifier) Notify(_ notify.Level, msg string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.messages = append(r.messages, msg)
}

type todoHarness struct {
	*fixture
	svc      *TodoService
	exec     *executil.RecordingExecutor
	invoker  *recordingInvoker
	signaler *recordingSignaler
	notifier *recordingNotifier
}

func newTodoHarness(t *testing.T) *todoHarness {
	t.Helper()
	h := &todoHarness{
		fixture:  newFixture(t),
		exec:     &executil.RecordingExecutor{},
		invoker:  &recordingInvoker{},
		signaler: &recordingSignaler{},
		notifier: &recordingNotifier{},
	}
	h.svc = NewTodoService(h.store, h.exec, h.invoker, h.signaler, h.notifier, h.bus.EventBus, zerolog.Nop())
	return h
}

func TestTodoService_Lists(t *testing.T) {
	h := newTodoHarness(t)
	ctx := context.Background()

	work, err := h.svc.CreateList(ctx, "Work", "briefcase")
	require.NoError(t, err)
	home, err := h.svc.CreateList(ctx, "Home", "")
	require.NoError(t, err)

	lists, active := h.svc.Lists(ctx)
	require.Len(t, lists, 2)
	assert.Equal(t, "Home", lists[0].Name)
	assert.Equal(t, work.ID, active, "first list becomes active")

	require.NoError(t, h.svc.SwitchList(ctx, home.ID))
	require.NoError(t, h.svc.RenameList(ctx, home.ID, "House"))
	l, err := h.svc.List(ctx, "")
	require.NoError(t, err)
	assert.Equal(t, "House", l.Name)

	require.NoError(t, h.svc.DeleteList(ctx, home.ID))
	_, active = h.svc.Lists(ctx)
	assert.Equal(t, work.ID, active)

	require.ErrorIs(t, h.svc.SwitchList(ctx, "nope"), todo.ErrListNotFound)
	require.ErrorIs(t, h.svc.DeleteList(ctx, home.ID), todo.ErrListNotFound)
	require.NoError(t, h.store.Read(ctx).Validate())
}

func TestTodoService_AddCreatesDefaultList(t *testing.T) {
	h := newTodoHarness(t)
	ctx := context.Background()

	first, err := h.svc.Add(ctx, "", todo.Todo{Title: "one", Completed: true})
	require.NoError(t, err)
	second, err := h.svc.Add(ctx, "", todo.Todo{Title: "two"})
	require.NoError(t, err)

	l, err := h.svc.List(ctx, "")
	require.NoError(t, err)
	assert.Equal(t, todo.DefaultListID, l.ID)
	assert.False(t, l.Todos[first.ID].Completed, "new todos start open")
	assert.Equal(t, 0, l.Todos[first.ID].Order)
	assert.Equal(t, 1, l.Todos[second.ID].Order)

	_, err = h.svc.Add(ctx, "missing", todo.Todo{Title: "x"})
	require.ErrorIs(t, err, todo.ErrListNotFound)
	_, err = h.svc.Add(ctx, "", todo.Todo{Title: "  "})
	require.Error(t, err)
}

func TestTodoService_Reorder(t *testing.T) {
	h := newTodoHarness(t)
	ctx := context.Background()

	var ids []string
	for _, title := range []string{"a", "b", "c"} {
		item, err := h.svc.Add(ctx, "", todo.Todo{Title: title})
		require.NoError(t, err)
		ids = append(ids, item.ID)
	}

	require.NoError(t, h.svc.Reorder(ctx, "", []string{ids[2], ids[0]}))

	l, err := h.svc.List(ctx, "")
	require.NoError(t, err)
	var titles []string
	for _, item := range l.Sorted() {
		titles = append(titles, item.Title)
	}
	assert.Equal(t, []string{"c", "a", "b"}, titles)
	assert.Equal(t, 2, l.Todos[ids[1]].Order)

	require.ErrorIs(t, h.svc.Reorder(ctx, "", []string{"ghost"}), todo.ErrTodoNotFound)
}

func TestTodoService_CompletionDirectives(t *testing.T) {
	ctx := context.Background()

	t.Run("goto switches list in the same write", func(t *testing.T) {
		h := newTodoHarness(t)
		first, err := h.svc.CreateList(ctx, "First", "")
		require.NoError(t, err)
		next, err := h.svc.CreateList(ctx, "Next", "")
		require.NoError(t, err)

		d := todo.Goto(next.ID)
		item, err := h.svc.Add(ctx, first.ID, todo.Todo{Title: "step", Then: &d})
		require.NoError(t, err)

		before, err := h.store.ListVersions(ctx)
		require.NoError(t, err)

		require.NoError(t, h.svc.SetCompleted(ctx, first.ID, item.ID, true))
		_, active := h.svc.Lists(ctx)
		assert.Equal(t, next.ID, active)

		after, err := h.store.ListVersions(ctx)
		require.NoError(t, err)
		assert.Len(t, after, len(before)+1, "one write")
		h.bus.AssertPublished(t, eventbus.EventTodoCompleted)
	})

	t.Run("command fires once", func(t *testing.T) {
		h := newTodoHarness(t)
		d := todo.RunCommand("workbench.action.files.save")
		item, err := h.svc.Add(ctx, "", todo.Todo{Title: "save", Then: &d})
		require.NoError(t, err)

		require.NoError(t, h.svc.SetCompleted(ctx, "", item.ID, true))
		require.NoError(t, h.svc.SetCompleted(ctx, "", item.ID, true))
		require.NoError(t, h.svc.Update(ctx, "", item.ID, func(td *todo.Todo) { td.Description = "edited" }))
		assert.Equal(t, []string{"workbench.action.files.save"}, h.invoker.ids)

		require.NoError(t, h.svc.SetCompleted(ctx, "", item.ID, false))
		require.NoError(t, h.svc.SetCompleted(ctx, "", item.ID, true))
		assert.Len(t, h.invoker.ids, 2)
	})

	t.Run("action is located and signaled", func(t *testing.T) {
		h := newTodoHarness(t)
		require.NoError(t, h.store.Write(ctx, battle.Config{Actions: []battle.Action{
			{Name: "Deploy", Command: "deploy", Type: battle.TypeTask},
		}}))

		d := todo.TriggerAction("Deploy")
		item, err := h.svc.Add(ctx, "", todo.Todo{Title: "ship", Then: &d})
		require.NoError(t, err)
		require.NoError(t, h.svc.SetCompleted(ctx, "", item.ID, true))

		require.Len(t, h.signaler.Signaled(), 1)
		assert.Equal(t, "deploy", h.signaler.Signaled()[0].Command)
		h.bus.AssertPublished(t, eventbus.EventActionTriggered)
	})

	t.Run("missing action notifies", func(t *testing.T) {
		h := newTodoHarness(t)
		d := todo.TriggerAction("Ghost")
		item, err := h.svc.Add(ctx, "", todo.Todo{Title: "x", Then: &d})
		require.NoError(t, err)

		require.NoError(t, h.svc.SetCompleted(ctx, "", item.ID, true))
		assert.Empty(t, h.signaler.Signaled())
		assert.Len(t, h.notifier.messages, 1)
	})

	t.Run("invoker failure is reported not returned", func(t *testing.T) {
		h := newTodoHarness(t)
		h.invoker.err = errors.New("unknown command")
		d := todo.RunCommand("bogus")
		item, err := h.svc.Add(ctx, "", todo.Todo{Title: "x", Then: &d})
		require.NoError(t, err)

		require.NoError(t, h.svc.SetCompleted(ctx, "", item.ID, true))
		assert.Len(t, h.notifier.messages, 1)
	})
}

func TestTodoService_Delete(t *testing.T) {
	h := newTodoHarness(t)
	ctx := context.Background()
	item, err := h.svc.Add(ctx, "", todo.Todo{Title: "x"})
	require.NoError(t, err)

	require.NoError(t, h.svc.Delete(ctx, "", item.ID))
	require.ErrorIs(t, h.svc.Delete(ctx, "", item.ID), todo.ErrTodoNotFound)
}

func TestTodoService_GenerateFromCommand(t *testing.T) {
	h := newTodoHarness(t)
	ctx := context.Background()
	const cmd = "grep -rn TODO ."
	h.exec.Reply(cmd, executil.Reply{Stdout: []byte("a.go:1: fix\n\n  b.go:2: test  \n")})

	items, err := h.svc.GenerateFromCommand(ctx, cmd)
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, "a.go:1: fix", items[0].Title)
	assert.Equal(t, "b.go:2: test", items[1].Title)
	assert.Equal(t, h.ws, h.exec.Calls()[0].Dir)

	_, err = h.svc.GenerateFromCommand(ctx, cmd)
	require.NoError(t, err)

	cfg := h.store.Read(ctx)
	require.Len(t, cfg.Actions, 1, "generator command recorded once")
	assert.Equal(t, TypeTodoGenerator, cfg.Actions[0].Type)
	assert.True(t, cfg.Actions[0].Hidden)
	assert.Len(t, cfg.TodoLists[cfg.ActiveTodoList].Todos, 4)
}

func TestTodoService_GenerateFromCommandFailure(t *testing.T) {
	h := newTodoHarness(t)
	h.exec.Reply("false", executil.Reply{Err: errors.New("exit status 1")})

	_, err := h.svc.GenerateFromCommand(context.Background(), "false")
	require.Error(t, err)
	assert.Len(t, h.notifier.messages, 1)
	assert.Empty(t, h.store.Read(context.Background()).TodoLists)
}

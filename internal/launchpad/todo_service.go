package launchpad

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/google/uuid"
	"github.com/hay-kot/battle/internal/core/battle"
	"github.com/hay-kot/battle/internal/core/eventbus"
	"github.com/hay-kot/battle/internal/core/logging"
	"github.com/hay-kot/battle/internal/core/notify"
	"github.com/hay-kot/battle/internal/core/todo"
	"github.com/hay-kot/battle/internal/core/validate"
	"github.com/hay-kot/battle/pkg/executil"
	"github.com/rs/zerolog"
)

// TypeTodoGenerator tags the hidden actions that remember todo generator
// commands.
const TypeTodoGenerator = "todo-generator"

// defaultListName names the list created when a todo is added with no
// lists present.
const defaultListName = "Todos"

// TodoService manages the todo lists stored in the launchpad document.
type TodoService struct {
	store     *ConfigStore
	executor  executil.Executor
	invoker   CommandInvoker
	signaler  ActionSignaler
	notifier  Notifier
	bus       *eventbus.EventBus
	workspace string
	log       zerolog.Logger
}

// NewTodoService creates a TodoService. invoker, signaler and notifier may
// be nil; directives needing a missing collaborator are logged and skipped.
func NewTodoService(
	store *ConfigStore,
	executor executil.Executor,
	invoker CommandInvoker,
	signaler ActionSignaler,
	notifier Notifier,
	bus *eventbus.EventBus,
	log zerolog.Logger,
) *TodoService {
	return &TodoService{
		store:     store,
		executor:  executor,
		invoker:   invoker,
		signaler:  signaler,
		notifier:  notifier,
		bus:       bus,
		workspace: store.Resolver().Workspace(),
		log:       logging.For(log, "todo-service"),
	}
}

// Lists returns every list ordered by name, and the active list id.
func (s *TodoService) Lists(ctx context.Context) ([]todo.List, string) {
	cfg := s.store.Read(ctx)

	lists := make([]todo.List, 0, len(cfg.TodoLists))
	for _, l := range cfg.TodoLists {
		lists = append(lists, l)
	}
	sort.Slice(lists, func(i, j int) bool {
		if lists[i].Name != lists[j].Name {
			return lists[i].Name < lists[j].Name
		}
		return lists[i].ID < lists[j].ID
	})
	return lists, cfg.ActiveTodoList
}

// List returns one list. An empty id selects the active list.
func (s *TodoService) List(ctx context.Context, id string) (todo.List, error) {
	cfg := s.store.Read(ctx)
	return findList(cfg, id)
}

func findList(cfg battle.Config, id string) (todo.List, error) {
	if id == "" {
		id = cfg.ActiveTodoList
	}
	l, ok := cfg.TodoLists[id]
	if !ok {
		return todo.List{}, fmt.Errorf("%w: %q", todo.ErrListNotFound, id)
	}
	return l, nil
}

// CreateList adds a list. The first list created becomes active.
func (s *TodoService) CreateList(ctx context.Context, name, icon string) (todo.List, error) {
	if err := validate.RequiredField("name", name); err != nil {
		return todo.List{}, err
	}

	l := todo.List{ID: uuid.NewString(), Name: strings.TrimSpace(name), Icon: icon, Todos: map[string]todo.Todo{}}
	err := s.store.Update(ctx, func(cfg *battle.Config) error {
		addList(cfg, l)
		return nil
	})
	return l, err
}

func addList(cfg *battle.Config, l todo.List) {
	if cfg.TodoLists == nil {
		cfg.TodoLists = map[string]todo.List{}
	}
	cfg.TodoLists[l.ID] = l
	if _, ok := cfg.TodoLists[cfg.ActiveTodoList]; !ok {
		cfg.ActiveTodoList = l.ID
	}
}

// DeleteList removes a list. Deleting the active list activates the first
// remaining one by id.
func (s *TodoService) DeleteList(ctx context.Context, id string) error {
	return s.store.Update(ctx, func(cfg *battle.Config) error {
		if _, ok := cfg.TodoLists[id]; !ok {
			return fmt.Errorf("%w: %q", todo.ErrListNotFound, id)
		}
		delete(cfg.TodoLists, id)

		if cfg.ActiveTodoList == id {
			cfg.ActiveTodoList = ""
			ids := make([]string, 0, len(cfg.TodoLists))
			for k := range cfg.TodoLists {
				ids = append(ids, k)
			}
			sort.Strings(ids)
			if len(ids) > 0 {
				cfg.ActiveTodoList = ids[0]
			}
		}
		return nil
	})
}

// RenameList changes a list's display name.
func (s *TodoService) RenameList(ctx context.Context, id, name string) error {
	if err := validate.RequiredField("name", name); err != nil {
		return err
	}

	return s.updateList(ctx, id, func(l *todo.List) error {
		l.Name = strings.TrimSpace(name)
		return nil
	})
}

// SwitchList makes id the active list.
func (s *TodoService) SwitchList(ctx context.Context, id string) error {
	return s.store.Update(ctx, func(cfg *battle.Config) error {
		if _, ok := cfg.TodoLists[id]; !ok {
			return fmt.Errorf("%w: %q", todo.ErrListNotFound, id)
		}
		cfg.ActiveTodoList = id
		return nil
	})
}

// Add appends a todo to the list (the active one when listID is empty). A
// default list is created when there are none.
func (s *TodoService) Add(ctx context.Context, listID string, t todo.Todo) (todo.Item, error) {
	if err := validate.RequiredField("title", t.Title); err != nil {
		return todo.Item{}, err
	}

	item := todo.Item{ID: uuid.NewString(), Todo: t}
	err := s.store.Update(ctx, func(cfg *battle.Config) error {
		l, err := s.targetList(cfg, listID)
		if err != nil {
			return err
		}

		item.Order = l.NextOrder()
		item.Completed = false
		l.Todos[item.ID] = item.Todo
		cfg.TodoLists[l.ID] = l
		return nil
	})
	return item, err
}

// targetList returns the list to add to, creating the default list when
// no list exists and none was named.
func (s *TodoService) targetList(cfg *battle.Config, listID string) (todo.List, error) {
	if listID == "" && len(cfg.TodoLists) == 0 {
		addList(cfg, todo.List{ID: todo.DefaultListID, Name: defaultListName, Todos: map[string]todo.Todo{}})
	}

	l, err := findList(*cfg, listID)
	if err != nil {
		return l, err
	}
	if l.Todos == nil {
		l.Todos = map[string]todo.Todo{}
	}
	return l, nil
}

// Update applies fn to a todo. When the todo goes from open to completed
// its directive fires: a goto switches lists in the same write, commands and
// actions are dispatched after the write succeeds.
func (s *TodoService) Update(ctx context.Context, listID, todoID string, fn func(t *todo.Todo)) error {
	var (
		fired    *todo.Directive
		done     todo.Todo
		resolved string
		snapshot battle.Config
	)

	err := s.store.Update(ctx, func(cfg *battle.Config) error {
		l, err := findList(*cfg, listID)
		if err != nil {
			return err
		}
		t, ok := l.Todos[todoID]
		if !ok {
			return fmt.Errorf("%w: %q", todo.ErrTodoNotFound, todoID)
		}

		wasCompleted := t.Completed
		fn(&t)
		l.Todos[todoID] = t
		cfg.TodoLists[l.ID] = l

		if !wasCompleted && t.Completed {
			done, resolved = t, l.ID
			if t.Then != nil && t.Then.Valid() {
				d := *t.Then
				fired = &d
				if d.Kind == todo.DirectiveGoto {
					s.gotoList(cfg, d.Target)
				}
			}
		}

		snapshot = cfg.Clone()
		return nil
	})
	if err != nil {
		return err
	}

	if resolved != "" {
		s.bus.PublishTodoCompleted(eventbus.TodoCompletedPayload{
			ListID: resolved,
			TodoID: todoID,
			Title:  done.Title,
			Then:   fired,
		})
	}
	if fired != nil {
		s.dispatch(ctx, *fired, snapshot)
	}
	return nil
}

// SetCompleted marks a todo done or open.
func (s *TodoService) SetCompleted(ctx context.Context, listID, todoID string, completed bool) error {
	return s.Update(ctx, listID, todoID, func(t *todo.Todo) { t.Completed = completed })
}

func (s *TodoService) gotoList(cfg *battle.Config, id string) {
	if _, ok := cfg.TodoLists[id]; !ok {
		s.log.Warn().Str("list", id).Msg("goto directive names a missing list")
		s.notify(notify.LevelWarning, fmt.Sprintf("Todo list %q not found", id))
		return
	}
	cfg.ActiveTodoList = id
}

// dispatch runs the post-write part of a directive. Failures are reported
// to the user, never returned.
func (s *TodoService) dispatch(ctx context.Context, d todo.Directive, cfg battle.Config) {
	switch d.Kind {
	case todo.DirectiveCommand:
		if s.invoker == nil {
			s.log.Warn().Str("command", d.Target).Msg("no command invoker")
			return
		}
		if err := s.invoker.Invoke(ctx, d.Target); err != nil {
			s.log.Warn().Err(err).Str("command", d.Target).Msg("todo command failed")
			s.notify(notify.LevelError, fmt.Sprintf("Command %q failed: %v", d.Target, err))
		}

	case todo.DirectiveAction:
		i := cfg.FindActionByName(d.Target)
		if i < 0 {
			s.notify(notify.LevelWarning, fmt.Sprintf("Action %q not found", d.Target))
			return
		}
		a := cfg.Actions[i]
		s.bus.PublishActionTriggered(eventbus.ActionTriggeredPayload{Action: a, Source: "todo"})
		if s.signaler == nil {
			s.log.Warn().Str("action", a.Name).Msg("no action signaler")
			return
		}
		if err := s.signaler.Signal(ctx, a); err != nil {
			s.log.Warn().Err(err).Str("action", a.Name).Msg("signal action failed")
			s.notify(notify.LevelError, fmt.Sprintf("Action %q failed: %v", a.Name, err))
		}
	}
}

// Delete removes a todo.
func (s *TodoService) Delete(ctx context.Context, listID, todoID string) error {
	return s.updateList(ctx, listID, func(l *todo.List) error {
		if _, ok := l.Todos[todoID]; !ok {
			return fmt.Errorf("%w: %q", todo.ErrTodoNotFound, todoID)
		}
		delete(l.Todos, todoID)
		return nil
	})
}

// Reorder rewrites every todo's order to match ids. Todos missing from ids
// keep their relative order after the listed ones.
func (s *TodoService) Reorder(ctx context.Context, listID string, ids []string) error {
	return s.updateList(ctx, listID, func(l *todo.List) error {
		seen := make(map[string]bool, len(ids))
		order := make([]string, 0, len(l.Todos))
		for _, id := range ids {
			if _, ok := l.Todos[id]; !ok {
				return fmt.Errorf("%w: %q", todo.ErrTodoNotFound, id)
			}
			if !seen[id] {
				seen[id] = true
				order = append(order, id)
			}
		}
		for _, item := range l.Sorted() {
			if !seen[item.ID] {
				order = append(order, item.ID)
			}
		}

		for i, id := range order {
			t := l.Todos[id]
			t.Order = i
			l.Todos[id] = t
		}
		return nil
	})
}

func (s *TodoService) updateList(ctx context.Context, listID string, fn func(l *todo.List) error) error {
	return s.store.Update(ctx, func(cfg *battle.Config) error {
		l, err := findList(*cfg, listID)
		if err != nil {
			return err
		}
		if l.Todos == nil {
			l.Todos = map[string]todo.Todo{}
		}
		if err := fn(&l); err != nil {
			return err
		}
		cfg.TodoLists[l.ID] = l
		return nil
	})
}

// GenerateFromCommand runs cmd in the workspace and adds one todo per
// non-blank output line to the active list. The command is remembered as a
// hidden action so it can be re-run. Failures are also shown to the user.
func (s *TodoService) GenerateFromCommand(ctx context.Context, cmd string) ([]todo.Item, error) {
	if err := validate.RequiredField("command", cmd); err != nil {
		return nil, err
	}

	ctx = logging.Annotate(ctx, "op", "todo-generate", "workspace", s.workspace)
	res, err := s.executor.Sh(ctx, s.workspace, cmd)
	if err != nil {
		s.notify(notify.LevelError, fmt.Sprintf("Generate todos failed: %v", err))
		return nil, fmt.Errorf("generate todos: %w", err)
	}
	if res.Truncated {
		s.log.Warn().Ctx(ctx).Str("command", cmd).Msg("command output truncated")
	}

	var titles []string
	for _, line := range executil.Lines(res.Stdout) {
		if line = strings.TrimSpace(line); line != "" {
			titles = append(titles, line)
		}
	}

	var items []todo.Item
	err = s.store.Update(ctx, func(cfg *battle.Config) error {
		l, err := s.targetList(cfg, "")
		if err != nil {
			return err
		}

		order := l.NextOrder()
		for i, title := range titles {
			item := todo.Item{ID: uuid.NewString(), Todo: todo.Todo{Title: title, Order: order + i}}
			l.Todos[item.ID] = item.Todo
			items = append(items, item)
		}
		cfg.TodoLists[l.ID] = l

		if !hasGenerator(*cfg, cmd) {
			cfg.Actions = append(cfg.Actions, battle.Action{
				Name:    "Todos: " + cmd,
				Command: cmd,
				Type:    TypeTodoGenerator,
				Hidden:  true,
			})
		}
		return nil
	})
	if err != nil {
		s.notify(notify.LevelError, fmt.Sprintf("Generate todos failed: %v", err))
		return nil, err
	}

	s.log.Info().Ctx(ctx).Int("count", len(items)).Str("command", cmd).Msg("generated todos")
	return items, nil
}

func hasGenerator(cfg battle.Config, cmd string) bool {
	for _, a := range cfg.Actions {
		if a.Type == TypeTodoGenerator && a.Command == cmd {
			return true
		}
	}
	return false
}

func (s *TodoService) notify(level notify.Level, msg string) {
	if s.notifier != nil {
		s.notifier.Notify(level, msg)
	}
}

package launchpad

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"slices"

	"github.com/hay-kot/battle/internal/core/battle"
	"github.com/hay-kot/battle/internal/core/eventbus"
	"github.com/hay-kot/battle/internal/core/logging"
	"github.com/hay-kot/battle/internal/core/validate"
	"github.com/hay-kot/battle/pkg/executil"
	"github.com/hay-kot/criterio"
	"github.com/rs/zerolog"
)

// ActionRef points at an action. Actions have no stable id on disk, so the
// reference carries both the position the caller saw and the identity
// triple. The index wins while it still holds the same triple; otherwise the
// first action with the triple is used.
type ActionRef struct {
	Index int
	Key   battle.ActionKey
}

// RefAt builds a reference to the action at index i of cfg.
func RefAt(cfg battle.Config, i int) ActionRef {
	return ActionRef{Index: i, Key: cfg.Actions[i].Key()}
}

func (r ActionRef) resolve(cfg battle.Config) (int, error) {
	if r.Index >= 0 && r.Index < len(cfg.Actions) && cfg.Actions[r.Index].Key() == r.Key {
		return r.Index, nil
	}
	if i := cfg.FindAction(r.Key); i >= 0 {
		return i, nil
	}
	return -1, fmt.Errorf("%w: %q", ErrActionNotFound, r.Key.Name)
}

// ActionService applies user edits to actions and groups.
type ActionService struct {
	store     *ConfigStore
	executor  executil.Executor
	signaler  ActionSignaler
	bus       *eventbus.EventBus
	workspace string
	log       zerolog.Logger
}

// NewActionService creates an ActionService.
func NewActionService(
	store *ConfigStore,
	executor executil.Executor,
	signaler ActionSignaler,
	bus *eventbus.EventBus,
	log zerolog.Logger,
) *ActionService {
	return &ActionService{
		store:     store,
		executor:  executor,
		signaler:  signaler,
		bus:       bus,
		workspace: store.Resolver().Workspace(),
		log:       logging.For(log, "action-service"),
	}
}

// List returns the actions, dropping hidden ones unless includeHidden.
func (s *ActionService) List(ctx context.Context, includeHidden bool) []battle.Action {
	cfg := s.store.Read(ctx)
	if includeHidden {
		return cfg.Actions
	}
	return cfg.VisibleActions()
}

func validateAction(a battle.Action) error {
	return criterio.ValidateStruct(
		validate.RequiredField("name", a.Name),
		validate.RequiredField("command", a.Command),
	)
}

// Add appends an action. Its group, if set, must exist.
func (s *ActionService) Add(ctx context.Context, a battle.Action) error {
	if a.Type == "" {
		a.Type = battle.TypeShell
	}
	if err := validateAction(a); err != nil {
		return err
	}

	return s.store.Update(ctx, func(cfg *battle.Config) error {
		if a.Group != "" && cfg.FindGroup(a.Group) < 0 {
			return fmt.Errorf("%w: %q", ErrGroupNotFound, a.Group)
		}
		cfg.Actions = append(cfg.Actions, a)
		return nil
	})
}

// Update replaces the referenced action.
func (s *ActionService) Update(ctx context.Context, ref ActionRef, a battle.Action) error {
	if err := validateAction(a); err != nil {
		return err
	}

	return s.store.Update(ctx, func(cfg *battle.Config) error {
		i, err := ref.resolve(*cfg)
		if err != nil {
			return err
		}
		if a.Group != "" && cfg.FindGroup(a.Group) < 0 {
			return fmt.Errorf("%w: %q", ErrGroupNotFound, a.Group)
		}
		cfg.Actions[i] = a
		return nil
	})
}

// Delete removes the referenced action.
func (s *ActionService) Delete(ctx context.Context, ref ActionRef) error {
	return s.store.Update(ctx, func(cfg *battle.Config) error {
		i, err := ref.resolve(*cfg)
		if err != nil {
			return err
		}
		cfg.Actions = slices.Delete(cfg.Actions, i, i+1)
		return nil
	})
}

// SetHidden soft-deletes or restores the referenced action.
func (s *ActionService) SetHidden(ctx context.Context, ref ActionRef, hidden bool) error {
	return s.store.Update(ctx, func(cfg *battle.Config) error {
		i, err := ref.resolve(*cfg)
		if err != nil {
			return err
		}
		cfg.Actions[i].Hidden = hidden
		return nil
	})
}

// MoveToGroup assigns the referenced action to group. An empty group
// ungroups it.
func (s *ActionService) MoveToGroup(ctx context.Context, ref ActionRef, group string) error {
	return s.store.Update(ctx, func(cfg *battle.Config) error {
		i, err := ref.resolve(*cfg)
		if err != nil {
			return err
		}
		if group != "" && cfg.FindGroup(group) < 0 {
			return fmt.Errorf("%w: %q", ErrGroupNotFound, group)
		}
		cfg.Actions[i].Group = group
		return nil
	})
}

// Reorder moves the action at from to position to.
func (s *ActionService) Reorder(ctx context.Context, from, to int) error {
	return s.store.Update(ctx, func(cfg *battle.Config) error {
		moved, err := move(cfg.Actions, from, to)
		if err != nil {
			return fmt.Errorf("reorder actions: %w", err)
		}
		cfg.Actions = moved
		return nil
	})
}

// AddGroup appends a group with a unique name.
func (s *ActionService) AddGroup(ctx context.Context, g battle.Group) error {
	if err := validate.RequiredField("name", g.Name); err != nil {
		return err
	}

	return s.store.Update(ctx, func(cfg *battle.Config) error {
		if cfg.FindGroup(g.Name) >= 0 {
			return fmt.Errorf("%w: %q", ErrGroupExists, g.Name)
		}
		cfg.Groups = append(cfg.Groups, g)
		return nil
	})
}

// UpdateGroup replaces the named group. A rename carries its actions along.
func (s *ActionService) UpdateGroup(ctx context.Context, name string, g battle.Group) error {
	if err := validate.RequiredField("name", g.Name); err != nil {
		return err
	}

	return s.store.Update(ctx, func(cfg *battle.Config) error {
		i := cfg.FindGroup(name)
		if i < 0 {
			return fmt.Errorf("%w: %q", ErrGroupNotFound, name)
		}
		if g.Name != name && cfg.FindGroup(g.Name) >= 0 {
			return fmt.Errorf("%w: %q", ErrGroupExists, g.Name)
		}

		cfg.Groups[i] = g
		if g.Name != name {
			for j := range cfg.Actions {
				if cfg.Actions[j].Group == name {
					cfg.Actions[j].Group = g.Name
				}
			}
		}
		return nil
	})
}

// DeleteGroup removes the named group; its actions become ungrouped.
func (s *ActionService) DeleteGroup(ctx context.Context, name string) error {
	return s.store.Update(ctx, func(cfg *battle.Config) error {
		i := cfg.FindGroup(name)
		if i < 0 {
			return fmt.Errorf("%w: %q", ErrGroupNotFound, name)
		}
		cfg.Groups = slices.Delete(cfg.Groups, i, i+1)
		for j := range cfg.Actions {
			if cfg.Actions[j].Group == name {
				cfg.Actions[j].Group = ""
			}
		}
		return nil
	})
}

// SetGroupHidden hides or shows a whole group.
func (s *ActionService) SetGroupHidden(ctx context.Context, name string, hidden bool) error {
	return s.store.Update(ctx, func(cfg *battle.Config) error {
		i := cfg.FindGroup(name)
		if i < 0 {
			return fmt.Errorf("%w: %q", ErrGroupNotFound, name)
		}
		cfg.Groups[i].Hidden = hidden
		return nil
	})
}

// SetGroupColor sets the named group's color.
func (s *ActionService) SetGroupColor(ctx context.Context, name, color string) error {
	return s.store.Update(ctx, func(cfg *battle.Config) error {
		i := cfg.FindGroup(name)
		if i < 0 {
			return fmt.Errorf("%w: %q", ErrGroupNotFound, name)
		}
		cfg.Groups[i].Color = color
		return nil
	})
}

// ReorderGroups moves the group at from to position to.
func (s *ActionService) ReorderGroups(ctx context.Context, from, to int) error {
	return s.store.Update(ctx, func(cfg *battle.Config) error {
		moved, err := move(cfg.Groups, from, to)
		if err != nil {
			return fmt.Errorf("reorder groups: %w", err)
		}
		cfg.Groups = moved
		return nil
	})
}

// AddCustomColor saves color to the user palette unless already present.
func (s *ActionService) AddCustomColor(ctx context.Context, color string) error {
	if err := validate.RequiredField("color", color); err != nil {
		return err
	}

	return s.store.Update(ctx, func(cfg *battle.Config) error {
		if !slices.Contains(cfg.CustomColors, color) {
			cfg.CustomColors = append(cfg.CustomColors, color)
		}
		return nil
	})
}

// Run executes shell and npm actions in the workspace, streaming output, and
// hands every other type to the host.
func (s *ActionService) Run(ctx context.Context, ref ActionRef, stdout, stderr io.Writer) error {
	cfg := s.store.Read(ctx)
	i, err := ref.resolve(cfg)
	if err != nil {
		return err
	}

	return s.run(ctx, cfg.Actions[i], stdout, stderr, "run")
}

func (s *ActionService) run(ctx context.Context, a battle.Action, stdout, stderr io.Writer, source string) error {
	ctx = logging.Annotate(ctx, "op", "run-action", "action", a.Name)
	s.log.Info().Ctx(ctx).Str("type", a.Type).Msg("running action")
	s.bus.PublishActionTriggered(eventbus.ActionTriggeredPayload{Action: a, Source: source})

	switch a.Type {
	case battle.TypeShell, battle.TypeNPM, "":
		if err := s.executor.ShStream(ctx, s.dir(a), a.Command, stdout, stderr); err != nil {
			return fmt.Errorf("run %q: %w", a.Name, err)
		}
		return nil
	default:
		if s.signaler == nil {
			return fmt.Errorf("run %q: action type %q needs a host", a.Name, a.Type)
		}
		return s.signaler.Signal(ctx, a)
	}
}

// dir is the working directory for a, relative paths resolving against the
// workspace.
func (s *ActionService) dir(a battle.Action) string {
	switch {
	case a.Cwd == "":
		return s.workspace
	case filepath.IsAbs(a.Cwd):
		return a.Cwd
	default:
		return filepath.Join(s.workspace, a.Cwd)
	}
}

// move returns items with the element at from relocated to to.
func move[T any](items []T, from, to int) ([]T, error) {
	if from < 0 || from >= len(items) || to < 0 || to >= len(items) {
		return nil, fmt.Errorf("index out of range: %d -> %d (len %d)", from, to, len(items))
	}
	if from == to {
		return items, nil
	}

	item := items[from]
	out := slices.Delete(slices.Clone(items), from, from+1)
	return slices.Insert(out, to, item), nil
}

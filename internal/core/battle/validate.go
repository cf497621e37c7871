package battle

import (
	"fmt"

	"github.com/hay-kot/battle/internal/core/validate"
	"github.com/hay-kot/criterio"
)

// Validate checks the document for problems a normalized read tolerates:
// blank names or commands, duplicate or blank group names, actions that
// reference a group that does not exist, and invalid todo list ids.
func (c Config) Validate() error {
	return criterio.ValidateStruct(
		c.validateActions(),
		c.validateGroups(),
		c.validateTodoLists(),
	)
}

func (c Config) validateActions() error {
	groups := make(map[string]bool, len(c.Groups))
	for _, g := range c.Groups {
		groups[g.Name] = true
	}

	var errs criterio.FieldErrorsBuilder
	for i, a := range c.Actions {
		field := fmt.Sprintf("actions[%d]", i)
		if err := validate.Required(a.Name); err != nil {
			errs = errs.Append(field+".name", err)
		}
		if err := validate.Required(a.Command); err != nil {
			errs = errs.Append(field+".command", err)
		}
		if a.Group != "" && !groups[a.Group] {
			errs = errs.Append(field+".group", fmt.Errorf("group %q does not exist", a.Group))
		}
	}
	return errs.ToError()
}

func (c Config) validateGroups() error {
	seen := make(map[string]bool, len(c.Groups))

	var errs criterio.FieldErrorsBuilder
	for i, g := range c.Groups {
		field := fmt.Sprintf("groups[%d].name", i)
		if err := validate.Required(g.Name); err != nil {
			errs = errs.Append(field, err)
			continue
		}
		if seen[g.Name] {
			errs = errs.Append(field, fmt.Errorf("duplicate group %q", g.Name))
		}
		seen[g.Name] = true
	}
	return errs.ToError()
}

func (c Config) validateTodoLists() error {
	var errs criterio.FieldErrorsBuilder
	for id, l := range c.TodoLists {
		field := fmt.Sprintf("todoLists[%q]", id)
		if err := validate.ListID(id); err != nil {
			errs = errs.Append(field, err)
		}
		if l.ID != id {
			errs = errs.Append(field+".id", fmt.Errorf("id %q does not match key", l.ID))
		}
	}
	return errs.ToError()
}

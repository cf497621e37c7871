package todo

import (
	"encoding/json"
	"strings"
)

// DirectiveKind identifies the side effect a completed todo triggers.
type DirectiveKind string

const (
	// DirectiveGoto switches the active todo list.
	DirectiveGoto DirectiveKind = "goto"
	// DirectiveCommand invokes a host command by id.
	DirectiveCommand DirectiveKind = "command"
	// DirectiveAction signals another launchpad action by name.
	DirectiveAction DirectiveKind = "action"
	// DirectiveUnknown holds a value with an unrecognized prefix. It never fires
	// but round-trips unchanged.
	DirectiveUnknown DirectiveKind = ""
)

// Directive is the parsed form of a todo's "then" string:
// goto:<listId>, command:<commandId> or action:<actionName>.
type Directive struct {
	Kind   DirectiveKind
	Target string
	raw    string
}

// Goto returns a directive that switches to listID.
func Goto(listID string) Directive { return Directive{Kind: DirectiveGoto, Target: listID} }

// RunCommand returns a directive that invokes the host command id.
func RunCommand(id string) Directive { return Directive{Kind: DirectiveCommand, Target: id} }

// TriggerAction returns a directive that signals the named action.
func TriggerAction(name string) Directive { return Directive{Kind: DirectiveAction, Target: name} }

// ParseDirective parses the on-disk string form.
func ParseDirective(s string) Directive {
	prefix, target, ok := strings.Cut(s, ":")
	if ok {
		kind := DirectiveKind(strings.TrimSpace(prefix))
		switch kind {
		case DirectiveGoto, DirectiveCommand, DirectiveAction:
			if target = strings.TrimSpace(target); target != "" {
				return Directive{Kind: kind, Target: target}
			}
		}
	}
	return Directive{Kind: DirectiveUnknown, raw: s}
}

// Valid reports whether the directive can fire.
func (d Directive) Valid() bool {
	return d.Kind != DirectiveUnknown && d.Target != ""
}

// String returns the on-disk form.
func (d Directive) String() string {
	if d.Kind == DirectiveUnknown {
		return d.raw
	}
	return string(d.Kind) + ":" + d.Target
}

func (d Directive) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.String())
}

func (d *Directive) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	*d = ParseDirective(s)
	return nil
}

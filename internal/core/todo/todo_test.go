package todo

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDirective(t *testing.T) {
	tests := []struct {
		input  string
		kind   DirectiveKind
		target string
		valid  bool
	}{
		{"goto:work", DirectiveGoto, "work", true},
		{"command:workbench.action.files.save", DirectiveCommand, "workbench.action.files.save", true},
		{"action:npm: build", DirectiveAction, "npm: build", true},
		{"goto:", DirectiveUnknown, "", false},
		{"launch:rockets", DirectiveUnknown, "", false},
		{"", DirectiveUnknown, "", false},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			d := ParseDirective(tt.input)
			assert.Equal(t, tt.kind, d.Kind)
			assert.Equal(t, tt.target, d.Target)
			assert.Equal(t, tt.valid, d.Valid())
			assert.Equal(t, tt.input, d.String(), "round-trips to the original text")
		})
	}
}

func TestDirective_JSON(t *testing.T) {
	in := Todo{Title: "ship", Then: &Directive{Kind: DirectiveGoto, Target: "done"}}

	data, err := json.Marshal(in)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"then":"goto:done"`)

	var out Todo
	require.NoError(t, json.Unmarshal(data, &out))
	require.NotNil(t, out.Then)
	assert.Equal(t, Goto("done"), *out.Then)

	data, err = json.Marshal(Todo{Title: "plain"})
	require.NoError(t, err)
	assert.NotContains(t, string(data), "then")
}

func TestList_Sorted(t *testing.T) {
	l := List{
		ID: "a",
		Todos: map[string]Todo{
			"x": {Title: "third", Order: 2},
			"y": {Title: "first", Order: 0},
			"z": {Title: "second", Order: 1},
		},
	}

	items := l.Sorted()
	require.Len(t, items, 3)
	assert.Equal(t, []string{"y", "z", "x"}, []string{items[0].ID, items[1].ID, items[2].ID})
	assert.Equal(t, 3, l.NextOrder())
	assert.Equal(t, 0, List{}.NextOrder())
}

func TestList_CloneIsDeep(t *testing.T) {
	d := RunCommand("save")
	l := List{ID: "a", Todos: map[string]Todo{"x": {Title: "t", Then: &d}}}

	c := l.Clone()
	c.Todos["x"].Then.Target = "changed"
	c.Todos["y"] = Todo{}

	assert.Equal(t, "save", l.Todos["x"].Then.Target)
	assert.Len(t, l.Todos, 1)
}

package battle

import (
	"encoding/json"
	"testing"

	"github.com/hay-kot/battle/internal/core/todo"
	"github.com/hay-kot/criterio"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	t.Run("tolerates comments and trailing commas", func(t *testing.T) {
		data := []byte(`{
  // launchpad
  "$schema": "https://example.com/schema.json",
  "actions": [
    {"name": "Build", "command": "make", "type": "shell"}, /* trailing */
  ],
}`)
		cfg, err := Parse(data)
		require.NoError(t, err)
		require.Len(t, cfg.Actions, 1)
		assert.Equal(t, "Build", cfg.Actions[0].Name)
	})

	t.Run("missing actions is invalid", func(t *testing.T) {
		_, err := Parse([]byte(`{"groups": []}`))
		require.ErrorIs(t, err, ErrInvalidStructure)
	})

	t.Run("non-array actions is invalid", func(t *testing.T) {
		_, err := Parse([]byte(`{"actions": {"name": "x"}}`))
		require.ErrorIs(t, err, ErrInvalidStructure)
	})

	t.Run("non-object document is invalid", func(t *testing.T) {
		_, err := Parse([]byte(`null`))
		require.ErrorIs(t, err, ErrInvalidStructure)
	})

	t.Run("malformed json", func(t *testing.T) {
		_, err := Parse([]byte(`{"actions": [`))
		require.Error(t, err)
		assert.NotErrorIs(t, err, ErrInvalidStructure)
	})

	t.Run("optional fields copied only when arrays", func(t *testing.T) {
		cfg, err := Parse([]byte(`{"actions": [], "groups": "nope", "icons": [{"type": "npm", "icon": "package"}], "customColors": 3}`))
		require.NoError(t, err)
		assert.Nil(t, cfg.Groups)
		assert.Nil(t, cfg.CustomColors)
		assert.Equal(t, []IconMapping{{Type: "npm", Icon: "package"}}, cfg.Icons)
	})

	t.Run("malformed entries are dropped", func(t *testing.T) {
		cfg, err := Parse([]byte(`{"actions": [{"name": "ok", "command": "x", "type": "shell"}, {"name": 7}]}`))
		require.NoError(t, err)
		require.Len(t, cfg.Actions, 1)
		assert.Equal(t, "ok", cfg.Actions[0].Name)
	})
}

func TestNormalize_LegacyTodos(t *testing.T) {
	t.Run("migrates into default list", func(t *testing.T) {
		cfg, err := Parse([]byte(`{"actions": [], "todos": {"a": {"title": "write docs", "completed": false, "order": 0, "then": "goto:next"}}}`))
		require.NoError(t, err)

		assert.Nil(t, cfg.Todos)
		require.Contains(t, cfg.TodoLists, todo.DefaultListID)
		list := cfg.TodoLists[todo.DefaultListID]
		assert.Equal(t, todo.DefaultListID, list.ID)
		assert.Equal(t, "write docs", list.Todos["a"].Title)
		assert.Equal(t, todo.Goto("next"), *list.Todos["a"].Then)
		assert.Equal(t, todo.DefaultListID, cfg.ActiveTodoList)
	})

	t.Run("existing lists win", func(t *testing.T) {
		cfg, err := Parse([]byte(`{"actions": [], "todos": {"a": {"title": "old"}}, "todoLists": {"work": {"id": "work", "name": "Work", "todos": {}}}, "activeTodoList": "work"}`))
		require.NoError(t, err)

		assert.Len(t, cfg.Todos, 1)
		assert.Len(t, cfg.TodoLists, 1)
		assert.Equal(t, "work", cfg.ActiveTodoList)
	})

	t.Run("dangling active list is repaired", func(t *testing.T) {
		cfg, err := Parse([]byte(`{"actions": [], "todoLists": {"b": {"name": "B"}, "a": {"name": "A"}}, "activeTodoList": "gone"}`))
		require.NoError(t, err)

		assert.Equal(t, "a", cfg.ActiveTodoList)
		assert.Equal(t, "b", cfg.TodoLists["b"].ID)
		assert.NotNil(t, cfg.TodoLists["b"].Todos)
	})
}

func TestConfig_RoundTrip(t *testing.T) {
	then := todo.TriggerAction("npm: test")
	in := Config{
		Actions: []Action{
			{Name: "npm: build", Command: "npm run build", Type: TypeNPM, Group: "NPM Scripts"},
			{Name: "Deploy", Command: "./deploy.sh", Type: TypeShell, Hidden: true, Cwd: "ops"},
		},
		Groups:       []Group{{Name: "NPM Scripts", Icon: "package", Color: "#4caf50"}},
		Icons:        []IconMapping{{Type: TypeShell, Icon: "terminal"}},
		CustomColors: []string{"#ff0000"},
		TodoLists: map[string]todo.List{
			"default": {ID: "default", Name: "Todos", Todos: map[string]todo.Todo{
				"t1": {Title: "ship", Order: 0, Then: &then},
			}},
		},
		ActiveTodoList: "default",
	}

	data, err := json.MarshalIndent(in, "", "  ")
	require.NoError(t, err)

	out, err := Parse(data)
	require.NoError(t, err)
	assert.Equal(t, in, out)
}

func TestConfig_Compact(t *testing.T) {
	in := Config{
		Groups:       []Group{},
		Icons:        []IconMapping{},
		CustomColors: []string{},
		Todos:        todo.Group{},
		TodoLists:    map[string]todo.List{},
	}

	got := in.Compact()
	assert.Equal(t, Empty(), got)

	data, err := json.Marshal(in)
	require.NoError(t, err)
	out, err := Parse(data)
	require.NoError(t, err)
	assert.Equal(t, got, out, "empty collections read back in canonical form")

	out, err = Parse([]byte(`{"actions": [], "groups": [], "customColors": []}`))
	require.NoError(t, err)
	assert.Equal(t, Empty(), out)
}

func TestConfig_MarshalEmptyActions(t *testing.T) {
	data, err := json.Marshal(Config{})
	require.NoError(t, err)
	assert.JSONEq(t, `{"actions": []}`, string(data))
}

func TestConfig_CloneIsDeep(t *testing.T) {
	in := Config{
		Actions:   []Action{{Name: "a", Command: "a", Type: TypeShell}},
		TodoLists: map[string]todo.List{"x": {ID: "x", Todos: map[string]todo.Todo{"1": {Title: "t"}}}},
	}

	c := in.Clone()
	c.Actions[0].Name = "changed"
	c.TodoLists["x"].Todos["1"] = todo.Todo{Title: "changed"}

	assert.Equal(t, "a", in.Actions[0].Name)
	assert.Equal(t, "t", in.TodoLists["x"].Todos["1"].Title)
}

func TestConfig_VisibleActions(t *testing.T) {
	cfg := Config{
		Actions: []Action{
			{Name: "shown", Group: "G"},
			{Name: "hidden", Hidden: true},
			{Name: "in hidden group", Group: "H"},
			{Name: "ungrouped"},
		},
		Groups: []Group{{Name: "G"}, {Name: "H", Hidden: true}},
	}

	var names []string
	for _, a := range cfg.VisibleActions() {
		names = append(names, a.Name)
	}
	assert.Equal(t, []string{"shown", "ungrouped"}, names)
}

func TestAction_IsGenerated(t *testing.T) {
	assert.True(t, Action{Name: "npm: build"}.IsGenerated())
	assert.True(t, Action{Name: "Task: lint"}.IsGenerated())
	assert.True(t, Action{Name: "Launch: Debug"}.IsGenerated())
	assert.False(t, Action{Name: "My Custom Task"}.IsGenerated())
	assert.False(t, Action{Name: "npm build"}.IsGenerated())
}

func TestMergeIcons_FirstWriteWins(t *testing.T) {
	doc := []IconMapping{{Type: TypeNPM, Icon: "custom"}}
	user := []IconMapping{{Type: TypeNPM, Icon: "user"}, {Type: "deploy", Icon: "rocket"}}

	merged := MergeIcons(doc, user, DefaultIcons)

	assert.Equal(t, "custom", IconFor(merged, TypeNPM))
	assert.Equal(t, "rocket", IconFor(merged, "deploy"))
	assert.Equal(t, "terminal", IconFor(merged, TypeShell))
	assert.Equal(t, "", IconFor(merged, "unknown"))
}

func TestConfig_Validate(t *testing.T) {
	cfg := Config{
		Actions: []Action{
			{Name: "ok", Command: "x", Type: TypeShell, Group: "G"},
			{Name: " ", Command: "x", Type: TypeShell},
			{Name: "orphan", Command: "x", Type: TypeShell, Group: "missing"},
		},
		Groups: []Group{{Name: "G"}, {Name: "G"}},
		TodoLists: map[string]todo.List{
			"bad id": {ID: "bad id"},
		},
	}

	err := cfg.Validate()

	var fieldErrs criterio.FieldErrors
	require.ErrorAs(t, err, &fieldErrs)

	var fields []string
	for _, fe := range fieldErrs {
		fields = append(fields, fe.Field)
	}
	assert.Contains(t, fields, "actions[1].name")
	assert.Contains(t, fields, "actions[2].group")
	assert.Contains(t, fields, "groups[1].name")
	assert.Contains(t, fields, `todoLists["bad id"]`)

	assert.NoError(t, Empty().Validate())
}

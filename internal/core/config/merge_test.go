package config

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMergeMaps_OverlayOverridesBase(t *testing.T) {
	base := map[string]any{
		"display": map[string]any{
			"layout":      "list",
			"show_hidden": false,
		},
		"icons": []any{map[string]any{"type": "npm", "icon": "package"}},
	}
	overlay := map[string]any{
		"display": map[string]any{
			"show_hidden": true,
		},
		"icons": []any{},
	}

	mergeMaps(base, overlay)

	display := base["display"].(map[string]any)
	assert.Equal(t, "list", display["layout"])
	assert.Equal(t, true, display["show_hidden"])
	assert.Equal(t, []any{}, base["icons"], "lists are replaced, not merged")
}

func TestMergeMaps_CopiesNewNestedMaps(t *testing.T) {
	src := map[string]any{"scan": map[string]any{"ignore": []any{"vendor/**"}}}
	dst := map[string]any{}

	mergeMaps(dst, src)
	dst["scan"].(map[string]any)["extra"] = 1

	_, leaked := src["scan"].(map[string]any)["extra"]
	assert.False(t, leaked)
}

func TestMergeMaps_NilSource(t *testing.T) {
	dst := map[string]any{"a": 1}
	mergeMaps(dst, nil)
	assert.Equal(t, map[string]any{"a": 1}, dst)
}

func TestMergeMaps_NullRemovesKey(t *testing.T) {
	dst := map[string]any{
		"icons":   []any{map[string]any{"type": "npm", "icon": "package"}},
		"display": map[string]any{"theme": "dark", "layout": "grid"},
	}

	mergeMaps(dst, map[string]any{
		"icons":   nil,
		"display": map[string]any{"theme": nil},
	})

	assert.NotContains(t, dst, "icons")
	assert.Equal(t, map[string]any{"layout": "grid"}, dst["display"])
}

func writeTestFile(path, content string) error {
	return os.WriteFile(path, []byte(content), 0o644)
}

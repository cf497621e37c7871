package iojson

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteLines(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteLines(&buf, []map[string]int{{"a": 1}, {"b": 2}}))
	assert.Equal(t, "{\"a\":1}\n{\"b\":2}\n", buf.String())
}

func TestWriteWith_NoHTMLEscape(t *testing.T) {
	var out, errOut bytes.Buffer
	require.NoError(t, WriteWith(&out, &errOut, map[string]string{"command": "make build && ./bin/app > out.log"}))
	assert.Equal(t, "{\n  \"command\": \"make build && ./bin/app > out.log\"\n}\n", out.String())
	assert.Empty(t, errOut.String())
}

func TestWriteWith_MarshalFailure(t *testing.T) {
	var out, errOut bytes.Buffer
	require.NoError(t, WriteWith(&out, &errOut, map[string]any{"bad": make(chan int)}))
	assert.Empty(t, out.String())
	assert.Contains(t, errOut.String(), "json_error")
}

func TestFileReader(t *testing.T) {
	type action struct {
		Name string `json:"name"`
	}

	t.Run("stdin with comments", func(t *testing.T) {
		fr := FileReader[action]{stdin: strings.NewReader(`{"name": "x" /* piped */}`)}
		got, err := fr.Read()
		require.NoError(t, err)
		assert.Equal(t, "x", got.Name)
	})

	t.Run("file", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "a.json")
		require.NoError(t, os.WriteFile(path, []byte(`{"name": "from file",}`), 0o644))

		fr := FileReader[action]{fileFlagValue: path}
		got, err := fr.Read()
		require.NoError(t, err)
		assert.Equal(t, "from file", got.Name)
	})
}

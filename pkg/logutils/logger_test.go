package logutils

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_AppendsToFile(t *testing.T) {
	file := filepath.Join(t.TempDir(), "logs", "battle.log")

	for _, msg := range []string{"first", "second"} {
		l, closer, err := New("info", file)
		require.NoError(t, err)
		l.Info().Msg(msg)
		l.Debug().Msg("filtered")
		closer()
	}

	data, err := os.ReadFile(file)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"message":"first"`)
	assert.Contains(t, string(data), `"message":"second"`)
	assert.NotContains(t, string(data), "filtered")
}

func TestNew_InvalidLevel(t *testing.T) {
	_, closer, err := New("loud", "")
	require.Error(t, err)
	closer()
}

func TestRotate(t *testing.T) {
	file := filepath.Join(t.TempDir(), "battle.log")
	require.NoError(t, os.WriteFile(file, []byte("0123456789"), 0o644))

	require.NoError(t, rotate(file, 100))
	assert.FileExists(t, file, "under the limit stays in place")

	require.NoError(t, rotate(file, 10))
	assert.NoFileExists(t, file)
	data, err := os.ReadFile(file + ".1")
	require.NoError(t, err)
	assert.Equal(t, "0123456789", string(data))

	require.NoError(t, rotate(filepath.Join(t.TempDir(), "missing.log"), 10))
}

func TestNew_ConsoleOnTerminal(t *testing.T) {
	orig := isTerminal
	t.Cleanup(func() { isTerminal = orig })

	isTerminal = func(*os.File) bool { return true }
	_, closer, err := New("debug", "")
	require.NoError(t, err)
	closer()
}

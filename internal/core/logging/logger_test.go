package logging

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func decode(t *testing.T, buf *bytes.Buffer) map[string]any {
	t.Helper()
	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	return entry
}

func TestComponent(t *testing.T) {
	orig := log.Logger
	t.Cleanup(func() { log.Logger = orig })

	var buf bytes.Buffer
	log.Logger = zerolog.New(&buf)

	Component("scanner").Info().Msg("scanned")

	entry := decode(t, &buf)
	assert.Equal(t, "scanner", entry["cmp"])
	assert.Equal(t, "scanned", entry["message"])
}

func TestFor_AddsAnnotations(t *testing.T) {
	var buf bytes.Buffer

	ctx := Annotate(context.Background(), "op", "run-action", "action", "npm: build")
	For(zerolog.New(&buf), "action-service").Info().Ctx(ctx).Msg("running")

	entry := decode(t, &buf)
	assert.Equal(t, "action-service", entry["cmp"])
	assert.Equal(t, "run-action", entry["op"])
	assert.Equal(t, "npm: build", entry["action"])
}

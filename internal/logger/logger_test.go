package logger

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewWritesStructuredJSON(t *testing.T) {
	zerolog.SetGlobalLevel(zerolog.DebugLevel)
	var buf bytes.Buffer

	log := New(&buf)
	log.Info().Int64("id", 7).Msg("question created")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "tca-backend", entry["service"])
	assert.Equal(t, "question created", entry["message"])
	assert.EqualValues(t, 7, entry["id"])
	assert.Contains(t, entry, "caller")
}

func TestSetupFallsBackToInfo(t *testing.T) {
	Setup("nonsense", "json")
	assert.Equal(t, zerolog.InfoLevel, zerolog.GlobalLevel())

	Setup("debug", "pretty")
	assert.Equal(t, zerolog.DebugLevel, zerolog.GlobalLevel())
}

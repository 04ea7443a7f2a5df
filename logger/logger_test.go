package logger

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewTagsService(t *testing.T) {
	var buf bytes.Buffer
	l := New(&buf, "b3history")

	l.Info().Str("ticker", "PETR4").Msg("hello")

	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "b3history", entry["service"])
	assert.Equal(t, "PETR4", entry["ticker"])
	assert.Equal(t, "hello", entry["message"])
}

func TestInitRejectsUnknownLevel(t *testing.T) {
	err := Init(Config{Level: "loud"})
	assert.Error(t, err)
}

func TestInitWithFile(t *testing.T) {
	previous := log.Logger
	defer func() {
		log.Logger = previous
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	}()

	path := filepath.Join(t.TempDir(), "logs", "app.log")
	require.NoError(t, Init(Config{Level: "info", Format: "json", File: path, ServiceName: "test"}))

	log.Info().Msg("written to file")

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "written to file")
}

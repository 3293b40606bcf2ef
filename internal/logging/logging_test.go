package logging

import (
	"bytes"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	lvl, ok := ParseLevel(" Debug ")
	require.True(t, ok)
	assert.Equal(t, zerolog.DebugLevel, lvl)

	lvl, ok = ParseLevel("off")
	require.True(t, ok)
	assert.Equal(t, zerolog.Disabled, lvl)

	_, ok = ParseLevel("loud")
	assert.False(t, ok)
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv(EnvLogLevel, "error")
	t.Setenv(EnvLogJSON, "true")

	cfg := defaultConfig(ProfileTest)
	applyEnvOverrides(&cfg)
	assert.Equal(t, zerolog.ErrorLevel, cfg.Level)
	assert.True(t, cfg.JSON)
}

func TestNewJSONCarriesApp(t *testing.T) {
	var buf bytes.Buffer
	lg := New(Config{Level: zerolog.InfoLevel, JSON: true, Out: &buf}, "audioboot")
	lg.Info().Msg("hello")
	assert.Contains(t, buf.String(), `"app":"audioboot"`)
	assert.Contains(t, buf.String(), `"message":"hello"`)
}

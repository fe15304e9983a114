package logging

import (
	"bytes"
	"testing"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/stretchr/testify/assert"
)

func TestNewLoggerSingleWriter(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(&buf)
	logger.Info().Str("stage", "profile").Msg("hello")

	assert.Contains(t, buf.String(), `"stage":"profile"`)
	assert.Contains(t, buf.String(), `"message":"hello"`)
}

func TestNewLoggerMultiWriter(t *testing.T) {
	var a, b bytes.Buffer
	logger := NewLogger(&a, &b)
	logger.Warn().Msg("both")

	assert.Contains(t, a.String(), "both")
	assert.Contains(t, b.String(), "both")
}

func TestWithComponent(t *testing.T) {
	var buf bytes.Buffer
	prev := log.Logger
	t.Cleanup(func() { log.Logger = prev })

	zerolog.SetGlobalLevel(zerolog.DebugLevel)
	log.Logger = zerolog.New(&buf)
	logger := WithComponent("render")
	logger.Info().Msg("x")

	assert.Contains(t, buf.String(), `"component":"render"`)
}

func TestInitJSON(t *testing.T) {
	var buf bytes.Buffer
	prev := log.Logger
	t.Cleanup(func() { log.Logger = prev })

	Init(Options{Verbose: true, JSON: true, Out: &buf})
	log.Debug().Int("frames", 20).Msg("rendered")

	assert.Contains(t, buf.String(), `"frames":20`)
	assert.Equal(t, zerolog.DebugLevel, zerolog.GlobalLevel())
}

func TestInitConsoleNonTerminal(t *testing.T) {
	var buf bytes.Buffer
	prev := log.Logger
	t.Cleanup(func() { log.Logger = prev })

	Init(Options{Out: &buf})
	log.Info().Msg("plain")

	assert.Contains(t, buf.String(), "plain")
	assert.NotContains(t, buf.String(), "\x1b[")
	assert.Equal(t, zerolog.InfoLevel, zerolog.GlobalLevel())
}

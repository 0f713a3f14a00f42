package logger

import (
	"bytes"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSetOutput_ExistingLogger(t *testing.T) {
	log := Logger("test/existing")

	buf := &bytes.Buffer{}
	SetOutput(buf)
	t.Cleanup(func() { SetOutput(&bytes.Buffer{}) })

	log.Info("after switch", "key", "value")

	output := buf.String()
	assert.Contains(t, output, "after switch")
	assert.Contains(t, output, "key=value")
	assert.Contains(t, output, "subsystem=test/existing")
}

func TestLogger_Cached(t *testing.T) {
	assert.Same(t, Logger("test/cached"), Logger("test/cached"))
}

func TestSetLevel(t *testing.T) {
	buf := &bytes.Buffer{}
	SetOutput(buf)
	t.Cleanup(func() { SetOutput(&bytes.Buffer{}) })

	log := Logger("test/level")
	SetLevel("test/level", slog.LevelError)
	log.Warn("hidden")
	assert.Empty(t, buf.String())

	SetLevel("test/level", slog.LevelDebug)
	log.Debug("shown")
	assert.Contains(t, buf.String(), "shown")
}

func TestParseConfig(t *testing.T) {
	env := map[string]string{
		"ENET_LOG_LEVEL":      "core=debug, luaenet=error ,warn,bogus=nope",
		"ENET_LOG_FORMAT":     "JSON",
		"ENET_LOG_ADD_SOURCE": "1",
	}
	cfg := parseConfig(func(k string) string { return env[k] })

	require.NotNil(t, cfg)
	assert.Equal(t, slog.LevelWarn, cfg.DefaultLevel)
	assert.Equal(t, FormatJSON, cfg.Format)
	assert.True(t, cfg.AddSource)
	assert.NotContains(t, cfg.SubsystemLevels, "bogus")

	tests := []struct {
		subsystem string
		want      slog.Level
	}{
		{"core", slog.LevelDebug},
		{"core/transport/quic", slog.LevelDebug},
		{"luaenet", slog.LevelError},
		{"corex", slog.LevelWarn},
		{"enet", slog.LevelWarn},
	}
	for _, tt := range tests {
		t.Run(tt.subsystem, func(t *testing.T) {
			assert.Equal(t, tt.want, cfg.LevelForSubsystem(tt.subsystem))
		})
	}
}

func TestParseLevel(t *testing.T) {
	level, ok := ParseLevel("WARNING")
	assert.True(t, ok)
	assert.Equal(t, slog.LevelWarn, level)

	_, ok = ParseLevel("verbose")
	assert.False(t, ok)
}

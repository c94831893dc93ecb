package logging

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	var buf bytes.Buffer
	log := New(&buf, "info")
	require.NotNil(t, log)

	log.Info().Msg("catalog loaded")
	assert.Contains(t, buf.String(), "catalog loaded")
}

func TestNewDefaultWriter(t *testing.T) {
	log := New(nil, "info")
	require.NotNil(t, log)
}

func TestSubAndWith(t *testing.T) {
	var buf bytes.Buffer
	log := New(&buf, "debug")

	log.Sub("session").With("sessionId", "session_42").Info().Msg("resolved")
	output := buf.String()
	assert.Contains(t, output, "resolved")
	assert.Contains(t, output, `"subsystem":"session"`)
	assert.Contains(t, output, `"sessionId":"session_42"`)
}

func TestLogLevels(t *testing.T) {
	var buf bytes.Buffer
	log := New(&buf, "warn")

	log.Debug().Msg("debug msg")
	log.Info().Msg("info msg")
	assert.Empty(t, buf.String(), "debug and info should be filtered at warn level")

	log.Warn().Msg("warn msg")
	assert.Contains(t, buf.String(), "warn msg")
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		input string
		want  zerolog.Level
	}{
		{"trace", zerolog.TraceLevel},
		{"debug", zerolog.DebugLevel},
		{"info", zerolog.InfoLevel},
		{"warn", zerolog.WarnLevel},
		{"error", zerolog.ErrorLevel},
		{"fatal", zerolog.FatalLevel},
		{"silent", zerolog.Disabled},
		{"", zerolog.InfoLevel},
		{"INFO", zerolog.InfoLevel}, // case-sensitive, defaults to info
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.want, parseLevel(tt.input))
		})
	}
}

func TestOpenJSONFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "somc.log")

	log, closer, err := Open(Options{Level: "info", Style: "json", File: path})
	require.NoError(t, err)
	log.Info().Str("agent", "A").Msg("to file")
	require.NoError(t, closer.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"message":"to file"`)
	assert.Contains(t, string(data), `"agent":"A"`)
}

func TestOpenBadFile(t *testing.T) {
	_, closer, err := Open(Options{File: filepath.Join(t.TempDir(), "missing", "x.log")})
	assert.Error(t, err)
	assert.NotNil(t, closer)
}

func TestDiscard(t *testing.T) {
	log := Discard()
	log.Error().Msg("dropped")
	assert.NotNil(t, log.Sub("x"))
}

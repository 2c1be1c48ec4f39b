package logger

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestParseLevel(t *testing.T) {
	assert.Equal(t, Debug, ParseLevel("DEBUG"))
	assert.Equal(t, Warn, ParseLevel(" warning "))
	assert.Equal(t, Info, ParseLevel(""))
	assert.Equal(t, Info, ParseLevel("nope"))
	assert.Equal(t, "error", Error.String())
}

func TestParseFormat(t *testing.T) {
	assert.Equal(t, FormatJSON, ParseFormat("json"))
	assert.Equal(t, FormatText, ParseFormat("console"))
}

func TestZapLogger_WithMergesFields(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	l := FromZap(zap.New(core))

	child := l.With(map[string]any{"subject_id": "u-1", "": "ignored"})
	child.Warn("poll failed", map[string]any{"error": errors.New("boom"), "attempt": 2})

	require.Equal(t, 1, logs.Len())
	entry := logs.All()[0]
	assert.Equal(t, "poll failed", entry.Message)
	assert.Equal(t, zapcore.WarnLevel, entry.Level)

	ctx := entry.ContextMap()
	assert.Equal(t, "u-1", ctx["subject_id"])
	assert.Equal(t, "boom", ctx["error"])
	assert.EqualValues(t, 2, ctx["attempt"])
	_, hasEmpty := ctx[""]
	assert.False(t, hasEmpty)
}

func TestNew_Builds(t *testing.T) {
	l, err := New(Options{Level: Info, Format: FormatJSON, App: "dose-tracker"})
	require.NoError(t, err)
	l.Debug("dropped", nil)
}

package log

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestParseLevel(t *testing.T) {
	cases := map[string]Level{
		"debug":   LevelDebug,
		"":        LevelInfo,
		"INFO":    LevelInfo,
		"warning": LevelWarn,
		"error":   LevelError,
	}
	for in, want := range cases {
		got, err := ParseLevel(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}

	_, err := ParseLevel("loud")
	assert.Error(t, err)
}

func TestLoggerFieldsAndLevel(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	logger := NewFromZap(zap.New(core), LevelInfo)

	logger.Debug("hidden")
	child := logger.With(String("component", "engine"))
	child.Info("started",
		Int("bodies", 3),
		Duration("join", 200*time.Millisecond),
		Strings("blacklist", []string{"a.b"}),
		Error(errors.New("boom")),
	)

	require.Equal(t, 1, logs.Len())
	entry := logs.All()[0]
	assert.Equal(t, "started", entry.Message)
	fields := entry.ContextMap()
	assert.Equal(t, "engine", fields["component"])
	assert.EqualValues(t, 3, fields["bodies"])
	assert.Equal(t, "boom", fields["error"])

	child.SetLevel(LevelDebug)
	assert.Equal(t, LevelDebug, logger.GetLevel(), "children share the level")
	logger.Debug("visible")
	assert.Equal(t, 2, logs.Len())
}

func TestNopLogger(t *testing.T) {
	logger := NewNop()
	logger.Error("dropped", Error(errors.New("x")))
	assert.NoError(t, logger.Sync())
}

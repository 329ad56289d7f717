package config

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zeusync/pebble/internal/core/engine"
	"github.com/zeusync/pebble/internal/core/model"
	"github.com/zeusync/pebble/internal/core/observability/log"
	"github.com/zeusync/pebble/internal/core/physics"
)

func TestDefaultIsValid(t *testing.T) {
	c := Default()
	require.NoError(t, c.Validate())
	assert.Equal(t, engine.DefaultTuning(), c.EngineTuning())
	assert.Equal(t, physics.DefaultTuning(), c.PhysicsTuning())
	assert.Equal(t, log.LevelInfo, c.LogLevel())
}

func TestDefaultsRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Default().Encode(&buf))
	assert.Contains(t, buf.String(), "spawn_interval: 600ms")
	assert.Contains(t, buf.String(), "mode: circle")

	c, err := Load(&buf)
	require.NoError(t, err)
	assert.Equal(t, Default(), c)
}

func TestEmptyInputYieldsDefaults(t *testing.T) {
	c, err := Load(strings.NewReader(""))
	require.NoError(t, err)
	assert.Equal(t, Default(), c)
}

func TestLoadOverrides(t *testing.T) {
	c, err := Load(strings.NewReader(`
log:
  level: debug
mode: block
blacklist: [com.example.feed, com.example.video]
phrases:
  - Go outside
engine:
  spawn_interval: 1s
  gravity: [1.5, 9.8]
image:
  ref: file:///pics/cat.png
  aspect_ratio: 1.5
`))
	require.NoError(t, err)

	assert.Equal(t, log.LevelDebug, c.LogLevel())
	assert.Equal(t, model.KindCompoundBlock, c.Mode)
	assert.Equal(t, []string{"com.example.feed", "com.example.video"}, c.Blacklist)
	assert.Equal(t, []string{"Go outside"}, c.Phrases)
	assert.Equal(t, time.Second, c.EngineTuning().SpawnInterval)
	assert.Equal(t, engine.DefaultTuning().CrackInterval, c.EngineTuning().CrackInterval)
	assert.Equal(t, [2]float64{1.5, 9.8}, c.Engine.Gravity)
	assert.Equal(t, 1.5, c.Image.AspectRatio)
	assert.Equal(t, 1080.0, c.Screen.Width)
}

func TestLoadRejectsUnknownFields(t *testing.T) {
	_, err := Load(strings.NewReader("no_such_field: 1\n"))
	assert.Error(t, err)
}

func TestLoadRejectsUnknownMode(t *testing.T) {
	_, err := Load(strings.NewReader("mode: lava\n"))
	assert.ErrorIs(t, err, model.ErrUnknownKind)
}

func TestValidateJoinsErrors(t *testing.T) {
	c := Default()
	c.Log.Level = "loud"
	c.Screen.Width = 0
	c.Engine.SpawnInterval = -time.Second
	c.Bridge.QueueSize = -1

	err := c.Validate()
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalidConfig)
	for _, want := range []string{"log.level", "screen size", "engine.spawn_interval", "bridge.queue_size"} {
		assert.Contains(t, err.Error(), want)
	}
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "pebble.yaml")
	require.NoError(t, os.WriteFile(path, []byte("mode: crack\n"), 0o600))

	c, err := LoadFile(path)
	require.NoError(t, err)
	assert.Equal(t, model.KindCrack, c.Mode)

	_, err = LoadFile(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

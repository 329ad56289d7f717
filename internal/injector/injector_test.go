package injector

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zeusync/pebble/internal/config"
	"github.com/zeusync/pebble/internal/core/engine"
	"github.com/zeusync/pebble/internal/core/events/bus"
	"github.com/zeusync/pebble/internal/core/model"
)

func TestInitializeApp(t *testing.T) {
	cfg := config.Default()
	cfg.Mode = model.KindCrack

	app, err := InitializeApp(cfg)
	require.NoError(t, err)
	require.NotNil(t, app.Engine)
	assert.Equal(t, model.KindCrack, app.Engine.Mode())
	assert.Same(t, app.World, app.Strategy.World())

	cfg.Apply(app.Strategy, app.Engine)
	assert.True(t, app.Strategy.Initialized())

	s := CollectStats(app.Engine, app.Analytics, app.World, app.Hub, app.Bus)
	assert.Equal(t, engine.StateIdle.String(), s.State)
	assert.Equal(t, "crack", s.Mode)
	assert.Zero(t, s.Episodes)
	assert.Zero(t, s.Today)
	assert.Zero(t, s.Overlays)
}

func TestBusMetricsInStats(t *testing.T) {
	app, err := InitializeApp(config.Default())
	require.NoError(t, err)

	require.NoError(t, app.Bus.Publish(bus.NewEvent("test.ping", "test", nil)))
	s := CollectStats(nil, nil, nil, nil, app.Bus)
	assert.Equal(t, uint64(1), s.Events)
	assert.Zero(t, s.Failures)
}

func TestCollectStatsToleratesNil(t *testing.T) {
	assert.Equal(t, Stats{}, CollectStats(nil, nil, nil, nil, nil))
}

package main

import (
	"context"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zeusync/pebble/internal/config"
	"github.com/zeusync/pebble/internal/core/engine"
	"github.com/zeusync/pebble/internal/injector"
	"github.com/zeusync/pebble/internal/server"
)

func TestShutdownStopsStartedApp(t *testing.T) {
	cfg := config.Default()
	cfg.Bridge.Addr = "127.0.0.1:0"
	app, err := injector.InitializeApp(cfg)
	require.NoError(t, err)

	ctx := context.Background()
	require.NoError(t, app.Engine.Start(ctx))
	require.NoError(t, app.HTTP.Start(ctx))
	addr := app.HTTP.Addr()

	require.NoError(t, shutdown(app))
	assert.False(t, app.Engine.Running())
	assert.ErrorIs(t, app.HTTP.Stop(ctx), server.ErrServerNotRunning)
	assert.ErrorIs(t, app.Engine.Watch(ctx, engine.Sources{}), engine.ErrNotStarted)

	_, err = net.DialTimeout("tcp", addr, 200*time.Millisecond)
	assert.Error(t, err)
}

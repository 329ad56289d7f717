package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/zeusync/pebble/internal/config"
	"github.com/zeusync/pebble/internal/core/observability/log"
	"github.com/zeusync/pebble/internal/injector"
	"golang.org/x/sync/errgroup"
)

const shutdownTimeout = 3 * time.Second

func main() {
	configPath := flag.String("config", "", "path to a YAML config file")
	addr := flag.String("addr", "", "overlay bridge listen address (overrides config)")
	flag.Parse()

	if err := run(*configPath, *addr); err != nil {
		fmt.Fprintln(os.Stderr, "pebble:", err)
		os.Exit(1)
	}
}

func run(configPath, addr string) error {
	cfg := config.Default()
	if configPath != "" {
		loaded, err := config.LoadFile(configPath)
		if err != nil {
			return err
		}
		cfg = loaded
	}
	if addr != "" {
		cfg.Bridge.Addr = addr
	}

	app, err := injector.InitializeApp(cfg)
	if err != nil {
		return err
	}
	logger := app.Logger
	defer func() { _ = logger.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg.Apply(app.Strategy, app.Engine)
	if err := app.Engine.Start(ctx); err != nil {
		return err
	}
	if err := app.HTTP.Start(ctx); err != nil {
		app.Engine.Stop()
		return errors.Join(err, app.Analytics.Detach())
	}

	ctl := newController(app.Engine, func() any {
		return injector.CollectStats(app.Engine, app.Analytics, app.World, app.Hub, app.Bus)
	})
	if err := app.Engine.Watch(ctx, ctl.src); err != nil {
		return errors.Join(err, shutdown(app))
	}

	// stdin may never close, so the reader is not part of the group
	go func() {
		if err := ctl.Run(ctx, os.Stdin, os.Stdout); err != nil {
			logger.Warn("control input failed", log.Error(err))
		}
	}()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		<-gctx.Done()
		app.Engine.Stop()
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		return closeBridge(app)
	})

	logger.Info("pebble running",
		log.String("bridge", app.HTTP.Addr()),
		log.String("mode", app.Engine.Mode().String()),
		log.Strings("blacklist", app.Engine.Blacklist()),
	)
	err = g.Wait()
	logger.Info("pebble stopped", log.Uint64("episodes", app.Engine.Episodes()))
	return errors.Join(err, app.Analytics.Detach())
}

// closeBridge disconnects overlay clients and stops the HTTP server.
func closeBridge(app *injector.App) error {
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return errors.Join(app.Hub.Close(), app.HTTP.Stop(ctx))
}

// shutdown tears down a started app outside the normal signal path.
func shutdown(app *injector.App) error {
	app.Engine.Stop()
	return errors.Join(closeBridge(app), app.Analytics.Detach())
}

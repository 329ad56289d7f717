package injector

import (
	"time"

	"github.com/google/wire"
	"github.com/zeusync/pebble/internal/analytics"
	"github.com/zeusync/pebble/internal/config"
	"github.com/zeusync/pebble/internal/core/engine"
	"github.com/zeusync/pebble/internal/core/events/bus"
	"github.com/zeusync/pebble/internal/core/observability/log"
	"github.com/zeusync/pebble/internal/core/physics"
	"github.com/zeusync/pebble/internal/core/strategy"
	"github.com/zeusync/pebble/internal/server"
)

// ProviderSet builds a complete App from a config.Config.
var ProviderSet = wire.NewSet(
	ProvideLogger,
	ProvideBus,
	ProvideWorld,
	ProvideStrategy,
	ProvideHub,
	ProvideEngine,
	ProvideRecorder,
	ProvideHTTPServer,
	wire.Struct(new(App), "*"),
)

// App is the wired daemon.
type App struct {
	Config    config.Config
	Logger    *log.Logger
	Bus       bus.EventBus
	World     *physics.World
	Strategy  *strategy.Strategy
	Hub       *server.Hub
	Engine    *engine.Engine
	Analytics *analytics.Recorder
	HTTP      *server.HTTPServer
}

func ProvideLogger(cfg config.Config) *log.Logger {
	return log.New(cfg.LogLevel())
}

// ProvideBus builds the event bus with a logging observer, which also turns
// on delivery metrics.
func ProvideBus(logger *log.Logger) bus.EventBus {
	b := bus.New()
	b.AddObserver(busLogger{logger: logger.With(log.String("component", "bus"))})
	return b
}

type busLogger struct {
	logger log.Log
}

func (busLogger) OnPublish(string, string, bus.Event) {}

func (o busLogger) OnDelivered(_, eventType string, handlers int, err error, took time.Duration) {
	if err != nil {
		o.logger.Warn("event delivery failed",
			log.String("event", eventType),
			log.Int("handlers", handlers),
			log.Error(err),
		)
		return
	}
	o.logger.Debug("event delivered",
		log.String("event", eventType),
		log.Int("handlers", handlers),
		log.Duration("took", took),
	)
}

func ProvideWorld(cfg config.Config) *physics.World {
	return physics.NewWorld(cfg.PhysicsTuning())
}

func ProvideStrategy(world *physics.World, logger *log.Logger) *strategy.Strategy {
	return strategy.New(world, strategy.WithLogger(logger))
}

func ProvideHub(cfg config.Config, logger *log.Logger) *server.Hub {
	return server.NewHub(logger, cfg.Bridge.QueueSize)
}

func ProvideEngine(cfg config.Config, s *strategy.Strategy, hub *server.Hub, b bus.EventBus, logger *log.Logger) *engine.Engine {
	return engine.New(s, hub,
		engine.WithBus(b),
		engine.WithLogger(logger),
		engine.WithTuning(cfg.EngineTuning()),
		engine.WithMode(cfg.Mode),
	)
}

func ProvideRecorder(b bus.EventBus, logger *log.Logger) (*analytics.Recorder, error) {
	rec := analytics.NewRecorder(logger)
	if err := rec.Attach(b); err != nil {
		return nil, err
	}
	return rec, nil
}

func ProvideHTTPServer(cfg config.Config, hub *server.Hub, e *engine.Engine, rec *analytics.Recorder, world *physics.World, b bus.EventBus, logger *log.Logger) *server.HTTPServer {
	stats := func() any { return CollectStats(e, rec, world, hub, b) }
	return server.NewHTTPServer(cfg.Bridge.Addr, cfg.Bridge.Path, hub, stats, logger)
}

package engine

import (
	"context"
	"math"
	"slices"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/zeusync/pebble/internal/core/events/bus"
	"github.com/zeusync/pebble/internal/core/model"
	"github.com/zeusync/pebble/internal/core/observability/log"
)

// Option configures an Engine.
type Option func(*Engine)

func WithBus(b bus.EventBus) Option {
	return func(e *Engine) { e.bus = b }
}

func WithLogger(logger log.Log) Option {
	return func(e *Engine) { e.logger = logger }
}

func WithTuning(t Tuning) Option {
	return func(e *Engine) { e.tuning = t }
}

// WithMode sets the obstacle kind used before the first ChangeMode.
func WithMode(kind model.Kind) Option {
	return func(e *Engine) { e.mode.Store(uint32(kind)) }
}

// Engine reacts to foreground app changes: while a blacklisted app is in
// front it runs the stepping loop and shows the overlay, otherwise it stays
// idle and hidden.
//
// Control operations are serialized by ctrlMu. The stepping loop never
// takes ctrlMu, so a control operation may wait for the loop to exit.
// spawnMu is held for a whole frame and for every mode swap or clear, so a
// frame never spans a clear. Lock order is ctrlMu, then spawnMu.
type Engine struct {
	obstacles Obstacles
	renderer  Renderer
	bus       bus.EventBus
	logger    log.Log
	tuning    Tuning

	ctrlMu     sync.Mutex
	running    bool
	runCtx     context.Context
	cancelRun  context.CancelFunc
	dispatch   *dispatcher
	state      State
	foreground string
	blacklist  map[string]struct{}
	visible    bool
	loop       *loopHandle
	episodeID  uuid.UUID
	episodeAt  time.Time
	episodePkg string

	spawnMu sync.Mutex

	mode     atomic.Uint32
	gravityX atomic.Uint64
	gravityY atomic.Uint64
	episodes atomic.Uint64

	decoMu      sync.Mutex
	decorations []model.RenderEntity
}

// New creates an idle engine. Nothing happens until Start.
func New(obstacles Obstacles, renderer Renderer, opts ...Option) *Engine {
	e := &Engine{
		obstacles: obstacles,
		renderer:  renderer,
		logger:    log.NewNop(),
		tuning:    DefaultTuning(),
		blacklist: make(map[string]struct{}),
	}
	e.mode.Store(uint32(model.KindCircle))
	e.storeGravity(0, 9.8)
	for _, opt := range opts {
		opt(e)
	}
	e.tuning = e.tuning.withDefaults()
	e.logger = e.logger.With(log.String("component", "engine"))
	return e
}

// Start begins observing. The engine stays usable after Stop and may be
// started again.
func (e *Engine) Start(ctx context.Context) error {
	e.ctrlMu.Lock()
	defer e.ctrlMu.Unlock()

	if e.running {
		return ErrAlreadyStarted
	}
	e.runCtx, e.cancelRun = context.WithCancel(ctx)
	e.dispatch = newDispatcher(e.renderer, e.logger)
	go e.dispatch.Run()
	e.running = true
	e.logger.Info("engine started", log.String("mode", e.Mode().String()))

	// a foreground app observed before Start still counts
	e.evaluateLocked()
	return nil
}

// Stop cancels observation, stops the stepping loop and hides the overlay.
// A hide command is issued even if the overlay was already hidden.
func (e *Engine) Stop() {
	e.ctrlMu.Lock()
	defer e.ctrlMu.Unlock()

	if !e.running {
		return
	}
	e.cancelRun()
	if e.state == StateActive {
		e.deactivateLocked()
	}
	e.visible = false
	e.dispatch.PostVisible(false)
	if !e.dispatch.Close(e.tuning.JoinTimeout) {
		e.logger.Warn("renderer did not drain before stop", log.Duration("timeout", e.tuning.JoinTimeout))
	}
	e.running = false
	e.logger.Info("engine stopped", log.Uint64("episodes", e.episodes.Load()))
}

// ObserveForeground records the app currently in front. Empty values are
// ignored and repeating the current app is a no-op.
func (e *Engine) ObserveForeground(pkg string) {
	if pkg == "" {
		return
	}

	e.ctrlMu.Lock()
	defer e.ctrlMu.Unlock()

	if pkg == e.foreground {
		return
	}
	e.foreground = pkg
	e.evaluateLocked()
}

// UpdateBlacklist replaces the set of apps that trigger obstacles and
// re-evaluates the current foreground app against it.
func (e *Engine) UpdateBlacklist(pkgs []string) {
	set := make(map[string]struct{}, len(pkgs))
	for _, p := range pkgs {
		if p != "" {
			set[p] = struct{}{}
		}
	}

	e.ctrlMu.Lock()
	defer e.ctrlMu.Unlock()

	e.blacklist = set
	e.evaluateLocked()
}

// Blacklist returns the current blacklist, sorted.
func (e *Engine) Blacklist() []string {
	e.ctrlMu.Lock()
	defer e.ctrlMu.Unlock()

	out := make([]string, 0, len(e.blacklist))
	for p := range e.blacklist {
		out = append(out, p)
	}
	slices.Sort(out)
	return out
}

// ChangeMode switches the obstacle kind. Existing obstacles are cleared
// unless the new mode is crack; leaving crack mode drops the decorations.
func (e *Engine) ChangeMode(kind model.Kind) {
	if !kind.Valid() {
		e.logger.Warn("ignoring unknown mode", log.Any("kind", uint8(kind)))
		return
	}

	e.ctrlMu.Lock()
	defer e.ctrlMu.Unlock()

	e.spawnMu.Lock()
	prev := model.Kind(e.mode.Swap(uint32(kind)))
	if prev != kind && kind != model.KindCrack {
		e.clearLocked()
	}
	e.spawnMu.Unlock()
	if prev == kind {
		return
	}
	e.logger.Info("mode changed", log.String("from", prev.String()), log.String("to", kind.String()))
	e.publish(EventModeChanged, ModeChanged{From: prev, To: kind})
}

// ClearObstacles removes every obstacle and decoration and sends an empty
// payload to the renderer.
func (e *Engine) ClearObstacles() {
	e.ctrlMu.Lock()
	defer e.ctrlMu.Unlock()

	e.spawnMu.Lock()
	e.clearLocked()
	e.spawnMu.Unlock()
	e.publish(EventObstaclesCleared, ObstaclesCleared{Mode: e.Mode()})
}

// SetGravity records the latest accelerometer reading.
func (e *Engine) SetGravity(gx, gy float64) {
	e.storeGravity(gx, gy)
}

func (e *Engine) UpdatePhrases(phrases []string) {
	e.obstacles.UpdatePhrases(phrases)
}

func (e *Engine) UpdateCustomImage(ref ImageRef) {
	e.obstacles.UpdateCustomImage(ref.Ref, ref.AspectRatio)
}

func (e *Engine) State() State {
	e.ctrlMu.Lock()
	defer e.ctrlMu.Unlock()
	return e.state
}

func (e *Engine) Mode() model.Kind {
	return model.Kind(e.mode.Load())
}

// Gravity returns the last recorded gravity vector.
func (e *Engine) Gravity() (float64, float64) {
	return math.Float64frombits(e.gravityX.Load()), math.Float64frombits(e.gravityY.Load())
}

// Episodes counts Idle to Active transitions since the engine was created.
func (e *Engine) Episodes() uint64 {
	return e.episodes.Load()
}

// Running reports whether Start has been called without a matching Stop.
func (e *Engine) Running() bool {
	e.ctrlMu.Lock()
	defer e.ctrlMu.Unlock()
	return e.running
}

func (e *Engine) storeGravity(gx, gy float64) {
	e.gravityX.Store(math.Float64bits(gx))
	e.gravityY.Store(math.Float64bits(gy))
}

func (e *Engine) evaluateLocked() {
	if !e.running || e.foreground == "" {
		return
	}

	_, blocked := e.blacklist[e.foreground]
	switch {
	case blocked && e.state == StateIdle:
		e.activateLocked()
	case !blocked && e.state == StateActive:
		e.deactivateLocked()
	}
}

func (e *Engine) activateLocked() {
	mode := e.Mode()
	if mode.Physical() {
		e.spawnMu.Lock()
		e.obstacles.ClearAll()
		e.spawnMu.Unlock()
	}

	episode := e.episodes.Add(1)
	e.dispatch.SetEpisode(episode)
	e.loop = e.startLoop(episode)
	e.state = StateActive
	e.episodeID, e.episodeAt, e.episodePkg = uuid.New(), time.Now(), e.foreground
	e.setVisibleLocked(true)

	e.logger.Info("episode started",
		log.String("package", e.foreground),
		log.String("mode", mode.String()),
		log.Uint64("episode", episode),
	)
	e.publish(EventEpisodeStarted, EpisodeStarted{
		ID:        e.episodeID,
		Package:   e.foreground,
		Mode:      mode,
		StartedAt: e.episodeAt,
	})
	e.publish(EventStateChanged, StateChanged{From: StateIdle, To: StateActive, Package: e.foreground})
}

func (e *Engine) deactivateLocked() {
	e.state = StateIdle
	// frames still in flight from this episode must not reach the renderer
	e.dispatch.SetEpisode(0)
	if e.loop != nil {
		if !e.loop.stop(e.tuning.JoinTimeout) {
			e.logger.Warn("stepping loop did not exit in time", log.Duration("timeout", e.tuning.JoinTimeout))
		}
		e.loop = nil
	}
	e.clearDecorations()
	e.setVisibleLocked(false)

	took := time.Since(e.episodeAt)
	e.logger.Info("episode finished", log.String("package", e.episodePkg), log.Duration("duration", took))
	e.publish(EventEpisodeFinished, EpisodeFinished{ID: e.episodeID, Package: e.episodePkg, Duration: took})
	e.publish(EventStateChanged, StateChanged{From: StateActive, To: StateIdle, Package: e.episodePkg})
}

func (e *Engine) setVisibleLocked(visible bool) {
	if e.visible == visible {
		return
	}
	e.visible = visible
	e.dispatch.PostVisible(visible)
}

// clearLocked drops bodies and decorations and posts an empty payload.
// Callers hold ctrlMu and spawnMu.
func (e *Engine) clearLocked() {
	e.obstacles.ClearAll()
	e.clearDecorations()
	if e.running {
		e.dispatch.PostClear()
	}
}

// publish hands the event to the bus without waiting for handlers.
func (e *Engine) publish(eventType string, data any) {
	if e.bus == nil {
		return
	}
	errs := e.bus.PublishAsync(bus.NewEvent(eventType, eventSource, data))
	go func() {
		if err := <-errs; err != nil {
			e.logger.Warn("event handler failed", log.String("event", eventType), log.Error(err))
		}
	}()
}

func (e *Engine) addDecoration(d model.RenderEntity) {
	e.decoMu.Lock()
	e.decorations = append(e.decorations, d)
	e.decoMu.Unlock()
}

// Decorations returns a copy of the accumulated crack decorations.
func (e *Engine) Decorations() []model.RenderEntity {
	e.decoMu.Lock()
	defer e.decoMu.Unlock()
	return append([]model.RenderEntity{}, e.decorations...)
}

func (e *Engine) clearDecorations() {
	e.decoMu.Lock()
	e.decorations = nil
	e.decoMu.Unlock()
}

package strategy

import (
	"math"
	"math/rand/v2"
	"sync"
	"unicode/utf8"

	"github.com/zeusync/pebble/internal/core/model"
	"github.com/zeusync/pebble/internal/core/observability/log"
	"github.com/zeusync/pebble/internal/core/physics"
)

// Spawn geometry, in pixels.
const (
	MaxSpawnAttempts = 5

	spawnSideMargin = 50.0
	spawnTopOffset  = 150.0
	spawnTopJitter  = 150.0

	circleMinRadius    = 60.0
	circleRadiusJitter = 50.0
	circleEstimate     = 80.0
	circleExclusionMul = 2.2

	blockMinSize      = 40.0
	blockSizeJitter   = 20.0
	blockEstimate     = 100.0
	blockExclusionMul = 2.0

	textCharWidth      = 40.0
	textPadding        = 60.0
	textHeight         = 90.0
	textEstimate       = 120.0
	textExclusionMul   = 1.5
	textBubbleColor    = 0xAA000000
	imageMinBase       = 180.0
	imageBaseJitter    = 60.0
	imageMinSide       = 80.0
	imageMaxSide       = 400.0
	imageExclusionMul  = 1.2
	crackMinRadius     = 150.0
	crackRadiusJitter  = 200.0
	defaultAspectRatio = 1.0
)

// crackIDBit marks crack ids so they never collide with world body ids,
// which count up from 1.
const crackIDBit = 1 << 63

// DefaultPhrases is used until UpdatePhrases supplies a non-empty list.
var DefaultPhrases = []string{
	"Put the phone down!",
	"Focus!",
	"What are you doing?",
	"Stop scrolling",
	"Back to work!",
	"Discipline is freedom",
}

// Option configures a Strategy.
type Option func(*Strategy)

// WithRand replaces the random source, mostly for deterministic tests.
func WithRand(rng *rand.Rand) Option {
	return func(s *Strategy) { s.rng = rng }
}

// WithLogger sets the logger used for skipped spawns.
func WithLogger(logger log.Log) Option {
	return func(s *Strategy) { s.logger = logger }
}

// Strategy decides where and what to spawn. Until SetScreenSize has been
// called every operation is a no-op.
type Strategy struct {
	world  *physics.World
	logger log.Log

	mu          sync.Mutex
	rng         *rand.Rand
	screenW     float64
	screenH     float64
	initialized bool
	phrases     []string
	imageRef    string
	aspectRatio float64
	crackSeq    uint64
}

// New creates a strategy spawning into world.
func New(world *physics.World, opts ...Option) *Strategy {
	s := &Strategy{
		world:       world,
		logger:      log.NewNop(),
		rng:         rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64())),
		phrases:     append([]string(nil), DefaultPhrases...),
		aspectRatio: defaultAspectRatio,
		// per-process base: a crack redraws identically but sessions differ
		crackSeq: crackIDBit | uint64(rand.Uint32())<<16,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = s.logger.With(log.String("component", "strategy"))
	return s
}

// World exposes the underlying rigid-body world.
func (s *Strategy) World() *physics.World {
	return s.world
}

// SetScreenSize records the screen geometry and rebuilds the world bounds.
func (s *Strategy) SetScreenSize(width, height, topInset, bottomInset float64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.screenW, s.screenH = width, height
	s.world.SetupBounds(width, height, topInset, bottomInset)
	s.initialized = width > 0 && height > 0
}

// Initialized reports whether a usable screen size is known.
func (s *Strategy) Initialized() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.initialized
}

// UpdatePhrases replaces the text bubble phrases. An empty list is ignored.
func (s *Strategy) UpdatePhrases(phrases []string) {
	kept := make([]string, 0, len(phrases))
	for _, p := range phrases {
		if p != "" {
			kept = append(kept, p)
		}
	}
	if len(kept) == 0 {
		return
	}

	s.mu.Lock()
	s.phrases = kept
	s.mu.Unlock()
}

// Phrases returns a copy of the current phrase list.
func (s *Strategy) Phrases() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.phrases...)
}

// UpdateCustomImage sets the image used by the image kind. An empty ref
// clears it; a non-positive ratio is treated as square.
func (s *Strategy) UpdateCustomImage(ref string, aspectRatio float64) {
	if aspectRatio <= 0 || math.IsNaN(aspectRatio) || math.IsInf(aspectRatio, 0) {
		aspectRatio = defaultAspectRatio
	}

	s.mu.Lock()
	s.imageRef = ref
	s.aspectRatio = aspectRatio
	if ref == "" {
		s.aspectRatio = defaultAspectRatio
	}
	s.mu.Unlock()
}

// SpawnObstacle tries to drop one obstacle of the given kind above the
// screen. It gives up silently after MaxSpawnAttempts unsafe positions and
// reports whether a body was created.
func (s *Strategy) SpawnObstacle(kind model.Kind) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.initialized {
		return false
	}
	if kind == model.KindImage && s.imageRef == "" {
		kind = model.KindCircle
	}
	if !kind.Physical() {
		return false
	}

	for attempt := 0; attempt < MaxSpawnAttempts; attempt++ {
		x, y := s.spawnPoint()
		if s.trySpawn(kind, x, y) {
			return true
		}
	}

	s.logger.Debug("spawn skipped, no safe region",
		log.String("kind", kind.String()),
		log.Int("attempts", MaxSpawnAttempts),
	)
	return false
}

func (s *Strategy) trySpawn(kind model.Kind, x, y float64) bool {
	switch kind {
	case model.KindCircle:
		if !s.world.IsRegionSafe(x, y, circleEstimate*circleExclusionMul) {
			return false
		}
		s.world.CreateCircle(x, y, circleMinRadius+s.rng.Float64()*circleRadiusJitter)
		return true

	case model.KindCompoundBlock:
		if !s.world.IsRegionSafe(x, y, blockEstimate*blockExclusionMul) {
			return false
		}
		shape := model.TetrominoAt(s.rng.IntN(model.TetrominoCount()))
		s.world.CreateCompoundBlock(x, y, shape, blockMinSize+s.rng.Float64()*blockSizeJitter)
		return true

	case model.KindTextBubble:
		text := s.phrases[s.rng.IntN(len(s.phrases))]
		width := TextWidth(text)
		if !s.world.IsRegionSafe(x, y, math.Max(textEstimate, width/2)*textExclusionMul) {
			return false
		}
		s.world.CreateBox(x, y, model.TextBubble{
			Width:  width,
			Height: textHeight,
			Text:   text,
			Color:  textBubbleColor,
		})
		return true

	case model.KindImage:
		w, h := ImageSize(imageMinBase+s.rng.Float64()*imageBaseJitter, s.aspectRatio)
		if !s.world.IsRegionSafe(x, y, math.Max(w, h)*imageExclusionMul) {
			return false
		}
		s.world.CreateImageBody(x, y, w, h, s.imageRef)
		return true
	}
	return false
}

// spawnPoint picks a random point above the visible top edge.
func (s *Strategy) spawnPoint() (float64, float64) {
	x := spawnSideMargin + s.rng.Float64()*(s.screenW-2*spawnSideMargin)
	if s.screenW <= 2*spawnSideMargin {
		x = s.rng.Float64() * s.screenW
	}
	y := -spawnTopOffset - s.rng.Float64()*spawnTopJitter
	return x, y
}

// CreateStaticCrack produces one decorative crack at a random spot. It does
// not touch the world. ok is false until the screen size is known.
func (s *Strategy) CreateStaticCrack() (e model.RenderEntity, ok bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.initialized {
		return model.RenderEntity{}, false
	}

	s.crackSeq++
	return model.RenderEntity{
		ID:       s.crackSeq,
		X:        s.rng.Float64() * s.screenW,
		Y:        s.rng.Float64() * s.screenH,
		Rotation: s.rng.Float64() * 360,
		Shape:    model.Crack{Radius: crackMinRadius + s.rng.Float64()*crackRadiusJitter},
	}, true
}

// ClearAll removes every physical obstacle.
func (s *Strategy) ClearAll() {
	if !s.Initialized() {
		return
	}
	s.world.ClearDynamicBodies()
}

// IsFull reports whether spawning should pause because the top of the
// playfield is occupied.
func (s *Strategy) IsFull() bool {
	if !s.Initialized() {
		return false
	}
	return s.world.IsTopBlocked()
}

// Update steps the world under the given gravity and returns a snapshot.
func (s *Strategy) Update(gravityX, gravityY float64) []model.RenderEntity {
	if !s.Initialized() {
		return nil
	}
	s.world.Step(gravityX, gravityY)
	return s.world.Snapshot()
}

// TextWidth estimates the rendered width of a text bubble.
func TextWidth(text string) float64 {
	return float64(utf8.RuneCountInString(text))*textCharWidth + textPadding
}

// ImageSize derives an image body's size from a base edge length, keeping
// the area near base^2 and the aspect ratio intact while pulling both sides
// into [80, 400]. Ratios too extreme to satisfy both bounds are clamped per
// side.
func ImageSize(base, aspectRatio float64) (w, h float64) {
	if aspectRatio <= 0 {
		aspectRatio = defaultAspectRatio
	}
	sq := math.Sqrt(aspectRatio)
	w, h = base*sq, base/sq

	if w < imageMinSide {
		w, h = imageMinSide, imageMinSide/aspectRatio
	}
	if h < imageMinSide {
		w, h = imageMinSide*aspectRatio, imageMinSide
	}
	if w > imageMaxSide {
		w, h = imageMaxSide, imageMaxSide/aspectRatio
	}
	if h > imageMaxSide {
		w, h = imageMaxSide*aspectRatio, imageMaxSide
	}

	return clamp(w, imageMinSide, imageMaxSide), clamp(h, imageMinSide, imageMaxSide)
}

func clamp(v, lo, hi float64) float64 {
	return math.Min(math.Max(v, lo), hi)
}

package engine

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/zeusync/pebble/internal/core/model"
)

var (
	ErrNotStarted     = errors.New("engine is not started")
	ErrAlreadyStarted = errors.New("engine is already started")
	ErrFramePanic     = errors.New("stepping frame panicked")
)

// State is the engine's reaction to the current foreground app.
type State uint8

const (
	StateIdle State = iota
	StateActive
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateActive:
		return "active"
	default:
		return fmt.Sprintf("state(%d)", uint8(s))
	}
}

// Renderer is the overlay that displays obstacles. Both methods are called
// from the engine's dispatcher goroutine, never concurrently.
type Renderer interface {
	OnRenderPayload(entities []model.RenderEntity)
	SetVisible(visible bool)
}

// Obstacles spawns and simulates obstacles. *strategy.Strategy implements it.
type Obstacles interface {
	SpawnObstacle(kind model.Kind) bool
	CreateStaticCrack() (model.RenderEntity, bool)
	ClearAll()
	IsFull() bool
	Update(gravityX, gravityY float64) []model.RenderEntity
	UpdatePhrases(phrases []string)
	UpdateCustomImage(ref string, aspectRatio float64)
}

// Bus event types published by the engine. All are published asynchronously.
const (
	EventEpisodeStarted   = "engine.episode_started"
	EventEpisodeFinished  = "engine.episode_finished"
	EventStateChanged     = "engine.state_changed"
	EventModeChanged      = "engine.mode_changed"
	EventObstaclesCleared = "engine.obstacles_cleared"

	eventSource = "engine"
)

// EpisodeStarted marks a fresh Idle to Active transition.
type EpisodeStarted struct {
	ID        uuid.UUID
	Package   string
	Mode      model.Kind
	StartedAt time.Time
}

// EpisodeFinished closes the episode with the same ID.
type EpisodeFinished struct {
	ID       uuid.UUID
	Package  string
	Duration time.Duration
}

type StateChanged struct {
	From    State
	To      State
	Package string
}

type ModeChanged struct {
	From model.Kind
	To   model.Kind
}

type ObstaclesCleared struct {
	Mode model.Kind
}

// ImageRef is the custom image selection together with its decoded aspect
// ratio (width / height).
type ImageRef struct {
	Ref         string
	AspectRatio float64
}

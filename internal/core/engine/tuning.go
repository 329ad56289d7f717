package engine

import "time"

// Tuning holds the pacing constants of the stepping loop. They are tuning
// choices rather than invariants.
type Tuning struct {
	// SpawnInterval paces obstacle spawns in physics modes.
	SpawnInterval time.Duration
	// CrackInterval paces crack decorations.
	CrackInterval time.Duration
	// MaxFrameDelta caps the elapsed time credited for one iteration.
	MaxFrameDelta time.Duration
	// FrameBudget is the target iteration period.
	FrameBudget time.Duration
	// JoinTimeout bounds how long a stop waits for the stepping loop.
	JoinTimeout time.Duration
	// MinGravity is the floor applied to the vertical gravity component.
	MinGravity float64
}

func DefaultTuning() Tuning {
	return Tuning{
		SpawnInterval: 600 * time.Millisecond,
		CrackInterval: 2000 * time.Millisecond,
		MaxFrameDelta: 50 * time.Millisecond,
		FrameBudget:   16 * time.Millisecond,
		JoinTimeout:   200 * time.Millisecond,
		MinGravity:    5.0,
	}
}

func (t Tuning) withDefaults() Tuning {
	d := DefaultTuning()
	if t.SpawnInterval <= 0 {
		t.SpawnInterval = d.SpawnInterval
	}
	if t.CrackInterval <= 0 {
		t.CrackInterval = d.CrackInterval
	}
	if t.MaxFrameDelta <= 0 {
		t.MaxFrameDelta = d.MaxFrameDelta
	}
	if t.FrameBudget <= 0 {
		t.FrameBudget = d.FrameBudget
	}
	if t.JoinTimeout <= 0 {
		t.JoinTimeout = d.JoinTimeout
	}
	if t.MinGravity < 0 {
		t.MinGravity = d.MinGravity
	}
	return t
}

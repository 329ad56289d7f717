package model

import (
	"encoding/binary"
	"math"
	"math/rand/v2"

	"github.com/cespare/xxhash/v2"
)

const (
	crackMinBranches   = 5
	crackBranchSpread  = 4 // 5..8 branches
	crackAngleJitter   = 30.0
	crackMinLengthMul  = 0.7
	crackLengthJitter  = 0.6
	crackMidpointBend  = 0.3
	crackSeedStreamMix = 0x9E3779B97F4A7C15
)

// CrackBranch is one ray of a crack, in entity-local pixels: it starts at
// the origin, bends through (MidX, MidY) and ends at (EndX, EndY).
type CrackBranch struct {
	Angle  float64 `json:"angle"` // degrees
	Length float64 `json:"length"`
	MidX   float64 `json:"midX"`
	MidY   float64 `json:"midY"`
	EndX   float64 `json:"endX"`
	EndY   float64 `json:"endY"`
}

// CrackSeed derives the detail seed of an entity from its id.
func CrackSeed(id uint64) uint64 {
	var buf [8]byte
	binary.LittleEndian.PutUint64(buf[:], id)
	return xxhash.Sum64(buf[:])
}

// CrackBranches returns the fine geometry of a crack entity. The result
// depends only on the entity's id and radius, so every redraw of the same
// crack is identical. Non-crack entities yield nil.
func CrackBranches(e RenderEntity) []CrackBranch {
	c, ok := e.Shape.(Crack)
	if !ok {
		return nil
	}

	seed := CrackSeed(e.ID)
	rng := rand.New(rand.NewPCG(seed, seed^crackSeedStreamMix))

	baseSize := c.Radius * 2
	n := crackMinBranches + rng.IntN(crackBranchSpread)
	step := 360.0 / float64(n)

	branches := make([]CrackBranch, n)
	for i := range branches {
		angle := float64(i)*step + rng.Float64()*crackAngleJitter
		length := baseSize * (crackMinLengthMul + rng.Float64()*crackLengthJitter)

		rad := angle * math.Pi / 180
		endX := length * math.Cos(rad)
		endY := length * math.Sin(rad)

		branches[i] = CrackBranch{
			Angle:  angle,
			Length: length,
			MidX:   endX/2 + (rng.Float64()-0.5)*length*crackMidpointBend,
			MidY:   endY/2 + (rng.Float64()-0.5)*length*crackMidpointBend,
			EndX:   endX,
			EndY:   endY,
		}
	}
	return branches
}

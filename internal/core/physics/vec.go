package physics

import "math"

// Vec2 is a 2D vector in pixels.
type Vec2 struct{ X, Y float64 }

// Distance2 computes Euclidean distance between two 2D points.
func Distance2(x1, y1, x2, y2 float64) float64 { return math.Hypot(x2-x1, y2-y1) }

// Distance2V computes distance between two vectors.
func Distance2V(a, b Vec2) float64 { return Distance2(a.X, a.Y, b.X, b.Y) }

func radToDeg(r float64) float64 { return r * 180 / math.Pi }

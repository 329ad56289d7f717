package physics

// Default world parameters. The top band and settled speed are tuning
// choices and can be overridden through Tuning.
const (
	DefaultPixelsPerMeter     = 30.0
	DefaultTimeStep           = 1.0 / 60.0
	DefaultVelocityIterations = 8
	DefaultPositionIterations = 3
	DefaultSinkMargin         = 200.0 // px below the screen
	DefaultTopBand            = 150.0 // px
	DefaultSettledSpeed       = 1.0   // m/s
	DefaultGravity            = 10.0  // m/s^2

	boundaryThickness = 2.0 // m
	wallHeightFactor  = 3.0
)

// Tuning holds the world's numeric parameters.
type Tuning struct {
	PixelsPerMeter     float64
	TimeStep           float64
	VelocityIterations int
	PositionIterations int
	SinkMargin         float64
	TopBand            float64
	SettledSpeed       float64
}

// DefaultTuning returns the stock parameters.
func DefaultTuning() Tuning {
	return Tuning{
		PixelsPerMeter:     DefaultPixelsPerMeter,
		TimeStep:           DefaultTimeStep,
		VelocityIterations: DefaultVelocityIterations,
		PositionIterations: DefaultPositionIterations,
		SinkMargin:         DefaultSinkMargin,
		TopBand:            DefaultTopBand,
		SettledSpeed:       DefaultSettledSpeed,
	}
}

// withDefaults fills zero fields from DefaultTuning.
func (t Tuning) withDefaults() Tuning {
	d := DefaultTuning()
	if t.PixelsPerMeter <= 0 {
		t.PixelsPerMeter = d.PixelsPerMeter
	}
	if t.TimeStep <= 0 {
		t.TimeStep = d.TimeStep
	}
	if t.VelocityIterations <= 0 {
		t.VelocityIterations = d.VelocityIterations
	}
	if t.PositionIterations <= 0 {
		t.PositionIterations = d.PositionIterations
	}
	if t.SinkMargin <= 0 {
		t.SinkMargin = d.SinkMargin
	}
	if t.TopBand <= 0 {
		t.TopBand = d.TopBand
	}
	if t.SettledSpeed <= 0 {
		t.SettledSpeed = d.SettledSpeed
	}
	return t
}

// material is the fixture tuple applied to a body kind.
type material struct {
	density     float64
	friction    float64
	restitution float64
}

var (
	circleMaterial = material{density: 1.0, friction: 0.3, restitution: 0.2}
	// blocks barely bounce so they stack
	blockMaterial = material{density: 1.0, friction: 0.5, restitution: 0.05}
	textMaterial  = material{density: 1.0, friction: 0.3, restitution: 0.1}
	imageMaterial = material{density: 1.0, friction: 0.4, restitution: 0.2}
)

package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/zeusync/pebble/internal/core/engine"
	"github.com/zeusync/pebble/internal/core/model"
	"github.com/zeusync/pebble/internal/core/observability/log"
	"github.com/zeusync/pebble/internal/core/physics"
	"github.com/zeusync/pebble/internal/core/strategy"
	"gopkg.in/yaml.v3"
)

var ErrInvalidConfig = errors.New("invalid configuration")

// Config is the daemon configuration, usually read from YAML.
type Config struct {
	Log       LogConfig     `yaml:"log"`
	Screen    ScreenConfig  `yaml:"screen"`
	Engine    EngineConfig  `yaml:"engine"`
	Physics   PhysicsConfig `yaml:"physics"`
	Mode      model.Kind    `yaml:"mode"`
	Blacklist []string      `yaml:"blacklist"`
	Phrases   []string      `yaml:"phrases,omitempty"`
	Image     ImageConfig   `yaml:"image"`
	Bridge    BridgeConfig  `yaml:"bridge"`
}

type LogConfig struct {
	Level string `yaml:"level"`
}

// ScreenConfig is the playfield geometry in pixels.
type ScreenConfig struct {
	Width       float64 `yaml:"width"`
	Height      float64 `yaml:"height"`
	TopInset    float64 `yaml:"top_inset"`
	BottomInset float64 `yaml:"bottom_inset"`
}

type EngineConfig struct {
	SpawnInterval time.Duration `yaml:"spawn_interval"`
	CrackInterval time.Duration `yaml:"crack_interval"`
	MaxFrameDelta time.Duration `yaml:"max_frame_delta"`
	FrameBudget   time.Duration `yaml:"frame_budget"`
	JoinTimeout   time.Duration `yaml:"join_timeout"`
	MinGravity    float64       `yaml:"min_gravity"`
	// Gravity is the initial vector used until a sensor reports one.
	Gravity [2]float64 `yaml:"gravity,flow"`
}

type PhysicsConfig struct {
	PixelsPerMeter     float64 `yaml:"pixels_per_meter"`
	VelocityIterations int     `yaml:"velocity_iterations"`
	PositionIterations int     `yaml:"position_iterations"`
	SinkMargin         float64 `yaml:"sink_margin"`
	TopBand            float64 `yaml:"top_band"`
	SettledSpeed       float64 `yaml:"settled_speed"`
}

type ImageConfig struct {
	Ref         string  `yaml:"ref,omitempty"`
	AspectRatio float64 `yaml:"aspect_ratio,omitempty"`
}

type BridgeConfig struct {
	Addr      string `yaml:"addr"`
	Path      string `yaml:"path"`
	QueueSize int    `yaml:"queue_size"`
}

// Default returns the stock configuration.
func Default() Config {
	et := engine.DefaultTuning()
	pt := physics.DefaultTuning()
	return Config{
		Log: LogConfig{Level: "info"},
		Screen: ScreenConfig{
			Width:       1080,
			Height:      1920,
			BottomInset: 100,
		},
		Engine: EngineConfig{
			SpawnInterval: et.SpawnInterval,
			CrackInterval: et.CrackInterval,
			MaxFrameDelta: et.MaxFrameDelta,
			FrameBudget:   et.FrameBudget,
			JoinTimeout:   et.JoinTimeout,
			MinGravity:    et.MinGravity,
			Gravity:       [2]float64{0, physics.DefaultGravity},
		},
		Physics: PhysicsConfig{
			PixelsPerMeter:     pt.PixelsPerMeter,
			VelocityIterations: pt.VelocityIterations,
			PositionIterations: pt.PositionIterations,
			SinkMargin:         pt.SinkMargin,
			TopBand:            pt.TopBand,
			SettledSpeed:       pt.SettledSpeed,
		},
		Mode:      model.KindCircle,
		Blacklist: []string{},
		Bridge: BridgeConfig{
			Addr:      "127.0.0.1:7450",
			Path:      "/overlay",
			QueueSize: 8,
		},
	}
}

// Load decodes YAML from r on top of Default and validates the result.
func Load(r io.Reader) (Config, error) {
	c := Default()
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&c); err != nil && !errors.Is(err, io.EOF) {
		return Config{}, fmt.Errorf("decode config: %w", err)
	}
	if err := c.Validate(); err != nil {
		return Config{}, err
	}
	return c, nil
}

// LoadFile reads the YAML file at path.
func LoadFile(path string) (Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return Config{}, fmt.Errorf("open config: %w", err)
	}
	defer f.Close()
	return Load(f)
}

// Encode writes c as YAML.
func (c Config) Encode(w io.Writer) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(c); err != nil {
		return err
	}
	return enc.Close()
}

// Validate reports every problem at once, joined.
func (c Config) Validate() error {
	var errs []error
	invalid := func(format string, args ...any) {
		errs = append(errs, fmt.Errorf("%w: "+format, append([]any{ErrInvalidConfig}, args...)...))
	}

	if _, err := log.ParseLevel(c.Log.Level); err != nil {
		invalid("log.level: %v", err)
	}
	if c.Screen.Width <= 0 || c.Screen.Height <= 0 {
		invalid("screen size %vx%v must be positive", c.Screen.Width, c.Screen.Height)
	}
	if !c.Mode.Valid() {
		invalid("mode %d is unknown", uint8(c.Mode))
	}
	if c.Image.Ref != "" && c.Image.AspectRatio < 0 {
		invalid("image.aspect_ratio must not be negative")
	}
	durations := map[string]time.Duration{
		"engine.spawn_interval":  c.Engine.SpawnInterval,
		"engine.crack_interval":  c.Engine.CrackInterval,
		"engine.max_frame_delta": c.Engine.MaxFrameDelta,
		"engine.frame_budget":    c.Engine.FrameBudget,
		"engine.join_timeout":    c.Engine.JoinTimeout,
	}
	for name, d := range durations {
		if d < 0 {
			invalid("%s must not be negative", name)
		}
	}
	if c.Engine.MinGravity < 0 {
		invalid("engine.min_gravity must not be negative")
	}
	if c.Physics.PixelsPerMeter < 0 {
		invalid("physics.pixels_per_meter must not be negative")
	}
	if c.Bridge.QueueSize < 0 {
		invalid("bridge.queue_size must not be negative")
	}
	return errors.Join(errs...)
}

// LogLevel returns the parsed log level, info when unset.
func (c Config) LogLevel() log.Level {
	l, _ := log.ParseLevel(c.Log.Level)
	return l
}

func (c Config) EngineTuning() engine.Tuning {
	return engine.Tuning{
		SpawnInterval: c.Engine.SpawnInterval,
		CrackInterval: c.Engine.CrackInterval,
		MaxFrameDelta: c.Engine.MaxFrameDelta,
		FrameBudget:   c.Engine.FrameBudget,
		JoinTimeout:   c.Engine.JoinTimeout,
		MinGravity:    c.Engine.MinGravity,
	}
}

func (c Config) PhysicsTuning() physics.Tuning {
	return physics.Tuning{
		PixelsPerMeter:     c.Physics.PixelsPerMeter,
		TimeStep:           physics.DefaultTimeStep,
		VelocityIterations: c.Physics.VelocityIterations,
		PositionIterations: c.Physics.PositionIterations,
		SinkMargin:         c.Physics.SinkMargin,
		TopBand:            c.Physics.TopBand,
		SettledSpeed:       c.Physics.SettledSpeed,
	}
}

// Apply pushes the runtime parts of c into a strategy and an engine.
func (c Config) Apply(s *strategy.Strategy, e *engine.Engine) {
	s.SetScreenSize(c.Screen.Width, c.Screen.Height, c.Screen.TopInset, c.Screen.BottomInset)
	s.UpdatePhrases(c.Phrases)
	s.UpdateCustomImage(c.Image.Ref, c.Image.AspectRatio)
	e.SetGravity(c.Engine.Gravity[0], c.Engine.Gravity[1])
	e.ChangeMode(c.Mode)
	e.UpdateBlacklist(c.Blacklist)
}

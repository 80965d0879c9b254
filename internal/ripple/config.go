package ripple

import "time"

const (
	// half-width of the ring around a ripple's leading edge
	edgeBand = 20.0

	// the largest frame gap fed to the flicker, so a stalled loop does not repaint everything
	maxFrameDelta = 100 * time.Millisecond
)

type Config struct {
	Width      float64
	Height     float64
	SquareSize float64
	GridGap    float64

	// per-cell resets per second
	FlickerChance float64
	MaxOpacity    float64

	// base color, hex or rgb()/rgba()
	Color string

	RippleDuration time.Duration
	RippleDecay    float64

	// local pointer ripples
	RippleThrottle time.Duration

	// synthesized ripples per remote participant
	RemoteThrottle time.Duration

	// how long a ripple stays mirrored in own presence
	TransientClear time.Duration
}

// ripple shapes for the local sources
type Shape struct {
	MaxRadius float64
	Intensity float64
	Velocity  float64
}

var (
	MoveShape  = Shape{MaxRadius: 100, Intensity: 0.4, Velocity: 1}
	ClickShape = Shape{MaxRadius: 220, Intensity: 0.9, Velocity: 1.6}
)

func DefaultConfig() Config {
	return Config{
		Width:          800,
		Height:         600,
		SquareSize:     4,
		GridGap:        6,
		FlickerChance:  0.3,
		MaxOpacity:     0.3,
		Color:          "#6b7280",
		RippleDuration: 1500 * time.Millisecond,
		RippleDecay:    0.9,
		RippleThrottle: 50 * time.Millisecond,
		RemoteThrottle: 500 * time.Millisecond,
		TransientClear: 100 * time.Millisecond,
	}
}

// fills zero values from DefaultConfig
func (c Config) withDefaults() Config {
	d := DefaultConfig()

	if c.SquareSize <= 0 {
		c.SquareSize = d.SquareSize
	}

	if c.GridGap < 0 {
		c.GridGap = d.GridGap
	}

	if c.MaxOpacity <= 0 {
		c.MaxOpacity = d.MaxOpacity
	}

	if c.FlickerChance < 0 {
		c.FlickerChance = 0
	}

	if c.Color == "" {
		c.Color = d.Color
	}

	if c.RippleDuration <= 0 {
		c.RippleDuration = d.RippleDuration
	}

	if c.RippleDecay <= 0 || c.RippleDecay > 1 {
		c.RippleDecay = d.RippleDecay
	}

	if c.RippleThrottle <= 0 {
		c.RippleThrottle = d.RippleThrottle
	}

	if c.RemoteThrottle <= 0 {
		c.RemoteThrottle = d.RemoteThrottle
	}

	if c.TransientClear <= 0 {
		c.TransientClear = d.TransientClear
	}

	return c
}

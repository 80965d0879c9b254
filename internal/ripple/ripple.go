package ripple

import (
	"math"
	"time"

	"codeberg.org/portfolio/presence/internal/presence"
)

// a circle expanding from (X, Y) in container coordinates
type Ripple struct {
	ID        string
	X         float64
	Y         float64
	MaxRadius float64
	Intensity float64
	Velocity  float64
	Hue       float64
	Start     time.Time

	// 0 for local ripples
	ConnectionID int
}

func fromEvent(ev presence.RippleEvent, connectionID int, start time.Time) Ripple {
	return Ripple{
		ID:           ev.ID,
		X:            ev.X,
		Y:            ev.Y,
		MaxRadius:    ev.MaxRadius,
		Intensity:    ev.Intensity,
		Velocity:     ev.Velocity,
		Hue:          ev.Hue,
		Start:        start,
		ConnectionID: connectionID,
	}
}

func (r Ripple) Event() presence.RippleEvent {
	return presence.RippleEvent{
		ID:        r.ID,
		X:         r.X,
		Y:         r.Y,
		MaxRadius: r.MaxRadius,
		Intensity: r.Intensity,
		Velocity:  r.Velocity,
		Hue:       r.Hue,
	}
}

// elapsed fraction of the ripple's life
func (r Ripple) Progress(now time.Time, duration time.Duration) float64 {
	return float64(now.Sub(r.Start)) / float64(duration)
}

func (r Ripple) Radius(progress float64) float64 {
	return r.MaxRadius * math.Min(progress*1.2*r.Velocity, 1)
}

// opacity this ripple adds to a cell centred at (cx, cy)
func (r Ripple) Contribution(cx, cy, progress, decay float64) float64 {
	if progress < 0 || progress >= 1 {
		return 0
	}

	dist := math.Hypot(cx-r.X, cy-r.Y)
	edge := r.Radius(progress) - dist

	if math.Abs(edge) > edgeBand {
		return 0
	}

	pulse := math.Sin((edge/edgeBand)*math.Pi/2 + math.Pi/2)
	if pulse <= 0 {
		return 0
	}

	return pulse * r.Intensity * (1 - progress) * math.Pow(decay, progress*10)
}

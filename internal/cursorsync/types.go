package cursorsync

import "time"

// per-participant cursor lifecycle
type State int

const (
	NotMoved State = iota
	Active
	IdleHidden
	Exiting
)

func (s State) String() string {
	switch s {
	case NotMoved:
		return "not-moved"
	case Active:
		return "active"
	case IdleHidden:
		return "idle-hidden"
	case Exiting:
		return "exiting"
	default:
		return "unknown"
	}
}

const (
	DefaultConfettiDuration = 500 * time.Millisecond
	DefaultExitAnimation    = 300 * time.Millisecond
	DefaultFrameInterval    = 16 * time.Millisecond
)

// viewer scroll offset and viewport size
type Viewport struct {
	ScrollX float64
	ScrollY float64
	Width   float64
	Height  float64
}

// a confetti burst to render, in viewer coordinates
type Burst struct {
	X float64
	Y float64

	// 0 for the local participant
	ConnectionID int
	Local        bool
}

type Options struct {
	// disables cursor sharing entirely
	Touch bool

	ConfettiDuration time.Duration
	ExitAnimation    time.Duration

	// published with every snapshot
	Name  *string
	Color string

	Now     func() time.Time
	OnBurst func(Burst)
}

// a remote cursor ready to draw
type CursorView struct {
	ConnectionID int
	Name         string
	Color        string
	X            float64
	Y            float64
	Clicking     bool
	Exiting      bool

	// exit animation, 1 while present
	Scale   float64
	Opacity float64
}

func (o Options) withDefaults() Options {
	if o.ConfettiDuration <= 0 {
		o.ConfettiDuration = DefaultConfettiDuration
	}

	if o.ExitAnimation <= 0 {
		o.ExitAnimation = DefaultExitAnimation
	}

	if o.Now == nil {
		o.Now = time.Now
	}

	return o
}

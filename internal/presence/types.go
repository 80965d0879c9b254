package presence

// cursor coordinates published by the owning participant
type Cursor struct {
	// viewport-relative, only meaningful to the owner
	X float64 `json:"x"`
	Y float64 `json:"y"`

	// document-relative, used by every remote viewer
	PageX float64 `json:"pageX"`
	PageY float64 `json:"pageY"`

	// viewport fractions in [0,1]
	XPercent *float64 `json:"xPercent,omitempty"`
	YPercent *float64 `json:"yPercent,omitempty"`
}

// wire form of a ripple so peers can rebuild the same disturbance
type RippleEvent struct {
	ID        string  `json:"id"`
	X         float64 `json:"x"`
	Y         float64 `json:"y"`
	MaxRadius float64 `json:"maxRadius"`
	Intensity float64 `json:"intensity"`
	Velocity  float64 `json:"velocity"`
	Hue       float64 `json:"hue"`
	UserID    string  `json:"userId,omitempty"`
}

// one participant's replicated state. owned and written only by that participant.
type Presence struct {
	Name               *string      `json:"name"`
	Color              string       `json:"color,omitempty"`
	Cursor             *Cursor      `json:"cursor"`
	IsClicking         bool         `json:"isClicking"`
	IsThrowingConfetti bool         `json:"isThrowingConfetti"`
	IsExiting          bool         `json:"isExiting"`
	Ripple             *RippleEvent `json:"ripple,omitempty"`
}

// another participant in the same room
type Other struct {
	ConnectionID int      `json:"connection_id"`
	Presence     Presence `json:"presence"`
}

// returns a copy that shares no pointers with p
func (p Presence) Clone() Presence {
	out := p

	if p.Name != nil {
		name := *p.Name
		out.Name = &name
	}

	if p.Cursor != nil {
		c := *p.Cursor

		if p.Cursor.XPercent != nil {
			v := *p.Cursor.XPercent
			c.XPercent = &v
		}

		if p.Cursor.YPercent != nil {
			v := *p.Cursor.YPercent
			c.YPercent = &v
		}

		out.Cursor = &c
	}

	if p.Ripple != nil {
		r := *p.Ripple
		out.Ripple = &r
	}

	return out
}

// returns the display name or a fallback for anonymous records
func (p Presence) DisplayName() string {
	if p.Name == nil || *p.Name == "" {
		return "Anonymous"
	}

	return *p.Name
}

// pointer helper for optional fields
func Ptr[T any](v T) *T {
	return &v
}

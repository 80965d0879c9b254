package presence

import (
	"errors"
	"fmt"
)

// broadcast event kinds
const (
	EventRipple   = "ripple"
	EventConfetti = "confetti"
)

var ErrInvalidEvent = errors.New("invalid broadcast event")

// confetti burst origin in document coordinates
type ConfettiEvent struct {
	PageX float64 `json:"pageX"`
	PageY float64 `json:"pageY"`
}

// one-shot event relayed to the other room members and never stored
type Event struct {
	Kind     string         `json:"kind"`
	Ripple   *RippleEvent   `json:"ripple,omitempty"`
	Confetti *ConfettiEvent `json:"confetti,omitempty"`
}

// an event together with the connection that sent it
type EventMessage struct {
	ConnectionID int   `json:"connection_id"`
	Event        Event `json:"event"`
}

func NewRippleEvent(r RippleEvent) Event {
	return Event{Kind: EventRipple, Ripple: &r}
}

func NewConfettiEvent(pageX, pageY float64) Event {
	return Event{Kind: EventConfetti, Confetti: &ConfettiEvent{PageX: pageX, PageY: pageY}}
}

// checks that the event carries the body its kind needs
func (e Event) Validate() error {
	switch e.Kind {
	case EventRipple:
		if e.Ripple == nil || e.Ripple.ID == "" {
			return fmt.Errorf("%w: ripple event without ripple", ErrInvalidEvent)
		}

		if !finite(e.Ripple.X, e.Ripple.Y, e.Ripple.MaxRadius, e.Ripple.Intensity, e.Ripple.Velocity, e.Ripple.Hue) {
			return fmt.Errorf("%w: ripple has non-finite values", ErrInvalidEvent)
		}

	case EventConfetti:
		if e.Confetti == nil {
			return fmt.Errorf("%w: confetti event without origin", ErrInvalidEvent)
		}

	default:
		return fmt.Errorf("%w: unknown kind %q", ErrInvalidEvent, e.Kind)
	}

	return nil
}

package presence

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
)

// presence field names on the wire
const (
	FieldName               = "name"
	FieldColor              = "color"
	FieldCursor             = "cursor"
	FieldIsClicking         = "isClicking"
	FieldIsThrowingConfetti = "isThrowingConfetti"
	FieldIsExiting          = "isExiting"
	FieldRipple             = "ripple"
)

var knownFields = map[string]bool{
	FieldName:               true,
	FieldColor:              true,
	FieldCursor:             true,
	FieldIsClicking:         true,
	FieldIsThrowingConfetti: true,
	FieldIsExiting:          true,
	FieldRipple:             true,
}

var ErrNotObject = errors.New("presence patch must be a JSON object")

// partial presence update keyed by wire field name. a key with a JSON null
// clears the field; a missing key keeps the previous value.
type Patch map[string]json.RawMessage

// parses a raw JSON object into a patch, dropping unknown keys
func ParsePatch(raw []byte) (Patch, error) {
	var fields map[string]json.RawMessage

	if err := json.Unmarshal(raw, &fields); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrNotObject, err)
	}

	if fields == nil {
		return nil, ErrNotObject
	}

	patch := make(Patch, len(fields))

	for k, v := range fields {
		if knownFields[k] {
			patch[k] = v
		}
	}

	return patch, nil
}

// builds a patch carrying every field of p (a full snapshot)
func SnapshotPatch(p Presence) Patch {
	return Patch{}.
		SetName(p.Name).
		SetColor(p.Color).
		SetCursor(p.Cursor).
		SetClicking(p.IsClicking).
		SetThrowingConfetti(p.IsThrowingConfetti).
		SetExiting(p.IsExiting).
		SetRipple(p.Ripple)
}

// decodes a full record leniently. malformed fields decode as absent.
func Decode(raw []byte) (Presence, error) {
	patch, err := ParsePatch(raw)
	if err != nil {
		return Presence{}, err
	}

	return Merge(Presence{}, patch), nil
}

// shallow-merges patch into p and returns the result; p is not modified.
// applying the same patch twice gives the same result as applying it once.
func Merge(p Presence, patch Patch) Presence {
	out := p

	for field, raw := range patch {
		switch field {
		case FieldName:
			out.Name = decodeName(raw)
		case FieldColor:
			var color string
			if json.Unmarshal(raw, &color) != nil {
				color = ""
			}
			out.Color = color
		case FieldCursor:
			out.Cursor = decodeCursor(raw)
		case FieldIsClicking:
			out.IsClicking = decodeBool(raw)
		case FieldIsThrowingConfetti:
			out.IsThrowingConfetti = decodeBool(raw)
		case FieldIsExiting:
			out.IsExiting = decodeBool(raw)
		case FieldRipple:
			out.Ripple = decodeRipple(raw)
		}
	}

	return out
}

// merges two patches; keys in next win
func (p Patch) Combine(next Patch) Patch {
	out := make(Patch, len(p)+len(next))

	for k, v := range p {
		out[k] = v
	}

	for k, v := range next {
		out[k] = v
	}

	return out
}

func (p Patch) SetName(name *string) Patch {
	return p.set(FieldName, name)
}

func (p Patch) SetColor(color string) Patch {
	return p.set(FieldColor, color)
}

func (p Patch) SetCursor(c *Cursor) Patch {
	return p.set(FieldCursor, c)
}

func (p Patch) SetClicking(v bool) Patch {
	return p.set(FieldIsClicking, v)
}

func (p Patch) SetThrowingConfetti(v bool) Patch {
	return p.set(FieldIsThrowingConfetti, v)
}

func (p Patch) SetExiting(v bool) Patch {
	return p.set(FieldIsExiting, v)
}

func (p Patch) SetRipple(r *RippleEvent) Patch {
	return p.set(FieldRipple, r)
}

func (p Patch) set(field string, v any) Patch {
	if p == nil {
		p = Patch{}
	}

	raw, err := json.Marshal(v)
	if err != nil {
		// only non-finite floats fail here; publish the field as cleared
		raw = json.RawMessage("null")
	}

	p[field] = raw
	return p
}

func decodeName(raw json.RawMessage) *string {
	var name *string

	if json.Unmarshal(raw, &name) != nil {
		return nil
	}

	return name
}

func decodeBool(raw json.RawMessage) bool {
	var v bool

	if json.Unmarshal(raw, &v) != nil {
		return false
	}

	return v
}

func decodeCursor(raw json.RawMessage) *Cursor {
	var c *Cursor

	if json.Unmarshal(raw, &c) != nil || c == nil {
		return nil
	}

	if !finite(c.X, c.Y, c.PageX, c.PageY) {
		return nil
	}

	if c.XPercent != nil && !finite(*c.XPercent) {
		c.XPercent = nil
	}

	if c.YPercent != nil && !finite(*c.YPercent) {
		c.YPercent = nil
	}

	return c
}

func decodeRipple(raw json.RawMessage) *RippleEvent {
	var r *RippleEvent

	if json.Unmarshal(raw, &r) != nil || r == nil {
		return nil
	}

	if r.ID == "" || !finite(r.X, r.Y, r.MaxRadius, r.Intensity, r.Velocity, r.Hue) {
		return nil
	}

	return r
}

func finite(values ...float64) bool {
	for _, v := range values {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}

	return true
}

package cursorsync

import (
	"time"

	"codeberg.org/portfolio/presence/internal/presence"
)

// where a cursor is drawn: local cursors use their viewport position, remote
// ones the sender's document position minus the viewer's own scroll. remote
// placement assumes both share the same document layout.
func RenderPosition(c presence.Cursor, isLocal bool, scrollX, scrollY float64) (float64, float64) {
	if isLocal {
		return c.X, c.Y
	}

	return c.PageX - scrollX, c.PageY - scrollY
}

// projects other participants into drawable cursors and fires bursts for
// remote confetti throws. records without a cursor are skipped.
func (e *Engine) RemoteCursors(others []presence.Other, vp Viewport) []CursorView {
	e.mu.Lock()

	if e.opts.Touch {
		e.mu.Unlock()
		return nil
	}

	now := e.opts.Now()
	seen := make(map[int]struct{}, len(others))
	views := make([]CursorView, 0, len(others))

	var bursts []Burst

	for _, o := range others {
		p := o.Presence
		if p.Cursor == nil {
			continue
		}

		seen[o.ConnectionID] = struct{}{}

		rc, ok := e.remote[o.ConnectionID]
		if !ok {
			rc = &remoteCursor{}
			e.remote[o.ConnectionID] = rc
		}

		x, y := RenderPosition(*p.Cursor, false, vp.ScrollX, vp.ScrollY)

		view := CursorView{
			ConnectionID: o.ConnectionID,
			Name:         p.DisplayName(),
			Color:        p.Color,
			X:            x,
			Y:            y,
			Clicking:     p.IsClicking,
			Exiting:      p.IsExiting,
			Scale:        1,
			Opacity:      1,
		}

		if p.IsExiting {
			if rc.exitingSince.IsZero() {
				rc.exitingSince = now
			}

			progress := clamp01(float64(now.Sub(rc.exitingSince)) / float64(e.opts.ExitAnimation))
			view.Scale = 1 - 0.5*progress
			view.Opacity = 1 - progress
		} else {
			rc.exitingSince = time.Time{}
		}

		// remote viewers render their own burst on the rising edge of the flag
		if p.IsThrowingConfetti && !rc.throwing {
			bursts = append(bursts, Burst{X: x, Y: y, ConnectionID: o.ConnectionID})
		}

		rc.throwing = p.IsThrowingConfetti
		views = append(views, view)
	}

	for id := range e.remote {
		if _, ok := seen[id]; !ok {
			delete(e.remote, id)
		}
	}

	e.mu.Unlock()

	for _, b := range bursts {
		e.emit(b)
	}

	return views
}

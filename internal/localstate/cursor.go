package localstate

import (
	"encoding/json"
	"math"
	"strconv"

	"codeberg.org/portfolio/presence/internal/logger"
)

// last on-screen cursor position, in viewport coordinates
type Position struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// remembers the cursor across room changes so a reopened room resumes visually
type CursorStore struct {
	store Store
}

func NewCursorStore(store Store) *CursorStore {
	return &CursorStore{store: store}
}

// best-effort; failures are logged and dropped
func (s *CursorStore) SaveCursorPosition(pos Position) {
	if math.IsNaN(pos.X) || math.IsNaN(pos.Y) || math.IsInf(pos.X, 0) || math.IsInf(pos.Y, 0) {
		return
	}

	data, err := json.Marshal(pos)
	if err != nil {
		logger.Warn("failed to encode cursor position", "error", err)
		return
	}

	if err := s.store.Set(KeyCursorPosition, string(data)); err != nil {
		logger.Warn("failed to save cursor position", "error", err)
	}
}

// returns nil when nothing usable is stored
func (s *CursorStore) LoadCursorPosition() *Position {
	raw, ok, err := s.store.Get(KeyCursorPosition)
	if err != nil {
		logger.Warn("failed to load cursor position", "error", err)
		return nil
	}

	if !ok {
		return nil
	}

	var pos *Position
	if err := json.Unmarshal([]byte(raw), &pos); err != nil || pos == nil {
		return nil
	}

	return pos
}

// muted flag for celebration sounds
type SoundPreference struct {
	store Store
}

func NewSoundPreference(store Store) *SoundPreference {
	return &SoundPreference{store: store}
}

func (p *SoundPreference) Muted() bool {
	raw, ok, err := p.store.Get(KeySoundMuted)
	if err != nil || !ok {
		return false
	}

	muted, err := strconv.ParseBool(raw)
	return err == nil && muted
}

func (p *SoundPreference) SetMuted(muted bool) {
	if err := p.store.Set(KeySoundMuted, strconv.FormatBool(muted)); err != nil {
		logger.Warn("failed to save sound preference", "error", err)
	}
}

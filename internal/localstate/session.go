package localstate

import (
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"math/big"
	"strconv"
	"sync"
	"time"

	"codeberg.org/portfolio/presence/internal/logger"
)

const DefaultSessionMaxAge = 24 * time.Hour

// name pool used when the caller supplies none
var DefaultNames = []string{
	"Anonymous Otter",
	"Curious Fox",
	"Quiet Heron",
	"Swift Lynx",
	"Gentle Panda",
	"Bold Falcon",
	"Sleepy Koala",
	"Clever Raven",
	"Brave Badger",
	"Lucky Hare",
}

// pseudonymous per-browser identity
type SessionData struct {
	SessionID  string `json:"sessionId"`
	Name       string `json:"name"`
	ColorIndex int    `json:"colorIndex"`
	Timestamp  int64  `json:"timestamp"` // unix milliseconds
}

// reports whether the session is older than maxAge at now
func (d SessionData) Expired(now time.Time, maxAge time.Duration) bool {
	return now.UnixMilli()-d.Timestamp > maxAge.Milliseconds()
}

// hands out the persisted identity, regenerating it once it expires
type SessionStore struct {
	store  Store
	maxAge time.Duration
	now    func() time.Time

	mu sync.Mutex

	// identity kept for this process when storage refuses writes
	fallback *SessionData
}

func NewSessionStore(store Store, maxAge time.Duration) *SessionStore {
	if maxAge <= 0 {
		maxAge = DefaultSessionMaxAge
	}

	return &SessionStore{
		store:  store,
		maxAge: maxAge,
		now:    time.Now,
	}
}

// returns the stored session, or creates and persists a new one when it is
// missing, unreadable or expired
func (s *SessionStore) GetOrCreateSession(nameOptions []string, colorCount int) SessionData {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()

	if existing, ok := s.read(); ok && !existing.Expired(now, s.maxAge) {
		return existing
	}

	if s.fallback != nil && !s.fallback.Expired(now, s.maxAge) {
		return *s.fallback
	}

	session := NewSessionData(now, nameOptions, colorCount)

	data, err := json.Marshal(session)
	if err == nil {
		err = s.store.Set(KeyCursorSession, string(data))
	}

	if err != nil {
		logger.Warn("failed to persist session, keeping it in memory",
			"session_id", session.SessionID,
			"error", err,
		)

		s.fallback = &session
		return session
	}

	s.fallback = nil
	return session
}

func (s *SessionStore) read() (SessionData, bool) {
	raw, ok, err := s.store.Get(KeyCursorSession)
	if err != nil {
		logger.Warn("failed to read session", "error", err)
		return SessionData{}, false
	}

	if !ok {
		return SessionData{}, false
	}

	var session SessionData
	if err := json.Unmarshal([]byte(raw), &session); err != nil {
		logger.Warn("discarding corrupt session", "error", err)
		return SessionData{}, false
	}

	if session.SessionID == "" || session.Name == "" {
		return SessionData{}, false
	}

	return session, true
}

// generates a fresh identity created at now
func NewSessionData(now time.Time, nameOptions []string, colorCount int) SessionData {
	if len(nameOptions) == 0 {
		nameOptions = DefaultNames
	}

	colorIndex := 0
	if colorCount > 0 {
		colorIndex = randomInt(colorCount)
	}

	return SessionData{
		SessionID:  generateSessionID(now),
		Name:       nameOptions[randomInt(len(nameOptions))],
		ColorIndex: colorIndex,
		Timestamp:  now.UnixMilli(),
	}
}

// timestamp in base36 plus a random suffix
func generateSessionID(now time.Time) string {
	suffix := make([]byte, 6)

	if _, err := rand.Read(suffix); err != nil {
		// crypto/rand does not fail on supported platforms; keep the id unique enough anyway
		return strconv.FormatInt(now.UnixNano(), 36)
	}

	return strconv.FormatInt(now.UnixMilli(), 36) + "-" + hex.EncodeToString(suffix)
}

func randomInt(n int) int {
	v, err := rand.Int(rand.Reader, big.NewInt(int64(n)))
	if err != nil {
		return 0
	}

	return int(v.Int64())
}

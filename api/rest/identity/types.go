package identity

import "time"

// optional preferences; anything missing is picked by the server
type CreateIdentityRequest struct {
	SessionID  string `json:"session_id" binding:"max=64"`
	Name       string `json:"name" binding:"max=64"`
	ColorIndex *int   `json:"color_index" binding:"omitempty,min=0"`
}

type CreateIdentityResponse struct {
	Token      string    `json:"token"`
	SessionID  string    `json:"session_id"`
	Name       string    `json:"name"`
	ColorIndex int       `json:"color_index"`
	Color      string    `json:"color"`
	ExpiresAt  time.Time `json:"expires_at"`
}

package auth

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// represents identity token claims: a pseudonym, never an account
type Claims struct {
	SessionID  string `json:"session_id"`
	Name       string `json:"name"`
	ColorIndex int    `json:"color_index"`
	jwt.RegisteredClaims
}

// signs and checks identity tokens
type Issuer struct {
	secret []byte
	maxAge time.Duration
	now    func() time.Time
}

package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const issuerName = "portfolio-presence"

var (
	ErrMissingSecret = errors.New("session secret not set")
	ErrInvalidToken  = errors.New("invalid token")
)

// creates an issuer for identity tokens valid for maxAge
func NewIssuer(secret []byte, maxAge time.Duration) (*Issuer, error) {
	if len(secret) == 0 {
		return nil, ErrMissingSecret
	}

	return &Issuer{
		secret: secret,
		maxAge: maxAge,
		now:    time.Now,
	}, nil
}

// creates a signed token for a pseudonymous session
func (i *Issuer) GenerateToken(sessionID, name string, colorIndex int) (string, time.Time, error) {
	if sessionID == "" || name == "" {
		return "", time.Time{}, fmt.Errorf("%w: session id and name are required", ErrInvalidToken)
	}

	now := i.now()
	expiresAt := now.Add(i.maxAge)

	claims := Claims{
		SessionID:  sessionID,
		Name:       name,
		ColorIndex: colorIndex,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    issuerName,
			Subject:   sessionID,
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)

	signed, err := token.SignedString(i.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("failed to sign identity token: %w", err)
	}

	return signed, expiresAt, nil
}

// validates a token and returns the claims
func (i *Issuer) ValidateToken(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}

		return i.secret, nil
	},
		jwt.WithIssuer(issuerName),
		jwt.WithTimeFunc(i.now),
	)

	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidToken, err)
	}

	if claims, ok := token.Claims.(*Claims); ok && token.Valid {
		return claims, nil
	}

	return nil, ErrInvalidToken
}

package auth

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret-key-for-testing"

func newTestIssuer(t *testing.T) *Issuer {
	issuer, err := NewIssuer([]byte(testSecret), 24*time.Hour)
	require.NoError(t, err)
	return issuer
}

func TestNewIssuerMissingSecret(t *testing.T) {
	_, err := NewIssuer(nil, time.Hour)
	assert.ErrorIs(t, err, ErrMissingSecret)
}

func TestGenerateToken_Success(t *testing.T) {
	issuer := newTestIssuer(t)

	token, expiresAt, err := issuer.GenerateToken("lq3k9x-abc", "Curious Fox", 3)

	require.NoError(t, err)
	assert.Equal(t, 3, len(strings.Split(token, ".")), "JWT should have 3 parts")
	assert.WithinDuration(t, time.Now().Add(24*time.Hour), expiresAt, time.Minute)
}

func TestGenerateToken_MissingFields(t *testing.T) {
	issuer := newTestIssuer(t)

	_, _, err := issuer.GenerateToken("", "Curious Fox", 0)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestValidateToken_ValidToken(t *testing.T) {
	issuer := newTestIssuer(t)

	token, _, err := issuer.GenerateToken("lq3k9x-abc", "Curious Fox", 3)
	require.NoError(t, err)

	claims, err := issuer.ValidateToken(token)

	require.NoError(t, err)
	assert.Equal(t, "lq3k9x-abc", claims.SessionID)
	assert.Equal(t, "Curious Fox", claims.Name)
	assert.Equal(t, 3, claims.ColorIndex)
}

func TestValidateToken_ExpiredToken(t *testing.T) {
	issuer := newTestIssuer(t)
	issued := time.Now().Add(-48 * time.Hour)
	issuer.now = func() time.Time { return issued }

	token, _, err := issuer.GenerateToken("lq3k9x-abc", "Curious Fox", 0)
	require.NoError(t, err)

	issuer.now = time.Now
	_, err = issuer.ValidateToken(token)

	assert.ErrorIs(t, err, ErrInvalidToken, "expired token should be rejected")
}

func TestValidateToken_WrongSecret(t *testing.T) {
	issuer := newTestIssuer(t)

	other, err := NewIssuer([]byte("another-secret"), time.Hour)
	require.NoError(t, err)

	token, _, err := other.GenerateToken("s", "n", 0)
	require.NoError(t, err)

	_, err = issuer.ValidateToken(token)
	assert.Error(t, err)
}

func TestValidateToken_WrongSigningMethod(t *testing.T) {
	issuer := newTestIssuer(t)

	claims := Claims{
		SessionID: "s",
		Name:      "n",
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    issuerName,
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodNone, claims)
	tokenString, err := token.SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	_, err = issuer.ValidateToken(tokenString)
	assert.Error(t, err)
}

func TestValidateToken_TamperedToken(t *testing.T) {
	issuer := newTestIssuer(t)

	token, _, err := issuer.GenerateToken("s", "n", 0)
	require.NoError(t, err)

	parts := strings.Split(token, ".")
	parts[1] = parts[1] + "x"

	_, err = issuer.ValidateToken(strings.Join(parts, "."))
	assert.Error(t, err)
}

func TestOptionalIdentityMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)
	issuer := newTestIssuer(t)

	token, _, err := issuer.GenerateToken("lq3k9x-abc", "Quiet Heron", 1)
	require.NoError(t, err)

	router := gin.New()
	router.Use(issuer.OptionalIdentityMiddleware())
	router.GET("/", func(c *gin.Context) {
		claims, ok := GetIdentity(c)
		if !ok {
			c.String(http.StatusOK, "anonymous")
			return
		}

		c.String(http.StatusOK, claims.Name)
	})

	tests := []struct {
		name   string
		target string
		header string
		want   string
	}{
		{name: "no token", target: "/", want: "anonymous"},
		{name: "query token", target: "/?token=" + token, want: "Quiet Heron"},
		{name: "bearer token", target: "/", header: "Bearer " + token, want: "Quiet Heron"},
		{name: "garbage token", target: "/?token=nope", want: "anonymous"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, tt.target, nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}

			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)

			assert.Equal(t, tt.want, w.Body.String())
		})
	}
}

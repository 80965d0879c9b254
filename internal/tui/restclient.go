package tui

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"codeberg.org/portfolio/presence/internal/localstate"
)

// timeout for identity requests
const identityRequestTimeout = 10 * time.Second

// requests identity tokens from the presence server REST API
type IdentityClient struct {
	endpoint   string
	httpClient *http.Client
}

// creates a client for the REST API next to a websocket endpoint such as ws://host/api/v1/ws
func NewIdentityClient(wsEndpoint string) (*IdentityClient, error) {
	u, err := url.Parse(wsEndpoint)
	if err != nil {
		return nil, fmt.Errorf("invalid endpoint: %w", err)
	}

	switch u.Scheme {
	case "ws":
		u.Scheme = "http"
	case "wss":
		u.Scheme = "https"
	case "http", "https":
	default:
		return nil, fmt.Errorf("unsupported endpoint scheme %q", u.Scheme)
	}

	u.Path = strings.TrimSuffix(u.Path, "/ws")
	u.RawQuery = ""

	return &IdentityClient{
		endpoint: u.String(),
		httpClient: &http.Client{
			Timeout: identityRequestTimeout,
		},
	}, nil
}

// exchanges the local session for a signed identity token
func (c *IdentityClient) Token(ctx context.Context, session localstate.SessionData) (string, error) {
	payload := identityRequest{
		SessionID:  session.SessionID,
		Name:       session.Name,
		ColorIndex: &session.ColorIndex,
	}

	payloadBytes, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint+"/identity", bytes.NewReader(payloadBytes))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close() //nolint:errcheck

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read response: %w", err)
	}

	// handle error responses
	if resp.StatusCode != http.StatusCreated {
		var errResp identityErrorResponse
		if err := json.Unmarshal(body, &errResp); err == nil && errResp.Error != "" {
			return "", fmt.Errorf("%s: %s", errResp.Error, errResp.Message)
		}

		return "", fmt.Errorf("request failed with status %d: %s", resp.StatusCode, string(body))
	}

	var result identityResponse
	if err := json.Unmarshal(body, &result); err != nil {
		return "", fmt.Errorf("failed to parse response: %w", err)
	}

	if result.Token == "" {
		return "", fmt.Errorf("response carried no token")
	}

	return result.Token, nil
}

// REST API request/response types

type identityRequest struct {
	SessionID  string `json:"session_id"`
	Name       string `json:"name"`
	ColorIndex *int   `json:"color_index,omitempty"`
}

type identityResponse struct {
	Token     string    `json:"token"`
	Name      string    `json:"name"`
	ExpiresAt time.Time `json:"expires_at"`
}

type identityErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
	Details string `json:"details,omitempty"`
}

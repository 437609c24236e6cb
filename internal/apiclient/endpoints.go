package apiclient

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"devplanet/internal/analysis"
	"devplanet/internal/metrics"
)

// User identifies an authenticated account.
type User struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email,omitempty"`
}

// LoginResponse carries the bearer token issued on login.
type LoginResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	User        User   `json:"user"`
}

// Login exchanges credentials for a bearer token.
func (c *Client) Login(ctx context.Context, email, password string) (*LoginResponse, error) {
	req := struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}{Email: email, Password: password}

	var resp LoginResponse
	if err := c.call(ctx, http.MethodPost, "/api/login", req, &resp); err != nil {
		return nil, fmt.Errorf("login: %w", err)
	}
	return &resp, nil
}

// Health checks backend reachability.
func (c *Client) Health(ctx context.Context) error {
	if err := c.call(ctx, http.MethodGet, "/health", nil, nil); err != nil {
		return fmt.Errorf("health check: %w", err)
	}
	return nil
}

// SessionInfo is the backend's record of an opened session.
type SessionInfo struct {
	SessionID string `json:"session_id"`
	Message   string `json:"message,omitempty"`
}

// StartSessionRequest opens a session over REST when the stream path
// is unavailable.
type StartSessionRequest struct {
	UserID      string `json:"user_id"`
	PlanetID    string `json:"planet_id"`
	ProjectName string `json:"project_name,omitempty"`
	Language    string `json:"language,omitempty"`
}

// StartSession opens a coding session.
func (c *Client) StartSession(ctx context.Context, req StartSessionRequest) (*SessionInfo, error) {
	var resp SessionInfo
	if err := c.call(ctx, http.MethodPost, "/coding/session/start", req, &resp); err != nil {
		return nil, fmt.Errorf("start session: %w", err)
	}
	return &resp, nil
}

// SessionSummary aggregates a finished session.
type SessionSummary struct {
	SessionID         string  `json:"session_id"`
	DurationSeconds   int     `json:"duration_seconds"`
	AnalysesPerformed int     `json:"analyses_performed"`
	PointsEarned      float64 `json:"points_earned"`
}

// EndSession closes a coding session, reporting its floored duration.
func (c *Client) EndSession(ctx context.Context, sessionID string, durationSeconds int) (*SessionSummary, error) {
	req := struct {
		SessionID       string `json:"session_id"`
		DurationSeconds int    `json:"duration_seconds"`
	}{SessionID: sessionID, DurationSeconds: durationSeconds}

	var resp SessionSummary
	if err := c.call(ctx, http.MethodPost, "/coding/session/end", req, &resp); err != nil {
		return nil, fmt.Errorf("end session: %w", err)
	}
	return &resp, nil
}

// Analyze submits a metrics snapshot for server-side analysis over
// REST. The stream path is preferred; this is the fallback transport.
func (c *Client) Analyze(ctx context.Context, userID string, m metrics.CodeMetrics, now time.Time) (*analysis.Result, error) {
	req := struct {
		UserID    string              `json:"user_id"`
		Metrics   metrics.CodeMetrics `json:"metrics"`
		Language  string              `json:"language"`
		Timestamp string              `json:"timestamp"`
	}{
		UserID:    userID,
		Metrics:   m,
		Language:  m.Language,
		Timestamp: now.UTC().Format(time.RFC3339),
	}

	var resp analysis.Result
	if err := c.call(ctx, http.MethodPost, "/coding/analyze", req, &resp); err != nil {
		return nil, fmt.Errorf("analyze: %w", err)
	}
	return &resp, nil
}

// UserStats fetches the aggregate session counters for a user. The
// counters replace cached values wholesale; they are never merged.
func (c *Client) UserStats(ctx context.Context, userID string) (*analysis.SessionStats, error) {
	path := fmt.Sprintf("/user/%s/stats", url.PathEscape(userID))

	var resp analysis.SessionStats
	if err := c.call(ctx, http.MethodGet, path, nil, &resp); err != nil {
		return nil, fmt.Errorf("user stats: %w", err)
	}
	return &resp, nil
}

// Package coachapi is the HTTP client for the remote coaching backend. The
// backend owns all persistent workout data; this process only ever reads the
// active session and appends set logs, so the client surface is deliberately
// narrow.
package coachapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/claude/liveset/internal/models"
	"github.com/google/uuid"
)

// Client talks to the coaching API over HTTPS with API-key auth.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

// NewClient creates a Client for the given base URL. The API key may be empty
// when the backend sits behind a trusted network.
func NewClient(baseURL, apiKey string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		apiKey:     apiKey,
		httpClient: &http.Client{Timeout: timeout},
	}
}

// errorEnvelope is the backend's JSON error shape.
type errorEnvelope struct {
	Error string `json:"error"`
}

func (c *Client) do(ctx context.Context, method, path string, params url.Values, payload, out any) error {
	u := c.baseURL + path
	if len(params) > 0 {
		u += "?" + params.Encode()
	}

	var body io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("coachapi: marshal request: %w", err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, u, body)
	if err != nil {
		return fmt.Errorf("coachapi: create request: %w", err)
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.apiKey != "" {
		req.Header.Set("X-API-Key", c.apiKey)
	}
	if method != http.MethodGet {
		// Lets the backend discard duplicate writes from retried requests.
		req.Header.Set("Idempotency-Key", uuid.NewString())
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("coachapi: %s %s: %w", method, path, err)
	}
	defer func() { _ = resp.Body.Close() }()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("coachapi: read body: %w", err)
	}

	if resp.StatusCode == http.StatusNoContent || resp.StatusCode == http.StatusNotFound {
		return errNotFound
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var env errorEnvelope
		if json.Unmarshal(respBody, &env) == nil && env.Error != "" {
			return fmt.Errorf("coachapi: %s %s: %s", method, path, env.Error)
		}
		return fmt.Errorf("coachapi: %s %s returned %d: %s", method, path, resp.StatusCode, respBody)
	}

	if out != nil {
		if err := json.Unmarshal(respBody, out); err != nil {
			return fmt.Errorf("coachapi: decode %s response: %w", path, err)
		}
	}
	return nil
}

var errNotFound = fmt.Errorf("coachapi: not found")

// GetActiveSession returns the user's active session, or nil when none is
// running. At most one session is active per user; the backend enforces that.
func (c *Client) GetActiveSession(ctx context.Context) (*models.SessionPayload, error) {
	var payload models.SessionPayload
	err := c.do(ctx, http.MethodGet, "/api/v1/sessions/active", nil, nil, &payload)
	if err == errNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &payload, nil
}

// StartWorkoutOptions selects what the new session is created from. All
// fields are optional; an empty struct starts a freestyle session.
type StartWorkoutOptions struct {
	ClientID         string `json:"client_id,omitempty"`
	TemplateID       string `json:"template_id,omitempty"`
	PlannedSessionID string `json:"planned_session_id,omitempty"`
}

// StartWorkout creates a new active session and returns it.
func (c *Client) StartWorkout(ctx context.Context, opts StartWorkoutOptions) (*models.SessionPayload, error) {
	var payload models.SessionPayload
	if err := c.do(ctx, http.MethodPost, "/api/v1/sessions", nil, opts, &payload); err != nil {
		return nil, err
	}
	return &payload, nil
}

// logSetRequest is the write payload for one completed set. Order is the slot
// position the set was logged from.
type logSetRequest struct {
	ExerciseID string   `json:"exercise_id"`
	Reps       int      `json:"reps"`
	Weight     *float64 `json:"weight,omitempty"`
	Order      int      `json:"order"`
}

// LogSet persists one completed set against the session.
func (c *Client) LogSet(ctx context.Context, sessionID, exerciseID string, reps int, weight *float64, order int) error {
	path := fmt.Sprintf("/api/v1/sessions/%s/logs", url.PathEscape(sessionID))
	req := logSetRequest{ExerciseID: exerciseID, Reps: reps, Weight: weight, Order: order}
	err := c.do(ctx, http.MethodPost, path, nil, req, nil)
	if err == errNotFound {
		return fmt.Errorf("coachapi: session %s not found", sessionID)
	}
	return err
}

// FinishSession closes the session with optional wrap-up notes.
func (c *Client) FinishSession(ctx context.Context, sessionID, notes string) error {
	path := fmt.Sprintf("/api/v1/sessions/%s/finish", url.PathEscape(sessionID))
	req := map[string]string{}
	if notes != "" {
		req["notes"] = notes
	}
	err := c.do(ctx, http.MethodPost, path, nil, req, nil)
	if err == errNotFound {
		return fmt.Errorf("coachapi: session %s not found", sessionID)
	}
	return err
}

// GetExercises pages through the exercise catalog, optionally filtered by a
// free-text query. Used to pick ad-hoc exercises mid-session.
func (c *Client) GetExercises(ctx context.Context, query string, page int) (*models.ExercisePage, error) {
	params := url.Values{}
	if query != "" {
		params.Set("query", query)
	}
	if page > 0 {
		params.Set("page", strconv.Itoa(page))
	}

	var result models.ExercisePage
	if err := c.do(ctx, http.MethodGet, "/api/v1/exercises", params, nil, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

package mcp

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

	"github.com/claude/liveset/internal/coachapi"
	"github.com/claude/liveset/internal/engine"
	"github.com/claude/liveset/internal/models"
)

// HTTPClient implements SessionSource by calling the LiveSet REST API. Used
// for remote MCP mode where the binary runs locally (stdio) but the engine
// lives in the companion service (accessed over Tailscale).
type HTTPClient struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

// Compile-time check: HTTPClient satisfies SessionSource.
var _ SessionSource = (*HTTPClient)(nil)

// NewHTTPClient creates an HTTPClient targeting the given base URL.
func NewHTTPClient(baseURL, apiKey string) *HTTPClient {
	return &HTTPClient{
		baseURL:    strings.TrimRight(baseURL, "/"),
		apiKey:     apiKey,
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
}

func (c *HTTPClient) call(ctx context.Context, method, path string, params url.Values, payload any) ([]byte, error) {
	u := c.baseURL + path
	if len(params) > 0 {
		u += "?" + params.Encode()
	}

	var body io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("httpclient: marshal request: %w", err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, u, body)
	if err != nil {
		return nil, fmt.Errorf("httpclient: create request: %w", err)
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.apiKey != "" {
		req.Header.Set("X-API-Key", c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("httpclient: %s %s: %w", method, path, err)
	}
	defer func() { _ = resp.Body.Close() }()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("httpclient: read body: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("httpclient: %s %s returned %d: %s", method, path, resp.StatusCode, respBody)
	}
	return respBody, nil
}

func (c *HTTPClient) stateCall(ctx context.Context, method, path string, payload any) (engine.State, error) {
	body, err := c.call(ctx, method, path, nil, payload)
	if err != nil {
		return engine.State{}, err
	}

	var state engine.State
	if err := json.Unmarshal(body, &state); err != nil {
		return engine.State{}, fmt.Errorf("httpclient: decode state: %w", err)
	}
	return state, nil
}

func (c *HTTPClient) Snapshot(ctx context.Context) (engine.State, error) {
	return c.stateCall(ctx, http.MethodGet, "/api/v1/state", nil)
}

func (c *HTTPClient) Refresh(ctx context.Context) (engine.State, error) {
	return c.stateCall(ctx, http.MethodPost, "/api/v1/session/refresh", nil)
}

func (c *HTTPClient) StartWorkout(ctx context.Context, opts coachapi.StartWorkoutOptions) (engine.State, error) {
	return c.stateCall(ctx, http.MethodPost, "/api/v1/session/start", opts)
}

func (c *HTTPClient) FinishWorkout(ctx context.Context, notes string) (engine.State, error) {
	return c.stateCall(ctx, http.MethodPost, "/api/v1/session/finish", map[string]string{"notes": notes})
}

// slotBody mirrors the REST API's slot request shape.
type slotBody struct {
	ExerciseID string `json:"exercise_id"`
	Position   int    `json:"position"`
	Weight     string `json:"weight"`
	Reps       string `json:"reps"`
}

func (c *HTTPClient) LogSet(ctx context.Context, exerciseID string, position int, weight, reps string) (engine.State, error) {
	body := slotBody{ExerciseID: exerciseID, Position: position, Weight: weight, Reps: reps}
	return c.stateCall(ctx, http.MethodPost, "/api/v1/session/logs", body)
}

func (c *HTTPClient) UpdateSlot(ctx context.Context, exerciseID string, position int, weight, reps string) (engine.State, error) {
	body := slotBody{ExerciseID: exerciseID, Position: position, Weight: weight, Reps: reps}
	return c.stateCall(ctx, http.MethodPut, "/api/v1/session/slots", body)
}

func (c *HTTPClient) StartRest(ctx context.Context, seconds int, exerciseID string) (engine.State, error) {
	return c.stateCall(ctx, http.MethodPost, "/api/v1/rest/start",
		map[string]any{"seconds": seconds, "exercise_id": exerciseID})
}

func (c *HTTPClient) StopRest(ctx context.Context) (engine.State, error) {
	return c.stateCall(ctx, http.MethodPost, "/api/v1/rest/stop", struct{}{})
}

func (c *HTTPClient) AdjustRest(ctx context.Context, delta int) (engine.State, error) {
	return c.stateCall(ctx, http.MethodPost, "/api/v1/rest/adjust", map[string]int{"delta": delta})
}

func (c *HTTPClient) Exercises(ctx context.Context, query string, page int) (*models.ExercisePage, error) {
	params := url.Values{}
	if query != "" {
		params.Set("query", query)
	}
	if page > 0 {
		params.Set("page", strconv.Itoa(page))
	}

	body, err := c.call(ctx, http.MethodGet, "/api/v1/exercises", params, nil)
	if err != nil {
		return nil, err
	}

	var result models.ExercisePage
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, fmt.Errorf("httpclient: decode exercises: %w", err)
	}
	return &result, nil
}

package coachapi

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/claude/liveset/internal/models"
	"github.com/google/uuid"
)

// newTestServer routes requests to handler functions keyed by path, failing
// the test on anything unexpected.
func newTestServer(t *testing.T, handlers map[string]http.HandlerFunc) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h, ok := handlers[r.URL.Path]
		if !ok {
			t.Errorf("unexpected request path: %s", r.URL.Path)
			http.NotFound(w, r)
			return
		}
		h(w, r)
	}))
}

func writeTestJSON(t *testing.T, w http.ResponseWriter, v any) {
	t.Helper()
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		t.Fatal(err)
	}
}

func TestGetActiveSession(t *testing.T) {
	ts := newTestServer(t, map[string]http.HandlerFunc{
		"/api/v1/sessions/active": func(w http.ResponseWriter, r *http.Request) {
			if got := r.Header.Get("X-API-Key"); got != "secret" {
				t.Errorf("X-API-Key=%q, want secret", got)
			}
			writeTestJSON(t, w, models.SessionPayload{
				ID:        "sess-1",
				StartedAt: "2026-03-01T09:30:00Z",
				Logs: []models.ExerciseLog{
					{ID: "log-1", ExerciseID: "ex-1", ExerciseName: "Squat", Reps: 8, Order: 0, Completed: true},
				},
			})
		},
	})
	defer ts.Close()

	client := NewClient(ts.URL, "secret", 0)
	payload, err := client.GetActiveSession(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if payload.ID != "sess-1" {
		t.Errorf("id=%q, want sess-1", payload.ID)
	}
	if len(payload.Logs) != 1 || payload.Logs[0].ExerciseName != "Squat" {
		t.Errorf("logs=%+v", payload.Logs)
	}
}

// TestGetActiveSessionNone verifies 404 and 204 both mean "no active
// session" — a normal empty state, not an error.
func TestGetActiveSessionNone(t *testing.T) {
	for _, status := range []int{http.StatusNotFound, http.StatusNoContent} {
		ts := newTestServer(t, map[string]http.HandlerFunc{
			"/api/v1/sessions/active": func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(status)
			},
		})

		client := NewClient(ts.URL, "", 0)
		payload, err := client.GetActiveSession(context.Background())
		if err != nil {
			t.Errorf("status %d: unexpected error: %v", status, err)
		}
		if payload != nil {
			t.Errorf("status %d: payload=%+v, want nil", status, payload)
		}
		ts.Close()
	}
}

func TestLogSet(t *testing.T) {
	weight := 102.5
	ts := newTestServer(t, map[string]http.HandlerFunc{
		"/api/v1/sessions/sess-1/logs": func(w http.ResponseWriter, r *http.Request) {
			if r.Method != http.MethodPost {
				t.Errorf("method=%s, want POST", r.Method)
			}
			if key := r.Header.Get("Idempotency-Key"); key == "" {
				t.Error("missing Idempotency-Key header")
			} else if _, err := uuid.Parse(key); err != nil {
				t.Errorf("Idempotency-Key %q is not a UUID", key)
			}

			var req struct {
				ExerciseID string   `json:"exercise_id"`
				Reps       int      `json:"reps"`
				Weight     *float64 `json:"weight"`
				Order      int      `json:"order"`
			}
			if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
				t.Fatal(err)
			}
			if req.ExerciseID != "ex-1" || req.Reps != 8 || req.Order != 2 {
				t.Errorf("request=%+v", req)
			}
			if req.Weight == nil || *req.Weight != 102.5 {
				t.Errorf("weight=%v, want 102.5", req.Weight)
			}
			w.WriteHeader(http.StatusCreated)
		},
	})
	defer ts.Close()

	client := NewClient(ts.URL, "", 0)
	if err := client.LogSet(context.Background(), "sess-1", "ex-1", 8, &weight, 2); err != nil {
		t.Fatal(err)
	}
}

// TestLogSetServerError verifies the backend's error envelope surfaces in the
// returned error.
func TestLogSetServerError(t *testing.T) {
	ts := newTestServer(t, map[string]http.HandlerFunc{
		"/api/v1/sessions/sess-1/logs": func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusBadRequest)
			_, _ = w.Write([]byte(`{"error":"session already finished"}`))
		},
	})
	defer ts.Close()

	client := NewClient(ts.URL, "", 0)
	err := client.LogSet(context.Background(), "sess-1", "ex-1", 8, nil, 0)
	if err == nil {
		t.Fatal("expected error for 400 response")
	}
	if got := err.Error(); got != "coachapi: POST /api/v1/sessions/sess-1/logs: session already finished" {
		t.Errorf("error=%q", got)
	}
}

func TestStartWorkout(t *testing.T) {
	ts := newTestServer(t, map[string]http.HandlerFunc{
		"/api/v1/sessions": func(w http.ResponseWriter, r *http.Request) {
			var opts StartWorkoutOptions
			if err := json.NewDecoder(r.Body).Decode(&opts); err != nil {
				t.Fatal(err)
			}
			if opts.TemplateID != "tmpl-1" {
				t.Errorf("template_id=%q, want tmpl-1", opts.TemplateID)
			}
			writeTestJSON(t, w, models.SessionPayload{ID: "sess-2", StartedAt: "2026-03-01T10:00:00Z"})
		},
	})
	defer ts.Close()

	client := NewClient(ts.URL, "", 0)
	payload, err := client.StartWorkout(context.Background(), StartWorkoutOptions{TemplateID: "tmpl-1"})
	if err != nil {
		t.Fatal(err)
	}
	if payload.ID != "sess-2" {
		t.Errorf("id=%q, want sess-2", payload.ID)
	}
}

func TestFinishSession(t *testing.T) {
	ts := newTestServer(t, map[string]http.HandlerFunc{
		"/api/v1/sessions/sess-1/finish": func(w http.ResponseWriter, r *http.Request) {
			var req map[string]string
			if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
				t.Fatal(err)
			}
			if req["notes"] != "good session" {
				t.Errorf("notes=%q", req["notes"])
			}
			w.WriteHeader(http.StatusOK)
			_, _ = w.Write([]byte(`{}`))
		},
	})
	defer ts.Close()

	client := NewClient(ts.URL, "", 0)
	if err := client.FinishSession(context.Background(), "sess-1", "good session"); err != nil {
		t.Fatal(err)
	}
}

func TestGetExercises(t *testing.T) {
	ts := newTestServer(t, map[string]http.HandlerFunc{
		"/api/v1/exercises": func(w http.ResponseWriter, r *http.Request) {
			if got := r.URL.Query().Get("query"); got != "press" {
				t.Errorf("query=%q, want press", got)
			}
			if got := r.URL.Query().Get("page"); got != "2" {
				t.Errorf("page=%q, want 2", got)
			}
			writeTestJSON(t, w, models.ExercisePage{
				Exercises: []models.Exercise{{ID: "ex-9", Name: "Overhead Press"}},
				Page:      2,
			})
		},
	})
	defer ts.Close()

	client := NewClient(ts.URL, "", 0)
	page, err := client.GetExercises(context.Background(), "press", 2)
	if err != nil {
		t.Fatal(err)
	}
	if len(page.Exercises) != 1 || page.Exercises[0].Name != "Overhead Press" {
		t.Errorf("page=%+v", page)
	}
}

func TestClientTimeoutDefault(t *testing.T) {
	client := NewClient("http://example.invalid", "", 0)
	if client.httpClient.Timeout != 30*time.Second {
		t.Errorf("timeout=%v, want 30s default", client.httpClient.Timeout)
	}
}

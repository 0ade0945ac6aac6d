package mcp

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/claude/liveset/internal/coachapi"
	"github.com/claude/liveset/internal/models"
)

// newTestServer creates an httptest server that routes requests to handler
// functions keyed by path. Verifies the HTTP client sends correct paths and
// bodies.
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

// TestSnapshot verifies the client parses a full session state and sends the
// API key header.
func TestSnapshot(t *testing.T) {
	ts := newTestServer(t, map[string]http.HandlerFunc{
		"/api/v1/state": func(w http.ResponseWriter, r *http.Request) {
			if got := r.Header.Get("X-API-Key"); got != "secret" {
				t.Errorf("X-API-Key=%q, want secret", got)
			}
			writeTestJSON(t, w, map[string]any{
				"session": map[string]any{
					"id":    "sess-1",
					"title": "Push Day",
					"exercises": []map[string]any{
						{"exercise_id": "ex-1", "name": "Bench Press", "slots": []any{}},
					},
				},
				"timer": map[string]any{
					"session_active":  true,
					"elapsed_seconds": 90,
				},
			})
		},
	})
	defer ts.Close()

	client := NewHTTPClient(ts.URL, "secret")
	state, err := client.Snapshot(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if state.Session == nil || state.Session.Title != "Push Day" {
		t.Fatalf("session = %+v, want title Push Day", state.Session)
	}
	if !state.Timer.SessionActive || state.Timer.ElapsedSeconds != 90 {
		t.Errorf("timer = %+v, want active with 90s elapsed", state.Timer)
	}
}

// TestLogSetSendsSlotBody verifies log_set posts the slot identity and text.
func TestLogSetSendsSlotBody(t *testing.T) {
	ts := newTestServer(t, map[string]http.HandlerFunc{
		"/api/v1/session/logs": func(w http.ResponseWriter, r *http.Request) {
			if r.Method != http.MethodPost {
				t.Errorf("method=%s, want POST", r.Method)
			}
			var body slotBody
			if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
				t.Fatal(err)
			}
			if body.ExerciseID != "ex-1" || body.Position != 2 {
				t.Errorf("slot = %s/%d, want ex-1/2", body.ExerciseID, body.Position)
			}
			if body.Weight != "102.5" || body.Reps != "8" {
				t.Errorf("text = %q/%q, want 102.5/8", body.Weight, body.Reps)
			}
			writeTestJSON(t, w, map[string]any{"session": nil, "timer": map[string]any{}})
		},
	})
	defer ts.Close()

	client := NewHTTPClient(ts.URL, "")
	if _, err := client.LogSet(context.Background(), "ex-1", 2, "102.5", "8"); err != nil {
		t.Fatal(err)
	}
}

// TestStartWorkoutSendsOptions verifies the start body carries the template
// choice through unchanged.
func TestStartWorkoutSendsOptions(t *testing.T) {
	ts := newTestServer(t, map[string]http.HandlerFunc{
		"/api/v1/session/start": func(w http.ResponseWriter, r *http.Request) {
			var opts coachapi.StartWorkoutOptions
			if err := json.NewDecoder(r.Body).Decode(&opts); err != nil {
				t.Fatal(err)
			}
			if opts.TemplateID != "tpl-9" {
				t.Errorf("template_id=%q, want tpl-9", opts.TemplateID)
			}
			writeTestJSON(t, w, map[string]any{"session": nil, "timer": map[string]any{}})
		},
	})
	defer ts.Close()

	client := NewHTTPClient(ts.URL, "")
	_, err := client.StartWorkout(context.Background(), coachapi.StartWorkoutOptions{TemplateID: "tpl-9"})
	if err != nil {
		t.Fatal(err)
	}
}

// TestExercisesQueryParams verifies the catalog proxy forwards query and page.
func TestExercisesQueryParams(t *testing.T) {
	ts := newTestServer(t, map[string]http.HandlerFunc{
		"/api/v1/exercises": func(w http.ResponseWriter, r *http.Request) {
			if got := r.URL.Query().Get("query"); got != "squat" {
				t.Errorf("query=%q, want squat", got)
			}
			if got := r.URL.Query().Get("page"); got != "2" {
				t.Errorf("page=%q, want 2", got)
			}
			writeTestJSON(t, w, models.ExercisePage{
				Exercises: []models.Exercise{{ID: "ex-5", Name: "Back Squat"}},
				Page:      2,
			})
		},
	})
	defer ts.Close()

	client := NewHTTPClient(ts.URL, "")
	page, err := client.Exercises(context.Background(), "squat", 2)
	if err != nil {
		t.Fatal(err)
	}
	if len(page.Exercises) != 1 || page.Exercises[0].Name != "Back Squat" {
		t.Fatalf("exercises = %+v, want Back Squat", page.Exercises)
	}
}

// TestHTTPClientServerError verifies the client returns an error on non-200
// responses and includes the body.
func TestHTTPClientServerError(t *testing.T) {
	ts := newTestServer(t, map[string]http.HandlerFunc{
		"/api/v1/state": func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusInternalServerError)
			_, _ = w.Write([]byte(`{"error":"engine unavailable"}`))
		},
	})
	defer ts.Close()

	client := NewHTTPClient(ts.URL, "")
	if _, err := client.Snapshot(context.Background()); err == nil {
		t.Fatal("expected error for 500 response")
	}
}

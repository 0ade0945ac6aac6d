package server

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/claude/liveset/internal/coachapi"
	"github.com/claude/liveset/internal/engine"
	"github.com/claude/liveset/internal/models"
	"github.com/claude/liveset/internal/timer"
)

// scriptedAPI plays the coaching backend for handler tests.
type scriptedAPI struct {
	active *models.SessionPayload
	logged int
}

func (f *scriptedAPI) GetActiveSession(context.Context) (*models.SessionPayload, error) {
	return f.active, nil
}

func (f *scriptedAPI) StartWorkout(context.Context, coachapi.StartWorkoutOptions) (*models.SessionPayload, error) {
	return f.active, nil
}

func (f *scriptedAPI) LogSet(_ context.Context, _, exerciseID string, reps int, weight *float64, order int) error {
	f.logged++
	// Reflect the write back into the active payload like the backend would.
	f.active.Logs = append(f.active.Logs, models.ExerciseLog{
		ID: "log-new", ExerciseID: exerciseID, ExerciseName: "Bench",
		Reps: reps, Weight: weight, Order: order, Completed: true,
	})
	return nil
}

func (f *scriptedAPI) FinishSession(context.Context, string, string) error {
	f.active = nil
	return nil
}

func (f *scriptedAPI) GetExercises(context.Context, string, int) (*models.ExercisePage, error) {
	return &models.ExercisePage{Exercises: []models.Exercise{{ID: "ex-9", Name: "Dip"}}}, nil
}

func activePayload() *models.SessionPayload {
	return &models.SessionPayload{
		ID:        "sess-1",
		StartedAt: "2026-03-01T09:00:00Z",
		Template: &models.TemplatePayload{
			Name: "Push Day",
			Steps: []models.TemplateStep{
				{ExerciseID: "ex-1", ExerciseName: "Bench", TargetSets: 3, TargetReps: "5-8", RestSeconds: 120},
			},
		},
	}
}

func newTestServer(t *testing.T, api engine.API, apiKey string) *Server {
	t.Helper()
	log := slog.New(slog.DiscardHandler)
	tc := timer.New(log)
	t.Cleanup(tc.Close)
	return New(engine.New(api, tc, nil, log), apiKey, log)
}

func doJSON(t *testing.T, srv *Server, method, path string, body any) (*httptest.ResponseRecorder, engine.State) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatal(err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)

	var st engine.State
	if rec.Code == http.StatusOK {
		if err := json.Unmarshal(rec.Body.Bytes(), &st); err != nil {
			t.Fatalf("decoding state: %v (body: %s)", err, rec.Body.String())
		}
	}
	return rec, st
}

func TestStateEmpty(t *testing.T) {
	srv := newTestServer(t, &scriptedAPI{}, "")

	rec, st := doJSON(t, srv, http.MethodGet, "/api/v1/state", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status=%d", rec.Code)
	}
	if st.Session != nil || st.Timer.SessionActive {
		t.Errorf("state = %+v, want empty", st)
	}
}

func TestRefreshThenLogSet(t *testing.T) {
	api := &scriptedAPI{active: activePayload()}
	srv := newTestServer(t, api, "")

	rec, st := doJSON(t, srv, http.MethodPost, "/api/v1/session/refresh", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("refresh status=%d", rec.Code)
	}
	if st.Session == nil || len(st.Session.Exercises[0].Slots) != 3 {
		t.Fatalf("refreshed state = %+v", st)
	}

	rec, st = doJSON(t, srv, http.MethodPost, "/api/v1/session/logs",
		slotRequest{ExerciseID: "ex-1", Position: 0, Weight: "100", Reps: "8"})
	if rec.Code != http.StatusOK {
		t.Fatalf("log status=%d", rec.Code)
	}
	if api.logged != 1 {
		t.Errorf("backend writes=%d, want 1", api.logged)
	}
	slot := st.Session.FindSlot("ex-1", 0)
	if slot == nil || slot.LogID != "log-new" || !slot.Completed {
		t.Errorf("slot after log = %+v", slot)
	}
	if st.LastError != "" {
		t.Errorf("unexpected error state: %q", st.LastError)
	}
}

func TestLogSetInvalidInputStillOK(t *testing.T) {
	api := &scriptedAPI{active: activePayload()}
	srv := newTestServer(t, api, "")
	doJSON(t, srv, http.MethodPost, "/api/v1/session/refresh", nil)

	rec, st := doJSON(t, srv, http.MethodPost, "/api/v1/session/logs",
		slotRequest{ExerciseID: "ex-1", Position: 0, Weight: "heavy", Reps: "8"})
	if rec.Code != http.StatusOK {
		t.Fatalf("status=%d", rec.Code)
	}
	if api.logged != 0 {
		t.Errorf("invalid input reached the backend: %d writes", api.logged)
	}
	if slot := st.Session.FindSlot("ex-1", 0); slot.Completed {
		t.Error("invalid input marked the slot completed")
	}
}

func TestLogSetMissingExercise(t *testing.T) {
	srv := newTestServer(t, &scriptedAPI{active: activePayload()}, "")

	rec, _ := doJSON(t, srv, http.MethodPost, "/api/v1/session/logs",
		slotRequest{Position: 0, Weight: "100", Reps: "8"})
	if rec.Code != http.StatusBadRequest {
		t.Errorf("status=%d, want 400", rec.Code)
	}
}

func TestUpdateSlotText(t *testing.T) {
	srv := newTestServer(t, &scriptedAPI{active: activePayload()}, "")
	doJSON(t, srv, http.MethodPost, "/api/v1/session/refresh", nil)

	rec, st := doJSON(t, srv, http.MethodPut, "/api/v1/session/slots",
		slotRequest{ExerciseID: "ex-1", Position: 2, Weight: "62.5", Reps: "8"})
	if rec.Code != http.StatusOK {
		t.Fatalf("status=%d", rec.Code)
	}
	slot := st.Session.FindSlot("ex-1", 2)
	if slot.Weight != "62.5" || slot.Reps != "8" || slot.Completed {
		t.Errorf("slot = %+v", slot)
	}
}

func TestRestEndpoints(t *testing.T) {
	srv := newTestServer(t, &scriptedAPI{active: activePayload()}, "")
	doJSON(t, srv, http.MethodPost, "/api/v1/session/refresh", nil)

	_, st := doJSON(t, srv, http.MethodPost, "/api/v1/rest/start",
		map[string]any{"seconds": 90, "exercise_id": "ex-1"})
	if !st.Timer.Resting || st.Timer.RestTotalSeconds != 90 {
		t.Fatalf("timer after start = %+v", st.Timer)
	}

	_, st = doJSON(t, srv, http.MethodPost, "/api/v1/rest/adjust", map[string]any{"delta": 30})
	if st.Timer.RestTotalSeconds != 120 {
		t.Errorf("timer after adjust = %+v", st.Timer)
	}

	_, st = doJSON(t, srv, http.MethodPost, "/api/v1/rest/stop", nil)
	if st.Timer.Resting {
		t.Errorf("timer after stop = %+v", st.Timer)
	}
}

func TestFinishWorkout(t *testing.T) {
	srv := newTestServer(t, &scriptedAPI{active: activePayload()}, "")
	doJSON(t, srv, http.MethodPost, "/api/v1/session/refresh", nil)

	rec, st := doJSON(t, srv, http.MethodPost, "/api/v1/session/finish",
		map[string]string{"notes": "done"})
	if rec.Code != http.StatusOK {
		t.Fatalf("status=%d", rec.Code)
	}
	if st.Session != nil || st.Timer.SessionActive {
		t.Errorf("state after finish = %+v", st)
	}
}

func TestPresenceEndpoint(t *testing.T) {
	srv := newTestServer(t, &scriptedAPI{active: activePayload()}, "")
	doJSON(t, srv, http.MethodPost, "/api/v1/session/refresh", nil)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/presence", nil)
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)

	var resp struct {
		Active      bool   `json:"active"`
		Description string `json:"description"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if !resp.Active || resp.Description == "" {
		t.Errorf("presence = %+v", resp)
	}
}

func TestExercisesProxy(t *testing.T) {
	srv := newTestServer(t, &scriptedAPI{}, "")

	req := httptest.NewRequest(http.MethodGet, "/api/v1/exercises?query=dip&page=1", nil)
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)

	var page models.ExercisePage
	if err := json.Unmarshal(rec.Body.Bytes(), &page); err != nil {
		t.Fatal(err)
	}
	if len(page.Exercises) != 1 || page.Exercises[0].Name != "Dip" {
		t.Errorf("page = %+v", page)
	}
}

func TestBadJSONRejected(t *testing.T) {
	srv := newTestServer(t, &scriptedAPI{}, "")

	req := httptest.NewRequest(http.MethodPost, "/api/v1/session/logs", bytes.NewBufferString("{nope"))
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("status=%d, want 400", rec.Code)
	}
}

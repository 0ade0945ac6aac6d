package server

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/claude/liveset/internal/coachapi"
	"github.com/claude/liveset/internal/presence"
)

func (s *Server) handleState(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.engine.State())
}

// handlePresence returns the same one-line status the presence bridge pushes
// to its sink, for surfaces that poll instead.
func (s *Server) handlePresence(w http.ResponseWriter, r *http.Request) {
	snap, title, active := s.engine.PresenceState()
	resp := map[string]any{"active": active}
	if active {
		resp["description"] = presence.Describe(snap, title)
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleStartWorkout(w http.ResponseWriter, r *http.Request) {
	var opts coachapi.StartWorkoutOptions
	if r.ContentLength > 0 {
		if err := json.NewDecoder(r.Body).Decode(&opts); err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON: " + err.Error()})
			return
		}
	}

	if err := s.engine.StartWorkout(r.Context(), opts); err != nil {
		s.log.Error("start workout", "error", err)
		writeJSON(w, http.StatusBadGateway, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, s.engine.State())
}

func (s *Server) handleRefresh(w http.ResponseWriter, r *http.Request) {
	if err := s.engine.Load(r.Context()); err != nil {
		s.log.Error("session refresh", "error", err)
		writeJSON(w, http.StatusBadGateway, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, s.engine.State())
}

func (s *Server) handleFinishWorkout(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Notes string `json:"notes"`
	}
	if r.ContentLength > 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON: " + err.Error()})
			return
		}
	}

	if err := s.engine.FinishWorkout(r.Context(), req.Notes); err != nil {
		s.log.Error("finish workout", "error", err)
		writeJSON(w, http.StatusBadGateway, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, s.engine.State())
}

// slotRequest addresses one slot plus the text the user entered for it.
type slotRequest struct {
	ExerciseID string `json:"exercise_id"`
	Position   int    `json:"position"`
	Weight     string `json:"weight"`
	Reps       string `json:"reps"`
}

func (s *Server) handleLogSet(w http.ResponseWriter, r *http.Request) {
	var req slotRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON: " + err.Error()})
		return
	}
	if req.ExerciseID == "" || req.Position < 0 {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "exercise_id and position are required"})
		return
	}

	// A failed write is non-fatal: the optimistic state plus last_error in
	// the returned document is the contract, not an HTTP failure.
	if err := s.engine.LogSet(r.Context(), req.ExerciseID, req.Position, req.Weight, req.Reps); err != nil {
		s.log.Warn("log set", "exercise", req.ExerciseID, "position", req.Position, "error", err)
	}
	writeJSON(w, http.StatusOK, s.engine.State())
}

func (s *Server) handleUpdateSlot(w http.ResponseWriter, r *http.Request) {
	var req slotRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON: " + err.Error()})
		return
	}
	if req.ExerciseID == "" || req.Position < 0 {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "exercise_id and position are required"})
		return
	}

	s.engine.UpdateSlotText(req.ExerciseID, req.Position, req.Weight, req.Reps)
	writeJSON(w, http.StatusOK, s.engine.State())
}

func (s *Server) handleStartRest(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Seconds    int    `json:"seconds"`
		ExerciseID string `json:"exercise_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON: " + err.Error()})
		return
	}

	s.engine.StartRest(req.Seconds, req.ExerciseID)
	writeJSON(w, http.StatusOK, s.engine.State())
}

func (s *Server) handleStopRest(w http.ResponseWriter, r *http.Request) {
	s.engine.StopRest()
	writeJSON(w, http.StatusOK, s.engine.State())
}

func (s *Server) handleAdjustRest(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Delta int `json:"delta"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON: " + err.Error()})
		return
	}

	s.engine.AdjustRest(req.Delta)
	writeJSON(w, http.StatusOK, s.engine.State())
}

func (s *Server) handleExercises(w http.ResponseWriter, r *http.Request) {
	page := 1
	if p := r.URL.Query().Get("page"); p != "" {
		parsed, err := strconv.Atoi(p)
		if err != nil || parsed < 1 {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid page"})
			return
		}
		page = parsed
	}

	result, err := s.engine.Exercises(r.Context(), r.URL.Query().Get("query"), page)
	if err != nil {
		s.log.Error("exercise catalog", "error", err)
		writeJSON(w, http.StatusBadGateway, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (s *Server) handleClearError(w http.ResponseWriter, r *http.Request) {
	s.engine.ClearError()
	writeJSON(w, http.StatusOK, s.engine.State())
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

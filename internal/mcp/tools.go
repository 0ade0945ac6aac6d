package mcp

import (
	"context"
	"encoding/json"

	"github.com/claude/liveset/internal/coachapi"
	"github.com/mark3labs/mcp-go/mcp"
)

// --- Tool definitions ---

var toolGetLiveSession = mcp.NewTool("get_live_session",
	mcp.WithDescription("Read the current workout session state: reconciled exercises with their set slots, the elapsed/rest timers, and any surfaced error. Returns an inactive state when no session is running."),
)

var toolRefreshSession = mcp.NewTool("refresh_session",
	mcp.WithDescription("Re-fetch the active session from the coaching backend and re-reconcile it."),
)

var toolStartWorkout = mcp.NewTool("start_workout",
	mcp.WithDescription("Start a new workout session. All parameters are optional; omitting them starts a freestyle session with no template."),
	mcp.WithString("client_id", mcp.Description("Client the session is for")),
	mcp.WithString("template_id", mcp.Description("Workout template to plan the session from")),
	mcp.WithString("planned_session_id", mcp.Description("Pre-scheduled session to start")),
)

var toolFinishWorkout = mcp.NewTool("finish_workout",
	mcp.WithDescription("Finish the active session. The session clears and the timers stop."),
	mcp.WithString("notes", mcp.Description("Optional wrap-up notes")),
)

var toolLogSet = mcp.NewTool("log_set",
	mcp.WithDescription("Log a completed set into a slot. The slot is marked completed immediately and the session resyncs from the backend after the write. Unparseable weight or reps is a silent no-op."),
	mcp.WithString("exercise_id", mcp.Required(), mcp.Description("Exercise the set belongs to")),
	mcp.WithNumber("position", mcp.Required(), mcp.Description("Zero-based slot position within the exercise")),
	mcp.WithString("weight", mcp.Required(), mcp.Description("Weight as text, e.g. '102.5'")),
	mcp.WithString("reps", mcp.Required(), mcp.Description("Repetitions as text, e.g. '8'")),
)

var toolUpdateSlot = mcp.NewTool("update_slot",
	mcp.WithDescription("Pencil in weight/reps text for a slot without logging it. Local only; nothing is persisted until the set is logged."),
	mcp.WithString("exercise_id", mcp.Required(), mcp.Description("Exercise the slot belongs to")),
	mcp.WithNumber("position", mcp.Required(), mcp.Description("Zero-based slot position within the exercise")),
	mcp.WithString("weight", mcp.Description("Weight text")),
	mcp.WithString("reps", mcp.Description("Reps text")),
)

var toolStartRest = mcp.NewTool("start_rest",
	mcp.WithDescription("Start a rest countdown, replacing any countdown already running. With no seconds given, the exercise's planned rest time is used."),
	mcp.WithNumber("seconds", mcp.Description("Countdown length in seconds")),
	mcp.WithString("exercise_id", mcp.Description("Exercise being rested from")),
)

var toolStopRest = mcp.NewTool("stop_rest",
	mcp.WithDescription("Cancel the rest countdown early."),
)

var toolAdjustRest = mcp.NewTool("adjust_rest",
	mcp.WithDescription("Add or subtract seconds from the running rest countdown (e.g. +30 or -30). No effect when not resting."),
	mcp.WithNumber("delta", mcp.Required(), mcp.Description("Seconds to add; negative to subtract")),
)

var toolListExercises = mcp.NewTool("list_exercises",
	mcp.WithDescription("Browse the exercise catalog for ad-hoc exercises, optionally filtered by a search query."),
	mcp.WithString("query", mcp.Description("Free-text name filter")),
	mcp.WithNumber("page", mcp.Description("Page number, starting at 1")),
)

// --- Tool handlers ---

func (h *handlers) getLiveSession(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	state, err := h.source.Snapshot(ctx)
	if err != nil {
		h.log.Error("mcp get_live_session", "error", err)
		return mcp.NewToolResultError("reading session failed: " + err.Error()), nil
	}
	return stateResult(state)
}

func (h *handlers) refreshSession(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	state, err := h.source.Refresh(ctx)
	if err != nil {
		h.log.Error("mcp refresh_session", "error", err)
		return mcp.NewToolResultError("refresh failed: " + err.Error()), nil
	}
	return stateResult(state)
}

func (h *handlers) startWorkout(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	opts := coachapi.StartWorkoutOptions{
		ClientID:         req.GetString("client_id", ""),
		TemplateID:       req.GetString("template_id", ""),
		PlannedSessionID: req.GetString("planned_session_id", ""),
	}
	state, err := h.source.StartWorkout(ctx, opts)
	if err != nil {
		h.log.Error("mcp start_workout", "error", err)
		return mcp.NewToolResultError("start failed: " + err.Error()), nil
	}
	return stateResult(state)
}

func (h *handlers) finishWorkout(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	state, err := h.source.FinishWorkout(ctx, req.GetString("notes", ""))
	if err != nil {
		h.log.Error("mcp finish_workout", "error", err)
		return mcp.NewToolResultError("finish failed: " + err.Error()), nil
	}
	return stateResult(state)
}

func (h *handlers) logSet(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	exerciseID, err := req.RequireString("exercise_id")
	if err != nil {
		return mcp.NewToolResultError("exercise_id parameter is required"), nil
	}
	position, err := req.RequireInt("position")
	if err != nil {
		return mcp.NewToolResultError("position parameter is required"), nil
	}

	state, err := h.source.LogSet(ctx, exerciseID, position,
		req.GetString("weight", ""), req.GetString("reps", ""))
	if err != nil {
		h.log.Error("mcp log_set", "error", err)
		return mcp.NewToolResultError("log failed: " + err.Error()), nil
	}
	return stateResult(state)
}

func (h *handlers) updateSlot(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	exerciseID, err := req.RequireString("exercise_id")
	if err != nil {
		return mcp.NewToolResultError("exercise_id parameter is required"), nil
	}
	position, err := req.RequireInt("position")
	if err != nil {
		return mcp.NewToolResultError("position parameter is required"), nil
	}

	state, err := h.source.UpdateSlot(ctx, exerciseID, position,
		req.GetString("weight", ""), req.GetString("reps", ""))
	if err != nil {
		h.log.Error("mcp update_slot", "error", err)
		return mcp.NewToolResultError("update failed: " + err.Error()), nil
	}
	return stateResult(state)
}

func (h *handlers) startRest(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	state, err := h.source.StartRest(ctx, req.GetInt("seconds", 0), req.GetString("exercise_id", ""))
	if err != nil {
		h.log.Error("mcp start_rest", "error", err)
		return mcp.NewToolResultError("start rest failed: " + err.Error()), nil
	}
	return stateResult(state)
}

func (h *handlers) stopRest(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	state, err := h.source.StopRest(ctx)
	if err != nil {
		h.log.Error("mcp stop_rest", "error", err)
		return mcp.NewToolResultError("stop rest failed: " + err.Error()), nil
	}
	return stateResult(state)
}

func (h *handlers) adjustRest(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	delta, err := req.RequireInt("delta")
	if err != nil {
		return mcp.NewToolResultError("delta parameter is required"), nil
	}

	state, err := h.source.AdjustRest(ctx, delta)
	if err != nil {
		h.log.Error("mcp adjust_rest", "error", err)
		return mcp.NewToolResultError("adjust rest failed: " + err.Error()), nil
	}
	return stateResult(state)
}

func (h *handlers) listExercises(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	page := req.GetInt("page", 1)
	result, err := h.source.Exercises(ctx, req.GetString("query", ""), page)
	if err != nil {
		h.log.Error("mcp list_exercises", "error", err)
		return mcp.NewToolResultError("catalog query failed: " + err.Error()), nil
	}
	return mcp.NewToolResultJSON(result)
}

// --- Resource handlers ---

func (h *handlers) liveSessionResource(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	state, err := h.source.Snapshot(ctx)
	if err != nil {
		return nil, err
	}
	data, err := json.Marshal(state)
	if err != nil {
		return nil, err
	}
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      req.Params.URI,
			MIMEType: "application/json",
			Text:     string(data),
		},
	}, nil
}

func stateResult(state any) (*mcp.CallToolResult, error) {
	result, err := mcp.NewToolResultJSON(state)
	if err != nil {
		return mcp.NewToolResultError("encoding state failed: " + err.Error()), nil
	}
	return result, nil
}

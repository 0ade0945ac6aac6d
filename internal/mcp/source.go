package mcp

import (
	"context"

	"github.com/claude/liveset/internal/coachapi"
	"github.com/claude/liveset/internal/engine"
	"github.com/claude/liveset/internal/models"
)

// SessionSource abstracts the live session engine for MCP tools. LocalSource
// (in-process engine) and HTTPClient (remote via the REST API) both satisfy
// it, so the MCP binary can run next to the server or on another machine.
type SessionSource interface {
	Snapshot(ctx context.Context) (engine.State, error)
	Refresh(ctx context.Context) (engine.State, error)
	StartWorkout(ctx context.Context, opts coachapi.StartWorkoutOptions) (engine.State, error)
	FinishWorkout(ctx context.Context, notes string) (engine.State, error)
	LogSet(ctx context.Context, exerciseID string, position int, weight, reps string) (engine.State, error)
	UpdateSlot(ctx context.Context, exerciseID string, position int, weight, reps string) (engine.State, error)
	StartRest(ctx context.Context, seconds int, exerciseID string) (engine.State, error)
	StopRest(ctx context.Context) (engine.State, error)
	AdjustRest(ctx context.Context, delta int) (engine.State, error)
	Exercises(ctx context.Context, query string, page int) (*models.ExercisePage, error)
}

// LocalSource adapts an in-process engine to the SessionSource interface.
type LocalSource struct {
	Engine *engine.Engine
}

var _ SessionSource = (*LocalSource)(nil)

func (l *LocalSource) Snapshot(context.Context) (engine.State, error) {
	return l.Engine.State(), nil
}

func (l *LocalSource) Refresh(ctx context.Context) (engine.State, error) {
	if err := l.Engine.Load(ctx); err != nil {
		return engine.State{}, err
	}
	return l.Engine.State(), nil
}

func (l *LocalSource) StartWorkout(ctx context.Context, opts coachapi.StartWorkoutOptions) (engine.State, error) {
	if err := l.Engine.StartWorkout(ctx, opts); err != nil {
		return engine.State{}, err
	}
	return l.Engine.State(), nil
}

func (l *LocalSource) FinishWorkout(ctx context.Context, notes string) (engine.State, error) {
	if err := l.Engine.FinishWorkout(ctx, notes); err != nil {
		return engine.State{}, err
	}
	return l.Engine.State(), nil
}

func (l *LocalSource) LogSet(ctx context.Context, exerciseID string, position int, weight, reps string) (engine.State, error) {
	// A failed write still returns the state: the optimistic mark and
	// last_error are the caller's signal, same as the REST surface.
	_ = l.Engine.LogSet(ctx, exerciseID, position, weight, reps)
	return l.Engine.State(), nil
}

func (l *LocalSource) UpdateSlot(_ context.Context, exerciseID string, position int, weight, reps string) (engine.State, error) {
	l.Engine.UpdateSlotText(exerciseID, position, weight, reps)
	return l.Engine.State(), nil
}

func (l *LocalSource) StartRest(_ context.Context, seconds int, exerciseID string) (engine.State, error) {
	l.Engine.StartRest(seconds, exerciseID)
	return l.Engine.State(), nil
}

func (l *LocalSource) StopRest(context.Context) (engine.State, error) {
	l.Engine.StopRest()
	return l.Engine.State(), nil
}

func (l *LocalSource) AdjustRest(_ context.Context, delta int) (engine.State, error) {
	l.Engine.AdjustRest(delta)
	return l.Engine.State(), nil
}

func (l *LocalSource) Exercises(ctx context.Context, query string, page int) (*models.ExercisePage, error) {
	return l.Engine.Exercises(ctx, query, page)
}

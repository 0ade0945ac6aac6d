// Package engine owns the live workout session state. It is the single
// writer for the Session tree: every mutation clones the tree, applies the
// change, and republishes it whole, so readers always observe a complete
// session and never a half-applied update.
//
// Set logging is optimistic. The slot is marked completed synchronously,
// before the remote write, and a successful write is followed by a silent
// full resync through the reconciler — the server response is the source of
// truth for log ids and anything the optimistic patch could not know.
// A failed write leaves the optimistic mark in place and surfaces the error
// as state; the user retries by toggling the slot again.
package engine

import (
	"context"
	"log/slog"
	"strconv"
	"sync"
	"time"

	"github.com/claude/liveset/internal/coachapi"
	"github.com/claude/liveset/internal/models"
	"github.com/claude/liveset/internal/reconcile"
	"github.com/claude/liveset/internal/timer"
)

// API is the slice of the coaching backend the engine needs.
// *coachapi.Client satisfies it; tests substitute fakes.
type API interface {
	GetActiveSession(ctx context.Context) (*models.SessionPayload, error)
	StartWorkout(ctx context.Context, opts coachapi.StartWorkoutOptions) (*models.SessionPayload, error)
	LogSet(ctx context.Context, sessionID, exerciseID string, reps int, weight *float64, order int) error
	FinishSession(ctx context.Context, sessionID, notes string) error
	GetExercises(ctx context.Context, query string, page int) (*models.ExercisePage, error)
}

var _ API = (*coachapi.Client)(nil)

// SnapshotStore persists the last reconciled session across restarts.
// *statecache.DB satisfies it.
type SnapshotStore interface {
	Save(s *models.Session) error
	Clear() error
}

// State is the combined read-only snapshot exposed to the presentation
// layer. Session is nil when no workout is active. LastError holds the most
// recent non-fatal remote failure, empty when the last operation succeeded.
type State struct {
	Session   *models.Session `json:"session"`
	Timer     timer.Snapshot  `json:"timer"`
	LastError string          `json:"last_error,omitempty"`
}

// Engine coordinates the session tree, the timer coordinator, and the
// remote API. Safe for concurrent use.
type Engine struct {
	api   API
	timer *timer.Coordinator
	store SnapshotStore
	log   *slog.Logger
	now   func() time.Time

	mu      sync.Mutex
	session *models.Session
	lastErr string
}

// New creates an Engine. store may be nil when snapshot caching is disabled.
func New(api API, tc *timer.Coordinator, store SnapshotStore, log *slog.Logger) *Engine {
	return &Engine{
		api:   api,
		timer: tc,
		store: store,
		log:   log,
		now:   time.Now,
	}
}

// State returns the current combined snapshot. The returned session tree is
// never mutated after publication; callers may read it freely.
func (e *Engine) State() State {
	e.mu.Lock()
	session := e.session
	lastErr := e.lastErr
	e.mu.Unlock()

	return State{
		Session:   session,
		Timer:     e.timer.Snapshot(),
		LastError: lastErr,
	}
}

// Load fetches the active session, if any, and installs it. No active
// session is a normal empty state, not an error.
func (e *Engine) Load(ctx context.Context) error {
	payload, err := e.api.GetActiveSession(ctx)
	if err != nil {
		e.setError(err)
		return err
	}
	e.install(payload, nil)
	return nil
}

// Restore publishes a previously cached session tree without contacting the
// backend. Used at startup when the first fetch fails, so the last known
// state paints instead of nothing; the next successful resync replaces it.
func (e *Engine) Restore(s *models.Session) {
	if s == nil {
		return
	}
	e.mu.Lock()
	e.session = s
	e.mu.Unlock()
	e.timer.StartSession(s.StartedAt)
}

// StartWorkout creates a new session on the backend and installs it.
func (e *Engine) StartWorkout(ctx context.Context, opts coachapi.StartWorkoutOptions) error {
	payload, err := e.api.StartWorkout(ctx, opts)
	if err != nil {
		e.setError(err)
		return err
	}
	e.install(payload, nil)
	return nil
}

// LogSet runs the optimistic logging sequence for the slot at
// (exerciseID, position). Unparseable weight or reps input is a silent
// no-op: no remote call, no state change.
func (e *Engine) LogSet(ctx context.Context, exerciseID string, position int, weightText, repsText string) error {
	reps, err := strconv.Atoi(repsText)
	if err != nil {
		e.log.Debug("ignoring log with unparseable reps", "reps", repsText)
		return nil
	}
	weightVal, err := strconv.ParseFloat(weightText, 64)
	if err != nil {
		e.log.Debug("ignoring log with unparseable weight", "weight", weightText)
		return nil
	}

	// Optimistic mark, synchronous: the UI must show the set as completed
	// before the network round-trip, with no flicker back.
	e.mu.Lock()
	if e.session == nil {
		e.mu.Unlock()
		return nil
	}
	sessionID := e.session.ID
	next := e.session.Clone()
	if slot := next.FindSlot(exerciseID, position); slot != nil {
		slot.Completed = true
		slot.Weight = weightText
		slot.Reps = repsText
	}
	e.session = next
	e.mu.Unlock()

	if err := e.api.LogSet(ctx, sessionID, exerciseID, reps, &weightVal, position); err != nil {
		// The optimistic mark stays; re-toggling the slot issues a fresh write.
		e.setError(err)
		return err
	}

	return e.resync(ctx)
}

// UpdateSlotText records in-progress weight/reps edits for a slot. Purely
// local; nothing is persisted until the slot is checked off.
func (e *Engine) UpdateSlotText(exerciseID string, position int, weightText, repsText string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.session == nil {
		return
	}
	next := e.session.Clone()
	if slot := next.FindSlot(exerciseID, position); slot != nil {
		slot.Weight = weightText
		slot.Reps = repsText
	}
	e.session = next
}

// FinishWorkout closes the session on the backend. On success the timer
// stops and the session clears; on failure the session stays active and the
// error surfaces for retry.
func (e *Engine) FinishWorkout(ctx context.Context, notes string) error {
	e.mu.Lock()
	if e.session == nil {
		e.mu.Unlock()
		return nil
	}
	sessionID := e.session.ID
	e.mu.Unlock()

	if err := e.api.FinishSession(ctx, sessionID, notes); err != nil {
		e.setError(err)
		return err
	}

	e.install(nil, nil)
	return nil
}

// StartRest begins a rest countdown. When seconds is not positive, the
// exercise's planned rest time is used instead, if it has one.
func (e *Engine) StartRest(seconds int, exerciseID string) {
	if seconds <= 0 {
		seconds = e.plannedRest(exerciseID)
	}
	e.timer.StartRest(seconds, exerciseID)
}

// StopRest cancels the rest countdown early.
func (e *Engine) StopRest() { e.timer.StopRest() }

// AdjustRest shifts the running rest countdown by delta seconds.
func (e *Engine) AdjustRest(delta int) { e.timer.AdjustRest(delta) }

// Exercises proxies the catalog for ad-hoc exercise selection.
func (e *Engine) Exercises(ctx context.Context, query string, page int) (*models.ExercisePage, error) {
	return e.api.GetExercises(ctx, query, page)
}

// ClearError dismisses the surfaced error.
func (e *Engine) ClearError() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.lastErr = ""
}

// PresenceState feeds the presence bridge: the timer snapshot, the session
// title, and whether a session is active.
func (e *Engine) PresenceState() (timer.Snapshot, string, bool) {
	e.mu.Lock()
	session := e.session
	e.mu.Unlock()

	title := ""
	if session != nil {
		title = session.Title
	}
	return e.timer.Snapshot(), title, session != nil
}

// resync re-fetches the active session and replaces the local tree with the
// freshly reconciled one. Unsaved text edits on slots that are still ghosts
// carry over; a slot the server now backs with a log keeps the server values.
func (e *Engine) resync(ctx context.Context) error {
	payload, err := e.api.GetActiveSession(ctx)
	if err != nil {
		e.setError(err)
		return err
	}

	e.mu.Lock()
	prior := e.session
	e.mu.Unlock()
	e.install(payload, prior)
	return nil
}

// install reconciles the payload (nil means no active session) and publishes
// the result, driving the timer and the snapshot cache along. prior, when
// set, donates ghost-slot text edits to the fresh tree.
func (e *Engine) install(payload *models.SessionPayload, prior *models.Session) {
	if payload == nil {
		e.mu.Lock()
		e.session = nil
		e.lastErr = ""
		e.mu.Unlock()

		e.timer.StopSession()
		if e.store != nil {
			if err := e.store.Clear(); err != nil {
				e.log.Warn("snapshot cache clear failed", "error", err)
			}
		}
		return
	}

	startedAt := reconcile.ParseStartTime(payload.StartedAt, e.now())
	fresh := reconcile.Reconcile(payload.Template, payload.Logs, payload.ID, startedAt)
	carryGhostText(fresh, prior)

	e.mu.Lock()
	e.session = fresh
	e.lastErr = ""
	e.mu.Unlock()

	e.timer.StartSession(startedAt)
	if e.store != nil {
		if err := e.store.Save(fresh); err != nil {
			e.log.Warn("snapshot cache save failed", "error", err)
		}
	}
}

// carryGhostText copies unsaved weight/reps edits from the prior tree onto
// slots the fresh reconciliation still considers ghosts.
func carryGhostText(fresh, prior *models.Session) {
	if fresh == nil || prior == nil || fresh.ID != prior.ID {
		return
	}
	for i := range fresh.Exercises {
		ex := &fresh.Exercises[i]
		for j := range ex.Slots {
			slot := &ex.Slots[j]
			if slot.Real() {
				continue
			}
			old := prior.FindSlot(ex.ExerciseID, slot.Position)
			if old != nil && !old.Real() && (old.Weight != "" || old.Reps != "") {
				slot.Weight = old.Weight
				slot.Reps = old.Reps
			}
		}
	}
}

// plannedRest looks up the exercise's target rest seconds in the current
// session, falling back to a minute.
func (e *Engine) plannedRest(exerciseID string) int {
	const defaultRest = 60

	e.mu.Lock()
	session := e.session
	e.mu.Unlock()
	if session == nil {
		return defaultRest
	}
	for _, ex := range session.Exercises {
		if ex.ExerciseID == exerciseID && ex.RestSeconds != nil && *ex.RestSeconds > 0 {
			return *ex.RestSeconds
		}
	}
	return defaultRest
}

func (e *Engine) setError(err error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.lastErr = err.Error()
}

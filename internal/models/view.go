package models

import "time"

// Slot is one row the user sees for one ordinal position within an exercise's
// set list. A slot backed by a persisted log carries its LogID ("real");
// a plan-only placeholder has an empty LogID ("ghost"). Weight and Reps are
// user-editable text and may differ from what is persisted.
type Slot struct {
	LogID         string `json:"log_id,omitempty"`
	Position      int    `json:"position"`
	DisplayNumber int    `json:"display_number"`
	Weight        string `json:"weight"`
	Reps          string `json:"reps"`
	Completed     bool   `json:"completed"`
}

// Real reports whether the slot is backed by a persisted exercise log.
func (s Slot) Real() bool { return s.LogID != "" }

// ExerciseView is one exercise's reconciled slot list plus display metadata.
// TargetReps and RestSeconds are nil for ad-hoc exercises (logged sets with
// no corresponding template step).
type ExerciseView struct {
	ExerciseID  string  `json:"exercise_id"`
	Name        string  `json:"name"`
	TargetReps  *string `json:"target_reps,omitempty"`
	RestSeconds *int    `json:"rest_seconds,omitempty"`
	Slots       []Slot  `json:"slots"`
}

// Session is the fully-reconciled view of an active workout session. It is
// re-derived from scratch on every resync; readers only ever see a complete
// tree, never a partially-updated one.
type Session struct {
	ID        string         `json:"id"`
	Title     string         `json:"title"`
	StartedAt time.Time      `json:"started_at"`
	Exercises []ExerciseView `json:"exercises"`
}

// Clone returns a deep copy of the session tree. Mutating code clones first
// and publishes the copy, so a snapshot handed to a reader never changes
// underneath it.
func (s *Session) Clone() *Session {
	if s == nil {
		return nil
	}
	out := &Session{
		ID:        s.ID,
		Title:     s.Title,
		StartedAt: s.StartedAt,
		Exercises: make([]ExerciseView, len(s.Exercises)),
	}
	for i, ex := range s.Exercises {
		cp := ex
		if ex.TargetReps != nil {
			v := *ex.TargetReps
			cp.TargetReps = &v
		}
		if ex.RestSeconds != nil {
			v := *ex.RestSeconds
			cp.RestSeconds = &v
		}
		cp.Slots = make([]Slot, len(ex.Slots))
		copy(cp.Slots, ex.Slots)
		out.Exercises[i] = cp
	}
	return out
}

// FindSlot returns a pointer to the slot at (exerciseID, position), or nil if
// no such slot exists. The pointer aliases the session tree, so callers must
// hold exclusive ownership while writing through it.
func (s *Session) FindSlot(exerciseID string, position int) *Slot {
	if s == nil {
		return nil
	}
	for i := range s.Exercises {
		if s.Exercises[i].ExerciseID != exerciseID {
			continue
		}
		for j := range s.Exercises[i].Slots {
			if s.Exercises[i].Slots[j].Position == position {
				return &s.Exercises[i].Slots[j]
			}
		}
	}
	return nil
}

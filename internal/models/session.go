package models

// SessionPayload is the active-session document returned by the coaching API.
// StartedAt is left as the raw string the API sent: some backends return a
// UTC-suffixed timestamp, others a bare local one, and a malformed value must
// not fail the whole session load.
type SessionPayload struct {
	ID        string           `json:"id"`
	StartedAt string           `json:"started_at"`
	Template  *TemplatePayload `json:"template,omitempty"`
	Logs      []ExerciseLog    `json:"logs"`
}

// TemplatePayload is the trainer-authored plan attached to a session.
type TemplatePayload struct {
	Name  string         `json:"name"`
	Steps []TemplateStep `json:"steps"`
}

// TemplateStep is one planned exercise within a template. Immutable once
// fetched; owned by the remote plan.
type TemplateStep struct {
	ExerciseID   string `json:"exercise_id"`
	ExerciseName string `json:"exercise_name"`
	Order        int    `json:"order"`
	TargetSets   int    `json:"target_sets"`
	TargetReps   string `json:"target_reps"`
	RestSeconds  int    `json:"rest_seconds"`
}

// ExerciseLog is one persisted, completed set. Created by a successful write;
// never mutated locally except via full resync.
type ExerciseLog struct {
	ID           string   `json:"id"`
	ExerciseID   string   `json:"exercise_id"`
	ExerciseName string   `json:"exercise_name"`
	Reps         int      `json:"reps"`
	Weight       *float64 `json:"weight,omitempty"`
	Order        int      `json:"order"`
	Completed    bool     `json:"completed"`
}

// Exercise is one catalog entry, used for ad-hoc exercise selection.
type Exercise struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Category  string `json:"category,omitempty"`
	Equipment string `json:"equipment,omitempty"`
}

// ExercisePage is one page of the exercise catalog.
type ExercisePage struct {
	Exercises []Exercise `json:"exercises"`
	Page      int        `json:"page"`
	HasMore   bool       `json:"has_more"`
}

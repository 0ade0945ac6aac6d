// Package reconcile merges a trainer-authored workout template with the set
// logs already persisted for a session into a single ordered view model.
// The merge is deterministic and side-effect free: the engine re-runs it from
// scratch after every successful write.
package reconcile

import (
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/claude/liveset/internal/models"
)

// FallbackTitle is used when a session has no template attached.
const FallbackTitle = "Freestyle Workout"

// Reconcile builds a Session view from the template steps (nil when the
// session has no plan) and the persisted logs. For every planned exercise the
// slot list covers max(target sets, logged sets, 1) positions; positions with
// a matching log become real slots, the rest stay ghosts. Exercises that only
// appear in the logs are appended after all planned ones, in the order they
// were first encountered.
func Reconcile(template *models.TemplatePayload, logs []models.ExerciseLog, sessionID string, startedAt time.Time) *models.Session {
	grouped, order := groupLogs(logs)

	session := &models.Session{
		ID:        sessionID,
		Title:     FallbackTitle,
		StartedAt: startedAt,
	}

	processed := make(map[string]bool)

	if template != nil {
		session.Title = template.Name
		steps := make([]models.TemplateStep, len(template.Steps))
		copy(steps, template.Steps)
		sort.SliceStable(steps, func(i, j int) bool { return steps[i].Order < steps[j].Order })

		for _, step := range steps {
			session.Exercises = append(session.Exercises, plannedView(step, grouped[step.ExerciseID]))
			processed[step.ExerciseID] = true
		}
	}

	for _, exerciseID := range order {
		if processed[exerciseID] {
			continue
		}
		session.Exercises = append(session.Exercises, adHocView(exerciseID, grouped[exerciseID]))
	}

	return session
}

// groupLogs groups logs by exercise id, each group sorted by the log's own
// order field (authoritative, arrival order is not). The returned slice
// preserves the order in which exercise ids were first encountered.
func groupLogs(logs []models.ExerciseLog) (map[string][]models.ExerciseLog, []string) {
	grouped := make(map[string][]models.ExerciseLog)
	var order []string
	for _, l := range logs {
		if _, seen := grouped[l.ExerciseID]; !seen {
			order = append(order, l.ExerciseID)
		}
		grouped[l.ExerciseID] = append(grouped[l.ExerciseID], l)
	}
	for id := range grouped {
		g := grouped[id]
		sort.SliceStable(g, func(i, j int) bool { return g[i].Order < g[j].Order })
	}
	return grouped, order
}

// plannedView builds the slot list for a template step. A log whose order
// falls outside 0..slotCount-1 cannot be displayed and is dropped; slotCount
// already covers the log count, so that only happens when the server assigns
// non-contiguous order values.
func plannedView(step models.TemplateStep, logs []models.ExerciseLog) models.ExerciseView {
	slotCount := step.TargetSets
	if len(logs) > slotCount {
		slotCount = len(logs)
	}
	if slotCount < 1 {
		slotCount = 1
	}

	byOrder := make(map[int]models.ExerciseLog, len(logs))
	for _, l := range logs {
		byOrder[l.Order] = l
	}

	slots := make([]models.Slot, 0, slotCount)
	for position := 0; position < slotCount; position++ {
		if l, ok := byOrder[position]; ok {
			slots = append(slots, realSlot(l, position))
		} else {
			slots = append(slots, ghostSlot(position))
		}
	}

	targetReps := step.TargetReps
	restSeconds := step.RestSeconds
	return models.ExerciseView{
		ExerciseID:  step.ExerciseID,
		Name:        step.ExerciseName,
		TargetReps:  &targetReps,
		RestSeconds: &restSeconds,
		Slots:       slots,
	}
}

// adHocView builds a view for an exercise that has logs but no template step.
// Slots come only from the logs, renumbered sequentially; there are no target
// values to show.
func adHocView(exerciseID string, logs []models.ExerciseLog) models.ExerciseView {
	name := exerciseID
	if len(logs) > 0 {
		name = logs[0].ExerciseName
	}

	slots := make([]models.Slot, 0, len(logs))
	for i, l := range logs {
		slots = append(slots, realSlot(l, i))
	}

	return models.ExerciseView{
		ExerciseID: exerciseID,
		Name:       name,
		Slots:      slots,
	}
}

func realSlot(l models.ExerciseLog, position int) models.Slot {
	return models.Slot{
		LogID:         l.ID,
		Position:      position,
		DisplayNumber: position + 1,
		Weight:        FormatWeight(l.Weight),
		Reps:          strconv.Itoa(l.Reps),
		Completed:     true,
	}
}

func ghostSlot(position int) models.Slot {
	return models.Slot{
		Position:      position,
		DisplayNumber: position + 1,
		Completed:     false,
	}
}

// FormatWeight renders a nullable weight as editable text. Whole numbers keep
// one decimal place ("100.0") so the display matches what lifters type back.
func FormatWeight(w *float64) string {
	if w == nil {
		return ""
	}
	s := strconv.FormatFloat(*w, 'f', -1, 64)
	if !strings.Contains(s, ".") {
		s += ".0"
	}
	return s
}

// ParseStartTime parses a session start timestamp. The coaching API is not
// consistent about timezone suffixes, so both RFC 3339 and a bare local
// timestamp are accepted. A value that parses as neither yields now: a
// malformed timestamp must never fail the whole session load.
func ParseStartTime(s string, now time.Time) time.Time {
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t
	}
	if t, err := time.ParseInLocation("2006-01-02T15:04:05", s, time.Local); err == nil {
		return t
	}
	return now
}

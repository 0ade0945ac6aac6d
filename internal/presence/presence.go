// Package presence mirrors the live session onto a host-level long-running
// surface (a persistent notification, a menu bar item, a status endpoint)
// so the workout keeps being tracked while no UI is foregrounded. The bridge
// holds no business logic: it formats whatever the engine and timer report
// and pushes it through a narrow sink.
package presence

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/claude/liveset/internal/timer"
)

// Sink is the host-specific presence surface. Implementations must tolerate
// repeated pushes of the same description and a Clear with nothing shown.
type Sink interface {
	// PushDescription updates the ongoing presence text.
	PushDescription(desc string)
	// PushRestFinished raises the one-shot high-priority rest alert.
	PushRestFinished()
	// Clear releases the ongoing presence entirely.
	Clear()
}

// Source is what the bridge observes. *engine.Engine satisfies it.
type Source interface {
	PresenceState() (snap timer.Snapshot, title string, active bool)
}

// Bridge drives a Sink from a Source once per second.
type Bridge struct {
	source   Source
	finished <-chan string
	sink     Sink
	log      *slog.Logger
	interval time.Duration
}

// New creates a Bridge. finished is the timer coordinator's rest-finished
// channel; the coordinator already de-duplicates it to one signal per cycle.
func New(source Source, finished <-chan string, sink Sink, log *slog.Logger) *Bridge {
	return &Bridge{
		source:   source,
		finished: finished,
		sink:     sink,
		log:      log,
		interval: time.Second,
	}
}

// Run pumps the sink until ctx is cancelled, then clears the presence.
func (b *Bridge) Run(ctx context.Context) {
	ticker := time.NewTicker(b.interval)
	defer ticker.Stop()
	defer b.sink.Clear()

	shown := false
	for {
		select {
		case <-ctx.Done():
			return
		case exercise := <-b.finished:
			b.log.Info("rest finished", "exercise", exercise)
			b.sink.PushRestFinished()
		case <-ticker.C:
			snap, title, active := b.source.PresenceState()
			if !active {
				if shown {
					b.sink.Clear()
					shown = false
				}
				continue
			}
			b.sink.PushDescription(Describe(snap, title))
			shown = true
		}
	}
}

// Describe renders the presence line: the rest countdown while resting,
// otherwise the session title with its elapsed time.
func Describe(snap timer.Snapshot, title string) string {
	if snap.Resting {
		return fmt.Sprintf("Resting… %s", FormatClock(snap.RestRemainingSeconds))
	}
	return fmt.Sprintf("%s · %s", title, FormatClock(snap.ElapsedSeconds))
}

// FormatClock renders seconds as H:MM:SS past the hour mark, MM:SS below it.
func FormatClock(seconds int) string {
	if seconds < 0 {
		seconds = 0
	}
	h := seconds / 3600
	m := (seconds % 3600) / 60
	s := seconds % 60
	if h > 0 {
		return fmt.Sprintf("%d:%02d:%02d", h, m, s)
	}
	return fmt.Sprintf("%02d:%02d", m, s)
}

// LogSink writes presence updates to the log. The default sink on hosts with
// no notification surface.
type LogSink struct {
	Log *slog.Logger
}

func (s *LogSink) PushDescription(desc string) { s.Log.Info("presence", "status", desc) }
func (s *LogSink) PushRestFinished()           { s.Log.Info("presence", "alert", "rest finished") }
func (s *LogSink) Clear()                      { s.Log.Info("presence cleared") }

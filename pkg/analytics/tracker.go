// Package analytics defines the event boundary for game telemetry. The core
// only emits typed events; transport to an actual analytics backend lives
// outside this module.
package analytics

import (
	"log"
	"time"

	"github.com/google/uuid"

	"github.com/promptlock/gauntlet/pkg/syncutil"
)

// Event names emitted by the engine and the session monitor.
const (
	EventGameStarted    = "game_started"
	EventPromptAttempt  = "prompt_attempt"
	EventAttackDetected = "attack_detected"
	EventLevelCompleted = "level_completed"
	EventGameWon        = "game_won"
	EventSessionWarning = "session_warning_sent"
	EventSessionExpired = "session_expired"
	EventSessionResumed = "session_resumed"
)

// Event is one analytics record.
type Event struct {
	ID        string         `json:"id"`
	Name      string         `json:"name"`
	Handle    string         `json:"handle"`
	Level     int            `json:"level"`
	Timestamp time.Time      `json:"timestamp"`
	Props     map[string]any `json:"props,omitempty"`
}

// NewEvent stamps an event with a fresh ID and the current time.
func NewEvent(name, handle string, level int, props map[string]any) Event {
	return Event{
		ID:        uuid.NewString(),
		Name:      name,
		Handle:    handle,
		Level:     level,
		Timestamp: time.Now().UTC(),
		Props:     props,
	}
}

// Tracker receives events. Implementations must never block message
// processing and must never fail the game on a tracking error.
type Tracker interface {
	Track(ev Event)
}

// NopTracker drops every event.
type NopTracker struct{}

func (NopTracker) Track(Event) {}

// MaskHandle hides most of a handle for logs and leaderboards: first five
// characters, three stars, last two. Short handles collapse to stars.
func MaskHandle(handle string) string {
	if len(handle) < 8 {
		return "***"
	}
	return handle[:5] + "***" + handle[len(handle)-2:]
}

// LogTracker writes events to the process log with masked handles.
type LogTracker struct{}

func (LogTracker) Track(ev Event) {
	log.Printf("[ANALYTICS] %s handle=%s level=%d id=%s", ev.Name, MaskHandle(ev.Handle), ev.Level, ev.ID)
}

// AsyncTracker wraps another tracker with fire-and-forget delivery bounded
// by a semaphore. Events over capacity are dropped, not queued.
type AsyncTracker struct {
	next Tracker
	sem  *syncutil.Semaphore
}

// NewAsyncTracker wraps next with at most capacity in-flight deliveries.
func NewAsyncTracker(next Tracker, capacity int) *AsyncTracker {
	return &AsyncTracker{next: next, sem: syncutil.NewSemaphore(capacity)}
}

// Track implements Tracker.
func (t *AsyncTracker) Track(ev Event) {
	if !t.sem.TryAcquire() {
		return
	}
	go func() {
		defer t.sem.Release()
		t.next.Track(ev)
	}()
}

// Dropped reports how many events were discarded at capacity.
func (t *AsyncTracker) Dropped() int64 {
	return t.sem.DroppedCount()
}

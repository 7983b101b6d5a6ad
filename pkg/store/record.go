// Package store holds per-player game state in Redis with a sliding TTL and
// winner records in Postgres. The engine and the lifecycle monitor both go
// through the Store interface so they share the same atomicity rules.
package store

import "time"

// GameState is the win/lose axis of a record.
type GameState string

const (
	// GamePlaying means the player is still working through levels.
	GamePlaying GameState = "playing"
	// GameWon means every level has been completed. Terminal.
	GameWon GameState = "won"
)

// SessionState tracks idle-time bookkeeping, independent of game progress.
type SessionState string

const (
	// SessionActive is the normal state after any inbound message.
	SessionActive SessionState = "active"
	// SessionWarned means an inactivity warning was emitted for this session.
	SessionWarned SessionState = "warned"
	// SessionExpired means the session lapsed. The next inbound message
	// starts a fresh session.
	SessionExpired SessionState = "expired"
)

// Message is one entry in a record's conversation history.
type Message struct {
	Role      string    `json:"role"`
	Content   string    `json:"content"`
	Level     int       `json:"level"`
	Timestamp time.Time `json:"timestamp"`
}

// UserRecord is the full per-player state. One record per handle, stored as
// JSON under user:<handle> with a sliding TTL; when the TTL lapses the record
// disappears and the next message starts the game over.
type UserRecord struct {
	Handle       string       `json:"handle"`
	Level        int          `json:"level"`
	Game         GameState    `json:"game_state"`
	Attempts     int          `json:"attempts"`
	CreatedAt    time.Time    `json:"created_at"`
	LastActive   time.Time    `json:"last_active"`
	SessionStart time.Time    `json:"session_start"`
	Session      SessionState `json:"session_state"`
	WonAt        *time.Time   `json:"won_at,omitempty"`
	Messages     []Message    `json:"messages,omitempty"`
}

// NewUserRecord seeds a fresh record for a first-time handle.
func NewUserRecord(handle string, now time.Time) *UserRecord {
	return &UserRecord{
		Handle:       handle,
		Level:        1,
		Game:         GamePlaying,
		Attempts:     0,
		CreatedAt:    now,
		LastActive:   now,
		SessionStart: now,
		Session:      SessionActive,
	}
}

// Won reports whether the game has been completed.
func (r *UserRecord) Won() bool {
	return r.Game == GameWon
}

// AppendMessage adds one history entry, dropping the oldest entries beyond
// limit. A limit <= 0 means unbounded.
func (r *UserRecord) AppendMessage(msg Message, limit int) {
	r.Messages = append(r.Messages, msg)
	if limit > 0 && len(r.Messages) > limit {
		r.Messages = r.Messages[len(r.Messages)-limit:]
	}
}

// ResetSession starts a fresh session at now. Level, game state and attempts
// are untouched; only session bookkeeping resets.
func (r *UserRecord) ResetSession(now time.Time) {
	r.SessionStart = now
	r.Session = SessionActive
}

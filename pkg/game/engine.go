// Package game implements level progression: classify an inbound message
// against the current level's defenses, decide blocked/advance/won, and
// persist the resulting state in a single atomic record update.
package game

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/promptlock/gauntlet/pkg/analytics"
	"github.com/promptlock/gauntlet/pkg/levels"
	"github.com/promptlock/gauntlet/pkg/patterns"
	"github.com/promptlock/gauntlet/pkg/store"
	"github.com/promptlock/gauntlet/pkg/syncutil"
)

// ErrInvalidHandle rejects empty or whitespace-only user handles before any
// record load.
var ErrInvalidHandle = errors.New("game: invalid user handle")

// Step tags for observability, carried on every Outcome.
const (
	StepAlreadyWon     = "already_won"
	StepBlockedAttack  = "blocked_attack"
	StepAdvanced       = "advanced"
	StepGameWon        = "game_won"
	StepBlockedGeneric = "blocked_generic"
)

// Outcome is the result of processing one inbound message.
type Outcome struct {
	Handle            string
	Level             int  // post-mutation level
	WonLevel          bool // this call completed a level
	WonGame           bool // won flag post-mutation
	DetectedSignature string
	Response          string
	Buttons           []levels.Button
	Step              string
	Attempts          int
	NewUser           bool
	SessionResumed    bool
}

// EngineConfig wires the engine's collaborators.
type EngineConfig struct {
	Catalog  *levels.Catalog
	Patterns *patterns.Registry
	Store    store.Store
	Winners  store.WinnerStore
	Ranks    store.RankCounter
	Rand     Rand
	Tracker  analytics.Tracker

	// HistoryLimit bounds each record's message history. <= 0 keeps the
	// default of 50.
	HistoryLimit int

	// Clock is overridable for tests. Defaults to time.Now.
	Clock func() time.Time
}

// Engine drives level progression for all handles. Safe for concurrent use;
// calls for the same handle are serialized internally.
type Engine struct {
	cfg   EngineConfig
	locks *syncutil.KeyedMutex
}

// NewEngine validates the wiring and returns an engine.
func NewEngine(cfg EngineConfig) (*Engine, error) {
	if cfg.Catalog == nil || cfg.Store == nil {
		return nil, errors.New("game: catalog and store are required")
	}
	if cfg.Patterns == nil {
		cfg.Patterns = patterns.Get()
	}
	if cfg.Winners == nil {
		cfg.Winners = store.NewMemoryWinnerStore()
	}
	if cfg.Ranks == nil {
		cfg.Ranks = &store.MemoryRankCounter{}
	}
	if cfg.Rand == nil {
		cfg.Rand = NewCryptoRand()
	}
	if cfg.Tracker == nil {
		cfg.Tracker = analytics.NopTracker{}
	}
	if cfg.HistoryLimit <= 0 {
		cfg.HistoryLimit = 50
	}
	if cfg.Clock == nil {
		cfg.Clock = time.Now
	}
	return &Engine{cfg: cfg, locks: syncutil.NewKeyedMutex()}, nil
}

// Locks exposes the per-handle mutex so the session monitor can share it.
func (e *Engine) Locks() *syncutil.KeyedMutex {
	return e.locks
}

// ProcessMessage runs one inbound message through the current level. The
// record mutation is atomic per handle: on StorageUnavailable no partial
// state is visible to other readers.
func (e *Engine) ProcessMessage(ctx context.Context, handle, text string) (*Outcome, error) {
	if strings.TrimSpace(handle) == "" {
		return nil, fmt.Errorf("%w: empty handle", ErrInvalidHandle)
	}

	unlock := e.locks.Lock(handle)
	defer unlock()

	now := e.cfg.Clock()
	out := &Outcome{Handle: handle}
	var wonNow bool
	var createdAt time.Time

	_, err := e.cfg.Store.Update(ctx, handle, func(rec *store.UserRecord) (*store.UserRecord, error) {
		// The update callback can rerun on a write conflict; start each
		// run from a clean outcome.
		*out = Outcome{Handle: handle}
		wonNow = false

		if rec == nil {
			rec = store.NewUserRecord(handle, now)
			out.NewUser = true
		}

		// Victory is terminal: no attempts, no history, same answer forever.
		if rec.Won() {
			out.Level = rec.Level
			out.WonGame = true
			out.Attempts = rec.Attempts
			out.Response = levels.AlreadyWonMessage()
			out.Step = StepAlreadyWon
			return nil, store.ErrSkipUpdate
		}

		if rec.Session == store.SessionExpired {
			rec.ResetSession(now)
			out.SessionResumed = true
		} else if rec.Session == store.SessionWarned {
			// Any activity cancels a pending warning.
			rec.Session = store.SessionActive
		}

		rec.Attempts++
		rec.AppendMessage(store.Message{Role: "user", Content: text, Level: rec.Level, Timestamp: now}, e.cfg.HistoryLimit)

		def, err := e.cfg.Catalog.DefinitionFor(rec.Level)
		if err != nil {
			return nil, fmt.Errorf("game: handle %q level %d: %w", handle, rec.Level, err)
		}

		detected := e.cfg.Patterns.ClassifyWithin(text, def.Detects)

		// The bypass draw happens before the variant pick so a stubbed
		// source's first value always decides advance/no-advance.
		draw := e.cfg.Rand.Float64()
		pick := int(e.cfg.Rand.Float64() * 1024)

		switch {
		case detected != nil:
			out.DetectedSignature = detected.Name
			out.Response = levels.DefenseResponse(detected.Name, pick)
			out.Step = StepBlockedAttack

		case draw < def.BypassProbability:
			completed := rec.Level
			out.WonLevel = true
			if e.cfg.Catalog.IsFinal(completed) {
				// Completing the final level wins the game; the level
				// freezes at N.
				rec.Game = store.GameWon
				wonAt := now
				rec.WonAt = &wonAt
				wonNow = true
				out.WonGame = true
				out.Response = e.cfg.Catalog.FinalWinMessage()
				out.Step = StepGameWon
			} else {
				rec.Level = completed + 1
				out.Response = levels.AdvanceResponse(completed, pick) + "\n\n" + e.cfg.Catalog.LevelMessage(rec.Level)
				out.Step = StepAdvanced
			}

		default:
			out.Response = levels.NeutralResponse(pick)
			out.Step = StepBlockedGeneric
		}

		rec.LastActive = now
		rec.AppendMessage(store.Message{Role: "assistant", Content: out.Response, Level: rec.Level, Timestamp: now}, e.cfg.HistoryLimit)

		out.Level = rec.Level
		out.Attempts = rec.Attempts
		createdAt = rec.CreatedAt
		return rec, nil
	})
	if err != nil {
		return nil, err
	}

	e.decorate(out)
	if wonNow {
		e.recordWinner(ctx, out, now.Sub(createdAt))
	}
	e.track(out)
	return out, nil
}

// decorate frames the response for the two fixed button moments: a brand-new
// player and a player returning after session expiry.
func (e *Engine) decorate(out *Outcome) {
	switch {
	case out.NewUser:
		out.Response = e.cfg.Catalog.WelcomeMessage() + "\n\n" + out.Response
		out.Buttons = levels.WelcomeButtons()
	case out.SessionResumed:
		out.Response = e.cfg.Catalog.SessionExpiredMessage(out.Level) + "\n\n" + out.Response
		out.Buttons = levels.SessionExpiredButtons()
	}
}

// recordWinner allocates the next rank and writes the winner record. The
// game state already committed, so failures here are logged and the winner
// row is left for reconciliation rather than failing the player's win.
func (e *Engine) recordWinner(ctx context.Context, out *Outcome, elapsed time.Duration) {
	rank, err := e.cfg.Ranks.Next(ctx)
	if err != nil {
		log.Printf("[GAME] rank allocation failed for %s: %v", analytics.MaskHandle(out.Handle), err)
		return
	}
	w := store.WinnerRecord{
		Handle:   out.Handle,
		Rank:     rank,
		Attempts: out.Attempts,
		Duration: elapsed,
		WonAt:    e.cfg.Clock(),
	}
	if err := e.cfg.Winners.CreateWinner(ctx, w); err != nil {
		log.Printf("[GAME] winner record failed for %s (rank %d): %v", analytics.MaskHandle(out.Handle), rank, err)
	}
}

func (e *Engine) track(out *Outcome) {
	if out.NewUser {
		e.cfg.Tracker.Track(analytics.NewEvent(analytics.EventGameStarted, out.Handle, out.Level, nil))
	}
	if out.SessionResumed {
		e.cfg.Tracker.Track(analytics.NewEvent(analytics.EventSessionResumed, out.Handle, out.Level, nil))
	}

	switch out.Step {
	case StepAlreadyWon:
		return
	case StepBlockedAttack:
		e.cfg.Tracker.Track(analytics.NewEvent(analytics.EventAttackDetected, out.Handle, out.Level, map[string]any{
			"signature": out.DetectedSignature,
		}))
	case StepAdvanced:
		e.cfg.Tracker.Track(analytics.NewEvent(analytics.EventLevelCompleted, out.Handle, out.Level-1, nil))
	case StepGameWon:
		e.cfg.Tracker.Track(analytics.NewEvent(analytics.EventGameWon, out.Handle, out.Level, map[string]any{
			"attempts": out.Attempts,
		}))
	}
	e.cfg.Tracker.Track(analytics.NewEvent(analytics.EventPromptAttempt, out.Handle, out.Level, map[string]any{
		"step": out.Step,
	}))
}

package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/hookline/fishinge/internal/fish"
)

// ErrUnavailable marks persistence failures. Callers must not retry on
// their own initiative: the transaction boundary guarantees nothing was
// committed, but a blind retry loop could double-credit a catch that
// did commit before the error surfaced.
var ErrUnavailable = errors.New("storage unavailable")

// CoolingError is returned by RecordCatch when the stored cooldown has
// not elapsed. It is a refusal, not a persistence failure: the ledger
// is the authoritative gate, so the check runs inside the same
// transaction that would record the catch.
type CoolingError struct {
	Remaining time.Duration
}

func (e *CoolingError) Error() string {
	return fmt.Sprintf("player is cooling down for another %s", e.Remaining)
}

// Rank is one leaderboard row.
type Rank struct {
	Player string
	Score  float64
}

// Stats summarizes the whole pond.
type Stats struct {
	Catches         int64
	Players         int64
	HeaviestSpecies string
	HeaviestWeight  float64
	HeaviestPlayer  string
}

// Store is the ledger the game facade records against.
type Store interface {
	// Species returns all configured species in name order.
	Species(ctx context.Context) ([]fish.Species, error)
	// SeedSpecies inserts species definitions, skipping names that
	// already exist.
	SeedSpecies(ctx context.Context, species []fish.Species) error
	// RecordCatch atomically creates the player if needed, re-checks
	// the cooldown against the stored timestamp, inserts the catch,
	// adds its value to the score and advances last_fished_at. It
	// returns the inserted catch and the updated score, or a
	// *CoolingError if the cooldown has not elapsed.
	RecordCatch(ctx context.Context, player string, out fish.Outcome, now time.Time, cooldown time.Duration) (fish.Catch, float64, error)
	// Leaderboard returns players ordered by score descending, ties
	// broken by name. Bot accounts are excluded unless includeBots.
	Leaderboard(ctx context.Context, limit int, includeBots bool) ([]Rank, error)
	// History returns a player's catches, most recent first.
	History(ctx context.Context, player string, limit int) ([]fish.Catch, error)
	// MarkBot flags (or unflags) an account as a bot, creating it if
	// necessary.
	MarkBot(ctx context.Context, player string, isBot bool) error
	Stats(ctx context.Context) (Stats, error)
	Close() error
}

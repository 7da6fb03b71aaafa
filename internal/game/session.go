package game

import (
	"context"
	"errors"
	"fmt"
	mrand "math/rand"
	"sync/atomic"
	"time"

	"github.com/hookline/fishinge/internal/cooldown"
	"github.com/hookline/fishinge/internal/fish"
	"github.com/hookline/fishinge/internal/store"
)

// Result is the outcome of one fishing attempt. Refused carries the
// remaining cooldown; otherwise Catch and NewScore describe what was
// recorded.
type Result struct {
	Refused   bool
	Remaining time.Duration
	Outcome   fish.Outcome
	Catch     fish.Catch
	NewScore  float64
}

// Session orchestrates one fishing attempt: cooldown check, catch
// resolution, then transactional recording. The in-memory gate is a
// fast path; the ledger re-checks the cooldown inside the recording
// transaction, so the sequence stays correct when several front-ends
// share one database.
type Session struct {
	store    store.Store
	gate     *cooldown.Gate
	resolver atomic.Pointer[fish.Resolver]
	catalog  atomic.Pointer[fish.Catalog]
}

// NewSession builds a session over the given catalog. Pass a seeded rng
// for deterministic outcomes; nil uses a crypto-seeded source.
func NewSession(st store.Store, catalog *fish.Catalog, cd time.Duration, clk cooldown.Clock, rng *mrand.Rand) (*Session, error) {
	s := &Session{
		store: st,
		gate:  cooldown.NewGate(cd, clk),
	}
	if err := s.swapCatalog(catalog, rng); err != nil {
		return nil, err
	}
	return s, nil
}

// ReloadCatalog replaces the catalog snapshot for subsequent attempts.
// In-flight resolutions keep the snapshot they started with.
func (s *Session) ReloadCatalog(catalog *fish.Catalog) error {
	// a fresh rng: the old resolver may still be resolving
	return s.swapCatalog(catalog, nil)
}

func (s *Session) swapCatalog(catalog *fish.Catalog, rng *mrand.Rand) error {
	res, err := fish.NewResolver(catalog, rng)
	if err != nil {
		return err
	}
	s.catalog.Store(catalog)
	s.resolver.Store(res)
	return nil
}

func (s *Session) Catalog() *fish.Catalog { return s.catalog.Load() }

func (s *Session) Cooldown() time.Duration { return s.gate.Duration() }

// AttemptFish runs one attempt for a player at the given time. A
// Refused result is a normal outcome, not an error. On persistence
// failure the cooldown does not advance, so the caller may attempt
// again.
func (s *Session) AttemptFish(ctx context.Context, player string, now time.Time) (Result, error) {
	if player == "" {
		return Result{}, errors.New("player identity is required")
	}

	if ok, rem := s.gate.CheckAt(player, now); !ok {
		return Result{Refused: true, Remaining: rem}, nil
	}

	resolver := s.resolver.Load()
	if resolver == nil {
		return Result{}, fish.ErrEmptyCatalog
	}
	out := resolver.Resolve()

	c, score, err := s.store.RecordCatch(ctx, player, out, now, s.gate.Duration())
	if err != nil {
		var cooling *store.CoolingError
		if errors.As(err, &cooling) {
			// lost a race against another front-end; mirror the
			// ledger's timestamp so the fast path agrees with it
			s.gate.Advance(player, now.Add(cooling.Remaining-s.gate.Duration()))
			return Result{Refused: true, Remaining: cooling.Remaining}, nil
		}
		return Result{}, fmt.Errorf("attempt fish: %w", err)
	}

	s.gate.Advance(player, now)

	return Result{Outcome: out, Catch: c, NewScore: score}, nil
}

func (s *Session) Leaderboard(ctx context.Context, limit int, includeBots bool) ([]store.Rank, error) {
	return s.store.Leaderboard(ctx, limit, includeBots)
}

func (s *Session) History(ctx context.Context, player string, limit int) ([]fish.Catch, error) {
	return s.store.History(ctx, player, limit)
}

func (s *Session) Stats(ctx context.Context) (store.Stats, error) {
	return s.store.Stats(ctx)
}

// SpeciesInfo is the listing row shown to players: what can be caught,
// how likely, and in which bounds.
type SpeciesInfo struct {
	Name      string
	Chance    float64
	Tier      string
	ValueMin  float64
	ValueMax  float64
	WeightMin float64
	WeightMax float64
	IsTrash   bool
}

// SpeciesList describes the current catalog snapshot.
func (s *Session) SpeciesList() []SpeciesInfo {
	catalog := s.catalog.Load()
	if catalog == nil {
		return nil
	}

	species := catalog.Snapshot()
	out := make([]SpeciesInfo, len(species))
	for i, sp := range species {
		out[i] = SpeciesInfo{
			Name:      sp.Name,
			Chance:    catalog.Chance(sp.Name),
			Tier:      catalog.Tier(sp.Name).String(),
			ValueMin:  sp.ValueMin,
			ValueMax:  sp.ValueMax,
			WeightMin: sp.WeightMin,
			WeightMax: sp.WeightMax,
			IsTrash:   sp.IsTrash,
		}
	}
	return out
}

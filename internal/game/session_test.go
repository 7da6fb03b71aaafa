package game

import (
	"context"
	"errors"
	mrand "math/rand"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/hookline/fishinge/internal/fish"
	"github.com/hookline/fishinge/internal/store"
)

var testSpecies = []fish.Species{
	{Name: "Trout", Abundance: 70, ValueMin: 1, ValueMax: 5, WeightMin: 0.5, WeightMax: 3.0},
	{Name: "Boot", Abundance: 30, IsTrash: true},
}

func newTestSession(t *testing.T, cd time.Duration) (*Session, *store.SQLiteStore) {
	t.Helper()

	st, err := store.OpenSQLite(filepath.Join(t.TempDir(), "fish.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { _ = st.Close() })

	if err := st.SeedSpecies(context.Background(), testSpecies); err != nil {
		t.Fatalf("seed: %v", err)
	}

	catalog, err := fish.NewCatalog(testSpecies)
	if err != nil {
		t.Fatalf("catalog: %v", err)
	}

	s, err := NewSession(st, catalog, cd, nil, mrand.New(mrand.NewSource(99)))
	if err != nil {
		t.Fatalf("session: %v", err)
	}
	return s, st
}

func TestAttemptFishHappyPath(t *testing.T) {
	s, st := newTestSession(t, time.Minute)
	ctx := context.Background()
	now := time.Date(2023, 6, 1, 12, 0, 0, 0, time.UTC)

	res, err := s.AttemptFish(ctx, "ana", now)
	if err != nil {
		t.Fatalf("attempt: %v", err)
	}
	if res.Refused {
		t.Fatalf("first attempt refused: %+v", res)
	}
	if res.Catch.Player != "ana" || res.Catch.ID == 0 {
		t.Fatalf("bad catch: %+v", res.Catch)
	}
	if res.NewScore != res.Outcome.Value {
		t.Fatalf("score %g != outcome value %g", res.NewScore, res.Outcome.Value)
	}

	// the outcome respects the species bounds
	sp := res.Outcome.Species
	if sp.IsTrash {
		if res.Outcome.HasWeight {
			t.Fatalf("trash with weight: %+v", res.Outcome)
		}
	} else {
		if res.Outcome.Weight < sp.WeightMin || res.Outcome.Weight > sp.WeightMax {
			t.Fatalf("weight %g out of bounds", res.Outcome.Weight)
		}
		if res.Outcome.Value < sp.ValueMin || res.Outcome.Value > sp.ValueMax {
			t.Fatalf("value %g out of bounds", res.Outcome.Value)
		}
	}

	hist, err := st.History(ctx, "ana", 10)
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	if len(hist) != 1 {
		t.Fatalf("expected one catch, got %d", len(hist))
	}
}

func TestAttemptFishCooldownWindow(t *testing.T) {
	s, st := newTestSession(t, time.Minute)
	ctx := context.Background()
	base := time.Date(2023, 6, 1, 12, 0, 0, 0, time.UTC)

	if res, err := s.AttemptFish(ctx, "ana", base); err != nil || res.Refused {
		t.Fatalf("t=0: res=%+v err=%v", res, err)
	}

	res, err := s.AttemptFish(ctx, "ana", base.Add(10*time.Second))
	if err != nil {
		t.Fatalf("t=10: %v", err)
	}
	if !res.Refused || res.Remaining != 50*time.Second {
		t.Fatalf("t=10: res=%+v, want refused with 50s remaining", res)
	}

	// refusal left no trace
	hist, err := st.History(ctx, "ana", 10)
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	if len(hist) != 1 {
		t.Fatalf("refused attempt recorded a catch")
	}

	if res, err := s.AttemptFish(ctx, "ana", base.Add(61*time.Second)); err != nil || res.Refused {
		t.Fatalf("t=61: res=%+v err=%v", res, err)
	}
}

func TestAttemptFishIndependentPlayers(t *testing.T) {
	s, _ := newTestSession(t, time.Hour)
	ctx := context.Background()
	now := time.Date(2023, 6, 1, 12, 0, 0, 0, time.UTC)

	if res, err := s.AttemptFish(ctx, "ana", now); err != nil || res.Refused {
		t.Fatalf("ana: res=%+v err=%v", res, err)
	}
	if res, err := s.AttemptFish(ctx, "bob", now); err != nil || res.Refused {
		t.Fatalf("bob blocked by ana's cooldown: res=%+v err=%v", res, err)
	}
}

func TestAttemptFishConcurrentSamePlayer(t *testing.T) {
	s, st := newTestSession(t, time.Minute)
	now := time.Date(2023, 6, 1, 12, 0, 0, 0, time.UTC)

	const n = 16
	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		caught  int
		refused int
	)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			res, err := s.AttemptFish(context.Background(), "ana", now)
			if err != nil {
				t.Errorf("attempt: %v", err)
				return
			}
			mu.Lock()
			defer mu.Unlock()
			if res.Refused {
				refused++
			} else {
				caught++
			}
		}()
	}
	wg.Wait()

	if caught != 1 || refused != n-1 {
		t.Fatalf("caught=%d refused=%d, want 1/%d", caught, refused, n-1)
	}

	hist, err := st.History(context.Background(), "ana", n)
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	if len(hist) != 1 {
		t.Fatalf("%d catches persisted, want 1", len(hist))
	}
}

// brokenStore fails every write so the facade's no-advance-on-failure
// contract can be observed.
type brokenStore struct{}

var errBroken = errors.New("disk on fire")

func (brokenStore) Species(context.Context) ([]fish.Species, error) { return nil, errBroken }
func (brokenStore) SeedSpecies(context.Context, []fish.Species) error {
	return errBroken
}
func (brokenStore) RecordCatch(context.Context, string, fish.Outcome, time.Time, time.Duration) (fish.Catch, float64, error) {
	return fish.Catch{}, 0, errBroken
}
func (brokenStore) Leaderboard(context.Context, int, bool) ([]store.Rank, error) {
	return nil, errBroken
}
func (brokenStore) History(context.Context, string, int) ([]fish.Catch, error) {
	return nil, errBroken
}
func (brokenStore) MarkBot(context.Context, string, bool) error { return errBroken }
func (brokenStore) Stats(context.Context) (store.Stats, error)  { return store.Stats{}, errBroken }
func (brokenStore) Close() error                                { return nil }

func TestAttemptFishStorageFailureDoesNotAdvanceCooldown(t *testing.T) {
	catalog, err := fish.NewCatalog(testSpecies)
	if err != nil {
		t.Fatalf("catalog: %v", err)
	}
	s, err := NewSession(brokenStore{}, catalog, time.Minute, nil, mrand.New(mrand.NewSource(1)))
	if err != nil {
		t.Fatalf("session: %v", err)
	}

	now := time.Date(2023, 6, 1, 12, 0, 0, 0, time.UTC)
	if _, err := s.AttemptFish(context.Background(), "ana", now); !errors.Is(err, errBroken) {
		t.Fatalf("err = %v, want errBroken", err)
	}

	// the failed attempt must not have started a cooldown: the next
	// attempt reaches the store again instead of being refused
	res, err := s.AttemptFish(context.Background(), "ana", now.Add(time.Second))
	if !errors.Is(err, errBroken) {
		t.Fatalf("second attempt: res=%+v err=%v, want to reach the store", res, err)
	}
}

func TestAttemptFishRequiresPlayer(t *testing.T) {
	s, _ := newTestSession(t, time.Minute)
	if _, err := s.AttemptFish(context.Background(), "", time.Now()); err == nil {
		t.Fatalf("expected error for empty player")
	}
}

func TestNewSessionEmptyCatalog(t *testing.T) {
	catalog, err := fish.NewCatalog(nil)
	if err != nil {
		t.Fatalf("catalog: %v", err)
	}
	if _, err := NewSession(brokenStore{}, catalog, time.Minute, nil, nil); !errors.Is(err, fish.ErrEmptyCatalog) {
		t.Fatalf("err = %v, want ErrEmptyCatalog", err)
	}
}

func TestReloadCatalogSwapsSnapshot(t *testing.T) {
	s, st := newTestSession(t, time.Nanosecond)
	ctx := context.Background()

	next := []fish.Species{
		{Name: "Eel", Abundance: 1, ValueMin: 2, ValueMax: 2, WeightMin: 1, WeightMax: 1},
	}
	if err := st.SeedSpecies(ctx, next); err != nil {
		t.Fatalf("seed: %v", err)
	}
	catalog, err := fish.NewCatalog(next)
	if err != nil {
		t.Fatalf("catalog: %v", err)
	}
	if err := s.ReloadCatalog(catalog); err != nil {
		t.Fatalf("reload: %v", err)
	}

	res, err := s.AttemptFish(ctx, "ana", time.Now())
	if err != nil {
		t.Fatalf("attempt: %v", err)
	}
	if res.Outcome.Species.Name != "Eel" {
		t.Fatalf("caught %q from old catalog", res.Outcome.Species.Name)
	}

	infos := s.SpeciesList()
	if len(infos) != 1 || infos[0].Name != "Eel" {
		t.Fatalf("species list = %+v", infos)
	}
}

package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/hookline/fishinge/internal/cooldown"
	"github.com/hookline/fishinge/internal/fish"
	_ "modernc.org/sqlite"
)

type SQLiteStore struct {
	db *sql.DB

	selPlayerStmt   *sql.Stmt
	insPlayerStmt   *sql.Stmt
	selSpeciesStmt  *sql.Stmt
	insCatchStmt    *sql.Stmt
	creditStmt      *sql.Stmt
	selScoreStmt    *sql.Stmt
	leaderboardStmt *sql.Stmt
	historyStmt     *sql.Stmt
}

func OpenSQLite(dbPath string) (*SQLiteStore, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create db path: %w", err)
	}

	// DSN notes:
	// - _pragma=busy_timeout sets a lock wait
	// - _pragma=journal_mode(WAL) enables the write-ahead log
	// - _pragma=synchronous(NORMAL) sets the disk synchronizing
	//	 mode to NORMAL (recommended with WAL enabled)
	// - _pragma=foreign_keys(1) enforces the catch references
	// - _txlock=immediate takes the write lock at BEGIN, so the
	//	 cooldown check and the catch insert happen under one lock
	//	 even when another process shares the database file
	dsn := fmt.Sprintf("file:%s?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)&_pragma=synchronous(NORMAL)&_pragma=foreign_keys(1)&_txlock=immediate", filepath.Clean(dbPath))

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, err
	}

	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxIdleTime(5 * time.Minute)

	if err := initSchema(db); err != nil {
		_ = db.Close()
		return nil, err
	}

	s := &SQLiteStore{db: db}

	stmts := []struct {
		dst   **sql.Stmt
		query string
	}{
		{&s.selPlayerStmt, `SELECT id, last_fished_at FROM players WHERE name = ?`},
		{&s.insPlayerStmt, `INSERT INTO players (name) VALUES (?)`},
		{&s.selSpeciesStmt, `SELECT id FROM species WHERE name = ?`},
		{&s.insCatchStmt, `INSERT INTO catches (caught_at, species_id, player_id, weight, value) VALUES (?,?,?,?,?)`},
		{&s.creditStmt, `UPDATE players SET score = score + ?, last_fished_at = ? WHERE id = ?`},
		{&s.selScoreStmt, `SELECT score FROM players WHERE id = ?`},
		{&s.leaderboardStmt, `
			SELECT name, score
			FROM players
			WHERE (? = 1 OR is_bot = 0)
			ORDER BY score DESC, name ASC
			LIMIT ?
		`},
		{&s.historyStmt, `
			SELECT c.id, c.caught_at, s.name, c.weight, c.value
			FROM catches c
			JOIN species s ON s.id = c.species_id
			JOIN players p ON p.id = c.player_id
			WHERE p.name = ?
			ORDER BY c.caught_at DESC, c.id DESC
			LIMIT ?
		`},
	}

	for _, st := range stmts {
		stmt, err := db.Prepare(st.query)
		if err != nil {
			_ = s.Close()
			return nil, err
		}
		*st.dst = stmt
	}

	return s, nil
}

func (s *SQLiteStore) Close() error {
	for _, stmt := range []*sql.Stmt{
		s.selPlayerStmt, s.insPlayerStmt, s.selSpeciesStmt, s.insCatchStmt,
		s.creditStmt, s.selScoreStmt, s.leaderboardStmt, s.historyStmt,
	} {
		if stmt != nil {
			_ = stmt.Close()
		}
	}
	return s.db.Close()
}

func initSchema(db *sql.DB) error {
	_, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS species (
			id          INTEGER PRIMARY KEY AUTOINCREMENT,
			name        TEXT    NOT NULL UNIQUE,
			abundance   REAL    NOT NULL,
			value_min   REAL    NOT NULL,
			value_max   REAL    NOT NULL,
			weight_min  REAL    NOT NULL DEFAULT 0,
			weight_max  REAL    NOT NULL DEFAULT 0,
			is_trash    INTEGER NOT NULL DEFAULT 0
		);
		CREATE TABLE IF NOT EXISTS players (
			id              INTEGER PRIMARY KEY AUTOINCREMENT,
			name            TEXT    NOT NULL UNIQUE,
			last_fished_at  INTEGER NOT NULL DEFAULT 0,
			score           REAL    NOT NULL DEFAULT 0,
			is_bot          INTEGER NOT NULL DEFAULT 0
		);
		CREATE TABLE IF NOT EXISTS catches (
			id          INTEGER PRIMARY KEY AUTOINCREMENT,
			caught_at   INTEGER NOT NULL,
			species_id  INTEGER NOT NULL REFERENCES species(id),
			player_id   INTEGER NOT NULL REFERENCES players(id),
			weight      REAL,
			value       REAL    NOT NULL
		);
		CREATE INDEX IF NOT EXISTS idx_catches_player
			ON catches (player_id, caught_at DESC, id DESC);
		CREATE INDEX IF NOT EXISTS idx_players_score
			ON players (score DESC, name ASC);
	`)
	return err
}

// Timestamps are stored as unix milliseconds; 0 means "never fished".
func toMillis(t time.Time) int64 {
	return t.UTC().UnixMilli()
}

func fromMillis(ms int64) time.Time {
	if ms == 0 {
		return time.Time{}
	}
	return time.UnixMilli(ms).UTC()
}

func storageErr(op string, err error) error {
	return fmt.Errorf("%s: %w: %w", op, ErrUnavailable, err)
}

func (s *SQLiteStore) RecordCatch(ctx context.Context, player string, out fish.Outcome, now time.Time, cd time.Duration) (fish.Catch, float64, error) {
	if s == nil || s.db == nil {
		return fish.Catch{}, 0, errors.New("store not initialized")
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fish.Catch{}, 0, storageErr("begin record catch", err)
	}
	defer func() { _ = tx.Rollback() }()

	var (
		playerID   int64
		lastMillis int64
	)
	err = tx.StmtContext(ctx, s.selPlayerStmt).QueryRowContext(ctx, player).Scan(&playerID, &lastMillis)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		res, err := tx.StmtContext(ctx, s.insPlayerStmt).ExecContext(ctx, player)
		if err != nil {
			return fish.Catch{}, 0, storageErr("create player", err)
		}
		playerID, err = res.LastInsertId()
		if err != nil {
			return fish.Catch{}, 0, storageErr("create player", err)
		}
	case err != nil:
		return fish.Catch{}, 0, storageErr("query player", err)
	}

	if rem := cooldown.Remaining(fromMillis(lastMillis), now, cd); rem > 0 {
		return fish.Catch{}, 0, &CoolingError{Remaining: rem}
	}

	var speciesID int64
	err = tx.StmtContext(ctx, s.selSpeciesStmt).QueryRowContext(ctx, out.Species.Name).Scan(&speciesID)
	if errors.Is(err, sql.ErrNoRows) {
		return fish.Catch{}, 0, fmt.Errorf("record catch for %q: %w", out.Species.Name, fish.ErrSpeciesNotFound)
	}
	if err != nil {
		return fish.Catch{}, 0, storageErr("query species", err)
	}

	weight := sql.NullFloat64{Float64: out.Weight, Valid: out.HasWeight}
	res, err := tx.StmtContext(ctx, s.insCatchStmt).ExecContext(ctx, toMillis(now), speciesID, playerID, weight, out.Value)
	if err != nil {
		return fish.Catch{}, 0, storageErr("insert catch", err)
	}
	catchID, err := res.LastInsertId()
	if err != nil {
		return fish.Catch{}, 0, storageErr("insert catch", err)
	}

	if _, err := tx.StmtContext(ctx, s.creditStmt).ExecContext(ctx, out.Value, toMillis(now), playerID); err != nil {
		return fish.Catch{}, 0, storageErr("credit score", err)
	}

	var newScore float64
	if err := tx.StmtContext(ctx, s.selScoreStmt).QueryRowContext(ctx, playerID).Scan(&newScore); err != nil {
		return fish.Catch{}, 0, storageErr("read score", err)
	}

	if err := tx.Commit(); err != nil {
		return fish.Catch{}, 0, storageErr("commit record catch", err)
	}

	return fish.Catch{
		ID:        catchID,
		Player:    player,
		Species:   out.Species.Name,
		Weight:    out.Weight,
		HasWeight: out.HasWeight,
		Value:     out.Value,
		CaughtAt:  now.UTC(),
	}, newScore, nil
}

func (s *SQLiteStore) Leaderboard(ctx context.Context, limit int, includeBots bool) ([]Rank, error) {
	if limit <= 0 {
		limit = 10
	}

	bots := 0
	if includeBots {
		bots = 1
	}

	rows, err := s.leaderboardStmt.QueryContext(ctx, bots, limit)
	if err != nil {
		return nil, storageErr("query leaderboard", err)
	}
	defer rows.Close()

	out := make([]Rank, 0, limit)
	for rows.Next() {
		var r Rank
		if err := rows.Scan(&r.Player, &r.Score); err != nil {
			return nil, storageErr("scan leaderboard", err)
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, storageErr("read leaderboard", err)
	}
	return out, nil
}

func (s *SQLiteStore) History(ctx context.Context, player string, limit int) ([]fish.Catch, error) {
	if limit <= 0 {
		limit = 10
	}

	rows, err := s.historyStmt.QueryContext(ctx, player, limit)
	if err != nil {
		return nil, storageErr("query history", err)
	}
	defer rows.Close()

	out := make([]fish.Catch, 0, limit)
	for rows.Next() {
		var (
			c          fish.Catch
			caughtAtMs int64
			weight     sql.NullFloat64
		)
		if err := rows.Scan(&c.ID, &caughtAtMs, &c.Species, &weight, &c.Value); err != nil {
			return nil, storageErr("scan history", err)
		}
		c.Player = player
		c.CaughtAt = fromMillis(caughtAtMs)
		c.Weight = weight.Float64
		c.HasWeight = weight.Valid
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, storageErr("read history", err)
	}
	return out, nil
}

func (s *SQLiteStore) Species(ctx context.Context) ([]fish.Species, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT name, abundance, value_min, value_max, weight_min, weight_max, is_trash
		FROM species
		ORDER BY name ASC
	`)
	if err != nil {
		return nil, storageErr("query species", err)
	}
	defer rows.Close()

	var out []fish.Species
	for rows.Next() {
		var sp fish.Species
		if err := rows.Scan(&sp.Name, &sp.Abundance, &sp.ValueMin, &sp.ValueMax, &sp.WeightMin, &sp.WeightMax, &sp.IsTrash); err != nil {
			return nil, storageErr("scan species", err)
		}
		out = append(out, sp)
	}
	if err := rows.Err(); err != nil {
		return nil, storageErr("read species", err)
	}
	return out, nil
}

func (s *SQLiteStore) SeedSpecies(ctx context.Context, species []fish.Species) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return storageErr("begin seed species", err)
	}
	defer func() { _ = tx.Rollback() }()

	for _, sp := range species {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO species (name, abundance, value_min, value_max, weight_min, weight_max, is_trash)
			VALUES (?,?,?,?,?,?,?)
			ON CONFLICT(name) DO NOTHING
		`, sp.Name, sp.Abundance, sp.ValueMin, sp.ValueMax, sp.WeightMin, sp.WeightMax, sp.IsTrash)
		if err != nil {
			return storageErr(fmt.Sprintf("seed species %q", sp.Name), err)
		}
	}

	if err := tx.Commit(); err != nil {
		return storageErr("commit seed species", err)
	}
	return nil
}

func (s *SQLiteStore) MarkBot(ctx context.Context, player string, isBot bool) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO players (name, is_bot) VALUES (?, ?)
		ON CONFLICT(name) DO UPDATE SET is_bot = excluded.is_bot
	`, player, isBot)
	if err != nil {
		return storageErr("mark bot", err)
	}
	return nil
}

func (s *SQLiteStore) Stats(ctx context.Context) (Stats, error) {
	var st Stats
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM catches`).Scan(&st.Catches); err != nil {
		return Stats{}, storageErr("count catches", err)
	}
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM players`).Scan(&st.Players); err != nil {
		return Stats{}, storageErr("count players", err)
	}

	err := s.db.QueryRowContext(ctx, `
		SELECT s.name, c.weight, p.name
		FROM catches c
		JOIN species s ON s.id = c.species_id
		JOIN players p ON p.id = c.player_id
		WHERE c.weight IS NOT NULL
		ORDER BY c.weight DESC, c.id ASC
		LIMIT 1
	`).Scan(&st.HeaviestSpecies, &st.HeaviestWeight, &st.HeaviestPlayer)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return Stats{}, storageErr("query heaviest catch", err)
	}

	return st, nil
}

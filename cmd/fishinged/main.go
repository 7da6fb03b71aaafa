package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hookline/fishinge/internal/api"
	"github.com/hookline/fishinge/internal/fish"
	"github.com/hookline/fishinge/internal/game"
	"github.com/hookline/fishinge/internal/store"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := LoadConfig()
	if err != nil {
		slog.Error("load config", "err", err)
		os.Exit(1)
	}

	var handler slog.Handler = slog.NewTextHandler(os.Stdout, nil)
	if cfg.LogJSON {
		handler = slog.NewJSONHandler(os.Stdout, nil)
	}
	logger := slog.New(handler)

	st, err := store.OpenSQLite(cfg.DBPath)
	if err != nil {
		logger.Error("open store", "err", err, "path", cfg.DBPath)
		os.Exit(1)
	}
	defer st.Close()

	if err := seedSpecies(ctx, cfg, st, logger); err != nil {
		logger.Error("seed species", "err", err)
		os.Exit(1)
	}

	species, err := st.Species(ctx)
	if err != nil {
		logger.Error("load species", "err", err)
		os.Exit(1)
	}
	catalog, err := fish.NewCatalog(species)
	if err != nil {
		logger.Error("build catalog", "err", err)
		os.Exit(1)
	}

	session, err := game.NewSession(st, catalog, time.Duration(cfg.CooldownSeconds)*time.Second, nil, nil)
	if err != nil {
		logger.Error("build session", "err", err)
		os.Exit(1)
	}

	server := api.New(logger, session)
	httpServer := &http.Server{
		Addr:              cfg.Addr,
		Handler:           server.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		_ = httpServer.Shutdown(shutdownCtx)
	}()

	logger.Info("fishinge listening",
		"addr", cfg.Addr,
		"species", catalog.Len(),
		"cooldown", time.Duration(cfg.CooldownSeconds)*time.Second,
	)
	if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Error("server failed", "err", err)
		os.Exit(1)
	}
}

// seedSpecies populates the species table from a JSON file when
// configured, or from the built-in defaults when the table is empty.
// Existing rows are never overwritten.
func seedSpecies(ctx context.Context, cfg Config, st *store.SQLiteStore, logger *slog.Logger) error {
	if cfg.SpeciesJSON != "" {
		species, err := fish.LoadSpeciesFromJSON(cfg.SpeciesJSON)
		if err != nil {
			return err
		}
		logger.Info("seeding species from file", "path", cfg.SpeciesJSON, "count", len(species))
		return st.SeedSpecies(ctx, species)
	}

	if !cfg.SeedDefaults {
		return nil
	}
	existing, err := st.Species(ctx)
	if err != nil {
		return err
	}
	if len(existing) > 0 {
		return nil
	}
	logger.Info("species table empty, seeding defaults")
	return st.SeedSpecies(ctx, fish.DefaultSpecies())
}

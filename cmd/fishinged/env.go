package main

import (
	"fmt"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

type Config struct {
	Addr            string `env:"FISHINGE_ADDR" envDefault:":8080"`
	DBPath          string `env:"FISHINGE_DB_PATH" envDefault:"data/fish.db"`
	SpeciesJSON     string `env:"FISHINGE_SPECIES_JSON"`
	CooldownSeconds int    `env:"FISHINGE_COOLDOWN_SECONDS" envDefault:"360"`
	SeedDefaults    bool   `env:"FISHINGE_SEED_DEFAULTS" envDefault:"true"`
	LogJSON         bool   `env:"FISHINGE_LOG_JSON" envDefault:"false"`
}

func LoadConfig() (Config, error) {
	// .env is optional; real deployments set the environment directly
	_ = godotenv.Load()

	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	if cfg.CooldownSeconds <= 0 {
		return Config{}, fmt.Errorf("FISHINGE_COOLDOWN_SECONDS must be positive, got %d", cfg.CooldownSeconds)
	}
	return cfg, nil
}

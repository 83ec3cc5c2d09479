package config

import (
	"fmt"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

type Config struct {
	Port      int    `env:"PORT" envDefault:"8080"`
	DBPath    string `env:"DB_PATH" envDefault:"mafia.db"`
	JWTSecret string `env:"JWT_SECRET" envDefault:"change-me"`
	LogLevel  string `env:"LOG_LEVEL" envDefault:"info"`
	GinMode   string `env:"GIN_MODE" envDefault:"release"`
}

// FromEnv reads configuration from the process environment, loading a .env
// file first if one exists.
func FromEnv() (Config, error) {
	_ = godotenv.Load()

	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parsing env: %w", err)
	}
	return cfg, nil
}

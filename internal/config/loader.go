package config

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

const (
	envPrefix  = "HOTSTINDER_"
	envFileVar = "HOTSTINDER_CONFIG"
)

// Load builds a Config by layering defaults, optional file, and env vars.
// Order of precedence (low -> high):
//  1. defaults (New)
//  2. file (YAML) if HOTSTINDER_CONFIG is set
//  3. env (prefix HOTSTINDER_), after a local .env file is loaded if present
func Load(_ context.Context) (*Config, error) {
	// A missing .env is normal outside development.
	_ = godotenv.Load()

	base := New()
	k := koanf.New(".")

	if path := os.Getenv(envFileVar); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("%w: %s: %w", ErrLoadConfig, path, err)
		}
	}

	// HOTSTINDER_QUEUE_SIZE -> queue_size (flat keys, underscores kept).
	envProvider := env.Provider(envPrefix, ".", func(s string) string {
		return strings.TrimPrefix(strings.ToLower(s), strings.ToLower(envPrefix))
	})
	if err := k.Load(envProvider, nil); err != nil {
		return nil, fmt.Errorf("%w: env: %w", ErrLoadConfig, err)
	}

	cfg := *base
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrLoadConfig, err)
	}
	cfg.CORSOrigins = splitList(cfg.CORSOrigins)
	cfg.AdminBattleTags = splitList(cfg.AdminBattleTags)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate reports the first setting that cannot run the service.
func (c *Config) Validate() error {
	switch {
	case strings.TrimSpace(c.Addr) == "":
		return fmt.Errorf("%w: addr must not be empty", ErrInvalidConfig)
	case c.JWTSecret == "":
		return fmt.Errorf("%w: jwt_secret must not be empty", ErrInvalidConfig)
	case len(c.JWTSecret) < MinSecretLength:
		return fmt.Errorf("%w: jwt_secret must be at least %d bytes", ErrInvalidConfig, MinSecretLength)
	case c.LogFormat != "text" && c.LogFormat != "json":
		return fmt.Errorf("%w: log_format must be text or json", ErrInvalidConfig)
	case c.MaxLeaderboardLimit < 1 || c.MaxPageSize < 1:
		return fmt.Errorf("%w: listing limits must be positive", ErrInvalidConfig)
	case c.MaxSyntheticUsers < 1 || c.MaxSyntheticMatches < 1:
		return fmt.Errorf("%w: synthetic generation caps must be positive", ErrInvalidConfig)
	case c.RatingDelta < 0:
		return fmt.Errorf("%w: rating_delta must not be negative", ErrInvalidConfig)
	case c.SessionTTLHours < 1:
		return fmt.Errorf("%w: session_ttl_hours must be positive", ErrInvalidConfig)
	}
	return nil
}

// splitList accepts both YAML lists and comma-separated env values.
func splitList(in []string) []string {
	var out []string
	for _, item := range in {
		for _, part := range strings.Split(item, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}

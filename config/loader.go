package config

// loader.go - configuration loading from environment variables.
//
// Precedence order (highest wins):
//   1. CLI flags  (handled by cmd/root.go)
//   2. Environment variables  (this file)
//   3. Defaults   (defaults.go)

import (
	"fmt"

	"github.com/caarlos0/env/v11"
)

// LoadFromEnv overlays MULL_* environment variables onto cfg.  Unset
// variables leave the existing value alone.  Call it BEFORE flag parsing
// so that flags take precedence.
//
// Booleans accept anything strconv.ParseBool does ("1", "true", ...);
// sizes accept the same syntax as the flags.
func LoadFromEnv(cfg *Config) error {
	if err := env.Parse(cfg); err != nil {
		return fmt.Errorf("environment: %w", err)
	}
	return nil
}

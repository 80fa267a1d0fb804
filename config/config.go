// Package config defines the runtime configuration for mull and the
// byte-size type shared by its flags and environment variables.
package config

import (
	"fmt"
	"strings"

	"github.com/dustin/go-humanize"

	ncerr "mull/internal/errors"
)

// Config holds every tuneable for one mull run.
type Config struct {
	// ── Endpoint ─────────────────────────────────────────────────────
	BufferSize Size `env:"MULL_BUFFER_SIZE"` // sink capacity, fixed at startup
	LockMemory bool `env:"MULL_LOCK_MEMORY"` // mmap+mlock the buffer

	// ── Payload ──────────────────────────────────────────────────────
	Input   string `env:"MULL_INPUT"`   // "" → generated, "-" → stdin, else a file
	Total   Size   `env:"MULL_TOTAL"`   // byte cap; 0 → DefaultTotal when generated, unlimited otherwise
	Chunk   Size   `env:"MULL_CHUNK"`   // bytes offered per write call
	Pattern string `env:"MULL_PATTERN"` // generated payload: "zero" or "random"

	// ── Sessions ─────────────────────────────────────────────────────
	Writers int  `env:"MULL_WRITERS"` // concurrent openers
	Wait    bool `env:"MULL_WAIT"`    // retry busy opens with backoff

	// ── Output ───────────────────────────────────────────────────────
	MetricsFile string `env:"MULL_METRICS_FILE"` // Prometheus textfile
	JSON        bool   `env:"MULL_JSON"`
	Verbose     int    `env:"MULL_VERBOSE"`
	DryRun      bool
}

// Default returns a Config populated from defaults.go.
func Default() *Config {
	return &Config{
		BufferSize: DefaultBufferSize,
		Chunk:      DefaultChunk,
		Pattern:    DefaultPattern,
		Writers:    DefaultWriters,
		Verbose:    DefaultVerbose,
	}
}

// Generated reports whether the payload is synthesised rather than read.
func (c *Config) Generated() bool { return c.Input == "" }

// PayloadLimit returns the number of bytes to offer, or 0 for no limit.
func (c *Config) PayloadLimit() uint64 {
	if c.Total == 0 && c.Generated() {
		return uint64(DefaultTotal)
	}
	return uint64(c.Total)
}

// ── Size ─────────────────────────────────────────────────────────────

// Size is a byte count that parses human-friendly values such as
// "1024", "1KiB", "64MB" or "1 GiB".  It implements pflag.Value and
// encoding.TextUnmarshaler, so the same syntax works for flags and
// environment variables.
type Size uint64

// ParseSize parses s as a byte count.
func ParseSize(s string) (Size, error) {
	n, err := humanize.ParseBytes(strings.TrimSpace(s))
	if err != nil {
		return 0, fmt.Errorf("invalid size %q", s)
	}
	return Size(n), nil
}

func (s Size) String() string {
	if s%1024 == 0 && s != 0 {
		return humanize.IBytes(uint64(s))
	}
	return fmt.Sprintf("%d", uint64(s))
}

// Set implements pflag.Value.
func (s *Size) Set(v string) error {
	n, err := ParseSize(v)
	if err != nil {
		return err
	}
	*s = n
	return nil
}

// Type implements pflag.Value.
func (s *Size) Type() string { return "size" }

// UnmarshalText implements encoding.TextUnmarshaler.
func (s *Size) UnmarshalText(b []byte) error { return s.Set(string(b)) }

// ── Validation ───────────────────────────────────────────────────────

// Validate checks that the configuration is internally consistent.
// Failures are *errors.ConfigError.
func (c *Config) Validate() error {
	switch {
	case c.BufferSize == 0:
		return &ncerr.ConfigError{
			Field: "buffer-size", Value: 0,
			Message: "must be greater than zero",
			Hint:    "the default is " + Size(DefaultBufferSize).String(),
		}
	case c.BufferSize > MaxBufferSize:
		return &ncerr.ConfigError{
			Field: "buffer-size", Value: c.BufferSize,
			Message: "exceeds maximum of " + Size(MaxBufferSize).String(),
		}
	}

	if c.Chunk == 0 || c.Chunk > MaxChunk {
		return &ncerr.ConfigError{
			Field: "chunk", Value: c.Chunk,
			Message: "must be between 1 and " + Size(MaxChunk).String(),
		}
	}

	switch c.Pattern {
	case PatternZero, PatternRandom:
	default:
		return &ncerr.ConfigError{
			Field: "pattern", Value: c.Pattern,
			Message: "unknown pattern",
			Hint:    "use " + PatternZero + " or " + PatternRandom,
		}
	}

	if c.Writers < 1 {
		return &ncerr.ConfigError{
			Field: "writers", Value: c.Writers,
			Message: "must be at least 1",
		}
	}
	if c.Writers > 1 && !c.Generated() {
		return &ncerr.ConfigError{
			Field: "writers", Value: c.Writers,
			Message: "several writers cannot share --input",
			Hint:    "drop --input to use a generated payload",
		}
	}

	if c.Verbose < 0 {
		return &ncerr.ConfigError{Field: "verbose", Value: c.Verbose, Message: "must not be negative"}
	}
	return nil
}

package config

import "mull/internal/sink"

// ── Default values ───────────────────────────────────────────────────
//
// All tuneable defaults live here so they are easy to audit and reuse
// across CLI flags and environment variable loading.

const (
	// DefaultBufferSize is the sink capacity in bytes.
	DefaultBufferSize = 1 << 10

	// MaxBufferSize is the largest sink capacity accepted.
	MaxBufferSize = sink.MaxCapacity

	// DefaultChunk is how many bytes each write call offers.
	DefaultChunk = 32 << 10

	// MaxChunk bounds the per-writer read buffer.
	MaxChunk = 64 << 20

	// DefaultTotal is how much generated payload one session offers.
	DefaultTotal = 64 << 20

	// DefaultWriters is the number of concurrent openers.
	DefaultWriters = 1

	// DefaultVerbose prints open/close/report lines.
	DefaultVerbose = 1
)

// Generated payload patterns.
const (
	PatternZero   = "zero"
	PatternRandom = "random"

	// DefaultPattern is the generated payload pattern.
	DefaultPattern = PatternZero
)

// EnvPrefix is the prefix of every supported environment variable.
const EnvPrefix = "MULL_"

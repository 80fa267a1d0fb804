// Package core is the driver layer.  It composes the endpoint, payload
// sources and the busy-wait policy into complete run modes and provides
// a builder that selects the right mode from a Config.
//
// Architecture layers (bottom → top):
//
//	sink, session, metrics  →  device  →  core  →  cmd (CLI)
//
// The endpoint itself never retries, blocks or cancels; everything of
// that kind lives here.
package core

import (
	"context"

	"mull/internal/metrics"
	"mull/util"
)

// Mode represents a complete run of mull against one endpoint (a single
// pump or several contending writers).  Each mode owns its sessions from
// open to close.
type Mode interface {
	Run(ctx context.Context) error
}

// Result records what one writer did.
type Result struct {
	Writer int
	Opened bool            // a session was opened and closed
	Report metrics.Report  // zero unless Opened
	Stats  util.SprayStats // what the writer offered and what was kept
	Err    error           // errors.ErrBusy when the writer never got a session
}

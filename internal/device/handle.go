package device

import (
	"sync/atomic"

	ncerr "mull/internal/errors"
	"mull/internal/metrics"
	"mull/internal/sink"
)

// Handle is the caller's side of one open session.  It is meant for a
// single owner; concurrent writes are allowed but their buffer contents
// interleave.
type Handle struct {
	e      *Endpoint
	closed atomic.Bool
}

// Write copies p into the sink and returns the number of bytes kept.
// Writes longer than the buffer capacity are truncated without error,
// so unlike an io.Writer a short count does not signal failure.
func (h *Handle) Write(p []byte) (int, error) {
	return h.WriteFrom(sink.Bytes(p))
}

// WriteFrom copies from a caller-supplied source.  If the source faults
// the call returns 0 and an error matching errors.ErrFault; nothing is
// accounted and the session stays usable.
func (h *Handle) WriteFrom(src sink.Source) (int, error) {
	if h.closed.Load() {
		return 0, ncerr.ErrClosed
	}
	return h.e.write(src)
}

// Read always fails with errors.ErrNotSupported.
func (h *Handle) Read(p []byte) (int, error) {
	return h.e.Read(p)
}

// Close ends the session and returns its throughput report.  Only the
// first Close releases the endpoint; later calls return errors.ErrClosed
// so a stale handle can never end another caller's session.
func (h *Handle) Close() (metrics.Report, error) {
	if !h.closed.CompareAndSwap(false, true) {
		return metrics.Report{}, ncerr.ErrClosed
	}
	return h.e.release(), nil
}

// Total returns the bytes accepted so far in this session, or 0 once
// the handle is closed.
func (h *Handle) Total() uint64 {
	if h.closed.Load() {
		return 0
	}
	return h.e.acct.Total()
}

// Package metrics provides the sink's throughput accounting: a
// per-session Accountant that produces a Report on close, and a
// lifetime Collector of lock-free counters across all sessions.
//
// All Collector methods are safe for concurrent use.  A nil *Collector
// is a valid no-op receiver, so callers never need to nil-check.
package metrics

import (
	"encoding/json"
	"sync"
	"sync/atomic"
	"time"
)

// Collector tracks lifetime statistics of one endpoint.
// A nil Collector is safe to use: all methods become no-ops.
type Collector struct {
	sessionsActive atomic.Int64
	sessionsTotal  atomic.Int64
	busyRejections atomic.Int64
	writesTotal    atomic.Int64
	bytesOffered   atomic.Int64
	bytesAccepted  atomic.Int64
	faultsTotal    atomic.Int64
	readsRejected  atomic.Int64

	mu         sync.RWMutex
	startTime  time.Time
	lastReport *Report
	lastFault  time.Time
	lastErrMsg string
}

// New creates a metrics collector with the start time set to now.
func New() *Collector {
	return &Collector{startTime: time.Now()}
}

// ── Session metrics ──────────────────────────────────────────────────

// SessionOpened increments both the active and total counters.
func (c *Collector) SessionOpened() {
	if c == nil {
		return
	}
	c.sessionsActive.Add(1)
	c.sessionsTotal.Add(1)
}

// SessionClosed decrements the active counter and keeps r as the most
// recent report.
func (c *Collector) SessionClosed(r Report) {
	if c == nil {
		return
	}
	c.sessionsActive.Add(-1)
	c.mu.Lock()
	c.lastReport = &r
	c.mu.Unlock()
}

// Busy records an open rejected because a session was active.
func (c *Collector) Busy() {
	if c == nil {
		return
	}
	c.busyRejections.Add(1)
}

// ActiveSessions returns the number of open sessions (0 or 1).
func (c *Collector) ActiveSessions() int64 {
	if c == nil {
		return 0
	}
	return c.sessionsActive.Load()
}

// TotalSessions returns the lifetime session count.
func (c *Collector) TotalSessions() int64 {
	if c == nil {
		return 0
	}
	return c.sessionsTotal.Load()
}

// BusyRejections returns the number of opens refused as busy.
func (c *Collector) BusyRejections() int64 {
	if c == nil {
		return 0
	}
	return c.busyRejections.Load()
}

// LastReport returns the report of the most recently closed session.
func (c *Collector) LastReport() (Report, bool) {
	if c == nil {
		return Report{}, false
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.lastReport == nil {
		return Report{}, false
	}
	return *c.lastReport, true
}

// ── I/O metrics ──────────────────────────────────────────────────────

// Write records one successful write call: requested bytes offered by
// the caller and the (possibly truncated) count accepted.
func (c *Collector) Write(requested, accepted int) {
	if c == nil {
		return
	}
	c.writesTotal.Add(1)
	c.bytesOffered.Add(int64(requested))
	c.bytesAccepted.Add(int64(accepted))
}

// Fault records a write that faulted while copying.
func (c *Collector) Fault(msg string) {
	if c == nil {
		return
	}
	c.faultsTotal.Add(1)
	c.mu.Lock()
	c.lastFault = time.Now()
	c.lastErrMsg = msg
	c.mu.Unlock()
}

// ReadRejected records an unsupported read attempt.
func (c *Collector) ReadRejected() {
	if c == nil {
		return
	}
	c.readsRejected.Add(1)
}

// TotalWrites returns the number of successful write calls.
func (c *Collector) TotalWrites() int64 {
	if c == nil {
		return 0
	}
	return c.writesTotal.Load()
}

// BytesOffered returns total bytes callers asked to write.
func (c *Collector) BytesOffered() int64 {
	if c == nil {
		return 0
	}
	return c.bytesOffered.Load()
}

// BytesAccepted returns total bytes copied into the buffer.
func (c *Collector) BytesAccepted() int64 {
	if c == nil {
		return 0
	}
	return c.bytesAccepted.Load()
}

// FaultCount returns the number of faulted writes.
func (c *Collector) FaultCount() int64 {
	if c == nil {
		return 0
	}
	return c.faultsTotal.Load()
}

// ReadsRejected returns the number of rejected reads.
func (c *Collector) ReadsRejected() int64 {
	if c == nil {
		return 0
	}
	return c.readsRejected.Load()
}

// ── Snapshot ─────────────────────────────────────────────────────────

// Snapshot is a point-in-time view of all metrics.
type Snapshot struct {
	Uptime           string  `json:"uptime"`
	SessionsActive   int64   `json:"sessions_active"`
	SessionsTotal    int64   `json:"sessions_total"`
	BusyRejections   int64   `json:"busy_rejections"`
	WritesTotal      int64   `json:"writes_total"`
	BytesOffered     int64   `json:"bytes_offered"`
	BytesAccepted    int64   `json:"bytes_accepted"`
	FaultsTotal      int64   `json:"faults_total"`
	ReadsRejected    int64   `json:"reads_rejected"`
	LastReport       *Report `json:"last_report,omitempty"`
	LastFault        string  `json:"last_fault,omitempty"`
	LastFaultMessage string  `json:"last_fault_message,omitempty"`
}

// Snapshot returns a copy of all current metrics.
func (c *Collector) Snapshot() Snapshot {
	if c == nil {
		return Snapshot{}
	}
	c.mu.RLock()
	defer c.mu.RUnlock()

	s := Snapshot{
		Uptime:         time.Since(c.startTime).Truncate(time.Second).String(),
		SessionsActive: c.sessionsActive.Load(),
		SessionsTotal:  c.sessionsTotal.Load(),
		BusyRejections: c.busyRejections.Load(),
		WritesTotal:    c.writesTotal.Load(),
		BytesOffered:   c.bytesOffered.Load(),
		BytesAccepted:  c.bytesAccepted.Load(),
		FaultsTotal:    c.faultsTotal.Load(),
		ReadsRejected:  c.readsRejected.Load(),
	}
	if c.lastReport != nil {
		r := *c.lastReport
		s.LastReport = &r
	}
	if !c.lastFault.IsZero() {
		s.LastFault = c.lastFault.Format(time.RFC3339)
		s.LastFaultMessage = c.lastErrMsg
	}
	return s
}

// JSON returns the snapshot as an indented JSON string.
func (c *Collector) JSON() string {
	s := c.Snapshot()
	data, _ := json.MarshalIndent(s, "", "  ")
	return string(data)
}

package metrics

import (
	"fmt"
	"sync/atomic"
	"time"

	"github.com/dustin/go-humanize"
)

// megabyte is the divisor for throughput figures (MiB, reported as MB).
const megabyte = 1024 * 1024

// Accountant measures one session: bytes accepted between Start and
// Finish, and the wall time in between.  Record is safe for concurrent
// use; Start and Finish are called once each by the session owner.
type Accountant struct {
	now   func() time.Time
	start time.Time
	total atomic.Uint64
}

// NewAccountant returns an Accountant reading time from now, or from
// time.Now when now is nil.
func NewAccountant(now func() time.Time) *Accountant {
	if now == nil {
		now = time.Now
	}
	return &Accountant{now: now}
}

// Start begins a session: the clock starts and the total resets to zero.
func (a *Accountant) Start() {
	a.start = a.now()
	a.total.Store(0)
}

// Record adds n accepted bytes to the session total.
func (a *Accountant) Record(n int) {
	if n > 0 {
		a.total.Add(uint64(n))
	}
}

// Total returns the bytes accepted so far in this session.
func (a *Accountant) Total() uint64 { return a.total.Load() }

// Finish ends the session and computes its report.
//
// Whole seconds and whole megabytes are both clamped to a minimum of 1,
// so short or small sessions under-report rather than divide by zero or
// report nothing.
func (a *Accountant) Finish() Report {
	elapsed := a.now().Sub(a.start)
	if elapsed < 0 {
		elapsed = 0
	}
	total := a.total.Load()

	seconds := uint64(elapsed / time.Second)
	if seconds == 0 {
		seconds = 1
	}
	mb := total / megabyte
	if mb == 0 {
		mb = 1
	}

	return Report{
		TotalBytes:         total,
		Elapsed:            elapsed,
		Seconds:            seconds,
		Megabytes:          mb,
		MegabytesPerSecond: float64(mb) / float64(seconds),
	}
}

// Report is the observational result of one session.
type Report struct {
	TotalBytes         uint64        `json:"total_bytes"`
	Elapsed            time.Duration `json:"elapsed_ns"`
	Seconds            uint64        `json:"seconds"`   // clamped to >= 1
	Megabytes          uint64        `json:"megabytes"` // clamped to >= 1
	MegabytesPerSecond float64       `json:"megabytes_per_second"`
}

func (r Report) String() string {
	return fmt.Sprintf("speed: %d MB/s (%s accepted in %s)",
		uint64(r.MegabytesPerSecond), humanize.IBytes(r.TotalBytes), r.Elapsed.Round(time.Millisecond))
}

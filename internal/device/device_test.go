package device

import (
	"bytes"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	ncerr "mull/internal/errors"
	"mull/internal/metrics"
	"mull/util"
)

// ── helpers ──────────────────────────────────────────────────────────

type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func (f *fakeClock) Now() time.Time {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.t
}

func (f *fakeClock) Advance(d time.Duration) {
	f.mu.Lock()
	f.t = f.t.Add(d)
	f.mu.Unlock()
}

type faultySource struct{ n int }

func (f faultySource) Len() int { return f.n }
func (f faultySource) CopyOut([]byte) error { return fmt.Errorf("source unmapped") }

type fixture struct {
	ep    *Endpoint
	clock *fakeClock
	log   *bytes.Buffer
	stats *metrics.Collector
}

func newFixture(t *testing.T, capacity uint64) *fixture {
	t.Helper()
	var out bytes.Buffer
	logger := util.NewLogger(2)
	logger.SetOutput(&out)
	logger.SetTimestamps(false)

	clk := &fakeClock{t: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}
	stats := metrics.New()
	ep, err := New(Options{Capacity: capacity, Now: clk.Now}, logger, stats)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return &fixture{ep: ep, clock: clk, log: &out, stats: stats}
}

// ── construction ─────────────────────────────────────────────────────

func TestNew_LogsCapacity(t *testing.T) {
	f := newFixture(t, 1024)
	if f.ep.Capacity() != 1024 {
		t.Errorf("Capacity() = %d", f.ep.Capacity())
	}
	if !strings.Contains(f.log.String(), "buffer size: 1024") {
		t.Errorf("init line missing capacity:\n%s", f.log.String())
	}
}

func TestNew_ZeroCapacity(t *testing.T) {
	var out bytes.Buffer
	logger := util.NewLogger(0)
	logger.SetOutput(&out)

	ep, err := New(Options{Capacity: 0}, logger, nil)
	if ep != nil {
		t.Fatal("endpoint should not exist after failed allocation")
	}
	if !ncerr.IsFatal(err) {
		t.Fatalf("err = %v, want allocation failure", err)
	}
	if !strings.Contains(out.String(), "[ERR]") {
		t.Errorf("failure should be logged even when quiet:\n%s", out.String())
	}
}

// ── write path ───────────────────────────────────────────────────────

func TestWrite_WithinCapacity(t *testing.T) {
	for _, capacity := range []uint64{1, 7, 1024, 4096} {
		t.Run(fmt.Sprint(capacity), func(t *testing.T) {
			f := newFixture(t, capacity)
			h, err := f.ep.Open()
			if err != nil {
				t.Fatal(err)
			}
			for _, n := range []int{0, 1, int(capacity) / 2, int(capacity)} {
				before := h.Total()
				got, err := h.Write(make([]byte, n))
				if err != nil || got != n {
					t.Fatalf("Write(%d) = (%d, %v)", n, got, err)
				}
				if h.Total()-before != uint64(n) {
					t.Errorf("total grew by %d, want %d", h.Total()-before, n)
				}
			}
		})
	}
}

func TestWrite_SilentTruncation(t *testing.T) {
	f := newFixture(t, 1024)
	h, _ := f.ep.Open()

	for _, n := range []int{1025, 2048, 1 << 20} {
		got, err := h.Write(make([]byte, n))
		if err != nil {
			t.Fatalf("Write(%d) returned error %v", n, err)
		}
		if got != 1024 {
			t.Errorf("Write(%d) = %d, want 1024", n, got)
		}
	}
	if h.Total() != 3*1024 {
		t.Errorf("total = %d, want %d", h.Total(), 3*1024)
	}
}

func TestWrite_Fault(t *testing.T) {
	f := newFixture(t, 1024)
	h, _ := f.ep.Open()
	h.Write(make([]byte, 100)) //nolint:errcheck

	n, err := h.WriteFrom(faultySource{n: 512})
	if n != 0 || !ncerr.Is(err, ncerr.ErrFault) {
		t.Fatalf("WriteFrom = (%d, %v), want (0, ErrFault)", n, err)
	}
	if h.Total() != 100 {
		t.Errorf("total = %d after fault, want 100", h.Total())
	}

	// The session survives a fault.
	if n, err := h.Write([]byte("more")); n != 4 || err != nil {
		t.Errorf("write after fault = (%d, %v)", n, err)
	}
	if f.stats.FaultCount() != 1 {
		t.Errorf("faults = %d", f.stats.FaultCount())
	}
}

// ── sessions ─────────────────────────────────────────────────────────

func TestScenario_TruncateAndReport(t *testing.T) {
	f := newFixture(t, 1024)

	h, err := f.ep.Open()
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if n, _ := h.Write(make([]byte, 2048)); n != 1024 {
		t.Errorf("write 2048 = %d, want 1024", n)
	}
	if n, _ := h.Write(make([]byte, 10)); n != 10 {
		t.Errorf("write 10 = %d, want 10", n)
	}
	if h.Total() != 1034 {
		t.Errorf("total = %d, want 1034", h.Total())
	}

	f.clock.Advance(3 * time.Second)
	r, err := h.Close()
	if err != nil {
		t.Fatalf("close: %v", err)
	}
	if r.TotalBytes != 1034 || r.Megabytes != 1 || r.Seconds != 3 {
		t.Errorf("report = %+v", r)
	}
	if want := 1.0 / 3.0; r.MegabytesPerSecond != want {
		t.Errorf("MB/s = %v, want %v", r.MegabytesPerSecond, want)
	}
	if !strings.Contains(f.log.String(), "device is released") {
		t.Errorf("close not logged:\n%s", f.log.String())
	}
}

func TestScenario_EmptyInstantSession(t *testing.T) {
	f := newFixture(t, 1024)
	h, _ := f.ep.Open()

	r, err := h.Close()
	if err != nil {
		t.Fatal(err)
	}
	if r.MegabytesPerSecond < 1 {
		t.Errorf("MB/s = %v, want >= 1", r.MegabytesPerSecond)
	}
	if r.Seconds != 1 || r.Megabytes != 1 {
		t.Errorf("clamps not applied: %+v", r)
	}
}

func TestScenario_BusyThenReopen(t *testing.T) {
	f := newFixture(t, 1024)

	h1, err := f.ep.Open()
	if err != nil {
		t.Fatalf("first open: %v", err)
	}
	if _, err := f.ep.Open(); !ncerr.Is(err, ncerr.ErrBusy) {
		t.Fatalf("second open err = %v, want ErrBusy", err)
	}
	if _, err := h1.Close(); err != nil {
		t.Fatal(err)
	}
	h3, err := f.ep.Open()
	if err != nil {
		t.Fatalf("third open: %v", err)
	}
	h3.Close() //nolint:errcheck

	if f.stats.BusyRejections() != 1 || f.stats.TotalSessions() != 2 {
		t.Errorf("busy=%d sessions=%d", f.stats.BusyRejections(), f.stats.TotalSessions())
	}
}

func TestOpen_Concurrent(t *testing.T) {
	f := newFixture(t, 1024)
	const callers = 32

	var (
		wg      sync.WaitGroup
		wins    atomic.Int32
		busy    atomic.Int32
		handles = make(chan *Handle, callers)
		start   = make(chan struct{})
	)
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-start
			h, err := f.ep.Open()
			switch {
			case err == nil:
				wins.Add(1)
				handles <- h
			case ncerr.Is(err, ncerr.ErrBusy):
				busy.Add(1)
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}()
	}
	close(start)
	wg.Wait()
	close(handles)

	if wins.Load() != 1 || busy.Load() != callers-1 {
		t.Fatalf("wins=%d busy=%d, want 1 and %d", wins.Load(), busy.Load(), callers-1)
	}
	for h := range handles {
		h.Close() //nolint:errcheck
	}
	if f.ep.Busy() {
		t.Error("endpoint still busy after close")
	}
}

func TestWrite_ConcurrentWithinSession(t *testing.T) {
	f := newFixture(t, 64)
	h, _ := f.ep.Open()

	const writers, perWriter = 8, 500
	var wg sync.WaitGroup
	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			chunk := make([]byte, 100) // truncated to 64
			for j := 0; j < perWriter; j++ {
				h.Write(chunk) //nolint:errcheck
			}
		}()
	}
	wg.Wait()

	if want := uint64(writers * perWriter * 64); h.Total() != want {
		t.Errorf("total = %d, want %d", h.Total(), want)
	}
}

func TestClose_Twice(t *testing.T) {
	f := newFixture(t, 1024)
	stale, _ := f.ep.Open()
	stale.Close() //nolint:errcheck

	fresh, err := f.ep.Open()
	if err != nil {
		t.Fatal(err)
	}
	fresh.Write(make([]byte, 10)) //nolint:errcheck

	// A stale handle must not end or feed the fresh session.
	if _, err := stale.Close(); !ncerr.Is(err, ncerr.ErrClosed) {
		t.Errorf("second close err = %v, want ErrClosed", err)
	}
	if _, err := stale.Write([]byte("x")); !ncerr.Is(err, ncerr.ErrClosed) {
		t.Errorf("write on closed handle err = %v, want ErrClosed", err)
	}
	if !f.ep.Busy() {
		t.Error("stale close released the fresh session")
	}
	if fresh.Total() != 10 {
		t.Errorf("fresh total = %d, want 10", fresh.Total())
	}
	fresh.Close() //nolint:errcheck
}

// ── read ─────────────────────────────────────────────────────────────

func TestRead_NotSupported(t *testing.T) {
	f := newFixture(t, 16)

	// Idle endpoint.
	if n, err := f.ep.Read(make([]byte, 8)); n != 0 || !ncerr.Is(err, ncerr.ErrNotSupported) {
		t.Errorf("idle read = (%d, %v)", n, err)
	}
	if f.ep.Busy() {
		t.Error("read opened a session")
	}

	// Active session: no change to counters or buffer.
	h, _ := f.ep.Open()
	h.Write([]byte("0123456789")) //nolint:errcheck
	before := h.Total()

	p := make([]byte, 8)
	if n, err := h.Read(p); n != 0 || !ncerr.Is(err, ncerr.ErrNotSupported) {
		t.Errorf("session read = (%d, %v)", n, err)
	}
	if h.Total() != before {
		t.Errorf("read changed total from %d to %d", before, h.Total())
	}
	if !bytes.Equal(p, make([]byte, 8)) {
		t.Errorf("read filled caller buffer: %q", p)
	}
	if f.stats.ReadsRejected() != 2 {
		t.Errorf("reads rejected = %d, want 2", f.stats.ReadsRejected())
	}
	if strings.Count(f.log.String(), "read is not supported") != 2 {
		t.Errorf("each read should be logged:\n%s", f.log.String())
	}
	h.Close() //nolint:errcheck
}

// ── shutdown ─────────────────────────────────────────────────────────

func TestShutdown(t *testing.T) {
	f := newFixture(t, 1024)
	h, _ := f.ep.Open()

	if err := f.ep.Shutdown(); !ncerr.Is(err, ncerr.ErrInUse) {
		t.Fatalf("shutdown during session err = %v, want ErrInUse", err)
	}
	h.Close() //nolint:errcheck

	if err := f.ep.Shutdown(); err != nil {
		t.Fatalf("shutdown: %v", err)
	}
	if err := f.ep.Shutdown(); err != nil {
		t.Errorf("second shutdown: %v", err)
	}
	if _, err := f.ep.Open(); !ncerr.Is(err, ncerr.ErrClosed) {
		t.Errorf("open after shutdown err = %v, want ErrClosed", err)
	}
	if !strings.Contains(f.log.String(), "exit") {
		t.Errorf("exit not logged:\n%s", f.log.String())
	}
}

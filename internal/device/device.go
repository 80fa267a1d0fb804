// Package device implements the mull endpoint: a write-only sink that
// admits one session at a time, copies each write into a fixed-size
// buffer, and reports the session's throughput when it is closed.
//
// The endpoint is an ordinary value built once at startup and shared
// explicitly with its callers; there is no package-level state.
package device

import (
	"fmt"
	"sync"
	"time"

	"github.com/dustin/go-humanize"

	ncerr "mull/internal/errors"
	"mull/internal/metrics"
	"mull/internal/session"
	"mull/internal/sink"
	"mull/util"
)

// Name identifies the endpoint in log lines.
const Name = "mull"

// Options configures an Endpoint.  Only Capacity is required.
type Options struct {
	Capacity  uint64           // buffer size in bytes, fixed for the endpoint's lifetime
	Allocator sink.Allocator   // nil → heap
	Now       func() time.Time // nil → time.Now
}

// Endpoint owns one sink buffer and one session gate.
type Endpoint struct {
	buf     *sink.Buffer
	gate    session.Gate
	acct    *metrics.Accountant
	logger  *util.Logger
	metrics *metrics.Collector

	mu   sync.Mutex // orders Open against Shutdown
	down bool
}

// New allocates the sink buffer and returns a ready endpoint.  A failed
// allocation is fatal: it is logged and returned, and no endpoint exists.
// collector may be nil.
func New(opts Options, logger *util.Logger, collector *metrics.Collector) (*Endpoint, error) {
	buf, err := sink.NewBuffer(opts.Capacity, opts.Allocator)
	if err != nil {
		logger.Error("%s: initialisation failed: %v", Name, err)
		return nil, err
	}

	e := &Endpoint{
		buf:     buf,
		acct:    metrics.NewAccountant(opts.Now),
		logger:  logger,
		metrics: collector,
	}
	logger.Info("%s: loaded (buffer size: %d, allocator: %s)", Name, buf.Capacity(), buf.Allocator())
	return e, nil
}

// Capacity returns the buffer size in bytes.
func (e *Endpoint) Capacity() int { return e.buf.Capacity() }

// Busy reports whether a session is open.
func (e *Endpoint) Busy() bool { return e.gate.Active() }

// Open starts a session.  It returns errors.ErrBusy if one is already
// open; the caller may retry later.
func (e *Endpoint) Open() (*Handle, error) {
	e.mu.Lock()
	if e.down {
		e.mu.Unlock()
		return nil, fmt.Errorf("open %s: %w", Name, ncerr.ErrClosed)
	}
	acquired := e.gate.TryAcquire()
	e.mu.Unlock()

	if !acquired {
		e.metrics.Busy()
		e.logger.Verbose("%s: open refused, device busy", Name)
		return nil, ncerr.ErrBusy
	}

	e.acct.Start()
	e.metrics.SessionOpened()
	e.logger.Info("%s: device is opened", Name)
	return &Handle{e: e}, nil
}

// Read always fails: the endpoint is write-only.  It has no side effect
// on the buffer or any session.
func (e *Endpoint) Read(p []byte) (int, error) {
	e.metrics.ReadRejected()
	e.logger.Error("%s: read is not supported", Name)
	return 0, ncerr.ErrNotSupported
}

// write is the shared write path for every handle.
func (e *Endpoint) write(src sink.Source) (int, error) {
	n, err := e.buf.Accept(src)
	if err != nil {
		e.metrics.Fault(err.Error())
		e.logger.Warn("%s: %v", Name, err)
		return 0, err
	}
	e.acct.Record(n)
	e.metrics.Write(src.Len(), n)
	return n, nil
}

// release ends the open session and reports it.
func (e *Endpoint) release() metrics.Report {
	r := e.acct.Finish()
	e.metrics.SessionClosed(r)
	e.gate.Release()

	e.logger.Info("%s: device is released (speed: %d MBs)", Name, uint64(r.MegabytesPerSecond))
	e.logger.Verbose("%s: session accepted %s (%d bytes) in %ds",
		Name, humanize.IBytes(r.TotalBytes), r.TotalBytes, r.Seconds)
	return r
}

// Shutdown tears the endpoint down and frees its buffer.  It refuses with
// errors.ErrInUse while a session holds the endpoint.  Calling it again
// after it succeeded is a no-op.
func (e *Endpoint) Shutdown() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.down {
		return nil
	}
	if e.gate.Refs() > 0 {
		return fmt.Errorf("shutdown %s: %w", Name, ncerr.ErrInUse)
	}

	e.down = true
	if err := e.buf.Release(); err != nil {
		e.logger.Error("%s: release buffer: %v", Name, err)
		return err
	}
	e.logger.Info("%s: exit", Name)
	return nil
}

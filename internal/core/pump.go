package core

import (
	"context"
	"errors"
	"fmt"
	"io"

	"mull/internal/device"
	ncerr "mull/internal/errors"
	"mull/internal/retry"
	"mull/util"
)

// PumpMode opens the endpoint once, sprays Input into it chunk by chunk
// until the input runs dry or the context is cancelled, then closes the
// session and reports it.
type PumpMode struct {
	Device *device.Endpoint
	Input  io.Reader      // closed by Run if it is an io.Closer
	Pool   *util.BufPool  // chunk buffers; nil → DefaultBufSize
	Wait   *retry.Backoff // nil → fail fast with errors.ErrBusy
	Logger *util.Logger
	Writer int // identifies this pump in log lines

	// OnResult, if set, receives the outcome of a run that opened a
	// session.
	OnResult func(Result)
}

// Run pumps one session.  Cancellation is a normal way to end the
// session; the report is still delivered.
func (m *PumpMode) Run(ctx context.Context) error {
	res := m.pump(ctx)
	if res.Opened && m.OnResult != nil {
		m.OnResult(res)
	}
	return res.Err
}

func (m *PumpMode) pump(ctx context.Context) Result {
	res := Result{Writer: m.Writer}
	if c, ok := m.Input.(io.Closer); ok {
		defer c.Close()
	}

	h, err := m.open(ctx)
	if err != nil {
		res.Err = err
		return res
	}

	pool := m.Pool
	if pool == nil {
		pool = util.NewBufPool(0)
	}
	buf := pool.Get()
	defer pool.Put(buf)

	m.Logger.Debug("writer %d: spraying %d byte chunks", m.Writer, len(*buf))
	st, serr := util.Spray(ctx, h, m.Input, *buf)
	res.Stats = st

	report, cerr := h.Close()
	res.Opened, res.Report = cerr == nil, report
	m.Logger.Verbose("writer %d: %d chunks, %d bytes offered, %d accepted",
		m.Writer, st.Chunks, st.Offered, st.Accepted)

	switch {
	case serr != nil && !errors.Is(serr, context.Canceled):
		res.Err = fmt.Errorf("writer %d: %w", m.Writer, serr)
	case cerr != nil:
		res.Err = fmt.Errorf("writer %d: close: %w", m.Writer, cerr)
	}
	return res
}

// open starts a session, waiting out a busy endpoint when m.Wait is set.
func (m *PumpMode) open(ctx context.Context) (*device.Handle, error) {
	if m.Wait == nil {
		return m.Device.Open()
	}

	b := *m.Wait
	if b.Retryable == nil {
		b.Retryable = ncerr.IsRetryable
	}

	var h *device.Handle
	err := b.Do(ctx, func(attempt int) error {
		var err error
		h, err = m.Device.Open()
		if err != nil && ncerr.IsRetryable(err) {
			m.Logger.Debug("writer %d: busy (attempt %d)", m.Writer, attempt)
		}
		return err
	})
	if err != nil {
		return nil, err
	}
	return h, nil
}

package core

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"

	"mull/internal/device"
	ncerr "mull/internal/errors"
	"mull/internal/retry"
	"mull/util"
)

// InputFunc returns the payload for one writer.
type InputFunc func(writer int) (io.Reader, error)

// ContendMode starts Writers pumps at once against the same endpoint.
// Without Wait only the writers that find the endpoint idle get a
// session; the rest fail with errors.ErrBusy, which is counted rather
// than treated as a failure.  With Wait the sessions run one after the
// other.
type ContendMode struct {
	Device  *device.Endpoint
	Writers int
	Input   InputFunc
	Pool    *util.BufPool
	Wait    *retry.Backoff
	Logger  *util.Logger

	// OnResult, if set, receives every writer's result, including busy
	// rejections.  It may be called concurrently.
	OnResult func(Result)
}

// Run contends and summarises.  It fails only if no writer got a
// session or a writer failed for a reason other than busy.
func (m *ContendMode) Run(ctx context.Context) error {
	if m.Writers < 1 {
		return fmt.Errorf("no writers configured")
	}

	m.Logger.Verbose("starting %d writers", m.Writers)
	results := m.Contend(ctx)

	var (
		opened, busy int
		errs         []error
	)
	for _, r := range results {
		switch {
		case r.Opened:
			opened++
		case errors.Is(r.Err, ncerr.ErrBusy):
			busy++
		}
		if r.Err != nil && !errors.Is(r.Err, ncerr.ErrBusy) {
			errs = append(errs, r.Err)
		}
	}
	m.Logger.Info("%d of %d writers got a session, %d refused as busy", opened, len(results), busy)

	if len(errs) > 0 {
		return errors.Join(errs...)
	}
	if opened == 0 {
		return ncerr.ErrBusy
	}
	return nil
}

// Contend runs every writer concurrently and returns their results in
// writer order.  All writers are released together so that their opens
// genuinely race.
func (m *ContendMode) Contend(ctx context.Context) []Result {
	results := make([]Result, m.Writers)
	start := make(chan struct{})
	var wg sync.WaitGroup

	for i := range results {
		wg.Add(1)
		go func(idx int) {
			defer wg.Done()
			<-start

			in, err := m.Input(idx)
			if err != nil {
				results[idx] = Result{Writer: idx, Err: fmt.Errorf("writer %d: payload: %w", idx, err)}
				return
			}
			p := &PumpMode{
				Device: m.Device,
				Input:  in,
				Pool:   m.Pool,
				Wait:   m.Wait,
				Logger: m.Logger,
				Writer: idx,
			}
			results[idx] = p.pump(ctx)
			if m.OnResult != nil {
				m.OnResult(results[idx])
			}
		}(i)
	}

	close(start)
	wg.Wait()
	return results
}

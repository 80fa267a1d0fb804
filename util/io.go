package util

import (
	"context"
	"errors"
	"io"
	"os"
)

// DefaultBufSize is the standard chunk size for one write call (32 KiB).
const DefaultBufSize = 32 * 1024

// ChunkWriter takes one chunk per call and reports how much of it was
// kept.  Unlike io.Writer, a short count is not an error.
type ChunkWriter interface {
	Write(p []byte) (int, error)
}

// SprayStats counts what a Spray call offered and what was kept.
type SprayStats struct {
	Chunks   int64 // write calls made
	Offered  int64 // bytes passed to Write
	Accepted int64 // bytes Write reported as kept
}

// Spray reads chunks of up to len(buf) bytes from r and hands each one
// to w, ignoring short writes, until r reaches EOF, a write fails, or
// the context is cancelled.  If r is an io.Closer it is closed on
// cancellation to unblock a pending read.
func Spray(ctx context.Context, w ChunkWriter, r io.Reader, buf []byte) (SprayStats, error) {
	var st SprayStats

	if c, ok := r.(io.Closer); ok {
		stop := context.AfterFunc(ctx, func() { c.Close() }) //nolint:errcheck
		defer stop()
	}

	for {
		if err := ctx.Err(); err != nil {
			return st, err
		}

		n, rerr := r.Read(buf)
		if n > 0 {
			kept, werr := w.Write(buf[:n])
			st.Chunks++
			st.Offered += int64(n)
			st.Accepted += int64(kept)
			if werr != nil {
				return st, werr
			}
		}
		if rerr != nil {
			if ctx.Err() != nil {
				return st, ctx.Err()
			}
			if IsHarmless(rerr) {
				return st, nil
			}
			return st, rerr
		}
	}
}

// IsHarmless returns true for errors that are expected when a source
// runs dry or is shut down.
func IsHarmless(err error) bool {
	if err == nil {
		return true
	}
	return errors.Is(err, io.EOF) ||
		errors.Is(err, os.ErrClosed) ||
		errors.Is(err, io.ErrClosedPipe) ||
		errors.Is(err, context.Canceled)
}

package core

import (
	"crypto/rand"
	"fmt"
	"io"
	"os"

	"golang.org/x/crypto/chacha20"

	"mull/config"
	"mull/util"
)

// rekeyEvery bounds how much keystream one chacha20 key produces, well
// below the 256 GiB counter limit of a 96-bit nonce.
var rekeyEvery int64 = 1 << 30

// NewPayload returns a generated payload of limit bytes (endless when
// limit is 0).
func NewPayload(pattern string, limit uint64) (io.Reader, error) {
	var r io.Reader
	switch pattern {
	case config.PatternZero:
		r = zeroReader{}
	case config.PatternRandom:
		ks := &keystreamReader{}
		if err := ks.rekey(); err != nil {
			return nil, err
		}
		r = ks
	default:
		return nil, fmt.Errorf("unknown payload pattern %q", pattern)
	}
	return limitReader(r, limit), nil
}

// OpenInput opens the payload named by path: "-" is stdin, anything else
// a file.  At most limit bytes are read when limit > 0.  A terminal on
// stdin is refused.
func OpenInput(path string, stdin io.Reader, limit uint64) (io.Reader, error) {
	if path == "-" {
		if util.IsTerminal(stdin) {
			return nil, fmt.Errorf("refusing to read payload from a terminal; pipe data in or drop --input")
		}
		return limitReader(stdin, limit), nil
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open input: %w", err)
	}
	return limitReader(f, limit), nil
}

// limitReader caps r at limit bytes and keeps r's Close, so cancellation
// can still unblock a pending read.
func limitReader(r io.Reader, limit uint64) io.Reader {
	if limit == 0 {
		return r
	}
	lr := io.LimitReader(r, int64(limit))
	if c, ok := r.(io.Closer); ok {
		return readCloser{lr, c}
	}
	return lr
}

type readCloser struct {
	io.Reader
	io.Closer
}

// ── generators ───────────────────────────────────────────────────────

type zeroReader struct{}

func (zeroReader) Read(p []byte) (int, error) {
	clear(p)
	return len(p), nil
}

// keystreamReader produces incompressible bytes from a chacha20
// keystream under a random key.
type keystreamReader struct {
	c    *chacha20.Cipher
	left int64
}

func (r *keystreamReader) rekey() error {
	key := make([]byte, chacha20.KeySize)
	if _, err := rand.Read(key); err != nil {
		return fmt.Errorf("payload key: %w", err)
	}
	c, err := chacha20.NewUnauthenticatedCipher(key, make([]byte, chacha20.NonceSize))
	if err != nil {
		return fmt.Errorf("payload cipher: %w", err)
	}
	r.c, r.left = c, rekeyEvery
	return nil
}

func (r *keystreamReader) Read(p []byte) (int, error) {
	if r.left <= 0 {
		if err := r.rekey(); err != nil {
			return 0, err
		}
	}
	if int64(len(p)) > r.left {
		p = p[:r.left]
	}
	clear(p)
	r.c.XORKeyStream(p, p)
	r.left -= int64(len(p))
	return len(p), nil
}

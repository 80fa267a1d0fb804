package util

import (
	"bytes"
	"context"
	"testing"
)

// BenchmarkSpray measures the read-and-offer loop that drives every
// session.
func BenchmarkSpray(b *testing.B) {
	payload := bytes.Repeat([]byte("X"), 1<<20)
	buf := make([]byte, DefaultBufSize)
	w := &truncatingWriter{limit: 1024}

	b.SetBytes(int64(len(payload)))
	b.ResetTimer()

	for i := 0; i < b.N; i++ {
		Spray(context.Background(), w, bytes.NewReader(payload), buf) //nolint:errcheck
	}
}

// BenchmarkBufPool measures the allocation advantage of sync.Pool
// buffer reuse versus fresh allocation.
func BenchmarkBufPool(b *testing.B) {
	p := NewBufPool(DefaultBufSize)
	b.Run("pool", func(b *testing.B) {
		for i := 0; i < b.N; i++ {
			buf := p.Get()
			_ = (*buf)[0]
			p.Put(buf)
		}
	})
	b.Run("alloc", func(b *testing.B) {
		for i := 0; i < b.N; i++ {
			buf := make([]byte, DefaultBufSize)
			_ = buf[0]
		}
	})
}

package util

import "sync"

// BufPool provides reusable chunk buffers of one size, reducing GC
// pressure when several writers spray into the sink at once.
type BufPool struct {
	size int
	pool sync.Pool
}

// NewBufPool returns a pool of size-byte buffers (DefaultBufSize when
// size ≤ 0).
func NewBufPool(size int) *BufPool {
	if size <= 0 {
		size = DefaultBufSize
	}
	p := &BufPool{size: size}
	p.pool.New = func() interface{} {
		buf := make([]byte, size)
		return &buf
	}
	return p
}

// Size returns the length of every buffer handed out by the pool.
func (p *BufPool) Size() int { return p.size }

// Get retrieves a buffer from the pool.  Callers must return it with
// [BufPool.Put] when finished.
func (p *BufPool) Get() *[]byte {
	return p.pool.Get().(*[]byte)
}

// Put returns a buffer to the pool for reuse.  Buffers of the wrong
// size are dropped.
func (p *BufPool) Put(buf *[]byte) {
	if buf == nil || len(*buf) != p.size {
		return
	}
	p.pool.Put(buf)
}

// Package sink implements the fixed-capacity receive buffer behind the
// mull endpoint.
//
// Every accepted write is copied to the start of the buffer and then
// forgotten.  The buffer never grows, never wraps, and is never read
// back; writes longer than its capacity are silently truncated.
package sink

import (
	"fmt"

	ncerr "mull/internal/errors"
)

// MaxCapacity bounds the buffer so a bad tunable cannot exhaust memory.
const MaxCapacity = 1 << 30

// Buffer is a byte region of exactly Capacity bytes, allocated once and
// reused across sessions.  Contents are overwritten, never cleared.
type Buffer struct {
	mem   []byte
	alloc Allocator
}

// NewBuffer allocates a buffer of capacity bytes with alloc (HeapAllocator
// when nil).  Any failure is an *errors.AllocationError.
func NewBuffer(capacity uint64, alloc Allocator) (*Buffer, error) {
	if alloc == nil {
		alloc = HeapAllocator{}
	}
	switch {
	case capacity == 0:
		return nil, ncerr.Allocation(capacity, fmt.Errorf("capacity must be greater than zero"))
	case capacity > MaxCapacity:
		return nil, ncerr.Allocation(capacity, fmt.Errorf("capacity exceeds maximum of %d bytes", MaxCapacity))
	}

	mem, err := alloc.Alloc(int(capacity))
	if err != nil {
		return nil, ncerr.Allocation(capacity, err)
	}
	if uint64(len(mem)) != capacity {
		alloc.Free(mem) //nolint:errcheck
		return nil, ncerr.Allocation(capacity, fmt.Errorf("%s returned %d bytes", alloc, len(mem)))
	}
	return &Buffer{mem: mem, alloc: alloc}, nil
}

// Capacity returns the buffer size in bytes.
func (b *Buffer) Capacity() int { return len(b.mem) }

// Allocator returns the allocator that owns the buffer memory.
func (b *Buffer) Allocator() Allocator { return b.alloc }

// Accept copies min(src.Len(), Capacity) bytes from src into the buffer
// at offset 0 and returns that count.  Truncation is not an error.  If
// the copy faults, Accept returns 0 and an *errors.FaultError.
func (b *Buffer) Accept(src Source) (int, error) {
	n := src.Len()
	if n > len(b.mem) {
		n = len(b.mem)
	}
	if n <= 0 {
		return 0, nil
	}
	if err := src.CopyOut(b.mem[:n]); err != nil {
		return 0, ncerr.Fault("write", err)
	}
	return n, nil
}

// Release hands the memory back to its allocator.  The buffer must not
// be used afterwards; calling Release twice is a no-op.
func (b *Buffer) Release() error {
	if b.mem == nil {
		return nil
	}
	mem := b.mem
	b.mem = nil
	return b.alloc.Free(mem)
}

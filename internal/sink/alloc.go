package sink

// Allocator provides the backing memory for a Buffer.
type Allocator interface {
	// Alloc returns exactly n bytes.
	Alloc(n int) ([]byte, error)
	// Free releases memory obtained from Alloc.
	Free(mem []byte) error
	// String names the allocator in log lines.
	String() string
}

// HeapAllocator backs the buffer with an ordinary Go slice.
type HeapAllocator struct{}

// Alloc implements Allocator.
func (HeapAllocator) Alloc(n int) ([]byte, error) { return make([]byte, n), nil }

// Free implements Allocator.  The garbage collector owns heap memory.
func (HeapAllocator) Free([]byte) error { return nil }

func (HeapAllocator) String() string { return "heap" }

// LockedAllocator backs the buffer with an anonymous mapping that is
// locked into RAM, so writes never touch swap during a benchmark.
type LockedAllocator struct{}

func (LockedAllocator) String() string { return "locked" }

// NewAllocator returns the allocator for the lock-memory setting.
func NewAllocator(lock bool) Allocator {
	if lock {
		return LockedAllocator{}
	}
	return HeapAllocator{}
}

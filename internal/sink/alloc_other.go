//go:build !(linux || darwin || freebsd)

package sink

import "fmt"

// Alloc always fails: locked memory needs mmap and mlock.
func (LockedAllocator) Alloc(int) ([]byte, error) {
	return nil, fmt.Errorf("locked memory is not supported on this platform")
}

// Free is a no-op since Alloc never succeeds.
func (LockedAllocator) Free([]byte) error { return nil }

//go:build linux || darwin || freebsd

package sink

import (
	"fmt"

	"golang.org/x/sys/unix"
)

// Alloc maps n anonymous bytes and locks them into memory.
func (LockedAllocator) Alloc(n int) ([]byte, error) {
	mem, err := unix.Mmap(-1, 0, n, unix.PROT_READ|unix.PROT_WRITE, unix.MAP_ANON|unix.MAP_PRIVATE)
	if err != nil {
		return nil, fmt.Errorf("mmap: %w", err)
	}
	if err := unix.Mlock(mem); err != nil {
		unix.Munmap(mem) //nolint:errcheck
		return nil, fmt.Errorf("mlock: %w", err)
	}
	return mem, nil
}

// Free unlocks and unmaps memory obtained from Alloc.
func (LockedAllocator) Free(mem []byte) error {
	if err := unix.Munlock(mem); err != nil {
		unix.Munmap(mem) //nolint:errcheck
		return fmt.Errorf("munlock: %w", err)
	}
	if err := unix.Munmap(mem); err != nil {
		return fmt.Errorf("munmap: %w", err)
	}
	return nil
}

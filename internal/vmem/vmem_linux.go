//go:build linux

package vmem

import (
	"fmt"

	"golang.org/x/sys/unix"
)

// Reserve claims size bytes of address space with no access rights and no
// swap accounting. Nothing is committed until Commit grants access.
func (OS) Reserve(size int) ([]byte, error) {
	b, err := unix.Mmap(-1, 0, size, unix.PROT_NONE,
		unix.MAP_ANON|unix.MAP_PRIVATE|unix.MAP_NORESERVE)
	if err != nil {
		return nil, fmt.Errorf("vmem: reserve %d bytes: %w", size, err)
	}
	return b, nil
}

// Commit grants read/write access to a reserved sub-range. The kernel
// zero-fills anonymous pages on first touch, so committed bytes read as zero.
func (OS) Commit(b []byte) error {
	if len(b) == 0 {
		return nil
	}
	if err := unix.Mprotect(b, unix.PROT_READ|unix.PROT_WRITE); err != nil {
		return fmt.Errorf("vmem: commit %d bytes: %w", len(b), err)
	}
	return nil
}

// Decommit revokes access and releases the physical backing. MADV_DONTNEED
// drops the pages immediately; if the range is committed again it reads as
// zero.
func (OS) Decommit(b []byte) error {
	if len(b) == 0 {
		return nil
	}
	if err := unix.Mprotect(b, unix.PROT_NONE); err != nil {
		return fmt.Errorf("vmem: decommit %d bytes: %w", len(b), err)
	}
	if err := unix.Madvise(b, unix.MADV_DONTNEED); err != nil {
		return fmt.Errorf("vmem: decommit %d bytes: %w", len(b), err)
	}
	return nil
}

// Release unmaps an entire reserved range. b must be the slice returned by
// Reserve.
func (OS) Release(b []byte) error {
	if len(b) == 0 {
		return nil
	}
	if err := unix.Munmap(b); err != nil {
		return fmt.Errorf("vmem: release %d bytes: %w", len(b), err)
	}
	return nil
}

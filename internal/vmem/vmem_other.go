//go:build !linux && !darwin && !freebsd && !netbsd && !openbsd && !dragonfly && !windows

package vmem

// Heap emulation for platforms without usable mmap/mprotect. Reservations
// are ordinary allocations and nothing faults on out-of-range access.

func (OS) Reserve(size int) ([]byte, error) { return Heap{}.Reserve(size) }

func (OS) Commit(b []byte) error { return Heap{}.Commit(b) }

func (OS) Decommit(b []byte) error { return Heap{}.Decommit(b) }

func (OS) Release(b []byte) error { return Heap{}.Release(b) }

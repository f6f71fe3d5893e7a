package vmem

import "fmt"

// heapPageSize is fixed so commit-accounting behavior is identical on every
// platform, independent of the host page size.
const heapPageSize = 4096

// Heap is a pure-Go provider backed by ordinary slices. Commit and Decommit
// clear the range instead of changing protections, which preserves the
// committed-bytes-read-as-zero contract but cannot trap stray access.
// The zero value is ready to use.
type Heap struct{}

// Reserve allocates a size-byte slice standing in for an address-space
// reservation.
func (Heap) Reserve(size int) ([]byte, error) {
	if size <= 0 {
		return nil, fmt.Errorf("vmem: reserve %d bytes: invalid size", size)
	}
	return make([]byte, size), nil
}

// Commit clears the range so it reads as zero, like freshly committed pages.
func (Heap) Commit(b []byte) error {
	clear(b)
	return nil
}

// Decommit clears the range so stale contents never survive a recommit.
func (Heap) Decommit(b []byte) error {
	clear(b)
	return nil
}

// Release drops the reservation; the garbage collector reclaims it.
func (Heap) Release(b []byte) error { return nil }

// PageSize reports the emulated commit granularity.
func (Heap) PageSize() int { return heapPageSize }

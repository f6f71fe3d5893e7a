package arena

import (
	"unsafe"

	"github.com/joshuapare/memkit/internal/bin"
)

// Realloc resizes the allocation identified by old to newSize bytes aligned
// to align, returning the block for the new range.
//
// The tail allocation is resized in place and keeps its offset. Any other
// block is relocated: a fresh tail block is allocated, min(old, new) bytes
// are copied over, and the old range stays occupied until Clear or Release.
// Relocated growth beyond the copied bytes reads as zero. A newSize of zero
// frees a tail block outright and abandons an interior one, returning the
// null block with ok true. A null old block performs a plain allocation.
//
// ok is false when the growth or relocation does not fit or the page commit
// fails; the arena is unchanged and old remains valid. Realloc panics when
// old is null and newSize is zero (an incoherent request), and when align
// is not a power of two.
func (a *Arena) Realloc(old Block, newSize, align int) (Block, bool) {
	a.assertLive()
	checkAlign(align)
	if newSize < 0 {
		panic("arena: negative size")
	}
	if old.IsNull() {
		if newSize == 0 {
			panic("arena: realloc of the null block to zero size")
		}
		nb := a.Alloc(newSize, align)
		return nb, !nb.IsNull()
	}
	if a.isTail(old) {
		if !a.Resize(&old, newSize) {
			return Block{}, false
		}
		return old, true
	}
	if newSize == 0 {
		// Interior blocks cannot be reclaimed; abandon the range.
		return Block{}, true
	}
	nb := a.Alloc(newSize, align)
	if nb.IsNull() {
		return Block{}, false
	}
	copy(a.Bytes(nb), a.Bytes(old)[:min(old.size, newSize)])
	return nb, true
}

// AllocItems allocates count elements of T, zeroed and aligned for T.
// It returns the null block and false when count is not positive, the byte
// size overflows, or the arena cannot satisfy the request.
func AllocItems[T any](a *Arena, count int) (Block, bool) {
	var zero T
	size, ok := bin.MulOverflowSafe(count, int(unsafe.Sizeof(zero)))
	if !ok {
		return Block{}, false
	}
	b := a.Alloc(size, int(unsafe.Alignof(zero)))
	return b, !b.IsNull()
}

// ReallocItems resizes a typed allocation to newCount elements of T; the
// old element count is implied by old.Len. A newCount of zero carries
// Realloc's free semantics.
func ReallocItems[T any](a *Arena, old Block, newCount int) (Block, bool) {
	var zero T
	size, ok := bin.MulOverflowSafe(newCount, int(unsafe.Sizeof(zero)))
	if !ok {
		return Block{}, false
	}
	return a.Realloc(old, size, int(unsafe.Alignof(zero)))
}

// Items returns the typed view of a block holding elements of T, derived
// from the block's byte length. The view stays valid under the same
// conditions as Bytes. Items returns nil for the null block.
//
// T must not contain Go pointers: arena memory is invisible to the garbage
// collector, so pointers stored there do not keep their referents alive.
func Items[T any](a *Arena, b Block) []T {
	raw := a.Bytes(b)
	if raw == nil {
		return nil
	}
	var zero T
	esz := int(unsafe.Sizeof(zero))
	if esz == 0 {
		return nil
	}
	return unsafe.Slice((*T)(unsafe.Pointer(&raw[0])), len(raw)/esz)
}

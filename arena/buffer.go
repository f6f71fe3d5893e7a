package arena

import "github.com/joshuapare/memkit/internal/bin"

// A Buf is a growable typed array backed by a single arena allocation. The
// zero value is an empty buffer ready for use. Methods take the owning
// arena explicitly; every growing method reports whether it could claim the
// space and leaves the buffer untouched when it could not.
//
// Capacity grows in powers of two through Realloc: while the buffer happens
// to be the arena's tail allocation it grows in place, otherwise it
// relocates and the old range stays occupied until the arena is cleared.
// As with Items, the element type must not contain Go pointers.
type Buf[T any] struct {
	block Block
	len   int
	cap   int
}

// Len returns the number of live elements.
func (b *Buf[T]) Len() int { return b.len }

// Cap returns the element capacity of the backing block.
func (b *Buf[T]) Cap() int { return b.cap }

// Block returns the backing allocation token. It is the null block until
// the first successful growth.
func (b *Buf[T]) Block() Block { return b.block }

// Items returns the live elements [0, Len). The slice stays valid until the
// buffer grows or is freed, or the arena is cleared or released.
func (b *Buf[T]) Items(a *Arena) []T {
	return Items[T](a, b.block)[:b.len]
}

// EnsureCapacity grows the backing block until at least total elements fit.
// It is a no-op returning true when the capacity already suffices. With a
// nil arena it only reports whether the capacity suffices, for buffers that
// must not grow. After growth the capacity is the smallest power of two
// that holds total elements. On failure the buffer is unchanged and
// EnsureCapacity returns false; the block and capacity update only on
// success.
func (b *Buf[T]) EnsureCapacity(a *Arena, total int) bool {
	if total <= b.cap {
		return true
	}
	if a == nil {
		return false
	}
	newCap := ceilPow2(total)
	if newCap < total {
		return false
	}
	nb, ok := ReallocItems[T](a, b.block, newCap)
	if !ok {
		return false
	}
	b.block = nb
	b.cap = newCap
	return true
}

// Reserve ensures room for extra more elements beyond the current length.
func (b *Buf[T]) Reserve(a *Arena, extra int) bool {
	total, ok := bin.AddOverflowSafe(b.len, extra)
	if !ok {
		return false
	}
	return b.EnsureCapacity(a, total)
}

// Push appends v, growing the buffer as needed. Push returns false when the
// growth fails, leaving the buffer unchanged.
func (b *Buf[T]) Push(a *Arena, v T) bool {
	if !b.Reserve(a, 1) {
		return false
	}
	items := Items[T](a, b.block)
	items[b.len] = v
	b.len++
	return true
}

// Insert places v at index at, shifting [at, Len) one slot right; inserting
// at Len appends. at must be in [0, Len], anything else panics. Insert
// returns false when the growth fails, leaving the buffer unchanged.
func (b *Buf[T]) Insert(a *Arena, v T, at int) bool {
	if at < 0 || at > b.len {
		panic("arena: insert index out of range")
	}
	if !b.Reserve(a, 1) {
		return false
	}
	items := Items[T](a, b.block)
	copy(items[at+1:b.len+1], items[at:b.len])
	items[at] = v
	b.len++
	return true
}

// Free releases the backing block and resets the buffer to its zero value.
// The block is truly freed when it is the arena's tail allocation and
// abandoned until Clear or Release otherwise.
func (b *Buf[T]) Free(a *Arena) {
	if !b.block.IsNull() {
		a.Realloc(b.block, 0, 1)
	}
	*b = Buf[T]{}
}

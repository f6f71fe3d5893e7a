package arena

import "github.com/joshuapare/memkit/internal/bin"

// Alloc claims size bytes at an offset aligned to align and returns the
// block identifying them. The returned bytes read as zero. Alloc returns
// the null block when size is not positive, when the aligned request does
// not fit in the remaining capacity, or when the provider cannot commit the
// pages; the arena is unchanged in every failure case. align must be a
// power of two; anything else panics.
func (a *Arena) Alloc(size, align int) Block {
	a.assertLive()
	mask := checkAlign(align)
	if size <= 0 {
		return Block{}
	}
	start, ok := bin.AddOverflowSafe(a.length, mask)
	if !ok {
		return Block{}
	}
	start &= ^mask
	end, ok := bin.AddOverflowSafe(start, size)
	if !ok || end > a.capacity {
		return Block{}
	}

	prev := a.length
	a.length = end
	if err := a.syncCommit(); err != nil {
		a.length = prev
		return Block{}
	}
	return Block{off: start, size: size}
}

// isTail reports whether b is the most recent allocation, meaning its end
// coincides with the watermark. A block reaching past the watermark was not
// minted by this arena in its current state; that is corrupted bookkeeping
// and panics.
func (a *Arena) isTail(b Block) bool {
	if b.off < 0 || b.end() > a.length {
		panic("arena: block outside the live region")
	}
	return b.end() == a.length
}

// Free undoes the most recent allocation. It succeeds only when b is the
// tail allocation: the watermark moves back, pages above it are decommitted
// (or re-zeroed when decommit is disabled), and *b becomes the null block.
// Freeing the null block or an interior allocation returns false and
// changes nothing; interior allocations stay occupied until Clear or
// Release.
func (a *Arena) Free(b *Block) bool {
	a.assertLive()
	if b == nil || b.IsNull() || !a.isTail(*b) {
		return false
	}
	a.shrinkTo(b.off)
	*b = Block{}
	return true
}

// Resize changes the length of the tail allocation in place, keeping its
// offset. Growth draws from the remaining capacity and the new bytes read
// as zero; shrinking moves the watermark down and releases pages like Free.
// Resizing to zero frees the block and sets *b to the null block. Resize
// returns false when b is the null block, not the tail allocation, or the
// growth does not fit; the arena and *b are unchanged in that case.
// Negative newSize panics.
func (a *Arena) Resize(b *Block, newSize int) bool {
	a.assertLive()
	if newSize < 0 {
		panic("arena: negative size")
	}
	if b == nil || b.IsNull() || !a.isTail(*b) {
		return false
	}
	switch {
	case newSize < b.size:
		a.shrinkTo(b.off + newSize)
	case newSize > b.size:
		if newSize-b.size > a.capacity-a.length {
			return false
		}
		prev := a.length
		a.length = b.off + newSize
		if err := a.syncCommit(); err != nil {
			a.length = prev
			return false
		}
	}
	if newSize == 0 {
		*b = Block{}
	} else {
		b.size = newSize
	}
	return true
}

// Available returns the bytes remaining for new allocations: Cap minus Len.
func (a *Arena) Available() int {
	a.assertLive()
	return a.capacity - a.length
}

// Bytes returns the byte view of a live block. The view stays valid until
// the block is freed or resized away, or the arena is cleared or released.
// Bytes returns nil for the null block and panics for a block outside the
// live region.
func (a *Arena) Bytes(b Block) []byte {
	a.assertLive()
	if b.IsNull() {
		return nil
	}
	if b.off < 0 || b.end() > a.length {
		panic("arena: block outside the live region")
	}
	return a.data[b.off:b.end():b.end()]
}

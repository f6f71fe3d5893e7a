package arena

// A Block identifies one allocation: an offset from the arena's user-region
// base and a length in bytes. Blocks are minted by Alloc and Realloc and are
// only meaningful for the arena that produced them, while their range still
// lies inside the live region. The zero value is the null block, identifying
// no allocation.
type Block struct {
	off  int
	size int
}

// Offset returns the block's offset from the arena base.
func (b Block) Offset() int { return b.off }

// Len returns the block's length in bytes. The null block has length 0.
func (b Block) Len() int { return b.size }

// IsNull reports whether b identifies no allocation.
func (b Block) IsNull() bool { return b.size == 0 }

// end returns the offset one past the block's last byte.
func (b Block) end() int { return b.off + b.size }

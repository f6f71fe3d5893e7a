package arena

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestAllocBumpsAlignedWatermark(t *testing.T) {
	a := newTestArena(t, Options{AvailSize: 1 * MiB})

	b1 := a.Alloc(10, 1)
	require.Equal(t, 0, b1.Offset())
	require.Equal(t, 10, a.Len())

	// The next offset rounds up to the requested alignment.
	b2 := a.Alloc(32, 16)
	require.Equal(t, 16, b2.Offset())
	require.Equal(t, 48, a.Len())

	b3 := a.Alloc(1, 1)
	require.Equal(t, 48, b3.Offset())
	require.Equal(t, 49, a.Len())

	require.Equal(t, a.Cap()-a.Len(), a.Available())
}

func TestAllocReturnsZeroedBytes(t *testing.T) {
	a := newTestArena(t, Options{AvailSize: 64 * KiB})

	b := a.Alloc(3*testPage+123, 8)
	require.False(t, b.IsNull())
	requireAllZero(t, a.Bytes(b))
}

func TestAllocRejectsDegenerateSizes(t *testing.T) {
	a := newTestArena(t, Options{AvailSize: 64 * KiB})

	require.True(t, a.Alloc(0, 1).IsNull())
	require.True(t, a.Alloc(-5, 8).IsNull())
	require.Zero(t, a.Len())
	require.Panics(t, func() { a.Alloc(8, 3) })
}

func TestAllocFailsWhenCapacityExceeded(t *testing.T) {
	a := newTestArena(t, Options{AvailSize: 2 * testPage})

	require.True(t, a.Alloc(2*testPage+1, 1).IsNull())
	require.Zero(t, a.Len())

	// Alignment padding counts against capacity too.
	require.False(t, a.Alloc(10, 1).IsNull())
	require.True(t, a.Alloc(2*testPage-8, 16).IsNull())
	require.Equal(t, 10, a.Len())
}

func TestFreeTailOnly(t *testing.T) {
	a := newTestArena(t, Options{AvailSize: 1 * MiB})

	first := a.Alloc(1024, 8)
	second := a.Alloc(256, 8)
	require.Equal(t, 1280, a.Len())

	// An interior block cannot be freed; nothing changes.
	require.False(t, a.Free(&first))
	require.Equal(t, 1280, a.Len())
	require.False(t, first.IsNull())

	// The tail block can; the watermark returns to its start.
	require.True(t, a.Free(&second))
	require.True(t, second.IsNull())
	require.Equal(t, 1024, a.Len())

	// Now first is the tail.
	require.True(t, a.Free(&first))
	require.Zero(t, a.Len())
	require.Equal(t, a.Cap(), a.Available())
}

func TestFreeNullAndNilAreSoftFailures(t *testing.T) {
	a := newTestArena(t, Options{AvailSize: 64 * KiB})
	a.Alloc(64, 8)

	var null Block
	require.False(t, a.Free(&null))
	require.False(t, a.Free(nil))
	require.Equal(t, 64, a.Len())
}

func TestFreeForeignBlockPanics(t *testing.T) {
	a := newTestArena(t, Options{AvailSize: 64 * KiB})
	a.Alloc(64, 8)

	// A token reaching past the watermark cannot have been minted here.
	stale := Block{off: 32, size: 64}
	require.Panics(t, func() { a.Free(&stale) })

	forged := Block{off: -8, size: 8}
	require.Panics(t, func() { a.Free(&forged) })
}

func TestFreeWithinCommittedPageZeroesFreedBytes(t *testing.T) {
	tests := []struct {
		name       string
		unsafeMode bool
	}{
		{"safe", false},
		{"unsafe", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := newTestArena(t, Options{AvailSize: 64 * KiB, Unsafe: tt.unsafeMode})

			a.Alloc(100, 1)
			b := a.Alloc(50, 1)
			buf := a.Bytes(b)
			for i := range buf {
				buf[i] = 0xFF
			}

			// The freed range sits inside the last committed page, so no
			// pages move; the bytes must still come back zeroed.
			require.True(t, a.Free(&b))
			require.Equal(t, testPage, a.Committed())

			reuse := a.Alloc(50, 1)
			require.Equal(t, 100, reuse.Offset())
			requireAllZero(t, a.Bytes(reuse))
		})
	}
}

func TestResizeGrowsAndShrinksInPlace(t *testing.T) {
	a := newTestArena(t, Options{AvailSize: 1 * MiB})

	b := a.Alloc(512, 8)
	require.True(t, a.Resize(&b, 2048))
	require.Equal(t, 0, b.Offset())
	require.Equal(t, 2048, b.Len())
	require.Equal(t, 2048, a.Len())

	// Bytes exposed by growth read as zero.
	requireAllZero(t, a.Bytes(b))

	require.True(t, a.Resize(&b, 100))
	require.Equal(t, 100, b.Len())
	require.Equal(t, 100, a.Len())

	// Resizing to the same size is a no-op.
	require.True(t, a.Resize(&b, 100))
	require.Equal(t, 100, a.Len())
}

func TestResizeToZeroFrees(t *testing.T) {
	a := newTestArena(t, Options{AvailSize: 64 * KiB})

	b := a.Alloc(4096, 8)
	require.True(t, a.Resize(&b, 0))
	require.True(t, b.IsNull())
	require.Zero(t, a.Len())
}

func TestResizeRegrowthReadsZero(t *testing.T) {
	a := newTestArena(t, Options{AvailSize: 64 * KiB})

	b := a.Alloc(2*testPage, 8)
	buf := a.Bytes(b)
	for i := range buf {
		buf[i] = 0x7E
	}

	require.True(t, a.Resize(&b, 100))
	require.True(t, a.Resize(&b, 2*testPage))
	requireAllZero(t, a.Bytes(b)[100:])
}

func TestResizeWithinCommittedPageRegrowsZeroed(t *testing.T) {
	tests := []struct {
		name       string
		unsafeMode bool
	}{
		{"safe", false},
		{"unsafe", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := newTestArena(t, Options{AvailSize: 64 * KiB, Unsafe: tt.unsafeMode})

			// Shrink and regrow without ever crossing a page boundary.
			b := a.Alloc(200, 1)
			buf := a.Bytes(b)
			for i := range buf {
				buf[i] = 0x7E
			}

			require.True(t, a.Resize(&b, 100))
			require.True(t, a.Resize(&b, 200))
			require.Equal(t, byte(0x7E), a.Bytes(b)[0])
			requireAllZero(t, a.Bytes(b)[100:])
		})
	}
}

func TestResizeFailsBeyondCapacity(t *testing.T) {
	a := newTestArena(t, Options{AvailSize: 4096})

	b := a.Alloc(4096, 1)
	require.False(t, b.IsNull())

	require.False(t, a.Resize(&b, 4097))
	require.Equal(t, 4096, b.Len())
	require.Equal(t, 4096, a.Len())
	require.Zero(t, a.Available())
}

func TestResizeNonTailFails(t *testing.T) {
	a := newTestArena(t, Options{AvailSize: 64 * KiB})

	first := a.Alloc(128, 8)
	a.Alloc(128, 8)

	require.False(t, a.Resize(&first, 64))
	require.Equal(t, 128, first.Len())
	require.Equal(t, 256, a.Len())

	var null Block
	require.False(t, a.Resize(&null, 64))
	require.Panics(t, func() { a.Resize(&first, -1) })
}

func TestBytesViews(t *testing.T) {
	a := newTestArena(t, Options{AvailSize: 64 * KiB})

	b := a.Alloc(16, 8)
	buf := a.Bytes(b)
	require.Len(t, buf, 16)
	buf[0] = 0x42
	require.Equal(t, byte(0x42), a.Bytes(b)[0])

	require.Nil(t, a.Bytes(Block{}))

	a.Free(&b)
	stale := Block{off: 0, size: 16}
	require.Panics(t, func() { a.Bytes(stale) })
}

// The end-to-end walk from the allocator's contract: a fresh arena serves a
// typed allocation, frees it as the tail, and accounts for every byte.
func TestEndToEndTypedAllocation(t *testing.T) {
	a := newTestArena(t, Options{AvailSize: 1 * MiB})

	blk, ok := AllocItems[uint32](a, 128)
	require.True(t, ok)
	require.Equal(t, 512, blk.Len())
	require.Equal(t, 0, blk.Offset())
	require.Equal(t, 512, a.Len())
	require.Equal(t, 1*MiB-512, a.Available())

	items := Items[uint32](a, blk)
	require.Len(t, items, 128)
	for i := range items {
		require.Zero(t, items[i])
		items[i] = uint32(i)
	}

	require.True(t, a.Free(&blk))
	require.Zero(t, a.Len())
	require.Equal(t, 1*MiB, a.Available())
}

// Package arena implements a linear allocator over reserved virtual address
// space, with a growable typed buffer layer on top.
//
// # Overview
//
// An Arena reserves a large contiguous address range up front and hands out
// pieces of it by bumping a watermark. Physical memory follows the
// watermark: pages are committed as allocations advance and decommitted as
// frees and shrinks retreat, so a mostly-empty arena costs address space,
// not RAM. Callers get stable offsets, zero-filled bytes, and O(1)
// allocation with no per-object bookkeeping.
//
// The trade-off is the freeing discipline: only the most recent allocation
// can be freed or resized in place. Anything older stays occupied until the
// whole arena is reset. This fits phase-structured workloads such as parsers
// and per-request scratch space that build state up and tear it down at once.
//
// # Lifecycle
//
//	a, err := arena.Reserve(arena.Options{AvailSize: 64 * arena.MiB})
//	if err != nil {
//		return err
//	}
//	defer a.Release()
//
//	b := a.Alloc(512, 8)        // 512 zeroed bytes, 8-byte aligned
//	buf := a.Bytes(b)           // view of those bytes
//	a.Free(&b)                  // undo the tail allocation
//	a.Clear()                   // reset everything, decommit user pages
//
// The first page of the reservation is a control page holding the arena's
// serialized control block; it stays committed for the arena's lifetime.
// Capacity accounting covers only the user region after it.
//
// # Blocks
//
// Allocations are identified by Block tokens (offset plus length) rather
// than pointers. A Block belongs to the arena that minted it and is valid
// while its range lies inside the live region. Freeing or resizing any
// block other than the tail allocation returns false and leaks the range
// until Clear or Release; that is the intended wholesale-reclaim model, not
// an error.
//
// # Buffers
//
// Buf[T] is a growable array backed by a single arena allocation. Its
// capacity grows in powers of two through Realloc, which grows in place
// while the buffer is the arena's tail allocation and relocates otherwise.
// Buffer memory, like all arena memory, is invisible to the garbage
// collector: element types must not contain Go pointers.
//
//	var names arena.Buf[uint32]
//	names.Push(a, 42)
//	names.Insert(a, 7, 0)
//
// # Unsafe mode
//
// Options.Unsafe keeps pages committed when the watermark retreats,
// re-zeroing the retained bytes instead of decommitting them. Oscillating
// workloads skip the protection-switch churn; the cost is that freed pages
// keep their physical backing.
//
// # Failure model
//
// Resource exhaustion is an ordinary result: Alloc returns the null block,
// Resize and the buffer methods return false, Reserve returns an error. The
// arena is unchanged after any failed operation. Misuse panics: a
// non-power-of-two alignment, a negative size, a block reaching past the
// watermark, or use after Release.
//
// # Thread safety
//
// An Arena is not safe for concurrent use. Callers that share one must
// synchronize externally; independent arenas are independent.
package arena

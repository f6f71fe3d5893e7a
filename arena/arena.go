package arena

import (
	"fmt"

	"github.com/joshuapare/memkit/internal/bin"
	"github.com/joshuapare/memkit/internal/vmem"
)

// Provider grants and revokes access to reserved address ranges. The arena
// drives it through a single synchronization point, so implementations only
// ever see page-aligned, non-overlapping ranges inside one reservation.
//
// vmem.OS is the platform implementation; vmem.Heap is a deterministic
// pure-Go one used by tests.
type Provider interface {
	// Reserve claims size bytes of address space with no access rights.
	Reserve(size int) ([]byte, error)

	// Commit grants read/write access to a sub-range of a reservation.
	// Committed bytes must read as zero.
	Commit(b []byte) error

	// Decommit revokes access to a sub-range and releases its physical
	// backing.
	Decommit(b []byte) error

	// Release unmaps an entire reserved range.
	Release(b []byte) error

	// PageSize reports the commit granularity in bytes (a power of two).
	PageSize() int
}

var (
	_ Provider = vmem.OS{}
	_ Provider = vmem.Heap{}
)

// Options configures Reserve.
//
// Exactly one of TotalSize and AvailSize may be zero; it is then derived
// from the other. The reservation carries one control page in front of the
// usable capacity, so TotalSize = AvailSize + page size.
type Options struct {
	// TotalSize is the size of the whole reservation in bytes, including
	// the control page.
	TotalSize int

	// AvailSize is the usable capacity in bytes.
	AvailSize int

	// Unsafe keeps freed pages committed: shrinking skips the decommit and
	// re-zeroes the retained bytes instead. This trades physical memory for
	// fewer protection switches when the watermark oscillates.
	Unsafe bool

	// Provider supplies the virtual-memory operations. Nil selects the
	// platform default.
	Provider Provider
}

// Control block layout. The first page of every reservation is committed at
// Reserve time and carries this block; the user region starts at the next
// page boundary.
const (
	ctrlMagicOff    = 0x00 // 4 bytes
	ctrlVersionOff  = 0x04 // u32
	ctrlFlagsOff    = 0x08 // u32
	ctrlPageOff     = 0x0C // u32, page size
	ctrlCapOff      = 0x10 // u64, usable capacity
	ctrlReservedOff = 0x18 // u64, whole reservation size
)

const (
	ctrlMagic      = "memk"
	ctrlVersion    = 1
	ctrlFlagUnsafe = 1 << 0
)

// An Arena is a linear allocator over one reserved virtual address range.
// Allocation bumps a watermark; only the most recent allocation can be
// undone or resized in place, and everything else is reclaimed wholesale by
// Clear or Release. Pages are committed and decommitted on demand as the
// watermark moves, and every byte an allocation exposes reads as zero.
//
// An Arena is not safe for concurrent use.
type Arena struct {
	vm   Provider
	raw  []byte // whole reservation, control page first
	data []byte // user region: page-aligned window of raw

	length     int // allocation watermark in bytes
	capacity   int // usable bytes
	commit     int // committed user bytes, always page-aligned
	page       int // commit granularity
	noDecommit bool
}

// Reserve claims a virtual address range and returns an empty arena over it.
// Only the control page is committed up front; user pages are committed as
// allocations move the watermark. The provider reservation failure and any
// invalid size combination are returned as errors.
func Reserve(opts Options) (*Arena, error) {
	vm := opts.Provider
	if vm == nil {
		vm = vmem.Default()
	}
	page := vm.PageSize()

	total, avail := opts.TotalSize, opts.AvailSize
	switch {
	case total == 0 && avail == 0:
		return nil, ErrNoSize
	case total < 0 || avail < 0:
		return nil, ErrSizeTooSmall
	case avail == 0:
		if total <= page {
			return nil, ErrSizeTooSmall
		}
		avail = total - page
	case total == 0:
		sum, ok := bin.AddOverflowSafe(avail, page)
		if !ok {
			return nil, ErrSizeOverflow
		}
		total = sum
	default:
		if total-page < avail {
			return nil, ErrSizeMismatch
		}
	}

	reserve, ok := bin.AddOverflowSafe(total, page-1)
	if !ok {
		return nil, ErrSizeOverflow
	}
	reserve &= ^(page - 1)

	raw, err := vm.Reserve(reserve)
	if err != nil {
		return nil, fmt.Errorf("arena: reserve: %w", err)
	}
	if err := vm.Commit(raw[:page]); err != nil {
		_ = vm.Release(raw)
		return nil, fmt.Errorf("arena: reserve: control page: %w", err)
	}

	a := &Arena{
		vm:         vm,
		raw:        raw,
		data:       raw[page : page+AlignUp(avail, page)],
		capacity:   avail,
		page:       page,
		noDecommit: opts.Unsafe,
	}
	a.writeCtrl(reserve)
	return a, nil
}

// writeCtrl serializes the control block into the first page.
func (a *Arena) writeCtrl(reserved int) {
	p := a.raw
	copy(p[ctrlMagicOff:], ctrlMagic)
	bin.PutU32(p, ctrlVersionOff, ctrlVersion)
	flags := uint32(0)
	if a.noDecommit {
		flags |= ctrlFlagUnsafe
	}
	bin.PutU32(p, ctrlFlagsOff, flags)
	bin.PutU32(p, ctrlPageOff, uint32(a.page))
	bin.PutU64(p, ctrlCapOff, uint64(a.capacity))
	bin.PutU64(p, ctrlReservedOff, uint64(reserved))
}

// checkCtrl verifies the control block still matches the live bookkeeping.
// A mismatch means the control page was scribbled on or the arena state is
// corrupt, and neither can be released safely.
func (a *Arena) checkCtrl() {
	p := a.raw
	flags := uint32(0)
	if a.noDecommit {
		flags |= ctrlFlagUnsafe
	}
	if string(p[ctrlMagicOff:ctrlMagicOff+4]) != ctrlMagic ||
		bin.ReadU32(p, ctrlVersionOff) != ctrlVersion ||
		bin.ReadU32(p, ctrlFlagsOff) != flags ||
		bin.ReadU32(p, ctrlPageOff) != uint32(a.page) ||
		bin.ReadU64(p, ctrlCapOff) != uint64(a.capacity) ||
		bin.ReadU64(p, ctrlReservedOff) != uint64(len(a.raw)) {
		panic("arena: control block corrupted")
	}
}

// assertLive panics when the arena is nil or already released.
func (a *Arena) assertLive() {
	if a == nil || a.raw == nil {
		panic("arena: use of nil or released arena")
	}
}

// syncCommit is the only place commit and decommit decisions are made. It
// reconciles the committed page count with the watermark: shrinking
// decommits the pages above it (unless decommit is disabled), growing
// commits the missing pages. Decommit failure is a bookkeeping defect and
// panics; commit failure is returned so allocation paths can roll back and
// report exhaustion. Re-zeroing freed bytes is the shrink path's job; see
// shrinkTo.
func (a *Arena) syncCommit() error {
	want := AlignUp(a.length, a.page)
	switch {
	case want < a.commit:
		if a.noDecommit {
			want = a.commit
		} else if err := a.vm.Decommit(a.data[want:a.commit]); err != nil {
			panic(fmt.Sprintf("arena: %v", err))
		}
	case want > a.commit:
		if err := a.vm.Commit(a.data[a.commit:want]); err != nil {
			return fmt.Errorf("arena: %w", err)
		}
	}
	a.commit = want
	return nil
}

// shrinkTo lowers the watermark and zeroes the freed bytes that remain
// committed, so bytes between the watermark and the commit boundary always
// read as zero. That covers shrinks that stay inside the last committed
// page, where no pages move at all; bytes on decommitted pages are zeroed
// by the provider on recommit instead. Shrinking never commits pages, so
// syncCommit cannot fail here.
func (a *Arena) shrinkTo(n int) {
	old := a.length
	a.length = n
	if err := a.syncCommit(); err != nil {
		panic(fmt.Sprintf("arena: %v", err))
	}
	if end := min(old, a.commit); n < end {
		clear(a.data[n:end])
	}
}

// Clear resets the watermark to zero and decommits every user page; the
// control page stays committed. Allocations made afterwards reuse the
// region from offset zero and read as zero.
func (a *Arena) Clear() {
	a.assertLive()
	a.shrinkTo(0)
}

// Release decommits the control page and all committed user bytes, then
// returns the reservation to the provider. The arena must not be used
// afterwards; any further operation panics. A corrupted control block or a
// provider failure panics, since either means the bookkeeping can no longer
// be trusted.
func (a *Arena) Release() {
	a.assertLive()
	a.checkCtrl()
	if err := a.vm.Decommit(a.raw[:a.page+a.commit]); err != nil {
		panic(fmt.Sprintf("arena: release: %v", err))
	}
	if err := a.vm.Release(a.raw); err != nil {
		panic(fmt.Sprintf("arena: release: %v", err))
	}
	a.raw = nil
	a.data = nil
	a.length = 0
	a.capacity = 0
	a.commit = 0
}

// Len returns the allocation watermark in bytes.
func (a *Arena) Len() int {
	a.assertLive()
	return a.length
}

// Cap returns the usable capacity in bytes.
func (a *Arena) Cap() int {
	a.assertLive()
	return a.capacity
}

// Committed returns the number of committed user bytes. It is always a
// multiple of the page size and never less than Len.
func (a *Arena) Committed() int {
	a.assertLive()
	return a.commit
}

// PageSize returns the commit granularity in bytes.
func (a *Arena) PageSize() int {
	a.assertLive()
	return a.page
}

// Unsafe reports whether the arena retains committed pages on shrink.
func (a *Arena) Unsafe() bool {
	a.assertLive()
	return a.noDecommit
}

package arena

import "testing"

func benchArena(b *testing.B, avail int, unsafeMode bool) *Arena {
	b.Helper()
	a, err := Reserve(Options{AvailSize: avail, Unsafe: unsafeMode})
	if err != nil {
		b.Fatalf("reserve: %v", err)
	}
	b.Cleanup(func() { a.Release() })
	return a
}

// benchModes runs decommit-sensitive benchmarks in both shrink modes.
var benchModes = []struct {
	name   string
	unsafe bool
}{
	{"safe", false},
	{"unsafe", true},
}

func BenchmarkAlloc(b *testing.B) {
	a := benchArena(b, 256*MiB, false)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		blk := a.Alloc(64, 8)
		if blk.IsNull() {
			b.StopTimer()
			a.Clear()
			b.StartTimer()
		}
	}
}

// BenchmarkAllocFreeTail pays the shrink cost on every iteration: a page
// decommit in safe mode, a page memset in unsafe mode.
func BenchmarkAllocFreeTail(b *testing.B) {
	for _, m := range benchModes {
		b.Run(m.name, func(b *testing.B) {
			a := benchArena(b, 1*MiB, m.unsafe)

			b.ResetTimer()
			for i := 0; i < b.N; i++ {
				blk := a.Alloc(64, 8)
				a.Free(&blk)
			}
		})
	}
}

// BenchmarkResizeAcrossPage oscillates the tail allocation across a page
// boundary, alternating decommit and commit of the same page.
func BenchmarkResizeAcrossPage(b *testing.B) {
	for _, m := range benchModes {
		b.Run(m.name, func(b *testing.B) {
			a := benchArena(b, 1*MiB, m.unsafe)
			page := a.PageSize()
			blk := a.Alloc(2*page, 8)
			if blk.IsNull() {
				b.Fatal("seed allocation failed")
			}

			b.ResetTimer()
			for i := 0; i < b.N; i++ {
				a.Resize(&blk, page/2)
				a.Resize(&blk, 2*page)
			}
		})
	}
}

func BenchmarkReallocGrowTail(b *testing.B) {
	a := benchArena(b, 256*MiB, false)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		blk := a.Alloc(16, 8)
		if blk, _ = a.Realloc(blk, 64, 8); blk.IsNull() {
			b.StopTimer()
			a.Clear()
			b.StartTimer()
		}
	}
}

func BenchmarkBufPush(b *testing.B) {
	a := benchArena(b, 256*MiB, false)
	var buf Buf[uint64]

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if !buf.Push(a, uint64(i)) {
			b.StopTimer()
			buf.Free(a)
			a.Clear()
			buf = Buf[uint64]{}
			b.StartTimer()
		}
	}
}

func BenchmarkBufInsertFront(b *testing.B) {
	a := benchArena(b, 256*MiB, false)
	var buf Buf[uint64]
	if !buf.Reserve(a, 4096) {
		b.Fatal("reserve buffer")
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if buf.Len() == buf.Cap() {
			b.StopTimer()
			buf.Free(a)
			a.Clear()
			buf = Buf[uint64]{}
			if !buf.Reserve(a, 4096) {
				b.Fatal("reserve buffer")
			}
			b.StartTimer()
		}
		buf.Insert(a, uint64(i), 0)
	}
}

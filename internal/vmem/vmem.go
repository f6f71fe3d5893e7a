// Package vmem provides the virtual-memory operations behind arena
// reservations: claim address space without access rights, commit and
// decommit page ranges, and release whole reservations.
//
// OS is the platform implementation: mmap/mprotect/madvise on unix systems,
// VirtualAlloc/VirtualFree on Windows, and a heap emulation elsewhere. Heap
// is a pure-Go implementation available on every platform for deterministic
// tests. Neither emulation traps stray access outside the committed range;
// only the real platform implementations fault on it.
package vmem

import "os"

// OS is the platform virtual-memory provider. The zero value is ready to use.
type OS struct{}

// Default returns the provider used when none is injected.
func Default() OS { return OS{} }

// PageSize reports the host commit granularity in bytes.
func (OS) PageSize() int { return os.Getpagesize() }

package arena

// Size constants for reservation and capacity arithmetic.
//
// Example:
//
//	a, err := arena.Reserve(arena.Options{AvailSize: 64 * arena.MiB})
const (
	KiB = 1 << (10 * (iota + 1))
	MiB
	GiB
	TiB
	PiB
)

package arena

// Stats is a point-in-time snapshot of arena occupancy, suitable for
// logging and tooling output.
type Stats struct {
	Len       int  // allocation watermark in bytes
	Cap       int  // usable capacity in bytes
	Available int  // Cap - Len
	Committed int  // committed user bytes
	Reserved  int  // whole reservation, control page included
	PageSize  int  // commit granularity
	Unsafe    bool // committed pages retained on shrink
}

// Stats returns a snapshot of the arena's occupancy counters.
func (a *Arena) Stats() Stats {
	a.assertLive()
	return Stats{
		Len:       a.length,
		Cap:       a.capacity,
		Available: a.capacity - a.length,
		Committed: a.commit,
		Reserved:  len(a.raw),
		PageSize:  a.page,
		Unsafe:    a.noDecommit,
	}
}

package arena

import "errors"

var (
	// ErrNoSize indicates that neither TotalSize nor AvailSize was provided.
	ErrNoSize = errors.New("arena: one of TotalSize or AvailSize is required")

	// ErrSizeTooSmall indicates a reservation too small to hold the control
	// page plus any usable capacity.
	ErrSizeTooSmall = errors.New("arena: reservation must exceed one page")

	// ErrSizeMismatch indicates that TotalSize cannot cover AvailSize plus
	// the control page.
	ErrSizeMismatch = errors.New("arena: TotalSize must cover AvailSize plus one control page")

	// ErrSizeOverflow indicates that reservation size arithmetic exceeded
	// the int range.
	ErrSizeOverflow = errors.New("arena: reservation size overflows int")
)

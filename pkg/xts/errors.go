package xts

import "errors"

// Error kinds surfaced by the package. Callers match them with errors.Is;
// the values returned by the API wrap one of these with context.
var (
	// ErrInvalidArgument reports a rejected parameter: a sector size
	// below one block, an undersized output buffer, a data unit shorter
	// than one block at finalization, or a ciphertext-stealing tail that
	// would straddle a sector boundary.
	ErrInvalidArgument = errors.New("xts: invalid argument")

	// ErrOutOfRange reports a coordinate outside its domain, such as a
	// starting block index past the end of the sector.
	ErrOutOfRange = errors.New("xts: out of range")

	// ErrInvalidState reports an operation the cipher cannot perform in
	// its current state: the per-sector byte budget exceeded in
	// independent mode, a 32-bit output size overflowing, or any use
	// after Close.
	ErrInvalidState = errors.New("xts: invalid state")
)

package tessellate

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidEdge indicates a tile edge length that is not a positive number.
	ErrInvalidEdge = errors.New("tile edge length must be positive")

	// ErrEmptyRegion indicates a region that contains no pixels.
	ErrEmptyRegion = errors.New("region contains no pixels")

	// ErrNoTiles indicates a grid left without tiles once its policies are applied.
	ErrNoTiles = errors.New("no tiles left in region")

	// ErrMalformedSelector indicates a removal selector that is not a
	// comma-separated list, a hyphenated range or a single integer.
	ErrMalformedSelector = errors.New("cannot interpret selector, use commas or a dash for a range")

	// ErrPositionOutOfRange indicates a selected position that does not exist in the grid.
	ErrPositionOutOfRange = errors.New("tile position out of range")
)

// SelectorError reports a rejected removal selector. The grid is never
// modified when a SelectorError is returned.
type SelectorError struct {
	Input string
	Err   error
}

func (e *SelectorError) Error() string {
	return fmt.Sprintf("invalid tile selector %q: %v", e.Input, e.Err)
}

func (e *SelectorError) Unwrap() error {
	return e.Err
}

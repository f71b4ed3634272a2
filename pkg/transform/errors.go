package transform

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidFactor indicates a scale factor that is not a positive finite number.
	ErrInvalidFactor = errors.New("scale factor must be positive")

	// ErrInvalidResolution indicates an atlas resolution that is not positive.
	ErrInvalidResolution = errors.New("atlas resolution must be positive")

	// ErrEmptyRegion indicates a region or point set with no pixels.
	ErrEmptyRegion = errors.New("region contains no pixels")

	// ErrEmptyGrid indicates a tile grid with no tiles.
	ErrEmptyGrid = errors.New("tile grid is empty")
)

// CoordinateBoundsError reports a sample requested outside a coordinate image
type CoordinateBoundsError struct {
	X, Y          int
	Width, Height int
}

func (e *CoordinateBoundsError) Error() string {
	return fmt.Sprintf("point (%d, %d) outside coordinate image of %dx%d", e.X, e.Y, e.Width, e.Height)
}

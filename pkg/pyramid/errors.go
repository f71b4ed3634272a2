package pyramid

import (
	"errors"
	"fmt"
)

// ErrEmptyWidths indicates there are no pyramid images to analyze.
var ErrEmptyWidths = errors.New("no image widths to analyze")

// ErrInvalidWidth indicates a width that is not a positive pixel count.
var ErrInvalidWidth = errors.New("image width must be positive")

// ErrMismatchedInput indicates index, depth and width lists that do not describe the same file.
var ErrMismatchedInput = errors.New("pyramid description does not match widths")

// StructureInferenceError reports a slice whose widths do not form a
// pyramid with a constant binning step.
type StructureInferenceError struct {
	Slice  int
	Reason string
}

func (e *StructureInferenceError) Error() string {
	return fmt.Sprintf("cannot infer pyramid structure of slice %d: %s", e.Slice, e.Reason)
}

package models

// ImageDimensionRecord describes one stored image (series) of a multi-resolution
// microscope file as reported by the image reader.
type ImageDimensionRecord struct {
	// Index is the position of the image in the flat series list
	Index int

	// Width is the image width in pixels
	Width int
}

// SliceDescriptor summarises the pyramid of one acquired tissue slice
type SliceDescriptor struct {
	// Number is the 0-based slice number within the file
	Number int

	// PyramidDepth is the number of stored resolution levels for this slice
	PyramidDepth int

	// HighResIndex is the series index of the full-resolution image.
	// The remaining levels follow it in the flat series list, largest first.
	HighResIndex int

	// BinFactor is the ratio between the full-resolution width and the
	// width of the lowest stored level
	BinFactor float64

	// BinStep is the ratio between two adjacent pyramid levels
	BinStep float64

	// StepDeviation is the largest relative difference between any adjacent
	// level ratio of this slice and BinStep. Zero means a perfectly uniform pyramid.
	StepDeviation float64

	// RatioSpread is the coefficient of variation of the adjacent level
	// ratios, 0 for slices with fewer than three levels
	RatioSpread float64
}

// LowResIndex returns the series index of the lowest stored level
func (s SliceDescriptor) LowResIndex() int {
	return s.HighResIndex + s.PyramidDepth - 1
}

// SeriesIndex returns the series index of a level counted from the full
// resolution image (level 0).
func (s SliceDescriptor) SeriesIndex(level int) int {
	return s.HighResIndex + level
}

// Package pyramid infers the per-slice pyramid layout of a multi-resolution
// slide scanner file from the widths of its stored images.
//
// A slide scanner stores every acquired slice as a run of images of strictly
// decreasing width (full resolution first), immediately followed by the next
// slice's run. The file carries no explicit slice metadata, so a width that
// does not decrease is the only boundary signal available.
package pyramid

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"roisplitter/internal/logger"
	"roisplitter/internal/models"
)

// Structure is the partition of a file's series list into slice pyramids
type Structure struct {
	// SliceCount is the number of acquired slices
	SliceCount int

	// Depths holds the number of pyramid levels of each slice, in file order
	Depths []int
}

// PyramidWidths returns the widths of the pyramid images of a file, dropping
// the trailing images that are not part of any slice (label and overview).
func PyramidWidths(records []models.ImageDimensionRecord, trailing int) ([]int, error) {
	if trailing < 0 {
		return nil, fmt.Errorf("trailing image count must be non-negative, got %d", trailing)
	}
	n := len(records) - trailing
	if n <= 0 {
		return nil, fmt.Errorf("%w: %d images with %d trailing", ErrEmptyWidths, len(records), trailing)
	}
	widths := make([]int, n)
	for i := 0; i < n; i++ {
		widths[i] = records[i].Width
	}
	return widths, nil
}

// Analyze partitions widths into slice pyramids.
//
// Widths are scanned left to right; each width smaller than the previous one
// extends the current pyramid. Any other width closes the current pyramid and
// starts a new one, after which the next comparison always extends the new
// pyramid. Input that is not a concatenation of decreasing runs is silently
// partitioned anyway; use AnalyzeStrict to detect it.
func Analyze(widths []int) (Structure, error) {
	if err := checkWidths(widths); err != nil {
		return Structure{}, err
	}

	var depths []int
	previous := math.MaxInt
	counter := 0
	for _, w := range widths {
		if w < previous {
			counter++
			previous = w
			continue
		}
		depths = append(depths, counter)
		counter = 1
		previous = math.MaxInt
	}
	depths = append(depths, counter)

	logger.Debug("pyramid depths %v from %d images", depths, len(widths))
	return Structure{SliceCount: len(depths), Depths: depths}, nil
}

// HighResIndexes returns the series index of the full-resolution image of
// each slice: the running sum of the depths of the slices before it.
func HighResIndexes(depths []int) []int {
	indexes := make([]int, len(depths))
	offset := 0
	for i, d := range depths {
		indexes[i] = offset
		offset += d
	}
	return indexes
}

// BinningFactors computes, for each slice, the ratio between its full
// resolution width and its lowest level width (the binning factor) and the
// ratio between its first two levels (the binning step). Single-level slices
// have a factor and step of 1.
func BinningFactors(highResIndexes, depths, widths []int) ([]float64, []float64, error) {
	if err := checkLayout(highResIndexes, depths, widths); err != nil {
		return nil, nil, err
	}

	factors := make([]float64, len(depths))
	steps := make([]float64, len(depths))
	for i, maxind := range highResIndexes {
		lowind := maxind + depths[i] - 1
		if depths[i] == 1 {
			factors[i], steps[i] = 1, 1
			continue
		}
		factors[i] = float64(widths[maxind]) / float64(widths[lowind])
		steps[i] = float64(widths[maxind]) / float64(widths[maxind+1])
	}
	return factors, steps, nil
}

// StepDeviations measures how far each slice's adjacent level ratios stray
// from its binning step. The result is the largest relative deviation per
// slice; slices with fewer than two levels report 0.
func StepDeviations(highResIndexes, depths, widths []int, steps []float64) ([]float64, error) {
	if err := checkLayout(highResIndexes, depths, widths); err != nil {
		return nil, err
	}
	if len(steps) != len(depths) {
		return nil, fmt.Errorf("%w: %d steps for %d slices", ErrMismatchedInput, len(steps), len(depths))
	}

	deviations := make([]float64, len(depths))
	for i, maxind := range highResIndexes {
		if depths[i] < 2 {
			continue
		}
		ratios := levelRatios(widths[maxind : maxind+depths[i]])
		diffs := make([]float64, len(ratios))
		for k, r := range ratios {
			diffs[k] = math.Abs(r-steps[i]) / steps[i]
		}
		deviations[i] = floats.Max(diffs)
	}
	return deviations, nil
}

// RatioSpreads returns, for each slice, the coefficient of variation
// (sample standard deviation over mean) of its adjacent level ratios.
// Slices with fewer than two ratios report 0.
func RatioSpreads(highResIndexes, depths, widths []int) ([]float64, error) {
	if err := checkLayout(highResIndexes, depths, widths); err != nil {
		return nil, err
	}

	spreads := make([]float64, len(depths))
	for i, maxind := range highResIndexes {
		if depths[i] < 3 {
			continue
		}
		ratios := levelRatios(widths[maxind : maxind+depths[i]])
		mean, std := stat.MeanStdDev(ratios, nil)
		spreads[i] = std / mean
		logger.Debug("slice %d level ratios mean %.4f std %.4f", i, mean, std)
	}
	return spreads, nil
}

// Describe runs the whole analysis and returns one descriptor per slice
func Describe(widths []int) ([]models.SliceDescriptor, error) {
	structure, err := Analyze(widths)
	if err != nil {
		return nil, err
	}
	highRes := HighResIndexes(structure.Depths)
	factors, steps, err := BinningFactors(highRes, structure.Depths, widths)
	if err != nil {
		return nil, err
	}
	deviations, err := StepDeviations(highRes, structure.Depths, widths, steps)
	if err != nil {
		return nil, err
	}
	spreads, err := RatioSpreads(highRes, structure.Depths, widths)
	if err != nil {
		return nil, err
	}

	slices := make([]models.SliceDescriptor, structure.SliceCount)
	for i := range slices {
		slices[i] = models.SliceDescriptor{
			Number:        i,
			PyramidDepth:  structure.Depths[i],
			HighResIndex:  highRes[i],
			BinFactor:     factors[i],
			BinStep:       steps[i],
			StepDeviation: deviations[i],
			RatioSpread:   spreads[i],
		}
	}
	return slices, nil
}

// AnalyzeStrict is Describe with validation: every slice must be strictly
// decreasing and every adjacent level ratio must lie within tolerance
// (relative) of the slice's binning step.
func AnalyzeStrict(widths []int, tolerance float64) ([]models.SliceDescriptor, error) {
	slices, err := Describe(widths)
	if err != nil {
		return nil, err
	}
	for _, s := range slices {
		run := widths[s.HighResIndex : s.HighResIndex+s.PyramidDepth]
		for k := 1; k < len(run); k++ {
			if run[k] >= run[k-1] {
				return nil, &StructureInferenceError{
					Slice:  s.Number,
					Reason: fmt.Sprintf("level %d width %d is not smaller than level %d width %d", k, run[k], k-1, run[k-1]),
				}
			}
		}
		if s.StepDeviation > tolerance {
			return nil, &StructureInferenceError{
				Slice:  s.Number,
				Reason: fmt.Sprintf("level ratios deviate %.1f%% from binning step %.3f (tolerance %.1f%%)", s.StepDeviation*100, s.BinStep, tolerance*100),
			}
		}
	}
	return slices, nil
}

// LevelScale returns the factor that converts coordinates at one level to
// coordinates at a level levelOffset-1 binning steps above it:
// binFactor / binStep^(levelOffset-1).
func LevelScale(binFactor, binStep float64, levelOffset int) float64 {
	return binFactor / math.Pow(binStep, float64(levelOffset-1))
}

// DisplayLevel selects the level counted fromLowest levels up from the
// lowest resolution of a slice (1 = lowest). It returns the series index of
// that level and the factor converting its coordinates to full resolution.
// fromLowest is clamped to the slice's depth.
func DisplayLevel(s models.SliceDescriptor, fromLowest int) (int, float64) {
	if fromLowest > s.PyramidDepth {
		fromLowest = s.PyramidDepth
	}
	if fromLowest < 1 {
		fromLowest = 1
	}
	series := s.HighResIndex + s.PyramidDepth - fromLowest
	return series, LevelScale(s.BinFactor, s.BinStep, fromLowest)
}

func levelRatios(run []int) []float64 {
	ratios := make([]float64, len(run)-1)
	for k := range ratios {
		ratios[k] = float64(run[k]) / float64(run[k+1])
	}
	return ratios
}

func checkWidths(widths []int) error {
	if len(widths) == 0 {
		return ErrEmptyWidths
	}
	for i, w := range widths {
		if w <= 0 {
			return fmt.Errorf("%w: image %d has width %d", ErrInvalidWidth, i, w)
		}
	}
	return nil
}

func checkLayout(highResIndexes, depths, widths []int) error {
	if err := checkWidths(widths); err != nil {
		return err
	}
	if len(highResIndexes) != len(depths) {
		return fmt.Errorf("%w: %d indexes for %d depths", ErrMismatchedInput, len(highResIndexes), len(depths))
	}
	for i, maxind := range highResIndexes {
		if depths[i] < 1 {
			return fmt.Errorf("%w: slice %d has depth %d", ErrMismatchedInput, i, depths[i])
		}
		if maxind < 0 || maxind+depths[i] > len(widths) {
			return fmt.Errorf("%w: slice %d spans images %d..%d of %d", ErrMismatchedInput, i, maxind, maxind+depths[i]-1, len(widths))
		}
	}
	return nil
}

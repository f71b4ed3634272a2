package pyramid

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"roisplitter/internal/models"
)

// makePyramid returns the widths of a power-of-two pyramid of the given depth
func makePyramid(full, depth int) []int {
	widths := make([]int, depth)
	for i := range widths {
		widths[i] = full >> i
	}
	return widths
}

func TestAnalyze_SinglePyramid(t *testing.T) {
	for depth := 1; depth <= 8; depth++ {
		s, err := Analyze(makePyramid(64000, depth))
		require.NoError(t, err)
		assert.Equal(t, 1, s.SliceCount, "depth %d", depth)
		assert.Equal(t, []int{depth}, s.Depths, "depth %d", depth)
	}
}

func TestAnalyze_MultipleSlices(t *testing.T) {
	tests := []struct {
		name   string
		fulls  []int
		depths []int
	}{
		{"two slices", []int{4000, 3000}, []int{4, 2}},
		{"equal first widths", []int{5000, 5000, 5000}, []int{3, 3, 3}},
		{"growing slices", []int{1000, 2000, 8000}, []int{2, 3, 5}},
		{"single level last slice", []int{1000, 2000}, []int{3, 1}},
		{"uneven depths", []int{6000, 6000, 8000}, []int{6, 2, 4}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var widths []int
			for i, full := range tt.fulls {
				widths = append(widths, makePyramid(full, tt.depths[i])...)
			}

			s, err := Analyze(widths)
			require.NoError(t, err)
			assert.Equal(t, len(tt.depths), s.SliceCount)
			assert.Equal(t, tt.depths, s.Depths)

			total := 0
			for _, d := range s.Depths {
				total += d
			}
			assert.Equal(t, len(widths), total)
		})
	}
}

func TestAnalyze_ConcreteScenario(t *testing.T) {
	widths := []int{4000, 2000, 1000, 500, 3000, 1500}

	s, err := Analyze(widths)
	require.NoError(t, err)
	assert.Equal(t, 2, s.SliceCount)
	assert.Equal(t, []int{4, 2}, s.Depths)

	highRes := HighResIndexes(s.Depths)
	assert.Equal(t, []int{0, 4}, highRes)

	factors, steps, err := BinningFactors(highRes, s.Depths, widths)
	require.NoError(t, err)
	assert.Equal(t, 8.0, factors[0])
	assert.Equal(t, 2.0, steps[0])
	assert.Equal(t, 2.0, factors[1])
	assert.Equal(t, 2.0, steps[1])
}

func TestAnalyze_ResetAbsorbsNextWidth(t *testing.T) {
	// After a boundary the next width always extends the new pyramid, even
	// when it is larger than the width that opened it.
	s, err := Analyze([]int{400, 200, 300, 350, 100})
	require.NoError(t, err)
	assert.Equal(t, []int{2, 3}, s.Depths)
}

func TestAnalyze_InvalidInput(t *testing.T) {
	_, err := Analyze(nil)
	assert.ErrorIs(t, err, ErrEmptyWidths)

	_, err = Analyze([]int{100, 0, 50})
	assert.ErrorIs(t, err, ErrInvalidWidth)

	_, err = Analyze([]int{-3})
	assert.ErrorIs(t, err, ErrInvalidWidth)
}

func TestHighResIndexes(t *testing.T) {
	assert.Equal(t, []int{0}, HighResIndexes([]int{5}))
	assert.Equal(t, []int{0, 3, 4, 8}, HighResIndexes([]int{3, 1, 4, 2}))
	assert.Empty(t, HighResIndexes(nil))
}

func TestPyramidWidths(t *testing.T) {
	records := []models.ImageDimensionRecord{
		{Index: 0, Width: 4000}, {Index: 1, Width: 2000},
		{Index: 2, Width: 1200}, {Index: 3, Width: 600},
	}

	widths, err := PyramidWidths(records, 2)
	require.NoError(t, err)
	assert.Equal(t, []int{4000, 2000}, widths)

	_, err = PyramidWidths(records, 4)
	assert.ErrorIs(t, err, ErrEmptyWidths)

	_, err = PyramidWidths(records, -1)
	assert.Error(t, err)
}

func TestBinningFactors_SingleLevelSlice(t *testing.T) {
	widths := []int{800, 400, 200, 900}
	factors, steps, err := BinningFactors([]int{0, 3}, []int{3, 1}, widths)
	require.NoError(t, err)
	assert.Equal(t, []float64{4, 1}, factors)
	assert.Equal(t, []float64{2, 1}, steps)
}

func TestBinningFactors_MismatchedInput(t *testing.T) {
	widths := []int{800, 400, 200}

	_, _, err := BinningFactors([]int{0}, []int{3, 1}, widths)
	assert.ErrorIs(t, err, ErrMismatchedInput)

	_, _, err = BinningFactors([]int{0}, []int{4}, widths)
	assert.ErrorIs(t, err, ErrMismatchedInput)

	_, _, err = BinningFactors([]int{0}, []int{0}, widths)
	assert.ErrorIs(t, err, ErrMismatchedInput)
}

func TestStepDeviations(t *testing.T) {
	// slice 0 is uniform, slice 1 has ratios 2 then 3
	widths := []int{800, 400, 200, 1200, 600, 200}
	depths := []int{3, 3}
	highRes := HighResIndexes(depths)
	_, steps, err := BinningFactors(highRes, depths, widths)
	require.NoError(t, err)

	devs, err := StepDeviations(highRes, depths, widths, steps)
	require.NoError(t, err)
	assert.Equal(t, 0.0, devs[0])
	assert.InDelta(t, 0.5, devs[1], 1e-12)

	_, err = StepDeviations(highRes, depths, widths, steps[:1])
	assert.ErrorIs(t, err, ErrMismatchedInput)
}

func TestRatioSpreads(t *testing.T) {
	// slice 0 is uniform, slice 1 has ratios 2 then 3, slice 2 has one ratio
	widths := []int{800, 400, 200, 1200, 600, 200, 900, 300}
	depths := []int{3, 3, 2}
	highRes := HighResIndexes(depths)

	spreads, err := RatioSpreads(highRes, depths, widths)
	require.NoError(t, err)
	require.Len(t, spreads, 3)
	assert.Equal(t, 0.0, spreads[0])
	assert.InDelta(t, math.Sqrt2/5, spreads[1], 1e-12)
	assert.Equal(t, 0.0, spreads[2])

	_, err = RatioSpreads(highRes, depths[:2], widths)
	assert.ErrorIs(t, err, ErrMismatchedInput)

	slices, err := Describe([]int{1200, 600, 200})
	require.NoError(t, err)
	assert.InDelta(t, math.Sqrt2/5, slices[0].RatioSpread, 1e-12)
}

func TestDescribe(t *testing.T) {
	slices, err := Describe([]int{4000, 2000, 1000, 500, 3000, 1500})
	require.NoError(t, err)
	require.Len(t, slices, 2)

	assert.Equal(t, models.SliceDescriptor{
		Number: 0, PyramidDepth: 4, HighResIndex: 0, BinFactor: 8, BinStep: 2,
	}, slices[0])
	assert.Equal(t, 3, slices[0].LowResIndex())
	assert.Equal(t, 4, slices[1].HighResIndex)
	assert.Equal(t, 5, slices[1].LowResIndex())
	assert.Equal(t, 5, slices[1].SeriesIndex(1))
}

func TestAnalyzeStrict(t *testing.T) {
	_, err := AnalyzeStrict([]int{4000, 2000, 1000, 500, 3000, 1500}, 0.01)
	assert.NoError(t, err)

	// 1000/600 and 600/200 differ from the 2000/1000 step
	_, err = AnalyzeStrict([]int{2000, 1000, 600, 200}, 0.05)
	var sie *StructureInferenceError
	require.True(t, errors.As(err, &sie))
	assert.Equal(t, 0, sie.Slice)
	assert.Contains(t, err.Error(), "deviate")

	// the width after a boundary is absorbed even though it grows
	_, err = AnalyzeStrict([]int{400, 200, 300, 350}, 1.0)
	require.True(t, errors.As(err, &sie))
	assert.Equal(t, 1, sie.Slice)
	assert.Contains(t, err.Error(), "not smaller")
}

func TestLevelScale(t *testing.T) {
	assert.Equal(t, 8.0, LevelScale(8, 2, 1))
	assert.Equal(t, 4.0, LevelScale(8, 2, 2))
	assert.Equal(t, 1.0, LevelScale(8, 2, 4))
	assert.InDelta(t, 16.0/math.Pow(1.5, 2), LevelScale(16, 1.5, 3), 1e-12)
}

func TestDisplayLevel(t *testing.T) {
	s := models.SliceDescriptor{PyramidDepth: 4, HighResIndex: 10, BinFactor: 8, BinStep: 2}

	series, scale := DisplayLevel(s, 2)
	assert.Equal(t, 12, series)
	assert.Equal(t, 4.0, scale)

	series, scale = DisplayLevel(s, 1)
	assert.Equal(t, 13, series)
	assert.Equal(t, 8.0, scale)

	// clamped to the slice depth: the full-resolution image
	series, scale = DisplayLevel(s, 9)
	assert.Equal(t, 10, series)
	assert.Equal(t, 1.0, scale)

	single := models.SliceDescriptor{PyramidDepth: 1, HighResIndex: 3, BinFactor: 1, BinStep: 1}
	series, scale = DisplayLevel(single, 2)
	assert.Equal(t, 3, series)
	assert.Equal(t, 1.0, scale)
}

func BenchmarkDescribe(b *testing.B) {
	var widths []int
	for i := 0; i < 200; i++ {
		widths = append(widths, makePyramid(80000+i, 7)...)
	}
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := Describe(widths); err != nil {
			b.Fatal(err)
		}
	}
}

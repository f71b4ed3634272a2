package tessellate

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"roisplitter/internal/models"
)

// fiveTiles returns a single-row grid t1..t5 with columns 1..5
func fiveTiles() models.TileGrid {
	return models.TileGrid{
		L:       10,
		Corners: []models.Corner{{Col: 1, Row: 0}, {Col: 2, Row: 0}, {Col: 3, Row: 0}, {Col: 4, Row: 0}, {Col: 5, Row: 0}},
	}
}

func TestParseSelector(t *testing.T) {
	tests := []struct {
		input string
		want  []int
	}{
		{"3", []int{3}},
		{" 3 ", []int{3}},
		{"2,4", []int{2, 4}},
		{"2, 4, 5", []int{2, 4, 5}},
		{"4,2,4", []int{4, 2}},
		{"2-4", []int{2, 3, 4}},
		{"5-5", []int{5}},
	}
	for _, tt := range tests {
		got, err := ParseSelector(tt.input, 5)
		require.NoError(t, err, tt.input)
		assert.Equal(t, tt.want, got, tt.input)
	}
}

func TestParseSelector_Malformed(t *testing.T) {
	for _, input := range []string{"", "a", "2,", "2;4", "2-", "-3", "1-2-3", "4-2", "1.5", "2,x"} {
		_, err := ParseSelector(input, 5)
		assert.ErrorIs(t, err, ErrMalformedSelector, "input %q", input)

		var se *SelectorError
		assert.True(t, errors.As(err, &se), "input %q", input)
	}
}

func TestParseSelector_RangeBoundsCheckedFirst(t *testing.T) {
	tests := []string{"1-3000000000", "0-2", "2-4000000000000000000", "3,9000000000"}
	for _, input := range tests {
		start := time.Now()
		got, err := ParseSelector(input, 3)
		assert.ErrorIs(t, err, ErrPositionOutOfRange, input)
		assert.Nil(t, got, input)
		assert.True(t, time.Since(start) < time.Second, input)
	}

	grid := models.TileGrid{L: 10, Corners: []models.Corner{{Col: 0, Row: 0}, {Col: 1, Row: 0}, {Col: 2, Row: 0}}}
	out, err := RemoveTiles(grid, "1-3000000000")
	assert.ErrorIs(t, err, ErrPositionOutOfRange)
	assert.Equal(t, grid, out)
}

func TestRemoveTiles_CommaList(t *testing.T) {
	grid := fiveTiles()

	out, err := RemoveTiles(grid, "2,4")
	require.NoError(t, err)

	assert.Equal(t, []models.Corner{{Col: 1, Row: 0}, {Col: 3, Row: 0}, {Col: 5, Row: 0}}, out.Corners)
	tiles := out.Tiles()
	require.Len(t, tiles, 3)
	for i, tile := range tiles {
		assert.Equal(t, i+1, tile.ID)
	}
	assert.Equal(t, 30.0, tiles[1].X)

	// the input grid is a value and keeps its tiles
	assert.Equal(t, fiveTiles(), grid)
}

func TestRemoveTiles_RangeAndSingle(t *testing.T) {
	out, err := RemoveTiles(fiveTiles(), "2-4")
	require.NoError(t, err)
	assert.Equal(t, []models.Corner{{Col: 1, Row: 0}, {Col: 5, Row: 0}}, out.Corners)

	out, err = RemoveTiles(fiveTiles(), "1")
	require.NoError(t, err)
	assert.Equal(t, []models.Corner{{Col: 2, Row: 0}, {Col: 3, Row: 0}, {Col: 4, Row: 0}, {Col: 5, Row: 0}}, out.Corners)

	out, err = RemoveTiles(fiveTiles(), "1-5")
	require.NoError(t, err)
	assert.Equal(t, 0, out.Len())
}

func TestRemoveTiles_RejectsWithoutMutation(t *testing.T) {
	tests := []struct {
		selector string
		target   error
	}{
		{"two", ErrMalformedSelector},
		{"0", ErrPositionOutOfRange},
		{"6", ErrPositionOutOfRange},
		{"2,9", ErrPositionOutOfRange},
		{"4-7", ErrPositionOutOfRange},
	}

	for _, tt := range tests {
		grid := fiveTiles()
		out, err := RemoveTiles(grid, tt.selector)
		assert.ErrorIs(t, err, tt.target, tt.selector)
		assert.Equal(t, fiveTiles(), out, tt.selector)
		assert.Equal(t, fiveTiles(), grid, tt.selector)
	}
}

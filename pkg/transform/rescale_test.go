package transform

import (
	"image"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"roisplitter/internal/models"
)

func TestRescalePoint(t *testing.T) {
	assert.Equal(t, image.Pt(25, 50), RescalePoint(10, 20, 2.5))
	assert.Equal(t, image.Pt(1, 3), RescalePoint(0.5, 2.5, 1))
	assert.Equal(t, image.Pt(-1, 0), RescalePoint(-0.5, 0, 1))
	assert.Equal(t, image.Pt(768, 1536), RescalePoint(64, 128, 12))
}

func TestRescalePoint_RoundTrip(t *testing.T) {
	points := []image.Point{{0, 0}, {1, 1}, {7, 3}, {123, 456}, {999, 1}}
	factors := []float64{1, 2, 2.5, 8, 12.8, 3.3}

	for _, f := range factors {
		for _, p := range points {
			q := RescalePoint(float64(p.X), float64(p.Y), f)
			r := RescalePoint(float64(q.X), float64(q.Y), 1/f)
			assert.InDelta(t, p.X, r.X, 1, "x of %v with factor %g", p, f)
			assert.InDelta(t, p.Y, r.Y, 1, "y of %v with factor %g", p, f)
		}
	}
}

func TestScaleTiles(t *testing.T) {
	grid := models.TileGrid{L: 64, Corners: []models.Corner{{Col: 1, Row: 0}, {Col: 0, Row: 1}}}

	rects, err := ScaleTiles(grid, 12)
	require.NoError(t, err)
	assert.Equal(t, []TileRect{
		{ID: 1, Rect: image.Rect(768, 0, 1536, 768)},
		{ID: 2, Rect: image.Rect(0, 768, 768, 1536)},
	}, rects)

	_, err = ScaleTiles(grid, 0)
	assert.ErrorIs(t, err, ErrInvalidFactor)
}

func TestScaleTiles_SharedSize(t *testing.T) {
	grid := models.TileGrid{L: 12.3, Corners: []models.Corner{{Col: 1, Row: 1}, {Col: 7, Row: 1}, {Col: 3, Row: 9}}}

	rects, err := ScaleTiles(grid, 3.7)
	require.NoError(t, err)
	for _, r := range rects {
		assert.Equal(t, RescaleLength(12.3, 3.7), r.Rect.Dx())
		assert.Equal(t, RescaleLength(12.3, 3.7), r.Rect.Dy())
	}
}

func TestCropRect(t *testing.T) {
	grid := models.TileGrid{L: 10, Corners: []models.Corner{{Col: 1, Row: 0}, {Col: 2, Row: 1}}}

	r, err := CropRect(grid, 2)
	require.NoError(t, err)
	assert.Equal(t, image.Rect(20, 0, 60, 40), r)

	_, err = CropRect(models.TileGrid{L: 10}, 2)
	assert.ErrorIs(t, err, ErrEmptyGrid)

	_, err = CropRect(grid, -1)
	assert.ErrorIs(t, err, ErrInvalidFactor)
}

func TestScalePolygonVertices(t *testing.T) {
	xs, ys := ScalePolygonVertices([]float64{1.2, 3}, []float64{0.5}, 2)
	assert.Equal(t, []float64{2, 6}, xs)
	assert.Equal(t, []float64{1}, ys)
}

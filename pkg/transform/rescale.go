// Package transform moves tile and region coordinates between pyramid levels
// and between image pixels and a reference atlas.
package transform

import (
	"image"
	"math"

	"roisplitter/internal/models"
)

// TileRect is a numbered tile expressed in integer pixels of a target level
type TileRect struct {
	ID   int
	Rect image.Rectangle
}

// RescalePoint maps a point by the scale factor f, rounding each coordinate
// half away from zero.
func RescalePoint(x, y, f float64) image.Point {
	return image.Pt(int(math.Round(x*f)), int(math.Round(y*f)))
}

// RescaleLength maps a length by the scale factor f with the same rounding as RescalePoint
func RescaleLength(l, f float64) int {
	return int(math.Round(l * f))
}

// ScaleTiles converts every tile of the grid to the level reached by
// multiplying coordinates by f. Tiles keep their 1-based IDs. Each tile's
// edge is rescaled independently from its origin so all tiles share the same size.
func ScaleTiles(g models.TileGrid, f float64) ([]TileRect, error) {
	if !validFactor(f) {
		return nil, ErrInvalidFactor
	}
	size := RescaleLength(g.L, f)
	rects := make([]TileRect, 0, g.Len())
	for _, t := range g.Tiles() {
		origin := RescalePoint(t.X, t.Y, f)
		rects = append(rects, TileRect{
			ID:   t.ID,
			Rect: image.Rectangle{Min: origin, Max: origin.Add(image.Pt(size, size))},
		})
	}
	return rects, nil
}

// CropRect returns the bounding box of all tiles of the grid, mapped to the
// level reached by multiplying coordinates by f.
func CropRect(g models.TileGrid, f float64) (image.Rectangle, error) {
	if !validFactor(f) {
		return image.Rectangle{}, ErrInvalidFactor
	}
	if g.Len() == 0 {
		return image.Rectangle{}, ErrEmptyGrid
	}

	minX, minY := math.Inf(1), math.Inf(1)
	maxX, maxY := math.Inf(-1), math.Inf(-1)
	for _, c := range g.Corners {
		x, y := g.Origin(c)
		minX = math.Min(minX, x)
		minY = math.Min(minY, y)
		maxX = math.Max(maxX, x+g.L)
		maxY = math.Max(maxY, y+g.L)
	}
	return image.Rectangle{
		Min: RescalePoint(minX, minY, f),
		Max: RescalePoint(maxX, maxY, f),
	}, nil
}

// ScalePolygonVertices scales outline vertices by f with rounding, as used
// when a region drawn at one resolution is brought to another.
func ScalePolygonVertices(xs, ys []float64, f float64) ([]float64, []float64) {
	sx := make([]float64, len(xs))
	sy := make([]float64, len(ys))
	for i, v := range xs {
		sx[i] = math.Round(v * f)
	}
	for i, v := range ys {
		sy[i] = math.Round(v * f)
	}
	return sx, sy
}

func validFactor(f float64) bool {
	return f > 0 && !math.IsInf(f, 0)
}

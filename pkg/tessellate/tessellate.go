// Package tessellate covers a region of interest with equally sized square
// tiles aligned to a global grid of pitch L.
//
// Every pixel of the region is snapped down to the grid to find the origin of
// the tile containing it. Origins are kept as integer grid indices, so the
// set used to deduplicate them never compares floating-point values, and the
// result is ordered by row and then by column.
package tessellate

import (
	"image"
	"math"
	"sort"

	"roisplitter/internal/logger"
	"roisplitter/internal/models"
)

// Options selects the tile policies applied after the grid is computed
type Options struct {
	// DropFirstCorner removes the first tile of the ordered grid. The first
	// tile is anchored where the region's top-left boundary crosses the grid
	// and is treated as a flooring artifact. The tile is dropped whatever the
	// shape of the region.
	DropFirstCorner bool

	// CleanCorners keeps only tiles whose four corners are region pixels,
	// discarding tiles that are only partially inside the region.
	CleanCorners bool
}

// DefaultOptions returns the standard policy: drop the first corner, keep
// partially covered tiles.
func DefaultOptions() Options {
	return Options{DropFirstCorner: true}
}

// Tessellate covers roi with tiles of edge L, expressed in the pixel space
// of the level roi is defined in. The result is deterministic: calling it
// again with the same region and edge gives the same ordered grid.
//
// A region lying in a single grid cell yields an empty grid once the first
// corner is dropped. That is not an error here; callers that need at least
// one tile check Len and report ErrNoTiles.
func Tessellate(roi models.Region, L float64, opts Options) (models.TileGrid, error) {
	if !(L > 0) || math.IsInf(L, 0) {
		return models.TileGrid{}, ErrInvalidEdge
	}
	points := roi.ContainedPoints()
	if len(points) == 0 {
		return models.TileGrid{}, ErrEmptyRegion
	}

	corners := Corners(points, L)
	if opts.DropFirstCorner {
		corners = corners[1:]
	}
	if opts.CleanCorners {
		corners = CleanCorners(corners, points, L)
	}
	logger.Debug("region %q: %d pixels, %d tiles of %.2f px", roi.Name, len(points), len(corners), L)
	return models.TileGrid{Corners: corners, L: L}, nil
}

// Corners snaps every point down to the grid of pitch L and returns the
// distinct tile origins ordered by row, then column.
func Corners(points []image.Point, L float64) []models.Corner {
	set := make(map[models.Corner]struct{})
	for _, p := range points {
		c := models.Corner{Col: gridIndex(p.X, L), Row: gridIndex(p.Y, L)}
		set[c] = struct{}{}
	}
	return sortedCorners(set)
}

// CleanCorners keeps the corners whose tile has all four corners on region
// pixels. Corner positions that fall between pixels are tested on the pixel
// containing them.
func CleanCorners(corners []models.Corner, points []image.Point, L float64) []models.Corner {
	inside := make(map[image.Point]struct{}, len(points))
	for _, p := range points {
		inside[p] = struct{}{}
	}
	contains := func(col, row int) bool {
		p := image.Pt(int(math.Floor(float64(col)*L)), int(math.Floor(float64(row)*L)))
		_, ok := inside[p]
		return ok
	}

	kept := make(map[models.Corner]struct{})
	for _, c := range corners {
		if contains(c.Col, c.Row) &&
			contains(c.Col+1, c.Row+1) &&
			contains(c.Col+1, c.Row) &&
			contains(c.Col, c.Row+1) {
			kept[c] = struct{}{}
		}
	}
	return sortedCorners(kept)
}

// Coverage reports whether the pixel lies in one of the grid's tiles
func Coverage(g models.TileGrid, p image.Point) bool {
	c := models.Corner{Col: gridIndex(p.X, g.L), Row: gridIndex(p.Y, g.L)}
	for _, have := range g.Corners {
		if have == c {
			return true
		}
	}
	return false
}

// gridIndex returns floor(v / L), corrected for division rounding so that
// v lies in [i*L, (i+1)*L).
func gridIndex(v int, L float64) int {
	f := float64(v)
	i := math.Floor(f / L)
	if (i+1)*L <= f {
		i++
	} else if i*L > f {
		i--
	}
	return int(i)
}

func sortedCorners(set map[models.Corner]struct{}) []models.Corner {
	corners := make([]models.Corner, 0, len(set))
	for c := range set {
		corners = append(corners, c)
	}
	sort.Slice(corners, func(i, j int) bool {
		return corners[i].Less(corners[j])
	})
	return corners
}

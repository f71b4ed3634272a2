package models

import "fmt"

// Corner is the top-left origin of a square tile. Coordinates are stored as
// grid indices so that deduplication never depends on floating-point equality;
// the pixel position is the index multiplied by the tile edge length.
type Corner struct {
	// Col is the horizontal grid index (x = Col * L)
	Col int

	// Row is the vertical grid index (y = Row * L)
	Row int
}

// Less orders corners by row first and column second
func (c Corner) Less(o Corner) bool {
	if c.Row != o.Row {
		return c.Row < o.Row
	}
	return c.Col < o.Col
}

// TileGrid is an ordered sequence of tile origins sharing the same edge length.
// A TileGrid is treated as a value: every operation that changes it returns a new grid.
type TileGrid struct {
	// Corners holds the tile origins ordered by y then x
	Corners []Corner

	// L is the tile edge length in the pixel space of the level the grid was computed in
	L float64
}

// Tile is a numbered tile of a grid
type Tile struct {
	// ID is the 1-based position of the tile in its grid. IDs are positional and
	// change whenever the grid is regenerated or tiles are removed.
	ID int

	// X and Y are the tile origin in pixels
	X, Y float64

	// Size is the tile edge length in pixels
	Size float64
}

// Len returns the number of tiles in the grid
func (g TileGrid) Len() int {
	return len(g.Corners)
}

// Origin returns the pixel position of a corner of the grid
func (g TileGrid) Origin(c Corner) (float64, float64) {
	return float64(c.Col) * g.L, float64(c.Row) * g.L
}

// Tiles numbers the grid from 1 in corner order
func (g TileGrid) Tiles() []Tile {
	tiles := make([]Tile, len(g.Corners))
	for i, c := range g.Corners {
		x, y := g.Origin(c)
		tiles[i] = Tile{ID: i + 1, X: x, Y: y, Size: g.L}
	}
	return tiles
}

// Clone returns a deep copy of the grid
func (g TileGrid) Clone() TileGrid {
	corners := make([]Corner, len(g.Corners))
	copy(corners, g.Corners)
	return TileGrid{Corners: corners, L: g.L}
}

func (t Tile) String() string {
	return fmt.Sprintf("tile %d at (%.2f, %.2f) size %.2f", t.ID, t.X, t.Y, t.Size)
}

package models

import (
	"image"
	"math"
	"sort"

	"github.com/ctessum/geom"
)

// RegionKind tells how a Region is defined
type RegionKind int

const (
	// PolygonBoundary regions are defined by a closed outline; a pixel belongs
	// to the region when its centre lies inside the outline.
	PolygonBoundary RegionKind = iota

	// PointSet regions are defined by an explicit list of pixels
	PointSet
)

func (k RegionKind) String() string {
	switch k {
	case PolygonBoundary:
		return "polygon"
	case PointSet:
		return "points"
	default:
		return "unknown"
	}
}

// Region is a region of interest drawn on, or projected onto, one pyramid level
type Region struct {
	// Name identifies the region (hand-drawn ROI name or atlas region name)
	Name string

	// Kind selects which of Boundary or Points defines the region
	Kind RegionKind

	// Boundary is the outline of a PolygonBoundary region. Rings are combined
	// with the even-odd rule, so inner rings are holes.
	Boundary geom.Polygon

	// Points lists the pixels of a PointSet region
	Points []image.Point
}

// NewPolygonRegion creates a region from one or more closed outlines
func NewPolygonRegion(name string, boundary geom.Polygon) Region {
	return Region{Name: name, Kind: PolygonBoundary, Boundary: boundary}
}

// NewPointRegion creates a region from an explicit pixel list
func NewPointRegion(name string, points []image.Point) Region {
	return Region{Name: name, Kind: PointSet, Points: points}
}

// PolygonFromVertices builds a single-ring polygon from pixel vertices
func PolygonFromVertices(xs, ys []float64) geom.Polygon {
	n := len(xs)
	if len(ys) < n {
		n = len(ys)
	}
	ring := make(geom.Path, n)
	for i := 0; i < n; i++ {
		ring[i] = geom.Point{X: xs[i], Y: ys[i]}
	}
	return geom.Polygon{ring}
}

// RingVertices returns the vertices of ring i of a polygon region
func (r Region) RingVertices(i int) ([]float64, []float64) {
	ring := r.Boundary[i]
	xs := make([]float64, len(ring))
	ys := make([]float64, len(ring))
	for k, p := range ring {
		xs[k], ys[k] = p.X, p.Y
	}
	return xs, ys
}

// Outline returns the vertices of a polygon region made of a single ring.
// ok is false for point sets and for polygons with holes or several parts.
func (r Region) Outline() (xs, ys []float64, ok bool) {
	if r.Kind != PolygonBoundary || len(r.Boundary) != 1 {
		return nil, nil, false
	}
	xs, ys = r.RingVertices(0)
	return xs, ys, true
}

// Empty reports whether the region has no defining geometry
func (r Region) Empty() bool {
	switch r.Kind {
	case PointSet:
		return len(r.Points) == 0
	default:
		for _, ring := range r.Boundary {
			if len(ring) >= 3 {
				return false
			}
		}
		return true
	}
}

// Bounds returns the pixel rectangle enclosing the region
func (r Region) Bounds() image.Rectangle {
	if r.Empty() {
		return image.Rectangle{}
	}
	if r.Kind == PointSet {
		b := image.Rectangle{Min: r.Points[0], Max: r.Points[0].Add(image.Pt(1, 1))}
		for _, p := range r.Points[1:] {
			b = b.Union(image.Rectangle{Min: p, Max: p.Add(image.Pt(1, 1))})
		}
		return b
	}
	gb := r.Boundary.Bounds()
	return image.Rect(
		int(math.Floor(gb.Min.X)), int(math.Floor(gb.Min.Y)),
		int(math.Ceil(gb.Max.X)), int(math.Ceil(gb.Max.Y)),
	)
}

// ContainedPoints enumerates every pixel of the region exactly once, ordered
// by y then x. This is the single canonical form consumed by tessellation and
// atlas projection, whichever way the region was defined.
func (r Region) ContainedPoints() []image.Point {
	if r.Empty() {
		return nil
	}
	if r.Kind == PointSet {
		return uniquePoints(r.Points)
	}

	b := r.Bounds()
	var points []image.Point
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			centre := geom.Point{X: float64(x) + 0.5, Y: float64(y) + 0.5}
			if centre.Within(r.Boundary) == geom.Inside {
				points = append(points, image.Pt(x, y))
			}
		}
	}
	return points
}

func uniquePoints(in []image.Point) []image.Point {
	seen := make(map[image.Point]struct{}, len(in))
	out := make([]image.Point, 0, len(in))
	for _, p := range in {
		if _, ok := seen[p]; ok {
			continue
		}
		seen[p] = struct{}{}
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Y != out[j].Y {
			return out[i].Y < out[j].Y
		}
		return out[i].X < out[j].X
	})
	return out
}

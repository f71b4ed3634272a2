package transform

import (
	"image"

	"github.com/ctessum/geom"

	"roisplitter/internal/logger"
	"roisplitter/internal/models"
)

// crack is a unit edge between a set pixel and an unset one, directed so that
// the set pixel lies on its right (clockwise outlines with y pointing down).
type crack struct {
	from, to image.Point
}

// Trace returns the outline of the set pixels of the mask as a polygon whose
// rings run along pixel edges. Under the even-odd rule the pixel centres
// inside the polygon are exactly the set pixels, so holes are kept as rings
// of their own.
func Trace(m *Mask) geom.Polygon {
	var cracks []crack
	outgoing := make(map[image.Point][]int)
	add := func(a, b image.Point) {
		outgoing[a] = append(outgoing[a], len(cracks))
		cracks = append(cracks, crack{from: a, to: b})
	}

	for y := 0; y < m.Height; y++ {
		for x := 0; x < m.Width; x++ {
			if !m.At(x, y) {
				continue
			}
			if !m.At(x, y-1) {
				add(image.Pt(x, y), image.Pt(x+1, y))
			}
			if !m.At(x+1, y) {
				add(image.Pt(x+1, y), image.Pt(x+1, y+1))
			}
			if !m.At(x, y+1) {
				add(image.Pt(x+1, y+1), image.Pt(x, y+1))
			}
			if !m.At(x-1, y) {
				add(image.Pt(x, y+1), image.Pt(x, y))
			}
		}
	}

	used := make([]bool, len(cracks))
	var poly geom.Polygon
	for start := range cracks {
		if used[start] {
			continue
		}
		var ring []image.Point
		i := start
		for {
			used[i] = true
			ring = append(ring, cracks[i].from)
			next := -1
			for _, j := range outgoing[cracks[i].to] {
				if !used[j] {
					next = j
					break
				}
			}
			if next < 0 {
				break
			}
			i = next
		}
		poly = append(poly, simplifyRing(ring))
	}
	return poly
}

// simplifyRing drops vertices lying on a straight run of the ring
func simplifyRing(ring []image.Point) geom.Path {
	n := len(ring)
	path := make(geom.Path, 0, n)
	for i, p := range ring {
		prev := ring[(i+n-1)%n]
		next := ring[(i+1)%n]
		d1 := p.Sub(prev)
		d2 := next.Sub(p)
		if d1.X*d2.Y-d1.Y*d2.X == 0 && d1.X*d2.X+d1.Y*d2.Y > 0 {
			continue
		}
		path = append(path, geom.Point{X: float64(p.X), Y: float64(p.Y)})
	}
	return path
}

// ReconstructRegion rebuilds a connected region from scattered pixel
// positions: the positions are painted into a width x height raster, closed
// with the given number of passes to bridge sampling gaps, and outlined.
// The result is lossy; pixels added or removed by the closing are not
// reported back.
func ReconstructRegion(name string, points []image.Point, width, height, passes int) (models.Region, error) {
	m := NewMask(width, height)
	if m.Paint(points) == 0 {
		return models.Region{}, ErrEmptyRegion
	}
	m.Close(passes)
	logger.Debug("region %q rebuilt from %d points: %d pixels", name, len(points), m.Count())
	return MaskRegion(name, m)
}

// MaskRegion outlines the set pixels of a mask as a polygon region
func MaskRegion(name string, m *Mask) (models.Region, error) {
	if m.Count() == 0 {
		return models.Region{}, ErrEmptyRegion
	}
	return models.NewPolygonRegion(name, Trace(m)), nil
}

// ProjectionRegion rebuilds the in-plane shape of an atlas projection on a
// coronal atlas section of the given size.
func ProjectionRegion(name string, proj models.AtlasProjection, width, height, passes int) (models.Region, error) {
	return ReconstructRegion(name, proj.Plane(), width, height, passes)
}

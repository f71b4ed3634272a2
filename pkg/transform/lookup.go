package transform

import (
	"image"
	"math"
	"sort"

	"gonum.org/v1/gonum/spatial/kdtree"

	"roisplitter/internal/logger"
	"roisplitter/internal/models"
)

// atlasPoint is the atlas position of one image pixel, in voxels
type atlasPoint struct {
	AP, DV, ML float64
	Pixel      image.Point
}

// Compare implements the kdtree.Comparable interface
func (p atlasPoint) Compare(c kdtree.Comparable, d kdtree.Dim) float64 {
	q := c.(atlasPoint)
	switch d {
	case 0:
		return p.AP - q.AP
	case 1:
		return p.DV - q.DV
	case 2:
		return p.ML - q.ML
	default:
		panic("illegal dimension")
	}
}

// Dims returns the number of dimensions for the KD-tree
func (p atlasPoint) Dims() int { return 3 }

// Distance returns the squared Euclidean distance between two points
func (p atlasPoint) Distance(c kdtree.Comparable) float64 {
	q := c.(atlasPoint)
	da := p.AP - q.AP
	dd := p.DV - q.DV
	dm := p.ML - q.ML
	return da*da + dd*dd + dm*dm
}

// atlasPoints is a collection of atlasPoint that satisfies kdtree.Interface
type atlasPoints []atlasPoint

func (p atlasPoints) Index(i int) kdtree.Comparable         { return p[i] }
func (p atlasPoints) Len() int                              { return len(p) }
func (p atlasPoints) Slice(start, end int) kdtree.Interface { return p[start:end] }

// Pivot implements the kdtree.Interface method
func (p atlasPoints) Pivot(d kdtree.Dim) int {
	return kdtree.Partition(atlasPlane{atlasPoints: p, Dim: d}, kdtree.MedianOfRandoms(atlasPlane{atlasPoints: p, Dim: d}, 100))
}

// atlasPlane implements sort.Interface and kdtree.SortSlicer for atlasPoints
type atlasPlane struct {
	atlasPoints
	kdtree.Dim
}

func (p atlasPlane) Less(i, j int) bool {
	switch p.Dim {
	case 0:
		return p.atlasPoints[i].AP < p.atlasPoints[j].AP
	case 1:
		return p.atlasPoints[i].DV < p.atlasPoints[j].DV
	case 2:
		return p.atlasPoints[i].ML < p.atlasPoints[j].ML
	default:
		panic("illegal dimension")
	}
}

func (p atlasPlane) Slice(start, end int) kdtree.SortSlicer {
	return atlasPlane{atlasPoints: p.atlasPoints[start:end], Dim: p.Dim}
}

func (p atlasPlane) Swap(i, j int) {
	p.atlasPoints[i], p.atlasPoints[j] = p.atlasPoints[j], p.atlasPoints[i]
}

// AtlasIndex answers the inverse of PointToAtlas: which image pixel was
// registered to a given atlas voxel.
type AtlasIndex struct {
	tree       *kdtree.Tree
	resolution float64
	size       int
}

// NewAtlasIndex indexes every stride-th pixel of the coordinate image in both
// directions. Pixels holding NaN coordinates are skipped.
func NewAtlasIndex(img *CoordinateImage, resolution float64, stride int) (*AtlasIndex, error) {
	if !(resolution > 0) {
		return nil, ErrInvalidResolution
	}
	if stride < 1 {
		stride = 1
	}

	var pts atlasPoints
	for y := 0; y < img.Height; y += stride {
		for x := 0; x < img.Width; x += stride {
			raw, _ := img.Sample(x, y)
			if math.IsNaN(raw[0]) || math.IsNaN(raw[1]) || math.IsNaN(raw[2]) {
				continue
			}
			pts = append(pts, atlasPoint{
				AP:    raw[ChannelAP] * 1000 / resolution,
				DV:    raw[ChannelDV] * 1000 / resolution,
				ML:    raw[ChannelML] * 1000 / resolution,
				Pixel: image.Pt(x, y),
			})
		}
	}
	if len(pts) == 0 {
		return nil, ErrEmptyRegion
	}

	logger.Debug("atlas index built over %d pixels (stride %d)", len(pts), stride)
	return &AtlasIndex{tree: kdtree.New(pts, false), resolution: resolution, size: len(pts)}, nil
}

// Len returns the number of indexed pixels
func (ix *AtlasIndex) Len() int {
	return ix.size
}

// Nearest returns the pixel whose atlas position is closest to c and the
// distance between them in voxels.
func (ix *AtlasIndex) Nearest(c models.AtlasCoordinate) (image.Point, float64) {
	q := atlasPoint{AP: float64(c.AP), DV: float64(c.DV), ML: float64(c.ML)}
	best, d2 := ix.tree.Nearest(q)
	return best.(atlasPoint).Pixel, math.Sqrt(d2)
}

// Pixels maps atlas coordinates back to image pixels, keeping only matches
// closer than maxDist voxels. The result is deduplicated and ordered by y then x.
func (ix *AtlasIndex) Pixels(coords []models.AtlasCoordinate, maxDist float64) []image.Point {
	seen := make(map[image.Point]struct{})
	for _, c := range coords {
		p, d := ix.Nearest(c)
		if d > maxDist {
			continue
		}
		seen[p] = struct{}{}
	}

	out := make([]image.Point, 0, len(seen))
	for p := range seen {
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

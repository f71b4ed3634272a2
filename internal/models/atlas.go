package models

import "image"

// AtlasCoordinate is a voxel position in a reference atlas
type AtlasCoordinate struct {
	// AP is the anterior-posterior voxel index
	AP int

	// DV is the dorsal-ventral voxel index
	DV int

	// ML is the medial-lateral voxel index
	ML int
}

// AtlasProjection is the result of projecting every pixel of a region into atlas space
type AtlasProjection struct {
	// Pixels are the region pixels, in the same order as Coordinates
	Pixels []image.Point

	// Coordinates holds one atlas position per pixel, AP values already offset
	Coordinates []AtlasCoordinate

	// MeanAP is the integer mean of the offset AP values
	MeanAP int
}

// Plane returns the (ML, DV) pairs of the projection, the in-plane position
// of every pixel on a coronal atlas section.
func (p AtlasProjection) Plane() []image.Point {
	plane := make([]image.Point, len(p.Coordinates))
	for i, c := range p.Coordinates {
		plane[i] = image.Pt(c.ML, c.DV)
	}
	return plane
}

package transform

import (
	"image"
	"math"

	"gonum.org/v1/gonum/floats"

	"roisplitter/internal/logger"
	"roisplitter/internal/models"
)

// Channel order of a coordinate image
const (
	ChannelAP = iota
	ChannelDV
	ChannelML
)

// CoordinateImage holds, for every pixel of a registered slice, its position
// in the reference atlas in millimetres. Channels are stored row-major in the
// order anterior-posterior, dorsal-ventral, medial-lateral.
type CoordinateImage struct {
	Width    int
	Height   int
	Channels [3][]float32
}

// NewCoordinateImage allocates a zeroed coordinate image
func NewCoordinateImage(width, height int) *CoordinateImage {
	img := &CoordinateImage{Width: width, Height: height}
	for c := range img.Channels {
		img.Channels[c] = make([]float32, width*height)
	}
	return img
}

// Set stores the atlas position of one pixel
func (img *CoordinateImage) Set(x, y int, ap, dv, ml float32) {
	i := y*img.Width + x
	img.Channels[ChannelAP][i] = ap
	img.Channels[ChannelDV][i] = dv
	img.Channels[ChannelML][i] = ml
}

// Sample returns the raw (ap, dv, ml) values at a pixel. Pixels outside the
// image are rejected with a CoordinateBoundsError.
func (img *CoordinateImage) Sample(x, y int) ([3]float64, error) {
	if x < 0 || y < 0 || x >= img.Width || y >= img.Height {
		return [3]float64{}, &CoordinateBoundsError{X: x, Y: y, Width: img.Width, Height: img.Height}
	}
	i := y*img.Width + x
	return [3]float64{
		float64(img.Channels[ChannelAP][i]),
		float64(img.Channels[ChannelDV][i]),
		float64(img.Channels[ChannelML][i]),
	}, nil
}

// Bounds returns the pixel rectangle of the image
func (img *CoordinateImage) Bounds() image.Rectangle {
	return image.Rect(0, 0, img.Width, img.Height)
}

// ToVoxel converts a raw millimetre value to an atlas voxel index for an
// atlas of the given resolution in micrometres per voxel.
func ToVoxel(raw, resolution float64) int {
	return int(math.Round(raw * 1000 / resolution))
}

// PointToAtlas samples the coordinate image at p and converts the three
// channels to atlas voxel indices.
func PointToAtlas(p image.Point, img *CoordinateImage, resolution float64) (models.AtlasCoordinate, error) {
	if !(resolution > 0) {
		return models.AtlasCoordinate{}, ErrInvalidResolution
	}
	raw, err := img.Sample(p.X, p.Y)
	if err != nil {
		return models.AtlasCoordinate{}, err
	}
	return models.AtlasCoordinate{
		AP: ToVoxel(raw[ChannelAP], resolution),
		DV: ToVoxel(raw[ChannelDV], resolution),
		ML: ToVoxel(raw[ChannelML], resolution),
	}, nil
}

// RegionToAtlas projects every pixel of the region into atlas space. The AP
// offset, in millimetres, is converted to voxels and added to every AP value;
// MeanAP is the truncated mean of the offset values. One pixel outside the
// coordinate image fails the whole projection.
func RegionToAtlas(roi models.Region, img *CoordinateImage, resolution, apOffset float64) (models.AtlasProjection, error) {
	return PointsToAtlas(roi.ContainedPoints(), img, resolution, apOffset)
}

// PointsToAtlas is RegionToAtlas over an explicit pixel list
func PointsToAtlas(points []image.Point, img *CoordinateImage, resolution, apOffset float64) (models.AtlasProjection, error) {
	if len(points) == 0 {
		return models.AtlasProjection{}, ErrEmptyRegion
	}
	if !(resolution > 0) {
		return models.AtlasProjection{}, ErrInvalidResolution
	}

	offset := ToVoxel(apOffset, resolution)
	coords := make([]models.AtlasCoordinate, len(points))
	aps := make([]float64, len(points))
	for i, p := range points {
		c, err := PointToAtlas(p, img, resolution)
		if err != nil {
			return models.AtlasProjection{}, err
		}
		c.AP += offset
		coords[i] = c
		aps[i] = float64(c.AP)
	}

	mean := int(floats.Sum(aps) / float64(len(aps)))
	logger.Debug("projected %d pixels to atlas, AP offset %d, mean AP %d", len(points), offset, mean)

	return models.AtlasProjection{
		Pixels:      append([]image.Point(nil), points...),
		Coordinates: coords,
		MeanAP:      mean,
	}, nil
}

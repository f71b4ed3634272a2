package atlas

import (
	"fmt"
	"strings"

	"github.com/ctessum/geom"

	"roisplitter/internal/logger"
	"roisplitter/internal/models"
	"roisplitter/pkg/transform"
)

// SplitQualifiedName separates a "Side-Region" name (for example "L-CPu")
// into the hemisphere side and the region name used in the catalog.
func SplitQualifiedName(qualified string) (side, region string, err error) {
	parts := strings.SplitN(strings.TrimSpace(qualified), "-", 2)
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return "", "", fmt.Errorf("%q: %w", qualified, ErrMalformedName)
	}
	return parts[0], parts[1], nil
}

// RegionScale is the factor taking registration image pixels to display
// level pixels. pixelSize is the full-resolution pixel size and displayScale
// the binning between full resolution and the display level.
func RegionScale(registrationResolution, pixelSize, displayScale float64) float64 {
	return registrationResolution / (pixelSize * displayScale)
}

// LoadRegion builds a display-level region from a catalog outline. The
// outline is scaled with rounding, rasterised on a width x height image and
// opened with the given number of passes to remove registration slivers
// before being outlined again. The region keeps the qualified name.
func LoadRegion(cat Catalog, qualified string, scale float64, width, height, passes int) (models.Region, error) {
	_, name, err := SplitQualifiedName(qualified)
	if err != nil {
		return models.Region{}, err
	}
	outline, err := cat.Outline(name)
	if err != nil {
		return models.Region{}, err
	}

	xs, ys := transform.ScalePolygonVertices(outline.X, outline.Y, scale)
	scaled := models.NewPolygonRegion(qualified, models.PolygonFromVertices(xs, ys))

	mask := transform.NewMask(width, height)
	painted := mask.Paint(scaled.ContainedPoints())
	mask.Open(passes)
	logger.Debug("region %s: %d pixels painted, %d left after opening", qualified, painted, mask.Count())

	region, err := transform.MaskRegion(qualified, mask)
	if err != nil {
		return models.Region{}, fmt.Errorf("region %s vanishes at this resolution: %w", qualified, err)
	}
	return region, nil
}

// RegionCatalog stores every ring of a polygon region as an outline of a
// catalog for slice. The first ring keeps the region name and the following
// ones are named <name>.ring-<k>, so CatalogRegion can rebuild holes.
func RegionCatalog(slice string, roi models.Region) (*YAMLCatalog, error) {
	if roi.Kind != models.PolygonBoundary || roi.Empty() {
		return nil, fmt.Errorf("region %q has no outline", roi.Name)
	}
	cat := &YAMLCatalog{Slice: slice}
	for i := range roi.Boundary {
		xs, ys := roi.RingVertices(i)
		name := roi.Name
		if i > 0 {
			name = fmt.Sprintf("%s.ring-%d", roi.Name, i)
		}
		cat.Regions = append(cat.Regions, Outline{Name: name, X: xs, Y: ys})
	}
	return cat, nil
}

// CatalogRegion rebuilds the polygon region saved by RegionCatalog, taking
// the outlines in file order as its rings.
func CatalogRegion(cat *YAMLCatalog) (models.Region, error) {
	if len(cat.Regions) == 0 {
		return models.Region{}, &LookupError{Name: "*", Catalog: cat.Source(), Err: ErrRegionNotFound}
	}
	var boundary geom.Polygon
	for _, o := range cat.Regions {
		boundary = append(boundary, models.PolygonFromVertices(o.X, o.Y)...)
	}
	return models.NewPolygonRegion(cat.Regions[0].Name, boundary), nil
}

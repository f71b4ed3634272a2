package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"roisplitter/internal/models"
	"roisplitter/pkg/tileio"
	"roisplitter/pkg/transform"
)

var (
	planeWidth  int
	planeHeight int
	nearest     string
	maxDistance float64
	indexStride int
)

func atlasCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "atlas [coordinate-file]",
		Short: "Project a ROI into atlas space",
		Long: `atlas reads the per-pixel atlas coordinates of a registered slice and
projects the ROI of an outline file through them. It reports the mean
anterior-posterior section of the ROI and, when a plane size is given,
rebuilds the region on that coronal section.`,
		Args: cobra.ExactArgs(1),
		RunE: runAtlas,
	}
	cmd.Flags().StringVar(&outlinePath, "outline", "", "Regions file holding the ROI outline, in coordinate image pixels")
	cmd.Flags().StringVar(&roiName, "roi", "", "Name of the ROI in the outline file")
	cmd.Flags().IntVar(&planeWidth, "plane-width", 0, "Width of the coronal section in voxels")
	cmd.Flags().IntVar(&planeHeight, "plane-height", 0, "Height of the coronal section in voxels")
	cmd.Flags().StringVar(&nearest, "nearest", "", "Find the pixels closest to atlas voxels given as ap,dv,ml;ap,dv,ml")
	cmd.Flags().Float64Var(&maxDistance, "max-distance", 1, "Largest voxel distance counted as a match by --nearest")
	cmd.Flags().IntVar(&indexStride, "stride", 1, "Pixel stride of the --nearest index")
	return cmd
}

func runAtlas(cmd *cobra.Command, args []string) error {
	img, err := tileio.ReadCoordinateImage(args[0])
	if err != nil {
		return err
	}
	res := cfg.Atlas.Resolution

	if nearest != "" {
		voxels, err := parseVoxels(nearest)
		if err != nil {
			return err
		}
		ix, err := transform.NewAtlasIndex(img, res, indexStride)
		if err != nil {
			return err
		}
		for _, c := range voxels {
			p, d := ix.Nearest(c)
			fmt.Printf("voxel %d,%d,%d: pixel %v (%.2f voxels)\n", c.AP, c.DV, c.ML, p, d)
		}
		pixels := ix.Pixels(voxels, maxDistance)
		if len(pixels) == 0 {
			return fmt.Errorf("no pixel within %g voxels of the %d voxels given", maxDistance, len(voxels))
		}
		fmt.Printf("%d distinct pixels within %g voxels\n", len(pixels), maxDistance)
	}

	if outlinePath == "" {
		return nil
	}
	roi, err := loadOutline(outlinePath, roiName)
	if err != nil {
		return err
	}
	proj, err := transform.RegionToAtlas(roi, img, res, cfg.Atlas.APOffset)
	if err != nil {
		return err
	}
	fmt.Printf("%s: %d pixels, mean AP section %d\n", roi.Name, len(proj.Pixels), proj.MeanAP)

	if planeWidth > 0 && planeHeight > 0 {
		region, err := transform.ProjectionRegion(roi.Name, proj, planeWidth, planeHeight, cfg.Atlas.ClosingPasses)
		if err != nil {
			return err
		}
		fmt.Printf("%s on section %d: %d voxels within %v\n",
			roi.Name, proj.MeanAP, len(region.ContainedPoints()), region.Bounds())
	}
	return nil
}

// parseVoxels reads voxels separated by semicolons
func parseVoxels(s string) ([]models.AtlasCoordinate, error) {
	var voxels []models.AtlasCoordinate
	for _, part := range strings.Split(s, ";") {
		c, err := parseVoxel(part)
		if err != nil {
			return nil, err
		}
		voxels = append(voxels, c)
	}
	return voxels, nil
}

func parseVoxel(s string) (models.AtlasCoordinate, error) {
	parts := strings.Split(s, ",")
	if len(parts) != 3 {
		return models.AtlasCoordinate{}, fmt.Errorf("voxel %q: want ap,dv,ml", s)
	}
	var v [3]int
	for i, p := range parts {
		n, err := strconv.Atoi(strings.TrimSpace(p))
		if err != nil {
			return models.AtlasCoordinate{}, fmt.Errorf("voxel %q: %w", s, err)
		}
		v[i] = n
	}
	return models.AtlasCoordinate{AP: v[0], DV: v[1], ML: v[2]}, nil
}

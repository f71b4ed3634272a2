// Package session threads the state of one ROI splitting run through its
// steps: opening an acquisition, choosing a slice, drawing or loading the
// ROI, tessellating it, pruning tiles and exporting them.
//
// A Session is a value. Every step returns an updated copy and leaves its
// receiver untouched, so a failed step never damages the state reached so far.
package session

import (
	"errors"
	"fmt"
	"image"
	"os"
	"path/filepath"

	"roisplitter/internal/logger"
	"roisplitter/internal/models"
	"roisplitter/pkg/atlas"
	"roisplitter/pkg/config"
	"roisplitter/pkg/pyramid"
	"roisplitter/pkg/tessellate"
	"roisplitter/pkg/tileio"
	"roisplitter/pkg/transform"
)

var (
	// ErrNoSlice indicates a step that needs a selected slice.
	ErrNoSlice = errors.New("no slice selected")

	// ErrNoROI indicates a step that needs a region of interest.
	ErrNoROI = errors.New("no region of interest set")

	// ErrNoGrid indicates a step that needs a tessellated ROI.
	ErrNoGrid = errors.New("region of interest has not been tessellated")
)

// Params holds the inputs of a session
type Params struct {
	// InputDir is the series directory of the acquisition
	InputDir string

	// OutputDir receives tiles, tables and snapshots. Registration images
	// are written next to it, in a Registration directory.
	OutputDir string

	// Name is the core name of the acquisition used in every output name.
	// Empty uses the series metadata name.
	Name string

	// Config holds the processing parameters
	Config *config.Config
}

// Session is the state of a splitting run
type Session struct {
	params Params
	series *tileio.Series

	// Slices describes the pyramid of every slice of the acquisition
	Slices []models.SliceDescriptor

	// Slice is the selected slice; valid when HasSlice is true
	Slice    models.SliceDescriptor
	HasSlice bool

	// DisplayIndex is the stored image the ROI is drawn on
	DisplayIndex int

	// DisplayScale converts display level pixels to full resolution pixels
	DisplayScale float64

	// DisplaySize is the size of the display level image
	DisplaySize image.Point

	// ROI is the region being split and ManualROI its output name
	ROI       models.Region
	ManualROI string

	// Grid holds the tiles of the ROI at the display level
	Grid models.TileGrid
}

// Open reads the acquisition layout and infers its slice pyramids
func Open(params Params) (Session, error) {
	if params.Config == nil {
		params.Config = config.DefaultConfig()
	}
	cfg := params.Config

	logger.Section("Opening acquisition")
	series, err := tileio.OpenSeries(params.InputDir)
	if err != nil {
		return Session{}, err
	}
	if params.Name == "" {
		params.Name = series.Meta.Name
	}

	records, err := series.Records()
	if err != nil {
		return Session{}, err
	}
	widths, err := pyramid.PyramidWidths(records, cfg.Pyramid.TrailingNonPyramid)
	if err != nil {
		return Session{}, err
	}

	var slices []models.SliceDescriptor
	if cfg.Pyramid.Strict {
		slices, err = pyramid.AnalyzeStrict(widths, cfg.Pyramid.StepTolerance)
	} else {
		slices, err = pyramid.Describe(widths)
	}
	if err != nil {
		return Session{}, fmt.Errorf("error analyzing %s: %w", params.InputDir, err)
	}

	logger.Info("Number of images is %d", len(records))
	logger.Info("Number of slices is %d", len(slices))
	for _, s := range slices {
		logger.Info("  slice %d: %d levels from image %d, binning factor %.3f, step %.3f",
			s.Number, s.PyramidDepth, s.HighResIndex, s.BinFactor, s.BinStep)
		if s.StepDeviation > cfg.Pyramid.StepTolerance {
			logger.Warn("slice %d level ratios deviate %.1f%% from its binning step", s.Number, s.StepDeviation*100)
		}
	}

	return Session{params: params, series: series, Slices: slices}, nil
}

// Name returns the core name of the acquisition
func (s Session) Name() string {
	return s.params.Name
}

// Config returns the processing parameters
func (s Session) Config() *config.Config {
	return s.params.Config
}

// SliceName names the selected slice
func (s Session) SliceName() string {
	return atlas.SliceName(s.params.Name, s.Slice.Number)
}

// SliceNames lists the names of every slice of the acquisition
func (s Session) SliceNames() []string {
	names := make([]string, len(s.Slices))
	for i, d := range s.Slices {
		names[i] = atlas.SliceName(s.params.Name, d.Number)
	}
	return names
}

// SelectSlice chooses the slice to work on and its display level. Any ROI
// and grid of a previous slice are cleared.
func (s Session) SelectSlice(n int) (Session, error) {
	if n < 0 || n >= len(s.Slices) {
		return s, fmt.Errorf("slice %d out of range [0, %d)", n, len(s.Slices))
	}
	desc := s.Slices[n]
	index, scale := pyramid.DisplayLevel(desc, s.params.Config.Pyramid.DisplayLevelFromLowest)

	img, err := s.series.ReadChannel(index, 1)
	if err != nil {
		return s, err
	}

	out := s
	out.Slice = desc
	out.HasSlice = true
	out.DisplayIndex = index
	out.DisplayScale = scale
	out.DisplaySize = img.Bounds().Size()
	out.ROI = models.Region{}
	out.ManualROI = ""
	out.Grid = models.TileGrid{}

	logger.Info("Opening slice %d: image %d, %dx%d px, %.3f full-resolution px per px",
		n, index, out.DisplaySize.X, out.DisplaySize.Y, scale)
	return out, nil
}

// SetROI sets a region drawn at the display level under the given name. It
// warns when tiles of an ROI with that name were already exported.
func (s Session) SetROI(name string, roi models.Region) (Session, error) {
	if !s.HasSlice {
		return s, ErrNoSlice
	}
	if roi.Empty() {
		return s, fmt.Errorf("region %q: %w", name, ErrNoROI)
	}

	out := s
	out.ROI = roi
	out.ManualROI = atlas.ManualROIName(s.SliceName(), name)
	out.Grid = models.TileGrid{}

	exists, err := out.Processed()
	if err != nil {
		return s, err
	}
	if exists {
		logger.Warn("CAREFUL!!!! This ROI already exists in your processed data: %s", out.ManualROI)
	}
	logger.Info("%s", out.ManualROI)
	return out, nil
}

// Processed reports whether the output directory already holds tiles of the ROI
func (s Session) Processed() (bool, error) {
	entries, err := os.ReadDir(s.params.OutputDir)
	if os.IsNotExist(err) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("error reading output directory: %w", err)
	}

	files := make([]string, len(entries))
	for i, e := range entries {
		files[i] = e.Name()
	}
	names, err := atlas.CoreNames(files, s.params.Name)
	if err != nil {
		return false, err
	}
	for _, n := range names {
		if n == s.ManualROI {
			return true, nil
		}
	}
	return false, nil
}

// RegistrationDir is the directory registration folders are kept in
func (s Session) RegistrationDir() string {
	return filepath.Join(filepath.Dir(filepath.Clean(s.params.OutputDir)), "Registration")
}

// LoadAtlasRegion sets the ROI to a registered atlas region of the selected
// slice, named Side-Region. The outline is brought from the registration
// image to the display level and cleaned with an opening.
func (s Session) LoadAtlasRegion(qualified string) (Session, error) {
	if !s.HasSlice {
		return s, ErrNoSlice
	}
	folder, resolution, err := atlas.FindRegistrationFolder(s.RegistrationDir())
	if err != nil {
		return s, err
	}
	cat, err := atlas.LoadCatalog(atlas.RegionsFile(folder, s.SliceName()))
	if err != nil {
		return s, fmt.Errorf("slice not registered or regions not saved: %w", err)
	}

	scale := atlas.RegionScale(resolution, s.series.Meta.PixelSize, s.DisplayScale)
	roi, err := atlas.LoadRegion(cat, qualified, scale, s.DisplaySize.X, s.DisplaySize.Y, s.params.Config.Atlas.RegionOpeningPasses)
	if err != nil {
		return s, err
	}
	return s.SetROI(qualified, roi)
}

// TileEdge is the tile edge length at the display level
func (s Session) TileEdge() float64 {
	return float64(s.params.Config.TileEdge()) / s.DisplayScale
}

// Tessellate covers the ROI with tiles
func (s Session) Tessellate() (Session, error) {
	if s.ROI.Empty() {
		return s, ErrNoROI
	}
	cfg := s.params.Config
	opts := tessellate.Options{
		DropFirstCorner: cfg.Tiles.DropFirstCorner,
		CleanCorners:    cfg.Tiles.CleanCorners,
	}

	grid, err := tessellate.Tessellate(s.ROI, s.TileEdge(), opts)
	if err != nil {
		return s, fmt.Errorf("error tessellating %s: %w", s.ManualROI, err)
	}
	if grid.Len() == 0 {
		return s, fmt.Errorf("error tessellating %s: %w", s.ManualROI, tessellate.ErrNoTiles)
	}

	out := s
	out.Grid = grid
	logger.Info("%d square ROIs of %d px", grid.Len(), cfg.TileEdge())
	return out, nil
}

// RemoveTiles drops tiles by 1-based position, see tessellate.ParseSelector
func (s Session) RemoveTiles(selector string) (Session, error) {
	if s.Grid.Len() == 0 {
		return s, ErrNoGrid
	}
	grid, err := tessellate.RemoveTiles(s.Grid, selector)
	if err != nil {
		return s, err
	}

	out := s
	out.Grid = grid
	logger.Info("Removing ROIs: %s, %d left", selector, grid.Len())
	return out, nil
}

// FocusCrop returns the stored image of a pyramid level (1 = full
// resolution) and the rectangle of that image covering every tile.
func (s Session) FocusCrop(level int) (int, image.Rectangle, error) {
	if s.Grid.Len() == 0 {
		return 0, image.Rectangle{}, ErrNoGrid
	}
	if level < 1 || level > s.Slice.PyramidDepth {
		return 0, image.Rectangle{}, fmt.Errorf("level %d out of range [1, %d]", level, s.Slice.PyramidDepth)
	}

	factor := pyramid.LevelScale(s.DisplayScale, s.Slice.BinStep, level)
	rect, err := transform.CropRect(s.Grid, factor)
	if err != nil {
		return 0, image.Rectangle{}, err
	}
	return s.Slice.SeriesIndex(level - 1), rect, nil
}

// FullResolutionTiles maps the grid to full resolution pixels
func (s Session) FullResolutionTiles() ([]transform.TileRect, error) {
	if s.Grid.Len() == 0 {
		return nil, ErrNoGrid
	}
	return transform.ScaleTiles(s.Grid, s.DisplayScale)
}

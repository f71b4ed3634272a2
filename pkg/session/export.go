package session

import (
	"fmt"
	"math"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"roisplitter/internal/logger"
	"roisplitter/internal/models"
	"roisplitter/pkg/atlas"
	"roisplitter/pkg/tessellate"
	"roisplitter/pkg/tileio"
	"roisplitter/pkg/transform"
)

// Snapshot records a tessellated ROI for later audit
type Snapshot struct {
	Name         string         `yaml:"name"`
	Slice        int            `yaml:"slice"`
	ManualROI    string         `yaml:"manualROI"`
	DisplayIndex int            `yaml:"displayIndex"`
	DisplayScale float64        `yaml:"displayScale"`
	TileEdge     float64        `yaml:"tileEdge"`
	Tiles        []SnapshotTile `yaml:"tiles"`
}

// SnapshotTile is one tile of a snapshot, in display level grid units and pixels
type SnapshotTile struct {
	ID  int     `yaml:"id"`
	Col int     `yaml:"col"`
	Row int     `yaml:"row"`
	X   float64 `yaml:"x"`
	Y   float64 `yaml:"y"`
}

// Snapshot captures the current ROI and grid
func (s Session) Snapshot() Snapshot {
	snap := Snapshot{
		Name:         s.params.Name,
		Slice:        s.Slice.Number,
		ManualROI:    s.ManualROI,
		DisplayIndex: s.DisplayIndex,
		DisplayScale: s.DisplayScale,
		TileEdge:     s.Grid.L,
	}
	for i, t := range s.Grid.Tiles() {
		c := s.Grid.Corners[i]
		snap.Tiles = append(snap.Tiles, SnapshotTile{ID: t.ID, Col: c.Col, Row: c.Row, X: t.X, Y: t.Y})
	}
	return snap
}

// Grid rebuilds the tile grid of a snapshot
func (sn Snapshot) Grid() models.TileGrid {
	g := models.TileGrid{L: sn.TileEdge}
	for _, t := range sn.Tiles {
		g.Corners = append(g.Corners, models.Corner{Col: t.Col, Row: t.Row})
	}
	return g
}

// SaveSnapshot writes a snapshot as YAML
func SaveSnapshot(sn Snapshot, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("error creating snapshot directory: %w", err)
	}
	data, err := yaml.Marshal(sn)
	if err != nil {
		return fmt.Errorf("error marshaling snapshot: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("error writing snapshot: %w", err)
	}
	return nil
}

// LoadSnapshot reads a snapshot written by SaveSnapshot
func LoadSnapshot(path string) (Snapshot, error) {
	var sn Snapshot
	data, err := os.ReadFile(path)
	if err != nil {
		return sn, fmt.Errorf("error reading snapshot: %w", err)
	}
	if err := yaml.Unmarshal(data, &sn); err != nil {
		return sn, fmt.Errorf("error parsing snapshot: %w", err)
	}
	return sn, nil
}

// SnapshotPath is where Export records the session of a ROI
func SnapshotPath(outputDir, manualROI string) string {
	return filepath.Join(outputDir, tileio.InfoDir, manualROI+"_session.yaml")
}

// ExportRegistration saves the registration image of the selected slice
// when a registration resolution is configured. It returns the resolution
// recorded in the positions table, 0 when nothing is configured.
func (s Session) ExportRegistration() (float64, error) {
	reg := s.params.Config.Registration
	if reg.Resolution == 0 {
		return 0, nil
	}
	if !s.HasSlice {
		return 0, ErrNoSlice
	}
	if reg.Level < 0 || reg.Level >= s.Slice.PyramidDepth {
		return 0, fmt.Errorf("registration level %d out of range [0, %d)", reg.Level, s.Slice.PyramidDepth)
	}

	folder := filepath.Join(s.RegistrationDir(), atlas.RegistrationFolderName(reg.Channel, reg.Resolution))
	img := tileio.RegistrationImage{
		Index:      s.Slice.SeriesIndex(reg.Level),
		Channel:    reg.Channel,
		PixelSize:  math.Pow(s.Slice.BinStep, float64(reg.Level)) * s.series.Meta.PixelSize,
		Resolution: reg.Resolution,
	}
	path, written, err := tileio.ExportRegistration(s.series, img, folder, s.SliceName())
	if err != nil {
		return 0, err
	}
	if written {
		logger.Info("Slice for registration saved to %s", path)
	}
	return reg.Resolution, nil
}

// Export writes the registration image, every tile at full resolution and
// the ROI positions table, then records a snapshot of the session.
func (s Session) Export() (tileio.Summary, error) {
	var sum tileio.Summary
	if s.Grid.Len() == 0 {
		return sum, ErrNoGrid
	}

	logger.Section("Saving registration image")
	regRes, err := s.ExportRegistration()
	if err != nil {
		return sum, err
	}

	logger.Section("Saving ROIs")
	tiles, err := s.FullResolutionTiles()
	if err != nil {
		return sum, err
	}
	sum, err = tileio.ExportTiles(s.series, s.Slice.HighResIndex, tiles, tileio.ExportOptions{
		OutputDir:              s.params.OutputDir,
		ManualROI:              s.ManualROI,
		RegistrationResolution: regRes,
	})
	if err != nil {
		return sum, err
	}

	if err := s.SaveROI(ROIPath(s.params.OutputDir, s.ManualROI)); err != nil {
		return sum, err
	}
	if err := SaveSnapshot(s.Snapshot(), SnapshotPath(s.params.OutputDir, s.ManualROI)); err != nil {
		return sum, err
	}
	logger.Info("ROIs saved: %s", sum)
	return sum, nil
}

// ROIPath is where Export saves the outline of a ROI, in display level pixels
func ROIPath(outputDir, manualROI string) string {
	return atlas.RegionsFile(filepath.Join(outputDir, tileio.InfoDir), manualROI)
}

// SaveROI writes the ROI outline as a regions file. Point set ROIs are
// outlined on the display level first.
func (s Session) SaveROI(path string) error {
	if s.ROI.Empty() {
		return ErrNoROI
	}
	roi := s.ROI
	if roi.Kind == models.PointSet {
		mask := transform.NewMask(s.DisplaySize.X, s.DisplaySize.Y)
		mask.Paint(roi.ContainedPoints())
		traced, err := transform.MaskRegion(roi.Name, mask)
		if err != nil {
			return fmt.Errorf("error outlining %s: %w", s.ManualROI, err)
		}
		roi = traced
	}

	cat, err := atlas.RegionCatalog(s.SliceName(), roi)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("error creating info directory: %w", err)
	}
	return atlas.SaveCatalog(cat, path)
}

// Audit is an exported ROI read back from an output directory
type Audit struct {
	Snapshot  Snapshot
	Positions []tileio.PositionRow
	ROI       models.Region

	// Pixels is the number of ROI pixels and Covered those lying in a tile
	Pixels  int
	Covered int
}

// LoadAudit reads the snapshot, positions table and outline saved by Export
// and checks that they describe the same tiles.
func LoadAudit(outputDir, manualROI string) (Audit, error) {
	var a Audit
	var err error
	if a.Snapshot, err = LoadSnapshot(SnapshotPath(outputDir, manualROI)); err != nil {
		return a, err
	}
	if a.Positions, err = tileio.ReadPositions(tileio.PositionsPath(outputDir, manualROI)); err != nil {
		return a, err
	}
	if len(a.Positions) != len(a.Snapshot.Tiles) {
		return a, fmt.Errorf("%s: %d positions for %d tiles", manualROI, len(a.Positions), len(a.Snapshot.Tiles))
	}
	for i, row := range a.Positions {
		if row.ID != a.Snapshot.Tiles[i].ID {
			return a, fmt.Errorf("%s: position %d is tile %d, snapshot has tile %d", manualROI, i+1, row.ID, a.Snapshot.Tiles[i].ID)
		}
	}

	cat, err := atlas.LoadCatalog(ROIPath(outputDir, manualROI))
	if err != nil {
		return a, err
	}
	if a.ROI, err = atlas.CatalogRegion(cat); err != nil {
		return a, err
	}

	grid := a.Snapshot.Grid()
	for _, p := range a.ROI.ContainedPoints() {
		a.Pixels++
		if tessellate.Coverage(grid, p) {
			a.Covered++
		}
	}
	return a, nil
}

package tileio

import (
	"encoding/csv"
	"fmt"
	"image"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/dustin/go-humanize"
	"golang.org/x/image/tiff"

	"roisplitter/internal/logger"
	"roisplitter/pkg/atlas"
	"roisplitter/pkg/transform"
)

// InfoDir is the folder of the output directory holding ROI tables
const InfoDir = "000_ManualROIs_info"

// PositionsHeader is the first line of a ROI positions table
var PositionsHeader = []string{
	"roiID", "high_res_x_pos", "high_res_y_pos",
	"registration_image_pixel_size", "high_res_pixel_size", "units",
}

// PositionRow is one tile of a ROI positions table
type PositionRow struct {
	ID                    int
	X, Y                  int
	RegistrationPixelSize float64
	PixelSize             float64
	Units                 string
}

// Summary counts what an export wrote
type Summary struct {
	Tiles int
	Files int
	Bytes int64
}

func (s Summary) String() string {
	return fmt.Sprintf("%s tiles, %s files, %s written",
		humanize.Comma(int64(s.Tiles)), humanize.Comma(int64(s.Files)), humanize.Bytes(uint64(s.Bytes)))
}

// countingWriter counts the bytes passed to the underlying writer
type countingWriter struct {
	w io.Writer
	n int64
}

func (c *countingWriter) Write(p []byte) (int, error) {
	n, err := c.w.Write(p)
	c.n += int64(n)
	return n, err
}

// WriteTIFF encodes img as a deflate-compressed TIFF and returns the file size
func WriteTIFF(path string, img image.Image) (int64, error) {
	f, err := os.Create(path)
	if err != nil {
		return 0, err
	}
	cw := &countingWriter{w: f}
	if err := tiff.Encode(cw, img, &tiff.Options{Compression: tiff.Deflate}); err != nil {
		f.Close()
		return 0, fmt.Errorf("error encoding %s: %w", path, err)
	}
	if err := f.Close(); err != nil {
		return 0, err
	}
	return cw.n, nil
}

// PositionsPath is the positions table of a ROI inside an output directory
func PositionsPath(outputDir, manualROI string) string {
	return filepath.Join(outputDir, InfoDir, manualROI+"_roi_positions.txt")
}

// WritePositions writes a ROI positions table, one tile per line after the header
func WritePositions(path string, rows []PositionRow) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("error creating info directory: %w", err)
	}

	var b strings.Builder
	b.WriteString(strings.Join(PositionsHeader, ", "))
	for _, r := range rows {
		fmt.Fprintf(&b, "\n%d, %d, %d, %s, %s, %s",
			r.ID, r.X, r.Y, formatFloat(r.RegistrationPixelSize), formatFloat(r.PixelSize), r.Units)
	}
	if err := os.WriteFile(path, []byte(b.String()), 0644); err != nil {
		return fmt.Errorf("error writing positions table: %w", err)
	}
	return nil
}

// ReadPositions reads a ROI positions table
func ReadPositions(path string) ([]PositionRow, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("error opening positions table: %w", err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.TrimLeadingSpace = true
	r.FieldsPerRecord = len(PositionsHeader)
	records, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("error parsing positions table: %w", err)
	}
	if len(records) == 0 || records[0][0] != PositionsHeader[0] {
		return nil, fmt.Errorf("%s: missing positions header", path)
	}

	rows := make([]PositionRow, 0, len(records)-1)
	for i, rec := range records[1:] {
		row, err := parseRow(rec)
		if err != nil {
			return nil, fmt.Errorf("%s line %d: %w", path, i+2, err)
		}
		rows = append(rows, row)
	}
	return rows, nil
}

func parseRow(rec []string) (PositionRow, error) {
	var row PositionRow
	var err error
	if row.ID, err = strconv.Atoi(rec[0]); err != nil {
		return row, err
	}
	if row.X, err = strconv.Atoi(rec[1]); err != nil {
		return row, err
	}
	if row.Y, err = strconv.Atoi(rec[2]); err != nil {
		return row, err
	}
	if row.RegistrationPixelSize, err = strconv.ParseFloat(rec[3], 64); err != nil {
		return row, err
	}
	if row.PixelSize, err = strconv.ParseFloat(rec[4], 64); err != nil {
		return row, err
	}
	row.Units = rec[5]
	return row, nil
}

// ExportOptions names and annotates an exported ROI
type ExportOptions struct {
	OutputDir              string
	ManualROI              string
	RegistrationResolution float64
}

// ExportTiles cuts every tile from a stored full-resolution image, writes one
// TIFF per channel and tile, and records the tile origins in the ROI
// positions table.
func ExportTiles(s *Series, index int, tiles []transform.TileRect, opts ExportOptions) (Summary, error) {
	var sum Summary
	if err := os.MkdirAll(opts.OutputDir, 0755); err != nil {
		return sum, fmt.Errorf("error creating output directory: %w", err)
	}

	rows := make([]PositionRow, 0, len(tiles))
	for _, t := range tiles {
		logger.Info("   -> processing square ROI number %d", t.ID)
		channels, err := s.ReadRegion(index, t.Rect)
		if err != nil {
			return sum, fmt.Errorf("tile %d: %w", t.ID, err)
		}
		for c, img := range channels {
			name := atlas.TileFileName(opts.ManualROI, t.ID, c+1) + ".tif"
			n, err := WriteTIFF(filepath.Join(opts.OutputDir, name), img)
			if err != nil {
				return sum, fmt.Errorf("tile %d: %w", t.ID, err)
			}
			sum.Files++
			sum.Bytes += n
		}
		sum.Tiles++
		rows = append(rows, PositionRow{
			ID:                    t.ID,
			X:                     t.Rect.Min.X,
			Y:                     t.Rect.Min.Y,
			RegistrationPixelSize: opts.RegistrationResolution,
			PixelSize:             s.Meta.PixelSize,
			Units:                 s.Meta.Units,
		})
	}

	if err := WritePositions(PositionsPath(opts.OutputDir, opts.ManualROI), rows); err != nil {
		return sum, err
	}
	return sum, nil
}

func formatFloat(v float64) string {
	s := strconv.FormatFloat(v, 'f', -1, 64)
	if !strings.ContainsAny(s, ".eEnN") {
		s += ".0"
	}
	return s
}

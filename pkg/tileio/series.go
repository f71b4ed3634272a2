// Package tileio reads the stored images of a multi-resolution acquisition
// and writes the tiles, tables and registration images cut from it.
//
// A series directory holds one TIFF per stored image and channel, named
// series-<index>_channel-<c>.tif with channels counted from 1, next to a
// series.yaml file with the acquisition metadata. Images are listed in the
// order the microscope stored them: every slice's pyramid, largest level
// first, followed by the non-pyramid label and overview images.
package tileio

import (
	"errors"
	"fmt"
	"image"
	"os"
	"path/filepath"
	"regexp"
	"strconv"

	"golang.org/x/image/draw"
	"golang.org/x/image/tiff"
	"gopkg.in/yaml.v3"

	"roisplitter/internal/logger"
	"roisplitter/internal/models"
)

// MetadataFile is the name of the metadata file of a series directory
const MetadataFile = "series.yaml"

var (
	// ErrNoImages indicates a series directory without stored images.
	ErrNoImages = errors.New("no stored images in series directory")

	// ErrRegionOutside indicates a read region that does not overlap the image.
	ErrRegionOutside = errors.New("region lies outside the image")
)

var seriesFile = regexp.MustCompile(`^series-(\d+)_channel-(\d+)\.tif$`)

// Metadata describes an acquisition. Every stored image shares the pixel
// size of the full-resolution level; the size of lower levels is derived
// from the binning.
type Metadata struct {
	Name      string  `yaml:"name"`
	PixelSize float64 `yaml:"pixelSize"`
	Units     string  `yaml:"units"`
	Channels  int     `yaml:"channels"`
}

// Series gives access to the stored images of one acquisition
type Series struct {
	dir   string
	Meta  Metadata
	count int

	// last decoded image, tiles of one slice are read from the same level
	cachedIndex int
	cached      []*image.Gray16
}

// OpenSeries scans a series directory. A missing metadata file gives one
// channel, a pixel size of 1 and units of pixels.
func OpenSeries(dir string) (*Series, error) {
	s := &Series{
		dir:         dir,
		Meta:        Metadata{Name: filepath.Base(dir), PixelSize: 1, Units: "pixel", Channels: 1},
		cachedIndex: -1,
	}

	data, err := os.ReadFile(filepath.Join(dir, MetadataFile))
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, &s.Meta); err != nil {
			return nil, fmt.Errorf("error parsing series metadata: %w", err)
		}
	case !os.IsNotExist(err):
		return nil, fmt.Errorf("error reading series metadata: %w", err)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("error reading series directory: %w", err)
	}
	indexes := make(map[int]bool)
	for _, e := range entries {
		m := seriesFile.FindStringSubmatch(e.Name())
		if m == nil {
			continue
		}
		if ch, _ := strconv.Atoi(m[2]); ch != 1 {
			continue
		}
		idx, _ := strconv.Atoi(m[1])
		indexes[idx] = true
	}
	if len(indexes) == 0 {
		return nil, fmt.Errorf("%s: %w", dir, ErrNoImages)
	}
	for i := 0; i < len(indexes); i++ {
		if !indexes[i] {
			return nil, fmt.Errorf("%s: stored image %d is missing", dir, i)
		}
	}
	s.count = len(indexes)

	logger.Debug("series %s: %d stored images, %d channels", s.Meta.Name, s.count, s.Meta.Channels)
	return s, nil
}

// Len returns the number of stored images
func (s *Series) Len() int {
	return s.count
}

// ImagePath returns the file holding one channel of a stored image
func ImagePath(dir string, index, channel int) string {
	return filepath.Join(dir, fmt.Sprintf("series-%03d_channel-%d.tif", index, channel))
}

// Records returns the dimension record of every stored image, read from the
// TIFF headers without decoding pixels.
func (s *Series) Records() ([]models.ImageDimensionRecord, error) {
	records := make([]models.ImageDimensionRecord, 0, s.count)
	for i := 0; i < s.count; i++ {
		f, err := os.Open(ImagePath(s.dir, i, 1))
		if err != nil {
			return nil, fmt.Errorf("error opening stored image %d: %w", i, err)
		}
		cfg, err := tiff.DecodeConfig(f)
		f.Close()
		if err != nil {
			return nil, fmt.Errorf("error reading header of stored image %d: %w", i, err)
		}
		records = append(records, models.ImageDimensionRecord{Index: i, Width: cfg.Width})
	}
	return records, nil
}

// ReadImage decodes every channel of a stored image
func (s *Series) ReadImage(index int) ([]*image.Gray16, error) {
	if index == s.cachedIndex {
		return s.cached, nil
	}
	if index < 0 || index >= s.count {
		return nil, fmt.Errorf("stored image %d out of range [0, %d)", index, s.count)
	}

	channels := make([]*image.Gray16, s.Meta.Channels)
	for c := range channels {
		img, err := readTIFF(ImagePath(s.dir, index, c+1))
		if err != nil {
			return nil, fmt.Errorf("stored image %d channel %d: %w", index, c+1, err)
		}
		channels[c] = img
	}

	s.cachedIndex = index
	s.cached = channels
	return channels, nil
}

// ReadChannel decodes one channel of a stored image
func (s *Series) ReadChannel(index, channel int) (*image.Gray16, error) {
	channels, err := s.ReadImage(index)
	if err != nil {
		return nil, err
	}
	if channel < 1 || channel > len(channels) {
		return nil, fmt.Errorf("channel %d out of range [1, %d]", channel, len(channels))
	}
	return channels[channel-1], nil
}

// ReadRegion returns every channel of a stored image cropped to rect. Parts
// of rect outside the image are clipped.
func (s *Series) ReadRegion(index int, rect image.Rectangle) ([]*image.Gray16, error) {
	channels, err := s.ReadImage(index)
	if err != nil {
		return nil, err
	}

	out := make([]*image.Gray16, len(channels))
	for c, img := range channels {
		r := rect.Intersect(img.Bounds())
		if r.Empty() {
			return nil, fmt.Errorf("%v in stored image %d: %w", rect, index, ErrRegionOutside)
		}
		crop := image.NewGray16(image.Rect(0, 0, r.Dx(), r.Dy()))
		draw.Draw(crop, crop.Bounds(), img, r.Min, draw.Src)
		out[c] = crop
	}
	return out, nil
}

// WriteImage stores one channel of an image in a series directory
func WriteImage(dir string, index, channel int, img image.Image) error {
	_, err := WriteTIFF(ImagePath(dir, index, channel), img)
	return err
}

// WriteMetadata stores the metadata file of a series directory
func WriteMetadata(dir string, meta Metadata) error {
	data, err := yaml.Marshal(meta)
	if err != nil {
		return fmt.Errorf("error marshaling series metadata: %w", err)
	}
	if err := os.WriteFile(filepath.Join(dir, MetadataFile), data, 0644); err != nil {
		return fmt.Errorf("error writing series metadata: %w", err)
	}
	return nil
}

func readTIFF(path string) (*image.Gray16, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	img, err := tiff.Decode(f)
	if err != nil {
		return nil, err
	}
	return toGray16(img), nil
}

func toGray16(img image.Image) *image.Gray16 {
	if g, ok := img.(*image.Gray16); ok && g.Bounds().Min == (image.Point{}) {
		return g
	}
	b := img.Bounds()
	g := image.NewGray16(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(g, g.Bounds(), img, b.Min, draw.Src)
	return g
}

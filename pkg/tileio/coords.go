package tileio

import (
	"bufio"
	"encoding/binary"
	"errors"
	"fmt"
	"os"

	"roisplitter/pkg/transform"
)

// coordinate files start with this tag, then width and height as uint32 and
// the three float32 channels, all little endian
var coordsMagic = [4]byte{'R', 'S', 'C', 'I'}

const coordsHeaderSize = 12

// ErrNotCoordinateFile indicates a file without the coordinate image tag.
var ErrNotCoordinateFile = errors.New("not a coordinate image file")

// WriteCoordinateImage stores a coordinate image
func WriteCoordinateImage(path string, img *transform.CoordinateImage) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	w := bufio.NewWriter(f)

	header := []interface{}{coordsMagic, uint32(img.Width), uint32(img.Height)}
	for _, v := range header {
		if err := binary.Write(w, binary.LittleEndian, v); err != nil {
			f.Close()
			return fmt.Errorf("error writing coordinate header: %w", err)
		}
	}
	for c, ch := range img.Channels {
		if err := binary.Write(w, binary.LittleEndian, ch); err != nil {
			f.Close()
			return fmt.Errorf("error writing coordinate channel %d: %w", c, err)
		}
	}
	if err := w.Flush(); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// ReadCoordinateImage loads a coordinate image written by WriteCoordinateImage
func ReadCoordinateImage(path string) (*transform.CoordinateImage, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	r := bufio.NewReader(f)

	var magic [4]byte
	var width, height uint32
	if err := binary.Read(r, binary.LittleEndian, &magic); err != nil {
		return nil, fmt.Errorf("error reading coordinate header: %w", err)
	}
	if magic != coordsMagic {
		return nil, fmt.Errorf("%s: %w", path, ErrNotCoordinateFile)
	}
	if err := binary.Read(r, binary.LittleEndian, &width); err != nil {
		return nil, fmt.Errorf("error reading coordinate header: %w", err)
	}
	if err := binary.Read(r, binary.LittleEndian, &height); err != nil {
		return nil, fmt.Errorf("error reading coordinate header: %w", err)
	}

	info, err := f.Stat()
	if err != nil {
		return nil, err
	}
	body := info.Size() - coordsHeaderSize
	if body < 0 || body%12 != 0 || uint64(width)*uint64(height) != uint64(body/12) {
		return nil, fmt.Errorf("%s: %dx%d image in %d bytes: %w", path, width, height, info.Size(), ErrNotCoordinateFile)
	}

	img := transform.NewCoordinateImage(int(width), int(height))
	for c := range img.Channels {
		if err := binary.Read(r, binary.LittleEndian, img.Channels[c]); err != nil {
			return nil, fmt.Errorf("error reading coordinate channel %d: %w", c, err)
		}
	}
	return img, nil
}

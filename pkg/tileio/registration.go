package tileio

import (
	"fmt"
	"image"
	"os"
	"path/filepath"

	"golang.org/x/image/draw"

	"roisplitter/internal/logger"
)

// RegistrationImage selects the image saved for atlas registration
type RegistrationImage struct {
	// Index is the stored image to save
	Index int

	// Channel is the channel to save, counted from 1
	Channel int

	// PixelSize is the pixel size of the stored image
	PixelSize float64

	// Resolution is the pixel size of the saved image
	Resolution float64
}

// Scale resizes img so that its width is newWidth, keeping the aspect ratio
func Scale(img image.Image, newWidth int) *image.Gray16 {
	b := img.Bounds()
	h := int(float64(b.Dy()) / float64(b.Dx()) * float64(newWidth))
	if h < 1 {
		h = 1
	}
	dst := image.NewGray16(image.Rect(0, 0, newWidth, h))
	draw.ApproxBiLinear.Scale(dst, dst.Rect, img, b, draw.Src, nil)
	return dst
}

// ExportRegistration saves one channel of a stored image, resized to the
// registration resolution, as <folder>/<slice>.tif. An existing file is kept
// and reported as not written.
func ExportRegistration(s *Series, reg RegistrationImage, folder, slice string) (string, bool, error) {
	path := filepath.Join(folder, slice+".tif")
	if _, err := os.Stat(path); err == nil {
		logger.Info("Registration slice already exists")
		return path, false, nil
	}
	if !(reg.Resolution > 0) || !(reg.PixelSize > 0) {
		return "", false, fmt.Errorf("invalid registration resolution %g for pixel size %g", reg.Resolution, reg.PixelSize)
	}

	img, err := s.ReadChannel(reg.Index, reg.Channel)
	if err != nil {
		return "", false, err
	}
	newWidth := int(reg.PixelSize / reg.Resolution * float64(img.Bounds().Dx()))
	if newWidth < 1 {
		return "", false, fmt.Errorf("registration image of stored image %d would be empty", reg.Index)
	}

	if err := os.MkdirAll(folder, 0755); err != nil {
		return "", false, fmt.Errorf("error creating registration directory: %w", err)
	}
	logger.Info("Saving for registration channel %d at %g um/px", reg.Channel, reg.Resolution)
	if _, err := WriteTIFF(path, Scale(img, newWidth)); err != nil {
		return "", false, err
	}
	return path, true, nil
}

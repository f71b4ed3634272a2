package transform

import (
	"image"
)

// Mask is a binary raster used to rebuild regions from scattered pixels
type Mask struct {
	Width  int
	Height int
	Pix    []bool
}

// NewMask allocates an empty mask
func NewMask(width, height int) *Mask {
	return &Mask{Width: width, Height: height, Pix: make([]bool, width*height)}
}

// In reports whether (x, y) lies inside the mask
func (m *Mask) In(x, y int) bool {
	return x >= 0 && y >= 0 && x < m.Width && y < m.Height
}

// At reports whether (x, y) is set. Pixels outside the mask are unset.
func (m *Mask) At(x, y int) bool {
	return m.In(x, y) && m.Pix[y*m.Width+x]
}

// Set marks (x, y). Pixels outside the mask are ignored.
func (m *Mask) Set(x, y int) {
	if m.In(x, y) {
		m.Pix[y*m.Width+x] = true
	}
}

// Paint sets every point of the list and returns how many fell inside the mask
func (m *Mask) Paint(points []image.Point) int {
	n := 0
	for _, p := range points {
		if m.In(p.X, p.Y) {
			m.Pix[p.Y*m.Width+p.X] = true
			n++
		}
	}
	return n
}

// Count returns the number of set pixels
func (m *Mask) Count() int {
	n := 0
	for _, v := range m.Pix {
		if v {
			n++
		}
	}
	return n
}

// Points lists the set pixels ordered by y then x
func (m *Mask) Points() []image.Point {
	var pts []image.Point
	for y := 0; y < m.Height; y++ {
		for x := 0; x < m.Width; x++ {
			if m.Pix[y*m.Width+x] {
				pts = append(pts, image.Pt(x, y))
			}
		}
	}
	return pts
}

// Erode clears every set pixel with an unset pixel among its eight
// neighbours. Neighbours outside the mask are ignored.
func (m *Mask) Erode() {
	m.morph(func(x, y int) bool {
		if !m.Pix[y*m.Width+x] {
			return false
		}
		for dy := -1; dy <= 1; dy++ {
			for dx := -1; dx <= 1; dx++ {
				nx, ny := x+dx, y+dy
				if m.In(nx, ny) && !m.Pix[ny*m.Width+nx] {
					return false
				}
			}
		}
		return true
	})
}

// Dilate sets every pixel with a set pixel among its eight neighbours
func (m *Mask) Dilate() {
	m.morph(func(x, y int) bool {
		for dy := -1; dy <= 1; dy++ {
			for dx := -1; dx <= 1; dx++ {
				if m.At(x+dx, y+dy) {
					return true
				}
			}
		}
		return false
	})
}

// Close dilates then erodes the mask the given number of times each,
// filling gaps narrower than the structuring element.
func (m *Mask) Close(passes int) {
	for i := 0; i < passes; i++ {
		m.Dilate()
	}
	for i := 0; i < passes; i++ {
		m.Erode()
	}
}

// Open erodes then dilates the mask the given number of times each,
// removing specks and thin protrusions.
func (m *Mask) Open(passes int) {
	for i := 0; i < passes; i++ {
		m.Erode()
	}
	for i := 0; i < passes; i++ {
		m.Dilate()
	}
}

func (m *Mask) morph(keep func(x, y int) bool) {
	out := make([]bool, len(m.Pix))
	for y := 0; y < m.Height; y++ {
		for x := 0; x < m.Width; x++ {
			out[y*m.Width+x] = keep(x, y)
		}
	}
	m.Pix = out
}

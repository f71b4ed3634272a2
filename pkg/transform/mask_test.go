package transform

import (
	"image"
	"testing"

	"github.com/ctessum/geom"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMask_Paint(t *testing.T) {
	m := NewMask(5, 5)
	n := m.Paint([]image.Point{{0, 0}, {10, 10}, {-1, 2}, {4, 4}})
	assert.Equal(t, 2, n)
	assert.Equal(t, 2, m.Count())
	assert.True(t, m.At(4, 4))
	assert.False(t, m.At(10, 10))
}

func TestMask_CloseBridgesGap(t *testing.T) {
	m := NewMask(7, 5)
	m.Paint([]image.Point{{2, 2}, {4, 2}})

	m.Close(1)
	assert.Equal(t, []image.Point{{2, 2}, {3, 2}, {4, 2}}, m.Points())
}

func TestMask_OpenRemovesSpecks(t *testing.T) {
	m := NewMask(9, 9)
	for y := 1; y <= 3; y++ {
		for x := 1; x <= 3; x++ {
			m.Set(x, y)
		}
	}
	m.Set(7, 7)

	m.Open(1)
	assert.Equal(t, 9, m.Count())
	assert.False(t, m.At(7, 7))
	assert.True(t, m.At(1, 1))
	assert.True(t, m.At(3, 3))
}

func TestMask_ErodeIgnoresOutside(t *testing.T) {
	m := NewMask(4, 4)
	for i := range m.Pix {
		m.Pix[i] = true
	}
	m.Erode()
	assert.Equal(t, 16, m.Count())

	m.Close(2)
	assert.Equal(t, 16, m.Count())
}

func TestTrace_Rectangle(t *testing.T) {
	m := NewMask(8, 6)
	for y := 1; y <= 2; y++ {
		for x := 2; x <= 4; x++ {
			m.Set(x, y)
		}
	}

	poly := Trace(m)
	require.Len(t, poly, 1)
	assert.ElementsMatch(t, geom.Path{{X: 2, Y: 1}, {X: 5, Y: 1}, {X: 5, Y: 3}, {X: 2, Y: 3}}, poly[0])
}

func TestTrace_ContainedPointsMatchMask(t *testing.T) {
	tests := []struct {
		name  string
		w, h  int
		setup func(m *Mask)
	}{
		{
			name: "ring with hole",
			w:    5, h: 5,
			setup: func(m *Mask) {
				for i := range m.Pix {
					m.Pix[i] = true
				}
				m.Pix[2*5+2] = false
			},
		},
		{
			name: "diagonal touch",
			w:    3, h: 3,
			setup: func(m *Mask) {
				m.Set(0, 0)
				m.Set(1, 1)
			},
		},
		{
			name: "separate blobs",
			w:    10, h: 6,
			setup: func(m *Mask) {
				m.Set(1, 1)
				m.Set(2, 1)
				m.Set(2, 2)
				for x := 5; x < 9; x++ {
					m.Set(x, 4)
				}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := NewMask(tt.w, tt.h)
			tt.setup(m)

			region, err := MaskRegion(tt.name, m)
			require.NoError(t, err)
			assert.Equal(t, m.Points(), region.ContainedPoints())
		})
	}
}

func TestReconstructRegion(t *testing.T) {
	points := []image.Point{{2, 2}, {4, 2}, {2, 4}, {4, 4}}

	region, err := ReconstructRegion("sparse", points, 8, 8, 1)
	require.NoError(t, err)

	got := region.ContainedPoints()
	assert.Len(t, got, 9)
	assert.Contains(t, got, image.Pt(3, 3))
	for _, p := range points {
		assert.Contains(t, got, p)
	}

	_, err = ReconstructRegion("nothing", []image.Point{{20, 20}}, 8, 8, 1)
	assert.ErrorIs(t, err, ErrEmptyRegion)
}

func BenchmarkClose(b *testing.B) {
	var points []image.Point
	for y := 0; y < 256; y += 2 {
		for x := 0; x < 256; x += 2 {
			points = append(points, image.Pt(x, y))
		}
	}
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		m := NewMask(256, 256)
		m.Paint(points)
		m.Close(1)
	}
}

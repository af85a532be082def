package domain

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRescalePoints_Scenario(t *testing.T) {
	s := Scale{From: Resolution{2252, 2252}, To: Resolution{3240, 2890}}
	sx, sy := s.Factors()
	assert.InDelta(t, 1.4387, sx, 1e-4)
	assert.InDelta(t, 1.2833, sy, 1e-4)

	points := []Point{{10, 20}, {math.NaN(), 5}, {30, math.NaN()}}
	n := RescalePoints(points, sx, sy)

	assert.Equal(t, 1, n)
	assert.Equal(t, 10*sx, points[0].X)
	assert.Equal(t, 20*sy, points[0].Y)
	assert.InDelta(t, 14.387, points[0].X, 1e-3)
	assert.InDelta(t, 25.666, points[0].Y, 1e-3)
	assert.True(t, math.IsNaN(points[1].X))
	assert.Equal(t, 5.0, points[1].Y)
	assert.Equal(t, 30.0, points[2].X)
	assert.True(t, math.IsNaN(points[2].Y))
}

func TestRescalePoints_MissingIsBitIdentical(t *testing.T) {
	payload := math.Float64frombits(0x7ff8000000000abc)
	points := []Point{{payload, 7.25}, {-3.5, payload}}

	n := RescalePoints(points, 2, 3)

	assert.Zero(t, n)
	assert.Equal(t, uint64(0x7ff8000000000abc), math.Float64bits(points[0].X))
	assert.Equal(t, math.Float64bits(7.25), math.Float64bits(points[0].Y))
	assert.Equal(t, math.Float64bits(-3.5), math.Float64bits(points[1].X))
	assert.Equal(t, uint64(0x7ff8000000000abc), math.Float64bits(points[1].Y))
}

func TestRescalePoints_RoundTrip(t *testing.T) {
	s := Scale{From: Resolution{2252, 2252}, To: Resolution{3240, 2890}}
	orig := []Point{{0, 0}, {1, 1}, {1125.5, 17.25}, {2251.9, 2251.9}, {math.NaN(), 4}}
	points := append([]Point(nil), orig...)

	sx, sy := s.Factors()
	RescalePoints(points, sx, sy)
	ix, iy := s.Inverse().Factors()
	RescalePoints(points, ix, iy)

	for i := range orig {
		if orig[i].Missing() {
			assert.True(t, points[i].Missing())
			continue
		}
		assert.InDelta(t, orig[i].X, points[i].X, 1e-9)
		assert.InDelta(t, orig[i].Y, points[i].Y, 1e-9)
	}
}

func TestRescalePoints_NotIdempotent(t *testing.T) {
	points := []Point{{10, 10}}
	RescalePoints(points, 2, 2)
	RescalePoints(points, 2, 2)
	assert.Equal(t, Point{40, 40}, points[0])
}

func TestPointBounds(t *testing.T) {
	b, missing, ok := PointBounds([]Point{{3, 4}, {math.NaN(), 1}, {-1, 10}, {2, math.NaN()}})
	require.True(t, ok)
	assert.Equal(t, 2, missing)
	assert.Equal(t, Bounds{MinX: -1, MinY: 4, MaxX: 3, MaxY: 10}, b)

	_, missing, ok = PointBounds([]Point{{math.NaN(), math.NaN()}})
	assert.False(t, ok)
	assert.Equal(t, 1, missing)
}

package domain

import "math"

// Point table names recognised in a labels document.
const (
	TableUserPoints      = "points"
	TablePredictedPoints = "pred_points"
)

// PointTables lists the tables rescaled, in processing order.
var PointTables = []string{TableUserPoints, TablePredictedPoints}

// Point is a labeled keypoint in pixel space. A NaN coordinate marks the
// point as missing. The layout matches two packed float64 values.
type Point struct {
	X float64
	Y float64
}

// Missing reports whether either coordinate is NaN.
func (p Point) Missing() bool {
	return math.IsNaN(p.X) || math.IsNaN(p.Y)
}

// RescalePoints multiplies every fully present point in place and returns
// how many were changed. Missing points are skipped, not multiplied, so
// their bits are preserved.
func RescalePoints(points []Point, sx, sy float64) int {
	n := 0
	for i := range points {
		if points[i].Missing() {
			continue
		}
		points[i].X *= sx
		points[i].Y *= sy
		n++
	}
	return n
}

// Bounds summarises the present points of a table.
type Bounds struct {
	MinX float64 `json:"min_x" yaml:"min_x"`
	MinY float64 `json:"min_y" yaml:"min_y"`
	MaxX float64 `json:"max_x" yaml:"max_x"`
	MaxY float64 `json:"max_y" yaml:"max_y"`
}

// PointBounds returns the bounding box of the present points and how many
// were missing. ok is false when no point is present.
func PointBounds(points []Point) (b Bounds, missing int, ok bool) {
	for _, p := range points {
		if p.Missing() {
			missing++
			continue
		}
		if !ok {
			b = Bounds{MinX: p.X, MinY: p.Y, MaxX: p.X, MaxY: p.Y}
			ok = true
			continue
		}
		b.MinX = math.Min(b.MinX, p.X)
		b.MinY = math.Min(b.MinY, p.Y)
		b.MaxX = math.Max(b.MaxX, p.X)
		b.MaxY = math.Max(b.MaxY, p.Y)
	}
	return b, missing, ok
}

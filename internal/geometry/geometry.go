// Package geometry provides the pure spatial primitives used to classify
// stamps against drawn locations: containment tests, the shoelace area
// formula, and shape validation. Functions here have no side effects and
// never touch storage.
package geometry

import (
	"math"

	apperrors "github.com/takeoffapp/takeoff-server/internal/errors"
)

const (
	// VertexTolerance is the distance below which two coordinates are
	// considered the same vertex. Drawn paths come from canvas pixels so
	// anything tighter than this is noise.
	VertexTolerance = 0.001

	// MinArea is the smallest accepted shape area in square units.
	// Anything smaller is almost certainly a mis-click.
	MinArea = 1.0
)

// Point is a 2D coordinate on a plan.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Bounds is an axis-aligned rectangle anchored at its top-left corner.
type Bounds struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// PointInRectangle reports whether p lies inside b.
// The boundary is inclusive: corners and edges count as inside.
func PointInRectangle(p Point, b Bounds) bool {
	return p.X >= b.X && p.X <= b.X+b.Width &&
		p.Y >= b.Y && p.Y <= b.Y+b.Height
}

// PointInPolygon reports whether p lies inside the polygon described by
// vertices (an open ring: the closing edge back to vertices[0] is implied).
// Returns false for fewer than 3 vertices.
//
// A bounding-box check rejects far-away points before the even-odd ray
// cast runs. That is purely a fast path: both tests agree for every point
// inside the box.
func PointInPolygon(p Point, vertices []Point) bool {
	if len(vertices) < 3 {
		return false
	}
	if !PointInRectangle(p, BoundingBox(vertices)) {
		return false
	}
	return pointInRing(p, vertices)
}

// pointInRing is the even-odd ray casting test. A horizontal ray from p
// toward +X is intersected with each edge; an odd crossing count means
// inside. The tiny epsilon guards the division when an edge is horizontal.
func pointInRing(p Point, ring []Point) bool {
	inside := false
	n := len(ring)
	for i, j := 0, n-1; i < n; j, i = i, i+1 {
		xi, yi := ring[i].X, ring[i].Y
		xj, yj := ring[j].X, ring[j].Y
		intersect := ((yi > p.Y) != (yj > p.Y)) &&
			(p.X < (xj-xi)*(p.Y-yi)/(yj-yi+1e-12)+xi)
		if intersect {
			inside = !inside
		}
	}
	return inside
}

// BoundingBox returns the axis-aligned bounding box of the vertices.
// Returns the zero Bounds for an empty slice.
func BoundingBox(vertices []Point) Bounds {
	if len(vertices) == 0 {
		return Bounds{}
	}
	minX, minY := vertices[0].X, vertices[0].Y
	maxX, maxY := minX, minY
	for _, v := range vertices[1:] {
		minX = math.Min(minX, v.X)
		minY = math.Min(minY, v.Y)
		maxX = math.Max(maxX, v.X)
		maxY = math.Max(maxY, v.Y)
	}
	return Bounds{X: minX, Y: minY, Width: maxX - minX, Height: maxY - minY}
}

// PolygonArea computes the area of the polygon via the shoelace formula.
// Always returns the non-negative magnitude; returns 0 for fewer than
// 3 vertices.
func PolygonArea(vertices []Point) float64 {
	n := len(vertices)
	if n < 3 {
		return 0
	}
	var sum float64
	for i := range n {
		j := (i + 1) % n
		sum += vertices[i].X*vertices[j].Y - vertices[j].X*vertices[i].Y
	}
	return math.Abs(sum) / 2
}

// AutoClose normalizes a drawn path to open form: trailing vertices that
// land back on the first vertex (within VertexTolerance) are dropped.
// Callers store open rings; the closing edge is implied.
func AutoClose(vertices []Point) []Point {
	out := vertices
	for len(out) > 1 && samePoint(out[len(out)-1], out[0]) {
		out = out[:len(out)-1]
	}
	return out
}

// ValidateRectangle checks that b describes a usable rectangle.
// Returns a Validation error for non-positive dimensions or area below
// MinArea; nil when valid.
func ValidateRectangle(b Bounds) error {
	if b.Width <= 0 || b.Height <= 0 {
		return apperrors.Validation("rectangle width and height must be positive")
	}
	if b.Width*b.Height < MinArea {
		return apperrors.Validationf("rectangle area must be at least %.0f square unit", MinArea)
	}
	return nil
}

// ValidatePolygon checks that vertices describe a usable polygon.
// The unique-vertex check runs before the raw-count check so callers see
// the more specific error when both fail.
func ValidatePolygon(vertices []Point) error {
	if uniqueVertexCount(vertices) < 3 {
		return apperrors.Validation("polygon must have at least 3 unique vertices")
	}
	if len(vertices) < 3 {
		return apperrors.Validation("polygon must have at least 3 vertices")
	}
	if PolygonArea(vertices) < MinArea {
		return apperrors.Validationf("polygon area must be at least %.0f square unit", MinArea)
	}
	return nil
}

// uniqueVertexCount counts distinct vertices after snapping coordinates to
// the VertexTolerance grid.
func uniqueVertexCount(vertices []Point) int {
	type cell struct{ x, y int64 }
	seen := make(map[cell]struct{}, len(vertices))
	for _, v := range vertices {
		seen[cell{snap(v.X), snap(v.Y)}] = struct{}{}
	}
	return len(seen)
}

func snap(f float64) int64 {
	return int64(math.Round(f / VertexTolerance))
}

func samePoint(a, b Point) bool {
	return math.Abs(a.X-b.X) <= VertexTolerance && math.Abs(a.Y-b.Y) <= VertexTolerance
}

package domain

import (
	"time"

	"github.com/takeoffapp/takeoff-server/internal/geometry"
)

// LocationType distinguishes how a location's geometry is stored.
type LocationType string

const (
	// LocationRectangle is an axis-aligned rectangle described by Bounds.
	LocationRectangle LocationType = "rectangle"
	// LocationPolygon is an arbitrary region described by an ordered
	// open vertex ring.
	LocationPolygon LocationType = "polygon"
)

// Location is a user-drawn region on a plan representing a room or area.
// Exactly one of Bounds (rectangle) or Vertices (polygon) is populated,
// never both. Vertex order defines the polygon boundary and is preserved
// on every read.
//
// Revision starts at 0 on create and increments by 1 on every
// successful update; it is restored verbatim when an update is undone.
type Location struct {
	CreatedAt time.Time        `json:"created_at"`
	UpdatedAt time.Time        `json:"updated_at"`
	ID        string           `json:"id"`
	PlanID    string           `json:"plan_id"`
	Name      string           `json:"name"`
	Type      LocationType     `json:"type"`
	Bounds    *geometry.Bounds `json:"bounds,omitempty"`
	Vertices  []geometry.Point `json:"vertices,omitempty"`
	Color     string           `json:"color,omitempty"` // Hex color for rendering
	Revision  int64            `json:"revision"`
}

// Contains reports whether the point lies inside this location's geometry.
// Missing or empty geometry classifies as outside rather than erroring:
// a half-drawn location simply contains nothing.
func (l *Location) Contains(p geometry.Point) bool {
	switch l.Type {
	case LocationRectangle:
		if l.Bounds == nil {
			return false
		}
		return geometry.PointInRectangle(p, *l.Bounds)
	case LocationPolygon:
		return geometry.PointInPolygon(p, l.Vertices)
	default:
		return false
	}
}

// Area returns the location's area in square plan units, 0 when geometry
// is missing. Used for the smallest-area-wins classification tie-break.
func (l *Location) Area() float64 {
	switch l.Type {
	case LocationRectangle:
		if l.Bounds == nil {
			return 0
		}
		return l.Bounds.Width * l.Bounds.Height
	case LocationPolygon:
		return geometry.PolygonArea(l.Vertices)
	default:
		return 0
	}
}

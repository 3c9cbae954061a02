package domain

import "time"

// Position is where a stamp sits on its plan, plus the display scale the
// viewer placed it at.
type Position struct {
	X     float64 `json:"x"`
	Y     float64 `json:"y"`
	Scale float64 `json:"scale"`
}

// Stamp is a placed instance of a device symbol at a coordinate on a plan.
//
// LocationID is either supplied explicitly by the caller or auto-derived
// by classifying Position against the plan's locations; empty means the
// stamp belongs to no location. Membership is never re-derived after
// creation except by an explicit reconciliation pass.
type Stamp struct {
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
	ID         string    `json:"id"`
	PlanID     string    `json:"plan_id"`
	DeviceID   string    `json:"device_id"`
	LocationID string    `json:"location_id,omitempty"`
	Position   Position  `json:"position"`
	Revision   int64     `json:"revision"`
}

package domain

import "time"

// Project is the top-level container for a takeoff: one customer job,
// holding the uploaded floorplan pages (Plans) and the device catalog.
type Project struct {
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
	ID        string    `json:"id"`
	Name      string    `json:"name"`
}

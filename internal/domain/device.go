package domain

import "time"

// Device is a symbol type that can be stamped onto plans: an outlet, a
// smoke detector, a sprinkler head. Devices belong to a project and their
// names are unique within it.
type Device struct {
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
	ID        string    `json:"id"`
	ProjectID string    `json:"project_id"`
	Name      string    `json:"name"`
	Symbol    string    `json:"symbol,omitempty"` // Symbol identifier for the viewer
	Color     string    `json:"color,omitempty"`  // Hex color for rendering
}

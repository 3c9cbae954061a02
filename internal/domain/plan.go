package domain

import "time"

// Plan is one page of an uploaded floorplan document. It is the spatial
// scope within which stamps and locations coexist: classification, counts,
// and realtime events are all keyed by plan.
type Plan struct {
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
	ID         string    `json:"id"`
	ProjectID  string    `json:"project_id"`
	Name       string    `json:"name"`
	PageNumber int       `json:"page_number"` // 1-based page within the source document
}

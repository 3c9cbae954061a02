package domain

import "time"

// NoLocation is the sentinel key for the "no location" bucket in count
// rows. Counts key on it instead of a nullable column so the
// (plan, device, location) uniqueness constraint holds for unassigned
// stamps too.
const NoLocation = ""

// Count is a materialized per-(plan, device, location) running total of
// stamps. It is a cache over the stamp table, never a source of truth:
// every row is reconstructable from live stamps via reconciliation.
// A zero total is a valid cache entry meaning "no current stamps".
type Count struct {
	UpdatedAt  time.Time `json:"updated_at"`
	PlanID     string    `json:"plan_id"`
	DeviceID   string    `json:"device_id"`
	LocationID string    `json:"location_id"` // NoLocation for unassigned stamps
	Total      int64     `json:"total"`
}

// DeviceTotal is a plan-wide total for one device, summed across all
// location buckets.
type DeviceTotal struct {
	DeviceID string `json:"device_id"`
	Total    int64  `json:"total"`
}

// PlanCounts is the read model served to viewers and exporters: the cached
// rows plus the per-device plan totals derived from them.
type PlanCounts struct {
	PlanID       string        `json:"plan_id"`
	Counts       []*Count      `json:"counts"`
	DeviceTotals []DeviceTotal `json:"device_totals"`
}

package sqlite

import (
	"context"
	"database/sql"
	"time"

	"github.com/takeoffapp/takeoff-server/internal/domain"
)

func scanCount(scanner interface{ Scan(dest ...any) error }) (*domain.Count, error) {
	var c domain.Count
	var updatedAt string

	err := scanner.Scan(&c.PlanID, &c.DeviceID, &c.LocationID, &c.Total, &updatedAt)
	if err != nil {
		return nil, err
	}
	c.UpdatedAt, err = parseTime(updatedAt)
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// GetCount returns the cached total for one (plan, device, location)
// bucket. An uncached bucket reads as zero, not as an error.
func (s *Store) GetCount(ctx context.Context, planID, deviceID, locationID string) (int64, error) {
	var total int64
	err := s.db.QueryRowContext(ctx, `
		SELECT total FROM counts
		WHERE plan_id = ? AND device_id = ? AND location_id = ?`,
		planID, deviceID, locationID,
	).Scan(&total)
	if err == sql.ErrNoRows {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	return total, nil
}

// GetCountsForPlan returns every cached count row for a plan, zero totals
// included, ordered by device then location.
func (s *Store) GetCountsForPlan(ctx context.Context, planID string) ([]*domain.Count, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT plan_id, device_id, location_id, total, updated_at
		FROM counts
		WHERE plan_id = ?
		ORDER BY device_id, location_id`,
		planID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var counts []*domain.Count
	for rows.Next() {
		c, err := scanCount(rows)
		if err != nil {
			return nil, err
		}
		counts = append(counts, c)
	}
	return counts, rows.Err()
}

// countKey identifies one count bucket during reconciliation.
type countKey struct {
	deviceID   string
	locationID string
}

// RecomputeCounts reconciles a plan's count cache against its live
// stamps in one transaction. classify re-derives a location for each
// currently unassigned stamp (returning "" to leave it unassigned); the
// derived assignments are persisted so the cache and the stamp table
// agree afterwards. Totals are then overwritten from a GROUP BY over the
// stamps. Returns the count rows whose total changed, in their final
// state. Idempotent: a second run with no interleaved writes changes
// zero rows.
func (s *Store) RecomputeCounts(ctx context.Context, planID string, classify func(x, y float64) string) ([]*domain.Count, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	// Snapshot the cache before touching anything so changed-row
	// accounting compares against the pre-reconciliation state.
	before := map[countKey]int64{}
	rows, err := tx.QueryContext(ctx, `
		SELECT device_id, location_id, total FROM counts WHERE plan_id = ?`, planID)
	if err != nil {
		return nil, err
	}
	for rows.Next() {
		var k countKey
		var total int64
		if err := rows.Scan(&k.deviceID, &k.locationID, &total); err != nil {
			rows.Close()
			return nil, err
		}
		before[k] = total
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}

	// Re-classify unassigned stamps.
	type assignment struct {
		stampID    string
		locationID string
	}
	var assignments []assignment
	rows, err = tx.QueryContext(ctx, `
		SELECT id, x, y FROM stamps WHERE plan_id = ? AND location_id IS NULL`, planID)
	if err != nil {
		return nil, err
	}
	for rows.Next() {
		var id string
		var x, y float64
		if err := rows.Scan(&id, &x, &y); err != nil {
			rows.Close()
			return nil, err
		}
		if locID := classify(x, y); locID != "" {
			assignments = append(assignments, assignment{stampID: id, locationID: locID})
		}
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for _, a := range assignments {
		if _, err := tx.ExecContext(ctx, `
			UPDATE stamps SET location_id = ? WHERE id = ?`, a.locationID, a.stampID); err != nil {
			return nil, err
		}
	}

	// Re-derive the expected totals from the stamps.
	expected := map[countKey]int64{}
	rows, err = tx.QueryContext(ctx, `
		SELECT device_id, COALESCE(location_id, ''), COUNT(*)
		FROM stamps
		WHERE plan_id = ?
		GROUP BY device_id, COALESCE(location_id, '')`,
		planID,
	)
	if err != nil {
		return nil, err
	}
	for rows.Next() {
		var k countKey
		var total int64
		if err := rows.Scan(&k.deviceID, &k.locationID, &total); err != nil {
			rows.Close()
			return nil, err
		}
		expected[k] = total
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}

	now := time.Now()
	nowStr := formatTime(now)
	var changed []*domain.Count

	for k, total := range expected {
		if before[k] == total {
			continue
		}
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO counts (plan_id, device_id, location_id, total, updated_at)
			VALUES (?, ?, ?, ?, ?)
			ON CONFLICT (plan_id, device_id, location_id)
			DO UPDATE SET total = excluded.total, updated_at = excluded.updated_at`,
			planID, k.deviceID, k.locationID, total, nowStr,
		); err != nil {
			return nil, err
		}
		changed = append(changed, &domain.Count{
			UpdatedAt: now, PlanID: planID,
			DeviceID: k.deviceID, LocationID: k.locationID, Total: total,
		})
	}

	// Buckets with no remaining stamps drop to zero; the rows themselves
	// are retained.
	for k, total := range before {
		if _, ok := expected[k]; ok || total == 0 {
			continue
		}
		if _, err := tx.ExecContext(ctx, `
			UPDATE counts SET total = 0, updated_at = ?
			WHERE plan_id = ? AND device_id = ? AND location_id = ?`,
			nowStr, planID, k.deviceID, k.locationID,
		); err != nil {
			return nil, err
		}
		changed = append(changed, &domain.Count{
			UpdatedAt: now, PlanID: planID,
			DeviceID: k.deviceID, LocationID: k.locationID, Total: 0,
		})
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return changed, nil
}

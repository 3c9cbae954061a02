package sqlite

import (
	"context"
	"testing"

	"github.com/takeoffapp/takeoff-server/internal/domain"
)

func TestGetCount_UncachedIsZero(t *testing.T) {
	s := newTestStore(t)
	seedPlan(t, s)

	total, err := s.GetCount(context.Background(), "plan-1", "dev-1", domain.NoLocation)
	if err != nil {
		t.Fatalf("GetCount: %v", err)
	}
	if total != 0 {
		t.Errorf("total: got %d, want 0", total)
	}
}

// rectangleClassifier assigns points inside the given bounds to locID.
func rectangleClassifier(locID string, x0, y0, w, h float64) func(x, y float64) string {
	return func(x, y float64) string {
		if x >= x0 && x <= x0+w && y >= y0 && y <= y0+h {
			return locID
		}
		return ""
	}
}

func TestRecomputeCounts_FixesCorruptedCache(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	seedPlan(t, s)

	createTestStamp(t, s, "stmp-r1", "", 5, 5)
	createTestStamp(t, s, "stmp-r2", "", 6, 6)

	// Corrupt the cache directly.
	if _, err := s.db.Exec(`UPDATE counts SET total = 99 WHERE plan_id = 'plan-1'`); err != nil {
		t.Fatalf("corrupt counts: %v", err)
	}

	noop := func(x, y float64) string { return "" }
	changed, err := s.RecomputeCounts(ctx, "plan-1", noop)
	if err != nil {
		t.Fatalf("RecomputeCounts: %v", err)
	}
	if len(changed) != 1 {
		t.Fatalf("changed: got %d rows, want 1", len(changed))
	}
	if changed[0].Total != 2 {
		t.Errorf("changed[0].Total: got %d, want 2", changed[0].Total)
	}

	total, err := s.GetCount(ctx, "plan-1", "dev-1", domain.NoLocation)
	if err != nil {
		t.Fatalf("GetCount: %v", err)
	}
	if total != 2 {
		t.Errorf("total: got %d, want 2", total)
	}

	// Second run is a no-op.
	changed, err = s.RecomputeCounts(ctx, "plan-1", noop)
	if err != nil {
		t.Fatalf("RecomputeCounts (idempotent): %v", err)
	}
	if len(changed) != 0 {
		t.Errorf("idempotent changed: got %d rows, want 0", len(changed))
	}
}

func TestRecomputeCounts_ReclassifiesUnassignedStamps(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	seedPlan(t, s)

	createTestLocation(t, s, "loc-rc", geometryBounds(0, 0, 10, 10))
	createTestStamp(t, s, "stmp-in", "", 5, 5)
	createTestStamp(t, s, "stmp-out", "", 50, 50)

	changed, err := s.RecomputeCounts(ctx, "plan-1", rectangleClassifier("loc-rc", 0, 0, 10, 10))
	if err != nil {
		t.Fatalf("RecomputeCounts: %v", err)
	}
	// no-location bucket 2 -> 1, loc-rc bucket 0 -> 1.
	if len(changed) != 2 {
		t.Errorf("changed: got %d rows, want 2", len(changed))
	}

	// The derived assignment is persisted on the stamp itself.
	st, err := s.GetStamp(ctx, "stmp-in")
	if err != nil {
		t.Fatalf("GetStamp: %v", err)
	}
	if st.LocationID != "loc-rc" {
		t.Errorf("LocationID: got %q, want loc-rc", st.LocationID)
	}

	total, err := s.GetCount(ctx, "plan-1", "dev-1", "loc-rc")
	if err != nil {
		t.Fatalf("GetCount loc-rc: %v", err)
	}
	if total != 1 {
		t.Errorf("loc-rc total: got %d, want 1", total)
	}
	total, err = s.GetCount(ctx, "plan-1", "dev-1", domain.NoLocation)
	if err != nil {
		t.Fatalf("GetCount no-location: %v", err)
	}
	if total != 1 {
		t.Errorf("no-location total: got %d, want 1", total)
	}
}

func TestRecomputeCounts_ZeroesStaleBuckets(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	seedPlan(t, s)

	// A leftover bucket with no live stamps behind it.
	if _, err := s.db.Exec(`
		INSERT INTO counts (plan_id, device_id, location_id, total, updated_at)
		VALUES ('plan-1', 'dev-1', '', 7, '2026-01-01T00:00:00Z')`); err != nil {
		t.Fatalf("insert stale count: %v", err)
	}

	changed, err := s.RecomputeCounts(ctx, "plan-1", func(x, y float64) string { return "" })
	if err != nil {
		t.Fatalf("RecomputeCounts: %v", err)
	}
	if len(changed) != 1 {
		t.Fatalf("changed: got %d rows, want 1", len(changed))
	}
	if changed[0].Total != 0 {
		t.Errorf("changed[0].Total: got %d, want 0", changed[0].Total)
	}

	counts, err := s.GetCountsForPlan(ctx, "plan-1")
	if err != nil {
		t.Fatalf("GetCountsForPlan: %v", err)
	}
	if len(counts) != 1 {
		t.Fatalf("got %d rows, want 1 (zero rows are retained)", len(counts))
	}
	if counts[0].Total != 0 {
		t.Errorf("total: got %d, want 0", counts[0].Total)
	}
}

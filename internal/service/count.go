package service

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/takeoffapp/takeoff-server/internal/domain"
	"github.com/takeoffapp/takeoff-server/internal/geometry"
	"github.com/takeoffapp/takeoff-server/internal/sse"
	"github.com/takeoffapp/takeoff-server/internal/store/sqlite"
)

// CountService serves the denormalized count cache and reconciles it
// against the stamp table.
type CountService struct {
	store      *sqlite.Store
	sseManager *sse.Manager
	logger     *slog.Logger
}

// NewCountService creates a new count service.
func NewCountService(store *sqlite.Store, sseManager *sse.Manager, logger *slog.Logger) *CountService {
	return &CountService{
		store:      store,
		sseManager: sseManager,
		logger:     logger,
	}
}

// GetCountsForPlan returns a plan's cached count rows plus per-device
// plan totals summed across location buckets. Zero rows are included.
func (s *CountService) GetCountsForPlan(ctx context.Context, planID string) (*domain.PlanCounts, error) {
	counts, err := s.store.GetCountsForPlan(ctx, planID)
	if err != nil {
		return nil, fmt.Errorf("get counts: %w", err)
	}

	totals := map[string]int64{}
	for _, c := range counts {
		totals[c.DeviceID] += c.Total
	}
	deviceTotals := make([]domain.DeviceTotal, 0, len(totals))
	for deviceID, total := range totals {
		deviceTotals = append(deviceTotals, domain.DeviceTotal{DeviceID: deviceID, Total: total})
	}
	sort.Slice(deviceTotals, func(i, j int) bool {
		return deviceTotals[i].DeviceID < deviceTotals[j].DeviceID
	})

	return &domain.PlanCounts{
		PlanID:       planID,
		Counts:       counts,
		DeviceTotals: deviceTotals,
	}, nil
}

// GetCount returns one bucket's total; uncached buckets read as zero.
func (s *CountService) GetCount(ctx context.Context, planID, deviceID, locationID string) (int64, error) {
	return s.store.GetCount(ctx, planID, deviceID, locationID)
}

// Recompute reconciles a plan's count cache from its live stamps,
// re-classifying unassigned stamps against the current locations.
// Returns the number of count rows that changed; one count event is
// published per changed row.
func (s *CountService) Recompute(ctx context.Context, planID string) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	locations, err := s.store.ListLocationsByPlan(ctx, planID)
	if err != nil {
		return 0, fmt.Errorf("list locations: %w", err)
	}

	classify := func(x, y float64) string {
		return classifyPoint(locations, geometry.Point{X: x, Y: y})
	}

	changed, err := s.store.RecomputeCounts(ctx, planID, classify)
	if err != nil {
		return 0, fmt.Errorf("recompute counts: %w", err)
	}

	s.logger.Info("counts recomputed",
		"plan_id", planID,
		"rows_changed", len(changed),
	)

	for _, c := range changed {
		s.sseManager.Emit(sse.NewCountUpdatedEvent(c))
	}

	return int64(len(changed)), nil
}

// emitCountUpdated publishes the current total of one count bucket.
// The mutation already committed, so a failed read here only costs the
// notification, never the write.
func emitCountUpdated(ctx context.Context, store *sqlite.Store, m *sse.Manager, logger *slog.Logger, planID, deviceID, locationID string) {
	total, err := store.GetCount(ctx, planID, deviceID, locationID)
	if err != nil {
		logger.Warn("failed to read count for event",
			"plan_id", planID,
			"device_id", deviceID,
			"location_id", locationID,
			"error", err,
		)
		return
	}
	m.Emit(sse.NewCountUpdatedEvent(&domain.Count{
		UpdatedAt:  time.Now(),
		PlanID:     planID,
		DeviceID:   deviceID,
		LocationID: locationID,
		Total:      total,
	}))
}

package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/takeoffapp/takeoff-server/internal/domain"
	domainerrors "github.com/takeoffapp/takeoff-server/internal/errors"
	"github.com/takeoffapp/takeoff-server/internal/geometry"
	"github.com/takeoffapp/takeoff-server/internal/id"
	"github.com/takeoffapp/takeoff-server/internal/sse"
	"github.com/takeoffapp/takeoff-server/internal/store/sqlite"
)

// CreateStampInput carries the fields for a new stamp. Empty LocationID
// requests auto-classification of the position against the plan's
// locations.
type CreateStampInput struct {
	PlanID     string
	DeviceID   string
	LocationID string
	Position   domain.Position
}

// UpdateStampInput carries a partial stamp update. Nil fields are left
// unchanged. LocationID distinguishes "keep" (nil) from "unassign"
// (pointer to empty string). A zero ExpectedUpdatedAt updates
// unconditionally. Moving a stamp's position never re-derives its
// location; only an explicit LocationID or a recompute does.
type UpdateStampInput struct {
	ExpectedUpdatedAt time.Time
	DeviceID          *string
	LocationID        *string
	Position          *domain.Position
}

// StampService manages placed device stamps, their classification, and
// their revision history.
type StampService struct {
	store      *sqlite.Store
	sseManager *sse.Manager
	logger     *slog.Logger
}

// NewStampService creates a new stamp service.
func NewStampService(store *sqlite.Store, sseManager *sse.Manager, logger *slog.Logger) *StampService {
	return &StampService{
		store:      store,
		sseManager: sseManager,
		logger:     logger,
	}
}

// classifyPoint returns the ID of the smallest location containing the
// point, or "" when none does. locations must be in creation order: on
// an exact area tie the earlier-created location wins, keeping
// classification deterministic for nested and duplicated regions.
func classifyPoint(locations []*domain.Location, p geometry.Point) string {
	bestID := ""
	bestArea := 0.0
	for _, l := range locations {
		if !l.Contains(p) {
			continue
		}
		area := l.Area()
		if bestID == "" || area < bestArea {
			bestID = l.ID
			bestArea = area
		}
	}
	return bestID
}

// resolveLocation validates an explicit location assignment or derives
// one from the stamp position.
func (s *StampService) resolveLocation(ctx context.Context, planID, locationID string, pos domain.Position) (string, error) {
	if locationID != "" {
		location, err := s.store.GetLocation(ctx, locationID)
		if err != nil {
			if domainerrors.Is(err, domainerrors.ErrNotFound) {
				return "", domainerrors.InvalidReferencef("location %s does not exist", locationID)
			}
			return "", err
		}
		if location.PlanID != planID {
			return "", domainerrors.InvalidReferencef("location %s belongs to a different plan", locationID)
		}
		return locationID, nil
	}

	locations, err := s.store.ListLocationsByPlan(ctx, planID)
	if err != nil {
		return "", fmt.Errorf("list locations: %w", err)
	}
	return classifyPoint(locations, geometry.Point{X: pos.X, Y: pos.Y}), nil
}

// CreateStamp places a stamp, auto-assigning its location from the
// position when none is given, and records its create revision. The
// count bucket is incremented in the same transaction; its new total is
// published after commit.
func (s *StampService) CreateStamp(ctx context.Context, input CreateStampInput) (*domain.Stamp, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if input.Position.Scale <= 0 {
		input.Position.Scale = 1
	}

	locationID, err := s.resolveLocation(ctx, input.PlanID, input.LocationID, input.Position)
	if err != nil {
		return nil, err
	}

	stampID, err := id.Generate("stmp")
	if err != nil {
		return nil, fmt.Errorf("generate stamp ID: %w", err)
	}

	now := time.Now()
	stamp := &domain.Stamp{
		CreatedAt:  now,
		UpdatedAt:  now,
		ID:         stampID,
		PlanID:     input.PlanID,
		DeviceID:   input.DeviceID,
		LocationID: locationID,
		Position:   input.Position,
	}

	rev, err := newRevision(domain.EntityStamp, domain.RevisionCreate, input.PlanID, stampID, nil)
	if err != nil {
		return nil, err
	}

	if err := s.store.CreateStamp(ctx, stamp, rev); err != nil {
		if domainerrors.Is(err, domainerrors.ErrInvalidReference) {
			return nil, domainerrors.InvalidReference("plan or device does not exist")
		}
		return nil, fmt.Errorf("create stamp: %w", err)
	}

	s.logger.Info("stamp created",
		"stamp_id", stampID,
		"plan_id", input.PlanID,
		"device_id", input.DeviceID,
		"location_id", locationID,
	)

	s.sseManager.Emit(sse.NewStampCreatedEvent(stamp))
	s.emitCount(ctx, stamp.PlanID, stamp.DeviceID, stamp.LocationID)

	return stamp, nil
}

// GetStamp retrieves a stamp by ID.
func (s *StampService) GetStamp(ctx context.Context, id string) (*domain.Stamp, error) {
	return s.store.GetStamp(ctx, id)
}

// ListStamps returns a plan's stamps in creation order.
func (s *StampService) ListStamps(ctx context.Context, planID string) ([]*domain.Stamp, error) {
	return s.store.ListStampsByPlan(ctx, planID)
}

// UpdateStamp applies a partial update under the optimistic-lock
// precondition, snapshotting the prior state as an update revision. When
// the device or location changed, both affected count buckets get their
// new totals published.
func (s *StampService) UpdateStamp(ctx context.Context, stampID string, input UpdateStampInput) (*domain.Stamp, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	current, err := s.store.GetStamp(ctx, stampID)
	if err != nil {
		return nil, err
	}

	updated := *current
	if input.DeviceID != nil {
		updated.DeviceID = *input.DeviceID
	}
	if input.LocationID != nil {
		if *input.LocationID != "" {
			location, err := s.store.GetLocation(ctx, *input.LocationID)
			if err != nil {
				if domainerrors.Is(err, domainerrors.ErrNotFound) {
					return nil, domainerrors.InvalidReferencef("location %s does not exist", *input.LocationID)
				}
				return nil, err
			}
			if location.PlanID != current.PlanID {
				return nil, domainerrors.InvalidReferencef("location %s belongs to a different plan", *input.LocationID)
			}
		}
		updated.LocationID = *input.LocationID
	}
	if input.Position != nil {
		if input.Position.Scale <= 0 {
			return nil, domainerrors.Validation("stamp scale must be positive")
		}
		updated.Position = *input.Position
	}
	updated.UpdatedAt = time.Now()
	updated.Revision = current.Revision + 1

	rev, err := newRevision(domain.EntityStamp, domain.RevisionUpdate, current.PlanID, stampID, current)
	if err != nil {
		return nil, err
	}

	if err := s.store.UpdateStamp(ctx, &updated, input.ExpectedUpdatedAt, rev); err != nil {
		if domainerrors.Is(err, domainerrors.ErrStaleWrite) {
			return nil, domainerrors.StaleWrite("stamp was modified since you loaded it")
		}
		if domainerrors.Is(err, domainerrors.ErrInvalidReference) {
			return nil, domainerrors.InvalidReference("device or location does not exist")
		}
		return nil, err
	}

	s.logger.Info("stamp updated",
		"stamp_id", stampID,
		"plan_id", current.PlanID,
		"revision", updated.Revision,
	)

	s.sseManager.Emit(sse.NewStampUpdatedEvent(&updated))
	if current.DeviceID != updated.DeviceID || current.LocationID != updated.LocationID {
		s.emitCount(ctx, current.PlanID, current.DeviceID, current.LocationID)
		s.emitCount(ctx, updated.PlanID, updated.DeviceID, updated.LocationID)
	}

	return &updated, nil
}

// DeleteStamp removes a stamp, recording a delete revision that makes
// the operation undoable, and publishes the decremented count bucket.
func (s *StampService) DeleteStamp(ctx context.Context, stampID string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	current, err := s.store.GetStamp(ctx, stampID)
	if err != nil {
		return err
	}

	rev, err := newRevision(domain.EntityStamp, domain.RevisionDelete, current.PlanID, stampID, current)
	if err != nil {
		return err
	}

	if err := s.store.DeleteStamp(ctx, stampID, rev); err != nil {
		return err
	}

	s.logger.Info("stamp deleted",
		"stamp_id", stampID,
		"plan_id", current.PlanID,
	)

	s.sseManager.Emit(sse.NewStampDeletedEvent(stampID, current.PlanID))
	s.emitCount(ctx, current.PlanID, current.DeviceID, current.LocationID)

	return nil
}

func (s *StampService) emitCount(ctx context.Context, planID, deviceID, locationID string) {
	emitCountUpdated(ctx, s.store, s.sseManager, s.logger, planID, deviceID, locationID)
}

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

// CreateLocationInput carries the fields for a new location. Exactly one
// of Bounds or Vertices must be set, matching Type.
type CreateLocationInput struct {
	PlanID   string
	Name     string
	Type     domain.LocationType
	Bounds   *geometry.Bounds
	Vertices []geometry.Point
	Color    string
}

// UpdateLocationInput carries a partial location update. Nil fields are
// left unchanged; a non-empty Type replaces the geometry wholesale.
// ExpectedUpdatedAt is the updated_at the caller last observed and is
// the optimistic-lock precondition; zero updates unconditionally.
type UpdateLocationInput struct {
	ExpectedUpdatedAt time.Time
	Name              *string
	Color             *string
	Type              domain.LocationType
	Bounds            *geometry.Bounds
	Vertices          []geometry.Point
}

// LocationService manages drawn locations and their revision history.
type LocationService struct {
	store      *sqlite.Store
	sseManager *sse.Manager
	logger     *slog.Logger
}

// NewLocationService creates a new location service.
func NewLocationService(store *sqlite.Store, sseManager *sse.Manager, logger *slog.Logger) *LocationService {
	return &LocationService{
		store:      store,
		sseManager: sseManager,
		logger:     logger,
	}
}

// validateGeometry checks the geometry for a location type and returns
// the normalized vertex ring for polygons (closing vertices dropped).
func validateGeometry(locType domain.LocationType, bounds *geometry.Bounds, vertices []geometry.Point) ([]geometry.Point, error) {
	switch locType {
	case domain.LocationRectangle:
		if bounds == nil {
			return nil, domainerrors.Validation("rectangle bounds are required")
		}
		if len(vertices) > 0 {
			return nil, domainerrors.Validation("rectangle locations cannot have vertices")
		}
		return nil, geometry.ValidateRectangle(*bounds)

	case domain.LocationPolygon:
		if bounds != nil {
			return nil, domainerrors.Validation("polygon locations cannot have bounds")
		}
		closed := geometry.AutoClose(vertices)
		if err := geometry.ValidatePolygon(closed); err != nil {
			return nil, err
		}
		return closed, nil

	default:
		return nil, domainerrors.Validationf("unknown location type %q", locType)
	}
}

// CreateLocation validates and creates a location, recording its create
// revision in the same transaction.
func (s *LocationService) CreateLocation(ctx context.Context, input CreateLocationInput) (*domain.Location, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if input.Name == "" {
		return nil, domainerrors.Validation("location name cannot be empty")
	}

	vertices, err := validateGeometry(input.Type, input.Bounds, input.Vertices)
	if err != nil {
		return nil, err
	}

	locationID, err := id.Generate("loc")
	if err != nil {
		return nil, fmt.Errorf("generate location ID: %w", err)
	}

	now := time.Now()
	location := &domain.Location{
		CreatedAt: now,
		UpdatedAt: now,
		ID:        locationID,
		PlanID:    input.PlanID,
		Name:      input.Name,
		Type:      input.Type,
		Bounds:    input.Bounds,
		Vertices:  vertices,
		Color:     input.Color,
	}

	rev, err := newRevision(domain.EntityLocation, domain.RevisionCreate, input.PlanID, locationID, nil)
	if err != nil {
		return nil, err
	}

	if err := s.store.CreateLocation(ctx, location, rev); err != nil {
		if domainerrors.Is(err, domainerrors.ErrInvalidReference) {
			return nil, domainerrors.InvalidReferencef("plan %s does not exist", input.PlanID)
		}
		return nil, fmt.Errorf("create location: %w", err)
	}

	s.logger.Info("location created",
		"location_id", locationID,
		"plan_id", input.PlanID,
		"type", input.Type,
		"name", input.Name,
	)

	s.sseManager.Emit(sse.NewLocationCreatedEvent(location))

	return location, nil
}

// GetLocation retrieves a location by ID.
func (s *LocationService) GetLocation(ctx context.Context, id string) (*domain.Location, error) {
	return s.store.GetLocation(ctx, id)
}

// ListLocations returns a plan's locations in creation order.
func (s *LocationService) ListLocations(ctx context.Context, planID string) ([]*domain.Location, error) {
	return s.store.ListLocationsByPlan(ctx, planID)
}

// UpdateLocation applies a partial update under the optimistic-lock
// precondition, snapshotting the prior state as an update revision. The
// stamps assigned to the location keep their assignment; geometry edits
// never reclassify existing stamps.
func (s *LocationService) UpdateLocation(ctx context.Context, locationID string, input UpdateLocationInput) (*domain.Location, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	current, err := s.store.GetLocation(ctx, locationID)
	if err != nil {
		return nil, err
	}

	updated := *current
	if input.Name != nil {
		if *input.Name == "" {
			return nil, domainerrors.Validation("location name cannot be empty")
		}
		updated.Name = *input.Name
	}
	if input.Color != nil {
		updated.Color = *input.Color
	}
	if input.Type != "" {
		vertices, err := validateGeometry(input.Type, input.Bounds, input.Vertices)
		if err != nil {
			return nil, err
		}
		updated.Type = input.Type
		updated.Bounds = input.Bounds
		updated.Vertices = vertices
	}
	updated.UpdatedAt = time.Now()
	updated.Revision = current.Revision + 1

	rev, err := newRevision(domain.EntityLocation, domain.RevisionUpdate, current.PlanID, locationID, current)
	if err != nil {
		return nil, err
	}

	if err := s.store.UpdateLocation(ctx, &updated, input.ExpectedUpdatedAt, rev); err != nil {
		if domainerrors.Is(err, domainerrors.ErrStaleWrite) {
			return nil, domainerrors.StaleWrite("location was modified since you loaded it")
		}
		return nil, err
	}

	s.logger.Info("location updated",
		"location_id", locationID,
		"plan_id", current.PlanID,
		"revision", updated.Revision,
	)

	s.sseManager.Emit(sse.NewLocationUpdatedEvent(&updated))

	return &updated, nil
}

// DeleteLocation removes a location after un-assigning its stamps,
// recording a delete revision that makes the operation undoable. One
// count event is emitted for every bucket the un-assignment touched.
func (s *LocationService) DeleteLocation(ctx context.Context, locationID string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	current, err := s.store.GetLocation(ctx, locationID)
	if err != nil {
		return err
	}

	// Devices whose stamps are about to lose this location; needed for
	// count events after the delete commits.
	stamps, err := s.store.ListStampsByPlan(ctx, current.PlanID)
	if err != nil {
		return fmt.Errorf("list stamps: %w", err)
	}
	devices := map[string]bool{}
	for _, st := range stamps {
		if st.LocationID == locationID {
			devices[st.DeviceID] = true
		}
	}

	rev, err := newRevision(domain.EntityLocation, domain.RevisionDelete, current.PlanID, locationID, current)
	if err != nil {
		return err
	}

	if err := s.store.DeleteLocation(ctx, locationID, rev); err != nil {
		return err
	}

	s.logger.Info("location deleted",
		"location_id", locationID,
		"plan_id", current.PlanID,
		"unassigned_devices", len(devices),
	)

	s.sseManager.Emit(sse.NewLocationDeletedEvent(locationID, current.PlanID))
	for deviceID := range devices {
		s.emitCount(ctx, current.PlanID, deviceID, locationID)
		s.emitCount(ctx, current.PlanID, deviceID, domain.NoLocation)
	}

	return nil
}

// emitCount publishes the current total of one count bucket. Best
// effort: a read failure is logged, never surfaced.
func (s *LocationService) emitCount(ctx context.Context, planID, deviceID, locationID string) {
	emitCountUpdated(ctx, s.store, s.sseManager, s.logger, planID, deviceID, locationID)
}

package api

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"
	"github.com/takeoffapp/takeoff-server/internal/domain"
	"github.com/takeoffapp/takeoff-server/internal/geometry"
	"github.com/takeoffapp/takeoff-server/internal/service"
)

func (s *Server) registerLocationRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "createLocation",
		Method:      http.MethodPost,
		Path:        "/api/v1/locations",
		Summary:     "Create location",
		Description: "Creates a drawn region on a plan",
		Tags:        []string{"Locations"},
	}, s.handleCreateLocation)

	huma.Register(s.api, huma.Operation{
		OperationID: "getLocation",
		Method:      http.MethodGet,
		Path:        "/api/v1/locations/{id}",
		Summary:     "Get location",
		Description: "Returns a location by ID",
		Tags:        []string{"Locations"},
	}, s.handleGetLocation)

	huma.Register(s.api, huma.Operation{
		OperationID: "listLocations",
		Method:      http.MethodGet,
		Path:        "/api/v1/plans/{id}/locations",
		Summary:     "List locations",
		Description: "Returns a plan's locations in creation order",
		Tags:        []string{"Locations"},
	}, s.handleListLocations)

	huma.Register(s.api, huma.Operation{
		OperationID: "updateLocation",
		Method:      http.MethodPatch,
		Path:        "/api/v1/locations/{id}",
		Summary:     "Update location",
		Description: "Updates a location under an optimistic-lock precondition",
		Tags:        []string{"Locations"},
	}, s.handleUpdateLocation)

	huma.Register(s.api, huma.Operation{
		OperationID: "deleteLocation",
		Method:      http.MethodDelete,
		Path:        "/api/v1/locations/{id}",
		Summary:     "Delete location",
		Description: "Deletes a location; its stamps survive unassigned",
		Tags:        []string{"Locations"},
	}, s.handleDeleteLocation)
}

// === DTOs ===

// CreateLocationRequest is the request body for creating a location.
type CreateLocationRequest struct {
	PlanID   string           `json:"plan_id" validate:"required" doc:"Plan the region is drawn on"`
	Name     string           `json:"name" validate:"required,min=1,max=200" doc:"Location name"`
	Type     string           `json:"type" validate:"required,oneof=rectangle polygon" doc:"Region shape"`
	Bounds   *geometry.Bounds `json:"bounds,omitempty" doc:"Rectangle bounds (rectangle type only)"`
	Vertices []geometry.Point `json:"vertices,omitempty" doc:"Boundary vertices (polygon type only)"`
	Color    string           `json:"color,omitempty" validate:"omitempty,max=20" doc:"Display color"`
}

// CreateLocationInput wraps the create location request for Huma.
type CreateLocationInput struct {
	Body CreateLocationRequest
}

// LocationOutput wraps a single location for Huma.
type LocationOutput struct {
	Body *domain.Location
}

// GetLocationInput contains parameters for getting a location.
type GetLocationInput struct {
	ID string `path:"id" doc:"Location ID"`
}

// ListLocationsInput contains parameters for listing a plan's locations.
type ListLocationsInput struct {
	PlanID string `path:"id" doc:"Plan ID"`
}

// ListLocationsResponse contains a list of locations.
type ListLocationsResponse struct {
	Locations []*domain.Location `json:"locations" doc:"List of locations"`
}

// ListLocationsOutput wraps the list locations response for Huma.
type ListLocationsOutput struct {
	Body ListLocationsResponse
}

// UpdateLocationRequest is the request body for updating a location.
// ExpectedUpdatedAt is the updated_at the caller last observed; a stale
// value is rejected with 409. Omitting it updates unconditionally.
type UpdateLocationRequest struct {
	ExpectedUpdatedAt FlexTime         `json:"expected_updated_at,omitempty" doc:"Optimistic-lock precondition; omit to update unconditionally"`
	Name              *string          `json:"name,omitempty" validate:"omitempty,min=1,max=200" doc:"Location name"`
	Color             *string          `json:"color,omitempty" validate:"omitempty,max=20" doc:"Display color"`
	Type              string           `json:"type,omitempty" validate:"omitempty,oneof=rectangle polygon" doc:"New region shape; replaces geometry wholesale"`
	Bounds            *geometry.Bounds `json:"bounds,omitempty" doc:"Rectangle bounds (rectangle type only)"`
	Vertices          []geometry.Point `json:"vertices,omitempty" doc:"Boundary vertices (polygon type only)"`
}

// UpdateLocationInput wraps the update location request for Huma.
type UpdateLocationInput struct {
	ID   string `path:"id" doc:"Location ID"`
	Body UpdateLocationRequest
}

// DeleteLocationInput contains parameters for deleting a location.
type DeleteLocationInput struct {
	ID string `path:"id" doc:"Location ID"`
}

// === Handlers ===

func (s *Server) handleCreateLocation(ctx context.Context, input *CreateLocationInput) (*LocationOutput, error) {
	if err := s.validator.Validate(input.Body); err != nil {
		return nil, err
	}

	l, err := s.services.Location.CreateLocation(ctx, service.CreateLocationInput{
		PlanID:   input.Body.PlanID,
		Name:     input.Body.Name,
		Type:     domain.LocationType(input.Body.Type),
		Bounds:   input.Body.Bounds,
		Vertices: input.Body.Vertices,
		Color:    input.Body.Color,
	})
	if err != nil {
		return nil, err
	}
	return &LocationOutput{Body: l}, nil
}

func (s *Server) handleGetLocation(ctx context.Context, input *GetLocationInput) (*LocationOutput, error) {
	l, err := s.services.Location.GetLocation(ctx, input.ID)
	if err != nil {
		return nil, err
	}
	return &LocationOutput{Body: l}, nil
}

func (s *Server) handleListLocations(ctx context.Context, input *ListLocationsInput) (*ListLocationsOutput, error) {
	locations, err := s.services.Location.ListLocations(ctx, input.PlanID)
	if err != nil {
		return nil, err
	}
	return &ListLocationsOutput{Body: ListLocationsResponse{Locations: locations}}, nil
}

func (s *Server) handleUpdateLocation(ctx context.Context, input *UpdateLocationInput) (*LocationOutput, error) {
	if err := s.validator.Validate(input.Body); err != nil {
		return nil, err
	}

	l, err := s.services.Location.UpdateLocation(ctx, input.ID, service.UpdateLocationInput{
		ExpectedUpdatedAt: input.Body.ExpectedUpdatedAt.ToTime(),
		Name:              input.Body.Name,
		Color:             input.Body.Color,
		Type:              domain.LocationType(input.Body.Type),
		Bounds:            input.Body.Bounds,
		Vertices:          input.Body.Vertices,
	})
	if err != nil {
		return nil, err
	}
	return &LocationOutput{Body: l}, nil
}

func (s *Server) handleDeleteLocation(ctx context.Context, input *DeleteLocationInput) (*struct{}, error) {
	if err := s.services.Location.DeleteLocation(ctx, input.ID); err != nil {
		return nil, err
	}
	return &struct{}{}, nil
}

package api

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"
	"github.com/takeoffapp/takeoff-server/internal/domain"
	"github.com/takeoffapp/takeoff-server/internal/service"
)

func (s *Server) registerStampRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "createStamp",
		Method:      http.MethodPost,
		Path:        "/api/v1/stamps",
		Summary:     "Create stamp",
		Description: "Places a device stamp; without an explicit location the position is classified against the plan's regions",
		Tags:        []string{"Stamps"},
	}, s.handleCreateStamp)

	huma.Register(s.api, huma.Operation{
		OperationID: "getStamp",
		Method:      http.MethodGet,
		Path:        "/api/v1/stamps/{id}",
		Summary:     "Get stamp",
		Description: "Returns a stamp by ID",
		Tags:        []string{"Stamps"},
	}, s.handleGetStamp)

	huma.Register(s.api, huma.Operation{
		OperationID: "listStamps",
		Method:      http.MethodGet,
		Path:        "/api/v1/plans/{id}/stamps",
		Summary:     "List stamps",
		Description: "Returns a plan's stamps in creation order",
		Tags:        []string{"Stamps"},
	}, s.handleListStamps)

	huma.Register(s.api, huma.Operation{
		OperationID: "updateStamp",
		Method:      http.MethodPatch,
		Path:        "/api/v1/stamps/{id}",
		Summary:     "Update stamp",
		Description: "Updates a stamp under an optimistic-lock precondition",
		Tags:        []string{"Stamps"},
	}, s.handleUpdateStamp)

	huma.Register(s.api, huma.Operation{
		OperationID: "deleteStamp",
		Method:      http.MethodDelete,
		Path:        "/api/v1/stamps/{id}",
		Summary:     "Delete stamp",
		Description: "Deletes a stamp; the action is undoable",
		Tags:        []string{"Stamps"},
	}, s.handleDeleteStamp)
}

// === DTOs ===

// CreateStampRequest is the request body for creating a stamp.
type CreateStampRequest struct {
	PlanID     string          `json:"plan_id" validate:"required" doc:"Plan the stamp is placed on"`
	DeviceID   string          `json:"device_id" validate:"required" doc:"Device being counted"`
	LocationID string          `json:"location_id,omitempty" doc:"Explicit location; empty requests auto-classification"`
	Position   domain.Position `json:"position" doc:"Placement position and scale"`
}

// CreateStampInput wraps the create stamp request for Huma.
type CreateStampInput struct {
	Body CreateStampRequest
}

// StampOutput wraps a single stamp for Huma.
type StampOutput struct {
	Body *domain.Stamp
}

// GetStampInput contains parameters for getting a stamp.
type GetStampInput struct {
	ID string `path:"id" doc:"Stamp ID"`
}

// ListStampsInput contains parameters for listing a plan's stamps.
type ListStampsInput struct {
	PlanID string `path:"id" doc:"Plan ID"`
}

// ListStampsResponse contains a list of stamps.
type ListStampsResponse struct {
	Stamps []*domain.Stamp `json:"stamps" doc:"List of stamps"`
}

// ListStampsOutput wraps the list stamps response for Huma.
type ListStampsOutput struct {
	Body ListStampsResponse
}

// UpdateStampRequest is the request body for updating a stamp. A nil
// location_id keeps the assignment; an empty string unassigns. Omitting
// expected_updated_at updates unconditionally.
type UpdateStampRequest struct {
	ExpectedUpdatedAt FlexTime         `json:"expected_updated_at,omitempty" doc:"Optimistic-lock precondition; omit to update unconditionally"`
	DeviceID          *string          `json:"device_id,omitempty" doc:"New device"`
	LocationID        *string          `json:"location_id,omitempty" doc:"New location; empty string unassigns"`
	Position          *domain.Position `json:"position,omitempty" doc:"New position and scale"`
}

// UpdateStampInput wraps the update stamp request for Huma.
type UpdateStampInput struct {
	ID   string `path:"id" doc:"Stamp ID"`
	Body UpdateStampRequest
}

// DeleteStampInput contains parameters for deleting a stamp.
type DeleteStampInput struct {
	ID string `path:"id" doc:"Stamp ID"`
}

// === Handlers ===

func (s *Server) handleCreateStamp(ctx context.Context, input *CreateStampInput) (*StampOutput, error) {
	if err := s.validator.Validate(input.Body); err != nil {
		return nil, err
	}

	st, err := s.services.Stamp.CreateStamp(ctx, service.CreateStampInput{
		PlanID:     input.Body.PlanID,
		DeviceID:   input.Body.DeviceID,
		LocationID: input.Body.LocationID,
		Position:   input.Body.Position,
	})
	if err != nil {
		return nil, err
	}
	return &StampOutput{Body: st}, nil
}

func (s *Server) handleGetStamp(ctx context.Context, input *GetStampInput) (*StampOutput, error) {
	st, err := s.services.Stamp.GetStamp(ctx, input.ID)
	if err != nil {
		return nil, err
	}
	return &StampOutput{Body: st}, nil
}

func (s *Server) handleListStamps(ctx context.Context, input *ListStampsInput) (*ListStampsOutput, error) {
	stamps, err := s.services.Stamp.ListStamps(ctx, input.PlanID)
	if err != nil {
		return nil, err
	}
	return &ListStampsOutput{Body: ListStampsResponse{Stamps: stamps}}, nil
}

func (s *Server) handleUpdateStamp(ctx context.Context, input *UpdateStampInput) (*StampOutput, error) {
	if err := s.validator.Validate(input.Body); err != nil {
		return nil, err
	}

	st, err := s.services.Stamp.UpdateStamp(ctx, input.ID, service.UpdateStampInput{
		ExpectedUpdatedAt: input.Body.ExpectedUpdatedAt.ToTime(),
		DeviceID:          input.Body.DeviceID,
		LocationID:        input.Body.LocationID,
		Position:          input.Body.Position,
	})
	if err != nil {
		return nil, err
	}
	return &StampOutput{Body: st}, nil
}

func (s *Server) handleDeleteStamp(ctx context.Context, input *DeleteStampInput) (*struct{}, error) {
	if err := s.services.Stamp.DeleteStamp(ctx, input.ID); err != nil {
		return nil, err
	}
	return &struct{}{}, nil
}

package api

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"
	"github.com/takeoffapp/takeoff-server/internal/domain"
)

func (s *Server) registerPlanRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "createPlan",
		Method:      http.MethodPost,
		Path:        "/api/v1/projects/{id}/plans",
		Summary:     "Create plan",
		Description: "Creates a plan sheet within a project",
		Tags:        []string{"Plans"},
	}, s.handleCreatePlan)

	huma.Register(s.api, huma.Operation{
		OperationID: "listPlans",
		Method:      http.MethodGet,
		Path:        "/api/v1/projects/{id}/plans",
		Summary:     "List plans",
		Description: "Returns a project's plans ordered by page number",
		Tags:        []string{"Plans"},
	}, s.handleListPlans)

	huma.Register(s.api, huma.Operation{
		OperationID: "getPlan",
		Method:      http.MethodGet,
		Path:        "/api/v1/plans/{id}",
		Summary:     "Get plan",
		Description: "Returns a plan by ID",
		Tags:        []string{"Plans"},
	}, s.handleGetPlan)

	huma.Register(s.api, huma.Operation{
		OperationID: "deletePlan",
		Method:      http.MethodDelete,
		Path:        "/api/v1/plans/{id}",
		Summary:     "Delete plan",
		Description: "Deletes a plan with its locations, stamps, counts, and history",
		Tags:        []string{"Plans"},
	}, s.handleDeletePlan)
}

// === DTOs ===

// CreatePlanRequest is the request body for creating a plan.
type CreatePlanRequest struct {
	Name       string `json:"name" validate:"required,min=1,max=200" doc:"Plan name"`
	PageNumber int    `json:"page_number" validate:"gte=1" doc:"Sheet page number"`
}

// CreatePlanInput wraps the create plan request for Huma.
type CreatePlanInput struct {
	ProjectID string `path:"id" doc:"Project ID"`
	Body      CreatePlanRequest
}

// PlanOutput wraps a single plan for Huma.
type PlanOutput struct {
	Body *domain.Plan
}

// ListPlansInput contains parameters for listing a project's plans.
type ListPlansInput struct {
	ProjectID string `path:"id" doc:"Project ID"`
}

// ListPlansResponse contains a list of plans.
type ListPlansResponse struct {
	Plans []*domain.Plan `json:"plans" doc:"List of plans"`
}

// ListPlansOutput wraps the list plans response for Huma.
type ListPlansOutput struct {
	Body ListPlansResponse
}

// GetPlanInput contains parameters for getting a plan.
type GetPlanInput struct {
	ID string `path:"id" doc:"Plan ID"`
}

// DeletePlanInput contains parameters for deleting a plan.
type DeletePlanInput struct {
	ID string `path:"id" doc:"Plan ID"`
}

// === Handlers ===

func (s *Server) handleCreatePlan(ctx context.Context, input *CreatePlanInput) (*PlanOutput, error) {
	if err := s.validator.Validate(input.Body); err != nil {
		return nil, err
	}

	p, err := s.services.Plan.CreatePlan(ctx, input.ProjectID, input.Body.Name, input.Body.PageNumber)
	if err != nil {
		return nil, err
	}
	return &PlanOutput{Body: p}, nil
}

func (s *Server) handleListPlans(ctx context.Context, input *ListPlansInput) (*ListPlansOutput, error) {
	plans, err := s.services.Plan.ListPlans(ctx, input.ProjectID)
	if err != nil {
		return nil, err
	}
	return &ListPlansOutput{Body: ListPlansResponse{Plans: plans}}, nil
}

func (s *Server) handleGetPlan(ctx context.Context, input *GetPlanInput) (*PlanOutput, error) {
	p, err := s.services.Plan.GetPlan(ctx, input.ID)
	if err != nil {
		return nil, err
	}
	return &PlanOutput{Body: p}, nil
}

func (s *Server) handleDeletePlan(ctx context.Context, input *DeletePlanInput) (*struct{}, error) {
	if err := s.services.Plan.DeletePlan(ctx, input.ID); err != nil {
		return nil, err
	}
	return &struct{}{}, nil
}

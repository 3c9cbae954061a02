package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/takeoffapp/takeoff-server/internal/domain"
	domainerrors "github.com/takeoffapp/takeoff-server/internal/errors"
	"github.com/takeoffapp/takeoff-server/internal/id"
	"github.com/takeoffapp/takeoff-server/internal/store/sqlite"
)

// PlanService manages plan pages within a project.
type PlanService struct {
	store  *sqlite.Store
	logger *slog.Logger
}

// NewPlanService creates a new plan service.
func NewPlanService(store *sqlite.Store, logger *slog.Logger) *PlanService {
	return &PlanService{store: store, logger: logger}
}

// CreatePlan creates a new plan page under a project.
func (s *PlanService) CreatePlan(ctx context.Context, projectID, name string, pageNumber int) (*domain.Plan, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if name == "" {
		return nil, domainerrors.Validation("plan name cannot be empty")
	}
	if pageNumber < 1 {
		return nil, domainerrors.Validation("page number must be at least 1")
	}

	planID, err := id.Generate("plan")
	if err != nil {
		return nil, fmt.Errorf("generate plan ID: %w", err)
	}

	now := time.Now()
	plan := &domain.Plan{
		CreatedAt:  now,
		UpdatedAt:  now,
		ID:         planID,
		ProjectID:  projectID,
		Name:       name,
		PageNumber: pageNumber,
	}

	if err := s.store.CreatePlan(ctx, plan); err != nil {
		return nil, fmt.Errorf("create plan: %w", err)
	}

	s.logger.Info("plan created",
		"plan_id", planID,
		"project_id", projectID,
		"name", name,
	)

	return plan, nil
}

// GetPlan retrieves a plan by ID.
func (s *PlanService) GetPlan(ctx context.Context, id string) (*domain.Plan, error) {
	return s.store.GetPlan(ctx, id)
}

// ListPlans returns a project's plans ordered by page number.
func (s *PlanService) ListPlans(ctx context.Context, projectID string) ([]*domain.Plan, error) {
	return s.store.ListPlansByProject(ctx, projectID)
}

// DeletePlan deletes a plan and its locations, stamps, counts, and
// revision history. This is the terminal event for the plan's undo
// history: nothing under a deleted plan can be restored.
func (s *PlanService) DeletePlan(ctx context.Context, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	if err := s.store.DeletePlan(ctx, id); err != nil {
		return err
	}

	s.logger.Info("plan deleted", "plan_id", id)
	return nil
}

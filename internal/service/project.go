// Package service orchestrates takeoff operations over the store:
// validation, geometry classification, revision bookkeeping, and SSE
// notification.
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

// ProjectService manages projects, the top of the entity hierarchy.
type ProjectService struct {
	store  *sqlite.Store
	logger *slog.Logger
}

// NewProjectService creates a new project service.
func NewProjectService(store *sqlite.Store, logger *slog.Logger) *ProjectService {
	return &ProjectService{store: store, logger: logger}
}

// CreateProject creates a new project.
func (s *ProjectService) CreateProject(ctx context.Context, name string) (*domain.Project, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if name == "" {
		return nil, domainerrors.Validation("project name cannot be empty")
	}

	projectID, err := id.Generate("proj")
	if err != nil {
		return nil, fmt.Errorf("generate project ID: %w", err)
	}

	now := time.Now()
	project := &domain.Project{
		CreatedAt: now,
		UpdatedAt: now,
		ID:        projectID,
		Name:      name,
	}

	if err := s.store.CreateProject(ctx, project); err != nil {
		return nil, fmt.Errorf("create project: %w", err)
	}

	s.logger.Info("project created",
		"project_id", projectID,
		"name", name,
	)

	return project, nil
}

// GetProject retrieves a project by ID.
func (s *ProjectService) GetProject(ctx context.Context, id string) (*domain.Project, error) {
	return s.store.GetProject(ctx, id)
}

// ListProjects returns all projects.
func (s *ProjectService) ListProjects(ctx context.Context) ([]*domain.Project, error) {
	return s.store.ListProjects(ctx)
}

// DeleteProject deletes a project and everything under it: plans,
// devices, locations, stamps, revision history, and counts.
func (s *ProjectService) DeleteProject(ctx context.Context, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	if err := s.store.DeleteProject(ctx, id); err != nil {
		return err
	}

	s.logger.Info("project deleted", "project_id", id)
	return nil
}

package api

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"
	"github.com/takeoffapp/takeoff-server/internal/domain"
)

func (s *Server) registerProjectRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "createProject",
		Method:      http.MethodPost,
		Path:        "/api/v1/projects",
		Summary:     "Create project",
		Description: "Creates a new take-off project",
		Tags:        []string{"Projects"},
	}, s.handleCreateProject)

	huma.Register(s.api, huma.Operation{
		OperationID: "listProjects",
		Method:      http.MethodGet,
		Path:        "/api/v1/projects",
		Summary:     "List projects",
		Description: "Returns all projects in creation order",
		Tags:        []string{"Projects"},
	}, s.handleListProjects)

	huma.Register(s.api, huma.Operation{
		OperationID: "getProject",
		Method:      http.MethodGet,
		Path:        "/api/v1/projects/{id}",
		Summary:     "Get project",
		Description: "Returns a project by ID",
		Tags:        []string{"Projects"},
	}, s.handleGetProject)

	huma.Register(s.api, huma.Operation{
		OperationID: "deleteProject",
		Method:      http.MethodDelete,
		Path:        "/api/v1/projects/{id}",
		Summary:     "Delete project",
		Description: "Deletes a project and everything beneath it",
		Tags:        []string{"Projects"},
	}, s.handleDeleteProject)
}

// === DTOs ===

// CreateProjectRequest is the request body for creating a project.
type CreateProjectRequest struct {
	Name string `json:"name" validate:"required,min=1,max=200" doc:"Project name"`
}

// CreateProjectInput wraps the create project request for Huma.
type CreateProjectInput struct {
	Body CreateProjectRequest
}

// ProjectOutput wraps a single project for Huma.
type ProjectOutput struct {
	Body *domain.Project
}

// ListProjectsResponse contains a list of projects.
type ListProjectsResponse struct {
	Projects []*domain.Project `json:"projects" doc:"List of projects"`
}

// ListProjectsOutput wraps the list projects response for Huma.
type ListProjectsOutput struct {
	Body ListProjectsResponse
}

// GetProjectInput contains parameters for getting a project.
type GetProjectInput struct {
	ID string `path:"id" doc:"Project ID"`
}

// DeleteProjectInput contains parameters for deleting a project.
type DeleteProjectInput struct {
	ID string `path:"id" doc:"Project ID"`
}

// === Handlers ===

func (s *Server) handleCreateProject(ctx context.Context, input *CreateProjectInput) (*ProjectOutput, error) {
	if err := s.validator.Validate(input.Body); err != nil {
		return nil, err
	}

	p, err := s.services.Project.CreateProject(ctx, input.Body.Name)
	if err != nil {
		return nil, err
	}
	return &ProjectOutput{Body: p}, nil
}

func (s *Server) handleListProjects(ctx context.Context, _ *struct{}) (*ListProjectsOutput, error) {
	projects, err := s.services.Project.ListProjects(ctx)
	if err != nil {
		return nil, err
	}
	return &ListProjectsOutput{Body: ListProjectsResponse{Projects: projects}}, nil
}

func (s *Server) handleGetProject(ctx context.Context, input *GetProjectInput) (*ProjectOutput, error) {
	p, err := s.services.Project.GetProject(ctx, input.ID)
	if err != nil {
		return nil, err
	}
	return &ProjectOutput{Body: p}, nil
}

func (s *Server) handleDeleteProject(ctx context.Context, input *DeleteProjectInput) (*struct{}, error) {
	if err := s.services.Project.DeleteProject(ctx, input.ID); err != nil {
		return nil, err
	}
	return &struct{}{}, nil
}

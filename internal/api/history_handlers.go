package api

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"
	"github.com/takeoffapp/takeoff-server/internal/domain"
)

func (s *Server) registerHistoryRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "getHistory",
		Method:      http.MethodGet,
		Path:        "/api/v1/projects/{id}/history",
		Summary:     "Get history",
		Description: "Returns the project's merged location/stamp revision history, oldest first",
		Tags:        []string{"History"},
	}, s.handleGetHistory)

	huma.Register(s.api, huma.Operation{
		OperationID: "undo",
		Method:      http.MethodPost,
		Path:        "/api/v1/projects/{id}/undo",
		Summary:     "Undo",
		Description: "Reverses the single most recent location or stamp mutation",
		Tags:        []string{"History"},
	}, s.handleUndo)

	huma.Register(s.api, huma.Operation{
		OperationID: "pruneHistory",
		Method:      http.MethodPost,
		Path:        "/api/v1/projects/{id}/history/prune",
		Summary:     "Prune history",
		Description: "Removes revisions beyond the retention window, oldest first",
		Tags:        []string{"History"},
	}, s.handlePruneHistory)
}

// === DTOs ===

// GetHistoryInput contains parameters for reading a project's history.
type GetHistoryInput struct {
	ProjectID string `path:"id" doc:"Project ID"`
}

// HistoryResponse contains a project's revision history.
type HistoryResponse struct {
	Revisions []*domain.Revision `json:"revisions" doc:"Revisions, oldest first"`
}

// HistoryOutput wraps the history response for Huma.
type HistoryOutput struct {
	Body HistoryResponse
}

// UndoInput contains parameters for undoing a mutation.
type UndoInput struct {
	ProjectID string `path:"id" doc:"Project ID"`
}

// UndoOutput wraps the undo result for Huma.
type UndoOutput struct {
	Body *domain.UndoResult
}

// PruneHistoryInput contains parameters for pruning history.
type PruneHistoryInput struct {
	ProjectID string `path:"id" doc:"Project ID"`
}

// PruneHistoryResponse reports how many revisions were removed.
type PruneHistoryResponse struct {
	Removed int64 `json:"removed" doc:"Number of revisions removed"`
}

// PruneHistoryOutput wraps the prune response for Huma.
type PruneHistoryOutput struct {
	Body PruneHistoryResponse
}

// === Handlers ===

func (s *Server) handleGetHistory(ctx context.Context, input *GetHistoryInput) (*HistoryOutput, error) {
	revisions, err := s.services.History.GetHistory(ctx, input.ProjectID)
	if err != nil {
		return nil, err
	}
	return &HistoryOutput{Body: HistoryResponse{Revisions: revisions}}, nil
}

func (s *Server) handleUndo(ctx context.Context, input *UndoInput) (*UndoOutput, error) {
	result, err := s.services.History.Undo(ctx, input.ProjectID)
	if err != nil {
		return nil, err
	}
	// Empty history is served as a null result, not an error.
	return &UndoOutput{Body: result}, nil
}

func (s *Server) handlePruneHistory(ctx context.Context, input *PruneHistoryInput) (*PruneHistoryOutput, error) {
	removed, err := s.services.History.PruneHistory(ctx, input.ProjectID)
	if err != nil {
		return nil, err
	}
	return &PruneHistoryOutput{Body: PruneHistoryResponse{Removed: removed}}, nil
}

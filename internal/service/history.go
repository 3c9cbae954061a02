package service

import (
	"context"
	"log/slog"

	"github.com/takeoffapp/takeoff-server/internal/domain"
	domainerrors "github.com/takeoffapp/takeoff-server/internal/errors"
	"github.com/takeoffapp/takeoff-server/internal/sse"
	"github.com/takeoffapp/takeoff-server/internal/store/sqlite"
)

// historyLimit caps how much mutation history is kept and served per
// project. Prune removes anything beyond this window.
const historyLimit = 100

// HistoryService serves the merged location/stamp revision history of a
// project and replays it backwards one step at a time.
type HistoryService struct {
	store      *sqlite.Store
	sseManager *sse.Manager
	logger     *slog.Logger
}

// NewHistoryService creates a new history service.
func NewHistoryService(store *sqlite.Store, sseManager *sse.Manager, logger *slog.Logger) *HistoryService {
	return &HistoryService{
		store:      store,
		sseManager: sseManager,
		logger:     logger,
	}
}

// GetHistory returns the most recent revisions across all of a project's
// plans, oldest first, capped at the retention window.
func (s *HistoryService) GetHistory(ctx context.Context, projectID string) ([]*domain.Revision, error) {
	return s.store.ListRevisionsByProject(ctx, projectID, historyLimit)
}

// Undo reverses the single most recent mutation in the project. The
// consumed revision is removed and no new revision is written, so a
// second undo reverses the next-older mutation rather than re-doing.
// A project with no history returns (nil, nil): an empty undo stack is
// a normal state, not an error.
// Affected entity and count events are published after the undo commits.
func (s *HistoryService) Undo(ctx context.Context, projectID string) (*domain.UndoResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	// Undoing a stamp create or update changes the bucket the stamp
	// currently sits in; that bucket has to be captured before the undo
	// rewrites or removes the stamp.
	var priorStamp *domain.Stamp
	latest, err := s.store.LatestRevisionByProject(ctx, projectID)
	if err != nil {
		if domainerrors.Is(err, domainerrors.ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}
	if latest.Kind == domain.EntityStamp && latest.Type != domain.RevisionDelete {
		if st, err := s.store.GetStamp(ctx, latest.EntityID); err == nil {
			priorStamp = st
		}
	}

	result, err := s.store.UndoLatestRevision(ctx, projectID)
	if err != nil {
		if domainerrors.Is(err, domainerrors.ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}

	s.logger.Info("undo applied",
		"project_id", projectID,
		"kind", result.Kind,
		"entity_id", result.EntityID,
		"undone_type", result.Type,
	)

	s.publishUndo(ctx, result, priorStamp, latest.PlanID)

	return result, nil
}

// publishUndo emits the entity and count events describing what an undo
// changed. priorStamp is the stamp's pre-undo state, nil when the undo
// did not start from a live stamp.
func (s *HistoryService) publishUndo(ctx context.Context, result *domain.UndoResult, priorStamp *domain.Stamp, planID string) {
	switch result.Kind {
	case domain.EntityLocation:
		switch result.Type {
		case domain.RevisionCreate:
			s.sseManager.Emit(sse.NewLocationDeletedEvent(result.EntityID, planID))
		case domain.RevisionUpdate:
			if l, ok := result.Restored.(*domain.Location); ok {
				s.sseManager.Emit(sse.NewLocationUpdatedEvent(l))
			}
		case domain.RevisionDelete:
			if l, ok := result.Restored.(*domain.Location); ok {
				s.sseManager.Emit(sse.NewLocationCreatedEvent(l))
			}
		}

	case domain.EntityStamp:
		switch result.Type {
		case domain.RevisionCreate:
			s.sseManager.Emit(sse.NewStampDeletedEvent(result.EntityID, planID))
			if priorStamp != nil {
				emitCountUpdated(ctx, s.store, s.sseManager, s.logger,
					priorStamp.PlanID, priorStamp.DeviceID, priorStamp.LocationID)
			}
		case domain.RevisionUpdate:
			if st, ok := result.Restored.(*domain.Stamp); ok {
				s.sseManager.Emit(sse.NewStampUpdatedEvent(st))
				emitCountUpdated(ctx, s.store, s.sseManager, s.logger,
					st.PlanID, st.DeviceID, st.LocationID)
				// The update being undone may have moved the stamp; the
				// bucket it was just pulled out of changed too.
				if priorStamp != nil && (priorStamp.DeviceID != st.DeviceID || priorStamp.LocationID != st.LocationID) {
					emitCountUpdated(ctx, s.store, s.sseManager, s.logger,
						priorStamp.PlanID, priorStamp.DeviceID, priorStamp.LocationID)
				}
			}
		case domain.RevisionDelete:
			if st, ok := result.Restored.(*domain.Stamp); ok {
				s.sseManager.Emit(sse.NewStampCreatedEvent(st))
				emitCountUpdated(ctx, s.store, s.sseManager, s.logger,
					st.PlanID, st.DeviceID, st.LocationID)
			}
		}
	}
}

// PruneHistory removes a project's revisions beyond the retention
// window, oldest first. Returns how many rows were removed.
func (s *HistoryService) PruneHistory(ctx context.Context, projectID string) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	removed, err := s.store.PruneRevisions(ctx, projectID, historyLimit)
	if err != nil {
		return 0, err
	}

	if removed > 0 {
		s.logger.Info("history pruned",
			"project_id", projectID,
			"removed", removed,
		)
	}
	return removed, nil
}

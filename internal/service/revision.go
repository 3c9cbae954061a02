package service

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/takeoffapp/takeoff-server/internal/domain"
	"github.com/takeoffapp/takeoff-server/internal/id"
)

// newRevision builds the revision row recorded alongside a mutation.
// snapshot is the full pre-mutation entity state, nil for creations.
func newRevision(kind domain.EntityKind, revType domain.RevisionType, planID, entityID string, snapshot any) (*domain.Revision, error) {
	revID, err := id.Generate("rev")
	if err != nil {
		return nil, fmt.Errorf("generate revision ID: %w", err)
	}

	rev := &domain.Revision{
		CreatedAt: time.Now(),
		ID:        revID,
		Kind:      kind,
		EntityID:  entityID,
		PlanID:    planID,
		Type:      revType,
	}
	if snapshot != nil {
		data, err := json.Marshal(snapshot)
		if err != nil {
			return nil, fmt.Errorf("marshal snapshot: %w", err)
		}
		rev.Snapshot = data
	}
	return rev, nil
}

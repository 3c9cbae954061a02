package sqlite

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/takeoffapp/takeoff-server/internal/domain"
	apperrors "github.com/takeoffapp/takeoff-server/internal/errors"
)

func TestListRevisionsByProject_WindowAndOrder(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	seedPlan(t, s)

	// 5 stamps -> 5 create revisions.
	ids := []string{"stmp-h1", "stmp-h2", "stmp-h3", "stmp-h4", "stmp-h5"}
	for _, id := range ids {
		createTestStamp(t, s, id, "", 1, 1)
	}

	// Window of 3 returns the most recent 3, oldest first.
	revs, err := s.ListRevisionsByProject(ctx, "proj-1", 3)
	if err != nil {
		t.Fatalf("ListRevisionsByProject: %v", err)
	}
	if len(revs) != 3 {
		t.Fatalf("got %d revisions, want 3", len(revs))
	}
	for i, want := range []string{"stmp-h3", "stmp-h4", "stmp-h5"} {
		if revs[i].EntityID != want {
			t.Errorf("revs[%d].EntityID: got %q, want %q", i, revs[i].EntityID, want)
		}
	}
}

func TestLatestRevisionByProject_Empty(t *testing.T) {
	s := newTestStore(t)
	seedPlan(t, s)

	_, err := s.LatestRevisionByProject(context.Background(), "proj-1")
	if !errors.Is(err, apperrors.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestUndoLatestRevision_StampCreate(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	seedPlan(t, s)

	st := createTestStamp(t, s, "stmp-uc", "", 5, 5)

	result, err := s.UndoLatestRevision(ctx, "proj-1")
	if err != nil {
		t.Fatalf("UndoLatestRevision: %v", err)
	}
	if result.Kind != domain.EntityStamp || result.Type != domain.RevisionCreate {
		t.Errorf("result: got %+v", result)
	}

	// Stamp gone, count back to zero, revision consumed.
	if _, err := s.GetStamp(ctx, st.ID); !errors.Is(err, apperrors.ErrNotFound) {
		t.Errorf("stamp should be deleted: got %v", err)
	}
	total, err := s.GetCount(ctx, "plan-1", "dev-1", domain.NoLocation)
	if err != nil {
		t.Fatalf("GetCount: %v", err)
	}
	if total != 0 {
		t.Errorf("total: got %d, want 0", total)
	}
	if _, err := s.LatestRevisionByProject(ctx, "proj-1"); !errors.Is(err, apperrors.ErrNotFound) {
		t.Errorf("revision should be consumed: got %v", err)
	}
}

func TestUndoLatestRevision_StampUpdateRestoresSnapshot(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	seedPlan(t, s)

	st := createTestStamp(t, s, "stmp-uu", "", 5, 5)

	updated := *st
	updated.Position.X = 42
	updated.UpdatedAt = st.UpdatedAt.Add(time.Second)
	updated.Revision = 1
	rev := testRevision(t, "rev-uu", domain.EntityStamp, domain.RevisionUpdate, "plan-1", st.ID, st)
	if err := s.UpdateStamp(ctx, &updated, st.UpdatedAt, rev); err != nil {
		t.Fatalf("UpdateStamp: %v", err)
	}

	result, err := s.UndoLatestRevision(ctx, "proj-1")
	if err != nil {
		t.Fatalf("UndoLatestRevision: %v", err)
	}
	if result.Type != domain.RevisionUpdate {
		t.Errorf("undone type: got %q, want update", result.Type)
	}

	got, err := s.GetStamp(ctx, st.ID)
	if err != nil {
		t.Fatalf("GetStamp: %v", err)
	}
	if got.Position.X != 5 {
		t.Errorf("Position.X: got %v, want 5 (snapshot restored)", got.Position.X)
	}
	// Revision counter is restored verbatim, not incremented.
	if got.Revision != 0 {
		t.Errorf("Revision: got %d, want 0", got.Revision)
	}

	// Only the create revision remains; undo wrote nothing new.
	revs, err := s.ListRevisionsByProject(ctx, "proj-1", 100)
	if err != nil {
		t.Fatalf("ListRevisionsByProject: %v", err)
	}
	if len(revs) != 1 || revs[0].Type != domain.RevisionCreate {
		t.Errorf("revisions after undo: got %d, want only the create", len(revs))
	}
}

func TestUndoLatestRevision_StampDeleteRestoresEntityAndCount(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	seedPlan(t, s)

	st := createTestStamp(t, s, "stmp-ud", "", 5, 5)
	rev := testRevision(t, "rev-ud", domain.EntityStamp, domain.RevisionDelete, "plan-1", st.ID, st)
	if err := s.DeleteStamp(ctx, st.ID, rev); err != nil {
		t.Fatalf("DeleteStamp: %v", err)
	}

	result, err := s.UndoLatestRevision(ctx, "proj-1")
	if err != nil {
		t.Fatalf("UndoLatestRevision: %v", err)
	}

	restored, ok := result.Restored.(*domain.Stamp)
	if !ok {
		t.Fatalf("Restored: got %T, want *domain.Stamp", result.Restored)
	}
	if restored.ID != st.ID {
		t.Errorf("restored ID: got %q, want %q", restored.ID, st.ID)
	}

	got, err := s.GetStamp(ctx, st.ID)
	if err != nil {
		t.Fatalf("GetStamp after undo: %v", err)
	}
	if got.Position.X != 5 {
		t.Errorf("Position.X: got %v, want 5", got.Position.X)
	}

	total, err := s.GetCount(ctx, "plan-1", "dev-1", domain.NoLocation)
	if err != nil {
		t.Fatalf("GetCount: %v", err)
	}
	if total != 1 {
		t.Errorf("total: got %d, want 1 (insert trigger fired on restore)", total)
	}
}

func TestUndoLatestRevision_LocationDeleteRestoresLocation(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	seedPlan(t, s)

	l := createTestLocation(t, s, "loc-ud", geometryBounds(0, 0, 10, 10))
	rev := testRevision(t, "rev-lud", domain.EntityLocation, domain.RevisionDelete, "plan-1", l.ID, l)
	if err := s.DeleteLocation(ctx, l.ID, rev); err != nil {
		t.Fatalf("DeleteLocation: %v", err)
	}

	if _, err := s.UndoLatestRevision(ctx, "proj-1"); err != nil {
		t.Fatalf("UndoLatestRevision: %v", err)
	}

	got, err := s.GetLocation(ctx, l.ID)
	if err != nil {
		t.Fatalf("GetLocation after undo: %v", err)
	}
	if got.Name != l.Name {
		t.Errorf("Name: got %q, want %q", got.Name, l.Name)
	}
	if got.Revision != l.Revision {
		t.Errorf("Revision: got %d, want %d", got.Revision, l.Revision)
	}
}

func TestUndoLatestRevision_NothingToUndo(t *testing.T) {
	s := newTestStore(t)
	seedPlan(t, s)

	_, err := s.UndoLatestRevision(context.Background(), "proj-1")
	if !errors.Is(err, apperrors.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestPruneRevisions(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	seedPlan(t, s)

	for _, id := range []string{"stmp-p1", "stmp-p2", "stmp-p3", "stmp-p4", "stmp-p5"} {
		createTestStamp(t, s, id, "", 1, 1)
	}

	removed, err := s.PruneRevisions(ctx, "proj-1", 3)
	if err != nil {
		t.Fatalf("PruneRevisions: %v", err)
	}
	if removed != 2 {
		t.Errorf("removed: got %d, want 2", removed)
	}

	// The oldest rows went; the newest 3 survive in order.
	revs, err := s.ListRevisionsByProject(ctx, "proj-1", 100)
	if err != nil {
		t.Fatalf("ListRevisionsByProject: %v", err)
	}
	if len(revs) != 3 {
		t.Fatalf("got %d revisions, want 3", len(revs))
	}
	for i, want := range []string{"stmp-p3", "stmp-p4", "stmp-p5"} {
		if revs[i].EntityID != want {
			t.Errorf("revs[%d].EntityID: got %q, want %q", i, revs[i].EntityID, want)
		}
	}

	// Pruning again removes nothing.
	removed, err = s.PruneRevisions(ctx, "proj-1", 3)
	if err != nil {
		t.Fatalf("PruneRevisions (idempotent): %v", err)
	}
	if removed != 0 {
		t.Errorf("idempotent removed: got %d, want 0", removed)
	}
}

func TestDeletePlan_ClearsHistoryAndCounts(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	seedPlan(t, s)

	createTestStamp(t, s, "stmp-c1", "", 1, 1)

	if err := s.DeletePlan(ctx, "plan-1"); err != nil {
		t.Fatalf("DeletePlan: %v", err)
	}

	revs, err := s.ListRevisionsByProject(ctx, "proj-1", 100)
	if err != nil {
		t.Fatalf("ListRevisionsByProject: %v", err)
	}
	if len(revs) != 0 {
		t.Errorf("revisions should cascade with plan: got %d", len(revs))
	}

	counts, err := s.GetCountsForPlan(ctx, "plan-1")
	if err != nil {
		t.Fatalf("GetCountsForPlan: %v", err)
	}
	if len(counts) != 0 {
		t.Errorf("counts should cascade with plan: got %d", len(counts))
	}
}

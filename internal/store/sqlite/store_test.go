package sqlite

import (
	"context"
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/takeoffapp/takeoff-server/internal/domain"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	dir := t.TempDir()
	dbPath := filepath.Join(dir, "test.db")
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug}))
	s, err := Open(dbPath, logger)
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

// seedPlan inserts the project/plan/device fixtures most tests need:
// project proj-1 with plan plan-1 and device dev-1.
func seedPlan(t *testing.T, s *Store) {
	t.Helper()
	ctx := context.Background()
	now := time.Now()

	if err := s.CreateProject(ctx, &domain.Project{
		CreatedAt: now, UpdatedAt: now, ID: "proj-1", Name: "Office Tower",
	}); err != nil {
		t.Fatalf("CreateProject: %v", err)
	}
	if err := s.CreatePlan(ctx, &domain.Plan{
		CreatedAt: now, UpdatedAt: now, ID: "plan-1", ProjectID: "proj-1",
		Name: "First Floor", PageNumber: 1,
	}); err != nil {
		t.Fatalf("CreatePlan: %v", err)
	}
	if err := s.CreateDevice(ctx, &domain.Device{
		CreatedAt: now, UpdatedAt: now, ID: "dev-1", ProjectID: "proj-1",
		Name: "Duplex Outlet", Symbol: "outlet",
	}); err != nil {
		t.Fatalf("CreateDevice: %v", err)
	}
}

// testRevision builds a revision row for direct store calls. snapshot may
// be nil for create revisions.
func testRevision(t *testing.T, id string, kind domain.EntityKind, revType domain.RevisionType, planID, entityID string, snapshot any) *domain.Revision {
	t.Helper()
	rev := &domain.Revision{
		CreatedAt: time.Now(),
		ID:        id,
		Kind:      kind,
		EntityID:  entityID,
		PlanID:    planID,
		Type:      revType,
	}
	if snapshot != nil {
		data, err := json.Marshal(snapshot)
		if err != nil {
			t.Fatalf("marshal snapshot: %v", err)
		}
		rev.Snapshot = data
	}
	return rev
}

func TestOpen(t *testing.T) {
	s := newTestStore(t)

	var journalMode string
	if err := s.db.QueryRow("PRAGMA journal_mode").Scan(&journalMode); err != nil {
		t.Fatalf("query journal_mode: %v", err)
	}
	if journalMode != "wal" {
		t.Errorf("expected wal, got %s", journalMode)
	}

	var fk int
	if err := s.db.QueryRow("PRAGMA foreign_keys").Scan(&fk); err != nil {
		t.Fatalf("query foreign_keys: %v", err)
	}
	if fk != 1 {
		t.Errorf("expected foreign_keys=1, got %d", fk)
	}

	tables := []string{
		"projects", "plans", "devices",
		"locations", "location_vertices", "stamps",
		"revisions", "counts",
	}
	for _, table := range tables {
		var name string
		err := s.db.QueryRow("SELECT name FROM sqlite_master WHERE type='table' AND name=?", table).Scan(&name)
		if err != nil {
			t.Errorf("table %s not found: %v", table, err)
		}
	}
}

func TestOpenClose(t *testing.T) {
	dir := t.TempDir()
	dbPath := filepath.Join(dir, "test.db")
	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))

	s, err := Open(dbPath, logger)
	if err != nil {
		t.Fatalf("open store: %v", err)
	}

	if err := s.Close(); err != nil {
		t.Fatalf("close store: %v", err)
	}

	// Re-open should work (schema is idempotent).
	s2, err := Open(dbPath, logger)
	if err != nil {
		t.Fatalf("re-open store: %v", err)
	}
	defer s2.Close()
}

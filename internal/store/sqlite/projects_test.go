package sqlite

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/takeoffapp/takeoff-server/internal/domain"
	apperrors "github.com/takeoffapp/takeoff-server/internal/errors"
)

func TestCreateAndGetProject(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	now := time.Now()
	p := &domain.Project{CreatedAt: now, UpdatedAt: now, ID: "proj-a", Name: "Warehouse"}

	if err := s.CreateProject(ctx, p); err != nil {
		t.Fatalf("CreateProject: %v", err)
	}

	got, err := s.GetProject(ctx, "proj-a")
	if err != nil {
		t.Fatalf("GetProject: %v", err)
	}
	if got.Name != "Warehouse" {
		t.Errorf("Name: got %q, want %q", got.Name, "Warehouse")
	}
	if got.CreatedAt.Unix() != now.Unix() {
		t.Errorf("CreatedAt: got %v, want %v", got.CreatedAt, now)
	}
}

func TestGetProject_NotFound(t *testing.T) {
	s := newTestStore(t)

	_, err := s.GetProject(context.Background(), "nonexistent")
	if !errors.Is(err, apperrors.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestCreateProject_Duplicate(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	now := time.Now()
	p := &domain.Project{CreatedAt: now, UpdatedAt: now, ID: "proj-dup", Name: "One"}
	if err := s.CreateProject(ctx, p); err != nil {
		t.Fatalf("CreateProject: %v", err)
	}

	err := s.CreateProject(ctx, p)
	if !errors.Is(err, apperrors.ErrAlreadyExists) {
		t.Fatalf("expected ErrAlreadyExists, got %v", err)
	}
}

func TestDeleteProject_Cascades(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	seedPlan(t, s)

	if err := s.DeleteProject(ctx, "proj-1"); err != nil {
		t.Fatalf("DeleteProject: %v", err)
	}

	if _, err := s.GetPlan(ctx, "plan-1"); !errors.Is(err, apperrors.ErrNotFound) {
		t.Errorf("plan should cascade: got %v", err)
	}
	if _, err := s.GetDevice(ctx, "dev-1"); !errors.Is(err, apperrors.ErrNotFound) {
		t.Errorf("device should cascade: got %v", err)
	}
}

func TestListProjects(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	now := time.Now()
	for i, id := range []string{"proj-l1", "proj-l2"} {
		ts := now.Add(time.Duration(i) * time.Second)
		if err := s.CreateProject(ctx, &domain.Project{
			CreatedAt: ts, UpdatedAt: ts, ID: id, Name: id,
		}); err != nil {
			t.Fatalf("CreateProject %s: %v", id, err)
		}
	}

	projects, err := s.ListProjects(ctx)
	if err != nil {
		t.Fatalf("ListProjects: %v", err)
	}
	if len(projects) != 2 {
		t.Fatalf("got %d projects, want 2", len(projects))
	}
	if projects[0].ID != "proj-l1" || projects[1].ID != "proj-l2" {
		t.Errorf("wrong order: %s, %s", projects[0].ID, projects[1].ID)
	}
}

func TestCreatePlan_MissingProject(t *testing.T) {
	s := newTestStore(t)
	now := time.Now()

	err := s.CreatePlan(context.Background(), &domain.Plan{
		CreatedAt: now, UpdatedAt: now, ID: "plan-x", ProjectID: "no-such-project",
		Name: "Orphan", PageNumber: 1,
	})
	if !errors.Is(err, apperrors.ErrInvalidReference) {
		t.Fatalf("expected ErrInvalidReference, got %v", err)
	}
}

func TestCreateDevice_DuplicateName(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	seedPlan(t, s)

	now := time.Now()
	err := s.CreateDevice(ctx, &domain.Device{
		CreatedAt: now, UpdatedAt: now, ID: "dev-2", ProjectID: "proj-1",
		Name: "Duplex Outlet", Symbol: "outlet2",
	})
	if !errors.Is(err, apperrors.ErrAlreadyExists) {
		t.Fatalf("expected ErrAlreadyExists, got %v", err)
	}
}

func TestUpdateDevice(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	seedPlan(t, s)

	d, err := s.GetDevice(ctx, "dev-1")
	if err != nil {
		t.Fatalf("GetDevice: %v", err)
	}

	d.Name = "Quad Outlet"
	d.Color = "#00FF00"
	d.UpdatedAt = time.Now()
	if err := s.UpdateDevice(ctx, d); err != nil {
		t.Fatalf("UpdateDevice: %v", err)
	}

	got, err := s.GetDevice(ctx, "dev-1")
	if err != nil {
		t.Fatalf("GetDevice after update: %v", err)
	}
	if got.Name != "Quad Outlet" {
		t.Errorf("Name: got %q, want %q", got.Name, "Quad Outlet")
	}
	if got.Color != "#00FF00" {
		t.Errorf("Color: got %q, want %q", got.Color, "#00FF00")
	}
}

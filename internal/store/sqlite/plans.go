package sqlite

import (
	"context"
	"database/sql"

	"github.com/takeoffapp/takeoff-server/internal/domain"
	apperrors "github.com/takeoffapp/takeoff-server/internal/errors"
)

const planColumns = `id, created_at, updated_at, project_id, name, page_number`

func scanPlan(scanner interface{ Scan(dest ...any) error }) (*domain.Plan, error) {
	var p domain.Plan
	var createdAt, updatedAt string

	if err := scanner.Scan(&p.ID, &createdAt, &updatedAt, &p.ProjectID, &p.Name, &p.PageNumber); err != nil {
		return nil, err
	}

	var err error
	p.CreatedAt, err = parseTime(createdAt)
	if err != nil {
		return nil, err
	}
	p.UpdatedAt, err = parseTime(updatedAt)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// CreatePlan inserts a new plan.
// Returns apperrors.ErrInvalidReference if the project does not exist.
func (s *Store) CreatePlan(ctx context.Context, p *domain.Plan) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO plans (id, created_at, updated_at, project_id, name, page_number)
		VALUES (?, ?, ?, ?, ?, ?)`,
		p.ID, formatTime(p.CreatedAt), formatTime(p.UpdatedAt),
		p.ProjectID, p.Name, p.PageNumber,
	)
	return mapConstraintErr(err)
}

// GetPlan retrieves a plan by ID.
// Returns apperrors.ErrNotFound if it does not exist.
func (s *Store) GetPlan(ctx context.Context, id string) (*domain.Plan, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+planColumns+` FROM plans WHERE id = ?`, id)

	p, err := scanPlan(row)
	if err == sql.ErrNoRows {
		return nil, apperrors.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return p, nil
}

// ListPlansByProject returns a project's plans ordered by page number.
func (s *Store) ListPlansByProject(ctx context.Context, projectID string) ([]*domain.Plan, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+planColumns+` FROM plans WHERE project_id = ? ORDER BY page_number, created_at`, projectID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var plans []*domain.Plan
	for rows.Next() {
		p, err := scanPlan(rows)
		if err != nil {
			return nil, err
		}
		plans = append(plans, p)
	}
	return plans, rows.Err()
}

// DeletePlan performs a hard delete on a plan. The schema cascades
// locations, stamps, revisions, and counts; the revision history for the
// plan's entities is gone with it.
// Returns apperrors.ErrNotFound if the plan does not exist.
func (s *Store) DeletePlan(ctx context.Context, id string) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM plans WHERE id = ?`, id)
	if err != nil {
		return err
	}
	n, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}

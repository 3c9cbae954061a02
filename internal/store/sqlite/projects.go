package sqlite

import (
	"context"
	"database/sql"

	"github.com/takeoffapp/takeoff-server/internal/domain"
	apperrors "github.com/takeoffapp/takeoff-server/internal/errors"
)

const projectColumns = `id, created_at, updated_at, name`

// scanProject scans a sql.Row (or sql.Rows via its Scan method) into a
// domain.Project.
func scanProject(scanner interface{ Scan(dest ...any) error }) (*domain.Project, error) {
	var p domain.Project
	var createdAt, updatedAt string

	if err := scanner.Scan(&p.ID, &createdAt, &updatedAt, &p.Name); err != nil {
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

// CreateProject inserts a new project.
// Returns apperrors.ErrAlreadyExists on duplicate ID.
func (s *Store) CreateProject(ctx context.Context, p *domain.Project) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO projects (id, created_at, updated_at, name)
		VALUES (?, ?, ?, ?)`,
		p.ID, formatTime(p.CreatedAt), formatTime(p.UpdatedAt), p.Name,
	)
	return mapConstraintErr(err)
}

// GetProject retrieves a project by ID.
// Returns apperrors.ErrNotFound if it does not exist.
func (s *Store) GetProject(ctx context.Context, id string) (*domain.Project, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+projectColumns+` FROM projects WHERE id = ?`, id)

	p, err := scanProject(row)
	if err == sql.ErrNoRows {
		return nil, apperrors.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return p, nil
}

// ListProjects returns all projects ordered by creation time.
func (s *Store) ListProjects(ctx context.Context) ([]*domain.Project, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+projectColumns+` FROM projects ORDER BY created_at, id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var projects []*domain.Project
	for rows.Next() {
		p, err := scanProject(rows)
		if err != nil {
			return nil, err
		}
		projects = append(projects, p)
	}
	return projects, rows.Err()
}

// DeleteProject performs a hard delete on a project. The schema cascades
// plans, devices, and everything below them.
// Returns apperrors.ErrNotFound if the project does not exist.
func (s *Store) DeleteProject(ctx context.Context, id string) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM projects WHERE id = ?`, id)
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

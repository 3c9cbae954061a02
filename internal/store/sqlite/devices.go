package sqlite

import (
	"context"
	"database/sql"

	"github.com/takeoffapp/takeoff-server/internal/domain"
	apperrors "github.com/takeoffapp/takeoff-server/internal/errors"
)

const deviceColumns = `id, created_at, updated_at, project_id, name, symbol, color`

func scanDevice(scanner interface{ Scan(dest ...any) error }) (*domain.Device, error) {
	var d domain.Device
	var createdAt, updatedAt string
	var color sql.NullString

	if err := scanner.Scan(&d.ID, &createdAt, &updatedAt, &d.ProjectID, &d.Name, &d.Symbol, &color); err != nil {
		return nil, err
	}

	var err error
	d.CreatedAt, err = parseTime(createdAt)
	if err != nil {
		return nil, err
	}
	d.UpdatedAt, err = parseTime(updatedAt)
	if err != nil {
		return nil, err
	}
	if color.Valid {
		d.Color = color.String
	}
	return &d, nil
}

// CreateDevice inserts a new device type.
// Returns apperrors.ErrAlreadyExists when the name is taken within the
// project, apperrors.ErrInvalidReference when the project is missing.
func (s *Store) CreateDevice(ctx context.Context, d *domain.Device) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO devices (id, created_at, updated_at, project_id, name, symbol, color)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		d.ID, formatTime(d.CreatedAt), formatTime(d.UpdatedAt),
		d.ProjectID, d.Name, d.Symbol, nullString(d.Color),
	)
	return mapConstraintErr(err)
}

// GetDevice retrieves a device by ID.
// Returns apperrors.ErrNotFound if it does not exist.
func (s *Store) GetDevice(ctx context.Context, id string) (*domain.Device, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+deviceColumns+` FROM devices WHERE id = ?`, id)

	d, err := scanDevice(row)
	if err == sql.ErrNoRows {
		return nil, apperrors.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return d, nil
}

// ListDevicesByProject returns a project's devices ordered by name.
func (s *Store) ListDevicesByProject(ctx context.Context, projectID string) ([]*domain.Device, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+deviceColumns+` FROM devices WHERE project_id = ? ORDER BY name`, projectID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var devices []*domain.Device
	for rows.Next() {
		d, err := scanDevice(rows)
		if err != nil {
			return nil, err
		}
		devices = append(devices, d)
	}
	return devices, rows.Err()
}

// UpdateDevice updates a device row.
// Returns apperrors.ErrNotFound if the device does not exist and
// apperrors.ErrAlreadyExists when renaming onto a taken name.
func (s *Store) UpdateDevice(ctx context.Context, d *domain.Device) error {
	result, err := s.db.ExecContext(ctx, `
		UPDATE devices SET
			updated_at = ?,
			name = ?,
			symbol = ?,
			color = ?
		WHERE id = ?`,
		formatTime(d.UpdatedAt), d.Name, d.Symbol, nullString(d.Color), d.ID,
	)
	if err != nil {
		return mapConstraintErr(err)
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

// DeleteDevice performs a hard delete on a device. The schema cascades
// its stamps and count rows.
// Returns apperrors.ErrNotFound if the device does not exist.
func (s *Store) DeleteDevice(ctx context.Context, id string) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM devices WHERE id = ?`, id)
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

package sqlite

import (
	"context"
	"database/sql"
	"time"

	"github.com/takeoffapp/takeoff-server/internal/domain"
	apperrors "github.com/takeoffapp/takeoff-server/internal/errors"
)

const stampColumns = `id, created_at, updated_at, plan_id, device_id, location_id, x, y, scale, revision`

func scanStamp(scanner interface{ Scan(dest ...any) error }) (*domain.Stamp, error) {
	var st domain.Stamp
	var (
		createdAt  string
		updatedAt  string
		locationID sql.NullString
	)

	err := scanner.Scan(
		&st.ID,
		&createdAt,
		&updatedAt,
		&st.PlanID,
		&st.DeviceID,
		&locationID,
		&st.Position.X,
		&st.Position.Y,
		&st.Position.Scale,
		&st.Revision,
	)
	if err != nil {
		return nil, err
	}

	st.CreatedAt, err = parseTime(createdAt)
	if err != nil {
		return nil, err
	}
	st.UpdatedAt, err = parseTime(updatedAt)
	if err != nil {
		return nil, err
	}
	if locationID.Valid {
		st.LocationID = locationID.String
	}
	return &st, nil
}

// insertStampTx inserts a stamp row inside tx. The count insert trigger
// fires in the same transaction.
func insertStampTx(ctx context.Context, tx *sql.Tx, st *domain.Stamp) error {
	_, err := tx.ExecContext(ctx, `
		INSERT INTO stamps (
			id, created_at, updated_at, plan_id, device_id, location_id,
			x, y, scale, revision
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		st.ID,
		formatTime(st.CreatedAt),
		formatTime(st.UpdatedAt),
		st.PlanID,
		st.DeviceID,
		nullString(st.LocationID),
		st.Position.X,
		st.Position.Y,
		st.Position.Scale,
		st.Revision,
	)
	return err
}

// updateStampTx overwrites a stamp row inside tx. The count move trigger
// fires when device or location changed.
func updateStampTx(ctx context.Context, tx *sql.Tx, st *domain.Stamp) error {
	result, err := tx.ExecContext(ctx, `
		UPDATE stamps SET
			created_at = ?,
			updated_at = ?,
			device_id = ?,
			location_id = ?,
			x = ?, y = ?, scale = ?,
			revision = ?
		WHERE id = ?`,
		formatTime(st.CreatedAt),
		formatTime(st.UpdatedAt),
		st.DeviceID,
		nullString(st.LocationID),
		st.Position.X,
		st.Position.Y,
		st.Position.Scale,
		st.Revision,
		st.ID,
	)
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

// CreateStamp inserts a stamp and its create revision in one transaction.
// The count cache is maintained by the insert trigger inside the same
// transaction. Returns apperrors.ErrInvalidReference when the plan,
// device, or location does not exist.
func (s *Store) CreateStamp(ctx context.Context, st *domain.Stamp, rev *domain.Revision) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if err := insertStampTx(ctx, tx, st); err != nil {
		return mapConstraintErr(err)
	}
	if err := insertRevisionTx(ctx, tx, rev); err != nil {
		return mapConstraintErr(err)
	}
	return tx.Commit()
}

// GetStamp retrieves a stamp by ID.
// Returns apperrors.ErrNotFound if it does not exist.
func (s *Store) GetStamp(ctx context.Context, id string) (*domain.Stamp, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+stampColumns+` FROM stamps WHERE id = ?`, id)

	st, err := scanStamp(row)
	if err == sql.ErrNoRows {
		return nil, apperrors.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return st, nil
}

// ListStampsByPlan returns a plan's stamps in creation order.
func (s *Store) ListStampsByPlan(ctx context.Context, planID string) ([]*domain.Stamp, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+stampColumns+` FROM stamps WHERE plan_id = ? ORDER BY created_at, id`, planID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var stamps []*domain.Stamp
	for rows.Next() {
		st, err := scanStamp(rows)
		if err != nil {
			return nil, err
		}
		stamps = append(stamps, st)
	}
	return stamps, rows.Err()
}

// UpdateStamp overwrites a stamp and writes its update revision in one
// transaction, guarded by the same optimistic lock as locations.
func (s *Store) UpdateStamp(ctx context.Context, st *domain.Stamp, expectedUpdatedAt time.Time, rev *domain.Revision) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if err := checkStale(ctx, tx, "stamps", st.ID, expectedUpdatedAt); err != nil {
		return err
	}
	if err := updateStampTx(ctx, tx, st); err != nil {
		return mapConstraintErr(err)
	}
	if err := insertRevisionTx(ctx, tx, rev); err != nil {
		return mapConstraintErr(err)
	}
	return tx.Commit()
}

// DeleteStamp removes a stamp and writes its delete revision in one
// transaction. The count delete trigger decrements the stamp's bucket.
// Returns apperrors.ErrNotFound if the stamp does not exist.
func (s *Store) DeleteStamp(ctx context.Context, id string, rev *domain.Revision) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	result, err := tx.ExecContext(ctx, `DELETE FROM stamps WHERE id = ?`, id)
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

	if err := insertRevisionTx(ctx, tx, rev); err != nil {
		return mapConstraintErr(err)
	}
	return tx.Commit()
}

package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/takeoffapp/takeoff-server/internal/domain"
	apperrors "github.com/takeoffapp/takeoff-server/internal/errors"
	"github.com/takeoffapp/takeoff-server/internal/geometry"
)

// locationColumns is the ordered list of columns selected in location
// queries. Must match the scan order in scanLocation.
const locationColumns = `id, created_at, updated_at, plan_id, name, type,
	bounds_x, bounds_y, bounds_width, bounds_height, color, revision`

func scanLocation(scanner interface{ Scan(dest ...any) error }) (*domain.Location, error) {
	var l domain.Location
	var (
		createdAt string
		updatedAt string
		locType   string
		bx, by    sql.NullFloat64
		bw, bh    sql.NullFloat64
		color     sql.NullString
	)

	err := scanner.Scan(
		&l.ID,
		&createdAt,
		&updatedAt,
		&l.PlanID,
		&l.Name,
		&locType,
		&bx, &by, &bw, &bh,
		&color,
		&l.Revision,
	)
	if err != nil {
		return nil, err
	}

	l.CreatedAt, err = parseTime(createdAt)
	if err != nil {
		return nil, err
	}
	l.UpdatedAt, err = parseTime(updatedAt)
	if err != nil {
		return nil, err
	}

	l.Type = domain.LocationType(locType)
	if bx.Valid && by.Valid && bw.Valid && bh.Valid {
		l.Bounds = &geometry.Bounds{
			X:      bx.Float64,
			Y:      by.Float64,
			Width:  bw.Float64,
			Height: bh.Float64,
		}
	}
	if color.Valid {
		l.Color = color.String
	}
	return &l, nil
}

// loadVertices loads the ordered boundary vertices for a polygon location.
func (s *Store) loadVertices(ctx context.Context, locationID string) ([]geometry.Point, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT x, y FROM location_vertices WHERE location_id = ? ORDER BY ord`, locationID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var vertices []geometry.Point
	for rows.Next() {
		var p geometry.Point
		if err := rows.Scan(&p.X, &p.Y); err != nil {
			return nil, err
		}
		vertices = append(vertices, p)
	}
	return vertices, rows.Err()
}

// boundsValues splits an optional Bounds into four nullable columns.
func boundsValues(b *geometry.Bounds) (x, y, w, h sql.NullFloat64) {
	if b == nil {
		return
	}
	x = sql.NullFloat64{Float64: b.X, Valid: true}
	y = sql.NullFloat64{Float64: b.Y, Valid: true}
	w = sql.NullFloat64{Float64: b.Width, Valid: true}
	h = sql.NullFloat64{Float64: b.Height, Valid: true}
	return
}

// insertLocationTx inserts a location row and its vertices inside tx.
func insertLocationTx(ctx context.Context, tx *sql.Tx, l *domain.Location) error {
	bx, by, bw, bh := boundsValues(l.Bounds)
	_, err := tx.ExecContext(ctx, `
		INSERT INTO locations (
			id, created_at, updated_at, plan_id, name, type,
			bounds_x, bounds_y, bounds_width, bounds_height, color, revision
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		l.ID,
		formatTime(l.CreatedAt),
		formatTime(l.UpdatedAt),
		l.PlanID,
		l.Name,
		string(l.Type),
		bx, by, bw, bh,
		nullString(l.Color),
		l.Revision,
	)
	if err != nil {
		return err
	}
	return insertVerticesTx(ctx, tx, l)
}

func insertVerticesTx(ctx context.Context, tx *sql.Tx, l *domain.Location) error {
	for i, v := range l.Vertices {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO location_vertices (location_id, ord, x, y)
			VALUES (?, ?, ?, ?)`,
			l.ID, i, v.X, v.Y,
		)
		if err != nil {
			return fmt.Errorf("insert vertex %d: %w", i, err)
		}
	}
	return nil
}

// updateLocationTx overwrites a location row and replaces its vertices
// inside tx. Returns apperrors.ErrNotFound when the row is missing.
func updateLocationTx(ctx context.Context, tx *sql.Tx, l *domain.Location) error {
	bx, by, bw, bh := boundsValues(l.Bounds)
	result, err := tx.ExecContext(ctx, `
		UPDATE locations SET
			created_at = ?,
			updated_at = ?,
			name = ?,
			type = ?,
			bounds_x = ?, bounds_y = ?, bounds_width = ?, bounds_height = ?,
			color = ?,
			revision = ?
		WHERE id = ?`,
		formatTime(l.CreatedAt),
		formatTime(l.UpdatedAt),
		l.Name,
		string(l.Type),
		bx, by, bw, bh,
		nullString(l.Color),
		l.Revision,
		l.ID,
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

	if _, err := tx.ExecContext(ctx, `DELETE FROM location_vertices WHERE location_id = ?`, l.ID); err != nil {
		return err
	}
	return insertVerticesTx(ctx, tx, l)
}

// CreateLocation inserts a location and its create revision in one
// transaction. Returns apperrors.ErrInvalidReference when the plan does
// not exist.
func (s *Store) CreateLocation(ctx context.Context, l *domain.Location, rev *domain.Revision) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if err := insertLocationTx(ctx, tx, l); err != nil {
		return mapConstraintErr(err)
	}
	if err := insertRevisionTx(ctx, tx, rev); err != nil {
		return mapConstraintErr(err)
	}
	return tx.Commit()
}

// GetLocation retrieves a location by ID, including polygon vertices.
// Returns apperrors.ErrNotFound if it does not exist.
func (s *Store) GetLocation(ctx context.Context, id string) (*domain.Location, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+locationColumns+` FROM locations WHERE id = ?`, id)

	l, err := scanLocation(row)
	if err == sql.ErrNoRows {
		return nil, apperrors.ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	if l.Type == domain.LocationPolygon {
		l.Vertices, err = s.loadVertices(ctx, id)
		if err != nil {
			return nil, fmt.Errorf("load vertices: %w", err)
		}
	}
	return l, nil
}

// ListLocationsByPlan returns a plan's locations in creation order, with
// polygon vertices loaded.
func (s *Store) ListLocationsByPlan(ctx context.Context, planID string) ([]*domain.Location, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+locationColumns+` FROM locations WHERE plan_id = ? ORDER BY created_at, id`, planID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var locations []*domain.Location
	for rows.Next() {
		l, err := scanLocation(rows)
		if err != nil {
			return nil, err
		}
		locations = append(locations, l)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for _, l := range locations {
		if l.Type != domain.LocationPolygon {
			continue
		}
		l.Vertices, err = s.loadVertices(ctx, l.ID)
		if err != nil {
			return nil, fmt.Errorf("load vertices for %s: %w", l.ID, err)
		}
	}
	return locations, nil
}

// UpdateLocation overwrites a location and writes its update revision in
// one transaction, guarded by an optimistic lock: if the stored
// updated_at is newer than expectedUpdatedAt the write is rejected with
// apperrors.ErrStaleWrite and nothing is applied.
func (s *Store) UpdateLocation(ctx context.Context, l *domain.Location, expectedUpdatedAt time.Time, rev *domain.Revision) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if err := checkStale(ctx, tx, "locations", l.ID, expectedUpdatedAt); err != nil {
		return err
	}
	if err := updateLocationTx(ctx, tx, l); err != nil {
		return mapConstraintErr(err)
	}
	if err := insertRevisionTx(ctx, tx, rev); err != nil {
		return mapConstraintErr(err)
	}
	return tx.Commit()
}

// DeleteLocation removes a location and writes its delete revision in one
// transaction. Stamps assigned to the location are un-assigned first so
// the count triggers move their totals to the no-location bucket.
// Returns apperrors.ErrNotFound if the location does not exist.
func (s *Store) DeleteLocation(ctx context.Context, id string, rev *domain.Revision) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if err := unassignStampsTx(ctx, tx, id); err != nil {
		return err
	}

	result, err := tx.ExecContext(ctx, `DELETE FROM locations WHERE id = ?`, id)
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

// unassignStampsTx clears location_id on every stamp assigned to the
// location, firing the count move trigger per row.
func unassignStampsTx(ctx context.Context, tx *sql.Tx, locationID string) error {
	_, err := tx.ExecContext(ctx, `
		UPDATE stamps SET location_id = NULL WHERE location_id = ?`, locationID)
	return err
}

// checkStale enforces the optimistic-lock precondition on table/id: the
// stored updated_at must not be newer than the updated_at the caller
// last observed. A zero expected time means the caller opted out of the
// precondition and the write proceeds unconditionally. Returns
// apperrors.ErrNotFound when the row is missing.
func checkStale(ctx context.Context, tx *sql.Tx, table, id string, expected time.Time) error {
	var storedStr string
	err := tx.QueryRowContext(ctx,
		`SELECT updated_at FROM `+table+` WHERE id = ?`, id).Scan(&storedStr)
	if err == sql.ErrNoRows {
		return apperrors.ErrNotFound
	}
	if err != nil {
		return err
	}
	if expected.IsZero() {
		return nil
	}
	stored, err := parseTime(storedStr)
	if err != nil {
		return err
	}
	if stored.After(expected) {
		return apperrors.ErrStaleWrite
	}
	return nil
}

package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/takeoffapp/takeoff-server/internal/domain"
	apperrors "github.com/takeoffapp/takeoff-server/internal/errors"
)

const revisionColumns = `id, created_at, plan_id, kind, entity_id, type, snapshot`

func scanRevision(scanner interface{ Scan(dest ...any) error }) (*domain.Revision, error) {
	var r domain.Revision
	var (
		createdAt string
		kind      string
		revType   string
		snapshot  sql.NullString
	)

	err := scanner.Scan(&r.ID, &createdAt, &r.PlanID, &kind, &r.EntityID, &revType, &snapshot)
	if err != nil {
		return nil, err
	}

	r.CreatedAt, err = parseTime(createdAt)
	if err != nil {
		return nil, err
	}
	r.Kind = domain.EntityKind(kind)
	r.Type = domain.RevisionType(revType)
	if snapshot.Valid {
		r.Snapshot = json.RawMessage(snapshot.String)
	}
	return &r, nil
}

// insertRevisionTx appends a revision row inside tx. Every entity
// mutation calls this in the same transaction as the mutation itself.
func insertRevisionTx(ctx context.Context, tx *sql.Tx, rev *domain.Revision) error {
	var snapshot sql.NullString
	if rev.Snapshot != nil {
		snapshot = sql.NullString{String: string(rev.Snapshot), Valid: true}
	}
	_, err := tx.ExecContext(ctx, `
		INSERT INTO revisions (id, created_at, plan_id, kind, entity_id, type, snapshot)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		rev.ID,
		formatTime(rev.CreatedAt),
		rev.PlanID,
		string(rev.Kind),
		rev.EntityID,
		string(rev.Type),
		snapshot,
	)
	return err
}

// ListRevisionsByProject returns the most recent `limit` revisions across
// all of a project's plans, in ascending (oldest first) order.
func (s *Store) ListRevisionsByProject(ctx context.Context, projectID string, limit int) ([]*domain.Revision, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT r.id, r.created_at, r.plan_id, r.kind, r.entity_id, r.type, r.snapshot
		FROM revisions r
		JOIN plans p ON p.id = r.plan_id
		WHERE p.project_id = ?
		ORDER BY r.seq DESC
		LIMIT ?`,
		projectID, limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var revisions []*domain.Revision
	for rows.Next() {
		r, err := scanRevision(rows)
		if err != nil {
			return nil, err
		}
		revisions = append(revisions, r)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	// Query returned newest first; callers want chronological order.
	for i, j := 0, len(revisions)-1; i < j; i, j = i+1, j-1 {
		revisions[i], revisions[j] = revisions[j], revisions[i]
	}
	return revisions, nil
}

// LatestRevisionByProject returns the single most recent revision across
// a project's plans. Returns apperrors.ErrNotFound when history is empty.
func (s *Store) LatestRevisionByProject(ctx context.Context, projectID string) (*domain.Revision, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT r.id, r.created_at, r.plan_id, r.kind, r.entity_id, r.type, r.snapshot
		FROM revisions r
		JOIN plans p ON p.id = r.plan_id
		WHERE p.project_id = ?
		ORDER BY r.seq DESC
		LIMIT 1`,
		projectID,
	)

	r, err := scanRevision(row)
	if err == sql.ErrNoRows {
		return nil, apperrors.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return r, nil
}

// UndoLatestRevision reverses the most recent mutation across a project's
// plans and consumes the revision row, all in one transaction:
//
//   - create: the entity is deleted again
//   - update: the pre-update snapshot is restored, revision counter included
//   - delete: the entity is re-created from its snapshot
//
// No new revision is written, so undo does not stack. The count triggers
// fire on the raw stamp operations, keeping the cache consistent.
// Returns apperrors.ErrNotFound when there is nothing to undo.
func (s *Store) UndoLatestRevision(ctx context.Context, projectID string) (*domain.UndoResult, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	row := tx.QueryRowContext(ctx, `
		SELECT r.id, r.created_at, r.plan_id, r.kind, r.entity_id, r.type, r.snapshot
		FROM revisions r
		JOIN plans p ON p.id = r.plan_id
		WHERE p.project_id = ?
		ORDER BY r.seq DESC
		LIMIT 1`,
		projectID,
	)
	rev, err := scanRevision(row)
	if err == sql.ErrNoRows {
		return nil, apperrors.ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	result := &domain.UndoResult{
		Kind:     rev.Kind,
		EntityID: rev.EntityID,
		Type:     rev.Type,
	}

	switch rev.Kind {
	case domain.EntityLocation:
		if err := undoLocationTx(ctx, tx, rev, result); err != nil {
			return nil, err
		}
	case domain.EntityStamp:
		if err := undoStampTx(ctx, tx, rev, result); err != nil {
			return nil, err
		}
	default:
		return nil, fmt.Errorf("unknown revision kind %q", rev.Kind)
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM revisions WHERE id = ?`, rev.ID); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return result, nil
}

func undoLocationTx(ctx context.Context, tx *sql.Tx, rev *domain.Revision, result *domain.UndoResult) error {
	switch rev.Type {
	case domain.RevisionCreate:
		// Stamps may have been assigned to the location since; un-assign
		// them so the delete does not dangle.
		if err := unassignStampsTx(ctx, tx, rev.EntityID); err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, `DELETE FROM locations WHERE id = ?`, rev.EntityID); err != nil {
			return err
		}
		return nil

	case domain.RevisionUpdate, domain.RevisionDelete:
		var loc domain.Location
		if err := json.Unmarshal(rev.Snapshot, &loc); err != nil {
			return fmt.Errorf("unmarshal location snapshot: %w", err)
		}
		var err error
		if rev.Type == domain.RevisionUpdate {
			err = updateLocationTx(ctx, tx, &loc)
		} else {
			err = insertLocationTx(ctx, tx, &loc)
		}
		if err != nil {
			return mapConstraintErr(err)
		}
		result.Restored = &loc
		return nil

	default:
		return fmt.Errorf("unknown revision type %q", rev.Type)
	}
}

func undoStampTx(ctx context.Context, tx *sql.Tx, rev *domain.Revision, result *domain.UndoResult) error {
	switch rev.Type {
	case domain.RevisionCreate:
		if _, err := tx.ExecContext(ctx, `DELETE FROM stamps WHERE id = ?`, rev.EntityID); err != nil {
			return err
		}
		return nil

	case domain.RevisionUpdate, domain.RevisionDelete:
		var st domain.Stamp
		if err := json.Unmarshal(rev.Snapshot, &st); err != nil {
			return fmt.Errorf("unmarshal stamp snapshot: %w", err)
		}
		var err error
		if rev.Type == domain.RevisionUpdate {
			err = updateStampTx(ctx, tx, &st)
		} else {
			err = insertStampTx(ctx, tx, &st)
			if err != nil && strings.Contains(err.Error(), "FOREIGN KEY constraint failed") && st.LocationID != "" {
				// The stamp's location was deleted after the stamp was.
				// Restore it unassigned rather than failing the undo.
				st.LocationID = ""
				err = insertStampTx(ctx, tx, &st)
			}
		}
		if err != nil {
			return mapConstraintErr(err)
		}
		result.Restored = &st
		return nil

	default:
		return fmt.Errorf("unknown revision type %q", rev.Type)
	}
}

// PruneRevisions deletes a project's revision rows beyond the most recent
// `keep`, oldest first. Returns the number of rows removed.
func (s *Store) PruneRevisions(ctx context.Context, projectID string, keep int) (int64, error) {
	result, err := s.db.ExecContext(ctx, `
		DELETE FROM revisions WHERE id IN (
			SELECT r.id
			FROM revisions r
			JOIN plans p ON p.id = r.plan_id
			WHERE p.project_id = ?
			ORDER BY r.seq DESC
			LIMIT -1 OFFSET ?
		)`,
		projectID, keep,
	)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

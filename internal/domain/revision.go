package domain

import (
	"encoding/json"
	"time"
)

// RevisionType says what kind of mutation a revision row records.
type RevisionType string

const (
	// RevisionCreate records an entity creation; its snapshot is null
	// because nothing preceded it.
	RevisionCreate RevisionType = "create"
	// RevisionUpdate records an update; its snapshot is the full
	// pre-update entity state.
	RevisionUpdate RevisionType = "update"
	// RevisionDelete records a deletion; its snapshot is the full
	// pre-delete entity state.
	RevisionDelete RevisionType = "delete"
)

// EntityKind identifies which entity table a revision belongs to.
type EntityKind string

const (
	// EntityLocation marks revisions of locations.
	EntityLocation EntityKind = "location"
	// EntityStamp marks revisions of stamps.
	EntityStamp EntityKind = "stamp"
)

// Revision is an immutable log row recording the state of a location or
// stamp before a mutation. Rows are append-only; undo consumes the most
// recent one. Revisions survive the deletion of their entity (that is
// what makes delete undoable) and are removed only when their plan is.
type Revision struct {
	CreatedAt time.Time       `json:"created_at"`
	ID        string          `json:"id"`
	Kind      EntityKind      `json:"kind"`
	EntityID  string          `json:"entity_id"`
	PlanID    string          `json:"plan_id"`
	Type      RevisionType    `json:"type"`
	Snapshot  json.RawMessage `json:"snapshot,omitempty"` // nil for create revisions
}

// UndoResult describes what an undo operation restored.
type UndoResult struct {
	Kind     EntityKind   `json:"kind"`
	EntityID string       `json:"entity_id"`
	Type     RevisionType `json:"undone"` // the revision type that was reversed
	// Restored holds the entity state after the undo: the snapshot for
	// undone updates/deletes, nil for an undone creation.
	Restored any `json:"restored,omitempty"`
}

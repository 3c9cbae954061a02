// Package sse implements Server-Sent Events for real-time takeoff updates
// and event broadcasting.
package sse

import (
	"time"

	"github.com/takeoffapp/takeoff-server/internal/domain"
)

// EventType represents the type of SSE Event.
type EventType string

const (
	// EventCountUpdated represents a single count bucket changing value.
	// Emitted once per changed count row, after the mutation committed.
	EventCountUpdated EventType = "count.updated"

	// EventLocationCreated represents a location creation event.
	EventLocationCreated EventType = "location.created"
	// EventLocationUpdated represents a location update event.
	EventLocationUpdated EventType = "location.updated"
	// EventLocationDeleted represents a location deletion event.
	EventLocationDeleted EventType = "location.deleted"

	// EventStampCreated represents a stamp creation event.
	EventStampCreated EventType = "stamp.created"
	// EventStampUpdated represents a stamp update event.
	EventStampUpdated EventType = "stamp.updated"
	// EventStampDeleted represents a stamp deletion event.
	EventStampDeleted EventType = "stamp.deleted"

	// EventHeartbeat represents a connection keepalive event.
	EventHeartbeat EventType = "heartbeat"
)

// Event represents an SSE event to be sent to clients.
// The Data field contains the event payload as a JSON object for direct
// deserialization.
type Event struct {
	Timestamp time.Time `json:"timestamp"`
	Data      any       `json:"data"`
	Type      EventType `json:"type"`

	// PlanID scopes delivery: clients subscribed to a specific plan only
	// receive events carrying their plan. Empty means "all plans"
	// (heartbeats).
	PlanID string `json:"-"`
}

// CountUpdatedEventData is the data payload for count events. LocationID
// is empty for the no-location bucket.
type CountUpdatedEventData struct {
	Timestamp  time.Time `json:"timestamp"`
	PlanID     string    `json:"plan_id"`
	DeviceID   string    `json:"device_id"`
	LocationID string    `json:"location_id"`
	Total      int64     `json:"total"`
}

// EntityDeletedEventData is the data payload for deletion events.
type EntityDeletedEventData struct {
	DeletedAt time.Time `json:"deleted_at"`
	ID        string    `json:"id"`
	PlanID    string    `json:"plan_id"`
}

// HeartbeatEventData is the data payload for heartbeat events.
type HeartbeatEventData struct {
	ServerTime time.Time `json:"server_time"`
}

// NewCountUpdatedEvent creates a count change event for one bucket.
func NewCountUpdatedEvent(count *domain.Count) Event {
	now := time.Now()
	return Event{
		Timestamp: now,
		Type:      EventCountUpdated,
		PlanID:    count.PlanID,
		Data: CountUpdatedEventData{
			Timestamp:  now,
			PlanID:     count.PlanID,
			DeviceID:   count.DeviceID,
			LocationID: count.LocationID,
			Total:      count.Total,
		},
	}
}

// NewLocationCreatedEvent creates a location creation event.
func NewLocationCreatedEvent(l *domain.Location) Event {
	return Event{
		Timestamp: time.Now(),
		Type:      EventLocationCreated,
		PlanID:    l.PlanID,
		Data:      l,
	}
}

// NewLocationUpdatedEvent creates a location update event.
func NewLocationUpdatedEvent(l *domain.Location) Event {
	return Event{
		Timestamp: time.Now(),
		Type:      EventLocationUpdated,
		PlanID:    l.PlanID,
		Data:      l,
	}
}

// NewLocationDeletedEvent creates a location deletion event.
func NewLocationDeletedEvent(id, planID string) Event {
	now := time.Now()
	return Event{
		Timestamp: now,
		Type:      EventLocationDeleted,
		PlanID:    planID,
		Data:      EntityDeletedEventData{DeletedAt: now, ID: id, PlanID: planID},
	}
}

// NewStampCreatedEvent creates a stamp creation event.
func NewStampCreatedEvent(st *domain.Stamp) Event {
	return Event{
		Timestamp: time.Now(),
		Type:      EventStampCreated,
		PlanID:    st.PlanID,
		Data:      st,
	}
}

// NewStampUpdatedEvent creates a stamp update event.
func NewStampUpdatedEvent(st *domain.Stamp) Event {
	return Event{
		Timestamp: time.Now(),
		Type:      EventStampUpdated,
		PlanID:    st.PlanID,
		Data:      st,
	}
}

// NewStampDeletedEvent creates a stamp deletion event.
func NewStampDeletedEvent(id, planID string) Event {
	now := time.Now()
	return Event{
		Timestamp: now,
		Type:      EventStampDeleted,
		PlanID:    planID,
		Data:      EntityDeletedEventData{DeletedAt: now, ID: id, PlanID: planID},
	}
}

// NewHeartbeatEvent creates a keepalive event delivered to every client.
func NewHeartbeatEvent() Event {
	now := time.Now()
	return Event{
		Timestamp: now,
		Type:      EventHeartbeat,
		Data:      HeartbeatEventData{ServerTime: now},
	}
}

package shared

import (
	"time"
)

// EventType represents the type of domain event.
type EventType string

// Domain event types emitted after a state change has been persisted.
const (
	// Profile events
	EventProfileCreated EventType = "profile.created"
	EventProfileUpdated EventType = "profile.updated"
	EventProfileDeleted EventType = "profile.deleted"

	// Pairing events
	EventPairingCreated EventType = "pairing.created"
	EventPairingEnded   EventType = "pairing.ended"

	// Session events
	EventSessionRequested EventType = "session.requested"
	EventSessionConfirmed EventType = "session.confirmed"
	EventSessionRejected  EventType = "session.rejected"
	EventSessionCompleted EventType = "session.completed"
)

// Event is the base interface for all domain events.
type Event interface {
	// EventType returns the type of the event.
	EventType() EventType

	// OccurredAt returns when the event occurred.
	OccurredAt() time.Time

	// AggregateID returns the ID of the aggregate that produced this event.
	AggregateID() string

	// Payload returns the event data as a map for serialization.
	Payload() map[string]interface{}
}

// BaseEvent provides common event functionality.
type BaseEvent struct {
	Type          EventType `json:"type"`
	Timestamp     time.Time `json:"timestamp"`
	AggregateId   string    `json:"aggregate_id"`
	CorrelationID string    `json:"correlation_id,omitempty"`
}

// EventType implements Event interface.
func (e BaseEvent) EventType() EventType {
	return e.Type
}

// OccurredAt implements Event interface.
func (e BaseEvent) OccurredAt() time.Time {
	return e.Timestamp
}

// AggregateID implements Event interface.
func (e BaseEvent) AggregateID() string {
	return e.AggregateId
}

// NewBaseEvent creates a new base event.
func NewBaseEvent(eventType EventType, aggregateID string, at time.Time) BaseEvent {
	return BaseEvent{
		Type:        eventType,
		Timestamp:   at,
		AggregateId: aggregateID,
	}
}

// ProfileEvent is emitted when a profile is created, updated or deleted.
type ProfileEvent struct {
	BaseEvent
	Role string `json:"role"`
}

// Payload implements Event interface.
func (e ProfileEvent) Payload() map[string]interface{} {
	return map[string]interface{}{
		"profile_id": e.AggregateId,
		"role":       e.Role,
	}
}

// NewProfileEvent creates a profile event.
func NewProfileEvent(eventType EventType, profileID, role string, at time.Time) ProfileEvent {
	return ProfileEvent{
		BaseEvent: NewBaseEvent(eventType, profileID, at),
		Role:      role,
	}
}

// PairingEvent is emitted when a pairing is created or ended.
type PairingEvent struct {
	BaseEvent
	MentorID  string `json:"mentor_id"`
	LearnerID string `json:"learner_id"`
	ActorID   string `json:"actor_id"`
}

// Payload implements Event interface.
func (e PairingEvent) Payload() map[string]interface{} {
	return map[string]interface{}{
		"pairing_id": e.AggregateId,
		"mentor_id":  e.MentorID,
		"learner_id": e.LearnerID,
		"actor_id":   e.ActorID,
	}
}

// NewPairingEvent creates a pairing event.
func NewPairingEvent(eventType EventType, pairingID, mentorID, learnerID, actorID string, at time.Time) PairingEvent {
	return PairingEvent{
		BaseEvent: NewBaseEvent(eventType, pairingID, at),
		MentorID:  mentorID,
		LearnerID: learnerID,
		ActorID:   actorID,
	}
}

// SessionEvent is emitted on every session state change.
type SessionEvent struct {
	BaseEvent
	PairingID string `json:"pairing_id"`
	From      string `json:"from,omitempty"`
	To        string `json:"to"`
	ActorID   string `json:"actor_id"`
}

// Payload implements Event interface.
func (e SessionEvent) Payload() map[string]interface{} {
	return map[string]interface{}{
		"session_id": e.AggregateId,
		"pairing_id": e.PairingID,
		"from":       e.From,
		"to":         e.To,
		"actor_id":   e.ActorID,
	}
}

// NewSessionEvent creates a session event.
func NewSessionEvent(eventType EventType, sessionID, pairingID, from, to, actorID string, at time.Time) SessionEvent {
	return SessionEvent{
		BaseEvent: NewBaseEvent(eventType, sessionID, at),
		PairingID: pairingID,
		From:      from,
		To:        to,
		ActorID:   actorID,
	}
}

// EventHandler is a function that handles an event.
type EventHandler func(event Event) error

// EventPublisher defines the interface for publishing events.
type EventPublisher interface {
	// Publish sends an event to subscribers.
	Publish(event Event) error
}

// EventSubscriber defines the interface for subscribing to events.
type EventSubscriber interface {
	// Subscribe registers a handler for an event type.
	Subscribe(eventType EventType, handler EventHandler) error

	// SubscribeAll registers a handler for all events.
	SubscribeAll(handler EventHandler) error
}

// EventBus combines publishing and subscribing.
type EventBus interface {
	EventPublisher
	EventSubscriber
}

// NopPublisher discards every event.
type NopPublisher struct{}

// Publish implements EventPublisher.
func (NopPublisher) Publish(Event) error { return nil }

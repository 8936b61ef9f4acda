// Package events publishes domain events such as patient.created to a
// message broker. Publishing is best-effort: callers log failures and carry
// on.
package events

import (
	"context"
	"time"

	"github.com/google/uuid"
)

const (
	PatientCreated       = "patient.created"
	PatientDeleted       = "patient.deleted"
	AppointmentCreated   = "appointment.created"
	AppointmentCancelled = "appointment.cancelled"
	UserCreated          = "user.created"
)

// Event is the envelope written to the broker.
type Event struct {
	ID         string    `json:"id"`
	Type       string    `json:"type"`
	Subject    string    `json:"subject"`
	ActorID    string    `json:"actorId,omitempty"`
	OccurredAt time.Time `json:"occurredAt"`
	Data       any       `json:"data,omitempty"`
}

// New builds an event for the given subject, usually an entity id.
func New(eventType, subject, actorID string, data any) Event {
	return Event{
		ID:         uuid.New().String(),
		Type:       eventType,
		Subject:    subject,
		ActorID:    actorID,
		OccurredAt: time.Now().UTC(),
		Data:       data,
	}
}

// Publisher delivers events.
type Publisher interface {
	Publish(ctx context.Context, evt Event) error
	Close() error
}

// Noop discards every event.
type Noop struct{}

func (Noop) Publish(context.Context, Event) error { return nil }
func (Noop) Close() error                         { return nil }

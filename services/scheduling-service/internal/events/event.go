package events

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

type Type string

const (
	AppointmentBooked        Type = "appointment.booked.v1"
	AppointmentStatusChanged Type = "appointment.status_changed.v1"
	AppointmentReminder      Type = "appointment.reminder.v1"
	ServiceCreated           Type = "service.created.v1"
	ServiceDeleted           Type = "service.deleted.v1"
	ScheduleUpdated          Type = "schedule.updated.v1"
	ExceptionUpdated         Type = "exception.updated.v1"
	ClientProfileUpdated     Type = "client.profile_updated.v1"
)

// Event is a domain fact about one tenant. AggregateID is always the company
// id and doubles as the Kafka partition key.
type Event struct {
	ID          string          `json:"event_id"`
	Type        Type            `json:"event_type"`
	AggregateID string          `json:"aggregate_id"`
	OccurredAt  time.Time       `json:"occurred_at"`
	Payload     json.RawMessage `json:"payload"`
}

func New(t Type, aggregateID string, payload any) (Event, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return Event{}, err
	}
	return Event{
		ID:          uuid.NewString(),
		Type:        t,
		AggregateID: aggregateID,
		OccurredAt:  time.Now().UTC(),
		Payload:     raw,
	}, nil
}

// Emitter receives domain events. Emit must not block on slow consumers.
type Emitter interface {
	Emit(ctx context.Context, e Event)
}

// Multi fans one event out to several emitters in order.
type Multi []Emitter

func (m Multi) Emit(ctx context.Context, e Event) {
	for _, em := range m {
		if em != nil {
			em.Emit(ctx, e)
		}
	}
}

type Discard struct{}

func (Discard) Emit(context.Context, Event) {}

package core

import (
	"context"
	"time"
)

type EventKind string

const (
	EventCallTransitioned EventKind = "call.transitioned"
	EventMessageCreated   EventKind = "message.created"
	EventSeatChanged      EventKind = "seat.changed"
)

// Event is a notification about a durable state change, emitted only after
// the Record Store accepted it.
type Event struct {
	Kind       EventKind `json:"kind"`
	OccurredAt time.Time `json:"occurredAt"`
	Payload    any       `json:"payload"`
}

// EventPublisher fans durable changes out to other systems. Delivery is best effort.
type EventPublisher interface {
	Publish(ctx context.Context, ev Event) error
}

type NopPublisher struct{}

func (NopPublisher) Publish(context.Context, Event) error { return nil }

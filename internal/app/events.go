package app

import (
	"context"
	"time"

	"github.com/dkeye/Relay/internal/core"
	"github.com/dkeye/Relay/internal/domain"
	"github.com/rs/zerolog/log"
)

type CallTransition struct {
	Call *domain.Call      `json:"call"`
	From domain.CallStatus `json:"from,omitempty"`
}

type SeatChange struct {
	Seat *domain.Seat `json:"seat"`
}

// publish never fails the caller; the store already holds the change.
func publish(ctx context.Context, pub core.EventPublisher, kind core.EventKind, payload any) {
	if pub == nil {
		return
	}
	ev := core.Event{Kind: kind, OccurredAt: time.Now().UTC(), Payload: payload}
	if err := pub.Publish(ctx, ev); err != nil {
		log.Warn().Err(err).Str("module", "app.events").Str("kind", string(kind)).Msg("publish failed")
	}
}

package orch

import (
	"context"
	"encoding/json"

	"github.com/dkeye/Relay/internal/core"
	"github.com/dkeye/Relay/internal/domain"
	"github.com/rs/zerolog/log"
)

type seatFrame struct {
	Type string       `json:"type"`
	Seat *domain.Seat `json:"seat"`
}

func (o *Orchestrator) OnMessage(ctx context.Context, cid core.ConnectionID, content string) (*domain.Message, error) {
	msg, res, err := o.Messages.Send(ctx, cid, content)
	if err != nil {
		return nil, err
	}
	o.applyPolicy(res)
	return msg, nil
}

func (o *Orchestrator) OnClaimSeat(ctx context.Context, cid core.ConnectionID, id domain.SeatID) (*domain.Seat, error) {
	uid, ok := o.Registry.Resolve(cid)
	if !ok {
		return nil, domain.ErrUnauthorized
	}
	return o.ClaimSeat(ctx, uid, id)
}

func (o *Orchestrator) OnReleaseSeat(ctx context.Context, cid core.ConnectionID, id domain.SeatID) (*domain.Seat, error) {
	if _, ok := o.Registry.Resolve(cid); !ok {
		return nil, domain.ErrUnauthorized
	}
	return o.ReleaseSeat(ctx, id)
}

// ClaimSeat and ReleaseSeat are shared by both transports so every seat change
// reaches the registered connections.
func (o *Orchestrator) ClaimSeat(ctx context.Context, uid domain.UserID, id domain.SeatID) (*domain.Seat, error) {
	seat, err := o.Seats.Claim(ctx, id, uid)
	if err != nil {
		return nil, err
	}
	o.broadcastSeat(seat)
	return seat, nil
}

func (o *Orchestrator) ReleaseSeat(ctx context.Context, id domain.SeatID) (*domain.Seat, error) {
	seat, err := o.Seats.Release(ctx, id)
	if err != nil {
		return nil, err
	}
	o.broadcastSeat(seat)
	return seat, nil
}

func (o *Orchestrator) broadcastSeat(seat *domain.Seat) {
	frame, err := json.Marshal(seatFrame{Type: "seat-updated", Seat: seat})
	if err != nil {
		log.Error().Err(err).Str("module", "orch").Msg("seat frame marshal")
		return
	}
	o.applyPolicy(o.Messages.Broadcast(frame))
}

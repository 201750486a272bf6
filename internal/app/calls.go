package app

import (
	"context"
	"time"

	"github.com/dkeye/Relay/internal/core"
	"github.com/dkeye/Relay/internal/domain"
	"github.com/rs/zerolog/log"
)

const DefaultCallListLimit = 50

// CallManager drives calls through pending -> active -> ended. The store is
// the only copy of call state; every transition is a compare-and-set on the
// current status, so concurrent enders produce a single write.
type CallManager struct {
	store core.CallStore
	pub   core.EventPublisher
	now   func() time.Time
}

func NewCallManager(store core.CallStore, pub core.EventPublisher) *CallManager {
	if pub == nil {
		pub = core.NopPublisher{}
	}
	return &CallManager{store: store, pub: pub, now: time.Now}
}

func (m *CallManager) Initiate(ctx context.Context, caller, receiver domain.UserID) (*domain.Call, error) {
	call, err := domain.NewCall(caller, receiver, m.now())
	if err != nil {
		return nil, err
	}
	if err := m.store.InsertCall(ctx, call); err != nil {
		return nil, err
	}
	log.Info().Str("module", "app.calls").
		Uint64("call", uint64(call.ID)).
		Stringer("caller", caller).
		Stringer("receiver", receiver).
		Msg("call initiated")
	publish(ctx, m.pub, core.EventCallTransitioned, CallTransition{Call: call})
	return call, nil
}

func (m *CallManager) Activate(ctx context.Context, id domain.CallID) (*domain.Call, error) {
	return m.Transition(ctx, id, domain.CallActive)
}

func (m *CallManager) End(ctx context.Context, id domain.CallID) (*domain.Call, error) {
	return m.Transition(ctx, id, domain.CallEnded)
}

// Transition moves the call to status. Illegal or already-applied transitions
// leave the call untouched and return it without error.
func (m *CallManager) Transition(ctx context.Context, id domain.CallID, status domain.CallStatus) (*domain.Call, error) {
	if !status.Valid() {
		return nil, domain.ErrInvalidStatus
	}
	call, err := m.store.FindCall(ctx, id)
	if err != nil {
		return nil, err
	}
	from := call.Status
	if err := domain.CanTransition(from, status); err != nil {
		log.Debug().Str("module", "app.calls").
			Uint64("call", uint64(id)).
			Str("from", string(from)).
			Str("to", string(status)).
			Msg("transition ignored")
		return call, nil
	}

	var endedAt *time.Time
	if status == domain.CallEnded {
		t := m.now().UTC()
		endedAt = &t
	}
	written, err := m.store.SetCallStatus(ctx, id, domain.Sources(status), status, endedAt)
	if err != nil {
		log.Error().Err(err).Str("module", "app.calls").Uint64("call", uint64(id)).Msg("transition not persisted")
		return nil, err
	}
	if !written {
		// Another writer moved the call first.
		return m.store.FindCall(ctx, id)
	}

	call.Status = status
	call.EndedAt = endedAt
	log.Info().Str("module", "app.calls").
		Uint64("call", uint64(id)).
		Str("from", string(from)).
		Str("to", string(status)).
		Msg("call transitioned")
	publish(ctx, m.pub, core.EventCallTransitioned, CallTransition{Call: call, From: from})
	return call, nil
}

func (m *CallManager) Get(ctx context.Context, id domain.CallID) (*domain.Call, error) {
	return m.store.FindCall(ctx, id)
}

func (m *CallManager) List(ctx context.Context, uid domain.UserID, limit int) ([]domain.Call, error) {
	if limit <= 0 || limit > DefaultCallListLimit {
		limit = DefaultCallListLimit
	}
	return m.store.ListCalls(ctx, uid, limit)
}

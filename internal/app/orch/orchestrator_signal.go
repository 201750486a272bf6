package orch

import (
	"context"

	"github.com/dkeye/Relay/internal/app"
	"github.com/dkeye/Relay/internal/core"
	"github.com/dkeye/Relay/internal/domain"
	"github.com/rs/zerolog/log"
)

// OnSignal advances the named call when the signal implies a transition and
// the sender takes part in it, then relays the signal. The relay happens even when the transition fails; the
// returned error only concerns the call.
func (o *Orchestrator) OnSignal(ctx context.Context, from core.ConnectionID, sig app.Signal) error {
	var callErr error
	if sig.CallID != nil && (sig.Kind == app.SignalAnswer || sig.Kind == app.SignalCallEnded) {
		callErr = o.advanceCall(ctx, from, sig)
	}

	res, err := o.Router.Relay(from, sig)
	if err != nil {
		return err
	}
	o.applyPolicy(res)
	return callErr
}

func (o *Orchestrator) advanceCall(ctx context.Context, from core.ConnectionID, sig app.Signal) error {
	uid, ok := o.Registry.Resolve(from)
	if !ok {
		return domain.ErrUnauthorized
	}
	call, err := o.Calls.Get(ctx, *sig.CallID)
	if err != nil {
		return err
	}
	if !mayAdvance(call, uid, sig.Kind) {
		log.Warn().Str("module", "orch").
			Str("cid", string(from)).
			Uint64("call", uint64(call.ID)).
			Str("kind", string(sig.Kind)).
			Msg("sender is not allowed to advance call")
		return domain.ErrUnauthorized
	}

	switch sig.Kind {
	case app.SignalAnswer:
		_, err = o.Calls.Activate(ctx, *sig.CallID)
	case app.SignalCallEnded:
		_, err = o.Calls.End(ctx, *sig.CallID)
	}
	if err != nil {
		log.Warn().Err(err).Str("module", "orch").
			Str("cid", string(from)).
			Uint64("call", uint64(*sig.CallID)).
			Msg("call transition failed")
	}
	return err
}

// mayAdvance: only the receiver answers, either participant ends.
func mayAdvance(call *domain.Call, uid domain.UserID, kind app.SignalKind) bool {
	switch kind {
	case app.SignalAnswer:
		return call.ReceiverID == uid
	case app.SignalCallEnded:
		return call.Participant(uid)
	}
	return false
}

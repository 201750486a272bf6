package app

import (
	"encoding/json"
	"errors"

	"github.com/dkeye/Relay/internal/core"
	"github.com/dkeye/Relay/internal/domain"
	"github.com/rs/zerolog/log"
)

type SignalKind string

const (
	SignalOffer        SignalKind = "offer"
	SignalAnswer       SignalKind = "answer"
	SignalICECandidate SignalKind = "ice-candidate"
	SignalCallEnded    SignalKind = "call-ended"
)

func (k SignalKind) Valid() bool {
	switch k {
	case SignalOffer, SignalAnswer, SignalICECandidate, SignalCallEnded:
		return true
	}
	return false
}

// Signal is a negotiation message addressed by the sender to another connection.
// Payload is never inspected.
type Signal struct {
	Kind    SignalKind
	Target  core.ConnectionID
	Payload json.RawMessage
	CallID  *domain.CallID
}

// relayedSignal is what the target receives.
type relayedSignal struct {
	Type    SignalKind        `json:"type"`
	From    core.ConnectionID `json:"from"`
	Payload json.RawMessage   `json:"payload,omitempty"`
	CallID  *domain.CallID    `json:"callId,omitempty"`
}

var ErrUnknownSignal = errors.New("unknown signal kind")

// SignalRouter forwards negotiation messages between registered connections.
// Delivery is best effort: a missing or saturated target is not an error.
type SignalRouter struct {
	reg *Registry
}

func NewSignalRouter(reg *Registry) *SignalRouter {
	return &SignalRouter{reg: reg}
}

func (r *SignalRouter) Relay(from core.ConnectionID, sig Signal) (core.PublishResult, error) {
	var res core.PublishResult
	if !sig.Kind.Valid() {
		return res, ErrUnknownSignal
	}

	target, ok := r.reg.Target(sig.Target)
	if !ok {
		log.Debug().Str("module", "app.router").
			Str("from", string(from)).
			Str("target", string(sig.Target)).
			Str("kind", string(sig.Kind)).
			Msg("target not registered, dropping signal")
		return res, nil
	}

	frame, err := json.Marshal(relayedSignal{
		Type:    sig.Kind,
		From:    from,
		Payload: sig.Payload,
		CallID:  sig.CallID,
	})
	if err != nil {
		return res, err
	}

	if err := target.TrySend(frame); err != nil {
		log.Debug().Err(err).Str("module", "app.router").
			Str("target", string(sig.Target)).
			Msg("signal not delivered")
		res.Dropped = append(res.Dropped, sig.Target)
		return res, nil
	}
	res.SendTo = 1
	return res, nil
}

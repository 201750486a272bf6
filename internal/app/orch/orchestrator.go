// Package orch binds the relay components to connection events coming from
// the transports.
package orch

import (
	"context"
	"fmt"

	"github.com/dkeye/Relay/internal/app"
	"github.com/dkeye/Relay/internal/core"
	"github.com/dkeye/Relay/internal/domain"
	"github.com/rs/zerolog/log"
)

type Orchestrator struct {
	Registry *app.Registry
	Router   *app.SignalRouter
	Calls    *app.CallManager
	Seats    *app.SeatCoordinator
	Messages *app.MessageRelay
	Policy   app.Policy

	users core.UserStore
}

func New(store core.RecordStore, pub core.EventPublisher, policy app.Policy) *Orchestrator {
	reg := app.NewRegistry()
	return &Orchestrator{
		Registry: reg,
		Router:   app.NewSignalRouter(reg),
		Calls:    app.NewCallManager(store, pub),
		Seats:    app.NewSeatCoordinator(store, pub),
		Messages: app.NewMessageRelay(store, reg, pub),
		Policy:   policy,
		users:    store,
	}
}

func (o *Orchestrator) OnConnect(cid core.ConnectionID, conn core.SignalConnection) {
	o.Registry.Attach(cid, conn)
	log.Info().Str("module", "orch").Str("cid", string(cid)).Msg("connection opened")
}

// OnRegister binds cid to uid. The user must exist in the Record Store.
func (o *Orchestrator) OnRegister(ctx context.Context, cid core.ConnectionID, uid domain.UserID) error {
	if _, err := o.users.FindUser(ctx, uid); err != nil {
		return fmt.Errorf("register %d: %w", uid, err)
	}
	o.Registry.Register(cid, uid)
	return nil
}

// OnDisconnect must run once per connection, right after the transport closed.
func (o *Orchestrator) OnDisconnect(cid core.ConnectionID) {
	o.Registry.Forget(cid)
	log.Info().Str("module", "orch").Str("cid", string(cid)).Msg("connection closed")
}

// Kick closes the transport of cid; its read loop then reports the disconnect.
func (o *Orchestrator) Kick(cid core.ConnectionID) {
	conn, ok := o.Registry.Conn(cid)
	o.Registry.Forget(cid)
	if ok {
		conn.Close()
	}
	log.Warn().Str("module", "orch").Str("cid", string(cid)).Msg("kicked connection")
}

func (o *Orchestrator) applyPolicy(res core.PublishResult) {
	if o.Policy == nil {
		return
	}
	for _, slow := range res.Dropped {
		switch o.Policy.OnBackPressure(slow) {
		case app.KickConnection:
			o.Kick(slow)
		case app.DropFrame:
			log.Debug().Str("module", "orch").Str("cid", string(slow)).Msg("frame dropped for slow consumer")
		}
	}
}

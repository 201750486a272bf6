package app

import (
	"context"
	"encoding/json"
	"time"

	"github.com/dkeye/Relay/internal/core"
	"github.com/dkeye/Relay/internal/domain"
	"github.com/rs/zerolog/log"
)

const (
	DefaultHistorySize = 50
	MaxHistorySize     = 500
)

type chatFrame struct {
	Type string `json:"type"`
	*domain.Message
}

// MessageRelay persists chat messages and fans the stored record out to
// registered connections.
type MessageRelay struct {
	store core.MessageStore
	reg   *Registry
	pub   core.EventPublisher
	now   func() time.Time
}

func NewMessageRelay(store core.MessageStore, reg *Registry, pub core.EventPublisher) *MessageRelay {
	if pub == nil {
		pub = core.NopPublisher{}
	}
	return &MessageRelay{store: store, reg: reg, pub: pub, now: time.Now}
}

// Send stores content authored by whoever is registered on cid (nobody for an
// unregistered connection) and broadcasts the stored record. Nothing is
// broadcast unless the store accepted the message.
func (r *MessageRelay) Send(ctx context.Context, cid core.ConnectionID, content string) (*domain.Message, core.PublishResult, error) {
	var res core.PublishResult

	var author *domain.UserID
	if uid, ok := r.reg.Resolve(cid); ok {
		author = &uid
	}
	msg, err := domain.NewMessage(author, content, r.now())
	if err != nil {
		return nil, res, err
	}
	if err := r.store.InsertMessage(ctx, msg); err != nil {
		log.Error().Err(err).Str("module", "app.messages").Str("cid", string(cid)).Msg("message not stored")
		return nil, res, err
	}

	frame, err := json.Marshal(chatFrame{Type: "message", Message: msg})
	if err != nil {
		return msg, res, err
	}
	res = r.Broadcast(frame)
	publish(ctx, r.pub, core.EventMessageCreated, msg)
	return msg, res, nil
}

// Broadcast pushes frame to the connections registered right now.
func (r *MessageRelay) Broadcast(frame core.Frame) core.PublishResult {
	var res core.PublishResult
	for _, cid := range r.reg.BroadcastTargets() {
		conn, ok := r.reg.Target(cid)
		if !ok {
			continue
		}
		if err := conn.TrySend(frame); err != nil {
			res.Dropped = append(res.Dropped, cid)
			continue
		}
		res.SendTo++
	}
	return res
}

func (r *MessageRelay) History(ctx context.Context, limit int) ([]domain.Message, error) {
	if limit <= 0 {
		limit = DefaultHistorySize
	}
	if limit > MaxHistorySize {
		limit = MaxHistorySize
	}
	return r.store.RecentMessages(ctx, limit)
}

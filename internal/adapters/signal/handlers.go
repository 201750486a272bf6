package signal

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/dkeye/Relay/internal/app"
	"github.com/dkeye/Relay/internal/core"
	"github.com/dkeye/Relay/internal/domain"
)

const opTimeout = 5 * time.Second

// Error codes sent in {"type":"error","error":<code>}.
const (
	CodeBadPayload   = "bad_payload"
	CodeNotFound     = "not_found"
	CodeConflict     = "conflict"
	CodeUnauthorized = "unauthorized"
	CodeInvalid      = "invalid"
	CodeStoreFailure = "store_failure"
	CodeRateLimited  = "rate_limited"
)

func errorCode(err error) string {
	switch {
	case errors.Is(err, domain.ErrNotFound):
		return CodeNotFound
	case errors.Is(err, domain.ErrConflict):
		return CodeConflict
	case errors.Is(err, domain.ErrUnauthorized):
		return CodeUnauthorized
	case domain.IsValidation(err), errors.Is(err, app.ErrUnknownSignal):
		return CodeInvalid
	default:
		return CodeStoreFailure
	}
}

func (ctl *SignalWSController) handleSignal(ctx context.Context, cid core.ConnectionID, c *WsSignalConn, data []byte) {
	var env struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal(data, &env); err != nil {
		log.Error().Err(err).Str("module", "signal").Msg("bad json")
		ctl.sendError(c, env.Type, CodeBadPayload, "malformed json")
		return
	}

	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	switch env.Type {
	case "register":
		ctl.handleRegister(ctx, cid, c, data)
	case string(app.SignalOffer), string(app.SignalAnswer), string(app.SignalICECandidate), string(app.SignalCallEnded):
		ctl.handleRelay(ctx, cid, c, app.SignalKind(env.Type), data)
	case "message":
		ctl.handleMessage(ctx, cid, c, data)
	case "claim-seat", "release-seat":
		ctl.handleSeat(ctx, cid, c, env.Type, data)
	case "ping":
		ctl.sendJSON(c, map[string]any{"type": "pong"})
	case "whoami":
		ctl.handleWhoAmI(cid, c)
	default:
		log.Warn().Str("module", "signal").Str("type", env.Type).Msg("unknown signal")
		ctl.sendError(c, env.Type, CodeBadPayload, "unknown type")
	}
}

func (ctl *SignalWSController) handleRegister(ctx context.Context, cid core.ConnectionID, c *WsSignalConn, data []byte) {
	var p struct {
		UserID domain.UserID `json:"userId"`
		Token  string        `json:"token"`
	}
	if err := json.Unmarshal(data, &p); err != nil {
		ctl.sendError(c, "register", CodeBadPayload, err.Error())
		return
	}

	uid := p.UserID
	switch {
	case p.Token != "":
		if ctl.Identity == nil {
			ctl.sendError(c, "register", CodeUnauthorized, "token verification unavailable")
			return
		}
		verified, err := ctl.Identity.Verify(p.Token)
		if err != nil {
			log.Info().Err(err).Str("module", "signal").Str("cid", string(cid)).Msg("register rejected")
			ctl.sendError(c, "register", CodeUnauthorized, "invalid token")
			return
		}
		if uid != 0 && uid != verified {
			ctl.sendError(c, "register", CodeUnauthorized, "token does not match userId")
			return
		}
		uid = verified
	case ctl.opts.RequireAuth:
		ctl.sendError(c, "register", CodeUnauthorized, "token required")
		return
	case uid == 0:
		ctl.sendError(c, "register", CodeBadPayload, "userId required")
		return
	}
	ctl.register(ctx, cid, c, uid)
}

func (ctl *SignalWSController) register(ctx context.Context, cid core.ConnectionID, c *WsSignalConn, uid domain.UserID) {
	if err := ctl.Orch.OnRegister(ctx, cid, uid); err != nil {
		ctl.reject(c, "register", err)
		return
	}
	ctl.sendJSON(c, map[string]any{
		"type":         "registered",
		"connectionId": cid,
		"userId":       uid,
	})
}

func (ctl *SignalWSController) handleRelay(ctx context.Context, cid core.ConnectionID, c *WsSignalConn, kind app.SignalKind, data []byte) {
	var p struct {
		Target  core.ConnectionID `json:"target"`
		Payload json.RawMessage   `json:"payload"`
		CallID  *domain.CallID    `json:"callId"`
	}
	if err := json.Unmarshal(data, &p); err != nil || p.Target == "" {
		ctl.sendError(c, string(kind), CodeBadPayload, "target required")
		return
	}
	if !ctl.allow(ctx, cid, c, string(kind)) {
		return
	}

	err := ctl.Orch.OnSignal(ctx, cid, app.Signal{
		Kind:    kind,
		Target:  p.Target,
		Payload: p.Payload,
		CallID:  p.CallID,
	})
	if err != nil {
		ctl.reject(c, string(kind), err)
	}
}

func (ctl *SignalWSController) handleMessage(ctx context.Context, cid core.ConnectionID, c *WsSignalConn, data []byte) {
	var p struct {
		Content string `json:"content"`
	}
	if err := json.Unmarshal(data, &p); err != nil {
		ctl.sendError(c, "message", CodeBadPayload, err.Error())
		return
	}
	if !ctl.allow(ctx, cid, c, "message") {
		return
	}
	if _, err := ctl.Orch.OnMessage(ctx, cid, p.Content); err != nil {
		ctl.reject(c, "message", err)
	}
}

func (ctl *SignalWSController) handleSeat(ctx context.Context, cid core.ConnectionID, c *WsSignalConn, typ string, data []byte) {
	var p struct {
		SeatID domain.SeatID `json:"seatId"`
	}
	if err := json.Unmarshal(data, &p); err != nil || p.SeatID == 0 {
		ctl.sendError(c, typ, CodeBadPayload, "seatId required")
		return
	}

	var err error
	if typ == "claim-seat" {
		_, err = ctl.Orch.OnClaimSeat(ctx, cid, p.SeatID)
	} else {
		_, err = ctl.Orch.OnReleaseSeat(ctx, cid, p.SeatID)
	}
	if err != nil {
		ctl.reject(c, typ, err)
	}
}

func (ctl *SignalWSController) handleWhoAmI(cid core.ConnectionID, c *WsSignalConn) {
	resp := struct {
		Type         string            `json:"type"`
		ConnectionID core.ConnectionID `json:"connectionId"`
		UserID       *domain.UserID    `json:"userId,omitempty"`
	}{
		Type:         "whoami",
		ConnectionID: cid,
	}
	if uid, ok := ctl.Orch.Registry.Resolve(cid); ok {
		resp.UserID = &uid
	}
	ctl.sendJSON(c, resp)
}

func (ctl *SignalWSController) sendHistory(ctx context.Context, c *WsSignalConn) {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()
	msgs, err := ctl.Orch.Messages.History(ctx, ctl.opts.HistorySize)
	if err != nil {
		log.Error().Err(err).Str("module", "signal").Msg("history load")
		return
	}
	if msgs == nil {
		msgs = []domain.Message{}
	}
	ctl.sendJSON(c, map[string]any{"type": "history", "messages": msgs})
}

func (ctl *SignalWSController) allow(ctx context.Context, cid core.ConnectionID, c *WsSignalConn, typ string) bool {
	if ctl.Limiter.Allow(ctx, string(cid)) {
		return true
	}
	ctl.sendError(c, typ, CodeRateLimited, "slow down")
	return false
}

func (ctl *SignalWSController) reject(c *WsSignalConn, typ string, err error) {
	code := errorCode(err)
	msg := err.Error()
	if code == CodeStoreFailure {
		log.Error().Err(err).Str("module", "signal").Str("request", typ).Msg("request failed")
		msg = "internal error"
	}
	ctl.sendError(c, typ, code, msg)
}

func (ctl *SignalWSController) sendError(c *WsSignalConn, typ, code, msg string) {
	resp := map[string]any{
		"type":  "error",
		"error": code,
	}
	if msg != "" {
		resp["message"] = msg
	}
	if typ != "" {
		resp["request"] = typ
	}
	ctl.sendJSON(c, resp)
}

// Package signal is the websocket transport of the relay: one read loop and
// one write loop per connection, JSON envelopes keyed by "type".
package signal

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"github.com/dkeye/Relay/internal/app/orch"
	"github.com/dkeye/Relay/internal/core"
	"github.com/dkeye/Relay/internal/domain"
	"github.com/dkeye/Relay/internal/ratelimit"
)

// ContextUserKey is the gin context key under which the HTTP layer stores a
// user id it already verified.
const ContextUserKey = "user_id"

const writeWait = 5 * time.Second

var (
	ErrBackpressure = errors.New("backpressure")
	ErrClosed       = errors.New("connection closed")
)

type Options struct {
	ReadLimit   int64
	PingPeriod  time.Duration
	SendBuffer  int
	HistorySize int
	// RequireAuth rejects register requests that carry no token.
	RequireAuth bool
}

type SignalWSController struct {
	Orch     *orch.Orchestrator
	Identity core.Identity
	Limiter  ratelimit.Limiter
	opts     Options
}

func NewSignalWSController(o *orch.Orchestrator, id core.Identity, limiter ratelimit.Limiter, opts Options) *SignalWSController {
	if opts.SendBuffer <= 0 {
		opts.SendBuffer = 32
	}
	if opts.PingPeriod <= 0 {
		opts.PingPeriod = 54 * time.Second
	}
	if opts.ReadLimit <= 0 {
		opts.ReadLimit = 32768
	}
	if limiter == nil {
		limiter = ratelimit.Unlimited{}
	}
	return &SignalWSController{Orch: o, Identity: id, Limiter: limiter, opts: opts}
}

type WsSignalConn struct {
	conn *websocket.Conn
	send chan core.Frame

	mu     sync.RWMutex
	closed bool
}

func (c *WsSignalConn) TrySend(f core.Frame) error {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.closed {
		return ErrClosed
	}
	select {
	case c.send <- f:
	default:
		return ErrBackpressure
	}
	return nil
}

func (c *WsSignalConn) Close() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	close(c.send)
	_ = c.conn.Close()
	c.mu.Unlock()
}

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

func (ctl *SignalWSController) HandleSignal(ctx context.Context, c *gin.Context) {
	ws, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Error().Err(err).Str("module", "signal").Msg("ws upgrade")
		return
	}

	cid := core.ConnectionID(uuid.NewString())
	log.Info().Str("module", "signal").Str("cid", string(cid)).Msg("new WS connection")

	conn := &WsSignalConn{
		conn: ws,
		send: make(chan core.Frame, ctl.opts.SendBuffer),
	}
	ctl.Orch.OnConnect(cid, conn)

	ctx, cancel := context.WithCancel(ctx)
	go ctl.writePump(ctx, conn)

	ctl.sendJSON(conn, map[string]any{"type": "hello", "connectionId": cid})
	ctl.sendHistory(ctx, conn)
	if v, ok := c.Get(ContextUserKey); ok {
		if uid, ok := v.(domain.UserID); ok && uid != 0 {
			regCtx, regCancel := context.WithTimeout(ctx, opTimeout)
			ctl.register(regCtx, cid, conn, uid)
			regCancel()
		}
	}

	go ctl.readPump(ctx, cancel, cid, conn)
}

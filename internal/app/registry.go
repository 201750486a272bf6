package app

import (
	"sync"

	"github.com/dkeye/Relay/internal/core"
	"github.com/dkeye/Relay/internal/domain"
	"github.com/rs/zerolog/log"
)

type connEntry struct {
	Conn       core.SignalConnection
	UserID     domain.UserID
	Registered bool
}

// Registry maps live connections to the user bound to them.
// Entries are process-local and never persisted.
type Registry struct {
	mu    sync.RWMutex
	conns map[core.ConnectionID]*connEntry
}

func NewRegistry() *Registry {
	return &Registry{
		conns: make(map[core.ConnectionID]*connEntry),
	}
}

// Attach records the transport handle of a freshly opened connection.
func (r *Registry) Attach(cid core.ConnectionID, conn core.SignalConnection) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if e, ok := r.conns[cid]; ok {
		e.Conn = conn
		return
	}
	r.conns[cid] = &connEntry{Conn: conn}
	log.Debug().Str("module", "app.registry").Str("cid", string(cid)).Msg("attached connection")
}

// Register binds uid to cid, replacing any earlier binding. Unknown ids get
// an entry created on the fly.
func (r *Registry) Register(cid core.ConnectionID, uid domain.UserID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.conns[cid]
	if !ok {
		e = &connEntry{}
		r.conns[cid] = e
	}
	e.UserID = uid
	e.Registered = true
	log.Info().Str("module", "app.registry").Str("cid", string(cid)).Stringer("uid", uid).Msg("registered user")
}

func (r *Registry) Resolve(cid core.ConnectionID) (domain.UserID, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.conns[cid]
	if !ok || !e.Registered {
		return 0, false
	}
	return e.UserID, true
}

// Forget drops the connection. Unknown ids are ignored.
func (r *Registry) Forget(cid core.ConnectionID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.conns[cid]; !ok {
		return
	}
	delete(r.conns, cid)
	log.Info().Str("module", "app.registry").Str("cid", string(cid)).Msg("forgot connection")
}

// BroadcastTargets snapshots every registered connection.
func (r *Registry) BroadcastTargets() []core.ConnectionID {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]core.ConnectionID, 0, len(r.conns))
	for cid, e := range r.conns {
		if e.Registered {
			out = append(out, cid)
		}
	}
	return out
}

// Target returns the live handle of a registered connection.
func (r *Registry) Target(cid core.ConnectionID) (core.SignalConnection, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.conns[cid]
	if !ok || !e.Registered || e.Conn == nil {
		return nil, false
	}
	return e.Conn, true
}

// Conn returns the handle of any attached connection, registered or not.
func (r *Registry) Conn(cid core.ConnectionID) (core.SignalConnection, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.conns[cid]
	if !ok || e.Conn == nil {
		return nil, false
	}
	return e.Conn, true
}

func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.conns)
}

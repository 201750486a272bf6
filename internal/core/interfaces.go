package core

import "github.com/dkeye/Relay/internal/domain"

// Frame is a raw encoded payload pushed to a connection.
type Frame []byte

// ConnectionID identifies one live transport session. Unique per socket.
type ConnectionID string

// SignalConnection abstracts for a system messaging transport
// Owned by the adapter; the adapter must Close() it.
type SignalConnection interface {
	TrySend(Frame) error
	Close()
}

// PublishResult reports delivery stats/backpressure to orchestrator.
type PublishResult struct {
	SendTo  int
	Dropped []ConnectionID
}

// Identity verifies a caller credential and yields a stable user id.
// Fails with domain.ErrUnauthorized.
type Identity interface {
	Verify(credential string) (domain.UserID, error)
}

package app

import "github.com/dkeye/Relay/internal/core"

type BackpressureAction int

const (
	KickConnection BackpressureAction = iota
	DropFrame
)

// Policy decides what happens to a connection whose send queue overflowed
// during a fan-out.
type Policy interface {
	OnBackPressure(cid core.ConnectionID) BackpressureAction
}

type SimplePolicy struct{}

func (SimplePolicy) OnBackPressure(core.ConnectionID) BackpressureAction {
	return KickConnection
}

// LenientPolicy drops the frame and keeps the connection.
type LenientPolicy struct{}

func (LenientPolicy) OnBackPressure(core.ConnectionID) BackpressureAction {
	return DropFrame
}

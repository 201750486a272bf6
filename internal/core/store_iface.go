package core

import (
	"context"
	"time"

	"github.com/dkeye/Relay/internal/domain"
)

// The Record Store is the system of record for users, cars, seats, calls and
// messages. Implementations report domain.ErrNotFound, domain.ErrConflict and
// wrap everything else in domain.ErrStoreFailure.

type UserStore interface {
	CreateUser(ctx context.Context, u *domain.User) error
	FindUser(ctx context.Context, id domain.UserID) (*domain.User, error)
}

type CarStore interface {
	CreateCar(ctx context.Context, c *domain.Car) error
	FindCar(ctx context.Context, id domain.CarID) (*domain.Car, error)
	ListCars(ctx context.Context) ([]domain.Car, error)
}

type SeatStore interface {
	CreateSeat(ctx context.Context, s *domain.Seat) error
	FindSeat(ctx context.Context, id domain.SeatID) (*domain.Seat, error)
	ListSeats(ctx context.Context, car domain.CarID) ([]domain.Seat, error)
	// OccupySeat marks the seat occupied by uid when it is free or already
	// held by uid. It reports false when another user holds it.
	OccupySeat(ctx context.Context, id domain.SeatID, uid domain.UserID) (bool, error)
	VacateSeat(ctx context.Context, id domain.SeatID) error
}

type CallStore interface {
	InsertCall(ctx context.Context, c *domain.Call) error
	FindCall(ctx context.Context, id domain.CallID) (*domain.Call, error)
	ListCalls(ctx context.Context, uid domain.UserID, limit int) ([]domain.Call, error)
	// SetCallStatus moves the call to `to` only while its current status is one
	// of `from`, writing endedAt alongside. It reports whether a row was written.
	SetCallStatus(ctx context.Context, id domain.CallID, from []domain.CallStatus, to domain.CallStatus, endedAt *time.Time) (bool, error)
}

type MessageStore interface {
	InsertMessage(ctx context.Context, m *domain.Message) error
	RecentMessages(ctx context.Context, limit int) ([]domain.Message, error)
}

type RecordStore interface {
	UserStore
	CarStore
	SeatStore
	CallStore
	MessageStore
}

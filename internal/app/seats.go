package app

import (
	"context"
	"fmt"
	"strings"

	"github.com/dkeye/Relay/internal/core"
	"github.com/dkeye/Relay/internal/domain"
	"github.com/rs/zerolog/log"
)

type SeatStore interface {
	core.CarStore
	core.SeatStore
}

// SeatCoordinator guarantees at most one occupant per seat. Exclusivity comes
// from the store's conditional update, not from an in-process lock.
type SeatCoordinator struct {
	store SeatStore
	pub   core.EventPublisher
}

func NewSeatCoordinator(store SeatStore, pub core.EventPublisher) *SeatCoordinator {
	if pub == nil {
		pub = core.NopPublisher{}
	}
	return &SeatCoordinator{store: store, pub: pub}
}

func (c *SeatCoordinator) CreateCar(ctx context.Context, name string) (*domain.Car, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, domain.ErrEmptyName
	}
	car := &domain.Car{Name: name}
	if err := c.store.CreateCar(ctx, car); err != nil {
		return nil, err
	}
	return car, nil
}

func (c *SeatCoordinator) ListCars(ctx context.Context) ([]domain.Car, error) {
	return c.store.ListCars(ctx)
}

func (c *SeatCoordinator) CreateSeat(ctx context.Context, car domain.CarID, number uint32) (*domain.Seat, error) {
	seat, err := domain.NewSeat(car, number)
	if err != nil {
		return nil, err
	}
	if _, err := c.store.FindCar(ctx, car); err != nil {
		return nil, err
	}
	if err := c.store.CreateSeat(ctx, seat); err != nil {
		return nil, err
	}
	return seat, nil
}

func (c *SeatCoordinator) ListSeats(ctx context.Context, car domain.CarID) ([]domain.Seat, error) {
	if _, err := c.store.FindCar(ctx, car); err != nil {
		return nil, err
	}
	return c.store.ListSeats(ctx, car)
}

// Claim gives the seat to uid. Claiming a seat uid already holds succeeds.
func (c *SeatCoordinator) Claim(ctx context.Context, id domain.SeatID, uid domain.UserID) (*domain.Seat, error) {
	won, err := c.store.OccupySeat(ctx, id, uid)
	if err != nil {
		return nil, err
	}
	if !won {
		log.Info().Str("module", "app.seats").Uint64("seat", uint64(id)).Stringer("uid", uid).Msg("seat taken")
		return nil, fmt.Errorf("seat %d: %w", id, domain.ErrConflict)
	}
	seat, err := c.store.FindSeat(ctx, id)
	if err != nil {
		return nil, err
	}
	log.Info().Str("module", "app.seats").Uint64("seat", uint64(id)).Stringer("uid", uid).Msg("seat claimed")
	publish(ctx, c.pub, core.EventSeatChanged, SeatChange{Seat: seat})
	return seat, nil
}

// Release frees the seat whoever holds it.
func (c *SeatCoordinator) Release(ctx context.Context, id domain.SeatID) (*domain.Seat, error) {
	if err := c.store.VacateSeat(ctx, id); err != nil {
		return nil, err
	}
	seat, err := c.store.FindSeat(ctx, id)
	if err != nil {
		return nil, err
	}
	log.Info().Str("module", "app.seats").Uint64("seat", uint64(id)).Msg("seat released")
	publish(ctx, c.pub, core.EventSeatChanged, SeatChange{Seat: seat})
	return seat, nil
}

package store

import (
	"context"

	"github.com/dkeye/Relay/internal/domain"
)

func (s *Store) CreateSeat(ctx context.Context, seat *domain.Seat) error {
	return classify(s.db.WithContext(ctx).Create(seat).Error, "create seat")
}

func (s *Store) FindSeat(ctx context.Context, id domain.SeatID) (*domain.Seat, error) {
	var seat domain.Seat
	if err := s.db.WithContext(ctx).First(&seat, "id = ?", id).Error; err != nil {
		return nil, classify(err, "find seat")
	}
	return &seat, nil
}

func (s *Store) ListSeats(ctx context.Context, car domain.CarID) ([]domain.Seat, error) {
	var seats []domain.Seat
	err := s.db.WithContext(ctx).
		Where("car_id = ?", car).
		Order("number").
		Find(&seats).Error
	if err != nil {
		return nil, classify(err, "list seats")
	}
	return seats, nil
}

// OccupySeat is a single conditional update, so of several concurrent
// claimers exactly one moves a free seat to occupied.
func (s *Store) OccupySeat(ctx context.Context, id domain.SeatID, uid domain.UserID) (bool, error) {
	res := s.db.WithContext(ctx).
		Model(&domain.Seat{}).
		Where("id = ? AND (occupied = ? OR user_id = ?)", id, false, uid).
		Updates(map[string]any{"occupied": true, "user_id": uid})
	if res.Error != nil {
		return false, classify(res.Error, "occupy seat")
	}
	if res.RowsAffected > 0 {
		return true, nil
	}

	// mysql reports zero affected rows for a no-op rewrite, so re-read.
	seat, err := s.FindSeat(ctx, id)
	if err != nil {
		return false, err
	}
	return seat.OccupiedBy(uid), nil
}

func (s *Store) VacateSeat(ctx context.Context, id domain.SeatID) error {
	res := s.db.WithContext(ctx).
		Model(&domain.Seat{}).
		Where("id = ?", id).
		Updates(map[string]any{"occupied": false, "user_id": nil})
	if res.Error != nil {
		return classify(res.Error, "vacate seat")
	}
	if res.RowsAffected == 0 {
		_, err := s.FindSeat(ctx, id)
		return err
	}
	return nil
}

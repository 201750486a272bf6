package store

import (
	"context"

	"github.com/dkeye/Relay/internal/domain"
)

func (s *Store) CreateCar(ctx context.Context, c *domain.Car) error {
	return classify(s.db.WithContext(ctx).Create(c).Error, "create car")
}

func (s *Store) FindCar(ctx context.Context, id domain.CarID) (*domain.Car, error) {
	var c domain.Car
	if err := s.db.WithContext(ctx).First(&c, "id = ?", id).Error; err != nil {
		return nil, classify(err, "find car")
	}
	return &c, nil
}

func (s *Store) ListCars(ctx context.Context) ([]domain.Car, error) {
	var cars []domain.Car
	if err := s.db.WithContext(ctx).Order("id").Find(&cars).Error; err != nil {
		return nil, classify(err, "list cars")
	}
	return cars, nil
}

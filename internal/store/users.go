package store

import (
	"context"

	"github.com/dkeye/Relay/internal/domain"
)

func (s *Store) CreateUser(ctx context.Context, u *domain.User) error {
	return classify(s.db.WithContext(ctx).Create(u).Error, "create user")
}

func (s *Store) FindUser(ctx context.Context, id domain.UserID) (*domain.User, error) {
	var u domain.User
	if err := s.db.WithContext(ctx).First(&u, "id = ?", id).Error; err != nil {
		return nil, classify(err, "find user")
	}
	return &u, nil
}

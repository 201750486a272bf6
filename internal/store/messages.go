package store

import (
	"context"
	"slices"

	"github.com/dkeye/Relay/internal/domain"
)

func (s *Store) InsertMessage(ctx context.Context, m *domain.Message) error {
	return classify(s.db.WithContext(ctx).Create(m).Error, "insert message")
}

// RecentMessages returns up to limit messages, oldest first.
func (s *Store) RecentMessages(ctx context.Context, limit int) ([]domain.Message, error) {
	var msgs []domain.Message
	err := s.db.WithContext(ctx).
		Order("id DESC").
		Limit(limit).
		Find(&msgs).Error
	if err != nil {
		return nil, classify(err, "recent messages")
	}
	slices.Reverse(msgs)
	return msgs, nil
}

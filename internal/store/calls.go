package store

import (
	"context"
	"time"

	"github.com/dkeye/Relay/internal/domain"
)

func (s *Store) InsertCall(ctx context.Context, c *domain.Call) error {
	return classify(s.db.WithContext(ctx).Create(c).Error, "insert call")
}

func (s *Store) FindCall(ctx context.Context, id domain.CallID) (*domain.Call, error) {
	var c domain.Call
	if err := s.db.WithContext(ctx).First(&c, "id = ?", id).Error; err != nil {
		return nil, classify(err, "find call")
	}
	return &c, nil
}

func (s *Store) ListCalls(ctx context.Context, uid domain.UserID, limit int) ([]domain.Call, error) {
	var calls []domain.Call
	err := s.db.WithContext(ctx).
		Where("caller_id = ? OR receiver_id = ?", uid, uid).
		Order("id DESC").
		Limit(limit).
		Find(&calls).Error
	if err != nil {
		return nil, classify(err, "list calls")
	}
	return calls, nil
}

func (s *Store) SetCallStatus(
	ctx context.Context,
	id domain.CallID,
	from []domain.CallStatus,
	to domain.CallStatus,
	endedAt *time.Time,
) (bool, error) {
	updates := map[string]any{"status": to}
	if endedAt != nil {
		updates["ended_at"] = endedAt.UTC()
	}
	res := s.db.WithContext(ctx).
		Model(&domain.Call{}).
		Where("id = ? AND status IN ?", id, from).
		Updates(updates)
	if res.Error != nil {
		return false, classify(res.Error, "set call status")
	}
	return res.RowsAffected > 0, nil
}

package domain

import (
	"strings"
	"time"
	"unicode/utf8"
)

const MaxMessageLen = 4096

type MessageID uint64

// Message is append-only. UserID is nil for messages from unregistered connections.
type Message struct {
	ID        MessageID `gorm:"primaryKey" json:"id"`
	Content   string    `gorm:"type:text;not null" json:"content"`
	UserID    *UserID   `gorm:"index" json:"userId"`
	CreatedAt time.Time `gorm:"not null;index" json:"createdAt"`

	User *User `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"-"`
}

func NewMessage(author *UserID, content string, now time.Time) (*Message, error) {
	if strings.TrimSpace(content) == "" {
		return nil, ErrEmptyMessage
	}
	if len(content) > MaxMessageLen {
		n := MaxMessageLen
		for n > 0 && !utf8.RuneStart(content[n]) {
			n--
		}
		content = content[:n]
	}
	return &Message{Content: content, UserID: author, CreatedAt: now.UTC()}, nil
}

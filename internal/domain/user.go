// Package domain contains entities and their invariants, no transport or storage
package domain

import (
	"errors"
	"strconv"
	"strings"
)

const MaxUsernameLen = 36

var (
	ErrUsernameTooLong = errors.New("username too long")
	ErrUsernameEmpty   = errors.New("username empty")
)

type UserID uint64

func (id UserID) String() string { return strconv.FormatUint(uint64(id), 10) }

// ParseUserID accepts the decimal form used in token subjects.
func ParseUserID(s string) (UserID, error) {
	n, err := strconv.ParseUint(strings.TrimSpace(s), 10, 64)
	if err != nil || n == 0 {
		return 0, ErrUnauthorized
	}
	return UserID(n), nil
}

type User struct {
	ID       UserID `gorm:"primaryKey" json:"id"`
	Username string `gorm:"size:36;not null;uniqueIndex" json:"username"`
}

// NewUser is a tiny helper to avoid ad-hoc struct literals in adapters.
func NewUser(username string) (*User, error) {
	if err := validateUsername(username); err != nil {
		return nil, err
	}
	return &User{Username: username}, nil
}

func validateUsername(username string) error {
	if len(username) == 0 {
		return ErrUsernameEmpty
	}
	if len(username) > MaxUsernameLen {
		return ErrUsernameTooLong
	}
	return nil
}

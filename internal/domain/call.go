package domain

import "time"

type CallID uint64

type CallStatus string

const (
	CallPending CallStatus = "pending"
	CallActive  CallStatus = "active"
	CallEnded   CallStatus = "ended"
)

func (s CallStatus) Valid() bool {
	switch s {
	case CallPending, CallActive, CallEnded:
		return true
	}
	return false
}

// Call is one negotiation session between two users.
// EndedAt is set iff Status is CallEnded.
type Call struct {
	ID         CallID     `gorm:"primaryKey" json:"id"`
	CallerID   UserID     `gorm:"not null;index" json:"callerId"`
	ReceiverID UserID     `gorm:"not null;index" json:"receiverId"`
	Status     CallStatus `gorm:"size:16;not null;index" json:"status"`
	StartedAt  time.Time  `gorm:"not null" json:"startedAt"`
	EndedAt    *time.Time `json:"endedAt,omitempty"`

	Caller   *User `gorm:"foreignKey:CallerID;constraint:OnDelete:CASCADE" json:"-"`
	Receiver *User `gorm:"foreignKey:ReceiverID;constraint:OnDelete:CASCADE" json:"-"`
}

func NewCall(caller, receiver UserID, now time.Time) (*Call, error) {
	if caller == receiver {
		return nil, ErrInvalidCall
	}
	return &Call{
		CallerID:   caller,
		ReceiverID: receiver,
		Status:     CallPending,
		StartedAt:  now.UTC(),
	}, nil
}

// CanTransition reports whether from -> to is one of
// pending->active, pending->ended, active->ended.
func CanTransition(from, to CallStatus) error {
	switch {
	case from == CallPending && to == CallActive:
		return nil
	case (from == CallPending || from == CallActive) && to == CallEnded:
		return nil
	}
	return ErrInvalidTransition
}

// Sources returns the states a call may be in to legally move to the given state.
func Sources(to CallStatus) []CallStatus {
	switch to {
	case CallActive:
		return []CallStatus{CallPending}
	case CallEnded:
		return []CallStatus{CallPending, CallActive}
	}
	return nil
}

func (c *Call) Participant(uid UserID) bool {
	return c.CallerID == uid || c.ReceiverID == uid
}

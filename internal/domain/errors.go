package domain

import "errors"

// Failure taxonomy shared by the core, the store and the adapters.
// Adapters map them to client rejections with errors.Is.
var (
	ErrNotFound          = errors.New("not found")
	ErrConflict          = errors.New("conflict")
	ErrUnauthorized      = errors.New("unauthorized")
	ErrInvalidTransition = errors.New("invalid call transition")
	ErrStoreFailure      = errors.New("store failure")
)

// Validation failures, reported as bad requests.
var (
	ErrInvalidCall   = errors.New("caller and receiver must differ")
	ErrEmptyMessage  = errors.New("message content empty")
	ErrInvalidSeat   = errors.New("seat number must be positive")
	ErrEmptyName     = errors.New("name empty")
	ErrInvalidStatus = errors.New("unknown call status")
)

// IsValidation reports whether err is caused by bad client input.
func IsValidation(err error) bool {
	for _, target := range []error{
		ErrInvalidCall, ErrEmptyMessage, ErrInvalidSeat, ErrEmptyName,
		ErrInvalidStatus, ErrUsernameEmpty, ErrUsernameTooLong,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

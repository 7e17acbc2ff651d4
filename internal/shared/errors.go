package shared

import "errors"

var (
	// ErrValidation indicates missing or malformed input.
	ErrValidation = errors.New("validation failed")
	// ErrUnauthorized indicates a missing or invalid credential.
	ErrUnauthorized = errors.New("unauthorized")
	// ErrForbidden indicates the caller lacks admin rights.
	ErrForbidden = errors.New("forbidden")
	// ErrNotFound indicates a referenced permission, role, user or audit entry is absent.
	ErrNotFound = errors.New("not found")
	// ErrConflict indicates a unique-key violation, e.g. a duplicate email.
	ErrConflict = errors.New("conflict")
	// ErrInvalidOperation indicates an audit entry exists but cannot drive the
	// requested restore: wrong action type or an empty/unusable snapshot.
	ErrInvalidOperation = errors.New("invalid operation")
	// ErrInvalidCredentials indicates login failure.
	ErrInvalidCredentials = errors.New("invalid credentials")
)

// UserSafeMessage returns a message safe to expose to callers. Internal
// failures collapse to a generic string so store detail never leaks.
func UserSafeMessage(err error) string {
	switch {
	case errors.Is(err, ErrValidation),
		errors.Is(err, ErrUnauthorized),
		errors.Is(err, ErrForbidden),
		errors.Is(err, ErrNotFound),
		errors.Is(err, ErrConflict),
		errors.Is(err, ErrInvalidOperation),
		errors.Is(err, ErrInvalidCredentials):
		return err.Error()
	default:
		return "internal error"
	}
}

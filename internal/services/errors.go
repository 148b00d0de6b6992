package services

import (
	"errors"
	"fmt"

	"careops/backend/internal/models"
	"careops/backend/internal/store"
)

var (
	// ErrNotFound is returned when the requested entity does not exist.
	ErrNotFound = errors.New("not found")
	// ErrConflict is returned when a write collides with a unique value.
	ErrConflict = errors.New("conflict")
	// ErrInvalid is returned for input a service refuses to persist.
	ErrInvalid = models.ErrInvalid
	// ErrInvalidCredentials is returned by Authenticate for an unknown email or a wrong password.
	ErrInvalidCredentials = errors.New("invalid email or password")
	// ErrEmailExists is returned when registering an email that is already taken.
	ErrEmailExists = fmt.Errorf("%w: email already registered", ErrConflict)
)

// storeErr translates store sentinels into service errors, naming the entity involved.
func storeErr(err error, entity, id string) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, store.ErrNotFound):
		return fmt.Errorf("%s %s: %w", entity, id, ErrNotFound)
	case errors.Is(err, store.ErrDuplicate):
		return fmt.Errorf("%s: %w", entity, ErrConflict)
	default:
		return fmt.Errorf("%s: %w", entity, err)
	}
}

func invalidf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalid, fmt.Sprintf(format, args...))
}

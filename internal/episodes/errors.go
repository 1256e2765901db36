package episodes

import (
	"errors"
	"fmt"
)

var (
	// ErrStoreUnavailable wraps every database failure.
	ErrStoreUnavailable = errors.New("episode store unavailable")
	// ErrInvalidTitle rejects blank show titles.
	ErrInvalidTitle = errors.New("show title is empty")
	// ErrInvalidSource rejects unknown time sources.
	ErrInvalidSource = errors.New("unknown time source")
)

func unavailable(op string, err error) error {
	return fmt.Errorf("%s: %w: %w", op, ErrStoreUnavailable, err)
}

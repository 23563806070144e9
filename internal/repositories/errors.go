package repositories

import "errors"

var (
	ErrNotFound = errors.New("record not found")
	// ErrStaleAttempt means a conditional save lost the race.
	ErrStaleAttempt = errors.New("attempt changed since it was read")
	// ErrDuplicateAttempt means an insert hit one of the attempt unique indexes.
	ErrDuplicateAttempt = errors.New("attempt already exists")
)

func IsNotFoundError(err error) bool {
	return errors.Is(err, ErrNotFound)
}

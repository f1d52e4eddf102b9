package scheduling

import (
	"errors"
	"fmt"

	"github.com/example/lexibatch/internal/batch"
	"github.com/example/lexibatch/internal/database"
	"github.com/example/lexibatch/internal/selector"
	"github.com/example/lexibatch/internal/spaced_repetition"
)

var (
	ErrInvalidRating       = spaced_repetition.ErrInvalidRating
	ErrInvalidBatchSize    = batch.ErrInvalidBatchSize
	ErrBatchNotFound       = batch.ErrBatchNotFound
	ErrNoBatchReady        = batch.ErrNoBatchReady
	ErrAllBatchesCompleted = batch.ErrAllBatchesCompleted
	ErrSessionFinished     = selector.ErrSessionFinished
	ErrInvalidTransition   = selector.ErrInvalidTransition

	ErrUnauthorized           = errors.New("not authorized")
	ErrDatabaseNotFound       = errors.New("database not found")
	ErrCardNotFound           = errors.New("card not found")
	ErrWordSenseNotFound      = errors.New("word sense not found")
	ErrSessionNotFound        = errors.New("session not found")
	ErrConcurrentModification = errors.New("concurrent modification, retry the request")
	ErrInvalidInput           = errors.New("invalid input")
)

// AuthorizationError is returned when a caller touches another user's data
type AuthorizationError struct {
	UserID   int64
	Resource string
	ID       string
}

func (e *AuthorizationError) Error() string {
	return fmt.Sprintf("user %d may not access %s %s", e.UserID, e.Resource, e.ID)
}

func (e *AuthorizationError) Unwrap() error { return ErrUnauthorized }

// StorageError wraps a failure of the persistence layer
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage: %s: %v", e.Op, e.Err)
}

func (e *StorageError) Unwrap() error { return e.Err }

// storageErr classifies repository errors. Domain errors produced inside a
// transaction callback pass through untouched.
func storageErr(op string, err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, database.ErrConflict):
		return fmt.Errorf("%s: %w", op, ErrConcurrentModification)
	case isDomainError(err):
		return err
	default:
		return &StorageError{Op: op, Err: err}
	}
}

func isDomainError(err error) bool {
	var se *StorageError
	if errors.As(err, &se) {
		return true
	}
	for _, target := range []error{
		ErrInvalidRating, ErrInvalidBatchSize, ErrBatchNotFound, ErrNoBatchReady,
		ErrAllBatchesCompleted, ErrSessionFinished, ErrInvalidTransition, ErrUnauthorized,
		ErrDatabaseNotFound, ErrCardNotFound, ErrWordSenseNotFound, ErrSessionNotFound,
		ErrConcurrentModification, ErrInvalidInput,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

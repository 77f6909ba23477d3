// ABOUTME: Repository interface for blood-pressure storage.
// ABOUTME: Defines the insert/list contract and the storage-unavailable error.
package storage

import (
	"context"
	"errors"
	"fmt"

	"github.com/harperreed/bptrack/internal/models"
	"github.com/harperreed/bptrack/internal/validation"
)

// Repository defines the storage interface for measurements.
// There is no update or delete: records are only ever appended.
type Repository interface {
	// Insert assigns an id and stores the measurement atomically.
	Insert(ctx context.Context, v validation.Validated) (*models.Measurement, error)
	// ListAll returns every measurement, newest date first, same-date ties by id descending.
	ListAll(ctx context.Context) ([]*models.Measurement, error)
	// Count returns the number of stored measurements.
	Count(ctx context.Context) (int, error)

	Close() error
}

// ErrStorageUnavailable is matched by every infrastructure failure from the store.
var ErrStorageUnavailable = errors.New("storage unavailable")

// Error wraps a failed storage operation.
type Error struct {
	Op  string
	Err error
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %v: %v", e.Op, ErrStorageUnavailable, e.Err)
}

func (e *Error) Unwrap() []error {
	return []error{ErrStorageUnavailable, e.Err}
}

func unavailable(op string, err error) error {
	return &Error{Op: op, Err: err}
}

// internal/domain/analytics/errors.go

package analytics

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound indicates a requested row does not exist
	ErrNotFound = errors.New("not found")

	// ErrNoActiveModel indicates no model of the requested type is active
	ErrNoActiveModel = errors.New("no active model")

	// ErrUnsupportedModelType indicates no predictor exists for a model type
	ErrUnsupportedModelType = errors.New("unsupported model type")

	// ErrInvalidInput indicates invalid parameters
	ErrInvalidInput = errors.New("invalid input")

	// ErrEmptyTrainingData indicates a training run received no examples
	ErrEmptyTrainingData = errors.New("empty training data")
)

// StoreError is a persistence failure raised by a storage adapter
type StoreError struct {
	Op  string
	Err error
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("store %s: %v", e.Op, e.Err)
}

func (e *StoreError) Unwrap() error {
	return e.Err
}

// NewStoreError wraps err as a persistence failure of op. A nil err stays nil.
func NewStoreError(op string, err error) error {
	if err == nil {
		return nil
	}
	return &StoreError{Op: op, Err: err}
}

// IsStoreError reports whether err carries a persistence failure
func IsStoreError(err error) bool {
	var se *StoreError
	return errors.As(err, &se)
}

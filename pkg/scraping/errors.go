package scraping

import (
	"errors"
	"fmt"
)

var (
	// ErrUnknownTarget is returned for a DOM alias missing from DomDefs.
	ErrUnknownTarget = errors.New("unknown dom target")
	ErrUnknownMethod = errors.New("unknown operation method")
	ErrClosed        = errors.New("scraping wrapper is closed")
)

// OperationError reports which step of Operate failed.
type OperationError struct {
	Index     int
	Operation Operation
	Err       error
}

func (e *OperationError) Error() string {
	return fmt.Sprintf("operation %d (%s): %v", e.Index, e.Operation, e.Err)
}

func (e *OperationError) Unwrap() error {
	return e.Err
}

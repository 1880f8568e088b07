package content

import (
	"errors"
	"fmt"
)

var (
	ErrMalformedRecord    = errors.New("malformed record")
	ErrNoMorePages        = errors.New("no more pages")
	ErrAlreadyInitialized = errors.New("pagination already initialized")
	ErrNotInitialized     = errors.New("pagination not initialized")
)

// MalformedRecordError is returned when a record lacks a required field.
type MalformedRecordError struct {
	DocumentID string
	Field      string
}

func (e *MalformedRecordError) Error() string {
	if e.DocumentID == "" {
		return fmt.Sprintf("malformed record: missing %s", e.Field)
	}
	return fmt.Sprintf("malformed record %s: missing %s", e.DocumentID, e.Field)
}

func (e *MalformedRecordError) Unwrap() error {
	return ErrMalformedRecord
}

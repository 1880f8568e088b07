package prismic

import (
	"errors"
	"fmt"
)

var (
	ErrTransport        = errors.New("content api transport error")
	ErrDocumentNotFound = errors.New("document not found")
	ErrForeignCursor    = errors.New("cursor does not belong to the configured endpoint")
)

// TransportError reports a failed request to the content API: network
// failure, non-2xx status or an undecodable body.
type TransportError struct {
	Op         string
	StatusCode int
	Err        error
}

func (e *TransportError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("prismic %s: status %d: %v", e.Op, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("prismic %s: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

func (e *TransportError) Is(target error) bool {
	return target == ErrTransport
}

// retryable reports whether repeating the request may help.
func (e *TransportError) retryable() bool {
	if e.StatusCode == 0 || e.StatusCode == 429 {
		return true
	}
	return e.StatusCode >= 500
}

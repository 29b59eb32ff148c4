package transfer

import (
	"errors"
	"fmt"
)

// ErrConnection marks transport-level failures where no HTTP status was
// received.
var ErrConnection = errors.New("transfer: connection error")

// StatusError carries the HTTP status of a rejected request together with
// the server's structured message, if it sent one.
type StatusError struct {
	Code    int
	Status  string
	Message string
}

func (e *StatusError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("server returned %s: %s", e.Status, e.Message)
	}
	return fmt.Sprintf("server returned %s", e.Status)
}

// IsConnection reports whether err is a transport-level failure.
func IsConnection(err error) bool {
	return errors.Is(err, ErrConnection)
}

// StatusCode returns the HTTP status carried by err, or 0.
func StatusCode(err error) int {
	var se *StatusError
	if errors.As(err, &se) {
		return se.Code
	}
	return 0
}

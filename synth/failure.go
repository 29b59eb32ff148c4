package synth

import (
	"errors"
	"net/http"

	"github.com/projecteru2/docup/transfer"
)

// FailureKind classifies why a transfer failed, from the user's point of view.
type FailureKind int

const (
	FailureUnexpected FailureKind = iota
	FailureTooLarge
	FailureUnsupportedType
	FailureConnection
	FailureServer
)

func (k FailureKind) String() string {
	switch k {
	case FailureTooLarge:
		return "too-large"
	case FailureUnsupportedType:
		return "unsupported-type"
	case FailureConnection:
		return "connection"
	case FailureServer:
		return "server"
	default:
		return "unexpected"
	}
}

// Failure is a classified transfer failure.
type Failure struct {
	Kind FailureKind
	// Message is the server-supplied text, only set for FailureServer.
	Message string
	Err     error
}

func (f Failure) Error() string {
	if f.Err == nil {
		return f.Kind.String()
	}
	return f.Err.Error()
}

func (f Failure) Unwrap() error { return f.Err }

// Classify maps a transport failure onto a FailureKind.
func Classify(err error) Failure {
	f := Failure{Kind: FailureUnexpected, Err: err}
	var se *transfer.StatusError
	switch {
	case errors.As(err, &se):
		switch {
		case se.Code == http.StatusRequestEntityTooLarge:
			f.Kind = FailureTooLarge
		case se.Code == http.StatusUnsupportedMediaType:
			f.Kind = FailureUnsupportedType
		case se.Message != "":
			f.Kind = FailureServer
			f.Message = se.Message
		}
	case errors.Is(err, transfer.ErrConnection):
		f.Kind = FailureConnection
	}
	return f
}

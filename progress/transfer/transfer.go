package transfer

import "github.com/projecteru2/docup/types"

// Kind identifies a step in the lifecycle of one outbound upload.
type Kind int

const (
	KindSent      Kind = iota // Request headers written, body about to stream.
	KindBytes                 // Request body bytes handed to the transport.
	KindHeaders               // Response headers received.
	KindBody                  // First response body bytes available.
	KindCompleted             // Response decoded; Result is set.
	KindFailed                // Transfer failed; Err is set.
)

func (k Kind) String() string {
	switch k {
	case KindSent:
		return "sent"
	case KindBytes:
		return "bytes"
	case KindHeaders:
		return "headers"
	case KindBody:
		return "body"
	case KindCompleted:
		return "completed"
	case KindFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// UnknownTotal marks a BytesProgress event whose transport cannot report
// the request size.
const UnknownTotal int64 = -1

// Event describes a single transfer progress update.
type Event struct {
	TransferID string
	Kind       Kind
	Loaded     int64               // Bytes sent so far (KindBytes only).
	Total      int64               // Request size; UnknownTotal if not known.
	Result     *types.UploadResult // KindCompleted only.
	Err        error               // KindFailed only.
}

// TotalKnown reports whether the event carries a usable denominator.
func (e Event) TotalKnown() bool { return e.Total > 0 }

// Terminal reports whether the event ends the transfer.
func (e Event) Terminal() bool { return e.Kind == KindCompleted || e.Kind == KindFailed }

func Sent(id string) Event    { return Event{TransferID: id, Kind: KindSent} }
func Headers(id string) Event { return Event{TransferID: id, Kind: KindHeaders} }
func Body(id string) Event    { return Event{TransferID: id, Kind: KindBody} }

func Bytes(id string, loaded, total int64) Event {
	return Event{TransferID: id, Kind: KindBytes, Loaded: loaded, Total: total}
}

func Completed(id string, result *types.UploadResult) Event {
	return Event{TransferID: id, Kind: KindCompleted, Result: result}
}

func Failed(id string, err error) Event {
	return Event{TransferID: id, Kind: KindFailed, Err: err}
}

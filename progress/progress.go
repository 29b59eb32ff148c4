package progress

// Tracker receives progress events during a document transfer.
// Implementations must be safe for concurrent use from multiple goroutines.
type Tracker interface {
	OnEvent(any)
}

// NewTracker creates a Tracker from a typed callback function.
// Events of any other type are ignored, so one transport can feed
// trackers that only care about a subset of what it emits.
func NewTracker[E any](fn func(E)) Tracker {
	return funcTracker(func(v any) {
		if e, ok := v.(E); ok {
			fn(e)
		}
	})
}

type funcTracker func(any)

func (f funcTracker) OnEvent(e any) { f(e) }

// Multi returns a Tracker that forwards every event to each tracker in order.
func Multi(trackers ...Tracker) Tracker {
	return funcTracker(func(e any) {
		for _, t := range trackers {
			t.OnEvent(e)
		}
	})
}

// Nop is a no-op tracker for callers that don't need progress.
var Nop Tracker = funcTracker(func(any) {})

package synth

import (
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	units "github.com/docker/go-units"

	"github.com/projecteru2/docup/progress"
	transferProgress "github.com/projecteru2/docup/progress/transfer"
	"github.com/projecteru2/docup/types"
)

// compile-time interface check.
var _ progress.Tracker = (*Synthesizer)(nil)

// Synthesizer turns the few events a client can observe about an upload into
// a monotonic, phase-labeled progress timeline. One Synthesizer serves one
// logical upload slot; starting a new transfer supersedes the previous one.
//
// Observers are called synchronously, in transition order. They may call
// Snapshot, but must not feed events back into the Synthesizer from the
// callback.
type Synthesizer struct {
	bands     Bands
	catalog   *Catalog
	now       func() time.Time
	newTicker TickerFunc

	mu    sync.Mutex
	state *state

	// dispatch is taken before mu is released so that publication order
	// matches transition order.
	dispatch sync.Mutex
	latest   atomic.Pointer[view]
	hub      progress.Broadcaster[Snapshot]
}

// state is the SynthesisState of one in-flight transfer.
type state struct {
	id      string
	phase   Phase
	pct     int
	message string
	started time.Time
	result  *types.UploadResult
	failure *Failure
	sim     *simulation
}

// Option configures a Synthesizer.
type Option func(*Synthesizer)

// WithBands replaces the default banding policy.
func WithBands(b Bands) Option {
	return func(s *Synthesizer) { s.bands = b }
}

// WithLocale selects the message catalog.
func WithLocale(locale string) Option {
	return func(s *Synthesizer) { s.catalog = CatalogFor(locale) }
}

// WithClock overrides the time source used for start stamps and estimates.
func WithClock(now func() time.Time) Option {
	return func(s *Synthesizer) { s.now = now }
}

// WithTicker overrides the ticker factory driving the free-run simulation.
func WithTicker(fn TickerFunc) Option {
	return func(s *Synthesizer) { s.newTicker = fn }
}

// New creates an idle Synthesizer.
func New(opts ...Option) *Synthesizer {
	s := &Synthesizer{
		bands:     DefaultBands(),
		catalog:   english,
		now:       time.Now,
		newTicker: NewStdTicker,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.latest.Store(&view{phase: PhasePreparing, catalog: s.catalog, estAfter: s.bands.EstimateAfter})
	return s
}

// Catalog returns the message catalog in use.
func (s *Synthesizer) Catalog() *Catalog { return s.catalog }

// Subscribe registers fn for every state change and returns a function that
// removes it. New subscribers do not receive the current snapshot.
func (s *Synthesizer) Subscribe(fn func(Snapshot)) func() {
	return s.hub.Subscribe(fn)
}

// Snapshot returns the current progress. The estimate is recomputed on
// every call.
func (s *Synthesizer) Snapshot() Snapshot {
	return s.latest.Load().snapshot(s.now())
}

// Start begins tracking transferID, superseding any previous transfer,
// including one with the same id. A tick of the old transfer that was
// already publishing may still reach observers ahead of the Preparing
// snapshot; once Start returns, nothing of the old transfer is published.
func (s *Synthesizer) Start(transferID string) {
	s.mu.Lock()
	if s.state != nil {
		s.stopSimulation(s.state)
	}
	s.state = &state{
		id:      transferID,
		phase:   PhasePreparing,
		message: s.catalog.Preparing,
		started: s.now(),
	}
	s.commit()
}

// Stop cancels any running simulation without publishing. The current
// state stays readable through Snapshot.
func (s *Synthesizer) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != nil {
		s.stopSimulation(s.state)
	}
}

// OnEvent implements progress.Tracker.
func (s *Synthesizer) OnEvent(e any) {
	if ev, ok := e.(transferProgress.Event); ok {
		s.OnTransferEvent(ev)
	}
}

// OnTransferEvent applies one transfer event. Events for another transfer,
// events after a terminal phase, and late events that would move the phase
// backwards are dropped without publishing.
func (s *Synthesizer) OnTransferEvent(ev transferProgress.Event) {
	s.mu.Lock()
	st := s.state
	if st == nil || st.id != ev.TransferID || st.phase.Terminal() {
		s.mu.Unlock()
		return
	}

	b := s.bands
	switch ev.Kind {
	case transferProgress.KindSent:
		if st.phase > PhaseUploading {
			s.mu.Unlock()
			return
		}
		st.phase = PhaseUploading
		st.pct = max(st.pct, b.Sent)
		st.message = s.catalog.UploadStarted

	case transferProgress.KindBytes:
		if st.phase > PhaseUploading {
			s.mu.Unlock()
			return
		}
		st.phase = PhaseUploading
		if ev.TotalKnown() {
			st.pct = max(st.pct, b.uploadPercent(ev.Loaded, ev.Total))
			ratio := min(float64(ev.Loaded)/float64(ev.Total), 1)
			st.message = fmt.Sprintf(s.catalog.UploadPercent, int(ratio*100+0.5))
		} else {
			st.message = fmt.Sprintf(s.catalog.UploadBytes, units.HumanSize(float64(ev.Loaded)))
		}

	case transferProgress.KindHeaders:
		if st.phase >= PhaseSecurityScan {
			s.mu.Unlock()
			return
		}
		st.phase = PhaseSecurityScan
		st.pct = max(st.pct, b.Headers)
		st.message = stage(s.catalog.Scan, st.pct, b.Headers, b.ScanCeiling)
		s.startSimulation(st)

	case transferProgress.KindBody:
		s.stopSimulation(st)
		st.phase = PhaseRecognition
		st.pct = max(st.pct, b.Body)
		st.message = s.catalog.Receiving

	case transferProgress.KindCompleted:
		st.result = ev.Result
		s.finish(st, PhaseComplete, s.catalog.Completed)

	case transferProgress.KindFailed:
		f := Classify(ev.Err)
		st.failure = &f
		s.finish(st, PhaseError, s.catalog.FailureMessage(f))

	default:
		s.mu.Unlock()
		return
	}
	s.commit()
}

// finish is the only way into a terminal phase. Complete pins the
// percentage to 100; Error freezes it.
func (s *Synthesizer) finish(st *state, phase Phase, message string) {
	s.stopSimulation(st)
	st.phase = phase
	st.message = message
	if phase == PhaseComplete {
		st.pct = Complete
	}
}

func (s *Synthesizer) startSimulation(st *state) {
	s.stopSimulation(st)
	sim := newSimulation()
	st.sim = sim
	go s.run(st, sim, s.newTicker(s.bands.ScanTick))
}

func (s *Synthesizer) stopSimulation(st *state) {
	if st.sim != nil {
		st.sim.cancel()
		st.sim = nil
	}
}

// commit publishes the current state and releases s.mu, which must be held.
func (s *Synthesizer) commit() {
	st := s.state
	v := &view{
		id:       st.id,
		phase:    st.phase,
		pct:      st.pct,
		message:  st.message,
		started:  st.started,
		result:   st.result,
		failure:  st.failure,
		catalog:  s.catalog,
		estAfter: s.bands.EstimateAfter,
	}
	s.latest.Store(v)
	snap := v.snapshot(s.now())

	s.dispatch.Lock()
	s.mu.Unlock()
	defer s.dispatch.Unlock()
	s.hub.Publish(snap)
}

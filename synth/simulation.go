package synth

import (
	"sync"
	"time"
)

// Ticker is the periodic clock driving a free-run simulation.
type Ticker interface {
	C() <-chan time.Time
	Reset(d time.Duration)
	Stop()
}

// TickerFunc creates a Ticker firing every d.
type TickerFunc func(d time.Duration) Ticker

type stdTicker struct{ t *time.Ticker }

func (s stdTicker) C() <-chan time.Time   { return s.t.C }
func (s stdTicker) Reset(d time.Duration) { s.t.Reset(d) }
func (s stdTicker) Stop()                 { s.t.Stop() }

// NewStdTicker wraps time.NewTicker.
func NewStdTicker(d time.Duration) Ticker { return stdTicker{time.NewTicker(d)} }

// simulation is the cancellable handle of one free-run loop. It is owned by
// exactly one state; a tick only applies while the state still points at it.
type simulation struct {
	stop chan struct{}
	once sync.Once
}

func newSimulation() *simulation {
	return &simulation{stop: make(chan struct{})}
}

func (sim *simulation) cancel() {
	sim.once.Do(func() { close(sim.stop) })
}

// run drives sim until it is cancelled or tick asks to stop.
func (s *Synthesizer) run(st *state, sim *simulation, t Ticker) {
	defer t.Stop()
	for {
		select {
		case <-sim.stop:
			return
		case <-t.C():
			next, more := s.tick(st, sim)
			if !more {
				return
			}
			if next > 0 {
				t.Reset(next)
			}
		}
	}
}

// tick advances the free-run by one step. It returns a new tick interval
// when the simulation changes pace, and false once the loop should end.
func (s *Synthesizer) tick(st *state, sim *simulation) (time.Duration, bool) {
	s.mu.Lock()
	if s.state != st || st.sim != sim {
		s.mu.Unlock()
		return 0, false
	}

	b := s.bands
	var next time.Duration
	more := true
	switch st.phase {
	case PhaseSecurityScan:
		st.pct = min(st.pct+b.ScanStep, b.ScanCeiling)
		if st.pct >= b.ScanCeiling {
			st.phase = PhaseRecognition
			st.message = stage(s.catalog.Recognition, st.pct, b.ScanCeiling, b.RecognitionCeiling)
			next = b.RecognitionTick
		} else {
			st.message = stage(s.catalog.Scan, st.pct, b.Headers, b.ScanCeiling)
		}
	case PhaseRecognition:
		st.pct = min(st.pct+b.RecognitionStep, b.RecognitionCeiling)
		if st.pct >= b.RecognitionCeiling {
			// Hold here until the server answers.
			st.message = s.catalog.Finishing
			s.stopSimulation(st)
			more = false
		} else {
			st.message = stage(s.catalog.Recognition, st.pct, b.ScanCeiling, b.RecognitionCeiling)
		}
	default:
		s.mu.Unlock()
		return 0, false
	}
	s.commit()
	return next, more
}

// stage picks the sub-phase message matching pct's position in [from, to).
func stage(messages []string, pct, from, to int) string {
	if len(messages) == 0 {
		return ""
	}
	if to <= from || pct <= from {
		return messages[0]
	}
	idx := (pct - from) * len(messages) / (to - from)
	return messages[min(idx, len(messages)-1)]
}

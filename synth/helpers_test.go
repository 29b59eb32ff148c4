package synth

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

const waitFor = 2 * time.Second

// manualTicker only fires when the test calls tick.
type manualTicker struct {
	c chan time.Time

	mu      sync.Mutex
	resets  []time.Duration
	stopped bool
}

func (m *manualTicker) C() <-chan time.Time { return m.c }

func (m *manualTicker) Reset(d time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.resets = append(m.resets, d)
}

func (m *manualTicker) Stop() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.stopped = true
}

func (m *manualTicker) isStopped() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.stopped
}

func (m *manualTicker) lastReset() time.Duration {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.resets) == 0 {
		return 0
	}
	return m.resets[len(m.resets)-1]
}

// tick delivers one tick and fails if nobody is listening.
func (m *manualTicker) tick(t *testing.T) {
	t.Helper()
	require.True(t, m.trySend(waitFor), "simulation is not running")
}

func (m *manualTicker) trySend(d time.Duration) bool {
	select {
	case m.c <- time.Now():
		return true
	case <-time.After(d):
		return false
	}
}

// tickers hands out manualTickers in creation order.
type tickers struct {
	created chan *manualTicker
	periods chan time.Duration
}

func newTickers() *tickers {
	return &tickers{created: make(chan *manualTicker, 16), periods: make(chan time.Duration, 16)}
}

func (ts *tickers) factory(d time.Duration) Ticker {
	m := &manualTicker{c: make(chan time.Time)}
	ts.created <- m
	ts.periods <- d
	return m
}

func (ts *tickers) next(t *testing.T) (*manualTicker, time.Duration) {
	t.Helper()
	select {
	case m := <-ts.created:
		return m, <-ts.periods
	case <-time.After(waitFor):
		t.Fatal("no simulation was started")
		return nil, 0
	}
}

func (ts *tickers) none(t *testing.T) {
	t.Helper()
	select {
	case <-ts.created:
		t.Fatal("unexpected simulation started")
	default:
	}
}

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

// recorder collects every published snapshot.
type recorder struct {
	mu    sync.Mutex
	snaps []Snapshot
}

func (r *recorder) observe(s Snapshot) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.snaps = append(r.snaps, s)
}

func (r *recorder) all() []Snapshot {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Snapshot(nil), r.snaps...)
}

func (r *recorder) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.snaps)
}

func (r *recorder) last() Snapshot {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.snaps) == 0 {
		return Snapshot{}
	}
	return r.snaps[len(r.snaps)-1]
}

func newTestSynthesizer(t *testing.T, opts ...Option) (*Synthesizer, *tickers, *fakeClock, *recorder) {
	t.Helper()
	ts := newTickers()
	clock := newFakeClock()
	rec := &recorder{}
	s := New(append([]Option{WithTicker(ts.factory), WithClock(clock.Now)}, opts...)...)
	unsubscribe := s.Subscribe(rec.observe)
	t.Cleanup(func() {
		unsubscribe()
		s.Stop()
	})
	return s, ts, clock, rec
}

package progress

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

type pulled struct{ n int }

func TestNewTrackerFiltersByType(t *testing.T) {
	t.Parallel()
	var got []int
	tr := NewTracker(func(e pulled) { got = append(got, e.n) })
	tr.OnEvent(pulled{1})
	tr.OnEvent("ignored")
	tr.OnEvent(&pulled{2})
	tr.OnEvent(pulled{3})
	assert.Equal(t, []int{1, 3}, got)
}

func TestMulti(t *testing.T) {
	t.Parallel()
	var order []string
	a := NewTracker(func(e string) { order = append(order, "a:"+e) })
	b := NewTracker(func(e string) { order = append(order, "b:"+e) })
	Multi(a, Nop, b).OnEvent("x")
	assert.Equal(t, []string{"a:x", "b:x"}, order)
}

func TestBroadcaster(t *testing.T) {
	t.Parallel()
	var b Broadcaster[int]
	var first, second []int

	b.Publish(0)
	unsubFirst := b.Subscribe(func(v int) { first = append(first, v) })
	b.Subscribe(func(v int) { second = append(second, v) })
	assert.Equal(t, 2, b.Len())

	b.Publish(1)
	unsubFirst()
	unsubFirst()
	b.Publish(2)

	assert.Equal(t, []int{1}, first)
	assert.Equal(t, []int{1, 2}, second)
	assert.Equal(t, 1, b.Len())
}

func TestBroadcasterCallbackMayUnsubscribe(t *testing.T) {
	t.Parallel()
	var b Broadcaster[string]
	calls := 0
	var unsubscribe func()
	unsubscribe = b.Subscribe(func(string) {
		calls++
		unsubscribe()
	})
	b.Publish("a")
	b.Publish("b")
	assert.Equal(t, 1, calls)
	assert.Equal(t, 0, b.Len())
}

package eventbus

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

type stepEvent struct {
	Step int
	Name string
}

func TestTypedBusPublishSubscribe(t *testing.T) {
	bus := NewTyped[stepEvent]()
	ch := bus.Subscribe()
	assert.Equal(t, 1, bus.Subscribers())

	bus.Publish(stepEvent{Step: 3, Name: "George"})
	v := <-ch
	assert.Equal(t, 3, v.Step)
	assert.Equal(t, "George", v.Name)

	bus.Unsubscribe(ch)
	assert.Zero(t, bus.Subscribers())
	_, ok := <-ch
	assert.False(t, ok)
}

func TestTypedBusDropsWhenFull(t *testing.T) {
	bus := NewTypedWithBuffer[int](2)
	ch := bus.Subscribe()
	for i := 0; i < 5; i++ {
		bus.Publish(i)
	}
	assert.Equal(t, uint64(3), bus.Dropped())
	assert.Equal(t, 0, <-ch)
	assert.Equal(t, 1, <-ch)
}

func TestTypedBusClose(t *testing.T) {
	bus := NewTyped[int]()
	ch1 := bus.Subscribe()
	ch2 := bus.Subscribe()
	bus.Close()
	bus.Close()
	_, ok := <-ch1
	assert.False(t, ok)
	_, ok = <-ch2
	assert.False(t, ok)

	bus.Publish(1)
	late := bus.Subscribe()
	_, ok = <-late
	assert.False(t, ok)
}

func TestTypedBusUnsubscribeAfterClose(t *testing.T) {
	bus := NewTyped[float64]()
	ch := bus.Subscribe()
	bus.Close()
	assert.NotPanics(t, func() { bus.Unsubscribe(ch) })
}

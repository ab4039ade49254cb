package cause

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBus_PublishDispatchesInSubscriptionOrder(t *testing.T) {
	b := NewBus[int]()
	var order []int

	b.Subscribe(func(e int) { order = append(order, e*10+1) })
	b.Subscribe(func(e int) { order = append(order, e*10+2) })

	b.Publish(1)
	b.Publish(2)

	assert.Equal(t, []int{11, 12, 21, 22}, order)
}

func TestBus_UnsubscribeStopsFutureDelivery(t *testing.T) {
	b := NewBus[string]()
	var got []string

	unsubA := b.Subscribe(func(e string) { got = append(got, "a:"+e) })
	b.Subscribe(func(e string) { got = append(got, "b:"+e) })

	b.Publish("first")
	unsubA()
	b.Publish("second")

	assert.Equal(t, []string{"a:first", "b:first", "b:second"}, got)
}

func TestBus_Len_CountsOnlyLiveSubscribers(t *testing.T) {
	b := NewBus[struct{}]()
	assert.Equal(t, 0, b.Len())

	unsub1 := b.Subscribe(func(struct{}) {})
	b.Subscribe(func(struct{}) {})
	assert.Equal(t, 2, b.Len())

	unsub1()
	assert.Equal(t, 1, b.Len())
}

func TestBus_PublishWithNoSubscribersIsNoop(t *testing.T) {
	b := NewBus[int]()
	assert.NotPanics(t, func() { b.Publish(42) })
}

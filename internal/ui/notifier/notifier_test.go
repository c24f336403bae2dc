package notifier

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const usersURN = "urn:li:dataset:(urn:li:dataPlatform:hive,db.users,PROD)"

func received(ch chan struct{}) bool {
	select {
	case <-ch:
		return true
	case <-time.After(100 * time.Millisecond):
		return false
	}
}

func TestNotifier_Subscribe_Unsubscribe(t *testing.T) {
	n := New()

	ch := n.Subscribe(usersURN)
	require.NotNil(t, ch)

	n.mu.RLock()
	assert.Len(t, n.listeners, 1)
	assert.Equal(t, []string{usersURN}, n.listeners[ch])
	n.mu.RUnlock()

	n.Unsubscribe(ch)

	n.mu.RLock()
	assert.Len(t, n.listeners, 0)
	n.mu.RUnlock()
}

func TestNotifier_Broadcast(t *testing.T) {
	n := New()

	users := n.Subscribe(usersURN)
	orders := n.Subscribe("urn:li:dataset:(urn:li:dataPlatform:hive,db.orders,PROD)")
	all := n.Subscribe()
	defer n.Unsubscribe(users)
	defer n.Unsubscribe(orders)
	defer n.Unsubscribe(all)

	n.Broadcast(usersURN)

	assert.True(t, received(users), "topic listener should receive")
	assert.True(t, received(all), "wildcard listener should receive")
	assert.False(t, received(orders), "other topic should not receive")
}

func TestNotifier_MultipleTopics(t *testing.T) {
	n := New()

	ch := n.Subscribe("session-a|"+usersURN, usersURN)
	defer n.Unsubscribe(ch)

	n.Broadcast("session-a|" + usersURN)
	assert.True(t, received(ch))

	n.Broadcast(usersURN)
	assert.True(t, received(ch))

	n.Broadcast("session-b|" + usersURN)
	assert.False(t, received(ch))
}

func TestNotifier_BroadcastAll(t *testing.T) {
	n := New()

	ch1 := n.Subscribe(usersURN)
	ch2 := n.Subscribe("other")
	defer n.Unsubscribe(ch1)
	defer n.Unsubscribe(ch2)

	n.BroadcastAll()

	assert.True(t, received(ch1))
	assert.True(t, received(ch2))
}

func TestNotifier_Broadcast_NonBlocking(t *testing.T) {
	n := New()

	ch := n.Subscribe(usersURN)
	defer n.Unsubscribe(ch)

	// Fill the channel buffer
	ch <- struct{}{}

	done := make(chan bool)
	go func() {
		n.Broadcast(usersURN)
		done <- true
	}()

	select {
	case <-done:
	case <-time.After(100 * time.Millisecond):
		t.Error("Broadcast blocked on full channel")
	}
}

func TestNotifier_Concurrent(t *testing.T) {
	n := New()

	var wg sync.WaitGroup
	const numGoroutines = 10

	for i := 0; i < numGoroutines; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			ch := n.Subscribe(usersURN)
			n.Broadcast(usersURN)
			n.Unsubscribe(ch)
		}()
	}

	wg.Wait()

	n.mu.RLock()
	assert.Len(t, n.listeners, 0)
	n.mu.RUnlock()
}

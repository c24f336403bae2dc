// Package notifier provides a topic-based broadcast mechanism for SSE updates.
package notifier

import (
	"slices"
	"sync"
)

// Notifier broadcasts update signals to subscribed listeners.
// Listeners receive an empty struct when one of their topics changed and
// should re-render from the view or the store. A listener subscribed
// without topics receives every broadcast.
type Notifier struct {
	mu        sync.RWMutex
	listeners map[chan struct{}][]string
}

// New creates a new Notifier instance.
func New() *Notifier {
	return &Notifier{
		listeners: make(map[chan struct{}][]string),
	}
}

// Subscribe returns a channel that receives pings for the given topics.
// The caller must call Unsubscribe when done.
func (n *Notifier) Subscribe(topics ...string) chan struct{} {
	ch := make(chan struct{}, 1)
	n.mu.Lock()
	n.listeners[ch] = topics
	n.mu.Unlock()
	return ch
}

// Unsubscribe removes a listener channel and closes it.
func (n *Notifier) Unsubscribe(ch chan struct{}) {
	n.mu.Lock()
	delete(n.listeners, ch)
	n.mu.Unlock()
	close(ch)
}

// Broadcast pings listeners of topic and listeners without topics.
// Non-blocking: if a listener's channel is full, the ping is skipped.
func (n *Notifier) Broadcast(topic string) {
	n.mu.RLock()
	defer n.mu.RUnlock()

	for ch, topics := range n.listeners {
		if len(topics) > 0 && !slices.Contains(topics, topic) {
			continue
		}
		select {
		case ch <- struct{}{}:
		default:
			// already pending
		}
	}
}

// BroadcastAll pings every listener.
func (n *Notifier) BroadcastAll() {
	n.mu.RLock()
	defer n.mu.RUnlock()

	for ch := range n.listeners {
		select {
		case ch <- struct{}{}:
		default:
		}
	}
}

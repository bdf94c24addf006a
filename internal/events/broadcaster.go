// Package events fans node change notifications out to event stream subscribers.
package events

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/samsirama/windows-explorer-clone/internal/metrics"
	"github.com/samsirama/windows-explorer-clone/pkg/models"
	"github.com/samsirama/windows-explorer-clone/pkg/protocol"
)

const (
	EventCreate = "create"
	EventUpdate = "update"
	EventDelete = "delete"
)

// subscriberBuffer is the per-subscriber queue length.
const subscriberBuffer = 64

// Event is a node change notification.
type Event = protocol.NodeEvent

// FromNode builds an event of the given type for n.
func FromNode(eventType string, n *models.Node) Event {
	e := Event{Type: eventType}
	if n != nil {
		e.ID = n.ID
		e.Name = n.Name
		e.ParentID = n.ParentID
	}
	return e
}

// Broadcaster manages subscribers and publishes events.
type Broadcaster struct {
	mu          sync.RWMutex
	subscribers map[chan Event]struct{}
}

// NewBroadcaster creates a new event broadcaster.
func NewBroadcaster() *Broadcaster {
	return &Broadcaster{
		subscribers: make(map[chan Event]struct{}),
	}
}

// Subscribe adds a new subscriber and returns its event channel.
// The caller must call Unsubscribe when done.
func (b *Broadcaster) Subscribe() chan Event {
	ch := make(chan Event, subscriberBuffer)
	b.mu.Lock()
	b.subscribers[ch] = struct{}{}
	n := len(b.subscribers)
	b.mu.Unlock()
	metrics.SetSSEConnectionsActive(int64(n))
	return ch
}

// Unsubscribe removes a subscriber and closes its channel.
func (b *Broadcaster) Unsubscribe(ch chan Event) {
	b.mu.Lock()
	if _, ok := b.subscribers[ch]; ok {
		delete(b.subscribers, ch)
		close(ch)
	}
	n := len(b.subscribers)
	b.mu.Unlock()
	metrics.SetSSEConnectionsActive(int64(n))
}

// Publish sends an event to all subscribers. Non-blocking: drops events
// for slow consumers.
func (b *Broadcaster) Publish(event Event) {
	if event.Timestamp == 0 {
		event.Timestamp = time.Now().Unix()
	}
	b.mu.RLock()
	defer b.mu.RUnlock()
	for ch := range b.subscribers {
		select {
		case ch <- event:
		default:
		}
	}
	metrics.RecordSSEEvent(event.Type)
}

// Count returns the current number of subscribers.
func (b *Broadcaster) Count() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subscribers)
}

// MarshalEvent serializes an event to JSON.
func MarshalEvent(e Event) ([]byte, error) {
	return json.Marshal(e)
}

// Package eventlog implements the concrete event sinks the VMM core
// publishes into: a bounded in-memory fan-out channel for live SSE
// subscribers, and best-effort durable writers (JSON lines, SQLite)
// that receive each event directly alongside it (see MultiSink), not
// by draining the channel. None of these wait on a consumer inside the
// VMM's Access call; a full channel drops the oldest queued event.
package eventlog

import (
	"sync"

	"github.com/vmmsim/vmmsim/internal/vmm"
)

// DefaultCapacity is the default bound on the channel sink's internal
// queue. It is small enough that a stalled subscriber cannot pin down
// meaningful memory, and large enough to absorb a burst of prefetch
// events from one access without dropping anything in the common case.
const DefaultCapacity = 4096

// ChannelSink is a bounded, non-blocking fan-out point: the VMM core
// publishes into it without suspending, and any number of subscribers
// can drain their own per-subscriber channel. Publishing into a full
// subscriber channel drops the oldest event already queued for that
// subscriber, not the newest one, so a slow subscriber loses history,
// not the live edge.
type ChannelSink struct {
	capacity int

	mu          sync.Mutex
	subscribers map[int]chan vmm.Event
	nextID      int

	dropped func()
}

// NewChannelSink constructs a sink with the given per-subscriber
// capacity. onDrop, if non-nil, is called once per dropped event (the
// caller typically wires this to Metrics-style bookkeeping or a log
// line; eventlog has no metrics dependency of its own).
func NewChannelSink(capacity int, onDrop func()) *ChannelSink {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}

	return &ChannelSink{
		capacity:    capacity,
		subscribers: make(map[int]chan vmm.Event),
		dropped:     onDrop,
	}
}

// Publish implements vmm.Sink by fanning ev out to every subscriber.
func (s *ChannelSink) Publish(ev vmm.Event) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, ch := range s.subscribers {
		select {
		case ch <- ev:
		default:
			// Drop the oldest queued event for this subscriber to make
			// room, then enqueue the new one. A subscriber that is
			// merely slow, not dead, still sees forward progress.
			select {
			case <-ch:
			default:
			}

			select {
			case ch <- ev:
			default:
			}

			if s.dropped != nil {
				s.dropped()
			}
		}
	}
}

// Subscribe registers a new fan-out target and returns its channel plus
// an unsubscribe function. Callers (typically one per SSE connection)
// must call unsubscribe when done to release the channel.
func (s *ChannelSink) Subscribe() (<-chan vmm.Event, func()) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := s.nextID
	s.nextID++

	ch := make(chan vmm.Event, s.capacity)
	s.subscribers[id] = ch

	unsubscribe := func() {
		s.mu.Lock()
		defer s.mu.Unlock()

		delete(s.subscribers, id)
		close(ch)
	}

	return ch, unsubscribe
}

// SubscriberCount reports how many subscribers are currently attached.
func (s *ChannelSink) SubscriberCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	return len(s.subscribers)
}

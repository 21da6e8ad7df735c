// Package bus is a minimal in-process publish/subscribe fan-out used to feed
// server-sent event streams. Channels are created implicitly on first use,
// events are not replayed, and a subscriber only sees events published after
// it subscribed.
package bus

import (
	"context"
	"encoding/json"
	"sync"
)

// Event is one published message on a channel.
type Event struct {
	// Channel names the logical stream the event belongs to (e.g. "chat").
	Channel string `json:"-"`
	// Type is the event kind delivered to SSE clients (e.g. "message").
	Type string `json:"type"`
	// Data is the JSON payload of the event.
	Data json.RawMessage `json:"data"`
}

// subscriberBuffer is the per-subscriber queue depth. A subscriber that falls
// this far behind starts losing events rather than blocking publishers.
const subscriberBuffer = 64

type subscriber struct {
	ch     chan Event
	cancel context.CancelFunc
}

// Bus fans events out to subscribers per channel. Safe for concurrent use.
// Publish never blocks: slow subscribers drop events once their buffer fills.
type Bus struct {
	mu     sync.Mutex
	subs   map[string]map[int]*subscriber
	nextID int
	closed bool
}

// New constructs an empty Bus.
func New() *Bus {
	return &Bus{subs: make(map[string]map[int]*subscriber)}
}

// Publish delivers the event to every current subscriber of its channel, in
// the order Publish calls are made. Events published to a channel with no
// subscribers are discarded.
func (b *Bus) Publish(ev Event) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return
	}
	for _, sub := range b.subs[ev.Channel] {
		select {
		case sub.ch <- ev:
		default:
			// Subscriber buffer full; the event is dropped for this
			// subscriber only.
		}
	}
}

// Subscribe registers a new subscriber on the channel and returns its event
// stream. The stream closes when ctx is cancelled or the bus shuts down.
// Events published before Subscribe returns are never delivered.
func (b *Bus) Subscribe(ctx context.Context, channel string) <-chan Event {
	ctx, cancel := context.WithCancel(ctx)
	sub := &subscriber{
		ch:     make(chan Event, subscriberBuffer),
		cancel: cancel,
	}

	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		cancel()
		close(sub.ch)
		return sub.ch
	}
	id := b.nextID
	b.nextID++
	if b.subs[channel] == nil {
		b.subs[channel] = make(map[int]*subscriber)
	}
	b.subs[channel][id] = sub
	b.mu.Unlock()

	go func() {
		<-ctx.Done()
		b.mu.Lock()
		if subs, ok := b.subs[channel]; ok {
			if _, present := subs[id]; present {
				delete(subs, id)
				close(sub.ch)
				if len(subs) == 0 {
					delete(b.subs, channel)
				}
			}
		}
		b.mu.Unlock()
	}()

	return sub.ch
}

// Close shuts the bus down: all subscriber streams close and further
// publishes are discarded.
func (b *Bus) Close() {
	b.mu.Lock()
	subs := b.subs
	b.subs = make(map[string]map[int]*subscriber)
	b.closed = true
	b.mu.Unlock()

	for _, channelSubs := range subs {
		for _, sub := range channelSubs {
			sub.cancel()
			close(sub.ch)
		}
	}
}

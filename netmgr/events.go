// Copyright (c) 2024-2026 The AXErunners developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package netmgr

import (
	"sync"
	"time"
)

// Event is implemented by every notification the manager publishes.
type Event interface {
	// event is unexported to restrict the set of event types to this
	// package.
	event()
}

// PeerConnectedEvent is published after a peer completes its handshake and
// joins the active pool.
type PeerConnectedEvent struct {
	Addr      string
	UserAgent string
}

// PeerDisconnectedEvent is published after a peer leaves the active pool.
type PeerDisconnectedEvent struct {
	Addr   string
	Banned bool
}

// NetworkActivityEvent is published when the aggregate byte counters have
// advanced since the previous observation.
type NetworkActivityEvent struct {
	BytesReceived uint64
	BytesSent     uint64
}

// SporkActivityEvent is published when the spork registry has been updated
// since the previous observation.
type SporkActivityEvent struct {
	UpdatedAt time.Time
}

// BanListChangedEvent is published when a peer is added to the ban list.
type BanListChangedEvent struct {
	Addr   string
	Reason string
}

func (PeerConnectedEvent) event()    {}
func (PeerDisconnectedEvent) event() {}
func (NetworkActivityEvent) event()  {}
func (SporkActivityEvent) event()    {}
func (BanListChangedEvent) event()   {}

// eventBus fans events out to subscribers over buffered channels.  A slow
// subscriber loses events rather than stalling the manager.
type eventBus struct {
	mtx  sync.Mutex
	subs []chan Event
}

// Subscribe returns a channel on which all future events are delivered.  The
// channel is buffered; events are dropped for a subscriber whose buffer is
// full.
func (b *eventBus) Subscribe() <-chan Event {
	ch := make(chan Event, 64)
	b.mtx.Lock()
	b.subs = append(b.subs, ch)
	b.mtx.Unlock()
	return ch
}

// Publish delivers the event to every subscriber without blocking.
func (b *eventBus) Publish(ev Event) {
	b.mtx.Lock()
	subs := b.subs
	b.mtx.Unlock()

	for _, ch := range subs {
		select {
		case ch <- ev:
		default:
		}
	}
}

// Copyright (c) 2024-2026 The AXErunners developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package netmgr

import (
	"sync"
	"time"

	"github.com/AXErunners/axesync/wire"
)

// sporkDefaults are the values assumed for sporks that no peer has reported
// yet.  A zero value means active since the epoch; the far-future timestamp
// means inactive.
var sporkDefaults = map[int32]int64{
	wire.SporkInstantSendEnabled:     0,
	wire.SporkInstantSendBlockFilter: 0,
	wire.SporkSuperblocksEnabled:     0,
	wire.SporkNewSigs:                0,
}

// sporkInactiveValue marks a spork as switched off.  Values at or beyond it
// are timestamps so far in the future the feature is effectively disabled.
const sporkInactiveValue = 4000000000

// sporkEntry is one received spork with its provenance.
type sporkEntry struct {
	Value      int64
	TimeSigned int64
	Source     string
}

// SporkRegistry holds the process-wide view of the network's signed feature
// flags.  It is mutated whenever any peer delivers a spork message that
// passed signature verification and read to gate feature activation.
type SporkRegistry struct {
	mtx       sync.RWMutex
	sporks    map[int32]sporkEntry
	updatedAt time.Time

	// sources tracks which peers have contributed at least one spork,
	// which drives the aggregation quorum.
	sources map[string]struct{}
}

// NewSporkRegistry returns an empty spork registry backed by the static
// defaults.
func NewSporkRegistry() *SporkRegistry {
	return &SporkRegistry{
		sporks:  make(map[int32]sporkEntry),
		sources: make(map[string]struct{}),
	}
}

// Update records a verified spork from the given peer.  Only a value signed
// later than the currently held one replaces it.
func (r *SporkRegistry) Update(msg *wire.MsgSpork, source string) {
	r.mtx.Lock()
	defer r.mtx.Unlock()

	r.sources[source] = struct{}{}
	cur, ok := r.sporks[msg.SporkID]
	if ok && cur.TimeSigned >= msg.TimeSigned {
		return
	}
	r.sporks[msg.SporkID] = sporkEntry{
		Value:      msg.Value,
		TimeSigned: msg.TimeSigned,
		Source:     source,
	}
	r.updatedAt = time.Now()
}

// Value returns the current value for the spork id, falling back to the
// static default when no peer has reported it.
func (r *SporkRegistry) Value(sporkID int32) (int64, bool) {
	r.mtx.RLock()
	defer r.mtx.RUnlock()
	if entry, ok := r.sporks[sporkID]; ok {
		return entry.Value, true
	}
	def, ok := sporkDefaults[sporkID]
	return def, ok
}

// IsActive reports whether the feature gated by the spork id is switched on.
// A spork value is a unix timestamp; the feature is active once that time has
// passed.
func (r *SporkRegistry) IsActive(sporkID int32) bool {
	value, ok := r.Value(sporkID)
	if !ok {
		return false
	}
	if value >= sporkInactiveValue {
		return false
	}
	return value <= time.Now().Unix()
}

// UpdatedAt returns the time of the most recent registry change.
func (r *SporkRegistry) UpdatedAt() time.Time {
	r.mtx.RLock()
	defer r.mtx.RUnlock()
	return r.updatedAt
}

// SourceCount returns the number of distinct peers that have contributed
// sporks.
func (r *SporkRegistry) SourceCount() int {
	r.mtx.RLock()
	defer r.mtx.RUnlock()
	return len(r.sources)
}

// ForgetSource drops a peer from the contribution set, typically when it
// disconnects, so the aggregation loop seeks replacements.
func (r *SporkRegistry) ForgetSource(source string) {
	r.mtx.Lock()
	delete(r.sources, source)
	r.mtx.Unlock()
}

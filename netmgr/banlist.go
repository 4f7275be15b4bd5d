// Copyright (c) 2024-2026 The AXErunners developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package netmgr

import (
	"compress/gzip"
	"encoding/json"
	"os"
	"sync"
	"time"
)

// NumRecentPeers is the number of successfully handshaked peers remembered
// across restarts to seed future discovery.
const NumRecentPeers = 20

// BanEntry records why and when a peer was banned.
type BanEntry struct {
	Reason    string    `json:"reason"`
	UserAgent string    `json:"user_agent,omitempty"`
	Timestamp time.Time `json:"timestamp"`
	Expiry    time.Time `json:"expiry,omitempty"`
}

// BanList is a persisted map of peer address to ban metadata.
type BanList struct {
	mtx     sync.RWMutex
	entries map[string]BanEntry
	path    string
}

// NewBanList returns a ban list persisted at the given path, loading any
// previously saved entries.  A missing or unreadable file yields an empty
// list.
func NewBanList(path string) *BanList {
	bl := &BanList{
		entries: make(map[string]BanEntry),
		path:    path,
	}
	if err := bl.load(); err != nil && !os.IsNotExist(err) {
		log.Warnf("Unable to load ban list from %s: %v", path, err)
	}
	return bl
}

// Add bans a peer address.  The updated list is persisted immediately.
func (bl *BanList) Add(addr string, entry BanEntry) {
	if entry.Timestamp.IsZero() {
		entry.Timestamp = time.Now()
	}
	bl.mtx.Lock()
	bl.entries[addr] = entry
	bl.mtx.Unlock()

	if err := bl.save(); err != nil {
		log.Warnf("Unable to save ban list to %s: %v", bl.path, err)
	}
}

// IsBanned reports whether the given peer address is currently banned.  An
// expired ban is treated as lifted.
func (bl *BanList) IsBanned(addr string) bool {
	bl.mtx.RLock()
	entry, ok := bl.entries[addr]
	bl.mtx.RUnlock()
	if !ok {
		return false
	}
	if !entry.Expiry.IsZero() && time.Now().After(entry.Expiry) {
		return false
	}
	return true
}

// Len returns the number of ban entries.
func (bl *BanList) Len() int {
	bl.mtx.RLock()
	defer bl.mtx.RUnlock()
	return len(bl.entries)
}

// load reads the gzip-compressed JSON ban list from disk.
func (bl *BanList) load() error {
	f, err := os.Open(bl.path)
	if err != nil {
		return err
	}
	defer f.Close()

	zr, err := gzip.NewReader(f)
	if err != nil {
		return err
	}
	defer zr.Close()

	entries := make(map[string]BanEntry)
	if err := json.NewDecoder(zr).Decode(&entries); err != nil {
		return err
	}

	bl.mtx.Lock()
	bl.entries = entries
	bl.mtx.Unlock()
	return nil
}

// save writes the gzip-compressed JSON ban list to disk.
func (bl *BanList) save() error {
	bl.mtx.RLock()
	entries := make(map[string]BanEntry, len(bl.entries))
	for addr, entry := range bl.entries {
		entries[addr] = entry
	}
	bl.mtx.RUnlock()

	if bl.path == "" {
		return nil
	}

	f, err := os.Create(bl.path)
	if err != nil {
		return err
	}
	defer f.Close()

	zw := gzip.NewWriter(f)
	if err := json.NewEncoder(zw).Encode(entries); err != nil {
		zw.Close()
		return err
	}
	return zw.Close()
}

// RecentPeers is a bounded, persisted recency list of peers that completed a
// handshake.  It seeds discovery on the next startup.
type RecentPeers struct {
	mtx   sync.Mutex
	addrs []string
	path  string
}

// NewRecentPeers returns a recent-peer list persisted at the given path,
// loading any previously saved addresses.
func NewRecentPeers(path string) *RecentPeers {
	rp := &RecentPeers{path: path}
	if err := rp.load(); err != nil && !os.IsNotExist(err) {
		log.Warnf("Unable to load recent peers from %s: %v", path, err)
	}
	return rp
}

// Add moves the address to the front of the recency list, truncating to the
// bound, and persists the result.
func (rp *RecentPeers) Add(addr string) {
	rp.mtx.Lock()
	addrs := make([]string, 0, NumRecentPeers)
	addrs = append(addrs, addr)
	for _, a := range rp.addrs {
		if a == addr {
			continue
		}
		addrs = append(addrs, a)
		if len(addrs) == NumRecentPeers {
			break
		}
	}
	rp.addrs = addrs
	rp.mtx.Unlock()

	if err := rp.save(); err != nil {
		log.Warnf("Unable to save recent peers to %s: %v", rp.path, err)
	}
}

// All returns the addresses most recent first.
func (rp *RecentPeers) All() []string {
	rp.mtx.Lock()
	defer rp.mtx.Unlock()
	addrs := make([]string, len(rp.addrs))
	copy(addrs, rp.addrs)
	return addrs
}

func (rp *RecentPeers) load() error {
	data, err := os.ReadFile(rp.path)
	if err != nil {
		return err
	}
	var addrs []string
	if err := json.Unmarshal(data, &addrs); err != nil {
		return err
	}
	if len(addrs) > NumRecentPeers {
		addrs = addrs[:NumRecentPeers]
	}
	rp.mtx.Lock()
	rp.addrs = addrs
	rp.mtx.Unlock()
	return nil
}

func (rp *RecentPeers) save() error {
	if rp.path == "" {
		return nil
	}
	rp.mtx.Lock()
	data, err := json.Marshal(rp.addrs)
	rp.mtx.Unlock()
	if err != nil {
		return err
	}
	return os.WriteFile(rp.path, data, 0644)
}

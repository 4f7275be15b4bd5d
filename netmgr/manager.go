// Copyright (c) 2024-2026 The AXErunners developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package netmgr

import (
	"context"
	"errors"
	"math/rand"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/btcsuite/btcd/chaincfg/chainhash"

	"github.com/AXErunners/axesync/chaincfg"
	"github.com/AXErunners/axesync/peer"
	"github.com/AXErunners/axesync/wire"
)

const (
	// MinPeersLimit and MaxPeersLimit clamp the configured target peer
	// count.
	MinPeersLimit = 2
	MaxPeersLimit = 8

	// controlInterval is how often the connection control loop runs.
	controlInterval = 100 * time.Millisecond

	// staticCooldown is how long a disconnected static peer waits before
	// it is dialed again.
	staticCooldown = 10 * time.Second

	// sporkInterval is how often the spork aggregation loop runs while
	// under target participation.
	sporkInterval = time.Second

	// activityInterval is how often the activity monitor samples the
	// aggregate byte counters.
	activityInterval = 2 * time.Second
)

// ErrNoPeers is returned when an operation needs a ready peer and none is
// connected.
var ErrNoPeers = errors.New("no connected peers")

// HeaderSource maps block heights to block hashes.  The sync state machine's
// header store satisfies it.
type HeaderSource interface {
	// BlockHash returns the hash of the block at the given height.
	BlockHash(height uint32) (*chainhash.Hash, error)
}

// Config holds the configuration options for the network manager.
type Config struct {
	// Params identifies the network to operate on.
	Params *chaincfg.Params

	// Dial establishes outbound connections.  A net.Dialer is used when
	// nil; supply a proxy-backed dialer to tunnel through SOCKS.
	Dial func(ctx context.Context, network, addr string) (net.Conn, error)

	// TargetPeers is the desired number of ready connections.  It is
	// clamped to [MinPeersLimit, MaxPeersLimit].
	TargetPeers int

	// StaticPeers, when non-empty, disables discovery entirely and
	// restricts connections to the listed host:port addresses.
	StaticPeers []string

	// NoDiscovery disables the addr-based discovery of additional peers
	// beyond the DNS seeds.
	NoDiscovery bool

	// UserAgent advertised to peers.
	UserAgent string

	// HandshakeTimeout and IdleTimeout are passed through to each peer
	// connection.
	HandshakeTimeout time.Duration
	IdleTimeout      time.Duration

	// VerifySpork validates spork signatures before they reach the
	// registry.
	VerifySpork func(msg *wire.MsgSpork) error

	// OnISLock receives InstantSend locks from any peer.
	OnISLock func(fromAddr string, msg *wire.MsgISLock)

	// Headers resolves heights to block hashes for diff requests.
	Headers HeaderSource

	// BanListPath and RecentPeersPath locate the persisted peer metadata.
	// Persistence is disabled for an empty path.
	BanListPath     string
	RecentPeersPath string
}

// clampPeerTarget applies the protocol peer-count bounds.
func clampPeerTarget(target int) int {
	if target < MinPeersLimit {
		return MinPeersLimit
	}
	if target > MaxPeersLimit {
		return MaxPeersLimit
	}
	return target
}

// Manager owns the pool of peer connections: it drives discovery, maintains
// the target peer count, aggregates sporks, exposes the diff-request API used
// by the sync state machine, and fans connectivity events out to subscribers.
type Manager struct {
	cfg        Config
	sporks     *SporkRegistry
	banList    *BanList
	recent     *RecentPeers
	bus        eventBus
	httpClient *http.Client

	// mtx guards the peer pool and candidate bookkeeping below.  Only the
	// manager's own goroutines mutate them; peers hand discoveries over
	// through AddCandidates rather than touching the maps.
	mtx            sync.Mutex
	peers          map[string]*peer.Peer
	connecting     map[string]struct{}
	cooldowns      map[string]time.Time
	candidates     []string
	knownAddrs     map[string]struct{}
	closedBytesIn  uint64
	closedBytesOut uint64

	wg sync.WaitGroup
}

// New returns a new network manager for the provided configuration.
func New(cfg *Config) *Manager {
	c := *cfg
	c.TargetPeers = clampPeerTarget(c.TargetPeers)
	if c.Dial == nil {
		var d net.Dialer
		c.Dial = d.DialContext
	}
	if c.UserAgent == "" {
		c.UserAgent = wire.DefaultUserAgent
	}

	m := &Manager{
		cfg:        c,
		sporks:     NewSporkRegistry(),
		banList:    NewBanList(c.BanListPath),
		recent:     NewRecentPeers(c.RecentPeersPath),
		httpClient: newSeedHTTPClient(),
		peers:      make(map[string]*peer.Peer),
		connecting: make(map[string]struct{}),
		cooldowns:  make(map[string]time.Time),
		knownAddrs: make(map[string]struct{}),
	}

	// Previously successful peers are the cheapest discovery source.
	for _, addr := range m.recent.All() {
		m.addCandidate(addr)
	}
	return m
}

// Sporks returns the spork registry.
func (m *Manager) Sporks() *SporkRegistry {
	return m.sporks
}

// Subscribe returns a channel delivering manager events.
func (m *Manager) Subscribe() <-chan Event {
	return m.bus.Subscribe()
}

// ConnectedCount returns the number of ready peers.
func (m *Manager) ConnectedCount() int {
	m.mtx.Lock()
	defer m.mtx.Unlock()
	return len(m.peers)
}

// PeerAddrs returns the addresses of the ready peers.
func (m *Manager) PeerAddrs() []string {
	m.mtx.Lock()
	defer m.mtx.Unlock()
	addrs := make([]string, 0, len(m.peers))
	for addr := range m.peers {
		addrs = append(addrs, addr)
	}
	return addrs
}

// addCandidate queues a discovered address for a future connection attempt.
// The caller must not hold m.mtx.
func (m *Manager) addCandidate(addr string) {
	if m.banList.IsBanned(addr) {
		return
	}
	m.mtx.Lock()
	defer m.mtx.Unlock()
	if _, ok := m.knownAddrs[addr]; ok {
		return
	}
	m.knownAddrs[addr] = struct{}{}
	m.candidates = append(m.candidates, addr)
}

// AddCandidates merges externally discovered addresses into the candidate
// pool.  Peer connections use this to hand over addr message contents.
func (m *Manager) AddCandidates(addrs []string) {
	if m.cfg.NoDiscovery || len(m.cfg.StaticPeers) > 0 {
		return
	}
	for _, addr := range addrs {
		m.addCandidate(addr)
	}
}

// Run starts the manager's control, spork aggregation, and activity monitor
// loops and blocks until the context is canceled, at which point every peer
// is disconnected before returning.
func (m *Manager) Run(ctx context.Context) {
	log.Infof("Network manager starting (target %d peers)", m.cfg.TargetPeers)

	m.wg.Add(3)
	go m.controlLoop(ctx)
	go m.sporkLoop(ctx)
	go m.activityLoop(ctx)

	// Each ready connection registers its own teardown on ctx, so waiting
	// for the connection goroutines is all the shutdown there is.
	m.wg.Wait()

	log.Infof("Network manager stopped")
}

// controlLoop maintains the target number of ready connections.
func (m *Manager) controlLoop(ctx context.Context) {
	defer m.wg.Done()

	ticker := time.NewTicker(controlInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if len(m.cfg.StaticPeers) > 0 {
				m.connectStaticPeers(ctx)
			} else {
				m.discoverIfStarved(ctx)
				m.drainCandidates(ctx)
			}
			m.dropExcessPeer()

		case <-ctx.Done():
			return
		}
	}
}

// connectStaticPeers dials any configured static peer that is not connected,
// connecting, or inside its post-disconnect cool-down.
func (m *Manager) connectStaticPeers(ctx context.Context) {
	now := time.Now()
	for _, addr := range m.cfg.StaticPeers {
		m.mtx.Lock()
		_, connected := m.peers[addr]
		_, connecting := m.connecting[addr]
		until, cooling := m.cooldowns[addr]
		busy := len(m.peers) + len(m.connecting)
		m.mtx.Unlock()

		if connected || connecting || (cooling && now.Before(until)) {
			continue
		}
		if busy >= m.cfg.TargetPeers {
			return
		}
		m.spawnConnection(ctx, addr)
	}
}

// discoverIfStarved resolves the DNS seeds when the candidate pool has run
// dry, and otherwise asks one connected peer for more addresses when below
// target.
func (m *Manager) discoverIfStarved(ctx context.Context) {
	m.mtx.Lock()
	candidateCount := len(m.candidates)
	busy := len(m.peers) + len(m.connecting)
	m.mtx.Unlock()

	if candidateCount < MinPeersLimit {
		m.discoverSeedPeers(ctx)
		return
	}
	if busy < m.cfg.TargetPeers && !m.cfg.NoDiscovery {
		if p := m.randomReadyPeer(); p != nil {
			// At most one getaddr per connection; the peer enforces
			// that, so calling repeatedly here is harmless.
			p.RequestAddresses()
		}
	}
}

// drainCandidates spawns connection attempts for queued candidates while
// below the target count.
func (m *Manager) drainCandidates(ctx context.Context) {
	for {
		m.mtx.Lock()
		if len(m.peers)+len(m.connecting) >= m.cfg.TargetPeers ||
			len(m.candidates) == 0 {
			m.mtx.Unlock()
			return
		}
		addr := m.candidates[0]
		m.candidates = m.candidates[1:]
		m.mtx.Unlock()

		if m.banList.IsBanned(addr) {
			continue
		}
		m.spawnConnection(ctx, addr)
	}
}

// dropExcessPeer disconnects one randomly chosen peer while over the target
// count.
func (m *Manager) dropExcessPeer() {
	m.mtx.Lock()
	var victim *peer.Peer
	if len(m.peers)+len(m.connecting) > m.cfg.TargetPeers && len(m.peers) > 0 {
		n := rand.Intn(len(m.peers))
		for _, p := range m.peers {
			if n == 0 {
				victim = p
				break
			}
			n--
		}
	}
	m.mtx.Unlock()

	if victim != nil {
		log.Debugf("Dropping excess peer %s", victim.Addr())
		victim.Disconnect()
	}
}

// spawnConnection dials and handshakes the address on its own goroutine.
func (m *Manager) spawnConnection(ctx context.Context, addr string) {
	m.mtx.Lock()
	if _, ok := m.peers[addr]; ok {
		m.mtx.Unlock()
		return
	}
	if _, ok := m.connecting[addr]; ok {
		m.mtx.Unlock()
		return
	}
	m.connecting[addr] = struct{}{}
	m.mtx.Unlock()

	m.wg.Add(1)
	go func() {
		defer m.wg.Done()
		m.connectAndServe(ctx, addr)
	}()
}

// connectAndServe runs the full life of one outbound connection attempt:
// dial, handshake, pool membership, and post-disconnect bookkeeping.
func (m *Manager) connectAndServe(ctx context.Context, addr string) {
	p := peer.NewOutbound(addr, &peer.Config{
		Params:           m.cfg.Params,
		UserAgent:        m.cfg.UserAgent,
		HandshakeTimeout: m.cfg.HandshakeTimeout,
		IdleTimeout:      m.cfg.IdleTimeout,
		VerifySpork:      m.cfg.VerifySpork,
		Listeners: peer.MessageListeners{
			OnSpork: func(p *peer.Peer, msg *wire.MsgSpork) {
				m.sporks.Update(msg, p.Addr())
			},
			OnAddr: func(_ *peer.Peer, msg *wire.MsgAddr) {
				addrs := make([]string, 0, len(msg.AddrList))
				for _, na := range msg.AddrList {
					addrs = append(addrs, na.Addr())
				}
				m.AddCandidates(addrs)
			},
			OnISLock: func(p *peer.Peer, msg *wire.MsgISLock) {
				if m.cfg.OnISLock != nil {
					m.cfg.OnISLock(p.Addr(), msg)
				}
			},
		},
	})

	conn, err := m.cfg.Dial(ctx, "tcp", addr)
	if err != nil {
		log.Debugf("Unable to connect to %s: %v", addr, err)
		m.releaseConnecting(addr)
		return
	}

	if err := p.AssociateConnection(conn); err != nil {
		m.finalizePeer(p, addr)
		return
	}

	// Promote to the ready pool and tie the connection's lifetime to the
	// manager's context.
	m.mtx.Lock()
	delete(m.connecting, addr)
	m.peers[addr] = p
	m.mtx.Unlock()
	stopWatch := context.AfterFunc(ctx, p.Disconnect)
	defer stopWatch()

	m.recent.Add(addr)
	m.bus.Publish(PeerConnectedEvent{Addr: addr, UserAgent: p.UserAgent()})
	log.Infof("New peer %s (%s)", addr, p.UserAgent())

	p.WaitForDisconnect()
	m.finalizePeer(p, addr)
}

// releaseConnecting removes the address from the connecting set after a
// failed dial.  Static peers get a reconnect cool-down.
func (m *Manager) releaseConnecting(addr string) {
	m.mtx.Lock()
	delete(m.connecting, addr)
	if m.isStatic(addr) {
		m.cooldowns[addr] = time.Now().Add(staticCooldown)
	}
	delete(m.knownAddrs, addr)
	m.mtx.Unlock()
}

// finalizePeer removes a finished connection from the pool and records a ban
// or a static cool-down depending on how it ended.
func (m *Manager) finalizePeer(p *peer.Peer, addr string) {
	m.mtx.Lock()
	_, wasReady := m.peers[addr]
	delete(m.peers, addr)
	delete(m.connecting, addr)
	delete(m.knownAddrs, addr)
	closedIn := p.BytesReceived()
	closedOut := p.BytesSent()
	m.closedBytesIn += closedIn
	m.closedBytesOut += closedOut
	static := m.isStatic(addr)
	if static {
		m.cooldowns[addr] = time.Now().Add(staticCooldown)
	}
	m.mtx.Unlock()

	m.sporks.ForgetSource(addr)

	banned := false
	if reason := p.BanReason(); reason != "" && !static {
		banned = true
		m.banList.Add(addr, BanEntry{
			Reason:    reason,
			UserAgent: p.UserAgent(),
		})
		m.bus.Publish(BanListChangedEvent{Addr: addr, Reason: reason})
		log.Infof("Banned peer %s: %s", addr, reason)
	}

	if wasReady {
		m.bus.Publish(PeerDisconnectedEvent{Addr: addr, Banned: banned})
		log.Infof("Lost peer %s", addr)
	}
}

// isStatic reports whether addr is part of the static peer configuration.
// The caller must hold m.mtx or be otherwise serialized; the static list is
// immutable so no locking is actually required.
func (m *Manager) isStatic(addr string) bool {
	for _, s := range m.cfg.StaticPeers {
		if s == addr {
			return true
		}
	}
	return false
}

// randomReadyPeer returns a random ready peer, or nil when none exist.
func (m *Manager) randomReadyPeer() *peer.Peer {
	m.mtx.Lock()
	defer m.mtx.Unlock()
	if len(m.peers) == 0 {
		return nil
	}
	n := rand.Intn(len(m.peers))
	for _, p := range m.peers {
		if n == 0 {
			return p
		}
		n--
	}
	return nil
}

// sporkQuorum returns how many distinct peers must contribute sporks before
// aggregation pauses: 51% of the connected count, or every connected peer
// when only one or two are connected.
func sporkQuorum(connected int) int {
	if connected <= 2 {
		return connected
	}
	return (connected*51 + 99) / 100
}

// sporkLoop periodically asks one random connected peer for sporks until a
// quorum of the connected peers have contributed.
func (m *Manager) sporkLoop(ctx context.Context) {
	defer m.wg.Done()

	ticker := time.NewTicker(sporkInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			connected := m.ConnectedCount()
			if connected == 0 {
				continue
			}
			if m.sporks.SourceCount() >= sporkQuorum(connected) {
				continue
			}
			if p := m.randomReadyPeer(); p != nil {
				p.RequestSporks()
			}

		case <-ctx.Done():
			return
		}
	}
}

// activityLoop samples the aggregate byte counters and the spork registry
// stamp, publishing events only when they have advanced.  This decouples
// high-frequency I/O from subscriber notification rates.
func (m *Manager) activityLoop(ctx context.Context) {
	defer m.wg.Done()

	ticker := time.NewTicker(activityInterval)
	defer ticker.Stop()

	var lastIn, lastOut uint64
	var lastSporkStamp time.Time
	for {
		select {
		case <-ticker.C:
			in, out := m.netTotals()
			if in != lastIn || out != lastOut {
				lastIn, lastOut = in, out
				m.bus.Publish(NetworkActivityEvent{
					BytesReceived: in,
					BytesSent:     out,
				})
			}

			if stamp := m.sporks.UpdatedAt(); stamp.After(lastSporkStamp) {
				lastSporkStamp = stamp
				m.bus.Publish(SporkActivityEvent{UpdatedAt: stamp})
			}

		case <-ctx.Done():
			return
		}
	}
}

// netTotals returns the total bytes received and sent across all connections
// the manager has ever owned.
func (m *Manager) netTotals() (uint64, uint64) {
	m.mtx.Lock()
	defer m.mtx.Unlock()
	in, out := m.closedBytesIn, m.closedBytesOut
	for _, p := range m.peers {
		in += p.BytesReceived()
		out += p.BytesSent()
	}
	return in, out
}

// clampDiffTarget bounds a diff request so it never spans more than one
// header chunk past the base height.
func clampDiffTarget(baseHeight, targetHeight uint32) uint32 {
	chunkEnd := baseHeight - baseHeight%chaincfg.DiffChunkSize +
		chaincfg.DiffChunkSize
	if targetHeight > chunkEnd {
		return chunkEnd
	}
	return targetHeight
}

// GetMNListDiff requests the masternode list diff between the two heights
// from one randomly chosen ready peer.  The requested range is clamped to a
// single header chunk; the returned height is the actual target requested.
func (m *Manager) GetMNListDiff(ctx context.Context, baseHeight,
	targetHeight uint32) (*wire.MsgMNListDiff, uint32, error) {

	targetHeight = clampDiffTarget(baseHeight, targetHeight)

	baseHash, err := m.cfg.Headers.BlockHash(baseHeight)
	if err != nil {
		return nil, 0, err
	}
	targetHash, err := m.cfg.Headers.BlockHash(targetHeight)
	if err != nil {
		return nil, 0, err
	}

	p := m.randomReadyPeer()
	if p == nil {
		return nil, 0, ErrNoPeers
	}

	diff, err := p.RequestMNListDiff(ctx, baseHash, targetHash)
	if err != nil {
		return nil, 0, err
	}
	return diff, targetHeight, nil
}

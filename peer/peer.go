// Copyright (c) 2024-2026 The AXErunners developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package peer

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/decred/dcrd/container/lru"

	"github.com/AXErunners/axesync/chaincfg"
	"github.com/AXErunners/axesync/wire"
)

const (
	// pingInterval is how long a connection must be silent before an idle
	// ping is sent to probe it.
	pingInterval = time.Second

	// defaultHandshakeTimeout is the duration the version negotiation may
	// take before the connection is abandoned.
	defaultHandshakeTimeout = 10 * time.Second

	// defaultIdleTimeout is the duration of inactivity on the read side
	// before the connection is considered dead.
	defaultIdleTimeout = 2 * time.Minute

	// outputBufferSize is the number of elements the outbound message
	// queue buffers.
	outputBufferSize = 50

	// recentInvLimit is the number of recently seen inventory hashes
	// remembered per connection so repeated announcements are not
	// re-requested.
	recentInvLimit = 200
)

// State is the lifecycle state of a peer connection.
type State uint32

const (
	// StateConnecting is the initial state before a socket exists.
	StateConnecting State = iota

	// StateHandshaking means the socket is open and version negotiation
	// is in progress.
	StateHandshaking

	// StateReady means the handshake completed and the message loop is
	// running.
	StateReady

	// StateClosing means the connection is being torn down.
	StateClosing

	// StateClosed means the socket has been released.
	StateClosed
)

// String returns the state in human-readable form.
func (s State) String() string {
	switch s {
	case StateConnecting:
		return "connecting"
	case StateHandshaking:
		return "handshaking"
	case StateReady:
		return "ready"
	case StateClosing:
		return "closing"
	case StateClosed:
		return "closed"
	}
	return fmt.Sprintf("unknown state (%d)", uint32(s))
}

var (
	// ErrRequestPending is returned when a second single-slot request is
	// attempted while the first is still outstanding.
	ErrRequestPending = errors.New("request already pending")

	// ErrPeerDisconnected is returned when an operation is attempted on a
	// disconnected peer.
	ErrPeerDisconnected = errors.New("peer disconnected")
)

// MessageListeners defines callback function pointers to invoke with domain
// messages once they have passed the connection-level handling.  Any listener
// may be nil.  The callbacks run on the peer's dispatch goroutine, so they
// must not block.
type MessageListeners struct {
	// OnVersion is invoked when the remote's version message is accepted
	// during the handshake.
	OnVersion func(p *Peer, msg *wire.MsgVersion)

	// OnSpork is invoked for each spork message whose signature verified.
	OnSpork func(p *Peer, msg *wire.MsgSpork)

	// OnISLock is invoked for each received InstantSend lock.
	OnISLock func(p *Peer, msg *wire.MsgISLock)

	// OnAddr is invoked for each received addr message so discovered
	// candidates can be queued for connection.
	OnAddr func(p *Peer, msg *wire.MsgAddr)
}

// Config is the struct to hold configuration options useful to a peer
// connection.
type Config struct {
	// Params identifies the network the peer is expected to speak.
	Params *chaincfg.Params

	// UserAgent advertised in the version message.  DefaultUserAgent is
	// used when empty.
	UserAgent string

	// Services advertised in the version message.
	Services wire.ServiceFlag

	// HandshakeTimeout bounds version negotiation.
	HandshakeTimeout time.Duration

	// IdleTimeout bounds read-side silence before the connection is
	// considered dead.  It should already be scaled up when the dialer
	// routes through a proxy.
	IdleTimeout time.Duration

	// VerifySpork validates a spork message signature.  A non-nil error
	// bans the sending peer.  When nil, sporks are dropped.
	VerifySpork func(msg *wire.MsgSpork) error

	// Listeners houses callback functions to be invoked on receiving
	// peer messages.
	Listeners MessageListeners
}

// Peer provides the lifecycle and message loop for one outbound connection to
// a remote node.  It handles the version handshake, strictly in-order inbound
// dispatch, idle pings, and the single-slot request discipline for
// masternode list diff requests.
type Peer struct {
	// The following variables must only be used atomically.
	bytesReceived uint64
	bytesSent     uint64
	state         uint32
	disconnect    int32

	conn net.Conn
	addr string
	cfg  Config

	// flagsMtx protects the below peer flags and negotiated version info.
	flagsMtx        sync.Mutex
	protocolVersion uint32
	services        wire.ServiceFlag
	userAgent       string
	startHeight     int32
	sentGetAddr     bool

	// statsMtx protects the activity timestamps and ping accounting.
	statsMtx       sync.Mutex
	lastRecv       time.Time
	lastSend       time.Time
	lastPingNonce  uint64
	lastPingTime   time.Time
	lastPingMicros int64

	// banMtx protects banReason.  A non-empty reason at disconnect time
	// tells the manager to record the peer in the ban list.
	banMtx    sync.Mutex
	banReason string

	// knownISLocks bounds re-requests of already seen lock inventory.
	knownISLocks *lru.Set[chainhash.Hash]

	// diffMtx enforces the single outstanding getmnlistd request.  The
	// response channel has capacity one so the dispatch loop can deliver
	// without blocking behind the awaiting requester.
	diffMtx     sync.Mutex
	diffPending bool
	diffChan    chan *wire.MsgMNListDiff

	outputQueue chan wire.Message
	quit        chan struct{}
	wg          sync.WaitGroup
}

// NewOutbound returns a new peer for the given remote address.  The returned
// peer performs no I/O until AssociateConnection is called with an
// established socket.
func NewOutbound(addr string, cfg *Config) *Peer {
	c := *cfg
	if c.UserAgent == "" {
		c.UserAgent = wire.DefaultUserAgent
	}
	if c.HandshakeTimeout == 0 {
		c.HandshakeTimeout = defaultHandshakeTimeout
	}
	if c.IdleTimeout == 0 {
		c.IdleTimeout = defaultIdleTimeout
	}

	return &Peer{
		addr:            addr,
		cfg:             c,
		protocolVersion: chaincfg.ProtocolVersion,
		knownISLocks:    lru.NewSet[chainhash.Hash](recentInvLimit),
		diffChan:        make(chan *wire.MsgMNListDiff, 1),
		outputQueue:     make(chan wire.Message, outputBufferSize),
		quit:            make(chan struct{}),
	}
}

// Addr returns the peer address in host:port form.
func (p *Peer) Addr() string {
	return p.addr
}

// State returns the peer's current lifecycle state.
func (p *Peer) State() State {
	return State(atomic.LoadUint32(&p.state))
}

func (p *Peer) setState(s State) {
	atomic.StoreUint32(&p.state, uint32(s))
}

// String returns the peer's address and directionality as a human-readable
// string.
func (p *Peer) String() string {
	return fmt.Sprintf("%s (%s)", p.addr, directionString(false))
}

// UserAgent returns the user agent of the remote peer.
func (p *Peer) UserAgent() string {
	p.flagsMtx.Lock()
	defer p.flagsMtx.Unlock()
	return p.userAgent
}

// Services returns the services flag of the remote peer.
func (p *Peer) Services() wire.ServiceFlag {
	p.flagsMtx.Lock()
	defer p.flagsMtx.Unlock()
	return p.services
}

// ProtocolVersion returns the negotiated peer protocol version.
func (p *Peer) ProtocolVersion() uint32 {
	p.flagsMtx.Lock()
	defer p.flagsMtx.Unlock()
	return p.protocolVersion
}

// StartHeight returns the last block height advertised by the remote peer in
// its version message.
func (p *Peer) StartHeight() int32 {
	p.flagsMtx.Lock()
	defer p.flagsMtx.Unlock()
	return p.startHeight
}

// LastRecv returns the last time the peer received data.
func (p *Peer) LastRecv() time.Time {
	p.statsMtx.Lock()
	defer p.statsMtx.Unlock()
	return p.lastRecv
}

// LastSend returns the last time the peer sent data.
func (p *Peer) LastSend() time.Time {
	p.statsMtx.Lock()
	defer p.statsMtx.Unlock()
	return p.lastSend
}

// LastPingMicros returns the last ping round-trip time in microseconds.
func (p *Peer) LastPingMicros() int64 {
	p.statsMtx.Lock()
	defer p.statsMtx.Unlock()
	return p.lastPingMicros
}

// BytesSent returns the total number of bytes sent by the peer.
func (p *Peer) BytesSent() uint64 {
	return atomic.LoadUint64(&p.bytesSent)
}

// BytesReceived returns the total number of bytes received by the peer.
func (p *Peer) BytesReceived() uint64 {
	return atomic.LoadUint64(&p.bytesReceived)
}

// BanReason returns the reason the connection was marked for banning, or the
// empty string when the peer is not to be banned.
func (p *Peer) BanReason() string {
	p.banMtx.Lock()
	defer p.banMtx.Unlock()
	return p.banReason
}

// setBanReason records the first ban reason.  Later reasons are ignored since
// the connection is already doomed by the first.
func (p *Peer) setBanReason(reason string) {
	p.banMtx.Lock()
	if p.banReason == "" {
		p.banReason = reason
	}
	p.banMtx.Unlock()
}

// readMessage reads the next wire message from the peer, updating the byte
// counters and the last receive stamp.
func (p *Peer) readMessage() (wire.Message, error) {
	n, msg, _, err := wire.ReadMessageN(p.conn, p.ProtocolVersion(),
		p.cfg.Params.Net)
	atomic.AddUint64(&p.bytesReceived, uint64(n))
	if err != nil {
		return nil, err
	}

	p.statsMtx.Lock()
	p.lastRecv = time.Now()
	p.statsMtx.Unlock()

	log.Debugf("%v", newLogClosure(func() string {
		summary := messageSummary(msg)
		if len(summary) > 0 {
			summary = " (" + summary + ")"
		}
		return fmt.Sprintf("Received %s%s from %s", msg.Command(),
			summary, p)
	}))
	return msg, nil
}

// writeMessage sends a wire message to the peer, updating the byte counters
// and the last send stamp.
func (p *Peer) writeMessage(msg wire.Message) error {
	log.Debugf("%v", newLogClosure(func() string {
		summary := messageSummary(msg)
		if len(summary) > 0 {
			summary = " (" + summary + ")"
		}
		return fmt.Sprintf("Sending %s%s to %s", msg.Command(),
			summary, p)
	}))

	n, err := wire.WriteMessageN(p.conn, msg, p.ProtocolVersion(),
		p.cfg.Params.Net)
	atomic.AddUint64(&p.bytesSent, uint64(n))
	if err != nil {
		return err
	}

	p.statsMtx.Lock()
	p.lastSend = time.Now()
	p.statsMtx.Unlock()
	return nil
}

// localVersionMsg creates a version message for this peer.
func (p *Peer) localVersionMsg() (*wire.MsgVersion, error) {
	nonce, err := wire.RandomUint64()
	if err != nil {
		return nil, err
	}

	theirAddr := &wire.NetAddress{}
	if host, portStr, err := net.SplitHostPort(p.addr); err == nil {
		ip := net.ParseIP(host)
		port, perr := strconv.ParseUint(portStr, 10, 16)
		if ip != nil && perr == nil {
			theirAddr = wire.NewNetAddress(ip, uint16(port), 0)
		}
	}
	ourAddr := &wire.NetAddress{}

	msg := wire.NewMsgVersion(ourAddr, theirAddr, nonce, 0)
	msg.Services = p.cfg.Services
	msg.UserAgent = p.cfg.UserAgent
	return msg, nil
}

// negotiateOutbound performs the outbound version negotiation: send the local
// version, then expect exactly one version and one verack from the remote in
// either relative order within the handshake timeout.  Any other message
// before both have been seen fails the handshake.
func (p *Peer) negotiateOutbound() error {
	localVer, err := p.localVersionMsg()
	if err != nil {
		return err
	}
	if err := p.writeMessage(localVer); err != nil {
		return err
	}

	p.conn.SetReadDeadline(time.Now().Add(p.cfg.HandshakeTimeout))
	defer p.conn.SetReadDeadline(time.Time{})

	var gotVersion, gotVerAck bool
	for !gotVersion || !gotVerAck {
		msg, err := p.readMessage()
		if err != nil {
			if errors.Is(err, wire.ErrUnknownCmd) {
				// Tolerate unknown messages during negotiation
				// the same as known unexpected ones.
				return fmt.Errorf("unexpected message during handshake")
			}
			return err
		}

		switch m := msg.(type) {
		case *wire.MsgVersion:
			if gotVersion {
				return fmt.Errorf("duplicate version message")
			}
			if m.ProtocolVersion < int32(chaincfg.MinProtocolVersion) {
				return fmt.Errorf("protocol version must be %d or "+
					"greater", chaincfg.MinProtocolVersion)
			}
			gotVersion = true

			p.flagsMtx.Lock()
			p.userAgent = m.UserAgent
			p.services = m.Services
			p.startHeight = m.LastBlock
			if uint32(m.ProtocolVersion) < p.protocolVersion {
				p.protocolVersion = uint32(m.ProtocolVersion)
			}
			p.flagsMtx.Unlock()

			if err := p.writeMessage(wire.NewMsgVerAck()); err != nil {
				return err
			}
			if p.cfg.Listeners.OnVersion != nil {
				p.cfg.Listeners.OnVersion(p, m)
			}

		case *wire.MsgVerAck:
			if gotVerAck {
				return fmt.Errorf("duplicate verack message")
			}
			gotVerAck = true

		default:
			return fmt.Errorf("peer sent %s before handshake "+
				"completed", msg.Command())
		}
	}

	return nil
}

// AssociateConnection associates the given conn to the peer, performs the
// handshake, and begins processing messages.  It blocks until the handshake
// completes or fails; a non-nil error means the connection was discarded and
// the peer never became ready.
func (p *Peer) AssociateConnection(conn net.Conn) error {
	p.conn = conn
	p.setState(StateHandshaking)

	if err := p.negotiateOutbound(); err != nil {
		// A wire protocol violation during the handshake is grounds
		// for banning; anything else is just an incompatible or
		// transient peer.
		var mErr wire.MessageError
		if errors.As(err, &mErr) {
			p.setBanReason(fmt.Sprintf("handshake protocol "+
				"violation: %v", mErr))
		}
		log.Debugf("Handshake with %s failed: %v", p, err)
		p.Disconnect()
		p.setState(StateClosed)
		return err
	}

	p.setState(StateReady)
	log.Debugf("Connected to %s (agent %s, pver %d)", p.Addr(),
		p.UserAgent(), p.ProtocolVersion())

	p.wg.Add(3)
	go p.inHandler()
	go p.outHandler()
	go p.pingHandler()
	return nil
}

// shouldBanOnReadError determines whether the given read error indicates the
// remote is violating the protocol rather than the connection merely
// breaking.  Truncations and socket errors are not violations; a compliant
// node can produce those by simply going away.
func shouldBanOnReadError(err error) (string, bool) {
	var mErr wire.MessageError
	if !errors.As(err, &mErr) {
		return "", false
	}
	return fmt.Sprintf("protocol violation: %v", mErr), true
}

// inHandler handles all incoming messages for the peer.  It must be run as a
// goroutine.  Messages are dispatched strictly in arrival order.
func (p *Peer) inHandler() {
	defer p.wg.Done()

out:
	for atomic.LoadInt32(&p.disconnect) == 0 {
		// The read deadline doubles as the connection-health monitor:
		// silence beyond the idle timeout kills the connection.
		p.conn.SetReadDeadline(time.Now().Add(p.cfg.IdleTimeout))

		msg, err := p.readMessage()
		if err != nil {
			if atomic.LoadInt32(&p.disconnect) == 0 {
				if reason, ban := shouldBanOnReadError(err); ban {
					p.setBanReason(reason)
					log.Warnf("Banning %s: %s", p, reason)
				} else {
					log.Debugf("Cannot read message from %s: %v",
						p, err)
				}
			}
			break out
		}

		switch m := msg.(type) {
		case *wire.MsgPing:
			p.QueueMessage(wire.NewMsgPong(m.Nonce))

		case *wire.MsgPong:
			p.handlePong(m)

		case *wire.MsgSpork:
			p.handleSpork(m)

		case *wire.MsgInv:
			p.handleInv(m)

		case *wire.MsgAddr:
			if p.cfg.Listeners.OnAddr != nil {
				p.cfg.Listeners.OnAddr(p, m)
			}

		case *wire.MsgISLock:
			if p.cfg.Listeners.OnISLock != nil {
				p.cfg.Listeners.OnISLock(p, m)
			}

		case *wire.MsgMNListDiff:
			p.handleMNListDiff(m)

		default:
			log.Debugf("Ignoring %s from %s", msg.Command(), p)
		}
	}

	p.Disconnect()
	log.Debugf("Peer input handler done for %s", p)
}

// handlePong matches the pong nonce against the outstanding ping and records
// the round-trip time.  A mismatched nonce is logged but does not disconnect.
func (p *Peer) handlePong(msg *wire.MsgPong) {
	p.statsMtx.Lock()
	defer p.statsMtx.Unlock()
	if p.lastPingNonce == 0 || msg.Nonce != p.lastPingNonce {
		log.Debugf("Unexpected pong nonce %016x from %s", msg.Nonce, p.addr)
		return
	}
	p.lastPingMicros = time.Since(p.lastPingTime).Microseconds()
	p.lastPingNonce = 0
}

// handleSpork verifies a spork signature and forwards it.  A bad signature is
// a ban: a compliant node never relays an unverifiable spork.
func (p *Peer) handleSpork(msg *wire.MsgSpork) {
	if p.cfg.VerifySpork == nil {
		return
	}
	if err := p.cfg.VerifySpork(msg); err != nil {
		p.setBanReason(fmt.Sprintf("invalid spork %d signature: %v",
			msg.SporkID, err))
		log.Warnf("Banning %s: invalid spork %d signature", p, msg.SporkID)
		p.Disconnect()
		return
	}
	if p.cfg.Listeners.OnSpork != nil {
		p.cfg.Listeners.OnSpork(p, msg)
	}
}

// handleInv requests the full data for announced InstantSend locks that have
// not been seen recently.  Other inventory types are not requested.
func (p *Peer) handleInv(msg *wire.MsgInv) {
	gdmsg := wire.NewMsgGetData()
	for _, iv := range msg.InvList {
		if iv.Type != wire.InvTypeISLock {
			continue
		}
		if p.knownISLocks.Contains(iv.Hash) {
			continue
		}
		p.knownISLocks.Put(iv.Hash)
		gdmsg.AddInvVect(iv)
	}
	if len(gdmsg.InvList) > 0 {
		p.QueueMessage(gdmsg)
	}
}

// handleMNListDiff hands the decoded diff to the single-slot response queue
// the requester is awaiting.  An unsolicited diff is dropped.
func (p *Peer) handleMNListDiff(msg *wire.MsgMNListDiff) {
	p.diffMtx.Lock()
	pending := p.diffPending
	p.diffMtx.Unlock()
	if !pending {
		log.Debugf("Dropping unsolicited mnlistdiff from %s", p)
		return
	}
	select {
	case p.diffChan <- msg:
	default:
		log.Debugf("Dropping duplicate mnlistdiff response from %s", p)
	}
}

// outHandler handles all outgoing messages for the peer.  It must be run as a
// goroutine.  It uses a single goroutine so outbound messages are sent in the
// order queued.
func (p *Peer) outHandler() {
	defer p.wg.Done()

out:
	for {
		select {
		case msg := <-p.outputQueue:
			if err := p.writeMessage(msg); err != nil {
				if atomic.LoadInt32(&p.disconnect) == 0 {
					log.Debugf("Cannot send message to %s: %v",
						p, err)
				}
				p.Disconnect()
				break out
			}

		case <-p.quit:
			break out
		}
	}

	log.Debugf("Peer output handler done for %s", p)
}

// pingHandler periodically probes an idle connection.  A ping is only sent
// when the connection has been silent for at least the ping interval and no
// earlier ping is still unanswered.  It must be run as a goroutine.
func (p *Peer) pingHandler() {
	defer p.wg.Done()

	ticker := time.NewTicker(pingInterval)
	defer ticker.Stop()

out:
	for {
		select {
		case <-ticker.C:
			p.statsMtx.Lock()
			idle := time.Since(p.lastRecv) >= pingInterval &&
				time.Since(p.lastSend) >= pingInterval
			pending := p.lastPingNonce != 0
			p.statsMtx.Unlock()
			if !idle || pending {
				continue
			}

			nonce, err := wire.RandomUint64()
			if err != nil {
				log.Errorf("Not sending ping to %s: %v", p, err)
				continue
			}
			p.statsMtx.Lock()
			p.lastPingNonce = nonce
			p.lastPingTime = time.Now()
			p.statsMtx.Unlock()
			p.QueueMessage(wire.NewMsgPing(nonce))

		case <-p.quit:
			break out
		}
	}
}

// QueueMessage adds the passed wire message to the peer's output queue.  The
// message is dropped if the peer is disconnecting.
func (p *Peer) QueueMessage(msg wire.Message) {
	select {
	case p.outputQueue <- msg:
	case <-p.quit:
	}
}

// RequestMNListDiff sends a getmnlistd message for the given block range and
// waits for the matching mnlistdiff response.  Only one request may be
// outstanding per connection; a second concurrent request fails locally with
// ErrRequestPending without transmitting anything.
func (p *Peer) RequestMNListDiff(ctx context.Context, baseBlockHash,
	blockHash *chainhash.Hash) (*wire.MsgMNListDiff, error) {

	p.diffMtx.Lock()
	if p.diffPending {
		p.diffMtx.Unlock()
		log.Debugf("Rejecting overlapping mnlistdiff request to %s", p)
		return nil, ErrRequestPending
	}
	p.diffPending = true
	p.diffMtx.Unlock()

	defer func() {
		p.diffMtx.Lock()
		p.diffPending = false
		p.diffMtx.Unlock()
	}()

	// A previous request abandoned on context cancellation may have left
	// its late-arriving response queued.  That diff belongs to a range
	// this caller never asked for, so discard it before transmitting.
	select {
	case <-p.diffChan:
	default:
	}

	p.QueueMessage(wire.NewMsgGetMNListD(baseBlockHash, blockHash))

	select {
	case diff := <-p.diffChan:
		return diff, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-p.quit:
		return nil, ErrPeerDisconnected
	}
}

// RequestSporks asks the peer for its current spork set.  Responses arrive as
// individual spork messages through the OnSpork listener.
func (p *Peer) RequestSporks() {
	p.QueueMessage(wire.NewMsgGetSporks())
}

// RequestAddresses asks the peer for known addresses of other nodes.  Only
// one getaddr is ever sent per connection; subsequent calls report false and
// send nothing.
func (p *Peer) RequestAddresses() bool {
	p.flagsMtx.Lock()
	if p.sentGetAddr {
		p.flagsMtx.Unlock()
		return false
	}
	p.sentGetAddr = true
	p.flagsMtx.Unlock()

	p.QueueMessage(wire.NewMsgGetAddr())
	return true
}

// Disconnect disconnects the peer by closing the connection.  Calling this
// function when the peer is already disconnected or in the process of
// disconnecting will have no effect.
func (p *Peer) Disconnect() {
	if atomic.AddInt32(&p.disconnect, 1) != 1 {
		return
	}

	p.setState(StateClosing)
	log.Debugf("Disconnecting %s", p)
	if p.conn != nil {
		p.conn.Close()
	}
	close(p.quit)
}

// WaitForDisconnect waits until the peer has completely disconnected and all
// resources are cleaned up.
func (p *Peer) WaitForDisconnect() {
	<-p.quit
	p.wg.Wait()
	p.setState(StateClosed)
}

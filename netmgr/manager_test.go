// Copyright (c) 2024-2026 The AXErunners developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package netmgr

import (
	"context"
	"errors"
	"math/rand"
	"net"
	"path/filepath"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/stretchr/testify/require"

	"github.com/AXErunners/axesync/chaincfg"
	"github.com/AXErunners/axesync/wire"
)

// TestClampPeerTarget ensures the configured peer target is bounded by the
// protocol limits.
func TestClampPeerTarget(t *testing.T) {
	tests := []struct {
		in   int
		want int
	}{
		{-1, 2},
		{0, 2},
		{1, 2},
		{2, 2},
		{5, 5},
		{8, 8},
		{9, 8},
		{100, 8},
	}
	for _, test := range tests {
		require.Equal(t, test.want, clampPeerTarget(test.in),
			"target %d", test.in)
	}
}

// TestSporkQuorum ensures the aggregation quorum is a simple majority of the
// connected peers, with every peer required when two or fewer are connected.
func TestSporkQuorum(t *testing.T) {
	tests := []struct {
		connected int
		want      int
	}{
		{0, 0},
		{1, 1},
		{2, 2},
		{3, 2},
		{4, 3},
		{5, 3},
		{6, 4},
		{8, 5},
	}
	for _, test := range tests {
		require.Equal(t, test.want, sporkQuorum(test.connected),
			"connected %d", test.connected)
	}
}

// TestClampDiffTarget ensures diff requests never span more than one header
// chunk past the base height.
func TestClampDiffTarget(t *testing.T) {
	tests := []struct {
		base   uint32
		target uint32
		want   uint32
	}{
		{0, 100, 100},
		{0, 2016, 2016},
		{0, 5000, 2016},
		{100, 1000, 1000},
		{2015, 100000, 2016},
		{2016, 2017, 2017},
		{2016, 999999, 4032},
	}
	for _, test := range tests {
		require.Equal(t, test.want,
			clampDiffTarget(test.base, test.target),
			"base %d target %d", test.base, test.target)
	}
}

func testSpork(id int32, value, signed int64) *wire.MsgSpork {
	return &wire.MsgSpork{SporkID: id, Value: value, TimeSigned: signed}
}

// TestSporkRegistry exercises the newest-signature-wins update rule, the
// default fallbacks, and the source bookkeeping used for quorum tracking.
func TestSporkRegistry(t *testing.T) {
	r := NewSporkRegistry()

	// Defaults apply before any peer reports.
	v, ok := r.Value(wire.SporkInstantSendEnabled)
	require.True(t, ok)
	require.Equal(t, int64(0), v)
	require.True(t, r.IsActive(wire.SporkInstantSendEnabled))
	_, ok = r.Value(12345)
	require.False(t, ok)

	// A reported value replaces the default.
	r.Update(testSpork(wire.SporkInstantSendEnabled, sporkInactiveValue, 200), "a")
	require.False(t, r.IsActive(wire.SporkInstantSendEnabled))

	// Older signatures never replace newer ones.
	r.Update(testSpork(wire.SporkInstantSendEnabled, 0, 100), "b")
	require.False(t, r.IsActive(wire.SporkInstantSendEnabled))

	// Newer signatures win.
	r.Update(testSpork(wire.SporkInstantSendEnabled, 0, 300), "b")
	require.True(t, r.IsActive(wire.SporkInstantSendEnabled))

	// A future activation timestamp means not yet active.
	future := time.Now().Add(time.Hour).Unix()
	r.Update(testSpork(wire.SporkSuperblocksEnabled, future, 400), "a")
	require.False(t, r.IsActive(wire.SporkSuperblocksEnabled))

	// Both peers contributed at least one spork.
	require.Equal(t, 2, r.SourceCount())
	r.ForgetSource("a")
	require.Equal(t, 1, r.SourceCount())
	r.ForgetSource("a")
	require.Equal(t, 1, r.SourceCount())
}

// TestBanListPersistence ensures bans survive a reload and that expired
// entries stop matching.
func TestBanListPersistence(t *testing.T) {
	path := filepath.Join(t.TempDir(), "banlist.gz")

	bl := NewBanList(path)
	require.False(t, bl.IsBanned("1.2.3.4:9937"))
	bl.Add("1.2.3.4:9937", BanEntry{Reason: "bad checksum"})
	bl.Add("5.6.7.8:9937", BanEntry{
		Reason: "stale",
		Expiry: time.Now().Add(-time.Hour),
	})
	require.True(t, bl.IsBanned("1.2.3.4:9937"))
	require.False(t, bl.IsBanned("5.6.7.8:9937"))

	reloaded := NewBanList(path)
	require.Equal(t, bl.Len(), reloaded.Len())
	require.True(t, reloaded.IsBanned("1.2.3.4:9937"))
	require.False(t, reloaded.IsBanned("9.9.9.9:9937"))
}

// TestRecentPeers ensures the most-recently-used ordering and the length cap.
func TestRecentPeers(t *testing.T) {
	path := filepath.Join(t.TempDir(), "peers.json")

	rp := NewRecentPeers(path)
	for i := 0; i < NumRecentPeers+5; i++ {
		rp.Add(net.JoinHostPort("10.0.0.1", "9937"))
		rp.Add(net.JoinHostPort("10.0.0.2", strconv.Itoa(9000+i)))
	}
	all := rp.All()
	require.Len(t, all, NumRecentPeers)

	rp = NewRecentPeers(filepath.Join(t.TempDir(), "peers.json"))
	rp.Add("a:1")
	rp.Add("b:1")
	rp.Add("a:1")
	require.Equal(t, []string{"a:1", "b:1"}, rp.All())

	reloaded := NewRecentPeers(path)
	require.Equal(t, all, reloaded.All())
}

// serveRemote runs the far end of a manager-owned connection: it completes
// the version handshake and then answers pings until the pipe closes.
func serveRemote(conn net.Conn, axenet chaincfg.AxeNet) {
	defer conn.Close()

	readMsg := func() (wire.Message, error) {
		conn.SetReadDeadline(time.Now().Add(10 * time.Second))
		msg, _, err := wire.ReadMessage(conn, chaincfg.ProtocolVersion, axenet)
		return msg, err
	}
	writeMsg := func(msg wire.Message) error {
		return wire.WriteMessage(conn, msg, chaincfg.ProtocolVersion, axenet)
	}

	if msg, err := readMsg(); err != nil {
		return
	} else if _, ok := msg.(*wire.MsgVersion); !ok {
		return
	}
	ver := wire.NewMsgVersion(&wire.NetAddress{}, &wire.NetAddress{}, 1, 0)
	ver.UserAgent = "/remote:0.1/"
	if err := writeMsg(ver); err != nil {
		return
	}
	if err := writeMsg(wire.NewMsgVerAck()); err != nil {
		return
	}
	if msg, err := readMsg(); err != nil {
		return
	} else if _, ok := msg.(*wire.MsgVerAck); !ok {
		return
	}

	for {
		msg, err := readMsg()
		if err != nil {
			return
		}
		if ping, ok := msg.(*wire.MsgPing); ok {
			if err := writeMsg(wire.NewMsgPong(ping.Nonce)); err != nil {
				return
			}
		}
	}
}

// pipeDialer returns a dial function whose connections are served by
// scripted in-process remotes.
func pipeDialer(params *chaincfg.Params) func(context.Context, string,
	string) (net.Conn, error) {

	return func(_ context.Context, _, _ string) (net.Conn, error) {
		local, remote := net.Pipe()
		go serveRemote(remote, params.Net)
		return local, nil
	}
}

// TestManagerStaticPeers connects a manager to two scripted static peers and
// verifies the pool reaches the target with connect events for both, then
// shuts down cleanly.
func TestManagerStaticPeers(t *testing.T) {
	params := &chaincfg.TestNetParams
	m := New(&Config{
		Params:      params,
		Dial:        pipeDialer(params),
		TargetPeers: 2,
		StaticPeers: []string{"10.0.0.1:19937", "10.0.0.2:19937"},
	})
	events := m.Subscribe()

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		m.Run(ctx)
		close(done)
	}()

	connected := make(map[string]bool)
	deadline := time.After(10 * time.Second)
	for len(connected) < 2 {
		select {
		case ev := <-events:
			if ce, ok := ev.(PeerConnectedEvent); ok {
				connected[ce.Addr] = true
			}
		case <-deadline:
			t.Fatalf("timeout waiting for peers, have %v", connected)
		}
	}
	require.True(t, connected["10.0.0.1:19937"])
	require.True(t, connected["10.0.0.2:19937"])
	require.Equal(t, 2, m.ConnectedCount())
	require.Len(t, m.PeerAddrs(), 2)

	cancel()
	select {
	case <-done:
	case <-time.After(10 * time.Second):
		t.Fatal("timeout waiting for manager shutdown")
	}
	require.Equal(t, 0, m.ConnectedCount())
}

// TestManagerConnectionChurn hammers the control loop with dials that
// randomly fail or hand out connections that disconnect shortly after the
// handshake, and verifies the combined count of connecting and ready peers
// never exceeds the protocol limit at any observation point.
func TestManagerConnectionChurn(t *testing.T) {
	params := &chaincfg.TestNetParams

	var rngMtx sync.Mutex
	rng := rand.New(rand.NewSource(1))
	dial := func(_ context.Context, _, _ string) (net.Conn, error) {
		rngMtx.Lock()
		refuse := rng.Intn(3) == 0
		lifetime := time.Duration(1+rng.Intn(40)) * time.Millisecond
		rngMtx.Unlock()

		if refuse {
			return nil, errors.New("connection refused")
		}
		local, remote := net.Pipe()
		go serveRemote(remote, params.Net)
		time.AfterFunc(lifetime, func() { remote.Close() })
		return local, nil
	}

	addrs := make([]string, 40)
	for i := range addrs {
		addrs[i] = net.JoinHostPort("10.0.0."+strconv.Itoa(i+1), "19937")
	}

	m := New(&Config{
		Params:      params,
		Dial:        dial,
		TargetPeers: 100, // clamped to MaxPeersLimit
	})
	m.AddCandidates(addrs)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		m.Run(ctx)
		close(done)
	}()

	// Sample the pool while the churn runs, topping the candidate pool
	// back up as disconnected addresses fall out of it.
	for deadline := time.Now().Add(2 * time.Second); time.Now().Before(deadline); {
		m.mtx.Lock()
		busy := len(m.peers) + len(m.connecting)
		m.mtx.Unlock()
		require.LessOrEqual(t, busy, MaxPeersLimit)

		m.AddCandidates(addrs)
		time.Sleep(5 * time.Millisecond)
	}

	cancel()
	select {
	case <-done:
	case <-time.After(10 * time.Second):
		t.Fatal("timeout waiting for manager shutdown")
	}

	m.mtx.Lock()
	busy := len(m.peers) + len(m.connecting)
	m.mtx.Unlock()
	require.Zero(t, busy)
}

// TestGetMNListDiffNoPeers ensures a diff request without any ready peer
// fails with ErrNoPeers rather than blocking.
func TestGetMNListDiffNoPeers(t *testing.T) {
	m := New(&Config{
		Params:  &chaincfg.MainNetParams,
		Headers: fixedHeaders{},
	})
	_, _, err := m.GetMNListDiff(context.Background(), 0, 100)
	require.ErrorIs(t, err, ErrNoPeers)
}

type fixedHeaders struct{}

func (fixedHeaders) BlockHash(height uint32) (*chainhash.Hash, error) {
	var h chainhash.Hash
	h[0] = byte(height)
	h[1] = byte(height >> 8)
	return &h, nil
}

// TestEventBusDropsWhenFull ensures a stalled subscriber never blocks
// publishers.
func TestEventBusDropsWhenFull(t *testing.T) {
	var bus eventBus
	ch := bus.Subscribe()
	for i := 0; i < 200; i++ {
		bus.Publish(NetworkActivityEvent{BytesReceived: uint64(i)})
	}
	require.Len(t, ch, 64)
}

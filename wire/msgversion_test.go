// Copyright (c) 2024-2026 The AXErunners developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package wire

import (
	"bytes"
	"errors"
	"net"
	"testing"
	"time"

	"github.com/btcsuite/btcd/chaincfg/chainhash"

	"github.com/AXErunners/axesync/chaincfg"
)

// baseVersionPayload encodes a version message and strips the trailing relay
// flag so tests can append each optional suffix combination by hand.
func baseVersionPayload(t *testing.T) []byte {
	t.Helper()

	you := NewNetAddress(net.ParseIP("192.168.0.1"), 9937, SFNodeNetwork)
	you.Timestamp = time.Time{}
	me := NewNetAddress(net.ParseIP("127.0.0.1"), 9937, SFNodeNetwork)
	me.Timestamp = time.Time{}
	msg := NewMsgVersion(me, you, 0x1234, 7)
	msg.Timestamp = time.Unix(0x495fab29, 0)

	var buf bytes.Buffer
	err := msg.AxeEncode(&buf, chaincfg.ProtocolVersion)
	if err != nil {
		t.Fatalf("AxeEncode: %v", err)
	}

	// The encoder always appends the one byte relay flag.
	return buf.Bytes()[:buf.Len()-1]
}

// TestVersionOptionalFields performs tests to ensure encoded version messages
// with optional fields are handled correctly.  The protocol appended the
// relay flag and the masternode auth challenge over time, so all four suffix
// combinations remain valid on the wire.
func TestVersionOptionalFields(t *testing.T) {
	pver := chaincfg.ProtocolVersion
	base := baseVersionPayload(t)

	challenge := chainhash.Hash{
		0x01, 0x02, 0x03, 0x04, 0x05, 0x06, 0x07, 0x08,
		0x09, 0x0a, 0x0b, 0x0c, 0x0d, 0x0e, 0x0f, 0x10,
		0x11, 0x12, 0x13, 0x14, 0x15, 0x16, 0x17, 0x18,
		0x19, 0x1a, 0x1b, 0x1c, 0x1d, 0x1e, 0x1f, 0x20,
	}

	tests := []struct {
		name           string
		suffix         []byte
		disableRelayTx bool
		wantChallenge  *chainhash.Hash
	}{
		{
			name: "no optional fields",
		},
		{
			name:   "relay flag set",
			suffix: []byte{0x01},
		},
		{
			name:           "relay flag cleared",
			suffix:         []byte{0x00},
			disableRelayTx: true,
		},
		{
			name:          "challenge only",
			suffix:        challenge[:],
			wantChallenge: &challenge,
		},
		{
			name:          "relay flag and challenge",
			suffix:        append([]byte{0x01}, challenge[:]...),
			wantChallenge: &challenge,
		},
	}

	for _, test := range tests {
		payload := append(append([]byte{}, base...), test.suffix...)
		var msg MsgVersion
		err := msg.AxeDecode(bytes.NewBuffer(payload), pver)
		if err != nil {
			t.Errorf("%s: AxeDecode: %v", test.name, err)
			continue
		}

		if msg.DisableRelayTx != test.disableRelayTx {
			t.Errorf("%s: DisableRelayTx - got %v, want %v",
				test.name, msg.DisableRelayTx, test.disableRelayTx)
		}
		switch {
		case test.wantChallenge == nil && msg.MNAuthChallenge != nil:
			t.Errorf("%s: unexpected challenge %v", test.name,
				msg.MNAuthChallenge)
		case test.wantChallenge != nil && (msg.MNAuthChallenge == nil ||
			*msg.MNAuthChallenge != *test.wantChallenge):
			t.Errorf("%s: challenge - got %v, want %v", test.name,
				msg.MNAuthChallenge, test.wantChallenge)
		}
	}
}

// TestVersionTrailingGarbage ensures trailing byte counts that do not match
// any valid optional field combination are rejected.
func TestVersionTrailingGarbage(t *testing.T) {
	pver := chaincfg.ProtocolVersion
	base := baseVersionPayload(t)

	for _, extra := range []int{2, 16, 31, 34, 64} {
		payload := append(append([]byte{}, base...),
			bytes.Repeat([]byte{0xaa}, extra)...)
		var msg MsgVersion
		err := msg.AxeDecode(bytes.NewBuffer(payload), pver)
		if !errors.Is(err, ErrInvalidMsg) {
			t.Errorf("%d trailing bytes: got %v, want %v", extra,
				err, ErrInvalidMsg)
		}
	}
}

// TestVersionUserAgent ensures user agents longer than the maximum are
// rejected on both encode and decode.
func TestVersionUserAgent(t *testing.T) {
	pver := chaincfg.ProtocolVersion

	you := NewNetAddress(net.ParseIP("192.168.0.1"), 9937, 0)
	me := NewNetAddress(net.ParseIP("127.0.0.1"), 9937, 0)
	msg := NewMsgVersion(me, you, 1, 0)
	msg.UserAgent = string(bytes.Repeat([]byte{'x'}, MaxUserAgentLen+1))

	var buf bytes.Buffer
	err := msg.AxeEncode(&buf, pver)
	if !errors.Is(err, ErrUserAgentTooLong) {
		t.Fatalf("AxeEncode: got %v, want %v", err, ErrUserAgentTooLong)
	}
}

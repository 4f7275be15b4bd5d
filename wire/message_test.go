// Copyright (c) 2024-2026 The AXErunners developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package wire

import (
	"bytes"
	"errors"
	"io"
	"net"
	"reflect"
	"testing"
	"time"

	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/davecgh/go-spew/spew"

	"github.com/AXErunners/axesync/chaincfg"
)

// makeHeader is a convenience function to make a message header in the form
// of a byte slice.  It is used to force errors when reading messages.
func makeHeader(axenet chaincfg.AxeNet, command string, payloadLen uint32,
	checksum [4]byte) []byte {

	// The length of an AXE message header is 24 bytes.
	// 4 byte magic number of the network + 12 byte command + 4 byte
	// payload length + 4 byte checksum.
	buf := make([]byte, 24)
	littleEndian.PutUint32(buf, uint32(axenet))
	copy(buf[4:], []byte(command))
	littleEndian.PutUint32(buf[16:], payloadLen)
	copy(buf[20:], checksum[:])
	return buf
}

// TestMessage tests the Read/WriteMessage API for every supported message
// type by round tripping each one over a buffer.
func TestMessage(t *testing.T) {
	pver := chaincfg.ProtocolVersion

	// Create the various types of messages to test.
	you := NewNetAddress(net.ParseIP("192.168.0.1"), 9937, 0)
	you.Timestamp = time.Time{} // Version message has zero value timestamp.
	me := NewNetAddress(net.ParseIP("127.0.0.1"), 9937, 0)
	me.Timestamp = time.Time{} // Version message has zero value timestamp.
	msgVersion := NewMsgVersion(me, you, 123123, 0)
	msgVersion.Timestamp = time.Unix(0x495fab29, 0)

	var zeroHash chainhash.Hash

	msgVerack := NewMsgVerAck()
	msgGetAddr := NewMsgGetAddr()
	msgAddr := NewMsgAddr()
	msgPing := NewMsgPing(123123)
	msgPong := NewMsgPong(123123)
	msgInv := NewMsgInv()
	msgGetData := NewMsgGetData()
	msgGetSporks := NewMsgGetSporks()
	msgGetMNListD := NewMsgGetMNListD(&zeroHash, &zeroHash)
	msgFilterAdd := NewMsgFilterAdd([]byte{0x01})
	msgFilterClear := NewMsgFilterClear()
	msgFilterLoad := NewMsgFilterLoad([]byte{0x01}, 10, 0, BloomUpdateNone)

	tests := []struct {
		in    Message         // Value to encode
		out   Message         // Expected decoded value
		bytes int             // Expected num bytes read/written
		net   chaincfg.AxeNet // Network to use for wire encoding
	}{
		{msgVersion, msgVersion, 110 + len(DefaultUserAgent), chaincfg.MainNet},
		{msgVerack, msgVerack, 24, chaincfg.MainNet},
		{msgGetAddr, msgGetAddr, 24, chaincfg.MainNet},
		{msgAddr, msgAddr, 25, chaincfg.MainNet},
		{msgPing, msgPing, 32, chaincfg.MainNet},
		{msgPong, msgPong, 32, chaincfg.MainNet},
		{msgInv, msgInv, 25, chaincfg.MainNet},
		{msgGetData, msgGetData, 25, chaincfg.MainNet},
		{msgGetSporks, msgGetSporks, 24, chaincfg.MainNet},
		{msgGetMNListD, msgGetMNListD, 88, chaincfg.MainNet},
		{msgFilterAdd, msgFilterAdd, 26, chaincfg.MainNet},
		{msgFilterClear, msgFilterClear, 24, chaincfg.MainNet},
		{msgFilterLoad, msgFilterLoad, 35, chaincfg.MainNet},
	}

	t.Logf("Running %d tests", len(tests))
	for i, test := range tests {
		// Encode to wire format.
		var buf bytes.Buffer
		nw, err := WriteMessageN(&buf, test.in, pver, test.net)
		if err != nil {
			t.Errorf("WriteMessage #%d error %v", i, err)
			continue
		}
		if nw != test.bytes {
			t.Errorf("WriteMessage #%d unexpected num bytes "+
				"written - got %d, want %d", i, nw, test.bytes)
		}

		// Decode from wire format.
		rbuf := bytes.NewReader(buf.Bytes())
		nr, msg, _, err := ReadMessageN(rbuf, pver, test.net)
		if err != nil {
			t.Errorf("ReadMessage #%d error %v, msg %v", i, err,
				spew.Sdump(msg))
			continue
		}
		if !reflect.DeepEqual(msg, test.out) {
			t.Errorf("ReadMessage #%d\n got: %v want: %v", i,
				spew.Sdump(msg), spew.Sdump(test.out))
			continue
		}
		if nr != test.bytes {
			t.Errorf("ReadMessage #%d unexpected num bytes read - "+
				"got %d, want %d", i, nr, test.bytes)
		}
	}
}

// TestEmptyPayloadChecksum ensures a message without a payload is framed with
// the fixed sentinel checksum rather than a computed hash.
func TestEmptyPayloadChecksum(t *testing.T) {
	var buf bytes.Buffer
	err := WriteMessage(&buf, NewMsgVerAck(), chaincfg.ProtocolVersion,
		chaincfg.MainNet)
	if err != nil {
		t.Fatalf("WriteMessage: %v", err)
	}

	header := buf.Bytes()
	if len(header) != MessageHeaderSize {
		t.Fatalf("unexpected framed size - got %d, want %d",
			len(header), MessageHeaderSize)
	}
	var checksum [4]byte
	copy(checksum[:], header[20:])
	if checksum != emptyPayloadChecksum {
		t.Fatalf("unexpected empty payload checksum - got %x, want %x",
			checksum, emptyPayloadChecksum)
	}
}

// TestReadMessageResync ensures the reader slides forward to the network
// start string when garbage precedes a valid message, and gives up with
// ErrNoMagicFound when the magic never appears within the scan bound.
func TestReadMessageResync(t *testing.T) {
	pver := chaincfg.ProtocolVersion

	var valid bytes.Buffer
	err := WriteMessage(&valid, NewMsgPing(987), pver, chaincfg.MainNet)
	if err != nil {
		t.Fatalf("WriteMessage: %v", err)
	}

	// Prepend garbage that does not contain the start string.
	garbage := bytes.Repeat([]byte{0x00}, 37)
	stream := append(append([]byte{}, garbage...), valid.Bytes()...)

	nr, msg, _, err := ReadMessageN(bytes.NewReader(stream), pver,
		chaincfg.MainNet)
	if err != nil {
		t.Fatalf("ReadMessage after garbage: %v", err)
	}
	ping, ok := msg.(*MsgPing)
	if !ok || ping.Nonce != 987 {
		t.Fatalf("unexpected message after resync: %v", spew.Sdump(msg))
	}
	wantBytes := len(garbage) + valid.Len()
	if nr != wantBytes {
		t.Fatalf("unexpected num bytes read - got %d, want %d", nr,
			wantBytes)
	}

	// A stream with no magic at all must fail once the scan bound is hit.
	endless := &zeroReader{limit: MaxMessagePayload + MessageHeaderSize + 1}
	_, _, _, err = ReadMessageN(endless, pver, chaincfg.MainNet)
	if !errors.Is(err, ErrNoMagicFound) {
		t.Fatalf("unexpected error - got %v, want %v", err,
			ErrNoMagicFound)
	}
}

// zeroReader yields limit zero bytes followed by io.EOF.
type zeroReader struct {
	limit int
	read  int
}

func (z *zeroReader) Read(p []byte) (int, error) {
	if z.read >= z.limit {
		return 0, io.EOF
	}
	n := len(p)
	if remaining := z.limit - z.read; n > remaining {
		n = remaining
	}
	for i := 0; i < n; i++ {
		p[i] = 0
	}
	z.read += n
	return n, nil
}

// TestReadMessageWireErrors performs negative tests against wire decoding of
// messages to confirm error paths work correctly.
func TestReadMessageWireErrors(t *testing.T) {
	pver := chaincfg.ProtocolVersion
	axenet := chaincfg.MainNet

	// Wire encoded bytes for a message with an unknown command.
	unknownCommandBytes := makeHeader(axenet, "bogus", 0,
		emptyPayloadChecksum)

	// Wire encoded bytes for a message with a command containing
	// non-ASCII characters.
	badCommandBytes := makeHeader(axenet, "bogus\x08", 0,
		emptyPayloadChecksum)

	// Wire encoded bytes for a ping message whose declared length exceeds
	// the type's maximum payload.
	exceedTypeMaxBytes := makeHeader(axenet, CmdPing, 9,
		[4]byte{0x11, 0x22, 0x33, 0x44})

	// Wire encoded bytes for a ping message with a bad checksum.
	badChecksumBytes := append(makeHeader(axenet, CmdPing, 8,
		[4]byte{0xde, 0xad, 0xbe, 0xef}),
		hexToBytes("0102030405060708")...)

	tests := []struct {
		buf  []byte // Wire encoding
		kind error  // Expected error
	}{
		{unknownCommandBytes, ErrUnknownCmd},
		{badCommandBytes, ErrMalformedCmd},
		{exceedTypeMaxBytes, ErrPayloadTooLarge},
		{badChecksumBytes, ErrPayloadChecksum},
	}

	t.Logf("Running %d tests", len(tests))
	for i, test := range tests {
		rbuf := bytes.NewReader(test.buf)
		_, _, _, err := ReadMessageN(rbuf, pver, axenet)
		if !errors.Is(err, test.kind) {
			t.Errorf("ReadMessage #%d wrong error - got %v, want %v",
				i, err, test.kind)
			continue
		}
	}
}

// TestDecodePayload ensures out of band payload decoding rejects unknown
// commands, oversized payloads, and trailing bytes.
func TestDecodePayload(t *testing.T) {
	pver := chaincfg.ProtocolVersion

	var buf bytes.Buffer
	err := NewMsgPing(42).AxeEncode(&buf, pver)
	if err != nil {
		t.Fatalf("AxeEncode: %v", err)
	}

	msg, err := DecodePayload(CmdPing, buf.Bytes(), pver)
	if err != nil {
		t.Fatalf("DecodePayload: %v", err)
	}
	if ping := msg.(*MsgPing); ping.Nonce != 42 {
		t.Fatalf("unexpected nonce - got %d, want 42", ping.Nonce)
	}

	// Unknown command.
	_, err = DecodePayload("bogus", nil, pver)
	if !errors.Is(err, ErrUnknownCmd) {
		t.Fatalf("unexpected error - got %v, want %v", err, ErrUnknownCmd)
	}

	// Trailing bytes beyond the declared encoding.
	_, err = DecodePayload(CmdPing, append(buf.Bytes(), 0x00), pver)
	if !errors.Is(err, ErrTrailingBytes) {
		t.Fatalf("unexpected error - got %v, want %v", err,
			ErrTrailingBytes)
	}
}

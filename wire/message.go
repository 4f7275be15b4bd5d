// Copyright (c) 2024-2026 The AXErunners developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package wire

import (
	"bytes"
	"fmt"
	"io"

	"github.com/btcsuite/btcd/chaincfg/chainhash"

	"github.com/AXErunners/axesync/chaincfg"
)

// MessageHeaderSize is the number of bytes in an AXE message header.
// Network magic 4 bytes + command 12 bytes + payload length 4 bytes +
// checksum 4 bytes.
const MessageHeaderSize = 24

// CommandSize is the fixed size of all commands in the common AXE message
// header.  Shorter commands must be zero padded.
const CommandSize = 12

// MaxMessagePayload is the maximum bytes a message can be regardless of other
// individual limits imposed by messages themselves.  It also bounds the
// number of bytes scanned while resynchronizing to the network start string.
const MaxMessagePayload = 1024 * 1024 * 32 // 32MiB

// Commands used in message headers which describe the type of message.
const (
	CmdVersion     = "version"
	CmdVerAck      = "verack"
	CmdGetAddr     = "getaddr"
	CmdAddr        = "addr"
	CmdPing        = "ping"
	CmdPong        = "pong"
	CmdInv         = "inv"
	CmdGetData     = "getdata"
	CmdGetSporks   = "getsporks"
	CmdSpork       = "spork"
	CmdISLock      = "islock"
	CmdGetMNListD  = "getmnlistd"
	CmdMNListDiff  = "mnlistdiff"
	CmdQFCommit    = "qfcommit"
	CmdFilterLoad  = "filterload"
	CmdFilterAdd   = "filteradd"
	CmdFilterClear = "filterclear"
)

// emptyPayloadChecksum is the fixed checksum placed in the header of a
// message with no payload.  It matches the first four bytes of the
// double-SHA256 of zero bytes, so a decoder that always hashes still
// accepts framed empty payloads.
var emptyPayloadChecksum = [4]byte{0x5d, 0xf6, 0xe0, 0xe2}

// strict ASCII range for command sanity checks.
const (
	strictAsciiRangeLower = 0x20
	strictAsciiRangeUpper = 0x7e
)

// Message is an interface that describes an AXE wire message.  A type that
// implements Message has complete control over the representation of its data
// and may therefore contain additional or fewer fields than those which are
// used directly in the protocol encoded message.
type Message interface {
	AxeDecode(io.Reader, uint32) error
	AxeEncode(io.Writer, uint32) error
	Command() string
	MaxPayloadLength(uint32) uint32
}

// makeEmptyMessage creates a message of the appropriate concrete type based
// on the command.
func makeEmptyMessage(command string) (Message, error) {
	const op = "makeEmptyMessage"

	var msg Message
	switch command {
	case CmdVersion:
		msg = &MsgVersion{}

	case CmdVerAck:
		msg = &MsgVerAck{}

	case CmdGetAddr:
		msg = &MsgGetAddr{}

	case CmdAddr:
		msg = &MsgAddr{}

	case CmdPing:
		msg = &MsgPing{}

	case CmdPong:
		msg = &MsgPong{}

	case CmdInv:
		msg = &MsgInv{}

	case CmdGetData:
		msg = &MsgGetData{}

	case CmdGetSporks:
		msg = &MsgGetSporks{}

	case CmdSpork:
		msg = &MsgSpork{}

	case CmdISLock:
		msg = &MsgISLock{}

	case CmdGetMNListD:
		msg = &MsgGetMNListD{}

	case CmdMNListDiff:
		msg = &MsgMNListDiff{}

	case CmdQFCommit:
		msg = &MsgQFCommit{}

	case CmdFilterLoad:
		msg = &MsgFilterLoad{}

	case CmdFilterAdd:
		msg = &MsgFilterAdd{}

	case CmdFilterClear:
		msg = &MsgFilterClear{}

	default:
		str := fmt.Sprintf("unhandled command [%s]", command)
		return nil, messageError(op, ErrUnknownCmd, str)
	}
	return msg, nil
}

// messageHeader defines the header structure for all AXE protocol messages.
type messageHeader struct {
	magic    chaincfg.AxeNet // 4 bytes
	command  string          // 12 bytes
	length   uint32          // 4 bytes
	checksum [4]byte         // 4 bytes
}

// scanMessageHeader reads an AXE message header from r, resynchronizing to
// the network start string if the stream is not aligned on a message
// boundary.  At most MaxMessagePayload bytes are discarded before giving up
// with ErrNoMagicFound.  The returned count includes discarded bytes.
func scanMessageHeader(r io.Reader, net chaincfg.AxeNet) (int, *messageHeader, error) {
	const op = "scanMessageHeader"

	var want [4]byte
	littleEndian.PutUint32(want[:], uint32(net))

	var headerBytes [MessageHeaderSize]byte
	n, err := io.ReadFull(r, headerBytes[:])
	totalBytes := n
	if err != nil {
		return totalBytes, nil, err
	}

	// Slide the window one byte at a time until the start string lines up.
	// A remote speaking a different protocol, or garbage injected into the
	// stream, otherwise desynchronizes every following message.
	for !bytes.Equal(headerBytes[:4], want[:]) {
		if totalBytes > MaxMessagePayload {
			msg := fmt.Sprintf("start string %x not found in %d bytes",
				want, totalBytes)
			return totalBytes, nil, messageError(op, ErrNoMagicFound, msg)
		}
		copy(headerBytes[:], headerBytes[1:])
		n, err = io.ReadFull(r, headerBytes[MessageHeaderSize-1:])
		totalBytes += n
		if err != nil {
			return totalBytes, nil, err
		}
	}

	// Create and populate a messageHeader struct from the raw header bytes.
	hr := bytes.NewReader(headerBytes[:])
	hdr := messageHeader{}
	var command [CommandSize]byte
	readElements(hr, &hdr.magic, &command, &hdr.length, &hdr.checksum)

	// Strip trailing zeros from command string.
	hdr.command = string(bytes.TrimRight(command[:], string(rune(0))))

	return totalBytes, &hdr, nil
}

// payloadChecksum computes the header checksum for the provided payload.
func payloadChecksum(payload []byte) [4]byte {
	if len(payload) == 0 {
		return emptyPayloadChecksum
	}
	var checksum [4]byte
	h := chainhash.DoubleHashB(payload)
	copy(checksum[:], h[0:4])
	return checksum
}

// WriteMessageN writes an AXE Message to w including the necessary header
// information and returns the number of bytes written.
func WriteMessageN(w io.Writer, msg Message, pver uint32, net chaincfg.AxeNet) (int, error) {
	const op = "WriteMessage"
	totalBytes := 0

	// Enforce max command size.
	var command [CommandSize]byte
	cmd := msg.Command()
	if len(cmd) > CommandSize {
		msg := fmt.Sprintf("command [%s] is too long [max %v]", cmd, CommandSize)
		return totalBytes, messageError(op, ErrCmdTooLong, msg)
	}
	copy(command[:], []byte(cmd))

	// Encode the message payload.
	var bw bytes.Buffer
	err := msg.AxeEncode(&bw, pver)
	if err != nil {
		return totalBytes, err
	}
	payload := bw.Bytes()

	// Enforce maximum overall message payload.
	if len(payload) > MaxMessagePayload {
		msg := fmt.Sprintf("message payload is too large - encoded "+
			"%d bytes, but maximum message payload is %d bytes",
			len(payload), MaxMessagePayload)
		return totalBytes, messageError(op, ErrPayloadTooLarge, msg)
	}

	// Enforce maximum message payload based on the message type.
	lenp := uint32(len(payload))
	mpl := msg.MaxPayloadLength(pver)
	if lenp > mpl {
		msg := fmt.Sprintf("message payload is too large - encoded "+
			"%d bytes, but maximum message payload size for "+
			"messages of type [%s] is %d", lenp, cmd, mpl)
		return totalBytes, messageError(op, ErrPayloadTooLarge, msg)
	}

	// Encode the header for the message.
	checksum := payloadChecksum(payload)
	hw := bytes.NewBuffer(make([]byte, 0, MessageHeaderSize))
	writeElements(hw, &net, &command, &lenp, &checksum)

	// Write header.
	n, err := w.Write(hw.Bytes())
	totalBytes += n
	if err != nil {
		return totalBytes, err
	}

	// Write payload.
	n, err = w.Write(payload)
	totalBytes += n
	return totalBytes, err
}

// WriteMessage writes an AXE Message to w including the necessary header
// information.  This function is the same as WriteMessageN except it doesn't
// return the number of bytes written.
func WriteMessage(w io.Writer, msg Message, pver uint32, net chaincfg.AxeNet) error {
	_, err := WriteMessageN(w, msg, pver, net)
	return err
}

// ReadMessageN reads, validates, and parses the next AXE Message from r for
// the provided protocol version and AXE network.  It returns the number of
// bytes read in addition to the parsed Message and raw bytes which comprise
// the message.
func ReadMessageN(r io.Reader, pver uint32, net chaincfg.AxeNet) (int, Message, []byte, error) {
	const op = "ReadMessage"
	totalBytes := 0
	n, hdr, err := scanMessageHeader(r, net)
	totalBytes += n
	if err != nil {
		return totalBytes, nil, nil, err
	}

	// Enforce maximum message payload.
	if hdr.length > MaxMessagePayload {
		msg := fmt.Sprintf("message payload is too large - header "+
			"indicates %d bytes, but max message payload is %d bytes",
			hdr.length, MaxMessagePayload)
		return totalBytes, nil, nil, messageError(op, ErrPayloadTooLarge, msg)
	}

	// Check for messages from the wrong AXE network.  The scan above
	// guarantees alignment, so a mismatch here means the caller passed a
	// different network than the one the stream speaks.
	if hdr.magic != net {
		msg := fmt.Sprintf("message from other network [%v]", hdr.magic)
		return totalBytes, nil, nil, messageError(op, ErrWrongNetwork, msg)
	}

	// Check for malformed commands.
	command := hdr.command
	if !isStrictAscii(command) {
		msg := fmt.Sprintf("invalid command %v", []byte(command))
		return totalBytes, nil, nil, messageError(op, ErrMalformedCmd, msg)
	}

	// Create struct of appropriate message type based on the command.
	msg, err := makeEmptyMessage(command)
	if err != nil {
		return totalBytes, nil, nil, err
	}

	// Check for maximum length based on the message type as a malicious
	// client could otherwise create a well-formed header and set the length
	// to max numbers in order to exhaust the machine's memory.
	mpl := msg.MaxPayloadLength(pver)
	if hdr.length > mpl {
		str := fmt.Sprintf("payload exceeds max length - header "+
			"indicates %v bytes, but max payload size for messages of "+
			"type [%v] is %v", hdr.length, command, mpl)
		return totalBytes, nil, nil, messageError(op, ErrPayloadTooLarge, str)
	}

	// Read payload.
	payload := make([]byte, hdr.length)
	n, err = io.ReadFull(r, payload)
	totalBytes += n
	if err != nil {
		return totalBytes, nil, nil, err
	}

	// Test checksum.
	checksum := payloadChecksum(payload)
	if checksum != hdr.checksum {
		str := fmt.Sprintf("payload checksum failed - header indicates %x, "+
			"but actual checksum is %x", hdr.checksum, checksum)
		return totalBytes, nil, nil, messageError(op, ErrPayloadChecksum, str)
	}

	// Unmarshal message.  NOTE: This must be a *bytes.Buffer since the
	// MsgVersion AxeDecode function requires it to discover the optional
	// trailing fields.
	pr := bytes.NewBuffer(payload)
	err = msg.AxeDecode(pr, pver)
	if err != nil {
		return totalBytes, nil, nil, err
	}

	return totalBytes, msg, payload, nil
}

// ReadMessage reads, validates, and parses the next AXE Message from r for
// the provided protocol version and AXE network.  It returns the parsed
// Message and raw bytes which comprise the message.
func ReadMessage(r io.Reader, pver uint32, net chaincfg.AxeNet) (Message, []byte, error) {
	_, msg, buf, err := ReadMessageN(r, pver, net)
	return msg, buf, err
}

// DecodePayload parses a message of the given command from an already framed
// payload.  Unlike ReadMessage it performs no header handling, which makes it
// suitable for payloads transported out of band, and it rejects trailing
// bytes beyond the declared encoding.
func DecodePayload(command string, payload []byte, pver uint32) (Message, error) {
	const op = "DecodePayload"
	msg, err := makeEmptyMessage(command)
	if err != nil {
		return nil, err
	}
	if uint32(len(payload)) > msg.MaxPayloadLength(pver) {
		str := fmt.Sprintf("payload exceeds max length [%d > %d]",
			len(payload), msg.MaxPayloadLength(pver))
		return nil, messageError(op, ErrPayloadTooLarge, str)
	}
	pr := bytes.NewBuffer(payload)
	if err := msg.AxeDecode(pr, pver); err != nil {
		return nil, err
	}
	if pr.Len() != 0 {
		str := fmt.Sprintf("%d trailing bytes after %s payload",
			pr.Len(), command)
		return nil, messageError(op, ErrTrailingBytes, str)
	}
	return msg, nil
}

// isStrictAscii returns true if the provided string only contains runes that
// are within the strict ASCII range.
func isStrictAscii(s string) bool {
	for _, r := range s {
		if r < strictAsciiRangeLower || r > strictAsciiRangeUpper {
			return false
		}
	}
	return true
}

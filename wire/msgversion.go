// Copyright (c) 2024-2026 The AXErunners developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package wire

import (
	"bytes"
	"fmt"
	"io"
	"time"

	"github.com/btcsuite/btcd/chaincfg/chainhash"

	"github.com/AXErunners/axesync/chaincfg"
)

// MaxUserAgentLen is the maximum allowed length for the user agent field in a
// version message.
const MaxUserAgentLen = 256

// DefaultUserAgent for wire.
const DefaultUserAgent = "/axesync:1.0.0/"

// MsgVersion implements the Message interface and represents an AXE version
// message.  It is used for a peer to advertise itself as soon as an outbound
// connection is made.  The remote peer then uses this information along with
// its own to negotiate.  The remote peer must then respond with a version
// message of its own containing the negotiation fields as well as a verack
// message.
type MsgVersion struct {
	// Version of the protocol the node is using.
	ProtocolVersion int32

	// Bitfield which identifies the enabled services.
	Services ServiceFlag

	// Time the message was generated.  This is encoded as an int64 on the
	// wire.
	Timestamp time.Time

	// Address of the remote peer.
	AddrYou NetAddress

	// Address of the local peer.
	AddrMe NetAddress

	// Unique value associated with message that is used to detect self
	// connections.
	Nonce uint64

	// The user agent that generated the message.
	UserAgent string

	// Last block seen by the generator of the version message.
	LastBlock int32

	// DisableRelayTx does not request transaction announcements when true.
	// Optional on the wire; present when one or thirty-three bytes follow
	// the last block field.
	DisableRelayTx bool

	// MNAuthChallenge is the 32 byte challenge a masternode echoes back in
	// its mnauth message.  Optional on the wire; present when thirty-two
	// or thirty-three bytes follow the last block field.  Nil when absent.
	MNAuthChallenge *chainhash.Hash
}

// AxeDecode decodes r using the AXE protocol encoding into the receiver.
// The version message is special in that the protocol version hasn't been
// negotiated yet.  As a result, the pver field is ignored and any fields
// which are added in new versions are optional.
//
// This is part of the Message interface implementation.
func (msg *MsgVersion) AxeDecode(r io.Reader, pver uint32) error {
	const op = "MsgVersion.AxeDecode"
	buf, ok := r.(*bytes.Buffer)
	if !ok {
		return fmt.Errorf("%s: reader is not a *bytes.Buffer", op)
	}

	var ts int64Time
	err := readElements(buf, &msg.ProtocolVersion, &msg.Services, &ts)
	if err != nil {
		return err
	}
	msg.Timestamp = time.Time(ts)

	err = readNetAddress(buf, pver, &msg.AddrYou, false)
	if err != nil {
		return err
	}

	err = readNetAddress(buf, pver, &msg.AddrMe, false)
	if err != nil {
		return err
	}

	err = readElement(buf, &msg.Nonce)
	if err != nil {
		return err
	}

	userAgent, err := ReadVarString(buf, pver)
	if err != nil {
		return err
	}
	err = validateUserAgent(userAgent)
	if err != nil {
		return err
	}
	msg.UserAgent = userAgent

	err = readElement(buf, &msg.LastBlock)
	if err != nil {
		return err
	}

	// The remaining byte count distinguishes which of the optional relay
	// and mnauth challenge fields follow: 1 byte is the relay flag alone,
	// 32 bytes is the challenge alone, 33 is both in that order.
	msg.DisableRelayTx = false
	msg.MNAuthChallenge = nil
	switch buf.Len() {
	case 0:

	case 1:
		var relayTx bool
		if err := readElement(buf, &relayTx); err != nil {
			return err
		}
		msg.DisableRelayTx = !relayTx

	case chainhash.HashSize:
		var challenge chainhash.Hash
		if err := readElement(buf, &challenge); err != nil {
			return err
		}
		msg.MNAuthChallenge = &challenge

	case chainhash.HashSize + 1:
		var relayTx bool
		var challenge chainhash.Hash
		if err := readElements(buf, &relayTx, &challenge); err != nil {
			return err
		}
		msg.DisableRelayTx = !relayTx
		msg.MNAuthChallenge = &challenge

	default:
		str := fmt.Sprintf("unexpected %d trailing bytes in version "+
			"message", buf.Len())
		return messageError(op, ErrInvalidMsg, str)
	}

	return nil
}

// AxeEncode encodes the receiver to w using the AXE protocol encoding.
// This is part of the Message interface implementation.
func (msg *MsgVersion) AxeEncode(w io.Writer, pver uint32) error {
	err := validateUserAgent(msg.UserAgent)
	if err != nil {
		return err
	}

	ts := int64Time(msg.Timestamp)
	err = writeElements(w, &msg.ProtocolVersion, &msg.Services, &ts)
	if err != nil {
		return err
	}

	err = writeNetAddress(w, pver, &msg.AddrYou, false)
	if err != nil {
		return err
	}

	err = writeNetAddress(w, pver, &msg.AddrMe, false)
	if err != nil {
		return err
	}

	err = writeElement(w, &msg.Nonce)
	if err != nil {
		return err
	}

	err = WriteVarString(w, pver, msg.UserAgent)
	if err != nil {
		return err
	}

	err = writeElement(w, &msg.LastBlock)
	if err != nil {
		return err
	}

	relayTx := !msg.DisableRelayTx
	err = writeElement(w, &relayTx)
	if err != nil {
		return err
	}

	if msg.MNAuthChallenge != nil {
		err = writeElement(w, msg.MNAuthChallenge)
		if err != nil {
			return err
		}
	}

	return nil
}

// Command returns the protocol command string for the message.  This is part
// of the Message interface implementation.
func (msg *MsgVersion) Command() string {
	return CmdVersion
}

// MaxPayloadLength returns the maximum length the payload can be for the
// receiver.  This is part of the Message interface implementation.
func (msg *MsgVersion) MaxPayloadLength(pver uint32) uint32 {
	// Protocol version 4 bytes + services 8 bytes + timestamp 8 bytes +
	// remote and local net addresses without stamps + nonce 8 bytes +
	// length of user agent (varInt) + max allowed user agent length +
	// last block 4 bytes + relay flag 1 byte + mnauth challenge 32 bytes.
	return 33 + (maxNetAddressPayload()-4)*2 + MaxVarIntPayload +
		MaxUserAgentLen + 4 + 1 + chainhash.HashSize
}

// NewMsgVersion returns a new AXE version message that conforms to the
// Message interface using the passed parameters and defaults for the
// remaining fields.
func NewMsgVersion(me *NetAddress, you *NetAddress, nonce uint64,
	lastBlock int32) *MsgVersion {

	// Limit the timestamp to one second precision since the protocol
	// doesn't support better.
	return &MsgVersion{
		ProtocolVersion: int32(chaincfg.ProtocolVersion),
		Services:        0,
		Timestamp:       time.Unix(time.Now().Unix(), 0),
		AddrYou:         *you,
		AddrMe:          *me,
		Nonce:           nonce,
		UserAgent:       DefaultUserAgent,
		LastBlock:       lastBlock,
		DisableRelayTx:  false,
	}
}

// validateUserAgent checks userAgent length against MaxUserAgentLen.
func validateUserAgent(userAgent string) error {
	const op = "validateUserAgent"
	if len(userAgent) > MaxUserAgentLen {
		msg := fmt.Sprintf("user agent too long [len %v, max %v]",
			len(userAgent), MaxUserAgentLen)
		return messageError(op, ErrUserAgentTooLong, msg)
	}
	return nil
}

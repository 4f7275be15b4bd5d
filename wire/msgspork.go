// Copyright (c) 2024-2026 The AXErunners developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package wire

import (
	"bytes"
	"fmt"
	"io"

	"github.com/btcsuite/btcd/chaincfg/chainhash"
)

// SporkSignatureSize is the exact size of the compact ECDSA signature carried
// by a spork message.
const SporkSignatureSize = 65

// Well-known spork ids.  The network uses sporks as signed feature flags; the
// ids are assigned by the protocol and never reused.
const (
	SporkInstantSendEnabled     int32 = 10001
	SporkInstantSendBlockFilter int32 = 10002
	SporkSuperblocksEnabled     int32 = 10008
	SporkNewSigs                int32 = 10015
)

// MsgSpork implements the Message interface and represents an AXE spork
// message.  Sporks are network-wide feature flags signed by the spork key;
// every node relays them and applies the highest-timestamped value per id.
type MsgSpork struct {
	// SporkID identifies which feature flag this message updates.
	SporkID int32

	// Value is the flag payload.  By convention a unix timestamp in the
	// past means active and a far-future timestamp means inactive.
	Value int64

	// TimeSigned is when the spork key produced the signature.
	TimeSigned int64

	// Signature is the 65 byte compact ECDSA signature over the spork
	// fields.
	Signature [SporkSignatureSize]byte
}

// AxeDecode decodes r using the AXE protocol encoding into the receiver.
// This is part of the Message interface implementation.
func (msg *MsgSpork) AxeDecode(r io.Reader, pver uint32) error {
	const op = "MsgSpork.AxeDecode"
	err := readElements(r, &msg.SporkID, &msg.Value, &msg.TimeSigned)
	if err != nil {
		return err
	}

	sig, err := ReadVarBytes(r, pver, SporkSignatureSize, "spork signature")
	if err != nil {
		return err
	}
	if len(sig) != SporkSignatureSize {
		str := fmt.Sprintf("spork signature is not %d bytes [len %d]",
			SporkSignatureSize, len(sig))
		return messageError(op, ErrInvalidSigSize, str)
	}
	copy(msg.Signature[:], sig)
	return nil
}

// AxeEncode encodes the receiver to w using the AXE protocol encoding.
// This is part of the Message interface implementation.
func (msg *MsgSpork) AxeEncode(w io.Writer, pver uint32) error {
	err := writeElements(w, &msg.SporkID, &msg.Value, &msg.TimeSigned)
	if err != nil {
		return err
	}
	return WriteVarBytes(w, pver, msg.Signature[:])
}

// Command returns the protocol command string for the message.  This is part
// of the Message interface implementation.
func (msg *MsgSpork) Command() string {
	return CmdSpork
}

// MaxPayloadLength returns the maximum length the payload can be for the
// receiver.  This is part of the Message interface implementation.
func (msg *MsgSpork) MaxPayloadLength(pver uint32) uint32 {
	// Spork id 4 bytes + value 8 bytes + time signed 8 bytes + signature
	// length (varInt) + signature 65 bytes.
	return 4 + 8 + 8 + uint32(VarIntSerializeSize(SporkSignatureSize)) +
		SporkSignatureSize
}

// SignatureHash returns the double-SHA256 digest the new signature scheme
// commits to: the serialized spork id, value and signing time.
func (msg *MsgSpork) SignatureHash() chainhash.Hash {
	var buf bytes.Buffer
	writeElements(&buf, &msg.SporkID, &msg.Value, &msg.TimeSigned)
	return chainhash.DoubleHashH(buf.Bytes())
}

// LegacyMessage returns the string form of the spork the legacy signature
// scheme signs through the signed-message magic: the decimal concatenation of
// the spork id, value and signing time.
func (msg *MsgSpork) LegacyMessage() string {
	return fmt.Sprintf("%d%d%d", msg.SporkID, msg.Value, msg.TimeSigned)
}

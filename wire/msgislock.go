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

// maxISLockInputs is the maximum number of inputs an instant send lock may
// cover.  It mirrors the consensus limit on non-coinbase transaction inputs
// that are eligible for locking.
const maxISLockInputs = 100

// islockRequestIDPrefix is the tagged prefix hashed into an instant send
// lock's deterministic request id.
const islockRequestIDPrefix = "islock"

// outPointSerializeSize is the serialized size of an outpoint on the wire.
const outPointSerializeSize = chainhash.HashSize + 4

// MsgISLock implements the Message interface and represents an AXE islock
// message.  It asserts that the quorum has locked every referenced outpoint
// in favor of the named transaction.
type MsgISLock struct {
	Inputs    []OutPoint
	TxHash    chainhash.Hash
	Signature [BLSSignatureSize]byte
}

// AddInput adds an outpoint to the lock's input set.
func (msg *MsgISLock) AddInput(op OutPoint) {
	msg.Inputs = append(msg.Inputs, op)
}

// RequestID returns the deterministic request id used to select the quorum
// responsible for signing the lock.  It commits to the full input set but
// not to the transaction hash.
func (msg *MsgISLock) RequestID() chainhash.Hash {
	var buf bytes.Buffer
	_ = WriteVarString(&buf, 0, islockRequestIDPrefix)
	_ = WriteVarInt(&buf, 0, uint64(len(msg.Inputs)))
	for i := range msg.Inputs {
		_ = writeOutPoint(&buf, 0, &msg.Inputs[i])
	}
	return chainhash.DoubleHashH(buf.Bytes())
}

// AxeDecode decodes r using the AXE protocol encoding into the receiver.
// This is part of the Message interface implementation.
func (msg *MsgISLock) AxeDecode(r io.Reader, pver uint32) error {
	const op = "MsgISLock.AxeDecode"
	count, err := ReadVarInt(r, pver)
	if err != nil {
		return err
	}
	if count > maxISLockInputs {
		str := fmt.Sprintf("too many lock inputs [count %d, max %d]",
			count, maxISLockInputs)
		return messageError(op, ErrTooManyVectors, str)
	}

	msg.Inputs = make([]OutPoint, count)
	for i := uint64(0); i < count; i++ {
		err = readOutPoint(r, pver, &msg.Inputs[i])
		if err != nil {
			return err
		}
	}

	return readElements(r, &msg.TxHash, &msg.Signature)
}

// AxeEncode encodes the receiver to w using the AXE protocol encoding.
// This is part of the Message interface implementation.
func (msg *MsgISLock) AxeEncode(w io.Writer, pver uint32) error {
	err := WriteVarInt(w, pver, uint64(len(msg.Inputs)))
	if err != nil {
		return err
	}
	for i := range msg.Inputs {
		err = writeOutPoint(w, pver, &msg.Inputs[i])
		if err != nil {
			return err
		}
	}

	return writeElements(w, &msg.TxHash, &msg.Signature)
}

// Command returns the protocol command string for the message.  This is part
// of the Message interface implementation.
func (msg *MsgISLock) Command() string {
	return CmdISLock
}

// MaxPayloadLength returns the maximum length the payload can be for the
// receiver.  This is part of the Message interface implementation.
func (msg *MsgISLock) MaxPayloadLength(pver uint32) uint32 {
	// Input count + max inputs + txid + BLS signature.
	return uint32(VarIntSerializeSize(maxISLockInputs)) +
		maxISLockInputs*outPointSerializeSize + chainhash.HashSize +
		BLSSignatureSize
}

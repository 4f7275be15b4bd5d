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

const (
	// TxVersionSpecial is the transaction version that introduced typed
	// transactions with an extra payload.
	TxVersionSpecial uint16 = 3

	// TxTypeClassical identifies a transaction without a special payload.
	TxTypeClassical uint16 = 0

	// TxTypeCoinbase identifies a coinbase special transaction (CbTx)
	// whose extra payload commits to the masternode list and quorum
	// merkle roots.
	TxTypeCoinbase uint16 = 5

	// maxTxInPerMessage is the maximum number of transaction inputs a
	// decoded transaction may declare.  The smallest possible input is 41
	// bytes, so this bounds allocations from a malicious count.
	maxTxInPerMessage = MaxMessagePayload/41 + 1

	// maxTxOutPerMessage is the equivalent bound for outputs, whose
	// smallest encoding is 9 bytes.
	maxTxOutPerMessage = MaxMessagePayload/9 + 1

	// maxScriptSize is the maximum script length accepted by the decoder.
	maxScriptSize = 10000

	// MaxExtraPayloadSize is the maximum size of a special transaction
	// extra payload.
	MaxExtraPayloadSize = 10000
)

// OutPoint defines an AXE data type that is used to track previous
// transaction outputs.
type OutPoint struct {
	Hash  chainhash.Hash
	Index uint32
}

// NewOutPoint returns a new AXE transaction outpoint point with the provided
// hash and index.
func NewOutPoint(hash *chainhash.Hash, index uint32) *OutPoint {
	return &OutPoint{
		Hash:  *hash,
		Index: index,
	}
}

// String returns the OutPoint in the human-readable form "hash:index".
func (o OutPoint) String() string {
	return fmt.Sprintf("%s:%d", o.Hash, o.Index)
}

// readOutPoint reads the next sequence of bytes from r as an OutPoint.
func readOutPoint(r io.Reader, pver uint32, op *OutPoint) error {
	return readElements(r, &op.Hash, &op.Index)
}

// writeOutPoint encodes op to the AXE protocol encoding for an OutPoint to w.
func writeOutPoint(w io.Writer, pver uint32, op *OutPoint) error {
	return writeElements(w, &op.Hash, &op.Index)
}

// TxIn defines an AXE transaction input.
type TxIn struct {
	PreviousOutPoint OutPoint
	SignatureScript  []byte
	Sequence         uint32
}

// TxOut defines an AXE transaction output.
type TxOut struct {
	Value    int64
	PkScript []byte
}

// MsgTx implements the Message interface and represents an AXE tx message.
// It is used to deliver transaction information in response to a getdata
// message for a given transaction, and it is embedded whole inside a
// mnlistdiff message as the coinbase transaction of the target block.
//
// The version field is split on the wire: the low 16 bits are the classical
// transaction version and the high 16 bits carry the special transaction
// type.  Typed transactions append a variable-length extra payload after the
// lock time.
type MsgTx struct {
	Version      uint16
	TxType       uint16
	TxIn         []*TxIn
	TxOut        []*TxOut
	LockTime     uint32
	ExtraPayload []byte
}

// TxHash generates the hash for the transaction.
func (msg *MsgTx) TxHash() chainhash.Hash {
	var buf bytes.Buffer
	msg.AxeEncode(&buf, 0)
	return chainhash.DoubleHashH(buf.Bytes())
}

// HasExtraPayload reports whether the transaction carries a special payload.
func (msg *MsgTx) HasExtraPayload() bool {
	return msg.Version >= TxVersionSpecial && msg.TxType != TxTypeClassical
}

// AxeDecode decodes r using the AXE protocol encoding into the receiver.
// This is part of the Message interface implementation.
func (msg *MsgTx) AxeDecode(r io.Reader, pver uint32) error {
	const op = "MsgTx.AxeDecode"
	var verType uint32
	err := readElement(r, &verType)
	if err != nil {
		return err
	}
	msg.Version = uint16(verType & 0xffff)
	msg.TxType = uint16(verType >> 16)

	count, err := ReadVarInt(r, pver)
	if err != nil {
		return err
	}
	if count > maxTxInPerMessage {
		str := fmt.Sprintf("too many input transactions [count %d, max %d]",
			count, maxTxInPerMessage)
		return messageError(op, ErrInvalidMsg, str)
	}

	msg.TxIn = make([]*TxIn, count)
	for i := uint64(0); i < count; i++ {
		ti := new(TxIn)
		err = readOutPoint(r, pver, &ti.PreviousOutPoint)
		if err != nil {
			return err
		}
		ti.SignatureScript, err = ReadVarBytes(r, pver, maxScriptSize,
			"transaction input signature script")
		if err != nil {
			return err
		}
		err = readElement(r, &ti.Sequence)
		if err != nil {
			return err
		}
		msg.TxIn[i] = ti
	}

	count, err = ReadVarInt(r, pver)
	if err != nil {
		return err
	}
	if count > maxTxOutPerMessage {
		str := fmt.Sprintf("too many output transactions [count %d, max %d]",
			count, maxTxOutPerMessage)
		return messageError(op, ErrInvalidMsg, str)
	}

	msg.TxOut = make([]*TxOut, count)
	for i := uint64(0); i < count; i++ {
		to := new(TxOut)
		err = readElement(r, &to.Value)
		if err != nil {
			return err
		}
		to.PkScript, err = ReadVarBytes(r, pver, maxScriptSize,
			"transaction output public key script")
		if err != nil {
			return err
		}
		msg.TxOut[i] = to
	}

	err = readElement(r, &msg.LockTime)
	if err != nil {
		return err
	}

	msg.ExtraPayload = nil
	if msg.HasExtraPayload() {
		msg.ExtraPayload, err = ReadVarBytes(r, pver, MaxExtraPayloadSize,
			"transaction extra payload")
		if err != nil {
			return err
		}
	}

	return nil
}

// AxeEncode encodes the receiver to w using the AXE protocol encoding.
// This is part of the Message interface implementation.
func (msg *MsgTx) AxeEncode(w io.Writer, pver uint32) error {
	verType := uint32(msg.Version) | uint32(msg.TxType)<<16
	err := writeElement(w, &verType)
	if err != nil {
		return err
	}

	err = WriteVarInt(w, pver, uint64(len(msg.TxIn)))
	if err != nil {
		return err
	}
	for _, ti := range msg.TxIn {
		err = writeOutPoint(w, pver, &ti.PreviousOutPoint)
		if err != nil {
			return err
		}
		err = WriteVarBytes(w, pver, ti.SignatureScript)
		if err != nil {
			return err
		}
		err = writeElement(w, &ti.Sequence)
		if err != nil {
			return err
		}
	}

	err = WriteVarInt(w, pver, uint64(len(msg.TxOut)))
	if err != nil {
		return err
	}
	for _, to := range msg.TxOut {
		err = writeElement(w, &to.Value)
		if err != nil {
			return err
		}
		err = WriteVarBytes(w, pver, to.PkScript)
		if err != nil {
			return err
		}
	}

	err = writeElement(w, &msg.LockTime)
	if err != nil {
		return err
	}

	if msg.HasExtraPayload() {
		err = WriteVarBytes(w, pver, msg.ExtraPayload)
		if err != nil {
			return err
		}
	}

	return nil
}

// Command returns the protocol command string for the message.  This is part
// of the Message interface implementation.
func (msg *MsgTx) Command() string {
	return "tx"
}

// MaxPayloadLength returns the maximum length the payload can be for the
// receiver.  This is part of the Message interface implementation.
func (msg *MsgTx) MaxPayloadLength(pver uint32) uint32 {
	return MaxMessagePayload
}

// NewMsgTx returns a new AXE tx message that conforms to the Message
// interface.
func NewMsgTx() *MsgTx {
	return &MsgTx{
		Version: 1,
		TxType:  TxTypeClassical,
	}
}

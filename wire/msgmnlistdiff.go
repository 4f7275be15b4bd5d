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

const (
	// maxDiffHashes bounds every hash list inside a mnlistdiff payload.
	maxDiffHashes = MaxMessagePayload / chainhash.HashSize

	// maxDiffEntries bounds the number of SML entries in one diff.
	maxDiffEntries = MaxMessagePayload / SMLEntrySize
)

// DeletedQuorum identifies one quorum removed by a masternode list diff.
type DeletedQuorum struct {
	LLMQType   chaincfg.LLMQType
	QuorumHash chainhash.Hash
}

// MsgMNListDiff implements the Message interface and represents an AXE
// mnlistdiff message.  It carries the incremental change set of the
// simplified masternode list and the active quorum set between two block
// heights, along with the partial merkle proof that ties the coinbase
// special transaction to the target block.
type MsgMNListDiff struct {
	// BaseBlockHash and BlockHash delimit the diff's block range.
	BaseBlockHash chainhash.Hash
	BlockHash     chainhash.Hash

	// TotalTransactions is the number of transactions in the target
	// block.  Together with MerkleHashes and MerkleFlags it forms the
	// partial merkle tree proving CbTx's inclusion.
	TotalTransactions uint32
	MerkleHashes      []chainhash.Hash
	MerkleFlags       []byte

	// CbTx is the target block's coinbase transaction, carried whole so
	// its special payload and its hash can be verified independently.
	CbTx MsgTx

	// DeletedMNs lists the proRegTxHashes removed from the list.
	DeletedMNs []chainhash.Hash

	// MNList lists the entries added or updated, keyed by proRegTxHash.
	MNList []*SMLEntry

	// DeletedQuorums and NewQuorums carry the quorum change set.  They
	// are only present on the wire when bytes remain after the masternode
	// sections.
	DeletedQuorums []DeletedQuorum
	NewQuorums     []*MsgQFCommit

	// HasQuorums reports whether the optional quorum sections were
	// present.
	HasQuorums bool
}

// AxeDecode decodes r using the AXE protocol encoding into the receiver.
// The reader must be a *bytes.Buffer so the optional quorum sections can be
// detected from the remaining byte count.
//
// This is part of the Message interface implementation.
func (msg *MsgMNListDiff) AxeDecode(r io.Reader, pver uint32) error {
	const op = "MsgMNListDiff.AxeDecode"
	buf, ok := r.(*bytes.Buffer)
	if !ok {
		return fmt.Errorf("%s: reader is not a *bytes.Buffer", op)
	}

	err := readElements(buf, &msg.BaseBlockHash, &msg.BlockHash,
		&msg.TotalTransactions)
	if err != nil {
		return err
	}

	// Partial merkle tree hashes.  A valid proof never carries more
	// hashes than the block has transactions.
	count, err := ReadVarInt(buf, pver)
	if err != nil {
		return err
	}
	if count > uint64(msg.TotalTransactions) || count > maxDiffHashes {
		str := fmt.Sprintf("too many proof hashes [count %d, block "+
			"transactions %d]", count, msg.TotalTransactions)
		return messageError(op, ErrTooManyProofHashes, str)
	}
	msg.MerkleHashes = make([]chainhash.Hash, count)
	for i := uint64(0); i < count; i++ {
		err = readElement(buf, &msg.MerkleHashes[i])
		if err != nil {
			return err
		}
	}

	msg.MerkleFlags, err = ReadVarBytes(buf, pver, MaxMessagePayload,
		"partial merkle tree flags")
	if err != nil {
		return err
	}

	err = msg.CbTx.AxeDecode(buf, pver)
	if err != nil {
		return err
	}

	// Deleted masternodes.
	count, err = ReadVarInt(buf, pver)
	if err != nil {
		return err
	}
	if count > maxDiffHashes {
		str := fmt.Sprintf("too many deleted masternodes [count %d]", count)
		return messageError(op, ErrInvalidMsg, str)
	}
	msg.DeletedMNs = make([]chainhash.Hash, count)
	for i := uint64(0); i < count; i++ {
		err = readElement(buf, &msg.DeletedMNs[i])
		if err != nil {
			return err
		}
	}

	// Added or updated masternodes.
	count, err = ReadVarInt(buf, pver)
	if err != nil {
		return err
	}
	if count > maxDiffEntries {
		str := fmt.Sprintf("too many masternode entries [count %d]", count)
		return messageError(op, ErrInvalidMsg, str)
	}
	entries := make([]SMLEntry, count)
	msg.MNList = make([]*SMLEntry, count)
	for i := uint64(0); i < count; i++ {
		entry := &entries[i]
		err = entry.Decode(buf, pver)
		if err != nil {
			return err
		}
		msg.MNList[i] = entry
	}

	// The quorum sections were appended to the message in a later
	// protocol revision, so their presence is signaled purely by bytes
	// remaining.
	msg.DeletedQuorums = nil
	msg.NewQuorums = nil
	msg.HasQuorums = buf.Len() > 0
	if !msg.HasQuorums {
		return nil
	}

	count, err = ReadVarInt(buf, pver)
	if err != nil {
		return err
	}
	if count > maxDiffHashes {
		str := fmt.Sprintf("too many deleted quorums [count %d]", count)
		return messageError(op, ErrInvalidMsg, str)
	}
	msg.DeletedQuorums = make([]DeletedQuorum, count)
	for i := uint64(0); i < count; i++ {
		dq := &msg.DeletedQuorums[i]
		err = readElements(buf, &dq.LLMQType, &dq.QuorumHash)
		if err != nil {
			return err
		}
	}

	count, err = ReadVarInt(buf, pver)
	if err != nil {
		return err
	}
	if count > maxDiffHashes {
		str := fmt.Sprintf("too many new quorums [count %d]", count)
		return messageError(op, ErrInvalidMsg, str)
	}
	msg.NewQuorums = make([]*MsgQFCommit, count)
	for i := uint64(0); i < count; i++ {
		qc := new(MsgQFCommit)
		err = qc.AxeDecode(buf, pver)
		if err != nil {
			return err
		}
		msg.NewQuorums[i] = qc
	}

	if buf.Len() != 0 {
		str := fmt.Sprintf("%d trailing bytes after mnlistdiff payload",
			buf.Len())
		return messageError(op, ErrTrailingBytes, str)
	}

	return nil
}

// AxeEncode encodes the receiver to w using the AXE protocol encoding.
// This is part of the Message interface implementation.
func (msg *MsgMNListDiff) AxeEncode(w io.Writer, pver uint32) error {
	err := writeElements(w, &msg.BaseBlockHash, &msg.BlockHash,
		&msg.TotalTransactions)
	if err != nil {
		return err
	}

	err = WriteVarInt(w, pver, uint64(len(msg.MerkleHashes)))
	if err != nil {
		return err
	}
	for i := range msg.MerkleHashes {
		err = writeElement(w, &msg.MerkleHashes[i])
		if err != nil {
			return err
		}
	}

	err = WriteVarBytes(w, pver, msg.MerkleFlags)
	if err != nil {
		return err
	}

	err = msg.CbTx.AxeEncode(w, pver)
	if err != nil {
		return err
	}

	err = WriteVarInt(w, pver, uint64(len(msg.DeletedMNs)))
	if err != nil {
		return err
	}
	for i := range msg.DeletedMNs {
		err = writeElement(w, &msg.DeletedMNs[i])
		if err != nil {
			return err
		}
	}

	err = WriteVarInt(w, pver, uint64(len(msg.MNList)))
	if err != nil {
		return err
	}
	for _, entry := range msg.MNList {
		err = entry.Encode(w, pver)
		if err != nil {
			return err
		}
	}

	if !msg.HasQuorums {
		return nil
	}

	err = WriteVarInt(w, pver, uint64(len(msg.DeletedQuorums)))
	if err != nil {
		return err
	}
	for i := range msg.DeletedQuorums {
		dq := &msg.DeletedQuorums[i]
		err = writeElements(w, &dq.LLMQType, &dq.QuorumHash)
		if err != nil {
			return err
		}
	}

	err = WriteVarInt(w, pver, uint64(len(msg.NewQuorums)))
	if err != nil {
		return err
	}
	for _, qc := range msg.NewQuorums {
		err = qc.AxeEncode(w, pver)
		if err != nil {
			return err
		}
	}

	return nil
}

// Command returns the protocol command string for the message.  This is part
// of the Message interface implementation.
func (msg *MsgMNListDiff) Command() string {
	return CmdMNListDiff
}

// MaxPayloadLength returns the maximum length the payload can be for the
// receiver.  This is part of the Message interface implementation.
func (msg *MsgMNListDiff) MaxPayloadLength(pver uint32) uint32 {
	return MaxMessagePayload
}

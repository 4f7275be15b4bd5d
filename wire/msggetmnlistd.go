// Copyright (c) 2024-2026 The AXErunners developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package wire

import (
	"io"

	"github.com/btcsuite/btcd/chaincfg/chainhash"
)

// MsgGetMNListD implements the Message interface and represents an AXE
// getmnlistd message.  It requests the incremental masternode list diff
// between the blocks identified by BaseBlockHash and BlockHash; the remote
// answers with a mnlistdiff message (MsgMNListDiff).
type MsgGetMNListD struct {
	// BaseBlockHash is the block the requester's view is current to.  A
	// zero hash requests the full list from genesis.
	BaseBlockHash chainhash.Hash

	// BlockHash is the block the requester wants to advance to.
	BlockHash chainhash.Hash
}

// AxeDecode decodes r using the AXE protocol encoding into the receiver.
// This is part of the Message interface implementation.
func (msg *MsgGetMNListD) AxeDecode(r io.Reader, pver uint32) error {
	return readElements(r, &msg.BaseBlockHash, &msg.BlockHash)
}

// AxeEncode encodes the receiver to w using the AXE protocol encoding.
// This is part of the Message interface implementation.
func (msg *MsgGetMNListD) AxeEncode(w io.Writer, pver uint32) error {
	return writeElements(w, &msg.BaseBlockHash, &msg.BlockHash)
}

// Command returns the protocol command string for the message.  This is part
// of the Message interface implementation.
func (msg *MsgGetMNListD) Command() string {
	return CmdGetMNListD
}

// MaxPayloadLength returns the maximum length the payload can be for the
// receiver.  This is part of the Message interface implementation.
func (msg *MsgGetMNListD) MaxPayloadLength(pver uint32) uint32 {
	return 2 * chainhash.HashSize
}

// NewMsgGetMNListD returns a new AXE getmnlistd message that conforms to the
// Message interface.
func NewMsgGetMNListD(baseBlockHash, blockHash *chainhash.Hash) *MsgGetMNListD {
	return &MsgGetMNListD{
		BaseBlockHash: *baseBlockHash,
		BlockHash:     *blockHash,
	}
}

// Copyright (c) 2024-2026 The AXErunners developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package wire

import (
	"bytes"
	"io"
	"time"

	"github.com/btcsuite/btcd/chaincfg/chainhash"
)

// BlockHeaderSize is the number of bytes a serialized block header occupies.
const BlockHeaderSize = 80

// BlockHeader defines information about a block.  Only the fields needed to
// verify proof chains and coinbase inclusion are interpreted.
type BlockHeader struct {
	Version    int32
	PrevBlock  chainhash.Hash
	MerkleRoot chainhash.Hash
	Timestamp  time.Time
	Bits       uint32
	Nonce      uint32
}

// BlockHash computes the block identifier hash for the header.
func (h *BlockHeader) BlockHash() chainhash.Hash {
	buf := bytes.NewBuffer(make([]byte, 0, BlockHeaderSize))
	_ = writeBlockHeader(buf, 0, h)
	return chainhash.DoubleHashH(buf.Bytes())
}

// Deserialize decodes a block header from r.
func (h *BlockHeader) Deserialize(r io.Reader) error {
	return readBlockHeader(r, 0, h)
}

// Serialize encodes a block header to w.
func (h *BlockHeader) Serialize(w io.Writer) error {
	return writeBlockHeader(w, 0, h)
}

// readBlockHeader reads a block header from r.
func readBlockHeader(r io.Reader, pver uint32, bh *BlockHeader) error {
	return readElements(r, &bh.Version, &bh.PrevBlock, &bh.MerkleRoot,
		(*uint32Time)(&bh.Timestamp), &bh.Bits, &bh.Nonce)
}

// writeBlockHeader writes a block header to w.
func writeBlockHeader(w io.Writer, pver uint32, bh *BlockHeader) error {
	sec := uint32(bh.Timestamp.Unix())
	return writeElements(w, bh.Version, &bh.PrevBlock, &bh.MerkleRoot,
		sec, bh.Bits, bh.Nonce)
}

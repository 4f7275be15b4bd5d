// Copyright (c) 2024-2026 The AXErunners developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package wire

import (
	"bytes"
	"fmt"

	"github.com/btcsuite/btcd/chaincfg/chainhash"
)

// MaxCbTxVersion is the highest coinbase special payload version this package
// understands.  A diff whose coinbase declares a newer version must be
// rejected outright rather than partially applied.
const MaxCbTxVersion uint16 = 2

// CbTx is the decoded special payload of a coinbase transaction
// (tx type TxTypeCoinbase).  It commits the block to a view of the
// masternode list, and from version 2 on, the active quorum set.
type CbTx struct {
	// Version of the payload layout.
	Version uint16

	// Height of the block that carries the coinbase.
	Height uint32

	// MerkleRootMNList is the merkle root over the hashes of every entry
	// in the simplified masternode list as of this block.
	MerkleRootMNList chainhash.Hash

	// MerkleRootQuorums is the merkle root over the hashes of every active
	// quorum commitment.  Only present from payload version 2.
	MerkleRootQuorums chainhash.Hash
}

// DecodeCbTx parses the extra payload of a coinbase special transaction.
func DecodeCbTx(payload []byte) (*CbTx, error) {
	const op = "DecodeCbTx"
	r := bytes.NewBuffer(payload)

	var cb CbTx
	err := readElements(r, &cb.Version, &cb.Height, &cb.MerkleRootMNList)
	if err != nil {
		return nil, err
	}

	if cb.Version >= 2 {
		err = readElement(r, &cb.MerkleRootQuorums)
		if err != nil {
			return nil, err
		}
	}

	if r.Len() != 0 {
		str := fmt.Sprintf("%d trailing bytes after version %d coinbase "+
			"payload", r.Len(), cb.Version)
		return nil, messageError(op, ErrTrailingBytes, str)
	}

	return &cb, nil
}

// Encode returns the serialized form of the coinbase special payload.
func (cb *CbTx) Encode() []byte {
	var buf bytes.Buffer
	writeElements(&buf, &cb.Version, &cb.Height, &cb.MerkleRootMNList)
	if cb.Version >= 2 {
		writeElement(&buf, &cb.MerkleRootQuorums)
	}
	return buf.Bytes()
}

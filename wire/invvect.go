// Copyright (c) 2024-2026 The AXErunners developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package wire

import (
	"fmt"
	"io"

	"github.com/btcsuite/btcd/chaincfg/chainhash"
)

const (
	// MaxInvPerMsg is the maximum number of inventory vectors that can be
	// in a single AXE inv message.
	MaxInvPerMsg = 50000

	// maxInvVectPayload is the maximum payload size for an inventory
	// vector.  4 bytes type + 32 bytes hash.
	maxInvVectPayload = 4 + chainhash.HashSize
)

// InvType represents the allowed types of inventory vectors.  See InvVect.
type InvType uint32

// These constants define the various supported inventory vector types.
const (
	InvTypeError  InvType = 0
	InvTypeTx     InvType = 1
	InvTypeBlock  InvType = 2
	InvTypeISLock InvType = 30
)

// invStrings is a map of inventory vector types back to their constant names
// for pretty printing.
var invStrings = map[InvType]string{
	InvTypeError:  "ERROR",
	InvTypeTx:     "MSG_TX",
	InvTypeBlock:  "MSG_BLOCK",
	InvTypeISLock: "MSG_ISLOCK",
}

// String returns the InvType in human-readable form.
func (invtype InvType) String() string {
	if s, ok := invStrings[invtype]; ok {
		return s
	}
	return fmt.Sprintf("Unknown InvType (%d)", uint32(invtype))
}

// InvVect defines an AXE inventory vector which is used to describe data, as
// specified by the Type field, that a peer wants, has, or does not have to
// another peer.
type InvVect struct {
	Type InvType        // Type of data
	Hash chainhash.Hash // Hash of the data
}

// NewInvVect returns a new InvVect using the provided type and hash.
func NewInvVect(typ InvType, hash *chainhash.Hash) *InvVect {
	return &InvVect{
		Type: typ,
		Hash: *hash,
	}
}

// readInvVect reads an encoded InvVect from r depending on the protocol
// version.
func readInvVect(r io.Reader, pver uint32, iv *InvVect) error {
	return readElements(r, &iv.Type, &iv.Hash)
}

// writeInvVect serializes an InvVect to w depending on the protocol version.
func writeInvVect(w io.Writer, pver uint32, iv *InvVect) error {
	return writeElements(w, &iv.Type, &iv.Hash)
}

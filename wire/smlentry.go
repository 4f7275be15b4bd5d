// Copyright (c) 2024-2026 The AXErunners developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package wire

import (
	"bytes"
	"io"
	"net"
	"strconv"

	"github.com/btcsuite/btcd/chaincfg/chainhash"
)

const (
	// BLSPubKeySize is the size of a compressed BLS12-381 G1 public key.
	BLSPubKeySize = 48

	// BLSSignatureSize is the size of a compressed BLS12-381 G2 signature.
	BLSSignatureSize = 96

	// KeyIDSize is the size of a hash160 voting key id.
	KeyIDSize = 20

	// SMLEntrySize is the fixed serialized size of a simplified masternode
	// list entry: proRegTxHash 32 + confirmedHash 32 + ip 16 + port 2 +
	// operator key 48 + voting key id 20 + isValid flag 1.
	SMLEntrySize = 151
)

// SMLEntry describes one masternode as carried by a masternode list diff.
// Entries are uniquely keyed by ProRegTxHash and are only ever inserted or
// deleted wholesale by a diff, never partially mutated.
type SMLEntry struct {
	// ProRegTxHash is the hash of the provider registration transaction
	// that created the masternode.  It is the masternode's permanent
	// identifier.
	ProRegTxHash chainhash.Hash

	// ConfirmedHash is the hash of the block that confirmed the
	// registration.
	ConfirmedHash chainhash.Hash

	// IP is the masternode's service address, IPv4-mapped when v4.
	IP [16]byte

	// Port is the masternode's service port, big endian on the wire.
	Port uint16

	// PubKeyOperator is the masternode's BLS operator public key.
	PubKeyOperator [BLSPubKeySize]byte

	// KeyIDVoting is the hash160 of the masternode's voting key.
	KeyIDVoting [KeyIDSize]byte

	// IsValid reports whether the masternode is currently in good
	// standing.
	IsValid bool
}

// Service returns the masternode's endpoint in host:port form.
func (e *SMLEntry) Service() string {
	return net.JoinHostPort(net.IP(e.IP[:]).String(), strconv.Itoa(int(e.Port)))
}

// Decode reads an SML entry from r.
func (e *SMLEntry) Decode(r io.Reader, pver uint32) error {
	err := readElements(r, &e.ProRegTxHash, &e.ConfirmedHash, &e.IP)
	if err != nil {
		return err
	}
	// The service port is encoded big endian, unlike everything around it.
	err = readUint16BE(r, &e.Port)
	if err != nil {
		return err
	}
	return readElements(r, &e.PubKeyOperator, &e.KeyIDVoting, &e.IsValid)
}

// Encode writes an SML entry to w.
func (e *SMLEntry) Encode(w io.Writer, pver uint32) error {
	err := writeElements(w, &e.ProRegTxHash, &e.ConfirmedHash, &e.IP)
	if err != nil {
		return err
	}
	err = writeUint16BE(w, e.Port)
	if err != nil {
		return err
	}
	return writeElements(w, &e.PubKeyOperator, &e.KeyIDVoting, &e.IsValid)
}

// Hash returns the double-SHA256 of the entry's serialization.  These hashes
// are the leaves of the masternode list merkle root committed to by the
// coinbase special payload, so they are cached alongside the entries to
// avoid re-serializing the full list for every diff verification.
func (e *SMLEntry) Hash() chainhash.Hash {
	var buf bytes.Buffer
	buf.Grow(SMLEntrySize)
	e.Encode(&buf, 0)
	return chainhash.DoubleHashH(buf.Bytes())
}

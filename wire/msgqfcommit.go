// Copyright (c) 2024-2026 The AXErunners developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package wire

import (
	"bytes"
	"fmt"
	"io"

	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/jrick/bitset"

	"github.com/AXErunners/axesync/chaincfg"
)

// MaxQuorumMembers is the largest quorum size any deployed LLMQ category
// uses.  It bounds the bitset allocations while decoding a commitment.
const MaxQuorumMembers = 400

// MsgQFCommit implements the Message interface and represents an AXE
// qfcommit message carrying the final commitment of one LLMQ.  The same
// structure is embedded in the newQuorums section of a mnlistdiff message.
//
// The signers and validMembers bitsets are packed ceil(size/8) bytes on the
// wire; bit i corresponds to quorum member index i.
type MsgQFCommit struct {
	// Version of the commitment layout.
	Version uint16

	// LLMQType identifies the quorum category.
	LLMQType chaincfg.LLMQType

	// QuorumHash is the hash of the block that seeded quorum formation.
	// Together with LLMQType it uniquely keys the quorum.
	QuorumHash chainhash.Hash

	// Signers flags which members contributed to the aggregate signature.
	Signers bitset.Bytes

	// SignersSize is the declared bit length of Signers.
	SignersSize int

	// ValidMembers flags which members were valid at formation time.
	ValidMembers bitset.Bytes

	// ValidMembersSize is the declared bit length of ValidMembers.
	ValidMembersSize int

	// QuorumPubKey is the quorum's aggregate BLS public key.  Threshold
	// signatures such as InstantSend locks verify against it.
	QuorumPubKey [BLSPubKeySize]byte

	// QuorumVvecHash is the hash of the quorum verification vector.
	QuorumVvecHash chainhash.Hash

	// QuorumSig is the recovered threshold signature over the commitment.
	QuorumSig [BLSSignatureSize]byte

	// Sig is the aggregate signature of all signing members.
	Sig [BLSSignatureSize]byte
}

// packedBitsetLen returns the number of bytes needed to carry the given
// number of bits.
func packedBitsetLen(bits int) int {
	return (bits + 7) / 8
}

// readPackedBitset reads a compact-size bit count followed by the packed bit
// array from r.
func readPackedBitset(r io.Reader, pver uint32, fieldName string) (bitset.Bytes, int, error) {
	const op = "readPackedBitset"
	count, err := ReadVarInt(r, pver)
	if err != nil {
		return nil, 0, err
	}
	if count > MaxQuorumMembers {
		str := fmt.Sprintf("%s declares too many members [count %d, max %d]",
			fieldName, count, MaxQuorumMembers)
		return nil, 0, messageError(op, ErrInvalidMsg, str)
	}

	packed := make([]byte, packedBitsetLen(int(count)))
	if _, err := io.ReadFull(r, packed); err != nil {
		return nil, 0, err
	}
	return bitset.Bytes(packed), int(count), nil
}

// writePackedBitset writes the bit count and packed bit array to w.
func writePackedBitset(w io.Writer, pver uint32, bits bitset.Bytes, size int) error {
	const op = "writePackedBitset"
	if len(bits) != packedBitsetLen(size) {
		str := fmt.Sprintf("bitset length %d does not pack %d bits",
			len(bits), size)
		return messageError(op, ErrInvalidMsg, str)
	}
	if err := WriteVarInt(w, pver, uint64(size)); err != nil {
		return err
	}
	_, err := w.Write(bits)
	return err
}

// AxeDecode decodes r using the AXE protocol encoding into the receiver.
// This is part of the Message interface implementation.
func (msg *MsgQFCommit) AxeDecode(r io.Reader, pver uint32) error {
	err := readElements(r, &msg.Version, &msg.LLMQType, &msg.QuorumHash)
	if err != nil {
		return err
	}

	msg.Signers, msg.SignersSize, err = readPackedBitset(r, pver, "signers")
	if err != nil {
		return err
	}
	msg.ValidMembers, msg.ValidMembersSize, err = readPackedBitset(r, pver,
		"validMembers")
	if err != nil {
		return err
	}

	return readElements(r, &msg.QuorumPubKey, &msg.QuorumVvecHash,
		&msg.QuorumSig, &msg.Sig)
}

// AxeEncode encodes the receiver to w using the AXE protocol encoding.
// This is part of the Message interface implementation.
func (msg *MsgQFCommit) AxeEncode(w io.Writer, pver uint32) error {
	err := writeElements(w, &msg.Version, &msg.LLMQType, &msg.QuorumHash)
	if err != nil {
		return err
	}

	err = writePackedBitset(w, pver, msg.Signers, msg.SignersSize)
	if err != nil {
		return err
	}
	err = writePackedBitset(w, pver, msg.ValidMembers, msg.ValidMembersSize)
	if err != nil {
		return err
	}

	return writeElements(w, &msg.QuorumPubKey, &msg.QuorumVvecHash,
		&msg.QuorumSig, &msg.Sig)
}

// Command returns the protocol command string for the message.  This is part
// of the Message interface implementation.
func (msg *MsgQFCommit) Command() string {
	return CmdQFCommit
}

// MaxPayloadLength returns the maximum length the payload can be for the
// receiver.  This is part of the Message interface implementation.
func (msg *MsgQFCommit) MaxPayloadLength(pver uint32) uint32 {
	// Version 2 + llmq type 1 + quorum hash 32 + two packed bitsets with
	// their counts + pubkey 48 + vvec hash 32 + two signatures 96 each.
	bitsetMax := uint32(MaxVarIntPayload + packedBitsetLen(MaxQuorumMembers))
	return 2 + 1 + chainhash.HashSize + 2*bitsetMax + BLSPubKeySize +
		chainhash.HashSize + 2*BLSSignatureSize
}

// Hash returns the double-SHA256 of the commitment's serialization.  These
// hashes are the leaves of the quorum merkle root committed to by version 2
// coinbase payloads.
func (msg *MsgQFCommit) Hash() chainhash.Hash {
	var buf bytes.Buffer
	msg.AxeEncode(&buf, 0)
	return chainhash.DoubleHashH(buf.Bytes())
}

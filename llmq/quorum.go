// Copyright (c) 2024-2026 The AXErunners developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package llmq

import (
	"bytes"
	"fmt"
	"math/bits"

	"github.com/btcsuite/btcd/chaincfg/chainhash"
	blst "github.com/supranational/blst/bindings/go"

	"github.com/AXErunners/axesync/chaincfg"
	"github.com/AXErunners/axesync/wire"
)

// dstBLS is the domain separation tag of the BLS12-381 G2 basic signature
// scheme the quorums sign under.
var dstBLS = []byte("BLS_SIG_BLS12381G2_XMD:SHA-256_SSWU_RO_NUL_")

// clsigRequestIDPrefix seeds the deterministic request id of a chain lock.
const clsigRequestIDPrefix = "clsig"

// scoreHash computes the selection score of one quorum for one request id:
// the double-SHA256 of the quorum category byte, the quorum hash and the
// request id.
func scoreHash(llmqType chaincfg.LLMQType, quorumHash,
	requestID *chainhash.Hash) chainhash.Hash {

	var buf bytes.Buffer
	buf.Grow(1 + 2*chainhash.HashSize)
	buf.WriteByte(byte(llmqType))
	buf.Write(quorumHash[:])
	buf.Write(requestID[:])
	return chainhash.DoubleHashH(buf.Bytes())
}

// hashLess compares two hashes as 256 bit little-endian integers.
func hashLess(a, b *chainhash.Hash) bool {
	for i := chainhash.HashSize - 1; i >= 0; i-- {
		if a[i] != b[i] {
			return a[i] < b[i]
		}
	}
	return false
}

// ResponsibleQuorum selects the quorum responsible for signing the given
// request id: the one whose selection score is numerically lowest.  The rule
// is a protocol-mandated deterministic lottery, so the same inputs select
// the same quorum in every implementation.  It returns nil when the set is
// empty.
func ResponsibleQuorum(quorums []*wire.MsgQFCommit,
	requestID *chainhash.Hash) *wire.MsgQFCommit {

	var best *wire.MsgQFCommit
	var bestScore chainhash.Hash
	for _, q := range quorums {
		score := scoreHash(q.LLMQType, &q.QuorumHash, requestID)
		if best == nil || hashLess(&score, &bestScore) {
			best = q
			bestScore = score
		}
	}
	return best
}

// SignHash reconstructs the digest a quorum threshold signature commits to:
// the double-SHA256 of the quorum category byte, the quorum hash, the
// request id and the message hash (the txid for an InstantSend lock, the
// block hash for a chain lock).
func SignHash(llmqType chaincfg.LLMQType, quorumHash, requestID,
	msgHash *chainhash.Hash) chainhash.Hash {

	var buf bytes.Buffer
	buf.Grow(1 + 3*chainhash.HashSize)
	buf.WriteByte(byte(llmqType))
	buf.Write(quorumHash[:])
	buf.Write(requestID[:])
	buf.Write(msgHash[:])
	return chainhash.DoubleHashH(buf.Bytes())
}

// VerifySignature checks a 96 byte BLS threshold signature over the given
// digest against a quorum's 48 byte aggregate public key.
func VerifySignature(pubKey *[wire.BLSPubKeySize]byte, signHash *chainhash.Hash,
	signature *[wire.BLSSignatureSize]byte) error {

	pk := new(blst.P1Affine).Uncompress(pubKey[:])
	if pk == nil || !pk.KeyValidate() {
		return verifyError(ErrInvalidPubKey,
			"quorum public key is not a valid G1 point")
	}
	sig := new(blst.P2Affine).Uncompress(signature[:])
	if sig == nil {
		return verifyError(ErrInvalidSignature,
			"signature is not a valid G2 point")
	}
	if !sig.Verify(true, pk, false, blst.Message(signHash[:]), dstBLS) {
		return verifyError(ErrSigCheckFailed,
			"signature does not verify against the quorum key")
	}
	return nil
}

// QuorumSource provides the active quorums of one category.  The masternode
// list maintained by the sync state machine satisfies it.
type QuorumSource interface {
	QuorumsOfType(t chaincfg.LLMQType) []*wire.MsgQFCommit
}

// Verifier validates InstantSend locks, chain locks and quorum commitments
// against the current quorum view.
type Verifier struct {
	params *chaincfg.Params
	source QuorumSource
}

// NewVerifier returns a verifier drawing quorums from the given source.
func NewVerifier(params *chaincfg.Params, source QuorumSource) *Verifier {
	return &Verifier{params: params, source: source}
}

// VerifyISLock checks an InstantSend lock's threshold signature against the
// quorum responsible for the lock's request id.
func (v *Verifier) VerifyISLock(lock *wire.MsgISLock) error {
	quorums := v.source.QuorumsOfType(v.params.LLMQInstantSend)
	if len(quorums) == 0 {
		str := fmt.Sprintf("no %v quorums known", v.params.LLMQInstantSend)
		return verifyError(ErrNoQuorums, str)
	}

	requestID := lock.RequestID()
	q := ResponsibleQuorum(quorums, &requestID)
	signHash := SignHash(q.LLMQType, &q.QuorumHash, &requestID, &lock.TxHash)
	err := VerifySignature(&q.QuorumPubKey, &signHash, &lock.Signature)
	if err != nil {
		return err
	}

	log.Debugf("Verified islock for tx %v against quorum %v", lock.TxHash,
		q.QuorumHash)
	return nil
}

// chainLockRequestID computes the deterministic request id of the chain lock
// at the given height.
func chainLockRequestID(height uint32) chainhash.Hash {
	var buf bytes.Buffer
	wire.WriteVarString(&buf, 0, clsigRequestIDPrefix)
	buf.Write([]byte{byte(height), byte(height >> 8), byte(height >> 16),
		byte(height >> 24)})
	return chainhash.DoubleHashH(buf.Bytes())
}

// VerifyChainLock checks a chain lock's threshold signature for the block at
// the given height against the responsible chain lock quorum.
func (v *Verifier) VerifyChainLock(height uint32, blockHash *chainhash.Hash,
	signature *[wire.BLSSignatureSize]byte) error {

	quorums := v.source.QuorumsOfType(v.params.LLMQChainLocks)
	if len(quorums) == 0 {
		str := fmt.Sprintf("no %v quorums known", v.params.LLMQChainLocks)
		return verifyError(ErrNoQuorums, str)
	}

	requestID := chainLockRequestID(height)
	q := ResponsibleQuorum(quorums, &requestID)
	signHash := SignHash(q.LLMQType, &q.QuorumHash, &requestID, blockHash)
	return VerifySignature(&q.QuorumPubKey, &signHash, signature)
}

// commitmentSignHash computes the digest a final commitment's recovered
// threshold signature commits to: the category byte, the quorum hash, the
// packed validMembers bitset, the aggregate key and the verification vector
// hash.
func commitmentSignHash(q *wire.MsgQFCommit) chainhash.Hash {
	var buf bytes.Buffer
	buf.WriteByte(byte(q.LLMQType))
	buf.Write(q.QuorumHash[:])
	wire.WriteVarInt(&buf, 0, uint64(q.ValidMembersSize))
	buf.Write(q.ValidMembers)
	buf.Write(q.QuorumPubKey[:])
	buf.Write(q.QuorumVvecHash[:])
	return chainhash.DoubleHashH(buf.Bytes())
}

// popCount returns the number of set bits in a packed bitset.
func popCount(b []byte) int {
	var n int
	for _, v := range b {
		n += bits.OnesCount8(v)
	}
	return n
}

// VerifyCommitment checks a final commitment's structure against the
// category parameters and its recovered threshold signature against its own
// aggregate quorum key.
func (v *Verifier) VerifyCommitment(q *wire.MsgQFCommit) error {
	params, ok := v.params.LLMQ(q.LLMQType)
	if !ok {
		str := fmt.Sprintf("quorum category %d not deployed on %s",
			q.LLMQType, v.params.Name)
		return verifyError(ErrUnknownLLMQType, str)
	}

	if q.SignersSize != params.Size || q.ValidMembersSize != params.Size {
		str := fmt.Sprintf("bitset sizes %d/%d do not match %v member "+
			"count %d", q.SignersSize, q.ValidMembersSize, q.LLMQType,
			params.Size)
		return verifyError(ErrBadBitsetSize, str)
	}
	if signers := popCount(q.Signers); signers < params.Threshold {
		str := fmt.Sprintf("%d signers below %v threshold %d", signers,
			q.LLMQType, params.Threshold)
		return verifyError(ErrBelowThreshold, str)
	}

	signHash := commitmentSignHash(q)
	return VerifySignature(&q.QuorumPubKey, &signHash, &q.QuorumSig)
}

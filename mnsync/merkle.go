// Copyright (c) 2024-2026 The AXErunners developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package mnsync

import (
	"fmt"

	"github.com/btcsuite/btcd/chaincfg/chainhash"
)

// hashMerkleBranches takes two hashes, treated as the left and right tree
// nodes, and returns the hash of their concatenation.
func hashMerkleBranches(left, right *chainhash.Hash) chainhash.Hash {
	var buf [chainhash.HashSize * 2]byte
	copy(buf[:chainhash.HashSize], left[:])
	copy(buf[chainhash.HashSize:], right[:])
	return chainhash.DoubleHashH(buf[:])
}

// merkleRoot reduces the given leaf hashes to a single merkle root.  A level
// with an odd number of nodes duplicates its final node, and the root of an
// empty list is the double-SHA256 of a single all-zero leaf.  The duplication
// rule must match the network's implementation exactly or every list and
// quorum commitment verification fails.
func merkleRoot(leaves []chainhash.Hash) chainhash.Hash {
	if len(leaves) == 0 {
		var zero [chainhash.HashSize]byte
		return chainhash.DoubleHashH(zero[:])
	}

	level := make([]chainhash.Hash, len(leaves))
	copy(level, leaves)
	for len(level) > 1 {
		if len(level)%2 != 0 {
			level = append(level, level[len(level)-1])
		}
		next := level[:0]
		for i := 0; i < len(level); i += 2 {
			next = append(next, hashMerkleBranches(&level[i], &level[i+1]))
		}
		level = next
	}
	return level[0]
}

// partialMerkleTree walks the depth-first encoding of a partial merkle tree
// as carried by a mnlistdiff message: one flag bit per visited node and one
// hash per node whose subtree is not descended into.
type partialMerkleTree struct {
	numTx  uint32
	hashes []chainhash.Hash
	flags  []byte

	hashUsed int
	bitsUsed int
	matches  []chainhash.Hash
}

// calcTreeWidth returns the number of nodes at the given tree height.
func (p *partialMerkleTree) calcTreeWidth(height uint32) uint32 {
	return (p.numTx + (1 << height) - 1) >> height
}

// nextFlag consumes the next flag bit.
func (p *partialMerkleTree) nextFlag() (bool, error) {
	if p.bitsUsed >= len(p.flags)*8 {
		return false, ruleError(ErrBadInclusionProof,
			"partial merkle tree ran out of flag bits")
	}
	set := p.flags[p.bitsUsed/8]&(1<<uint(p.bitsUsed%8)) != 0
	p.bitsUsed++
	return set, nil
}

// nextHash consumes the next proof hash.
func (p *partialMerkleTree) nextHash() (*chainhash.Hash, error) {
	if p.hashUsed >= len(p.hashes) {
		return nil, ruleError(ErrBadInclusionProof,
			"partial merkle tree ran out of proof hashes")
	}
	h := &p.hashes[p.hashUsed]
	p.hashUsed++
	return h, nil
}

// traverse computes the hash of the node at the given height and position,
// recording matched transaction hashes along the way.
func (p *partialMerkleTree) traverse(height, pos uint32) (chainhash.Hash, error) {
	match, err := p.nextFlag()
	if err != nil {
		return chainhash.Hash{}, err
	}

	if height == 0 || !match {
		// Leaf, or an entire subtree summarized by one hash.
		h, err := p.nextHash()
		if err != nil {
			return chainhash.Hash{}, err
		}
		if height == 0 && match {
			p.matches = append(p.matches, *h)
		}
		return *h, nil
	}

	left, err := p.traverse(height-1, pos*2)
	if err != nil {
		return chainhash.Hash{}, err
	}
	if pos*2+1 < p.calcTreeWidth(height-1) {
		right, err := p.traverse(height-1, pos*2+1)
		if err != nil {
			return chainhash.Hash{}, err
		}
		// Identical left and right subtree hashes allow forging
		// alternate proofs for the same root, so reject them.
		if right == left {
			return chainhash.Hash{}, ruleError(ErrBadInclusionProof,
				"partial merkle tree has duplicate subtree hashes")
		}
		return hashMerkleBranches(&left, &right), nil
	}
	return hashMerkleBranches(&left, &left), nil
}

// extractPartialMerkleRoot validates a partial merkle tree and returns its
// root together with the transaction hashes it proves inclusion for.
func extractPartialMerkleRoot(numTx uint32, hashes []chainhash.Hash,
	flags []byte) (chainhash.Hash, []chainhash.Hash, error) {

	if numTx == 0 {
		return chainhash.Hash{}, nil, ruleError(ErrBadInclusionProof,
			"partial merkle tree covers zero transactions")
	}
	if uint64(len(hashes)) > uint64(numTx) {
		str := fmt.Sprintf("partial merkle tree has more proof hashes "+
			"(%d) than transactions (%d)", len(hashes), numTx)
		return chainhash.Hash{}, nil, ruleError(ErrBadInclusionProof, str)
	}

	p := partialMerkleTree{numTx: numTx, hashes: hashes, flags: flags}
	var height uint32
	for p.calcTreeWidth(height) > 1 {
		height++
	}

	root, err := p.traverse(height, 0)
	if err != nil {
		return chainhash.Hash{}, nil, err
	}
	if p.hashUsed != len(hashes) {
		str := fmt.Sprintf("partial merkle tree left %d proof hashes "+
			"unconsumed", len(hashes)-p.hashUsed)
		return chainhash.Hash{}, nil, ruleError(ErrBadInclusionProof, str)
	}
	// Trailing flag padding must be zero bits within the final byte.
	for i := p.bitsUsed; i < len(p.flags)*8; i++ {
		if p.flags[i/8]&(1<<uint(i%8)) != 0 {
			return chainhash.Hash{}, nil, ruleError(ErrBadInclusionProof,
				"partial merkle tree has nonzero padding bits")
		}
	}
	return root, p.matches, nil
}

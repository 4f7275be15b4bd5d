// Copyright (c) 2024-2026 The AXErunners developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package mnsync

import (
	"testing"

	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/stretchr/testify/require"
)

// testLeaf returns a deterministic leaf hash derived from the seed.
func testLeaf(seed byte) chainhash.Hash {
	var h chainhash.Hash
	for i := range h {
		h[i] = seed ^ byte(i)
	}
	return h
}

// TestMerkleRoot verifies the reduction rules: the fixed empty-list root,
// the single-leaf identity, the pairwise hash, and the duplication of the
// final node on odd levels.
func TestMerkleRoot(t *testing.T) {
	a, b, c := testLeaf(1), testLeaf(2), testLeaf(3)

	var zero [chainhash.HashSize]byte
	require.Equal(t, chainhash.DoubleHashH(zero[:]), merkleRoot(nil))

	require.Equal(t, a, merkleRoot([]chainhash.Hash{a}))

	require.Equal(t, hashMerkleBranches(&a, &b),
		merkleRoot([]chainhash.Hash{a, b}))

	// The order of the leaves is part of the commitment.
	require.NotEqual(t, merkleRoot([]chainhash.Hash{a, b}),
		merkleRoot([]chainhash.Hash{b, a}))

	// An odd level duplicates its final node.
	require.Equal(t, merkleRoot([]chainhash.Hash{a, b, c, c}),
		merkleRoot([]chainhash.Hash{a, b, c}))
}

// mustHash parses a hash given in its conventional reversed display order.
func mustHash(t *testing.T, s string) chainhash.Hash {
	t.Helper()
	h, err := chainhash.NewHashFromStr(s)
	require.NoError(t, err)
	return *h
}

// TestMerkleRootVectors pins the reduction to externally computed roots,
// including the four transactions of Bitcoin block 100000 whose root is a
// published chain value.
func TestMerkleRootVectors(t *testing.T) {
	tests := []struct {
		name   string
		leaves []string
		want   string
	}{{
		name: "empty list",
		want: "1e1567e6e0bdcc16006d127b8c6e0e0f5ea85e22e89713fb35620a2c6cdb322b",
	}, {
		name: "single leaf is its own root",
		leaves: []string{
			"1111111111111111111111111111111111111111111111111111111111111111",
		},
		want: "1111111111111111111111111111111111111111111111111111111111111111",
	}, {
		name: "two leaves",
		leaves: []string{
			"1111111111111111111111111111111111111111111111111111111111111111",
			"2222222222222222222222222222222222222222222222222222222222222222",
		},
		want: "ba982c0808a9a03c4e958ae612516f85faac3780dcb34d9ab83ceeaf74b54011",
	}, {
		name: "odd level duplicates its final node",
		leaves: []string{
			"1111111111111111111111111111111111111111111111111111111111111111",
			"2222222222222222222222222222222222222222222222222222222222222222",
			"3333333333333333333333333333333333333333333333333333333333333333",
		},
		want: "e6f5f3a082e7117eca9f5b077b5f9e08a64c213c92f4b6377af3825e5c89cdca",
	}, {
		name: "bitcoin block 100000",
		leaves: []string{
			"8c14f0db3df150123e6f3dbbf30f8b955a8249b62ac1d1ff16284aefa3d06d87",
			"fff2525b8931402dd09222c50775608f75787bd2b87e56995a7bdd30f79702c4",
			"6359f0868171b1d194cbee1af2f16ea598ae8fad666d9b012c8ed2b79a236ec4",
			"e9a66845e05d5abc0ad04ec80f774a7e585c6e8db975962d069a522137b80c1d",
		},
		want: "f3e94742aca4b5ef85488dc37c06c3282295ffec960994b2c0d5ac2a25a95766",
	}}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			leaves := make([]chainhash.Hash, 0, len(test.leaves))
			for _, s := range test.leaves {
				leaves = append(leaves, mustHash(t, s))
			}
			require.Equal(t, mustHash(t, test.want), merkleRoot(leaves))
		})
	}
}

// pmtBuilder constructs the depth-first partial merkle tree encoding for a
// set of matched leaves, mirroring the traversal the extractor replays.
type pmtBuilder struct {
	numTx  uint32
	leaves []chainhash.Hash
	match  map[uint32]bool

	hashes []chainhash.Hash
	bits   []bool
}

func (b *pmtBuilder) width(height uint32) uint32 {
	return (b.numTx + (1 << height) - 1) >> height
}

func (b *pmtBuilder) calcHash(height, pos uint32) chainhash.Hash {
	if height == 0 {
		return b.leaves[pos]
	}
	left := b.calcHash(height-1, pos*2)
	right := left
	if pos*2+1 < b.width(height-1) {
		right = b.calcHash(height-1, pos*2+1)
	}
	return hashMerkleBranches(&left, &right)
}

func (b *pmtBuilder) build(height, pos uint32) {
	parentOfMatch := false
	for p := pos << height; p < (pos+1)<<height && p < b.numTx; p++ {
		if b.match[p] {
			parentOfMatch = true
		}
	}
	b.bits = append(b.bits, parentOfMatch)
	if height == 0 || !parentOfMatch {
		b.hashes = append(b.hashes, b.calcHash(height, pos))
		return
	}
	b.build(height-1, pos*2)
	if pos*2+1 < b.width(height-1) {
		b.build(height-1, pos*2+1)
	}
}

// buildProof returns the proof hashes and packed flag bytes covering the
// given matched leaf indices.
func buildProof(leaves []chainhash.Hash, matched ...uint32) ([]chainhash.Hash, []byte) {
	b := &pmtBuilder{
		numTx:  uint32(len(leaves)),
		leaves: leaves,
		match:  make(map[uint32]bool),
	}
	for _, idx := range matched {
		b.match[idx] = true
	}
	var height uint32
	for b.width(height) > 1 {
		height++
	}
	b.build(height, 0)

	flags := make([]byte, (len(b.bits)+7)/8)
	for i, set := range b.bits {
		if set {
			flags[i/8] |= 1 << uint(i%8)
		}
	}
	return b.hashes, flags
}

// TestExtractPartialMerkleRoot builds proofs over trees of several widths
// and verifies the extractor recovers the full-tree root and exactly the
// matched leaves.
func TestExtractPartialMerkleRoot(t *testing.T) {
	for _, numTx := range []int{1, 2, 3, 5, 7, 12} {
		leaves := make([]chainhash.Hash, numTx)
		for i := range leaves {
			leaves[i] = testLeaf(byte(i + 1))
		}
		want := merkleRoot(leaves)

		for matched := 0; matched < numTx; matched++ {
			hashes, flags := buildProof(leaves, uint32(matched))
			root, matches, err := extractPartialMerkleRoot(
				uint32(numTx), hashes, flags)
			require.NoError(t, err, "numTx %d matched %d", numTx, matched)
			require.Equal(t, want, root, "numTx %d matched %d", numTx, matched)
			require.Equal(t, []chainhash.Hash{leaves[matched]}, matches)
		}
	}
}

// TestExtractPartialMerkleRootErrors covers the malformed-proof rejections.
func TestExtractPartialMerkleRootErrors(t *testing.T) {
	leaves := []chainhash.Hash{testLeaf(1), testLeaf(2), testLeaf(3)}
	hashes, flags := buildProof(leaves, 1)

	// No transactions at all.
	_, _, err := extractPartialMerkleRoot(0, hashes, flags)
	require.ErrorIs(t, err, ErrBadInclusionProof)

	// Truncated proof hashes.
	_, _, err = extractPartialMerkleRoot(3, hashes[:len(hashes)-1], flags)
	require.ErrorIs(t, err, ErrBadInclusionProof)

	// Extra unconsumed proof hash.
	extra := append(append([]chainhash.Hash{}, hashes...), testLeaf(9))
	_, _, err = extractPartialMerkleRoot(3, extra, flags)
	require.ErrorIs(t, err, ErrBadInclusionProof)

	// Nonzero padding bit after the encoded traversal.
	badFlags := append([]byte{}, flags...)
	badFlags[len(badFlags)-1] |= 0x80
	_, _, err = extractPartialMerkleRoot(3, hashes, badFlags)
	require.ErrorIs(t, err, ErrBadInclusionProof)

	// Out of flag bits entirely.
	_, _, err = extractPartialMerkleRoot(3, hashes, nil)
	require.ErrorIs(t, err, ErrBadInclusionProof)
}

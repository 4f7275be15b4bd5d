// Copyright (c) 2024-2026 The AXErunners developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package mnsync

import (
	"bytes"
	"path/filepath"
	"sort"
	"testing"
	"time"

	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/jrick/bitset"
	"github.com/stretchr/testify/require"

	"github.com/AXErunners/axesync/chaincfg"
	"github.com/AXErunners/axesync/wire"
)

// testSMLEntry returns a deterministic masternode entry derived from the
// seed, with an IPv4-mapped service address.
func testSMLEntry(seed byte) *wire.SMLEntry {
	e := &wire.SMLEntry{Port: 9937, IsValid: true}
	for i := range e.ProRegTxHash {
		e.ProRegTxHash[i] = seed
	}
	for i := range e.ConfirmedHash {
		e.ConfirmedHash[i] = seed ^ 0xff
	}
	copy(e.IP[:], []byte{0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0xff, 0xff, 10, 0, 0, seed})
	for i := range e.PubKeyOperator {
		e.PubKeyOperator[i] = seed + byte(i)
	}
	for i := range e.KeyIDVoting {
		e.KeyIDVoting[i] = seed - byte(i)
	}
	return e
}

// testCommitment returns a deterministic quorum commitment for a 50 member
// quorum.
func testCommitment(seed byte) *wire.MsgQFCommit {
	const members = 50
	q := &wire.MsgQFCommit{
		Version:          1,
		LLMQType:         chaincfg.LLMQType5060,
		Signers:          bitset.NewBytes(members),
		SignersSize:      members,
		ValidMembers:     bitset.NewBytes(members),
		ValidMembersSize: members,
	}
	for i := range q.QuorumHash {
		q.QuorumHash[i] = seed
	}
	for i := 0; i < members; i++ {
		q.Signers.Set(i)
		q.ValidMembers.Set(i)
	}
	for i := range q.QuorumPubKey {
		q.QuorumPubKey[i] = seed + byte(i)
	}
	for i := range q.QuorumVvecHash {
		q.QuorumVvecHash[i] = seed ^ 0x55
	}
	return q
}

// testHeader returns a header whose merkle root commits to the given value.
func testHeader(height uint32, merkleRoot chainhash.Hash) wire.BlockHeader {
	var prev chainhash.Hash
	prev[0] = byte(height)
	prev[1] = byte(height >> 8)
	return wire.BlockHeader{
		Version:    1,
		PrevBlock:  prev,
		MerkleRoot: merkleRoot,
		Timestamp:  time.Unix(int64(1231006505+height), 0),
		Bits:       0x1d00ffff,
		Nonce:      height,
	}
}

// entryRoot computes the list merkle root over the given entries.
func entryRoot(entries []*wire.SMLEntry) chainhash.Hash {
	sorted := append([]*wire.SMLEntry{}, entries...)
	sort.Slice(sorted, func(i, j int) bool {
		return bytes.Compare(sorted[i].ProRegTxHash[:],
			sorted[j].ProRegTxHash[:]) < 0
	})
	leaves := make([]chainhash.Hash, len(sorted))
	for i := range sorted {
		leaves[i] = sorted[i].Hash()
	}
	return merkleRoot(leaves)
}

// diffFixture bundles a verifiable diff with the header store it verifies
// against.
type diffFixture struct {
	headers *HeaderStore
	diff    *wire.MsgMNListDiff
}

// newDiffFixture builds a diff from height 1 to the given target carrying
// the entries, and optionally the quorums, together with headers that make
// it verify.  The stored tip is the target itself; quorum-carrying tests
// pad the tip so the target counts as final.
func newDiffFixture(t *testing.T, height uint32, entries []*wire.SMLEntry,
	quorums []*wire.MsgQFCommit) *diffFixture {

	t.Helper()

	headers, err := OpenMemHeaderStore()
	require.NoError(t, err)
	t.Cleanup(func() { headers.Close() })

	require.NoError(t, headers.PutHeaders(1,
		[]wire.BlockHeader{testHeader(1, chainhash.Hash{})}))

	fix := &diffFixture{headers: headers}
	fix.diff = fix.extend(t, 1, height, entries, quorums)
	return fix
}

// extend builds a further diff on the fixture's header store, chaining from
// the stored header at base to a new target header at the given height.
// The entries are both the diff payload and the full resulting list the
// coinbase commits to.
func (f *diffFixture) extend(t *testing.T, base, height uint32,
	entries []*wire.SMLEntry, quorums []*wire.MsgQFCommit) *wire.MsgMNListDiff {

	t.Helper()

	cb := wire.CbTx{
		Version:          1,
		Height:           height,
		MerkleRootMNList: entryRoot(entries),
	}
	if len(quorums) > 0 {
		cb.Version = 2
		leaves := make([]chainhash.Hash, len(quorums))
		for i := range quorums {
			leaves[i] = quorums[i].Hash()
		}
		sort.Slice(leaves, func(i, j int) bool {
			return bytes.Compare(leaves[i][:], leaves[j][:]) < 0
		})
		cb.MerkleRootQuorums = merkleRoot(leaves)
	}

	cbTx := wire.MsgTx{
		Version: wire.TxVersionSpecial,
		TxType:  wire.TxTypeCoinbase,
		TxIn: []*wire.TxIn{{
			PreviousOutPoint: wire.OutPoint{Index: 0xffffffff},
			SignatureScript:  []byte{0x04, byte(height), byte(height >> 8), 0, 0},
			Sequence:         0xffffffff,
		}},
		TxOut: []*wire.TxOut{{
			Value:    500000000,
			PkScript: []byte{0x6a},
		}},
		ExtraPayload: cb.Encode(),
	}
	cbHash := cbTx.TxHash()

	baseHash, err := f.headers.BlockHash(base)
	require.NoError(t, err)
	targetHdr := testHeader(height, cbHash)
	require.NoError(t, f.headers.PutHeaders(height,
		[]wire.BlockHeader{targetHdr}))

	diff := &wire.MsgMNListDiff{
		BaseBlockHash:     *baseHash,
		BlockHash:         targetHdr.BlockHash(),
		TotalTransactions: 1,
		MerkleHashes:      []chainhash.Hash{cbHash},
		MerkleFlags:       []byte{0x01},
		CbTx:              cbTx,
		MNList:            entries,
	}
	if len(quorums) > 0 {
		diff.HasQuorums = true
		diff.NewQuorums = quorums
	}
	return diff
}

// padTip stores an empty padding header so the given height becomes the
// stored chain tip.
func (f *diffFixture) padTip(t *testing.T, height uint32) {
	t.Helper()
	require.NoError(t, f.headers.PutHeaders(height,
		[]wire.BlockHeader{testHeader(height, chainhash.Hash{})}))
}

// TestApplyDiff applies a verifiable diff and checks the committed state,
// then verifies reapplying the same diff is rejected by the base height
// guard rather than silently reprocessed.
func TestApplyDiff(t *testing.T) {
	entries := []*wire.SMLEntry{testSMLEntry(0x11), testSMLEntry(0x22)}
	fix := newDiffFixture(t, 2016, entries, nil)

	l := NewMNList()
	require.Equal(t, StateUnknown, l.State())

	result, err := l.ApplyDiff(fix.diff, fix.headers)
	require.NoError(t, err)
	require.Equal(t, uint32(2016), result.Height)
	require.Len(t, result.AddedMNs, 2)
	require.Empty(t, result.RemovedMNs)

	require.Equal(t, StateEnabled, l.State())
	require.Equal(t, uint32(2016), l.ProtxHeight())
	require.Equal(t, 2, l.Len())
	got, ok := l.Entry(&entries[0].ProRegTxHash)
	require.True(t, ok)
	require.Equal(t, entries[0], got)

	// Reapplying is rejected and leaves the state alone.
	_, err = l.ApplyDiff(fix.diff, fix.headers)
	require.ErrorIs(t, err, ErrBaseMismatch)
	require.Equal(t, uint32(2016), l.ProtxHeight())
	require.Equal(t, 2, l.Len())
}

// TestApplyDiffQuorums applies a diff carrying quorum sections and checks
// the quorum view advances with it.
func TestApplyDiffQuorums(t *testing.T) {
	entries := []*wire.SMLEntry{testSMLEntry(0x11)}
	quorums := []*wire.MsgQFCommit{testCommitment(0x33), testCommitment(0x44)}
	fix := newDiffFixture(t, 100, entries, quorums)
	fix.padTip(t, 100+chaincfg.LLMQOffset)

	l := NewMNList()
	result, err := l.ApplyDiff(fix.diff, fix.headers)
	require.NoError(t, err)
	require.Len(t, result.AddedQuorums, 2)

	require.Equal(t, uint32(100), l.LLMQHeight())
	require.Equal(t, 2, l.QuorumCount())
	key := QuorumKey{
		LLMQType:   chaincfg.LLMQType5060,
		QuorumHash: quorums[0].QuorumHash,
	}
	got, ok := l.Quorum(key)
	require.True(t, ok)
	require.Equal(t, quorums[0], got)
	require.Len(t, l.QuorumsOfType(chaincfg.LLMQType5060), 2)
	require.Empty(t, l.QuorumsOfType(chaincfg.LLMQTypeTest))
}

// TestApplyDiffQuorumFinality verifies the quorum section of a diff is
// ignored when the target sits closer than LLMQOffset blocks to the stored
// tip, while the masternode section of the same diff still applies.
func TestApplyDiffQuorumFinality(t *testing.T) {
	entries := []*wire.SMLEntry{testSMLEntry(0x11)}
	quorums := []*wire.MsgQFCommit{testCommitment(0x33)}
	fix := newDiffFixture(t, 100, entries, quorums)

	// The stored tip is the target itself, so its quorums are not final.
	l := NewMNList()
	result, err := l.ApplyDiff(fix.diff, fix.headers)
	require.NoError(t, err)
	require.Len(t, result.AddedMNs, 1)
	require.Empty(t, result.AddedQuorums)

	require.Equal(t, uint32(100), l.ProtxHeight())
	require.Equal(t, uint32(1), l.LLMQHeight())
	require.Equal(t, 1, l.Len())
	require.Equal(t, 0, l.QuorumCount())
}

// TestApplyDiffDualCursors walks the list view ahead of the quorum view and
// verifies each cursor only advances on diffs chained off its own height.
func TestApplyDiffDualCursors(t *testing.T) {
	entryA := testSMLEntry(0x11)
	entryB := testSMLEntry(0x22)
	quorums := []*wire.MsgQFCommit{testCommitment(0x33), testCommitment(0x44)}

	fix := newDiffFixture(t, 100, []*wire.SMLEntry{entryA}, nil)
	l := NewMNList()
	_, err := l.ApplyDiff(fix.diff, fix.headers)
	require.NoError(t, err)
	require.Equal(t, uint32(100), l.ProtxHeight())
	require.Equal(t, uint32(1), l.LLMQHeight())

	// A quorum-bearing diff chained off the list height but not the
	// quorum height applies its masternode section only.
	diff := fix.extend(t, 100, 200, []*wire.SMLEntry{entryA, entryB}, quorums)
	result, err := l.ApplyDiff(diff, fix.headers)
	require.NoError(t, err)
	require.Len(t, result.AddedMNs, 2)
	require.Empty(t, result.AddedQuorums)
	require.Equal(t, uint32(200), l.ProtxHeight())
	require.Equal(t, uint32(1), l.LLMQHeight())
	require.Equal(t, 0, l.QuorumCount())

	// A catch-up diff chained off the quorum height advances the quorum
	// view without touching the list view.
	diff = fix.extend(t, 1, 150, nil, quorums)
	result, err = l.ApplyDiff(diff, fix.headers)
	require.NoError(t, err)
	require.Empty(t, result.AddedMNs)
	require.Len(t, result.AddedQuorums, 2)
	require.Equal(t, uint32(200), l.ProtxHeight())
	require.Equal(t, uint32(150), l.LLMQHeight())
	require.Equal(t, 2, l.Len())
	require.Equal(t, 2, l.QuorumCount())
}

// TestApplyDiffAtomicity corrupts one entry after the roots were computed
// and verifies the rejection leaves the pre-state untouched.
func TestApplyDiffAtomicity(t *testing.T) {
	entries := []*wire.SMLEntry{testSMLEntry(0x11), testSMLEntry(0x22)}
	fix := newDiffFixture(t, 2016, entries, nil)
	fix.diff.MNList[1].Port++

	l := NewMNList()
	_, err := l.ApplyDiff(fix.diff, fix.headers)
	require.ErrorIs(t, err, ErrMerkleMismatch)

	require.Equal(t, StateUnknown, l.State())
	require.Equal(t, uint32(1), l.ProtxHeight())
	require.Equal(t, uint32(1), l.LLMQHeight())
	require.Equal(t, 0, l.Len())
}

// TestApplyDiffRejections covers the remaining per-diff verification
// failures.
func TestApplyDiffRejections(t *testing.T) {
	t.Run("classical coinbase", func(t *testing.T) {
		fix := newDiffFixture(t, 2016, []*wire.SMLEntry{testSMLEntry(1)}, nil)
		fix.diff.CbTx.TxType = wire.TxTypeClassical
		fix.diff.CbTx.ExtraPayload = nil

		l := NewMNList()
		_, err := l.ApplyDiff(fix.diff, fix.headers)
		require.ErrorIs(t, err, ErrListInactive)
		require.Equal(t, StateDisabled, l.State())
		require.Equal(t, uint32(1), l.ProtxHeight())
	})

	t.Run("unknown coinbase payload version", func(t *testing.T) {
		fix := newDiffFixture(t, 2016, []*wire.SMLEntry{testSMLEntry(1)}, nil)
		cb := wire.CbTx{Version: wire.MaxCbTxVersion + 1, Height: 2016}
		fix.diff.CbTx.ExtraPayload = cb.Encode()

		l := NewMNList()
		_, err := l.ApplyDiff(fix.diff, fix.headers)
		require.ErrorIs(t, err, ErrUnknownCbTxVersion)
		require.Equal(t, StateUnknown, l.State())
	})

	t.Run("unknown base block", func(t *testing.T) {
		fix := newDiffFixture(t, 2016, []*wire.SMLEntry{testSMLEntry(1)}, nil)
		fix.diff.BaseBlockHash[0] ^= 0x01

		l := NewMNList()
		_, err := l.ApplyDiff(fix.diff, fix.headers)
		require.ErrorIs(t, err, ErrUnknownBlock)
	})

	t.Run("bad inclusion proof", func(t *testing.T) {
		fix := newDiffFixture(t, 2016, []*wire.SMLEntry{testSMLEntry(1)}, nil)
		fix.diff.MerkleHashes[0][0] ^= 0x01

		l := NewMNList()
		_, err := l.ApplyDiff(fix.diff, fix.headers)
		require.ErrorIs(t, err, ErrBadInclusionProof)
		require.Equal(t, 0, l.Len())
	})
}

// TestSnapshotRoundTrip persists a populated list and restores it into a
// fresh one.
func TestSnapshotRoundTrip(t *testing.T) {
	entries := []*wire.SMLEntry{testSMLEntry(0x11), testSMLEntry(0x22)}
	quorums := []*wire.MsgQFCommit{testCommitment(0x33)}
	fix := newDiffFixture(t, 500, entries, quorums)
	fix.padTip(t, 500+chaincfg.LLMQOffset)

	l := NewMNList()
	_, err := l.ApplyDiff(fix.diff, fix.headers)
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "mnlist.gz")
	require.NoError(t, l.WriteSnapshot(path))

	restored := NewMNList()
	require.NoError(t, restored.ReadSnapshot(path))
	require.Equal(t, l.State(), restored.State())
	require.Equal(t, l.ProtxHeight(), restored.ProtxHeight())
	require.Equal(t, l.LLMQHeight(), restored.LLMQHeight())
	require.Equal(t, l.Entries(), restored.Entries())
	require.Equal(t, l.QuorumsOfType(chaincfg.LLMQType5060),
		restored.QuorumsOfType(chaincfg.LLMQType5060))
}

// TestSnapshotMissing ensures a missing snapshot file leaves the defaults in
// place without error.
func TestSnapshotMissing(t *testing.T) {
	l := NewMNList()
	err := l.ReadSnapshot(filepath.Join(t.TempDir(), "nonexistent.gz"))
	require.NoError(t, err)
	require.Equal(t, uint32(1), l.ProtxHeight())
	require.Equal(t, 0, l.Len())
}

// TestHeaderStore exercises the height and hash indexes and the tip
// bookkeeping.
func TestHeaderStore(t *testing.T) {
	s, err := OpenMemHeaderStore()
	require.NoError(t, err)
	defer s.Close()

	require.Equal(t, uint32(0), s.TipHeight())

	hdrs := []wire.BlockHeader{
		testHeader(10, testLeaf(1)),
		testHeader(11, testLeaf(2)),
		testHeader(12, testLeaf(3)),
	}
	require.NoError(t, s.PutHeaders(10, hdrs))
	require.Equal(t, uint32(12), s.TipHeight())

	got, err := s.Header(11)
	require.NoError(t, err)
	require.Equal(t, hdrs[1].BlockHash(), got.BlockHash())

	root, err := s.MerkleRoot(12)
	require.NoError(t, err)
	require.Equal(t, testLeaf(3), *root)

	hash, err := s.BlockHash(10)
	require.NoError(t, err)
	height, err := s.HeightByHash(hash)
	require.NoError(t, err)
	require.Equal(t, uint32(10), height)

	_, err = s.Header(99)
	require.ErrorIs(t, err, ErrUnknownBlock)
	var unknown chainhash.Hash
	_, err = s.HeightByHash(&unknown)
	require.ErrorIs(t, err, ErrUnknownBlock)
}

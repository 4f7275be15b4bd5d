// Copyright (c) 2024-2026 The AXErunners developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package mnsync

import (
	"bytes"
	"fmt"
	"sort"
	"sync"

	"github.com/btcsuite/btcd/chaincfg/chainhash"

	"github.com/AXErunners/axesync/chaincfg"
	"github.com/AXErunners/axesync/wire"
)

// FeatureState describes whether the chain commits to a masternode list at
// the heights seen so far.
type FeatureState int32

// The possible feature states.
const (
	// StateUnknown means no diff has been inspected yet.
	StateUnknown FeatureState = iota

	// StateDisabled means the most recent target block carried a
	// classical coinbase, so the list feature is not active at that
	// height.
	StateDisabled

	// StateEnabled means diffs with coinbase list commitments have been
	// verified and applied.
	StateEnabled
)

// String returns the FeatureState in human-readable form.
func (s FeatureState) String() string {
	switch s {
	case StateUnknown:
		return "unknown"
	case StateDisabled:
		return "disabled"
	case StateEnabled:
		return "enabled"
	}
	return fmt.Sprintf("invalid state %d", int32(s))
}

// QuorumKey uniquely identifies a quorum by its category and the hash of the
// block that seeded its formation.
type QuorumKey struct {
	LLMQType   chaincfg.LLMQType
	QuorumHash chainhash.Hash
}

// DiffResult describes one successfully applied diff.
type DiffResult struct {
	// Height is the height the list advanced to.
	Height uint32

	// AddedMNs and RemovedMNs list the proRegTxHashes inserted into and
	// deleted from the list.  An updated entry counts as added.
	AddedMNs   []chainhash.Hash
	RemovedMNs []chainhash.Hash

	// AddedQuorums and RemovedQuorums list the quorum change set, empty
	// when the diff carried no quorum sections.
	AddedQuorums   []QuorumKey
	RemovedQuorums []QuorumKey
}

// headerView is the subset of the header store diff verification needs.
type headerView interface {
	HeightByHash(hash *chainhash.Hash) (uint32, error)
	BlockHash(height uint32) (*chainhash.Hash, error)
	MerkleRoot(height uint32) (*chainhash.Hash, error)
	TipHeight() uint32
}

// MNList is the authoritative, merkle-verified view of the network's
// masternode set and active quorum set.  All mutation happens inside
// ApplyDiff behind one mutex; readers always observe either the previous
// fully applied state or the new one, never a partial update.
//
// The serialized-entry hashes are cached in a parallel map so diff
// verification can recompute the list merkle root without re-serializing
// every entry.
type MNList struct {
	mtx          sync.RWMutex
	state        FeatureState
	protxHeight  uint32
	llmqHeight   uint32
	entries      map[chainhash.Hash]*wire.SMLEntry
	entryHashes  map[chainhash.Hash]chainhash.Hash
	quorums      map[QuorumKey]*wire.MsgQFCommit
	quorumHashes map[QuorumKey]chainhash.Hash
}

// NewMNList returns an empty list positioned at the chain's first block.
func NewMNList() *MNList {
	return &MNList{
		protxHeight:  1,
		llmqHeight:   1,
		entries:      make(map[chainhash.Hash]*wire.SMLEntry),
		entryHashes:  make(map[chainhash.Hash]chainhash.Hash),
		quorums:      make(map[QuorumKey]*wire.MsgQFCommit),
		quorumHashes: make(map[QuorumKey]chainhash.Hash),
	}
}

// State returns the current feature state.
func (l *MNList) State() FeatureState {
	l.mtx.RLock()
	defer l.mtx.RUnlock()
	return l.state
}

// ProtxHeight returns the height the masternode list view is verified up to.
func (l *MNList) ProtxHeight() uint32 {
	l.mtx.RLock()
	defer l.mtx.RUnlock()
	return l.protxHeight
}

// LLMQHeight returns the height the quorum view is verified up to.
func (l *MNList) LLMQHeight() uint32 {
	l.mtx.RLock()
	defer l.mtx.RUnlock()
	return l.llmqHeight
}

// Len returns the number of masternodes in the list.
func (l *MNList) Len() int {
	l.mtx.RLock()
	defer l.mtx.RUnlock()
	return len(l.entries)
}

// Entry returns the masternode registered by the given provider registration
// transaction.  The returned entry must not be modified.
func (l *MNList) Entry(proRegTxHash *chainhash.Hash) (*wire.SMLEntry, bool) {
	l.mtx.RLock()
	defer l.mtx.RUnlock()
	e, ok := l.entries[*proRegTxHash]
	return e, ok
}

// Entries returns a snapshot of all masternodes sorted by proRegTxHash.
func (l *MNList) Entries() []*wire.SMLEntry {
	l.mtx.RLock()
	defer l.mtx.RUnlock()
	entries := make([]*wire.SMLEntry, 0, len(l.entries))
	for _, e := range l.entries {
		entries = append(entries, e)
	}
	sort.Slice(entries, func(i, j int) bool {
		return bytes.Compare(entries[i].ProRegTxHash[:],
			entries[j].ProRegTxHash[:]) < 0
	})
	return entries
}

// Quorum returns the commitment of the identified quorum.
func (l *MNList) Quorum(key QuorumKey) (*wire.MsgQFCommit, bool) {
	l.mtx.RLock()
	defer l.mtx.RUnlock()
	q, ok := l.quorums[key]
	return q, ok
}

// QuorumCount returns the number of active quorums across all categories.
func (l *MNList) QuorumCount() int {
	l.mtx.RLock()
	defer l.mtx.RUnlock()
	return len(l.quorums)
}

// QuorumsOfType returns the active quorums of one category.  The signature
// verifier selects the responsible quorum from this set.
func (l *MNList) QuorumsOfType(t chaincfg.LLMQType) []*wire.MsgQFCommit {
	l.mtx.RLock()
	defer l.mtx.RUnlock()
	var quorums []*wire.MsgQFCommit
	for key, q := range l.quorums {
		if key.LLMQType == t {
			quorums = append(quorums, q)
		}
	}
	sort.Slice(quorums, func(i, j int) bool {
		return bytes.Compare(quorums[i].QuorumHash[:],
			quorums[j].QuorumHash[:]) < 0
	})
	return quorums
}

// sortedEntryRoot computes the list merkle root from a candidate hash map,
// with leaves ordered by proRegTxHash byte order.
func sortedEntryRoot(entryHashes map[chainhash.Hash]chainhash.Hash) chainhash.Hash {
	keys := make([]chainhash.Hash, 0, len(entryHashes))
	for key := range entryHashes {
		keys = append(keys, key)
	}
	sort.Slice(keys, func(i, j int) bool {
		return bytes.Compare(keys[i][:], keys[j][:]) < 0
	})

	leaves := make([]chainhash.Hash, len(keys))
	for i := range keys {
		leaves[i] = entryHashes[keys[i]]
	}
	return merkleRoot(leaves)
}

// sortedQuorumRoot computes the quorum merkle root from a candidate hash
// map, with leaves ordered by commitment hash value.
func sortedQuorumRoot(quorumHashes map[QuorumKey]chainhash.Hash) chainhash.Hash {
	leaves := make([]chainhash.Hash, 0, len(quorumHashes))
	for _, h := range quorumHashes {
		leaves = append(leaves, h)
	}
	sort.Slice(leaves, func(i, j int) bool {
		return bytes.Compare(leaves[i][:], leaves[j][:]) < 0
	})
	return merkleRoot(leaves)
}

// ApplyDiff verifies the given masternode list diff and, only if every check
// passes, commits it.  The masternode section advances the list cursor and
// the quorum section advances the quorum cursor, each independently and only
// when the diff chains off that cursor's verified height.  Verification works
// on copies of the live maps, so a failure of any kind leaves the list
// exactly as it was.
//
// A RuleError return means the diff itself failed verification and may be
// re-requested from another peer.  A wire.MessageError pass-through means
// the payload was malformed and the providing peer deserves a ban.
func (l *MNList) ApplyDiff(diff *wire.MsgMNListDiff, headers headerView) (*DiffResult, error) {
	l.mtx.Lock()
	defer l.mtx.Unlock()

	// A classical coinbase means the list feature is not active at the
	// target height.
	if !diff.CbTx.HasExtraPayload() || diff.CbTx.TxType != wire.TxTypeCoinbase {
		l.state = StateDisabled
		return nil, ruleError(ErrListInactive,
			"target block coinbase carries no list commitment")
	}

	cb, err := wire.DecodeCbTx(diff.CbTx.ExtraPayload)
	if err != nil {
		return nil, err
	}
	if cb.Version > wire.MaxCbTxVersion {
		str := fmt.Sprintf("coinbase payload version %d exceeds highest "+
			"understood version %d", cb.Version, wire.MaxCbTxVersion)
		return nil, ruleError(ErrUnknownCbTxVersion, str)
	}

	// The list view and the quorum view advance on independent cursors.
	// The masternode portion applies when the diff chains directly off
	// the verified list height, and the quorum portion applies when it
	// chains off the verified quorum height and the target is already
	// final, that is at least LLMQOffset blocks below the stored tip.  A
	// diff whose base matches neither cursor has nothing to offer, which
	// also rejects reapplying an applied diff.
	baseHeight, err := headers.HeightByHash(&diff.BaseBlockHash)
	if err != nil {
		return nil, err
	}
	applyMNs := baseHeight == l.protxHeight
	applyQuorums := diff.HasQuorums && baseHeight == l.llmqHeight &&
		cb.Height+chaincfg.LLMQOffset <= headers.TipHeight()
	if !applyMNs && !applyQuorums {
		str := fmt.Sprintf("diff base height %d matches neither the list "+
			"height %d nor the quorum height %d", baseHeight,
			l.protxHeight, l.llmqHeight)
		return nil, ruleError(ErrBaseMismatch, str)
	}
	if cb.Height <= baseHeight {
		str := fmt.Sprintf("diff target height %d does not advance past "+
			"base height %d", cb.Height, baseHeight)
		return nil, ruleError(ErrBaseMismatch, str)
	}
	wantHash, err := headers.BlockHash(cb.Height)
	if err != nil {
		return nil, err
	}
	if *wantHash != diff.BlockHash {
		str := fmt.Sprintf("diff block hash %v does not match stored "+
			"header %v at height %d", diff.BlockHash, wantHash, cb.Height)
		return nil, ruleError(ErrUnknownBlock, str)
	}

	// Apply deletions then insertions to copies of the live maps.
	result := DiffResult{Height: cb.Height}
	entries := l.entries
	entryHashes := l.entryHashes
	if applyMNs {
		entries = make(map[chainhash.Hash]*wire.SMLEntry, len(l.entries)+len(diff.MNList))
		entryHashes = make(map[chainhash.Hash]chainhash.Hash, len(l.entries)+len(diff.MNList))
		for key, e := range l.entries {
			entries[key] = e
			entryHashes[key] = l.entryHashes[key]
		}

		for i := range diff.DeletedMNs {
			key := diff.DeletedMNs[i]
			if _, ok := entries[key]; ok {
				delete(entries, key)
				delete(entryHashes, key)
				result.RemovedMNs = append(result.RemovedMNs, key)
			}
		}
		for _, e := range diff.MNList {
			entries[e.ProRegTxHash] = e
			entryHashes[e.ProRegTxHash] = e.Hash()
			result.AddedMNs = append(result.AddedMNs, e.ProRegTxHash)
		}
	}

	quorums := l.quorums
	quorumHashes := l.quorumHashes
	if applyQuorums {
		quorums = make(map[QuorumKey]*wire.MsgQFCommit, len(l.quorums)+len(diff.NewQuorums))
		quorumHashes = make(map[QuorumKey]chainhash.Hash, len(l.quorums)+len(diff.NewQuorums))
		for key, q := range l.quorums {
			quorums[key] = q
			quorumHashes[key] = l.quorumHashes[key]
		}
		for _, dq := range diff.DeletedQuorums {
			key := QuorumKey{LLMQType: dq.LLMQType, QuorumHash: dq.QuorumHash}
			if _, ok := quorums[key]; ok {
				delete(quorums, key)
				delete(quorumHashes, key)
				result.RemovedQuorums = append(result.RemovedQuorums, key)
			}
		}
		for _, q := range diff.NewQuorums {
			key := QuorumKey{LLMQType: q.LLMQType, QuorumHash: q.QuorumHash}
			quorums[key] = q
			quorumHashes[key] = q.Hash()
			result.AddedQuorums = append(result.AddedQuorums, key)
		}
	}

	// The candidate sets must hash to exactly the roots the coinbase
	// commits to.  Only the applied sections are checked since a skipped
	// section's live view sits at a different height than the target.
	if applyMNs {
		if root := sortedEntryRoot(entryHashes); root != cb.MerkleRootMNList {
			str := fmt.Sprintf("masternode list root %v does not match "+
				"coinbase commitment %v", root, cb.MerkleRootMNList)
			return nil, ruleError(ErrMerkleMismatch, str)
		}
	}
	if cb.Version > 1 && applyQuorums {
		if root := sortedQuorumRoot(quorumHashes); root != cb.MerkleRootQuorums {
			str := fmt.Sprintf("quorum set root %v does not match "+
				"coinbase commitment %v", root, cb.MerkleRootQuorums)
			return nil, ruleError(ErrQuorumRootMismatch, str)
		}
	}

	// The coinbase itself must be proven to be part of the target block.
	proofRoot, matches, err := extractPartialMerkleRoot(diff.TotalTransactions,
		diff.MerkleHashes, diff.MerkleFlags)
	if err != nil {
		return nil, err
	}
	headerRoot, err := headers.MerkleRoot(cb.Height)
	if err != nil {
		return nil, err
	}
	if proofRoot != *headerRoot {
		str := fmt.Sprintf("partial merkle root %v does not match header "+
			"merkle root %v at height %d", proofRoot, headerRoot, cb.Height)
		return nil, ruleError(ErrBadInclusionProof, str)
	}
	cbHash := diff.CbTx.TxHash()
	proven := false
	for i := range matches {
		if matches[i] == cbHash {
			proven = true
			break
		}
	}
	if !proven {
		str := fmt.Sprintf("partial merkle tree does not prove coinbase "+
			"%v", cbHash)
		return nil, ruleError(ErrBadInclusionProof, str)
	}

	// Every check passed, swap in the candidate maps and advance the
	// cursor of each applied section.
	if applyMNs {
		l.entries = entries
		l.entryHashes = entryHashes
		l.protxHeight = cb.Height
	}
	if applyQuorums {
		l.quorums = quorums
		l.quorumHashes = quorumHashes
		l.llmqHeight = cb.Height
	}
	l.state = StateEnabled

	log.Infof("Applied masternode list diff to height %d (%d masternodes, "+
		"%d quorums)", cb.Height, len(l.entries), len(l.quorums))
	return &result, nil
}

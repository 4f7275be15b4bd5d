// Copyright (c) 2024-2026 The AXErunners developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package mnsync

import (
	"bytes"
	"compress/gzip"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"

	"github.com/btcsuite/btcd/chaincfg/chainhash"

	"github.com/AXErunners/axesync/wire"
)

// snapshotSchemaVersion is bumped whenever the snapshot layout changes in an
// incompatible way.  A snapshot with an unexpected version is discarded and
// sync restarts from the chain's first block.
const snapshotSchemaVersion = 1

// snapshotFile is the on-disk layout of a list snapshot: gzip-compressed
// JSON with the binary entry and commitment encodings hex-armored for
// human inspectability.
type snapshotFile struct {
	SchemaVersion int      `json:"schema_version"`
	State         int32    `json:"state"`
	ProtxHeight   uint32   `json:"protx_height"`
	LLMQHeight    uint32   `json:"llmq_height"`
	Masternodes   []string `json:"masternodes"`
	Quorums       []string `json:"quorums"`
}

// WriteSnapshot persists the current list state to the given path as
// gzip-compressed JSON.
func (l *MNList) WriteSnapshot(path string) error {
	l.mtx.RLock()
	snap := snapshotFile{
		SchemaVersion: snapshotSchemaVersion,
		State:         int32(l.state),
		ProtxHeight:   l.protxHeight,
		LLMQHeight:    l.llmqHeight,
		Masternodes:   make([]string, 0, len(l.entries)),
		Quorums:       make([]string, 0, len(l.quorums)),
	}
	var buf bytes.Buffer
	for _, e := range l.entries {
		buf.Reset()
		if err := e.Encode(&buf, 0); err != nil {
			l.mtx.RUnlock()
			return err
		}
		snap.Masternodes = append(snap.Masternodes, hex.EncodeToString(buf.Bytes()))
	}
	for _, q := range l.quorums {
		buf.Reset()
		if err := q.AxeEncode(&buf, 0); err != nil {
			l.mtx.RUnlock()
			return err
		}
		snap.Quorums = append(snap.Quorums, hex.EncodeToString(buf.Bytes()))
	}
	l.mtx.RUnlock()

	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	zw := gzip.NewWriter(f)
	if err := json.NewEncoder(zw).Encode(&snap); err != nil {
		zw.Close()
		return err
	}
	return zw.Close()
}

// ReadSnapshot loads a persisted snapshot into the list, replacing its
// contents.  A missing file leaves the list at its defaults without error;
// a corrupted or incompatible file is reported as ErrBadSnapshot so the
// caller can fall back to a fresh sync.
func (l *MNList) ReadSnapshot(path string) error {
	f, err := os.Open(path)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return err
	}
	defer f.Close()

	zr, err := gzip.NewReader(f)
	if err != nil {
		return ruleError(ErrBadSnapshot, fmt.Sprintf("bad snapshot: %v", err))
	}
	defer zr.Close()

	var snap snapshotFile
	if err := json.NewDecoder(zr).Decode(&snap); err != nil {
		return ruleError(ErrBadSnapshot, fmt.Sprintf("bad snapshot: %v", err))
	}
	if snap.SchemaVersion != snapshotSchemaVersion {
		str := fmt.Sprintf("snapshot schema version %d, want %d",
			snap.SchemaVersion, snapshotSchemaVersion)
		return ruleError(ErrBadSnapshot, str)
	}

	entries := make(map[chainhash.Hash]*wire.SMLEntry, len(snap.Masternodes))
	entryHashes := make(map[chainhash.Hash]chainhash.Hash, len(snap.Masternodes))
	for _, enc := range snap.Masternodes {
		raw, err := hex.DecodeString(enc)
		if err != nil {
			return ruleError(ErrBadSnapshot, fmt.Sprintf("bad snapshot entry: %v", err))
		}
		e := new(wire.SMLEntry)
		if err := e.Decode(bytes.NewReader(raw), 0); err != nil {
			return ruleError(ErrBadSnapshot, fmt.Sprintf("bad snapshot entry: %v", err))
		}
		entries[e.ProRegTxHash] = e
		entryHashes[e.ProRegTxHash] = e.Hash()
	}

	quorums := make(map[QuorumKey]*wire.MsgQFCommit, len(snap.Quorums))
	quorumHashes := make(map[QuorumKey]chainhash.Hash, len(snap.Quorums))
	for _, enc := range snap.Quorums {
		raw, err := hex.DecodeString(enc)
		if err != nil {
			return ruleError(ErrBadSnapshot, fmt.Sprintf("bad snapshot quorum: %v", err))
		}
		q := new(wire.MsgQFCommit)
		if err := q.AxeDecode(bytes.NewReader(raw), 0); err != nil {
			return ruleError(ErrBadSnapshot, fmt.Sprintf("bad snapshot quorum: %v", err))
		}
		key := QuorumKey{LLMQType: q.LLMQType, QuorumHash: q.QuorumHash}
		quorums[key] = q
		quorumHashes[key] = q.Hash()
	}

	l.mtx.Lock()
	l.state = FeatureState(snap.State)
	l.protxHeight = snap.ProtxHeight
	l.llmqHeight = snap.LLMQHeight
	l.entries = entries
	l.entryHashes = entryHashes
	l.quorums = quorums
	l.quorumHashes = quorumHashes
	l.mtx.Unlock()
	return nil
}

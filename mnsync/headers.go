// Copyright (c) 2024-2026 The AXErunners developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package mnsync

import (
	"bytes"
	"encoding/binary"
	"fmt"

	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/syndtr/goleveldb/leveldb"
	"github.com/syndtr/goleveldb/leveldb/opt"
	"github.com/syndtr/goleveldb/leveldb/storage"

	"github.com/AXErunners/axesync/wire"
)

// Header store key layout.  Heights are encoded big endian so iteration
// order matches chain order.
var (
	headerKeyPrefix = []byte("h")
	heightKeyPrefix = []byte("i")
	tipKey          = []byte("tip")
)

// headerKey returns the key holding the serialized header at height.
func headerKey(height uint32) []byte {
	key := make([]byte, 1+4)
	copy(key, headerKeyPrefix)
	binary.BigEndian.PutUint32(key[1:], height)
	return key
}

// heightKey returns the key holding the height indexed by block hash.
func heightKey(hash *chainhash.Hash) []byte {
	key := make([]byte, 1+chainhash.HashSize)
	copy(key, heightKeyPrefix)
	copy(key[1:], hash[:])
	return key
}

// HeaderStore is a persistent height-indexed block header store.  It gives
// the sync state machine the per-height merkle roots that diff verification
// compares against and the network manager the height to hash resolution a
// getmnlistd request needs.
type HeaderStore struct {
	db  *leveldb.DB
	tip uint32
}

// OpenHeaderStore opens (creating if necessary) the header store at the
// given directory.
func OpenHeaderStore(path string) (*HeaderStore, error) {
	db, err := leveldb.OpenFile(path, &opt.Options{})
	if err != nil {
		return nil, err
	}

	s := &HeaderStore{db: db}
	tip, err := db.Get(tipKey, nil)
	switch {
	case err == leveldb.ErrNotFound:
	case err != nil:
		db.Close()
		return nil, err
	default:
		s.tip = binary.BigEndian.Uint32(tip)
	}
	return s, nil
}

// OpenMemHeaderStore returns a header store backed by transient in-memory
// storage.  It behaves identically to a disk-backed store but is discarded
// on close.
func OpenMemHeaderStore() (*HeaderStore, error) {
	db, err := leveldb.Open(storage.NewMemStorage(), nil)
	if err != nil {
		return nil, err
	}
	return &HeaderStore{db: db}, nil
}

// Close releases the underlying database.
func (s *HeaderStore) Close() error {
	return s.db.Close()
}

// TipHeight returns the height of the highest stored header.
func (s *HeaderStore) TipHeight() uint32 {
	return s.tip
}

// PutHeaders stores a contiguous run of headers starting at the given
// height, indexing each by hash, and advances the stored tip.
func (s *HeaderStore) PutHeaders(startHeight uint32, headers []wire.BlockHeader) error {
	if len(headers) == 0 {
		return nil
	}

	batch := new(leveldb.Batch)
	var buf bytes.Buffer
	for i := range headers {
		height := startHeight + uint32(i)
		buf.Reset()
		if err := headers[i].Serialize(&buf); err != nil {
			return err
		}
		batch.Put(headerKey(height), buf.Bytes())

		hash := headers[i].BlockHash()
		var enc [4]byte
		binary.BigEndian.PutUint32(enc[:], height)
		batch.Put(heightKey(&hash), enc[:])
	}

	end := startHeight + uint32(len(headers)) - 1
	if end > s.tip {
		var enc [4]byte
		binary.BigEndian.PutUint32(enc[:], end)
		batch.Put(tipKey, enc[:])
	}

	if err := s.db.Write(batch, nil); err != nil {
		return err
	}
	if end > s.tip {
		s.tip = end
	}
	return nil
}

// Header returns the block header stored at the given height.
func (s *HeaderStore) Header(height uint32) (*wire.BlockHeader, error) {
	raw, err := s.db.Get(headerKey(height), nil)
	if err == leveldb.ErrNotFound {
		str := fmt.Sprintf("no header stored at height %d", height)
		return nil, ruleError(ErrUnknownBlock, str)
	}
	if err != nil {
		return nil, err
	}

	var bh wire.BlockHeader
	if err := bh.Deserialize(bytes.NewReader(raw)); err != nil {
		return nil, err
	}
	return &bh, nil
}

// BlockHash returns the hash of the block at the given height.
func (s *HeaderStore) BlockHash(height uint32) (*chainhash.Hash, error) {
	bh, err := s.Header(height)
	if err != nil {
		return nil, err
	}
	hash := bh.BlockHash()
	return &hash, nil
}

// MerkleRoot returns the transaction merkle root recorded by the header at
// the given height.
func (s *HeaderStore) MerkleRoot(height uint32) (*chainhash.Hash, error) {
	bh, err := s.Header(height)
	if err != nil {
		return nil, err
	}
	return &bh.MerkleRoot, nil
}

// HeightByHash returns the height of the block with the given hash.
func (s *HeaderStore) HeightByHash(hash *chainhash.Hash) (uint32, error) {
	raw, err := s.db.Get(heightKey(hash), nil)
	if err == leveldb.ErrNotFound {
		str := fmt.Sprintf("no header stored for block %v", hash)
		return 0, ruleError(ErrUnknownBlock, str)
	}
	if err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint32(raw), nil
}

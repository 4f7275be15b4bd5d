// Copyright (c) 2024-2026 The AXErunners developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package wire

import (
	"bytes"
	"errors"
	"reflect"
	"testing"

	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/davecgh/go-spew/spew"
	"github.com/jrick/bitset"

	"github.com/AXErunners/axesync/chaincfg"
)

// testCoinbaseTx builds a coinbase special transaction whose extra payload is
// a version 2 CbTx committing to the given roots.
func testCoinbaseTx(height uint32, mnRoot, quorumRoot chainhash.Hash) MsgTx {
	cb := CbTx{
		Version:           2,
		Height:            height,
		MerkleRootMNList:  mnRoot,
		MerkleRootQuorums: quorumRoot,
	}
	return MsgTx{
		Version: TxVersionSpecial,
		TxType:  TxTypeCoinbase,
		TxIn: []*TxIn{{
			PreviousOutPoint: OutPoint{Index: 0xffffffff},
			SignatureScript:  []byte{0x03, 0x01, 0x02, 0x03},
			Sequence:         0xffffffff,
		}},
		TxOut: []*TxOut{{
			Value:    500000000,
			PkScript: []byte{0x51},
		}},
		ExtraPayload: cb.Encode(),
	}
}

// testSMLEntry builds a masternode entry whose fields derive from the seed so
// distinct seeds produce distinct entries.
func testSMLEntry(seed byte) *SMLEntry {
	entry := &SMLEntry{
		ProRegTxHash:  chainhash.Hash{seed, 0x01},
		ConfirmedHash: chainhash.Hash{seed, 0x02},
		Port:          9937,
		IsValid:       true,
	}
	copy(entry.IP[:], ipv4MappedPrefix[:])
	entry.IP[12] = 10
	entry.IP[15] = seed
	entry.PubKeyOperator[0] = seed
	entry.KeyIDVoting[0] = seed
	return entry
}

// testQFCommit builds a quorum commitment for a 50 member quorum.
func testQFCommit(seed byte) *MsgQFCommit {
	const members = 50
	signers := bitset.NewBytes(members)
	valid := bitset.NewBytes(members)
	for i := 0; i < members; i++ {
		valid.Set(i)
		if i%2 == 0 {
			signers.Set(i)
		}
	}
	msg := &MsgQFCommit{
		Version:          1,
		LLMQType:         chaincfg.LLMQType5060,
		QuorumHash:       chainhash.Hash{seed, 0x07},
		Signers:          signers,
		SignersSize:      members,
		ValidMembers:     valid,
		ValidMembersSize: members,
	}
	msg.QuorumPubKey[0] = seed
	msg.QuorumSig[0] = seed
	msg.Sig[0] = seed
	return msg
}

// TestMNListDiffWire tests the MsgMNListDiff wire encode and decode with and
// without the optional quorum sections.
func TestMNListDiffWire(t *testing.T) {
	pver := chaincfg.ProtocolVersion

	cbTx := testCoinbaseTx(1000, chainhash.Hash{0x0a}, chainhash.Hash{0x0b})
	base := MsgMNListDiff{
		BaseBlockHash:     chainhash.Hash{0x01},
		BlockHash:         chainhash.Hash{0x02},
		TotalTransactions: 3,
		MerkleHashes: []chainhash.Hash{
			cbTx.TxHash(), {0x03}, {0x04},
		},
		MerkleFlags: []byte{0x07},
		CbTx:        cbTx,
		DeletedMNs:  []chainhash.Hash{{0x05}},
		MNList:      []*SMLEntry{testSMLEntry(1), testSMLEntry(2)},
	}

	withQuorums := base
	withQuorums.HasQuorums = true
	withQuorums.DeletedQuorums = []DeletedQuorum{{
		LLMQType:   chaincfg.LLMQType5060,
		QuorumHash: chainhash.Hash{0x06},
	}}
	withQuorums.NewQuorums = []*MsgQFCommit{testQFCommit(9)}

	tests := []struct {
		name string
		in   *MsgMNListDiff
	}{
		{"masternode sections only", &base},
		{"with quorum sections", &withQuorums},
	}

	for _, test := range tests {
		var buf bytes.Buffer
		err := test.in.AxeEncode(&buf, pver)
		if err != nil {
			t.Errorf("%s: AxeEncode: %v", test.name, err)
			continue
		}

		var msg MsgMNListDiff
		err = msg.AxeDecode(bytes.NewBuffer(buf.Bytes()), pver)
		if err != nil {
			t.Errorf("%s: AxeDecode: %v", test.name, err)
			continue
		}
		if !reflect.DeepEqual(&msg, test.in) {
			t.Errorf("%s: decoded diff mismatch\n got: %s want: %s",
				test.name, spew.Sdump(&msg), spew.Sdump(test.in))
			continue
		}
	}
}

// TestMNListDiffWireErrors performs negative tests against decoding
// masternode list diffs.
func TestMNListDiffWireErrors(t *testing.T) {
	pver := chaincfg.ProtocolVersion

	cbTx := testCoinbaseTx(1, chainhash.Hash{}, chainhash.Hash{})
	diff := MsgMNListDiff{
		TotalTransactions: 1,
		MerkleHashes:      []chainhash.Hash{cbTx.TxHash()},
		MerkleFlags:       []byte{0x01},
		CbTx:              cbTx,
	}

	var buf bytes.Buffer
	err := diff.AxeEncode(&buf, pver)
	if err != nil {
		t.Fatalf("AxeEncode: %v", err)
	}
	valid := buf.Bytes()

	// More proof hashes than the block has transactions.
	bad := append([]byte{}, valid...)
	// totalTransactions sits right after the two 32 byte block hashes.
	littleEndian.PutUint32(bad[64:], 0)
	var msg MsgMNListDiff
	err = msg.AxeDecode(bytes.NewBuffer(bad), pver)
	if !errors.Is(err, ErrTooManyProofHashes) {
		t.Fatalf("proof hash overflow: got %v, want %v", err,
			ErrTooManyProofHashes)
	}

	// Trailing garbage after a complete message with quorum sections.
	withQuorums := diff
	withQuorums.HasQuorums = true
	buf.Reset()
	err = withQuorums.AxeEncode(&buf, pver)
	if err != nil {
		t.Fatalf("AxeEncode: %v", err)
	}
	bad = append(buf.Bytes(), 0xff)
	err = msg.AxeDecode(bytes.NewBuffer(bad), pver)
	if err == nil {
		t.Fatal("expected error decoding trailing garbage")
	}

	// Truncated stream mid entry.
	diffWithEntry := diff
	diffWithEntry.MNList = []*SMLEntry{testSMLEntry(1)}
	buf.Reset()
	err = diffWithEntry.AxeEncode(&buf, pver)
	if err != nil {
		t.Fatalf("AxeEncode: %v", err)
	}
	truncated := buf.Bytes()[:buf.Len()-10]
	err = msg.AxeDecode(bytes.NewBuffer(truncated), pver)
	if err == nil {
		t.Fatal("expected error decoding truncated entry")
	}
}

// TestQFCommitWire tests the MsgQFCommit wire encode and decode including the
// packed bitset layout.
func TestQFCommitWire(t *testing.T) {
	pver := chaincfg.ProtocolVersion
	in := testQFCommit(3)

	var buf bytes.Buffer
	err := in.AxeEncode(&buf, pver)
	if err != nil {
		t.Fatalf("AxeEncode: %v", err)
	}

	// Fixed fields 307 bytes + two bitsets of (1 varint + 7 packed) each.
	if want := 307 + 2*8; buf.Len() != want {
		t.Fatalf("unexpected encoded length - got %d, want %d",
			buf.Len(), want)
	}

	var msg MsgQFCommit
	err = msg.AxeDecode(bytes.NewBuffer(buf.Bytes()), pver)
	if err != nil {
		t.Fatalf("AxeDecode: %v", err)
	}
	if !reflect.DeepEqual(&msg, in) {
		t.Fatalf("decoded commitment mismatch\n got: %s want: %s",
			spew.Sdump(&msg), spew.Sdump(in))
	}

	// A declared member count over the limit must be rejected.
	var bad bytes.Buffer
	writeElements(&bad, uint16(1), chaincfg.LLMQType5060, &chainhash.Hash{})
	WriteVarInt(&bad, pver, MaxQuorumMembers+1)
	err = msg.AxeDecode(bytes.NewBuffer(bad.Bytes()), pver)
	if !errors.Is(err, ErrInvalidMsg) {
		t.Fatalf("oversized bitset: got %v, want %v", err, ErrInvalidMsg)
	}

	// The commitment hash is deterministic and sensitive to the signer
	// set.
	if in.Hash() != in.Hash() {
		t.Fatal("commitment hash is not deterministic")
	}
	other := testQFCommit(3)
	other.Signers.Set(1)
	if in.Hash() == other.Hash() {
		t.Fatal("different signer sets produced the same hash")
	}
}

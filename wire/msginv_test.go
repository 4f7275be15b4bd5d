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

	"github.com/AXErunners/axesync/chaincfg"
)

// TestInvWire tests the MsgInv wire encode and decode for various numbers of
// inventory vectors.
func TestInvWire(t *testing.T) {
	pver := chaincfg.ProtocolVersion

	hashLock := chainhash.Hash{0x01, 0x02, 0x03}
	hashTx := chainhash.Hash{0x04, 0x05, 0x06}
	ivLock := NewInvVect(InvTypeISLock, &hashLock)
	ivTx := NewInvVect(InvTypeTx, &hashTx)

	multiInv := NewMsgInv()
	multiInv.AddInvVect(ivLock)
	multiInv.AddInvVect(ivTx)

	tests := []struct {
		in *MsgInv
	}{
		{NewMsgInv()},
		{multiInv},
	}

	t.Logf("Running %d tests", len(tests))
	for i, test := range tests {
		var buf bytes.Buffer
		err := test.in.AxeEncode(&buf, pver)
		if err != nil {
			t.Errorf("AxeEncode #%d error %v", i, err)
			continue
		}

		var msg MsgInv
		err = msg.AxeDecode(bytes.NewBuffer(buf.Bytes()), pver)
		if err != nil {
			t.Errorf("AxeDecode #%d error %v", i, err)
			continue
		}
		if !reflect.DeepEqual(msg.InvList, test.in.InvList) {
			t.Errorf("AxeDecode #%d\n got: %s want: %s", i,
				spew.Sdump(msg.InvList), spew.Sdump(test.in.InvList))
			continue
		}
	}
}

// TestInvWireErrors ensures an inventory message claiming more vectors than
// the protocol limit is rejected without allocating for them.
func TestInvWireErrors(t *testing.T) {
	pver := chaincfg.ProtocolVersion

	// Message that claims to have one more inventory vector than the
	// protocol allows.
	var buf bytes.Buffer
	WriteVarInt(&buf, pver, MaxInvPerMsg+1)

	var msg MsgInv
	err := msg.AxeDecode(bytes.NewBuffer(buf.Bytes()), pver)
	if !errors.Is(err, ErrTooManyVectors) {
		t.Fatalf("AxeDecode: got %v, want %v", err, ErrTooManyVectors)
	}

	// The same limit applies to getdata.
	var gd MsgGetData
	err = gd.AxeDecode(bytes.NewBuffer(buf.Bytes()), pver)
	if !errors.Is(err, ErrTooManyVectors) {
		t.Fatalf("AxeDecode: got %v, want %v", err, ErrTooManyVectors)
	}

	// AddInvVect enforces the same limit when building a message.
	maxed := &MsgInv{InvList: make([]*InvVect, MaxInvPerMsg)}
	err = maxed.AddInvVect(NewInvVect(InvTypeBlock, &chainhash.Hash{}))
	if !errors.Is(err, ErrTooManyVectors) {
		t.Fatalf("AddInvVect: got %v, want %v", err, ErrTooManyVectors)
	}
}

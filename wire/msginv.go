// Copyright (c) 2024-2026 The AXErunners developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package wire

import (
	"fmt"
	"io"
)

// MsgInv implements the Message interface and represents an AXE inv message.
// It is used to advertise a peer's known data such as blocks, transactions
// and InstantSend locks through inventory vectors.  It may be sent
// unsolicited to announce new data or in response to a getdata message
// (MsgGetData).  Each message is limited to a maximum number of inventory
// vectors, which is currently 50,000.
type MsgInv struct {
	InvList []*InvVect
}

// AddInvVect adds an inventory vector to the message.
func (msg *MsgInv) AddInvVect(iv *InvVect) error {
	const op = "MsgInv.AddInvVect"
	if len(msg.InvList)+1 > MaxInvPerMsg {
		msg := fmt.Sprintf("too many invvect in message [max %v]", MaxInvPerMsg)
		return messageError(op, ErrTooManyVectors, msg)
	}

	msg.InvList = append(msg.InvList, iv)
	return nil
}

// AxeDecode decodes r using the AXE protocol encoding into the receiver.
// This is part of the Message interface implementation.
func (msg *MsgInv) AxeDecode(r io.Reader, pver uint32) error {
	const op = "MsgInv.AxeDecode"
	count, err := ReadVarInt(r, pver)
	if err != nil {
		return err
	}

	// Limit to max inventory vectors per message.
	if count > MaxInvPerMsg {
		msg := fmt.Sprintf("too many invvect in message [count %v, max %v]",
			count, MaxInvPerMsg)
		return messageError(op, ErrTooManyVectors, msg)
	}

	// Create a contiguous slice of inventory vectors to deserialize into in
	// order to reduce the number of allocations.
	invList := make([]InvVect, count)
	msg.InvList = make([]*InvVect, 0, count)
	for i := uint64(0); i < count; i++ {
		iv := &invList[i]
		err := readInvVect(r, pver, iv)
		if err != nil {
			return err
		}
		msg.AddInvVect(iv)
	}

	return nil
}

// AxeEncode encodes the receiver to w using the AXE protocol encoding.
// This is part of the Message interface implementation.
func (msg *MsgInv) AxeEncode(w io.Writer, pver uint32) error {
	const op = "MsgInv.AxeEncode"
	count := len(msg.InvList)
	if count > MaxInvPerMsg {
		msg := fmt.Sprintf("too many invvect in message [count %v, max %v]",
			count, MaxInvPerMsg)
		return messageError(op, ErrTooManyVectors, msg)
	}

	err := WriteVarInt(w, pver, uint64(count))
	if err != nil {
		return err
	}

	for _, iv := range msg.InvList {
		err := writeInvVect(w, pver, iv)
		if err != nil {
			return err
		}
	}

	return nil
}

// Command returns the protocol command string for the message.  This is part
// of the Message interface implementation.
func (msg *MsgInv) Command() string {
	return CmdInv
}

// MaxPayloadLength returns the maximum length the payload can be for the
// receiver.  This is part of the Message interface implementation.
func (msg *MsgInv) MaxPayloadLength(pver uint32) uint32 {
	// Num inventory vectors (varInt) + max allowed inventory vectors.
	return uint32(VarIntSerializeSize(MaxInvPerMsg)) +
		(MaxInvPerMsg * maxInvVectPayload)
}

// NewMsgInv returns a new AXE inv message that conforms to the Message
// interface.  See MsgInv for details.
func NewMsgInv() *MsgInv {
	return &MsgInv{
		InvList: make([]*InvVect, 0),
	}
}

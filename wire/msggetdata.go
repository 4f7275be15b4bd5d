// Copyright (c) 2024-2026 The AXErunners developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package wire

import (
	"fmt"
	"io"
)

// MsgGetData implements the Message interface and represents an AXE getdata
// message.  It is used to request data such as transactions and InstantSend
// locks that have been announced through an inv message (MsgInv).  Each
// message is limited to a maximum number of inventory vectors, which is
// currently 50,000.
type MsgGetData struct {
	InvList []*InvVect
}

// AddInvVect adds an inventory vector to the message.
func (msg *MsgGetData) AddInvVect(iv *InvVect) error {
	const op = "MsgGetData.AddInvVect"
	if len(msg.InvList)+1 > MaxInvPerMsg {
		msg := fmt.Sprintf("too many invvect in message [max %v]", MaxInvPerMsg)
		return messageError(op, ErrTooManyVectors, msg)
	}

	msg.InvList = append(msg.InvList, iv)
	return nil
}

// AxeDecode decodes r using the AXE protocol encoding into the receiver.
// This is part of the Message interface implementation.
func (msg *MsgGetData) AxeDecode(r io.Reader, pver uint32) error {
	const op = "MsgGetData.AxeDecode"
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
func (msg *MsgGetData) AxeEncode(w io.Writer, pver uint32) error {
	const op = "MsgGetData.AxeEncode"
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
func (msg *MsgGetData) Command() string {
	return CmdGetData
}

// MaxPayloadLength returns the maximum length the payload can be for the
// receiver.  This is part of the Message interface implementation.
func (msg *MsgGetData) MaxPayloadLength(pver uint32) uint32 {
	// Num inventory vectors (varInt) + max allowed inventory vectors.
	return uint32(VarIntSerializeSize(MaxInvPerMsg)) +
		(MaxInvPerMsg * maxInvVectPayload)
}

// NewMsgGetData returns a new AXE getdata message that conforms to the
// Message interface.  See MsgGetData for details.
func NewMsgGetData() *MsgGetData {
	return &MsgGetData{
		InvList: make([]*InvVect, 0),
	}
}

// Copyright (c) 2024-2026 The AXErunners developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package wire

import (
	"fmt"
	"io"
)

// MaxAddrPerMsg is the maximum number of addresses that can be in a single
// AXE addr message (MsgAddr).
const MaxAddrPerMsg = 1000

// MsgAddr implements the Message interface and represents an AXE addr
// message.  It is used to provide a list of known active peers on the
// network.  Each message is limited to a maximum number of addresses, which
// is currently 1000.
//
// Use the AddAddress function to build up the list of known addresses when
// sending an addr message to another peer.
type MsgAddr struct {
	AddrList []*NetAddress
}

// AddAddress adds a known active peer to the message.
func (msg *MsgAddr) AddAddress(na *NetAddress) error {
	const op = "MsgAddr.AddAddress"
	if len(msg.AddrList)+1 > MaxAddrPerMsg {
		msg := fmt.Sprintf("too many addresses in message [max %v]", MaxAddrPerMsg)
		return messageError(op, ErrTooManyAddrs, msg)
	}

	msg.AddrList = append(msg.AddrList, na)
	return nil
}

// AxeDecode decodes r using the AXE protocol encoding into the receiver.
// This is part of the Message interface implementation.
func (msg *MsgAddr) AxeDecode(r io.Reader, pver uint32) error {
	const op = "MsgAddr.AxeDecode"
	count, err := ReadVarInt(r, pver)
	if err != nil {
		return err
	}

	// Limit to max addresses per message.
	if count > MaxAddrPerMsg {
		msg := fmt.Sprintf("too many addresses for message [count %v, max %v]",
			count, MaxAddrPerMsg)
		return messageError(op, ErrTooManyAddrs, msg)
	}

	addrList := make([]NetAddress, count)
	msg.AddrList = make([]*NetAddress, 0, count)
	for i := uint64(0); i < count; i++ {
		na := &addrList[i]
		err := readNetAddress(r, pver, na, true)
		if err != nil {
			return err
		}
		msg.AddAddress(na)
	}
	return nil
}

// AxeEncode encodes the receiver to w using the AXE protocol encoding.
// This is part of the Message interface implementation.
func (msg *MsgAddr) AxeEncode(w io.Writer, pver uint32) error {
	const op = "MsgAddr.AxeEncode"
	count := len(msg.AddrList)
	if count > MaxAddrPerMsg {
		msg := fmt.Sprintf("too many addresses for message [count %v, max %v]",
			count, MaxAddrPerMsg)
		return messageError(op, ErrTooManyAddrs, msg)
	}

	err := WriteVarInt(w, pver, uint64(count))
	if err != nil {
		return err
	}

	for _, na := range msg.AddrList {
		err = writeNetAddress(w, pver, na, true)
		if err != nil {
			return err
		}
	}

	return nil
}

// Command returns the protocol command string for the message.  This is part
// of the Message interface implementation.
func (msg *MsgAddr) Command() string {
	return CmdAddr
}

// MaxPayloadLength returns the maximum length the payload can be for the
// receiver.  This is part of the Message interface implementation.
func (msg *MsgAddr) MaxPayloadLength(pver uint32) uint32 {
	// Num addresses (size of varInt for max address per message) + max
	// allowed addresses * max address size.
	return uint32(VarIntSerializeSize(MaxAddrPerMsg)) +
		(MaxAddrPerMsg * maxNetAddressPayload())
}

// NewMsgAddr returns a new AXE addr message that conforms to the Message
// interface.  See MsgAddr for details.
func NewMsgAddr() *MsgAddr {
	return &MsgAddr{
		AddrList: make([]*NetAddress, 0, MaxAddrPerMsg),
	}
}

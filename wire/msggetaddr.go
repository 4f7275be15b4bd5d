// Copyright (c) 2024-2026 The AXErunners developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package wire

import (
	"io"
)

// MsgGetAddr implements the Message interface and represents an AXE getaddr
// message.  It is used to request a list of known active peers on the network
// from a peer to help identify potential nodes.  The list is returned via one
// or more addr messages (MsgAddr).
//
// This message has no payload.
type MsgGetAddr struct{}

// AxeDecode decodes r using the AXE protocol encoding into the receiver.
// This is part of the Message interface implementation.
func (msg *MsgGetAddr) AxeDecode(r io.Reader, pver uint32) error {
	return nil
}

// AxeEncode encodes the receiver to w using the AXE protocol encoding.
// This is part of the Message interface implementation.
func (msg *MsgGetAddr) AxeEncode(w io.Writer, pver uint32) error {
	return nil
}

// Command returns the protocol command string for the message.  This is part
// of the Message interface implementation.
func (msg *MsgGetAddr) Command() string {
	return CmdGetAddr
}

// MaxPayloadLength returns the maximum length the payload can be for the
// receiver.  This is part of the Message interface implementation.
func (msg *MsgGetAddr) MaxPayloadLength(pver uint32) uint32 {
	return 0
}

// NewMsgGetAddr returns a new AXE getaddr message that conforms to the
// Message interface.
func NewMsgGetAddr() *MsgGetAddr {
	return &MsgGetAddr{}
}

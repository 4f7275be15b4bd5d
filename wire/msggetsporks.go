// Copyright (c) 2024-2026 The AXErunners developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package wire

import (
	"io"
)

// MsgGetSporks implements the Message interface and represents an AXE
// getsporks message.  It asks a peer to send its current view of every spork
// as individual spork messages (MsgSpork).
//
// This message has no payload.
type MsgGetSporks struct{}

// AxeDecode decodes r using the AXE protocol encoding into the receiver.
// This is part of the Message interface implementation.
func (msg *MsgGetSporks) AxeDecode(r io.Reader, pver uint32) error {
	return nil
}

// AxeEncode encodes the receiver to w using the AXE protocol encoding.
// This is part of the Message interface implementation.
func (msg *MsgGetSporks) AxeEncode(w io.Writer, pver uint32) error {
	return nil
}

// Command returns the protocol command string for the message.  This is part
// of the Message interface implementation.
func (msg *MsgGetSporks) Command() string {
	return CmdGetSporks
}

// MaxPayloadLength returns the maximum length the payload can be for the
// receiver.  This is part of the Message interface implementation.
func (msg *MsgGetSporks) MaxPayloadLength(pver uint32) uint32 {
	return 0
}

// NewMsgGetSporks returns a new AXE getsporks message that conforms to the
// Message interface.
func NewMsgGetSporks() *MsgGetSporks {
	return &MsgGetSporks{}
}

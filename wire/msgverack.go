// Copyright (c) 2024-2026 The AXErunners developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package wire

import (
	"io"
)

// MsgVerAck defines an AXE verack message which is used for a peer to
// acknowledge a version message (MsgVersion) after it has been used to
// negotiate parameters.  It implements the Message interface.
//
// This message has no payload.
type MsgVerAck struct{}

// AxeDecode decodes r using the AXE protocol encoding into the receiver.
// This is part of the Message interface implementation.
func (msg *MsgVerAck) AxeDecode(r io.Reader, pver uint32) error {
	return nil
}

// AxeEncode encodes the receiver to w using the AXE protocol encoding.
// This is part of the Message interface implementation.
func (msg *MsgVerAck) AxeEncode(w io.Writer, pver uint32) error {
	return nil
}

// Command returns the protocol command string for the message.  This is part
// of the Message interface implementation.
func (msg *MsgVerAck) Command() string {
	return CmdVerAck
}

// MaxPayloadLength returns the maximum length the payload can be for the
// receiver.  This is part of the Message interface implementation.
func (msg *MsgVerAck) MaxPayloadLength(pver uint32) uint32 {
	return 0
}

// NewMsgVerAck returns a new AXE verack message that conforms to the Message
// interface.
func NewMsgVerAck() *MsgVerAck {
	return &MsgVerAck{}
}

// Copyright (c) 2024-2026 The AXErunners developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package wire

import "io"

// MsgFilterClear implements the Message interface and represents an AXE
// filterclear message which is used to reset a bloom filter.  It has no
// payload.
type MsgFilterClear struct{}

// AxeDecode decodes r using the AXE protocol encoding into the receiver.
// This is part of the Message interface implementation.
func (msg *MsgFilterClear) AxeDecode(r io.Reader, pver uint32) error {
	return nil
}

// AxeEncode encodes the receiver to w using the AXE protocol encoding.
// This is part of the Message interface implementation.
func (msg *MsgFilterClear) AxeEncode(w io.Writer, pver uint32) error {
	return nil
}

// Command returns the protocol command string for the message.  This is part
// of the Message interface implementation.
func (msg *MsgFilterClear) Command() string {
	return CmdFilterClear
}

// MaxPayloadLength returns the maximum length the payload can be for the
// receiver.  This is part of the Message interface implementation.
func (msg *MsgFilterClear) MaxPayloadLength(pver uint32) uint32 {
	return 0
}

// NewMsgFilterClear returns a new filterclear message that conforms to the
// Message interface.
func NewMsgFilterClear() *MsgFilterClear {
	return &MsgFilterClear{}
}

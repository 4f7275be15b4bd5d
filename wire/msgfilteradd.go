// Copyright (c) 2024-2026 The AXErunners developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package wire

import (
	"fmt"
	"io"
)

// MaxFilterAddDataSize is the maximum byte size of a data element to add to
// the bloom filter.  It equals the maximum element size of a script.
const MaxFilterAddDataSize = 520

// MsgFilterAdd implements the Message interface and represents an AXE
// filteradd message.  It is used to add a data element to an existing bloom
// filter.
type MsgFilterAdd struct {
	Data []byte
}

// AxeDecode decodes r using the AXE protocol encoding into the receiver.
// This is part of the Message interface implementation.
func (msg *MsgFilterAdd) AxeDecode(r io.Reader, pver uint32) error {
	var err error
	msg.Data, err = ReadVarBytes(r, pver, MaxFilterAddDataSize,
		"filteradd data")
	return err
}

// AxeEncode encodes the receiver to w using the AXE protocol encoding.
// This is part of the Message interface implementation.
func (msg *MsgFilterAdd) AxeEncode(w io.Writer, pver uint32) error {
	const op = "MsgFilterAdd.AxeEncode"
	if len(msg.Data) > MaxFilterAddDataSize {
		str := fmt.Sprintf("filteradd size too large [size %d, max %d]",
			len(msg.Data), MaxFilterAddDataSize)
		return messageError(op, ErrElementTooLarge, str)
	}

	return WriteVarBytes(w, pver, msg.Data)
}

// Command returns the protocol command string for the message.  This is part
// of the Message interface implementation.
func (msg *MsgFilterAdd) Command() string {
	return CmdFilterAdd
}

// MaxPayloadLength returns the maximum length the payload can be for the
// receiver.  This is part of the Message interface implementation.
func (msg *MsgFilterAdd) MaxPayloadLength(pver uint32) uint32 {
	return uint32(VarIntSerializeSize(MaxFilterAddDataSize)) +
		MaxFilterAddDataSize
}

// NewMsgFilterAdd returns a new filteradd message that conforms to the
// Message interface using the passed data.
func NewMsgFilterAdd(data []byte) *MsgFilterAdd {
	return &MsgFilterAdd{Data: data}
}

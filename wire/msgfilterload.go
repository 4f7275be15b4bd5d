// Copyright (c) 2024-2026 The AXErunners developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package wire

import (
	"fmt"
	"io"
)

// BloomUpdateType specifies how the filter is updated when a match is found.
type BloomUpdateType uint8

const (
	// BloomUpdateNone indicates the filter is not adjusted when a match is
	// found.
	BloomUpdateNone BloomUpdateType = iota

	// BloomUpdateAll indicates if the filter matches any data element in a
	// script, the outpoint is serialized and inserted into the filter.
	BloomUpdateAll

	// BloomUpdateP2PubkeyOnly indicates the outpoint is inserted into the
	// filter only if a data element in the script is matched and the script
	// is of the standard pay-to-pubkey or multisig forms.
	BloomUpdateP2PubkeyOnly
)

const (
	// MaxFilterLoadHashFuncs is the maximum number of hash functions to
	// load into the bloom filter.
	MaxFilterLoadHashFuncs = 50

	// MaxFilterLoadFilterSize is the maximum size in bytes a filter may be.
	MaxFilterLoadFilterSize = 36000
)

// MsgFilterLoad implements the Message interface and represents an AXE
// filterload message used to reset a bloom filter.
type MsgFilterLoad struct {
	Filter    []byte
	HashFuncs uint32
	Tweak     uint32
	Flags     BloomUpdateType
}

// AxeDecode decodes r using the AXE protocol encoding into the receiver.
// This is part of the Message interface implementation.
func (msg *MsgFilterLoad) AxeDecode(r io.Reader, pver uint32) error {
	const op = "MsgFilterLoad.AxeDecode"
	var err error
	msg.Filter, err = ReadVarBytes(r, pver, MaxFilterLoadFilterSize,
		"filterload filter size")
	if err != nil {
		return err
	}

	err = readElements(r, &msg.HashFuncs, &msg.Tweak, (*uint8)(&msg.Flags))
	if err != nil {
		return err
	}

	if msg.HashFuncs > MaxFilterLoadHashFuncs {
		str := fmt.Sprintf("too many filter hash functions [count %d, "+
			"max %d]", msg.HashFuncs, MaxFilterLoadHashFuncs)
		return messageError(op, ErrTooManyHashFuncs, str)
	}

	return nil
}

// AxeEncode encodes the receiver to w using the AXE protocol encoding.
// This is part of the Message interface implementation.
func (msg *MsgFilterLoad) AxeEncode(w io.Writer, pver uint32) error {
	const op = "MsgFilterLoad.AxeEncode"
	if len(msg.Filter) > MaxFilterLoadFilterSize {
		str := fmt.Sprintf("filter too large [size %d, max %d]",
			len(msg.Filter), MaxFilterLoadFilterSize)
		return messageError(op, ErrFilterTooLarge, str)
	}
	if msg.HashFuncs > MaxFilterLoadHashFuncs {
		str := fmt.Sprintf("too many filter hash functions [count %d, "+
			"max %d]", msg.HashFuncs, MaxFilterLoadHashFuncs)
		return messageError(op, ErrTooManyHashFuncs, str)
	}

	err := WriteVarBytes(w, pver, msg.Filter)
	if err != nil {
		return err
	}

	return writeElements(w, msg.HashFuncs, msg.Tweak, uint8(msg.Flags))
}

// Command returns the protocol command string for the message.  This is part
// of the Message interface implementation.
func (msg *MsgFilterLoad) Command() string {
	return CmdFilterLoad
}

// MaxPayloadLength returns the maximum length the payload can be for the
// receiver.  This is part of the Message interface implementation.
func (msg *MsgFilterLoad) MaxPayloadLength(pver uint32) uint32 {
	// Filter size varint + filter + hash funcs + tweak + flags.
	return uint32(VarIntSerializeSize(MaxFilterLoadFilterSize)) +
		MaxFilterLoadFilterSize + 4 + 4 + 1
}

// NewMsgFilterLoad returns a new filterload message that conforms to the
// Message interface using the passed parameters.
func NewMsgFilterLoad(filter []byte, hashFuncs, tweak uint32,
	flags BloomUpdateType) *MsgFilterLoad {

	return &MsgFilterLoad{
		Filter:    filter,
		HashFuncs: hashFuncs,
		Tweak:     tweak,
		Flags:     flags,
	}
}

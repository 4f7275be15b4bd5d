// Copyright (c) 2024-2026 The AXErunners developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

/*
Package wire implements the AXE wire protocol.

This package is used by the sync engine to send and receive AXE peer to peer
messages.  It deals with the binary encoding and decoding of every message the
engine speaks, including the masternode list diff messages and the quorum
commitments they carry.

# Message Interaction

The Message interface defines the contract every wire message fulfills.  The
ReadMessage and WriteMessage functions handle framing: a message on the wire
is a 24 byte header holding the network start string, the zero padded command,
the payload length, and the first four bytes of the double SHA-256 of the
payload, followed by the payload itself.  An empty payload carries a fixed
sentinel checksum.  ReadMessage resynchronizes to the start string when the
stream is not aligned, bounded by the maximum message payload.

# Errors

Errors returned by this package are of type MessageError and carry an
ErrorKind describing the failure.  The kind can be tested with errors.Is to
distinguish malformed peer input from local I/O failures.
*/
package wire

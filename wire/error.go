// Copyright (c) 2024-2026 The AXErunners developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package wire

// ErrorKind identifies a kind of error.  It has full support for errors.Is
// and errors.As, so the caller can directly check against an error kind when
// determining the reason for an error.
type ErrorKind string

// These constants are used to identify a specific Error.
const (
	// ErrNonCanonicalVarInt is returned when a variable length integer is
	// not canonically encoded.
	ErrNonCanonicalVarInt = ErrorKind("ErrNonCanonicalVarInt")

	// ErrVarStringTooLong is returned when a variable string exceeds the
	// maximum message size allowed.
	ErrVarStringTooLong = ErrorKind("ErrVarStringTooLong")

	// ErrVarBytesTooLong is returned when a variable-length byte slice
	// exceeds the maximum message size allowed.
	ErrVarBytesTooLong = ErrorKind("ErrVarBytesTooLong")

	// ErrCmdTooLong is returned when a command exceeds the maximum command
	// size allowed.
	ErrCmdTooLong = ErrorKind("ErrCmdTooLong")

	// ErrPayloadTooLarge is returned when a payload exceeds the maximum
	// payload size allowed.
	ErrPayloadTooLarge = ErrorKind("ErrPayloadTooLarge")

	// ErrWrongNetwork is returned when a message intended for a different
	// network is received.
	ErrWrongNetwork = ErrorKind("ErrWrongNetwork")

	// ErrNoMagicFound is returned when the network start string cannot be
	// located within the bounded scan window of the byte stream.
	ErrNoMagicFound = ErrorKind("ErrNoMagicFound")

	// ErrMalformedCmd is returned when a malformed command is received.
	ErrMalformedCmd = ErrorKind("ErrMalformedCmd")

	// ErrUnknownCmd is returned when an unknown command is received.
	ErrUnknownCmd = ErrorKind("ErrUnknownCmd")

	// ErrPayloadChecksum is returned when a message with an invalid
	// checksum is received.
	ErrPayloadChecksum = ErrorKind("ErrPayloadChecksum")

	// ErrTooManyAddrs is returned when an address list exceeds the maximum
	// allowed.
	ErrTooManyAddrs = ErrorKind("ErrTooManyAddrs")

	// ErrTooManyVectors is returned when the number of inventory vectors
	// exceeds the maximum allowed.
	ErrTooManyVectors = ErrorKind("ErrTooManyVectors")

	// ErrTrailingBytes is returned when a self-contained payload carries
	// bytes beyond its declared encoding.
	ErrTrailingBytes = ErrorKind("ErrTrailingBytes")

	// ErrInvalidSigSize is returned when a signature field is not exactly
	// the size the protocol requires.
	ErrInvalidSigSize = ErrorKind("ErrInvalidSigSize")

	// ErrUserAgentTooLong is returned when the provided user agent exceeds
	// the maximum allowed.
	ErrUserAgentTooLong = ErrorKind("ErrUserAgentTooLong")

	// ErrTooManyHashFuncs is returned when a loaded bloom filter declares
	// more hash functions than the protocol permits.
	ErrTooManyHashFuncs = ErrorKind("ErrTooManyHashFuncs")

	// ErrFilterTooLarge is returned when a loaded bloom filter exceeds the
	// maximum size allowed.
	ErrFilterTooLarge = ErrorKind("ErrFilterTooLarge")

	// ErrElementTooLarge is returned when a bloom filter element exceeds
	// the maximum size allowed.
	ErrElementTooLarge = ErrorKind("ErrElementTooLarge")

	// ErrTooManyProofHashes is returned when a partial merkle tree declares
	// more proof hashes than transactions in the block.
	ErrTooManyProofHashes = ErrorKind("ErrTooManyProofHashes")

	// ErrInvalidMsg is returned for an invalid message structure.
	ErrInvalidMsg = ErrorKind("ErrInvalidMsg")
)

// Error satisfies the error interface and prints human-readable errors.
func (e ErrorKind) Error() string {
	return string(e)
}

// MessageError identifies an error related to wire messages.  It has full
// support for errors.Is and errors.As, so the caller can ascertain the
// specific reason for the error by checking the underlying error.
type MessageError struct {
	Func        string
	Err         error
	Description string
}

// Error satisfies the error interface and prints human-readable errors.
func (e MessageError) Error() string {
	return e.Description
}

// Unwrap returns the underlying wrapped error.
func (e MessageError) Unwrap() error {
	return e.Err
}

// messageError creates a MessageError given a set of arguments.
func messageError(fn string, kind ErrorKind, desc string) MessageError {
	return MessageError{Func: fn, Err: kind, Description: desc}
}

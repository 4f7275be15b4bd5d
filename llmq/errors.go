// Copyright (c) 2024-2026 The AXErunners developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package llmq

// ErrorKind identifies a kind of error.  It has full support for errors.Is
// and errors.As, so the caller can directly check against an error kind when
// determining the reason for an error.
type ErrorKind string

// These constants are used to identify a specific VerifyError.
const (
	// ErrNoQuorums is returned when no quorum of the required category is
	// known, so no responsible quorum can be selected.
	ErrNoQuorums = ErrorKind("ErrNoQuorums")

	// ErrUnknownLLMQType is returned when a commitment names a quorum
	// category the network does not deploy.
	ErrUnknownLLMQType = ErrorKind("ErrUnknownLLMQType")

	// ErrBadBitsetSize is returned when a commitment's signers or
	// validMembers bitset does not match the category's member count.
	ErrBadBitsetSize = ErrorKind("ErrBadBitsetSize")

	// ErrBelowThreshold is returned when a commitment has fewer signers
	// than the category's signing threshold.
	ErrBelowThreshold = ErrorKind("ErrBelowThreshold")

	// ErrInvalidPubKey is returned when a 48 byte field is not a valid
	// compressed BLS12-381 G1 public key.
	ErrInvalidPubKey = ErrorKind("ErrInvalidPubKey")

	// ErrInvalidSignature is returned when a 96 byte field is not a valid
	// compressed BLS12-381 G2 signature.
	ErrInvalidSignature = ErrorKind("ErrInvalidSignature")

	// ErrSigCheckFailed is returned when a structurally valid signature
	// does not verify against the expected public key and message.
	ErrSigCheckFailed = ErrorKind("ErrSigCheckFailed")

	// ErrBadSporkSignature is returned when a spork signature does not
	// recover to the network's spork address under either the new or the
	// legacy signing scheme.
	ErrBadSporkSignature = ErrorKind("ErrBadSporkSignature")
)

// Error satisfies the error interface and prints human-readable errors.
func (e ErrorKind) Error() string {
	return string(e)
}

// VerifyError identifies a signature or commitment verification failure.  It
// has full support for errors.Is and errors.As.
type VerifyError struct {
	Err         error
	Description string
}

// Error satisfies the error interface and prints human-readable errors.
func (e VerifyError) Error() string {
	return e.Description
}

// Unwrap returns the underlying wrapped error.
func (e VerifyError) Unwrap() error {
	return e.Err
}

// verifyError creates a VerifyError given a set of arguments.
func verifyError(kind ErrorKind, desc string) VerifyError {
	return VerifyError{Err: kind, Description: desc}
}

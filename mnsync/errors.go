// Copyright (c) 2024-2026 The AXErunners developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package mnsync

// ErrorKind identifies a kind of error.  It has full support for errors.Is
// and errors.As, so the caller can directly check against an error kind when
// determining the reason for an error.
type ErrorKind string

// These constants are used to identify a specific RuleError.
const (
	// ErrUnknownCbTxVersion is returned when a diff's coinbase special
	// payload declares a version newer than this implementation
	// understands.  The whole diff is rejected rather than partially
	// applied.
	ErrUnknownCbTxVersion = ErrorKind("ErrUnknownCbTxVersion")

	// ErrListInactive is returned when the target block's coinbase is a
	// classical coinbase and therefore does not commit to a masternode
	// list at that height.
	ErrListInactive = ErrorKind("ErrListInactive")

	// ErrBaseMismatch is returned when a diff's base block does not match
	// the height the list is currently synced to.  This also rejects the
	// reapplication of an already applied diff.
	ErrBaseMismatch = ErrorKind("ErrBaseMismatch")

	// ErrUnknownBlock is returned when a block hash or height referenced
	// by a diff is not present in the header store.
	ErrUnknownBlock = ErrorKind("ErrUnknownBlock")

	// ErrMerkleMismatch is returned when the masternode list merkle root
	// recomputed from the candidate post-diff list does not match the root
	// committed to by the coinbase special payload.
	ErrMerkleMismatch = ErrorKind("ErrMerkleMismatch")

	// ErrQuorumRootMismatch is the quorum set equivalent of
	// ErrMerkleMismatch.
	ErrQuorumRootMismatch = ErrorKind("ErrQuorumRootMismatch")

	// ErrBadInclusionProof is returned when the partial merkle tree
	// carried by a diff does not prove the coinbase transaction's
	// inclusion in the target block.
	ErrBadInclusionProof = ErrorKind("ErrBadInclusionProof")

	// ErrBadSnapshot is returned when a persisted state snapshot cannot
	// be decoded.
	ErrBadSnapshot = ErrorKind("ErrBadSnapshot")
)

// Error satisfies the error interface and prints human-readable errors.
func (e ErrorKind) Error() string {
	return string(e)
}

// RuleError identifies a diff verification failure.  It is local to one diff
// application: the diff is discarded and the list state is left untouched,
// but the process keeps running and the same range may be re-requested from
// another peer.  It has full support for errors.Is and errors.As.
type RuleError struct {
	Err         error
	Description string
}

// Error satisfies the error interface and prints human-readable errors.
func (e RuleError) Error() string {
	return e.Description
}

// Unwrap returns the underlying wrapped error.
func (e RuleError) Unwrap() error {
	return e.Err
}

// ruleError creates a RuleError given a set of arguments.
func ruleError(kind ErrorKind, desc string) RuleError {
	return RuleError{Err: kind, Description: desc}
}

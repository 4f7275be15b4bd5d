// Copyright (c) 2024-2026 The AXErunners developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

/*
Package llmq verifies the signatures long-living masternode quorums produce.

A quorum threshold signature (an InstantSend lock or a chain lock) is not
verified against an arbitrary quorum: for each request id the protocol
selects a single responsible quorum by hashing the quorum category, the
quorum hash and the request id together and taking the quorum with the
numerically lowest result.  The selection is a deterministic lottery and
must match across implementations, or nodes disagree about which key a
signature should verify against.

Threshold signatures are 96 byte BLS12-381 G2 points verified against the
responsible quorum's 48 byte aggregate G1 public key.  Quorum commitments
are checked structurally against the category's member count and signing
threshold, and their recovered signature against the commitment's own
aggregate key.

Spork signatures are ECDSA rather than BLS: a 65 byte compact signature is
recovered to a public key and its pay-to-pubkey-hash address compared
against the network's hardcoded spork address, trying the current signing
scheme first and the legacy signed-message scheme second.
*/
package llmq

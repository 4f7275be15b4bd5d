// Copyright (c) 2024-2026 The AXErunners developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package chaincfg

import (
	"time"
)

// AxeNet represents which AXE network a message belongs to.  It is encoded as
// the first four bytes of every wire message and prevents peers on different
// networks from talking to each other.
type AxeNet uint32

// Constants used to indicate the AXE network a message applies to.
const (
	// MainNet represents the main AXE network.
	MainNet AxeNet = 0xbd6b0cbf

	// TestNet represents the AXE test network.
	TestNet AxeNet = 0xffcae2ce
)

// String returns the AxeNet in human-readable form.
func (n AxeNet) String() string {
	switch n {
	case MainNet:
		return "MainNet"
	case TestNet:
		return "TestNet"
	}
	return "Unknown AxeNet"
}

// LLMQType identifies one of the long-living masternode quorum categories
// defined by the protocol.
type LLMQType uint8

// The LLMQ types deployed on the AXE networks.
const (
	// LLMQType5060 is a quorum of 50 members with a signing threshold of
	// 60%.  It is responsible for InstantSend locks.
	LLMQType5060 LLMQType = 1

	// LLMQType40060 is a quorum of 400 members with a signing threshold of
	// 60%.
	LLMQType40060 LLMQType = 2

	// LLMQType40085 is a quorum of 400 members with a signing threshold of
	// 85%.  It is responsible for ChainLocks.
	LLMQType40085 LLMQType = 3

	// LLMQTypeTest is the 5 member quorum used on test networks.
	LLMQTypeTest LLMQType = 100
)

// String returns the LLMQType in human-readable form.
func (t LLMQType) String() string {
	switch t {
	case LLMQType5060:
		return "llmq_50_60"
	case LLMQType40060:
		return "llmq_400_60"
	case LLMQType40085:
		return "llmq_400_85"
	case LLMQTypeTest:
		return "llmq_test"
	}
	return "llmq_unknown"
}

// LLMQParams describes the composition of one LLMQ category.
type LLMQParams struct {
	// Type is the protocol identifier of the quorum category.
	Type LLMQType

	// Size is the number of masternodes in a quorum of this category.  It
	// is also the bit length of the signers and validMembers bitsets in a
	// final commitment.
	Size int

	// Threshold is the number of valid member signatures required to
	// produce a recovered threshold signature.
	Threshold int
}

const (
	// LLMQOffset is the number of blocks the quorum view lags behind the
	// chain tip.  Quorums are only considered final this many blocks after
	// the block that seeded their formation.
	LLMQOffset = 8

	// DiffChunkSize is the maximum number of blocks a single masternode
	// list diff request may span.  It matches the block header chunk size
	// so diff responses align with cached header ranges.
	DiffChunkSize = 2016
)

// Params defines an AXE network by its parameters.  These parameters may be
// used by AXE applications to differentiate networks as well as addresses and
// keys for one network from those intended for use on another network.
type Params struct {
	// Name defines a human-readable identifier for the network.
	Name string

	// Net defines the magic bytes used to identify the network.
	Net AxeNet

	// DefaultPort defines the default peer-to-peer port for the network.
	DefaultPort string

	// DNSSeeds defines a list of DNS seeds for the network that are used
	// as one method to discover peers.
	DNSSeeds []string

	// DoHResolvers defines the DNS-over-HTTPS endpoints used to resolve
	// the DNS seeds when conventional resolution is unavailable or
	// undesirable.  They are tried in order and the first success wins.
	DoHResolvers []string

	// PubKeyHashAddrID is the base58check version byte of pay-to-pubkey-hash
	// addresses on the network.
	PubKeyHashAddrID byte

	// SignedMessagePrefix is the magic prefix applied when hashing
	// legacy-scheme signed messages such as sporks.
	SignedMessagePrefix string

	// SporkAddress is the address whose key signs spork messages.  A spork
	// is only accepted when its signature recovers to this address.
	SporkAddress string

	// LLMQChainLocks and LLMQInstantSend name the quorum categories
	// responsible for ChainLocks and InstantSend locks on the network.
	LLMQChainLocks  LLMQType
	LLMQInstantSend LLMQType

	// LLMQs enumerates the quorum categories active on the network.
	LLMQs []LLMQParams
}

// LLMQ returns the parameters of the given quorum category and whether the
// category is active on the network.
func (p *Params) LLMQ(t LLMQType) (LLMQParams, bool) {
	for _, q := range p.LLMQs {
		if q.Type == t {
			return q, true
		}
	}
	return LLMQParams{}, false
}

// Protocol version constants.
const (
	// ProtocolVersion is the latest protocol version this package supports.
	ProtocolVersion uint32 = 70218

	// MinProtocolVersion is the minimum protocol version a remote peer may
	// negotiate before it is dropped during the handshake.
	MinProtocolVersion uint32 = 70214
)

// Network timing defaults consumed by the peer and network manager layers.
const (
	// DefaultNetTimeout is the read silence tolerated on a direct
	// connection before it is considered stalled.
	DefaultNetTimeout = 10 * time.Second

	// DefaultProxyNetTimeout is the equivalent tolerance when tunneling
	// through a SOCKS proxy, scaled up for the extra hop.
	DefaultProxyNetTimeout = 30 * time.Second
)

// Copyright (c) 2024-2026 The AXErunners developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package main

import (
	"strconv"
	"testing"

	"github.com/AXErunners/axesync/chaincfg"
)

// TestNetworkSettings checks network-specific settings for internal
// consistency so a misconfigured set of parameters is caught before it can be
// deployed.
func TestNetworkSettings(t *testing.T) {
	checkNetworkIsConsistent(t, &chaincfg.MainNetParams)
	checkNetworkIsConsistent(t, &chaincfg.TestNetParams)

	if chaincfg.MainNetParams.Net == chaincfg.TestNetParams.Net {
		t.Fatal("mainnet and testnet share the same network magic")
	}
	if chaincfg.MainNetParams.DefaultPort == chaincfg.TestNetParams.DefaultPort {
		t.Fatal("mainnet and testnet share the same default port")
	}
}

// checkNetworkIsConsistent ensures the parameters of a single network agree
// with each other and with the protocol quorum rules.
func checkNetworkIsConsistent(t *testing.T, params *chaincfg.Params) {
	if _, err := strconv.ParseUint(params.DefaultPort, 10, 16); err != nil {
		t.Fatalf("%s: invalid default port %q: %v", params.Name,
			params.DefaultPort, err)
	}

	if len(params.DNSSeeds) == 0 {
		t.Fatalf("%s: no DNS seeds configured", params.Name)
	}
	if params.SporkAddress == "" {
		t.Fatalf("%s: no spork address configured", params.Name)
	}

	// Every quorum category the network designates for ChainLocks and
	// InstantSend must be enumerated in the active LLMQ list.
	if _, ok := params.LLMQ(params.LLMQChainLocks); !ok {
		t.Fatalf("%s: ChainLocks quorum category %v is not active",
			params.Name, params.LLMQChainLocks)
	}
	if _, ok := params.LLMQ(params.LLMQInstantSend); !ok {
		t.Fatalf("%s: InstantSend quorum category %v is not active",
			params.Name, params.LLMQInstantSend)
	}

	// A threshold above the member count could never be reached and a
	// threshold at or below half would allow conflicting recovered
	// signatures for the same request.
	for _, q := range params.LLMQs {
		if q.Size <= 0 {
			t.Fatalf("%s: quorum %v has size %d", params.Name, q.Type, q.Size)
		}
		if q.Threshold > q.Size {
			t.Fatalf("%s: quorum %v threshold %d exceeds size %d",
				params.Name, q.Type, q.Threshold, q.Size)
		}
		if q.Threshold*2 <= q.Size {
			t.Fatalf("%s: quorum %v threshold %d is not a majority of %d",
				params.Name, q.Type, q.Threshold, q.Size)
		}
	}
}

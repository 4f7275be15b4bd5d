// Copyright (c) 2024-2026 The AXErunners developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package chaincfg

// TestNetParams defines the network parameters for the AXE test network.
var TestNetParams = Params{
	Name:        "testnet",
	Net:         TestNet,
	DefaultPort: "19937",

	DNSSeeds: []string{
		"testnet-seed.axerunners.com",
	},
	DoHResolvers: []string{
		"https://cloudflare-dns.com/dns-query",
		"https://dns.google/dns-query",
	},

	PubKeyHashAddrID:    140, // addresses start with y
	SignedMessagePrefix: "DarkCoin Signed Message:\n",
	SporkAddress:        "yjPtiKh2uwk3bDutTEA2q9mCtXyiZRWn55",

	LLMQChainLocks:  LLMQType5060,
	LLMQInstantSend: LLMQType5060,
	LLMQs: []LLMQParams{
		{Type: LLMQType5060, Size: 50, Threshold: 30},
		{Type: LLMQTypeTest, Size: 5, Threshold: 3},
	},
}

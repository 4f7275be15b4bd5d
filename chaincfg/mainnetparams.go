// Copyright (c) 2024-2026 The AXErunners developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package chaincfg

// MainNetParams defines the network parameters for the main AXE network.
var MainNetParams = Params{
	Name:        "mainnet",
	Net:         MainNet,
	DefaultPort: "9937",

	DNSSeeds: []string{
		"dnsseed.axerunners.com",
		"dnsseed2.axerunners.com",
		"dnsseed.axe.cash",
	},
	DoHResolvers: []string{
		"https://cloudflare-dns.com/dns-query",
		"https://dns.google/dns-query",
		"https://dns9.quad9.net:5053/dns-query",
	},

	PubKeyHashAddrID:    55, // addresses start with P
	SignedMessagePrefix: "DarkCoin Signed Message:\n",
	SporkAddress:        "PJ6GBhQ1JGmwrpwXZzpsFTUpAjbCJ4ouzH",

	LLMQChainLocks:  LLMQType40085,
	LLMQInstantSend: LLMQType5060,
	LLMQs: []LLMQParams{
		{Type: LLMQType5060, Size: 50, Threshold: 30},
		{Type: LLMQType40060, Size: 400, Threshold: 240},
		{Type: LLMQType40085, Size: 400, Threshold: 340},
	},
}

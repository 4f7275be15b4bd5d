// Copyright (c) 2024-2026 The AXErunners developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package chaincfg defines the network parameters for the AXE networks.
//
// Code that differentiates between the main network and the test network,
// such as the peer-to-peer wire protocol, the spork signing address, or the
// set of active LLMQ categories, should consult a single Params instance
// rather than hardcoding per-network constants.
package chaincfg

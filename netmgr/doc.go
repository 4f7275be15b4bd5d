// Copyright (c) 2024-2026 The AXErunners developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

/*
Package netmgr manages the pool of peer connections.

The manager maintains a target number of ready connections, between 2 and 8.
Candidates come from three sources in order of preference: previously
successful peers persisted on disk, the network's DNS seeds resolved over
DNS-over-HTTPS, and addresses advertised by connected peers.  When a static
peer list is configured, discovery is disabled entirely and only the listed
addresses are dialed, with a short cool-down between reconnect attempts.

Peers that commit protocol violations are recorded in a persistent ban list
and never dialed again until the entry expires.  Static peers are exempt
from banning.

Spork state is aggregated across peers rather than trusted from any single
connection.  The manager keeps asking random connected peers for sporks
until a majority of the connected peers have contributed, and the registry
keeps only the most recently signed value per spork.

Subscribers receive typed events for peer connects and disconnects, ban list
changes, network byte-counter movement, and spork updates.  Event delivery
is non-blocking; a slow subscriber loses events rather than stalling the
manager.
*/
package netmgr

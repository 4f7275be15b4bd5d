// Copyright (c) 2024-2026 The AXErunners developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

/*
Package peer provides a common base for creating and managing outbound AXE
network peer connections.

# Overview

A peer owns exactly one connection.  After AssociateConnection completes the
version negotiation, three goroutines run for the life of the connection: the
input handler dispatches inbound messages strictly in arrival order, the
output handler serializes queued outbound messages, and the ping handler
probes the connection once it has been idle.

The input handler's read deadline doubles as the connection-health monitor:
if the remote sends nothing within the configured idle timeout the connection
is torn down.

Request/response exchanges that expect a reply (the masternode list diff
request) use a single-slot discipline: at most one request may be outstanding
per connection, and a second concurrent request fails locally without
transmitting anything.

A connection that produced a wire protocol violation records a ban reason
that the owner can inspect with BanReason after disconnect; clean closures
and timeouts leave the reason empty.
*/
package peer

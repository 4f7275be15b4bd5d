// Copyright (c) 2024-2026 The AXErunners developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

/*
Package mnsync maintains a verified view of the network's masternode set and
active quorum set by applying incremental list diffs.

Every diff is verified before it is committed: the coinbase special payload
version must be understood, the diff must chain directly off the currently
verified height, the recomputed masternode list merkle root (and from
payload version 2 on, the quorum set root) must match the roots the coinbase
commits to, and the coinbase transaction itself must be proven to be part of
the target block through the partial merkle tree carried by the diff and the
merkle root recorded by the stored block header at that height.

Verification works on copies of the live maps.  A failure of any check
discards the diff and leaves the state untouched; the same range is simply
re-requested later, possibly from a different peer.  Heights therefore only
ever move forward, and only past independently verified diffs.

The list is persisted as a gzip-compressed JSON snapshot and restored at
startup, and block headers are kept in a leveldb store that doubles as the
height-to-hash resolver for diff requests.
*/
package mnsync

// Copyright (c) 2024-2026 The AXErunners developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package limits tunes process-wide runtime resource limits.
package limits

import "runtime/debug"

// SetMemoryLimit sets a soft memory limit for the runtime.  The garbage
// collector works harder as the heap approaches the limit instead of letting
// it grow proportionally, which bounds the footprint of allocation bursts
// such as applying a full masternode list diff.
func SetMemoryLimit(limit int64) {
	debug.SetMemoryLimit(limit)
}

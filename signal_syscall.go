// Copyright (c) 2024-2026 The AXErunners developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

//go:build unix || windows

package main

import "syscall"

// Treat termination and hangup requests the same as an interrupt so the
// final snapshot is written on service stops and session drops too.
func init() {
	interruptSignals = append(interruptSignals, syscall.SIGTERM, syscall.SIGHUP)
}

// Copyright (c) 2024-2026 The AXErunners developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package main

import (
	"context"
	"os"
	"os/signal"
)

// shutdownRequestChannel lets subsystems initiate the same orderly shutdown
// an interrupt signal triggers.
var shutdownRequestChannel = make(chan struct{})

// interruptSignals is the set of signals treated as a shutdown request.
// Platform-specific init functions extend it.
var interruptSignals = []os.Signal{os.Interrupt}

// shutdownListener returns a context canceled on the first interrupt signal
// or internal shutdown request.  Further signals while the snapshot flush
// and peer teardown run are logged so an impatient operator can see the
// process is winding down rather than hung.
func shutdownListener() context.Context {
	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		interruptChannel := make(chan os.Signal, 1)
		signal.Notify(interruptChannel, interruptSignals...)

		for first := true; ; first = false {
			select {
			case sig := <-interruptChannel:
				if first {
					axedLog.Infof("Received signal (%s).  "+
						"Shutting down...", sig)
					cancel()
					continue
				}
				axedLog.Infof("Received signal (%s).  Shutdown "+
					"already in progress", sig)

			case <-shutdownRequestChannel:
				if first {
					axedLog.Info("Shutdown requested.  " +
						"Shutting down...")
					cancel()
					continue
				}
				axedLog.Info("Shutdown already in progress")
			}
		}
	}()

	return ctx
}

// shutdownRequested reports whether the shutdown context has been canceled,
// for callers between startup stages that want an if instead of a select.
func shutdownRequested(ctx context.Context) bool {
	select {
	case <-ctx.Done():
		return true
	default:
	}

	return false
}

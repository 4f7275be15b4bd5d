// Copyright (c) 2024-2026 The AXErunners developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"sync"

	"github.com/AXErunners/axesync/internal/limits"
	"github.com/AXErunners/axesync/internal/version"
	"github.com/AXErunners/axesync/llmq"
	"github.com/AXErunners/axesync/mnsync"
	"github.com/AXErunners/axesync/netmgr"
	"github.com/AXErunners/axesync/wire"
)

const (
	// headersDbName is the directory for the block header store, relative to
	// the data directory.
	headersDbName = "headers"

	// snapshotName is the file for the persisted masternode list snapshot,
	// relative to the data directory.
	snapshotName = "mnlist.gz"
)

var cfg *config

// axesyncdMain is the real main function for axesyncd.  It is necessary to
// work around the fact that deferred functions do not run when os.Exit() is
// called.
func axesyncdMain() error {
	// Load configuration and parse command line.  This function also
	// initializes logging and configures it accordingly.
	appName := filepath.Base(os.Args[0])
	appName = strings.TrimSuffix(appName, filepath.Ext(appName))
	tcfg, _, err := loadConfig(appName)
	if err != nil {
		usageMessage := fmt.Sprintf("Use %s -h to show usage", appName)
		fmt.Fprintln(os.Stderr, err)
		var e errSuppressUsage
		if !errors.As(err, &e) {
			fmt.Fprintln(os.Stderr, usageMessage)
		}
		return err
	}
	cfg = tcfg
	defer func() {
		if logRotator != nil {
			logRotator.Close()
		}
	}()

	// Get a context that will be canceled when a shutdown signal has been
	// triggered from an OS signal such as SIGINT (Ctrl+C).
	ctx := shutdownListener()
	defer axedLog.Info("Shutdown complete")

	// Show version and home dir at startup.
	axedLog.Infof("Version %s (Go version %s %s/%s)", version.String(),
		runtime.Version(), runtime.GOOS, runtime.GOARCH)
	axedLog.Infof("Home dir: %s", cfg.HomeDir)
	axedLog.Infof("Network: %s", cfg.params.Name)
	if cfg.NoFileLogging {
		axedLog.Info("File logging disabled")
	}

	// Applying a large masternode list diff causes bursty allocations.  A
	// soft memory limit keeps the garbage collector from overallocating
	// during those bursts while leaving plenty of headroom for steady state
	// operation.
	const softMemLimit = 512 << 20 // 512 MiB
	limits.SetMemoryLimit(softMemLimit)

	// Enable http profile server if requested.  Note that since the server may
	// be started now or dynamically started and stopped later, the stop call
	// is always deferred to ensure it is always stopped during process
	// shutdown.
	var profiler profileServer
	defer profiler.Stop()
	if cfg.Profile != "" {
		const allowNonLoopback = false
		if err := profiler.Start(cfg.Profile, allowNonLoopback); err != nil {
			axedLog.Warnf("unable to start profile server: %v", err)
			return err
		}
	}

	// Return now if a shutdown signal was triggered.
	if shutdownRequested(ctx) {
		return nil
	}

	// Open the block header store.
	headers, err := mnsync.OpenHeaderStore(filepath.Join(cfg.DataDir,
		headersDbName))
	if err != nil {
		axedLog.Errorf("Unable to open header store: %v", err)
		return err
	}
	defer func() {
		axedLog.Infof("Gracefully shutting down the header store...")
		headers.Close()
	}()
	axedLog.Infof("Header store tip height %d", headers.TipHeight())

	// Load the masternode list from the persisted snapshot when one exists.
	snapshotPath := filepath.Join(cfg.DataDir, snapshotName)
	list := mnsync.NewMNList()
	if err := list.ReadSnapshot(snapshotPath); err != nil {
		axedLog.Errorf("Unable to load list snapshot: %v", err)
		return err
	}
	if h := list.ProtxHeight(); h > 1 {
		axedLog.Infof("Loaded masternode list snapshot: height %d, %d "+
			"masternodes, %d quorums", h, list.Len(), list.QuorumCount())
	}

	// Quorum signature verification is backed by the quorums carried in the
	// synced list.
	verifier := llmq.NewVerifier(cfg.params, list)
	sporkVerifier := llmq.NewSporkVerifier(cfg.params)

	// Create the network manager.  Explicitly configured peers disable
	// discovery entirely.
	mgr := netmgr.New(&netmgr.Config{
		Params:      cfg.params,
		Dial:        cfg.dial,
		TargetPeers: cfg.MaxPeers,
		StaticPeers: cfg.Connect,
		NoDiscovery: cfg.NoDiscovery,
		VerifySpork: sporkVerifier.Verify,
		OnISLock: func(fromAddr string, msg *wire.MsgISLock) {
			if err := verifier.VerifyISLock(msg); err != nil {
				axedLog.Debugf("Rejected islock for %v from %s: %v",
					msg.TxHash, fromAddr, err)
				return
			}
			axedLog.Infof("Verified islock for %v (%d inputs) from %s",
				msg.TxHash, len(msg.Inputs), fromAddr)
		},
		Headers:         headers,
		BanListPath:     filepath.Join(cfg.DataDir, "banlist.gz"),
		RecentPeersPath: filepath.Join(cfg.DataDir, "peers.gz"),
	})

	syncer := mnsync.NewSyncer(&mnsync.SyncConfig{
		List:         list,
		Headers:      headers,
		Net:          mgr,
		SnapshotPath: snapshotPath,
		OnDiffApplied: func(r *mnsync.DiffResult) {
			axedLog.Infof("Applied diff to height %d: +%d/-%d masternodes, "+
				"+%d/-%d quorums", r.Height, len(r.AddedMNs),
				len(r.RemovedMNs), len(r.AddedQuorums), len(r.RemovedQuorums))
		},
	})

	// Log connectivity and ban events as they happen.
	go func() {
		for ev := range mgr.Subscribe() {
			switch ev := ev.(type) {
			case netmgr.PeerConnectedEvent:
				axedLog.Infof("Peer connected: %s (%s)", ev.Addr, ev.UserAgent)
			case netmgr.PeerDisconnectedEvent:
				if ev.Banned {
					axedLog.Warnf("Peer disconnected and banned: %s", ev.Addr)
				} else {
					axedLog.Infof("Peer disconnected: %s", ev.Addr)
				}
			case netmgr.BanListChangedEvent:
				axedLog.Infof("Banned %s: %s", ev.Addr, ev.Reason)
			}
		}
	}()

	// Run the manager and the syncer.  Both block until the context is
	// canceled, which happens when an interrupt signal is received.
	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		mgr.Run(ctx)
	}()
	go func() {
		defer wg.Done()
		syncer.Run(ctx)
	}()
	wg.Wait()

	// Persist the final list state so a restart resumes where it left off.
	if err := list.WriteSnapshot(snapshotPath); err != nil {
		axedLog.Errorf("Unable to persist list snapshot: %v", err)
	}
	axedLog.Info("Sync engine shutdown complete")
	return nil
}

func main() {
	// Work around defer not working after os.Exit()
	if err := axesyncdMain(); err != nil {
		os.Exit(1)
	}
}

// Copyright (c) 2024-2026 The AXErunners developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package mnsync

import (
	"context"
	"errors"
	"time"

	"github.com/AXErunners/axesync/chaincfg"
	"github.com/AXErunners/axesync/wire"
)

const (
	// defaultPollInterval is how often the syncer checks whether the list
	// has fallen behind the chain tip.
	defaultPollInterval = 5 * time.Second

	// retryDelay is the pause after a failed request or a rejected diff
	// before the same range is re-requested, possibly from another peer.
	retryDelay = 2 * time.Second
)

// DiffRequester fetches a masternode list diff between two heights from the
// network.  The network manager satisfies it.
type DiffRequester interface {
	GetMNListDiff(ctx context.Context, baseHeight, targetHeight uint32) (*wire.MsgMNListDiff, uint32, error)
}

// SyncConfig holds the configuration options for the syncer.
type SyncConfig struct {
	// List is the state the syncer maintains.
	List *MNList

	// Headers resolves heights and merkle roots for verification.
	Headers *HeaderStore

	// Net fetches diffs from the peer pool.
	Net DiffRequester

	// SnapshotPath, when non-empty, is where the list snapshot is
	// persisted after each applied diff.
	SnapshotPath string

	// PollInterval overrides the tip polling cadence when non-zero.
	PollInterval time.Duration

	// OnDiffApplied, when non-nil, is invoked after each committed diff.
	OnDiffApplied func(*DiffResult)
}

// Syncer drives the request and apply cycle that keeps an MNList current
// with the chain tip.  The single-slot request discipline of the peer layer
// guarantees at most one diff is in flight, so at most one apply runs at a
// time by construction.
type Syncer struct {
	cfg SyncConfig
}

// NewSyncer returns a syncer for the given configuration.
func NewSyncer(cfg *SyncConfig) *Syncer {
	s := &Syncer{cfg: *cfg}
	if s.cfg.PollInterval == 0 {
		s.cfg.PollInterval = defaultPollInterval
	}
	return s
}

// nextRange returns the base and target of the next diff to request, or
// false when both views are caught up.  The list view syncs all the way to
// the chain tip; the quorum view trails it by LLMQOffset blocks since
// quorums are only final that far below the tip, so once the list is
// current any remaining quorum gap is requested off the quorum cursor.
func (s *Syncer) nextRange() (base, target uint32, ok bool) {
	tip := s.cfg.Headers.TipHeight()
	if protx := s.cfg.List.ProtxHeight(); protx < tip {
		return protx, tip, true
	}
	if tip <= chaincfg.LLMQOffset {
		return 0, 0, false
	}
	llmqTip := tip - chaincfg.LLMQOffset
	if llmq := s.cfg.List.LLMQHeight(); llmq < llmqTip {
		return llmq, llmqTip, true
	}
	return 0, 0, false
}

// Run keeps the list synced until the context is canceled.  While behind it
// chains one diff request off the trailing cursor; once caught up it polls
// for tip movement.
func (s *Syncer) Run(ctx context.Context) {
	log.Infof("Masternode list sync starting at heights %d/%d",
		s.cfg.List.ProtxHeight(), s.cfg.List.LLMQHeight())

	for {
		base, target, ok := s.nextRange()
		if !ok {
			select {
			case <-time.After(s.cfg.PollInterval):
				continue
			case <-ctx.Done():
				return
			}
		}

		if err := s.syncStep(ctx, base, target); err != nil {
			if ctx.Err() != nil {
				return
			}
			select {
			case <-time.After(retryDelay):
			case <-ctx.Done():
				return
			}
		}
	}
}

// syncStep requests and applies one diff chained off the given base.
func (s *Syncer) syncStep(ctx context.Context, base, target uint32) error {
	diff, reqTarget, err := s.cfg.Net.GetMNListDiff(ctx, base, target)
	if err != nil {
		log.Debugf("Diff request %d -> %d failed: %v", base, target, err)
		return err
	}

	result, err := s.cfg.List.ApplyDiff(diff, s.cfg.Headers)
	if err != nil {
		// A verification failure discards the diff and leaves the
		// state untouched; the range is retried on the next cycle.
		var rerr RuleError
		if errors.As(err, &rerr) {
			log.Warnf("Rejected diff %d -> %d: %v", base, reqTarget, err)
		} else {
			log.Errorf("Malformed diff %d -> %d: %v", base, reqTarget, err)
		}
		return err
	}

	if s.cfg.SnapshotPath != "" {
		if err := s.cfg.List.WriteSnapshot(s.cfg.SnapshotPath); err != nil {
			log.Errorf("Unable to persist list snapshot: %v", err)
		}
	}
	if s.cfg.OnDiffApplied != nil {
		s.cfg.OnDiffApplied(result)
	}
	return nil
}

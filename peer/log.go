// Copyright (c) 2024-2026 The AXErunners developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package peer

import (
	"fmt"

	"github.com/decred/slog"

	"github.com/AXErunners/axesync/wire"
)

// log is a logger that is initialized with no output filters.  This
// means the package will not perform any logging by default until the caller
// requests it.
// The default amount of logging is none.
var log = slog.Disabled

// UseLogger uses a specified Logger to output package logging info.
func UseLogger(logger slog.Logger) {
	log = logger
}

// logClosure is used to provide a closure over expensive logging operations so
// they aren't performed when the logging level doesn't warrant it.
type logClosure func() string

func (c logClosure) String() string {
	return c()
}

// newLogClosure returns a new closure over a function that returns a string
// which itself provides a Stringer interface so that it can be used with the
// logging system.
func newLogClosure(c func() string) logClosure {
	return logClosure(c)
}

// directionString is a helper function that returns a string that represents
// the direction of a connection (inbound or outbound).
func directionString(inbound bool) string {
	if inbound {
		return "inbound"
	}
	return "outbound"
}

// invSummary returns an inventory message as a human-readable string.
func invSummary(invList []*wire.InvVect) string {
	// No inventory.
	invLen := len(invList)
	if invLen == 0 {
		return "empty"
	}

	// One inventory item.
	if invLen == 1 {
		iv := invList[0]
		switch iv.Type {
		case wire.InvTypeError:
			return fmt.Sprintf("error %s", iv.Hash)
		case wire.InvTypeBlock:
			return fmt.Sprintf("block %s", iv.Hash)
		case wire.InvTypeTx:
			return fmt.Sprintf("tx %s", iv.Hash)
		case wire.InvTypeISLock:
			return fmt.Sprintf("islock %s", iv.Hash)
		}

		return fmt.Sprintf("unknown (%d) %s", uint32(iv.Type), iv.Hash)
	}

	// More than one inv item.
	var numTxns, numLocks uint64
	for _, iv := range invList {
		switch iv.Type {
		case wire.InvTypeTx:
			numTxns++
		case wire.InvTypeISLock:
			numLocks++
		}
	}

	diff := uint64(invLen) - (numTxns + numLocks)
	return fmt.Sprintf("txns %d, islocks %d, other %d", numTxns, numLocks, diff)
}

// messageSummary returns a human-readable string which summarizes a message.
// Not all messages have or need a summary.  This is used for debug logging.
func messageSummary(msg wire.Message) string {
	switch msg := msg.(type) {
	case *wire.MsgVersion:
		return fmt.Sprintf("agent %s, pver %d, block %d",
			msg.UserAgent, msg.ProtocolVersion, msg.LastBlock)

	case *wire.MsgVerAck:
		// No summary.

	case *wire.MsgGetAddr:
		// No summary.

	case *wire.MsgAddr:
		return fmt.Sprintf("%d addr", len(msg.AddrList))

	case *wire.MsgPing:
		return fmt.Sprintf("nonce %016x", msg.Nonce)

	case *wire.MsgPong:
		return fmt.Sprintf("nonce %016x", msg.Nonce)

	case *wire.MsgInv:
		return invSummary(msg.InvList)

	case *wire.MsgGetData:
		return invSummary(msg.InvList)

	case *wire.MsgSpork:
		return fmt.Sprintf("spork %d, value %d, signed %d", msg.SporkID,
			msg.Value, msg.TimeSigned)

	case *wire.MsgISLock:
		return fmt.Sprintf("tx %s, %d inputs", msg.TxHash, len(msg.Inputs))

	case *wire.MsgGetMNListD:
		return fmt.Sprintf("base %s, block %s", msg.BaseBlockHash,
			msg.BlockHash)

	case *wire.MsgMNListDiff:
		return fmt.Sprintf("block %s, %d added, %d deleted, %d new quorums",
			msg.BlockHash, len(msg.MNList), len(msg.DeletedMNs),
			len(msg.NewQuorums))

	case *wire.MsgQFCommit:
		return fmt.Sprintf("llmq %s, quorum %s", msg.LLMQType,
			msg.QuorumHash)
	}

	// No summary for other messages.
	return ""
}

// Copyright (c) 2024-2026 The AXErunners developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package llmq

import (
	"bytes"
	"crypto/sha256"
	"fmt"

	"github.com/btcsuite/btcd/btcutil/base58"
	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/decred/dcrd/crypto/ripemd160"
	"github.com/decred/dcrd/dcrec/secp256k1/v4"
	"github.com/decred/dcrd/dcrec/secp256k1/v4/ecdsa"

	"github.com/AXErunners/axesync/chaincfg"
	"github.com/AXErunners/axesync/wire"
)

// SporkVerifier checks spork message signatures against the network's
// hardcoded spork address.  Sporks are signed under one of two schemes and a
// verifier must accept either: the new scheme hashes the serialized spork
// fields directly, while the legacy scheme routes the decimal string form of
// the spork through the signed-message magic.
type SporkVerifier struct {
	params *chaincfg.Params
}

// NewSporkVerifier returns a spork verifier for the given network.
func NewSporkVerifier(params *chaincfg.Params) *SporkVerifier {
	return &SporkVerifier{params: params}
}

// hash160 returns RIPEMD-160(SHA-256(b)), the digest a pay-to-pubkey-hash
// address commits to.
func hash160(b []byte) []byte {
	sum := sha256.Sum256(b)
	h := ripemd160.New()
	h.Write(sum[:])
	return h.Sum(nil)
}

// signedMessageHash returns the digest of a legacy signed message: the
// network's signed-message magic and the message itself, each length
// prefixed, double-SHA256 hashed.
func signedMessageHash(prefix, message string) chainhash.Hash {
	var buf bytes.Buffer
	wire.WriteVarString(&buf, 0, prefix)
	wire.WriteVarString(&buf, 0, message)
	return chainhash.DoubleHashH(buf.Bytes())
}

// recoverAddress recovers the signing public key from a compact signature
// over the given digest and returns its pay-to-pubkey-hash address.
func (v *SporkVerifier) recoverAddress(sig []byte, hash *chainhash.Hash) (string, error) {
	pub, compressed, err := ecdsa.RecoverCompact(sig, hash[:])
	if err != nil {
		return "", err
	}
	var serialized []byte
	if compressed {
		serialized = pub.SerializeCompressed()
	} else {
		serialized = pub.SerializeUncompressed()
	}
	return base58.CheckEncode(hash160(serialized), v.params.PubKeyHashAddrID), nil
}

// Verify checks the spork's compact ECDSA signature, trying the new signing
// scheme first and falling back to the legacy scheme.  The peer layer bans
// the provider of a spork that fails both.
func (v *SporkVerifier) Verify(msg *wire.MsgSpork) error {
	newHash := msg.SignatureHash()
	addr, err := v.recoverAddress(msg.Signature[:], &newHash)
	if err == nil && addr == v.params.SporkAddress {
		return nil
	}

	legacyHash := signedMessageHash(v.params.SignedMessagePrefix,
		msg.LegacyMessage())
	addr, err = v.recoverAddress(msg.Signature[:], &legacyHash)
	if err != nil {
		str := fmt.Sprintf("spork %d signature recovery failed: %v",
			msg.SporkID, err)
		return verifyError(ErrBadSporkSignature, str)
	}
	if addr != v.params.SporkAddress {
		str := fmt.Sprintf("spork %d signed by %s, want %s", msg.SporkID,
			addr, v.params.SporkAddress)
		return verifyError(ErrBadSporkSignature, str)
	}
	return nil
}

// SignSpork signs a spork with the given private key under the new scheme.
// It exists for harness and test use; production sporks are signed by the
// network operator's key.
func SignSpork(msg *wire.MsgSpork, key *secp256k1.PrivateKey) {
	hash := msg.SignatureHash()
	sig := ecdsa.SignCompact(key, hash[:], true)
	copy(msg.Signature[:], sig)
}

// Copyright 2022-2026 The N42 Authors
// This file is part of the N42 library.
//
// The N42 library is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// The N42 library is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Lesser General Public License for more details.
//
// You should have received a copy of the GNU Lesser General Public License
// along with the N42 library. If not, see <http://www.gnu.org/licenses/>.

package types

import (
	"encoding/hex"

	"github.com/btcsuite/btcd/btcec/v2"
)

// GenesisSigner is the sentinel signerPublicKey value stored on block 0.
// Signature verification is skipped for a block carrying this value.
const GenesisSigner = "GENESIS"

// PublicKey wraps a secp256k1 public key with the stable, hex-encoded
// serialization used in canonical content, storage, and the public API.
type PublicKey struct {
	key *btcec.PublicKey
}

// NewPublicKey wraps a parsed secp256k1 public key.
func NewPublicKey(key *btcec.PublicKey) PublicKey {
	return PublicKey{key: key}
}

// ParsePublicKey decodes a compressed secp256k1 public key from its
// serialized hex form (the inverse of PublicKey.Serialize).
func ParsePublicKey(serialized string) (PublicKey, error) {
	b, err := hex.DecodeString(serialized)
	if err != nil {
		return PublicKey{}, err
	}
	key, err := btcec.ParsePubKey(b)
	if err != nil {
		return PublicKey{}, err
	}
	return PublicKey{key: key}, nil
}

// Key returns the underlying btcec public key.
func (p PublicKey) Key() *btcec.PublicKey { return p.key }

// Serialize returns the stable hex-encoded compressed form reproducible
// across implementations; this is the string stored as signerPublicKey and
// used verbatim inside canonical content.
func (p PublicKey) Serialize() string {
	if p.key == nil {
		return ""
	}
	return hex.EncodeToString(p.key.SerializeCompressed())
}

// IsZero reports whether this PublicKey wraps no key.
func (p PublicKey) IsZero() bool { return p.key == nil }

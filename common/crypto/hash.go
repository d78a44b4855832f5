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

// Package crypto implements the hashing, signing, and authenticated
// encryption primitives a block ledger needs: canonical content hashing,
// secp256k1 signatures, AES-256-GCM payload encryption, and an
// Argon2id password KDF.
package crypto

import (
	"crypto/sha256"
	"strconv"
	"time"

	"github.com/n42blockchain/blockledger/common/encoding"
	"github.com/n42blockchain/blockledger/common/types"
)

// CanonicalContent builds the exact byte string hashed and signed for a
// block: blockNumber, previousHash, data, epoch-seconds UTC timestamp, and
// the serialized signer public key, concatenated with no separators. Any
// change to this order breaks hash/signature compatibility with every
// previously stored block.
func CanonicalContent(blockNumber uint64, previousHash, data string, timestamp time.Time, signerPublicKey string) string {
	buf := encoding.GetBuffer()
	defer encoding.PutBuffer(buf)

	buf.WriteString(strconv.FormatUint(blockNumber, 10))
	buf.WriteString(previousHash)
	buf.WriteString(data)
	buf.WriteString(strconv.FormatInt(timestamp.UTC().Unix(), 10))
	buf.WriteString(signerPublicKey)

	return buf.String()
}

// HashContent computes the SHA-256 digest of the canonical content
// string, as raw bytes; HashHex gives its lowercase-hex form.
func HashContent(content string) types.Hash {
	return sha256.Sum256([]byte(content))
}

// HashHex is a convenience wrapper returning the digest already hex-encoded,
// the form stored as Block.Hash.
func HashHex(content string) string {
	h := HashContent(content)
	return h.Hex()
}

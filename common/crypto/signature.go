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

package crypto

import (
	"encoding/hex"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/btcsuite/btcd/btcec/v2/ecdsa"

	"github.com/n42blockchain/blockledger/common/types"
)

// GenerateSignerKey creates a fresh secp256k1 key pair for a new authorized
// signer.
func GenerateSignerKey() (*btcec.PrivateKey, error) {
	return btcec.NewPrivateKey()
}

// Sign signs the canonical content with the signer's private key and
// returns the hex-encoded, DER-serialized signature stored as Block.Signature.
func Sign(privateKey *btcec.PrivateKey, content string) string {
	digest := HashContent(content)
	sig := ecdsa.Sign(privateKey, digest[:])
	return hex.EncodeToString(sig.Serialize())
}

// Verify checks a hex-encoded signature against the canonical content and
// the signer's public key. The genesis block is never verified here:
// its authenticity rests on being the unique block with number 0, not
// on a signature.
func Verify(signature, content string, signerPublicKey types.PublicKey) bool {
	if signerPublicKey.IsZero() {
		return false
	}

	sigBytes, err := hex.DecodeString(signature)
	if err != nil {
		return false
	}
	sig, err := ecdsa.ParseSignature(sigBytes)
	if err != nil {
		return false
	}

	digest := HashContent(content)
	return sig.Verify(digest[:], signerPublicKey.Key())
}
